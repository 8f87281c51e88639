package tessellation

import (
	"errors"
	"fmt"
)

var (
	// ErrTopologyInconsistency is returned when a cell does not border the
	// neighbors its row expects it to border.
	ErrTopologyInconsistency = errors.New("topology inconsistency")

	// ErrDuplicateGenerator is returned when two generator dots coincide.
	ErrDuplicateGenerator = errors.New("duplicate generator point")

	// ErrDegenerateInput is returned for generator sets without a Voronoi
	// diagram: fewer than three dots, or all of them collinear.
	ErrDegenerateInput = errors.New("degenerate tessellation input")

	// ErrUnknownCell is returned for ids outside the arena.
	ErrUnknownCell = errors.New("unknown cell")
)

// TopologyError reports a cell whose ridges do not match the requested
// neighbor ids.
//
// The sentinel ErrTopologyInconsistency can be matched with errors.Is.
type TopologyError struct {
	CellID  int
	Allowed []int
	Matched int
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("cell %d: %d of neighbors %v share a ridge, expected 1 or 2", e.CellID, e.Matched, e.Allowed)
}

func (e *TopologyError) Unwrap() error { return ErrTopologyInconsistency }
