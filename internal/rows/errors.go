package rows

import "errors"

var (
	// ErrNoHatches is returned by Process when no stroke has been added.
	ErrNoHatches = errors.New("no hatches to process")

	// ErrNotProcessed is returned when linking or grouping runs before the
	// rows exist.
	ErrNotProcessed = errors.New("rows not processed")

	// ErrUnknownDot is returned when a chain dot has no tessellation cell.
	ErrUnknownDot = errors.New("dot has no cell")

	// ErrDegenerateRow is returned when a row has no height to normalize by.
	ErrDegenerateRow = errors.New("row has zero height")

	// ErrUnknownStrategy is returned by StrategyByName.
	ErrUnknownStrategy = errors.New("unknown grouping strategy")
)
