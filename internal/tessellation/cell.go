package tessellation

import (
	"fmt"
	"math"
	"slices"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
)

// CellNeighbor is one side of the ridge shared by two cells.
//
// Both cells of a ridge hold a CellNeighbor with the same Start and End. For
// an unbounded ridge Start is the one real Voronoi vertex and End is a
// synthesized point on the ridge's ray, placed beyond both generators; in
// that case IsFinite is false.
type CellNeighbor struct {
	CellID     int          `json:"cell_id"`
	NeighborID int          `json:"neighbor_id"`
	Start      geometry.Dot `json:"start"`
	End        geometry.Dot `json:"end"`
	IsFinite   bool         `json:"is_finite"`
}

// Cell is the Voronoi region of one generator dot.
type Cell struct {
	// ID is the cell's index in its tessellation's arena.
	ID int `json:"id"`

	// Center is the generator dot, the middle of one stroke.
	Center geometry.Dot `json:"center"`

	Neighbors []CellNeighbor `json:"neighbors"`

	// DigitWidth estimates the glyph's horizontal extent. It is only computed
	// for cells that belong to a row with at least two cells.
	DigitWidth float64 `json:"digit_width,omitempty"`

	// RelativeWidth is the distance to the next cell in the row divided by the
	// row's mean digit width.
	RelativeWidth float64 `json:"relative_width,omitempty"`

	// ComeWith is the arena id of the next cell of the same multi-digit
	// number, if any.
	ComeWith *int `json:"come_with,omitempty"`

	// PredictedNumber and Confidence are written by the digit classifier.
	PredictedNumber *int    `json:"predicted_number,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
}

// NeighborIDs returns the ids of all cells sharing a ridge with c.
func (c *Cell) NeighborIDs() []int {
	ids := make([]int, len(c.Neighbors))
	for i, n := range c.Neighbors {
		ids[i] = n.NeighborID
	}
	return ids
}

// CalculateWidth sets DigitWidth from the ridges shared with the allowed
// neighbors. With one such ridge the width is the horizontal distance from
// the center to it; with two it is the nearer of the two.
func (c *Cell) CalculateWidth(allowed []int) error {
	matched := make([]CellNeighbor, 0, 2)
	for _, n := range c.Neighbors {
		if slices.Contains(allowed, n.NeighborID) {
			matched = append(matched, n)
		}
	}

	switch len(matched) {
	case 1, 2:
	default:
		return &TopologyError{CellID: c.ID, Allowed: slices.Clone(allowed), Matched: len(matched)}
	}

	width := math.Inf(1)
	for _, n := range matched {
		w, err := c.distanceToRidge(n)
		if err != nil {
			return err
		}
		width = math.Min(width, w)
	}
	c.DigitWidth = width
	return nil
}

func (c *Cell) distanceToRidge(n CellNeighbor) (float64, error) {
	ridge := [2]geometry.Dot{n.Start, n.End}
	horizon := [2]geometry.Dot{c.Center, {X: c.Center.X + 1, Y: c.Center.Y}}

	p, err := geometry.LineIntersection(ridge, horizon)
	if err != nil {
		return 0, fmt.Errorf("cell %d, ridge to %d: %w", c.ID, n.NeighborID, err)
	}
	return geometry.Distance(p, c.Center), nil
}

// Link marks next as the following cell of the same number.
func (c *Cell) Link(next int) {
	c.ComeWith = &next
}

// Predict stores the classifier's output for this cell.
func (c *Cell) Predict(digit int, confidence float64) {
	c.PredictedNumber = &digit
	c.Confidence = confidence
}
