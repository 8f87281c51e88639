package rows

import (
	"fmt"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// Strategy decides which adjacent cells of a row belong to the same number.
//
// Group receives the row's cells in reading order, at least two of them, and
// sets ComeWith on a cell to link it to its right-hand neighbor. Links are
// pairwise: a cell gets at most one forward link and no closure is taken.
type Strategy interface {
	Name() string
	Group(row *MatrixRow, cells []*tessellation.Cell) error
}

// Strategy names accepted by StrategyByName.
const (
	StrategyWidthRatio       = "width_ratio"
	StrategyHeightNormalized = "height_normalized"
)

// StrategyByName returns the strategy registered under name with its default
// parameters.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case StrategyWidthRatio, "":
		return NewWidthRatio(), nil
	case StrategyHeightNormalized:
		return NewHeightNormalized(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// WidthRatio links two neighbors when the distance between their centers is
// at most MaxRatio mean digit widths.
type WidthRatio struct {
	MaxRatio float64
}

// NewWidthRatio returns a WidthRatio with MaxRatio 1.5.
func NewWidthRatio() WidthRatio {
	return WidthRatio{MaxRatio: 1.5}
}

func (WidthRatio) Name() string { return StrategyWidthRatio }

// Group sets RelativeWidth on every cell but the last and links the close
// pairs.
func (w WidthRatio) Group(row *MatrixRow, cells []*tessellation.Cell) error {
	var sum float64
	for _, c := range cells {
		sum += c.DigitWidth
	}
	mean := sum / float64(len(cells))
	if mean <= 0 {
		return fmt.Errorf("%w: mean digit width %g", ErrDegenerateRow, mean)
	}

	for i, c := range cells[:len(cells)-1] {
		next := cells[i+1]
		c.RelativeWidth = geometry.Distance(c.Center, next.Center) / mean
		if w.linked(c.RelativeWidth) {
			c.Link(next.ID)
		}
	}
	return nil
}

func (w WidthRatio) linked(relative float64) bool {
	return relative <= w.MaxRatio
}

// HeightNormalized links two neighbors when their distance, measured in row
// heights, falls under a linear threshold fitted on labelled grids:
//
//	dist/h < Slope*Scale/h + Intercept
type HeightNormalized struct {
	Slope     float64
	Scale     float64
	Intercept float64
}

// NewHeightNormalized returns the fitted threshold.
func NewHeightNormalized() HeightNormalized {
	return HeightNormalized{
		Slope:     0.0461394,
		Scale:     1000,
		Intercept: 0.67440243,
	}
}

func (HeightNormalized) Name() string { return StrategyHeightNormalized }

func (s HeightNormalized) Group(row *MatrixRow, cells []*tessellation.Cell) error {
	height := row.Height()
	if height <= 0 {
		return fmt.Errorf("%w: top %g, bottom %g", ErrDegenerateRow, row.Top, row.Bottom)
	}
	k := 1 / height

	for i, c := range cells[:len(cells)-1] {
		next := cells[i+1]
		if s.linked(geometry.Distance(c.Center, next.Center), k) {
			c.Link(next.ID)
		}
	}
	return nil
}

func (s HeightNormalized) linked(dist, k float64) bool {
	return dist*k < s.Slope*k*s.Scale+s.Intercept
}
