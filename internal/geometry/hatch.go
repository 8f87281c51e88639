package geometry

import "math"

// DefaultHorizontalThreshold is the largest vertical extent, in image units,
// of a connector stroke.
const DefaultHorizontalThreshold = 20.0

// Hatch is one detected pen stroke described by its extreme corner dots.
type Hatch struct {
	Left   Dot `json:"left"`
	Right  Dot `json:"right"`
	Top    Dot `json:"top"`
	Bottom Dot `json:"bottom"`
}

// Middle returns the stroke's middle dot: the mean X of the left and right
// corners and the mean Y of the top and bottom corners.
func (h Hatch) Middle() Dot {
	return Dot{
		X: (h.Left.X + h.Right.X) / 2,
		Y: (h.Top.Y + h.Bottom.Y) / 2,
	}
}

// IsHorizontal reports whether the stroke is a flat connector rather than a
// digit body.
func (h Hatch) IsHorizontal(threshold float64) bool {
	return math.Abs(h.Top.Y-h.Bottom.Y) <= threshold
}
