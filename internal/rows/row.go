package rows

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
)

// MatrixRow is one row of the digit grid: a polyline through the middles of
// its strokes plus the band those strokes occupy around it.
type MatrixRow struct {
	Index int `json:"index"`

	// Vectors chain the stroke middles in reading order:
	// Vectors[i].End == Vectors[i+1].Begin.
	Vectors []geometry.Vector `json:"vectors"`

	// Top and Bottom are the perpendicular extents of the band above and
	// below the final vector.
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`

	// Cells holds the tessellation cell id of every chain dot once the row
	// has been linked.
	Cells []int `json:"cells,omitempty"`

	strokes   []int
	topDot    *geometry.Dot
	bottomDot *geometry.Dot
	extended  bool
}

func newRow(index int) *MatrixRow {
	return &MatrixRow{Index: index}
}

// seed starts the row with a zero-length vector at the middle of stroke.
func (r *MatrixRow) seed(at geometry.Dot, stroke int) {
	r.Vectors = []geometry.Vector{{Begin: at, End: at}}
	r.strokes = []int{stroke}
	r.extended = false
}

// IsEmpty reports whether the row has not been seeded yet.
func (r *MatrixRow) IsEmpty() bool {
	return len(r.Vectors) == 0
}

// FinalVector runs from the first vector's begin to the last vector's end.
func (r *MatrixRow) FinalVector() geometry.Vector {
	if r.IsEmpty() {
		return geometry.Vector{}
	}
	return geometry.Vector{Begin: r.Vectors[0].Begin, End: r.Vectors[len(r.Vectors)-1].End}
}

// End returns the last dot of the chain.
func (r *MatrixRow) End() geometry.Dot {
	return r.FinalVector().End
}

// Dots returns the chain dots in reading order. An unextended seed row has a
// single dot.
func (r *MatrixRow) Dots() []geometry.Dot {
	if r.IsEmpty() {
		return nil
	}
	if !r.extended {
		return []geometry.Dot{r.Vectors[0].Begin}
	}
	dots := make([]geometry.Dot, 0, len(r.Vectors)+1)
	dots = append(dots, r.Vectors[0].Begin)
	for _, v := range r.Vectors {
		dots = append(dots, v.End)
	}
	return dots
}

// Strokes returns the input stroke index behind every chain dot.
func (r *MatrixRow) Strokes() []int {
	return slices.Clone(r.strokes)
}

// AddHatch extends the row with v, whose end is the middle of stroke, and
// folds the given strokes' corners into the band. The first hatch of a seed
// row replaces the seed's end instead of appending.
func (r *MatrixRow) AddHatch(v geometry.Vector, stroke int, corners ...geometry.Hatch) {
	if len(r.Vectors) == 1 && !r.extended {
		r.Vectors[0].End = v.End
		r.extended = true
	} else {
		r.Vectors = append(r.Vectors, v)
	}
	r.strokes = append(r.strokes, stroke)

	for _, h := range corners {
		r.UpdateBand(h)
	}
}

// UpdateBand widens the band with a stroke's top and bottom corners.
func (r *MatrixRow) UpdateBand(h geometry.Hatch) {
	if r.IsEmpty() {
		return
	}
	r.Top, r.topDot = r.updateExtent(r.Top, r.topDot, h.Top)
	r.Bottom, r.bottomDot = r.updateExtent(r.Bottom, r.bottomDot, h.Bottom)
}

// updateExtent keeps the running maximum distance to the final vector. When
// the new dot is not farther, the distance of the recorded extreme is
// measured again because the final vector may have turned.
func (r *MatrixRow) updateExtent(extent float64, extreme *geometry.Dot, dot geometry.Dot) (float64, *geometry.Dot) {
	final := r.FinalVector()
	if d := geometry.PerpendicularDistance(dot, final.Begin, final.End); extent < d {
		return d, &dot
	}
	if extreme != nil {
		return geometry.PerpendicularDistance(*extreme, final.Begin, final.End), extreme
	}
	return extent, extreme
}

// Band returns the row's quadrilateral: the final vector offset by Bottom
// below and Top above, corners in boundary order. A zero-length final vector
// is offset vertically.
func (r *MatrixRow) Band() [4]geometry.Dot {
	final := r.FinalVector()
	up := r2.Vec{Y: -1}
	if !final.IsZero() {
		d := r2.Unit(final.Delta())
		up = r2.Vec{X: d.Y, Y: -d.X}
		if up.Y > 0 {
			up = r2.Scale(-1, up)
		}
	}

	offset := func(p geometry.Dot, by float64) geometry.Dot {
		return geometry.FromVec(r2.Add(p.Vec(), r2.Scale(by, up)))
	}
	return [4]geometry.Dot{
		offset(final.Begin, -r.Bottom),
		offset(final.End, -r.Bottom),
		offset(final.End, r.Top),
		offset(final.Begin, r.Top),
	}
}

// ContainsDot reports whether dot lies inside the row's band.
func (r *MatrixRow) ContainsDot(dot geometry.Dot, tolerance float64) bool {
	if r.IsEmpty() {
		return false
	}
	return geometry.PointInQuadrilateral(dot, r.Band(), tolerance)
}

// hasBand reports whether the row has a settled band to test against.
func (r *MatrixRow) hasBand() bool {
	return r.Top > 0 && r.Bottom > 0
}

// absorb inserts a stray stroke into the chain at its position along the
// final vector. The band is left untouched.
func (r *MatrixRow) absorb(dot geometry.Dot, stroke int) {
	dots := r.Dots()
	strokes := r.strokes

	final := r.FinalVector()
	dir := r2.Vec{X: 1}
	if !final.IsZero() {
		dir = final.Delta()
	}
	along := func(p geometry.Dot) float64 {
		return r2.Dot(r2.Sub(p.Vec(), final.Begin.Vec()), dir)
	}

	t := along(dot)
	pos := slices.IndexFunc(dots, func(p geometry.Dot) bool { return along(p) > t })
	if pos < 0 {
		pos = len(dots)
	}

	dots = slices.Insert(dots, pos, dot)
	r.strokes = slices.Insert(strokes, pos, stroke)

	r.Vectors = make([]geometry.Vector, len(dots)-1)
	for i := range r.Vectors {
		r.Vectors[i] = geometry.Vector{Begin: dots[i], End: dots[i+1]}
	}
	r.extended = true
}

// IsContiguous reports whether every vector starts where the previous one
// ends.
func (r *MatrixRow) IsContiguous() bool {
	for i := 1; i < len(r.Vectors); i++ {
		if r.Vectors[i-1].End != r.Vectors[i].Begin {
			return false
		}
	}
	return true
}

// Height returns Top + Bottom.
func (r *MatrixRow) Height() float64 {
	return r.Top + r.Bottom
}

// extremes returns the dots that set Top and Bottom, if any.
func (r *MatrixRow) extremes() []geometry.Dot {
	var out []geometry.Dot
	for _, d := range []*geometry.Dot{r.topDot, r.bottomDot} {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}
