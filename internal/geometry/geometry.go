package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultContainmentTolerance is the maximum area difference accepted by
// PointInQuadrilateral. It is expressed in squared image units and needs
// calibration against the scan resolution.
const DefaultContainmentTolerance = 0.001

var (
	// ErrZeroLengthVector is returned when an angle is requested for a vector
	// whose begin and end coincide.
	ErrZeroLengthVector = errors.New("zero-length vector")

	// ErrParallelLines is returned when two lines have no single intersection.
	ErrParallelLines = errors.New("lines are parallel")
)

// Dot is a point in image coordinates.
type Dot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec converts the dot to a gonum vector.
func (d Dot) Vec() r2.Vec {
	return r2.Vec{X: d.X, Y: d.Y}
}

// FromVec converts a gonum vector back to a dot.
func FromVec(v r2.Vec) Dot {
	return Dot{X: v.X, Y: v.Y}
}

func (d Dot) String() string {
	return fmt.Sprintf("(%g, %g)", d.X, d.Y)
}

// Vector is a directed segment from Begin to End.
type Vector struct {
	Begin Dot `json:"begin"`
	End   Dot `json:"end"`
}

// Horizontal is the unit vector along the X axis.
var Horizontal = Vector{Begin: Dot{0, 0}, End: Dot{1, 0}}

// Delta returns End - Begin.
func (v Vector) Delta() r2.Vec {
	return r2.Sub(v.End.Vec(), v.Begin.Vec())
}

// Length returns the Euclidean length of the vector.
func (v Vector) Length() float64 {
	return r2.Norm(v.Delta())
}

// IsZero reports whether the vector has zero length.
func (v Vector) IsZero() bool {
	return v.Begin == v.End
}

// AngleCosine returns the cosine of the angle between v1 and v2.
func AngleCosine(v1, v2 Vector) (float64, error) {
	d1, d2 := v1.Delta(), v2.Delta()
	n1, n2 := r2.Norm(d1), r2.Norm(d2)
	if n1 == 0 || n2 == 0 {
		return 0, ErrZeroLengthVector
	}
	cos := r2.Dot(d1, d2) / (n1 * n2)
	// Rounding can push |cos| slightly past 1.
	return math.Max(-1, math.Min(1, cos)), nil
}

// Angle returns the unsigned angle between v1 and v2 in radians, in [0, π].
func Angle(v1, v2 Vector) (float64, error) {
	cos, err := AngleCosine(v1, v2)
	if err != nil {
		return 0, err
	}
	return math.Acos(cos), nil
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Dot) float64 {
	return r2.Norm(r2.Sub(a.Vec(), b.Vec()))
}

// PerpendicularDistance returns the distance from p to the infinite line
// through lineBegin and lineEnd. A degenerate line collapses to a point and
// the plain distance to it is returned.
func PerpendicularDistance(p, lineBegin, lineEnd Dot) float64 {
	dir := r2.Sub(lineEnd.Vec(), lineBegin.Vec())
	n := r2.Norm(dir)
	if n == 0 {
		return Distance(p, lineBegin)
	}
	return math.Abs(r2.Cross(dir, r2.Sub(p.Vec(), lineBegin.Vec()))) / n
}

// TriangleArea returns the absolute area of triangle abc.
func TriangleArea(a, b, c Dot) float64 {
	return math.Abs(a.X*(b.Y-c.Y)+b.X*(c.Y-a.Y)+c.X*(a.Y-b.Y)) / 2
}

// PointInQuadrilateral reports whether p lies inside the quadrilateral whose
// corners are given in order around its boundary.
//
// The four triangles formed by p and each edge cover the quad exactly when p
// is inside; outside, they overshoot. The reference sum uses the quad's
// vertex centroid, which is always inside a convex quad.
func PointInQuadrilateral(p Dot, quad [4]Dot, tolerance float64) bool {
	centroid := Centroid(quad[:]...)
	var withPoint, withCentroid float64
	for i := range quad {
		a, b := quad[i], quad[(i+1)%len(quad)]
		withPoint += TriangleArea(a, b, p)
		withCentroid += TriangleArea(a, b, centroid)
	}
	return math.Abs(withPoint-withCentroid) < tolerance
}

// Centroid returns the arithmetic mean of dots.
func Centroid(dots ...Dot) Dot {
	var sum r2.Vec
	for _, d := range dots {
		sum = r2.Add(sum, d.Vec())
	}
	if len(dots) == 0 {
		return Dot{}
	}
	return FromVec(r2.Scale(1/float64(len(dots)), sum))
}

// LineIntersection returns the intersection point of the infinite lines
// through l1 and l2.
func LineIntersection(l1, l2 [2]Dot) (Dot, error) {
	d1 := r2.Sub(l1[1].Vec(), l1[0].Vec())
	d2 := r2.Sub(l2[1].Vec(), l2[0].Vec())
	den := r2.Cross(d1, d2)
	if den == 0 || math.IsNaN(den) {
		return Dot{}, fmt.Errorf("%w: %v-%v and %v-%v", ErrParallelLines, l1[0], l1[1], l2[0], l2[1])
	}
	t := r2.Cross(r2.Sub(l2[0].Vec(), l1[0].Vec()), d2) / den
	return FromVec(r2.Add(l1[0].Vec(), r2.Scale(t, d1))), nil
}
