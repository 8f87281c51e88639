// Package geometry provides the planar primitives used by row clustering and
// tessellation.
//
// All coordinates are image coordinates: the origin is the top-left corner of
// the scan, X grows rightward and Y grows downward. "Top" of a row therefore
// has smaller Y values than its "bottom".
//
// # Types
//
//   - [Dot]: an immutable point with exact float64 coordinates. Dots are
//     comparable and are used as map keys for exact-coordinate lookups.
//   - [Vector]: an ordered pair of dots.
//   - [Hatch]: the four extreme corner dots of one detected stroke.
//
// # Contracts
//
// Degenerate input is a programming error, not a recoverable condition:
//
//   - [AngleCosine] and [Angle] return [ErrZeroLengthVector] for zero-length
//     vectors.
//   - [LineIntersection] returns [ErrParallelLines] for parallel or
//     degenerate lines.
//
// [PointInQuadrilateral] is a tolerant membership test: it compares area sums
// and accepts differences below a tolerance, so points on or very near the
// boundary count as inside.
package geometry
