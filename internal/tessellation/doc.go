// Package tessellation partitions the plane around digit centers into
// Voronoi cells and exposes the resulting adjacency graph.
//
// A [Tessellation] owns an arena of [Cell] values, one per generator dot,
// addressed by integer id. Every call to [Tessellation.Process] rebuilds the
// arena from scratch, so nothing leaks between documents and two
// tessellations never share state.
//
// # Algorithm
//
// The Voronoi diagram is computed as the dual of the Delaunay triangulation
// produced by github.com/fogleman/delaunay, whose half-edges give the two
// generators of every ridge and mark hull edges:
//
//  1. Every Delaunay edge between generators i and j is one Voronoi ridge.
//  2. An edge shared by two triangles yields a finite ridge joining the two
//     circumcenters. Cocircular generators produce zero-length ridges; these
//     are merged away so four points on a circle meet at a single vertex.
//  3. A hull edge belongs to one triangle only; its ridge is a ray. The ray is
//     replaced by a finite segment whose far end is synthesized beyond the
//     span of the two generators (see [CellNeighbor]).
//
// # Degenerate input
//
// Duplicate generators and fully collinear generator sets have no usable
// Voronoi diagram. They are rejected with [ErrDuplicateGenerator] and
// [ErrDegenerateInput] rather than repaired. Generators the triangulator
// merges as coincident count as duplicates.
package tessellation
