package tessellation

import (
	"fmt"
	"sort"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/r2"
)

type triangle struct {
	v      [3]int
	center r2.Vec
}

// opposite returns the vertex that is neither i nor j.
func (t triangle) opposite(i, j int) int {
	for _, v := range t.v {
		if v != i && v != j {
			return v
		}
	}
	return -1
}

// circumcenter returns the center of the circle through a, b and c. It
// reports false when the three points are collinear.
func circumcenter(a, b, c r2.Vec) (r2.Vec, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if d == 0 {
		return r2.Vec{}, false
	}
	a2, b2, c2 := r2.Dot(a, a), r2.Dot(b, b), r2.Dot(c, c)
	return r2.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// nextHalfedge returns the half-edge that follows e inside its triangle.
func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// edge is one Delaunay edge between generators a < b. right is -1 on the
// convex hull.
type edge struct {
	a, b        int
	left, right int
}

// triangulate returns the Delaunay triangles of points, each vertex given as
// an index into points, and every edge with the triangles on either side,
// sorted by generator pair. Points must be distinct.
func triangulate(points []r2.Vec) ([]triangle, []edge, error) {
	in := make([]delaunay.Point, len(points))
	for i, p := range points {
		in[i] = delaunay.Point{X: p.X, Y: p.Y}
	}

	tri, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDegenerateInput, err)
	}
	if len(tri.Triangles) == 0 {
		return nil, nil, fmt.Errorf("%w: generators are collinear", ErrDegenerateInput)
	}

	used := make([]bool, len(points))
	tris := make([]triangle, len(tri.Triangles)/3)
	for k := range tris {
		t := triangle{v: [3]int{tri.Triangles[3*k], tri.Triangles[3*k+1], tri.Triangles[3*k+2]}}
		center, ok := circumcenter(points[t.v[0]], points[t.v[1]], points[t.v[2]])
		if !ok {
			return nil, nil, fmt.Errorf("%w: flat triangle %v", ErrDegenerateInput, t.v)
		}
		t.center = center
		for _, v := range t.v {
			used[v] = true
		}
		tris[k] = t
	}
	// The triangulator skips points it considers coincident.
	for i, ok := range used {
		if !ok {
			return nil, nil, fmt.Errorf("%w: generator %d at %v is too close to another", ErrDuplicateGenerator, i, points[i])
		}
	}

	var edges []edge
	for e, twin := range tri.Halfedges {
		if twin >= 0 && twin < e {
			continue
		}
		a, b := tri.Triangles[e], tri.Triangles[nextHalfedge(e)]
		if a > b {
			a, b = b, a
		}
		ed := edge{a: a, b: b, left: e / 3, right: -1}
		if twin >= 0 {
			ed.right = twin / 3
		}
		edges = append(edges, ed)
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].a != edges[y].a {
			return edges[x].a < edges[y].a
		}
		return edges[x].b < edges[y].b
	})
	return tris, edges, nil
}
