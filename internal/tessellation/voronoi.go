package tessellation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
)

// DefaultMergeEpsilon is the ridge length under which two Voronoi vertices
// are treated as one.
const DefaultMergeEpsilon = 1e-9

// Options tunes a Tessellation.
type Options struct {
	// MergeEpsilon is the ridge length, in image units, under which a finite
	// ridge is dropped. Zero means DefaultMergeEpsilon.
	MergeEpsilon float64
}

// Tessellation is the Voronoi partition of a set of generator dots.
type Tessellation struct {
	dots  []geometry.Dot
	opts  Options
	cells []*Cell
	index map[geometry.Dot]int
}

// New creates a tessellation over dots. Cells are only available after
// Process succeeds.
func New(dots []geometry.Dot, opts Options) *Tessellation {
	if opts.MergeEpsilon <= 0 {
		opts.MergeEpsilon = DefaultMergeEpsilon
	}
	return &Tessellation{
		dots: append([]geometry.Dot(nil), dots...),
		opts: opts,
	}
}

// Reset discards all cells. Generator dots are kept.
func (t *Tessellation) Reset() {
	t.cells = nil
	t.index = nil
}

// Process builds one cell per generator dot and connects every pair of cells
// that share a ridge. Any earlier result is discarded first.
func (t *Tessellation) Process() error {
	t.Reset()

	index := make(map[geometry.Dot]int, len(t.dots))
	cells := make([]*Cell, len(t.dots))
	points := make([]r2.Vec, len(t.dots))
	for i, d := range t.dots {
		if prev, dup := index[d]; dup {
			return fmt.Errorf("%w: %v at %d and %d", ErrDuplicateGenerator, d, prev, i)
		}
		index[d] = i
		cells[i] = &Cell{ID: i, Center: d}
		points[i] = d.Vec()
	}
	if len(t.dots) < 3 {
		return fmt.Errorf("%w: %d generators", ErrDegenerateInput, len(t.dots))
	}

	tris, edges, err := triangulate(points)
	if err != nil {
		return err
	}

	for _, e := range edges {
		i, j := e.a, e.b

		var ridge CellNeighbor
		if e.right >= 0 {
			a, b := tris[e.left].center, tris[e.right].center
			if r2.Norm(r2.Sub(a, b)) <= t.opts.MergeEpsilon {
				continue
			}
			ridge = CellNeighbor{Start: geometry.FromVec(a), End: geometry.FromVec(b), IsFinite: true}
		} else {
			tri := tris[e.left]
			end, err := extendRidge(t.dots[i], t.dots[j], t.dots[tri.opposite(i, j)], tri.center)
			if err != nil {
				return err
			}
			ridge = CellNeighbor{Start: geometry.FromVec(tri.center), End: end}
		}

		ridge.CellID, ridge.NeighborID = i, j
		cells[i].Neighbors = append(cells[i].Neighbors, ridge)
		ridge.CellID, ridge.NeighborID = j, i
		cells[j].Neighbors = append(cells[j].Neighbors, ridge)
	}

	t.cells = cells
	t.index = index
	return nil
}

// extendRidge synthesizes the far end of the unbounded ridge between the hull
// generators c1 and c2. The ray leaves the Voronoi vertex v along the normal
// of the line fitted through both generators, pointing away from the third
// vertex of the hull triangle. Its length is the larger distance from v to a
// generator, which places the end beyond both of them.
func extendRidge(c1, c2, third geometry.Dot, v r2.Vec) (geometry.Dot, error) {
	dir, err := fitLine(c1, c2)
	if err != nil {
		return geometry.Dot{}, err
	}
	normal := r2.Vec{X: -dir.Y, Y: dir.X}
	mid := geometry.Centroid(c1, c2).Vec()
	if r2.Dot(normal, r2.Sub(third.Vec(), mid)) > 0 {
		normal = r2.Scale(-1, normal)
	}

	reach := math.Max(r2.Norm(r2.Sub(v, c1.Vec())), r2.Norm(r2.Sub(v, c2.Vec())))
	return geometry.FromVec(r2.Add(v, r2.Scale(reach, normal))), nil
}

// fitLine returns the unit direction of the least-squares line through dots.
func fitLine(dots ...geometry.Dot) (r2.Vec, error) {
	c := geometry.Centroid(dots...)
	data := make([]float64, 0, 2*len(dots))
	for _, d := range dots {
		data = append(data, d.X-c.X, d.Y-c.Y)
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(len(dots), 2, data), mat.SVDThin) {
		return r2.Vec{}, fmt.Errorf("%w: line fit did not converge", ErrDegenerateInput)
	}
	if svd.Values(nil)[0] == 0 {
		return r2.Vec{}, fmt.Errorf("%w: line fit through coincident dots", ErrDegenerateInput)
	}

	var v mat.Dense
	svd.VTo(&v)
	return r2.Unit(r2.Vec{X: v.At(0, 0), Y: v.At(1, 0)}), nil
}

// Len returns the number of cells.
func (t *Tessellation) Len() int {
	return len(t.cells)
}

// Cells returns the cell arena in generator order.
func (t *Tessellation) Cells() []*Cell {
	return t.cells
}

// Cell returns the cell with the given id.
func (t *Tessellation) Cell(id int) (*Cell, error) {
	if id < 0 || id >= len(t.cells) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCell, id)
	}
	return t.cells[id], nil
}

// Lookup returns the cell generated by center.
func (t *Tessellation) Lookup(center geometry.Dot) (*Cell, bool) {
	id, ok := t.index[center]
	if !ok {
		return nil, false
	}
	return t.cells[id], true
}

// Neighbor returns the ridge between cells a and b.
func (t *Tessellation) Neighbor(a, b int) (CellNeighbor, bool) {
	cell, err := t.Cell(a)
	if err != nil {
		return CellNeighbor{}, false
	}
	for _, n := range cell.Neighbors {
		if n.NeighborID == b {
			return n, true
		}
	}
	return CellNeighbor{}, false
}
