package rows

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// hatch returns a 40 wide stroke of height h centered on (cx, cy) with its
// top and bottom corners straight above and below the center.
func hatch(cx, cy, h float64) geometry.Hatch {
	return geometry.Hatch{
		Left:   geometry.Dot{X: cx - 20, Y: cy},
		Right:  geometry.Dot{X: cx + 20, Y: cy},
		Top:    geometry.Dot{X: cx, Y: cy - h/2},
		Bottom: geometry.Dot{X: cx, Y: cy + h/2},
	}
}

func connector(cx, cy float64) geometry.Hatch {
	return hatch(cx, cy, 6)
}

func cluster(t *testing.T, hatches ...geometry.Hatch) (*Manager, []*MatrixRow) {
	t.Helper()
	m := NewManager(Options{})
	for _, h := range hatches {
		require.NoError(t, m.AddHatch(h))
	}
	rows, err := m.Process()
	require.NoError(t, err)
	return m, rows
}

// assertPartition checks that every row is a connected chain and that every
// stroke that is not a connector ends up in exactly one row.
func assertPartition(t *testing.T, m *Manager, rows []*MatrixRow) {
	t.Helper()

	var got []int
	for _, row := range rows {
		assert.True(t, row.IsContiguous(), "row %d is not a chain", row.Index)
		assert.Len(t, row.Strokes(), len(row.Dots()), "row %d", row.Index)
		got = append(got, row.Strokes()...)
	}
	sort.Ints(got)

	var want []int
	for i, h := range m.Hatches() {
		if !h.IsHorizontal(geometry.DefaultHorizontalThreshold) {
			want = append(want, i)
		}
	}
	assert.Equal(t, want, got)
}

func TestProcess_CollinearStrokes(t *testing.T) {
	m, rows := cluster(t,
		hatch(0, 100, 40),
		hatch(50, 100, 40),
		hatch(100, 100, 40),
		hatch(150, 100, 40),
	)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Len(t, row.Vectors, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, row.Strokes())
	assert.InDelta(t, 20, row.Top, 1e-9)
	assert.InDelta(t, 20, row.Bottom, 1e-9)
	assert.Equal(t, geometry.Vector{Begin: geometry.Dot{X: 0, Y: 100}, End: geometry.Dot{X: 150, Y: 100}}, row.FinalVector())
	assertPartition(t, m, rows)
}

func TestProcess_Connector(t *testing.T) {
	m, rows := cluster(t,
		hatch(0, 100, 40),
		connector(50, 100),
		hatch(100, 100, 40),
		hatch(150, 100, 40),
	)

	require.Len(t, rows, 1)
	assert.Equal(t, []int{0, 2, 3}, rows[0].Strokes())
	assert.Equal(t, []geometry.Dot{{X: 0, Y: 100}, {X: 100, Y: 100}, {X: 150, Y: 100}}, rows[0].Dots())
	assert.Len(t, m.Dots(), 3)
	assertPartition(t, m, rows)
}

func TestProcess_LeadingConnector(t *testing.T) {
	m, rows := cluster(t,
		connector(0, 100),
		hatch(50, 100, 40),
		hatch(100, 100, 40),
	)

	require.Len(t, rows, 1)
	assert.Equal(t, []int{1, 2}, rows[0].Strokes())
	assertPartition(t, m, rows)
}

func TestProcess_OnlyConnectors(t *testing.T) {
	_, rows := cluster(t, connector(0, 100), connector(50, 100))
	assert.Empty(t, rows)
}

func TestProcess_NewRow(t *testing.T) {
	m, rows := cluster(t,
		hatch(0, 100, 40),
		hatch(50, 100, 40),
		hatch(100, 100, 40),
		hatch(0, 200, 40),
		hatch(50, 200, 40),
		hatch(100, 200, 40),
	)

	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, 1, rows[1].Index)
	assert.Equal(t, []int{0, 1, 2}, rows[0].Strokes())
	assert.Equal(t, []int{3, 4, 5}, rows[1].Strokes())
	for _, row := range rows {
		assert.InDelta(t, 20, row.Top, 1e-9)
		assert.InDelta(t, 20, row.Bottom, 1e-9)
	}
	assertPartition(t, m, rows)
}

func TestProcess_AbsorbedStrokeKeepsBand(t *testing.T) {
	m, rows := cluster(t,
		hatch(0, 100, 40),
		hatch(100, 100, 40),
		hatch(200, 100, 40),
		hatch(300, 100, 40),
		hatch(50, 200, 40),
		hatch(100, 200, 40),
		// A raised mark between the second and third digit of the first row.
		hatch(150, 85, 30),
	)

	require.Len(t, rows, 2)
	first := rows[0]
	assert.Equal(t, 20.0, first.Top)
	assert.Equal(t, 20.0, first.Bottom)
	assert.Equal(t, []int{0, 1, 6, 2, 3}, first.Strokes())
	assert.Equal(t, geometry.Dot{X: 150, Y: 85}, first.Dots()[2])
	assert.Equal(t, []int{4, 5}, rows[1].Strokes())
	assertPartition(t, m, rows)
}

func TestProcess_Repeatable(t *testing.T) {
	m := NewManager(Options{})
	for _, h := range []geometry.Hatch{hatch(0, 100, 40), hatch(50, 100, 40), hatch(0, 200, 40)} {
		require.NoError(t, m.AddHatch(h))
	}

	first, err := m.Process()
	require.NoError(t, err)
	second, err := m.Process()
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Vectors, second[i].Vectors)
		assert.Equal(t, first[i].Strokes(), second[i].Strokes())
	}
}

func TestProcess_Empty(t *testing.T) {
	_, err := NewManager(Options{}).Process()
	assert.ErrorIs(t, err, ErrNoHatches)
}

func TestAddHatch_ZeroLengthVector(t *testing.T) {
	m := NewManager(Options{})
	require.NoError(t, m.AddHatch(hatch(10, 10, 40)))

	err := m.AddHatch(hatch(10, 10, 40))
	assert.ErrorIs(t, err, geometry.ErrZeroLengthVector)
	assert.Equal(t, 1, m.Len())
}

func TestClear(t *testing.T) {
	m, _ := cluster(t, hatch(0, 100, 40), hatch(50, 100, 40))
	m.Clear()

	assert.Zero(t, m.Len())
	assert.Empty(t, m.Dots())
	assert.Empty(t, m.Rows())
	_, err := m.Process()
	assert.ErrorIs(t, err, ErrNoHatches)
}

// twoRows has a close pair followed by a distant digit on each row.
func twoRows() []geometry.Hatch {
	return []geometry.Hatch{
		hatch(0, 100, 40),
		hatch(40, 100, 40),
		hatch(200, 100, 40),
		hatch(0, 200, 40),
		hatch(40, 200, 40),
		hatch(200, 200, 40),
	}
}

func linked(t *testing.T, hatches ...geometry.Hatch) (*Manager, *tessellation.Tessellation) {
	t.Helper()
	m, _ := cluster(t, hatches...)
	tess := tessellation.New(m.Dots(), tessellation.Options{})
	require.NoError(t, tess.Process())
	require.NoError(t, m.LinkCells(tess))
	return m, tess
}

func TestLinkCells(t *testing.T) {
	m, tess := linked(t, twoRows()...)

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []int{0, 1, 2}, rows[0].Cells)
	assert.Equal(t, []int{3, 4, 5}, rows[1].Cells)

	widths := make([]float64, tess.Len())
	for i, c := range tess.Cells() {
		widths[i] = c.DigitWidth
	}
	assert.InDeltaSlice(t, []float64{20, 20, 80, 20, 20, 80}, widths, 1e-9)
}

func TestLinkCells_SingleCellRow(t *testing.T) {
	m, tess := linked(t,
		hatch(0, 100, 40),
		hatch(40, 100, 40),
		hatch(200, 100, 40),
		hatch(100, 300, 40),
	)

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []int{3}, rows[1].Cells)
	assert.Zero(t, tess.Cells()[3].DigitWidth)
	assert.InDelta(t, 80, tess.Cells()[2].DigitWidth, 1e-9)

	require.NoError(t, m.Group(NewWidthRatio(), tess))
	assert.Nil(t, tess.Cells()[3].ComeWith)
}

func TestLinkCells_Errors(t *testing.T) {
	m := NewManager(Options{})
	require.NoError(t, m.AddHatch(hatch(0, 100, 40)))
	assert.ErrorIs(t, m.LinkCells(tessellation.New(nil, tessellation.Options{})), ErrNotProcessed)

	m, _ = cluster(t, twoRows()...)
	other := tessellation.New([]geometry.Dot{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 3, Y: 9}}, tessellation.Options{})
	require.NoError(t, other.Process())
	assert.ErrorIs(t, m.LinkCells(other), ErrUnknownDot)
}

func TestGroup_NotLinked(t *testing.T) {
	m, _ := cluster(t, twoRows()...)
	tess := tessellation.New(m.Dots(), tessellation.Options{})
	require.NoError(t, tess.Process())

	assert.ErrorIs(t, m.Group(NewWidthRatio(), tess), ErrNotProcessed)
}

func TestBand_ContainsExtremes(t *testing.T) {
	tests := []struct {
		name    string
		hatches []geometry.Hatch
	}{
		{"level", []geometry.Hatch{hatch(0, 100, 40), hatch(50, 100, 40), hatch(100, 100, 40)}},
		{"rising", []geometry.Hatch{hatch(0, 100, 40), hatch(50, 110, 60), hatch(100, 120, 40)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rows := cluster(t, tt.hatches...)
			require.Len(t, rows, 1)
			row := rows[0]

			extremes := row.extremes()
			require.Len(t, extremes, 2)
			for _, d := range extremes {
				assert.True(t, row.ContainsDot(d, geometry.DefaultContainmentTolerance), "%v outside band %v", d, row.Band())
			}
		})
	}
}

func TestMatrixRow_AddHatch(t *testing.T) {
	row := newRow(0)
	a, b, c := geometry.Dot{X: 0, Y: 0}, geometry.Dot{X: 10, Y: 0}, geometry.Dot{X: 20, Y: 0}

	row.seed(a, 0)
	assert.Equal(t, []geometry.Dot{a}, row.Dots())

	row.AddHatch(geometry.Vector{Begin: a, End: b}, 1)
	require.Len(t, row.Vectors, 1)
	assert.Equal(t, []geometry.Dot{a, b}, row.Dots())

	row.AddHatch(geometry.Vector{Begin: b, End: c}, 2, hatch(0, 0, 10))
	assert.Len(t, row.Vectors, 2)
	assert.Equal(t, []int{0, 1, 2}, row.Strokes())
	assert.InDelta(t, 5, row.Top, 1e-12)
	assert.InDelta(t, 5, row.Bottom, 1e-12)
}

func TestMatrixRow_Absorb(t *testing.T) {
	a, b := geometry.Dot{X: 0, Y: 0}, geometry.Dot{X: 10, Y: 0}

	t.Run("seed", func(t *testing.T) {
		row := newRow(0)
		row.seed(b, 0)
		row.absorb(a, 1)
		assert.Equal(t, []geometry.Dot{a, b}, row.Dots())
		assert.Equal(t, []int{1, 0}, row.Strokes())
	})

	t.Run("ends", func(t *testing.T) {
		row := newRow(0)
		row.seed(a, 0)
		row.AddHatch(geometry.Vector{Begin: a, End: b}, 1)

		row.absorb(geometry.Dot{X: -5, Y: 1}, 2)
		row.absorb(geometry.Dot{X: 15, Y: 1}, 3)
		assert.Equal(t, []int{2, 0, 1, 3}, row.Strokes())
		assert.True(t, row.IsContiguous())
	})
}

func TestMatrixRow_EmptyBand(t *testing.T) {
	row := newRow(0)
	assert.False(t, row.ContainsDot(geometry.Dot{}, geometry.DefaultContainmentTolerance))
	row.UpdateBand(hatch(0, 0, 40))
	assert.Zero(t, row.Top)
}
