package grid

import (
	"context"
	"image"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/digitgrid-mcp/internal/config"
	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/rows"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// hatch returns a 40 wide stroke of height h centered on (cx, cy).
func hatch(cx, cy, h float64) geometry.Hatch {
	return geometry.Hatch{
		Left:   geometry.Dot{X: cx - 20, Y: cy},
		Right:  geometry.Dot{X: cx + 20, Y: cy},
		Top:    geometry.Dot{X: cx, Y: cy - h/2},
		Bottom: geometry.Dot{X: cx, Y: cy + h/2},
	}
}

// twoRows is two lines of "12  3": a pair of close digits and a lone one.
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

func run(t *testing.T, cfg *config.Config, hatches ...geometry.Hatch) (*Session, *Result) {
	t.Helper()
	s, err := NewSession(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddHatches(hatches))
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	return s, res
}

func cellIDs(row RowResult) []int {
	ids := make([]int, len(row.Cells))
	for i, c := range row.Cells {
		ids[i] = c.ID
	}
	return ids
}

func TestSession_Run(t *testing.T) {
	s, res := run(t, nil, twoRows()...)

	assert.Equal(t, rows.StrategyWidthRatio, res.Strategy)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []int{0, 1, 2}, cellIDs(res.Rows[0]))
	assert.Equal(t, []int{3, 4, 5}, cellIDs(res.Rows[1]))

	row := res.Rows[0]
	assert.InDelta(t, 20, row.Top, 1e-9)
	assert.InDelta(t, 20, row.Bottom, 1e-9)
	assert.Equal(t, []Group{{Cells: []int{0, 1}}, {Cells: []int{2}}}, row.Groups)
	assert.Equal(t, 4, res.GroupCount())

	widths := []float64{20, 20, 80}
	for i, c := range row.Cells {
		assert.Equal(t, i, c.Stroke)
		assert.InDelta(t, widths[i], c.DigitWidth, 1e-9)
	}
	require.NotNil(t, row.Cells[0].ComeWith)
	assert.Equal(t, 1, *row.Cells[0].ComeWith)
	assert.Nil(t, row.Cells[1].ComeWith)

	assert.Equal(t, 6, s.Tessellation().Len())
	assert.Len(t, s.Rows(), 2)
}

func TestSession_ResultIsSnapshot(t *testing.T) {
	s, res := run(t, nil, twoRows()...)

	*res.Rows[0].Cells[0].ComeWith = 99
	cell, err := s.Tessellation().Cell(0)
	require.NoError(t, err)
	assert.Equal(t, 1, *cell.ComeWith)
}

func TestSession_HeightNormalized(t *testing.T) {
	cfg := config.Default()
	cfg.Grouping.Strategy = rows.StrategyHeightNormalized

	_, res := run(t, cfg, twoRows()...)
	assert.Equal(t, rows.StrategyHeightNormalized, res.Strategy)
	assert.Equal(t, []Group{{Cells: []int{3, 4}}, {Cells: []int{5}}}, res.Rows[1].Groups)
}

func TestSession_StrokesFollowConnectors(t *testing.T) {
	hatches := twoRows()
	// A flat connector between the lone digit and the next line.
	hatches = append(hatches[:3], append([]geometry.Hatch{hatch(120, 100, 4)}, hatches[3:]...)...)

	_, res := run(t, nil, hatches...)
	require.Len(t, res.Rows, 2)
	strokes := make([]int, 0, 3)
	for _, c := range res.Rows[1].Cells {
		strokes = append(strokes, c.Stroke)
	}
	assert.Equal(t, []int{4, 5, 6}, strokes)
}

func TestSession_RunIsRepeatable(t *testing.T) {
	s, first := run(t, nil, twoRows()...)
	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSession_Errors(t *testing.T) {
	s, err := NewSession(nil, nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, rows.ErrNoHatches)
	assert.Nil(t, s.Tessellation())

	require.NoError(t, s.AddHatches([]geometry.Hatch{hatch(0, 100, 40), hatch(40, 100, 40)}))
	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, tessellation.ErrDegenerateInput)

	err = s.AddHatch(hatch(40, 100, 40))
	assert.ErrorIs(t, err, geometry.ErrZeroLengthVector)

	cfg := config.Default()
	cfg.Grouping.Strategy = "by_color"
	_, err = NewSession(cfg, nil)
	assert.ErrorIs(t, err, rows.ErrUnknownStrategy)
}

func TestSession_ContextCanceled(t *testing.T) {
	s, err := NewSession(nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddHatches(twoRows()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, s.Tessellation())
}

func TestSession_Reset(t *testing.T) {
	s, _ := run(t, nil, twoRows()...)
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Nil(t, s.Tessellation())
	assert.Nil(t, s.Rows())
}

func TestGroupCells(t *testing.T) {
	link := func(n int) *int { return &n }
	cells := []CellResult{
		{ID: 7, ComeWith: link(8)},
		{ID: 8, ComeWith: link(9)},
		{ID: 9},
		{ID: 10, ComeWith: link(42)},
		{ID: 11},
	}
	assert.Equal(t, []Group{
		{Cells: []int{7, 8, 9}},
		{Cells: []int{10}},
		{Cells: []int{11}},
	}, groupCells(cells))
	assert.Nil(t, groupCells(nil))
}

// page draws the twoRows strokes as short black bars, leaving out the
// strokes listed in skip.
func page(skip ...int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 260))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	skipped := make(map[int]bool)
	for _, k := range skip {
		skipped[k] = true
	}
	for k, h := range twoRows() {
		if skipped[k] {
			continue
		}
		m := h.Middle()
		bar := image.Rect(int(m.X)-3, int(m.Y)-15, int(m.X)+3, int(m.Y)+15)
		draw.Draw(img, bar, image.Black, image.Point{}, draw.Src)
	}
	return img
}

type answer struct {
	digit int
	conf  float64
	err   error
}

type fakeClassifier struct {
	answers []answer
	calls   int
	sizes   []image.Rectangle
}

func (f *fakeClassifier) Classify(_ context.Context, img image.Image) (int, float64, error) {
	a := f.answers[f.calls%len(f.answers)]
	f.calls++
	f.sizes = append(f.sizes, img.Bounds())
	return a.digit, a.conf, a.err
}

func TestSession_Classify(t *testing.T) {
	s, res := run(t, nil, twoRows()...)

	c := &fakeClassifier{answers: []answer{
		{digit: 1, conf: 0.9},
		{digit: 2, conf: 0.8},
		{digit: 3, conf: 0.95},
		{err: ErrUnrecognized},
		{digit: 5, conf: 0.7},
	}}
	require.NoError(t, s.Classify(context.Background(), page(2), res, c))

	// The lone stroke of the first row was left out of the page.
	assert.Equal(t, 5, c.calls)
	assert.True(t, res.Rows[0].Cells[2].Blank)

	assert.Equal(t, "12", res.Rows[0].Groups[0].Value)
	assert.InDelta(t, 0.8, res.Rows[0].Groups[0].Confidence, 1e-12)
	assert.Equal(t, "", res.Rows[0].Groups[1].Value)
	assert.Equal(t, "3?", res.Rows[1].Groups[0].Value)
	assert.Equal(t, "5", res.Rows[1].Groups[1].Value)

	require.NotNil(t, res.Rows[1].Cells[0].PredictedNumber)
	assert.Equal(t, 3, *res.Rows[1].Cells[0].PredictedNumber)
	assert.Nil(t, res.Rows[1].Cells[1].PredictedNumber)

	cell, err := s.Tessellation().Cell(0)
	require.NoError(t, err)
	require.NotNil(t, cell.PredictedNumber)
	assert.Equal(t, 1, *cell.PredictedNumber)
	assert.InDelta(t, 0.9, cell.Confidence, 1e-12)

	// The first cell sits on the left edge and is clipped: 20 of digit
	// width plus 4 of padding on the right, 40 of band plus 8 of padding.
	assert.Equal(t, image.Rect(0, 0, 24, 48), c.sizes[0])
}

func TestSession_ClassifyErrors(t *testing.T) {
	s, err := NewSession(nil, nil)
	require.NoError(t, err)
	c := &fakeClassifier{answers: []answer{{digit: 1}}}

	err = s.Classify(context.Background(), page(), &Result{}, c)
	assert.ErrorIs(t, err, rows.ErrNotProcessed)

	s, res := run(t, nil, twoRows()...)
	assert.ErrorIs(t, s.Classify(context.Background(), nil, res, c), ErrNoImage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Classify(ctx, page(), res, c), context.Canceled)
}

func TestGroupCrops(t *testing.T) {
	_, res := run(t, nil, twoRows()...)

	crops, err := GroupCrops(page(), res, 0, 1)
	require.NoError(t, err)
	require.Len(t, crops, 4)

	pair := crops[0]
	assert.Equal(t, 0, pair.Row)
	assert.Equal(t, []int{0, 1}, pair.Cells)
	assert.Equal(t, 60, pair.Crop.Width)
	assert.Equal(t, 40, pair.Crop.Height)
	assert.Equal(t, "image/png", pair.Crop.MimeType)

	lone := crops[1]
	assert.Equal(t, 120, lone.Crop.X1)
	assert.Equal(t, 160, lone.Crop.Width)

	_, err = GroupCrops(nil, res, 0, 1)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestCellRegion_SingleCellRow(t *testing.T) {
	row := RowResult{Top: 10, Bottom: 30}
	cell := CellResult{Center: geometry.Dot{X: 100, Y: 100}}

	got := row.CellRegion(cell, 0, image.Rect(0, 0, 500, 500))
	assert.Equal(t, image.Rect(80, 90, 120, 130), got)
}
