package detection

import (
	"errors"
	"image"
	"sort"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/imaging"
)

// Default detection parameters.
const (
	DefaultInkThreshold = 128
	DefaultMinArea      = 20
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

func (p Point) dot() geometry.Dot {
	return geometry.Dot{X: float64(p.X), Y: float64(p.Y)}
}

// Options tunes DetectHatches. Zero fields take their defaults.
type Options struct {
	// InkThreshold is the gray level under which a pixel counts as ink.
	InkThreshold uint8

	// MinArea drops components with fewer ink pixels. Specks of dust and
	// scanner noise are usually only a few pixels.
	MinArea int
}

func (o Options) withDefaults() Options {
	if o.InkThreshold == 0 {
		o.InkThreshold = DefaultInkThreshold
	}
	if o.MinArea <= 0 {
		o.MinArea = DefaultMinArea
	}
	return o
}

// Stroke is one connected component of ink.
type Stroke struct {
	// Hatch holds the component's extreme pixels.
	Hatch geometry.Hatch `json:"hatch"`

	// Bounds is the bounding box of the component.
	Bounds Bounds `json:"bounds"`

	// Area is the number of ink pixels in the component.
	Area int `json:"area"`

	// Line is the index of the text line the stroke was sorted into.
	Line int `json:"line"`
}

// HatchesResult contains the detected strokes in reading order.
type HatchesResult struct {
	Strokes []Stroke `json:"strokes"`
	Count   int      `json:"count"`
	Lines   int      `json:"lines"`
}

// Hatches returns the corner dots of every stroke, in reading order.
func (r *HatchesResult) Hatches() []geometry.Hatch {
	out := make([]geometry.Hatch, len(r.Strokes))
	for i, s := range r.Strokes {
		out[i] = s.Hatch
	}
	return out
}

// DetectHatches finds the pen strokes of a scanned digit grid.
//
// The image is binarized at opts.InkThreshold and split into 8-connected
// components of ink. Components smaller than opts.MinArea are discarded.
// Every remaining component becomes one stroke described by its leftmost,
// rightmost, topmost and bottommost pixels.
//
// # Reading Order
//
// Strokes are grouped into text lines: a stroke joins the current line when
// its vertical middle falls inside the vertical extent of the strokes already
// in that line. Lines are emitted top to bottom, strokes within a line left to
// right. This is the order the row clustering expects.
//
// An image with no ink yields an empty result, not an error.
func DetectHatches(img image.Image, opts Options) (*HatchesResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	opts = opts.withDefaults()

	origin := img.Bounds().Min
	mask := imaging.Binarize(img, opts.InkThreshold)
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()

	ink := make([][]bool, height)
	for y := 0; y < height; y++ {
		ink[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			ink[y][x] = imaging.IsInk(mask, b.Min.X+x, b.Min.Y+y)
		}
	}

	var strokes []Stroke
	for _, component := range findComponents(ink, width, height) {
		if len(component) < opts.MinArea {
			continue
		}
		s := strokeFromComponent(component)
		s.Bounds.X1 += origin.X
		s.Bounds.X2 += origin.X
		s.Bounds.Y1 += origin.Y
		s.Bounds.Y2 += origin.Y
		s.Hatch = offsetHatch(s.Hatch, origin)
		strokes = append(strokes, s)
	}

	lines := orderStrokes(strokes)
	return &HatchesResult{
		Strokes: strokes,
		Count:   len(strokes),
		Lines:   lines,
	}, nil
}

// findComponents returns the 8-connected components of ink in scan order.
func findComponents(ink [][]bool, width, height int) [][]Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	components := make([][]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ink[y][x] && !visited[y][x] {
				component := make([]Point, 0)
				floodFill(ink, visited, x, y, width, height, &component)
				components = append(components, component)
			}
		}
	}
	return components
}

// floodFill collects the 8-connected ink pixels reachable from (startX,
// startY) using an iterative stack-based approach.
func floodFill(ink, visited [][]bool, startX, startY, width, height int, component *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !ink[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*component = append(*component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// strokeFromComponent picks the extreme pixels of a non-empty component.
// Ties keep the pixel found first.
func strokeFromComponent(component []Point) Stroke {
	left, right, top, bottom := component[0], component[0], component[0], component[0]
	for _, p := range component[1:] {
		if p.X < left.X {
			left = p
		}
		if p.X > right.X {
			right = p
		}
		if p.Y < top.Y {
			top = p
		}
		if p.Y > bottom.Y {
			bottom = p
		}
	}

	return Stroke{
		Hatch: geometry.Hatch{
			Left:   left.dot(),
			Right:  right.dot(),
			Top:    top.dot(),
			Bottom: bottom.dot(),
		},
		Bounds: Bounds{X1: left.X, Y1: top.Y, X2: right.X + 1, Y2: bottom.Y + 1},
		Area:   len(component),
	}
}

func offsetHatch(h geometry.Hatch, off image.Point) geometry.Hatch {
	if off == (image.Point{}) {
		return h
	}
	shift := func(d geometry.Dot) geometry.Dot {
		return geometry.Dot{X: d.X + float64(off.X), Y: d.Y + float64(off.Y)}
	}
	return geometry.Hatch{
		Left:   shift(h.Left),
		Right:  shift(h.Right),
		Top:    shift(h.Top),
		Bottom: shift(h.Bottom),
	}
}

// orderStrokes sorts strokes into reading order in place, sets their Line
// and returns the number of lines.
func orderStrokes(strokes []Stroke) int {
	if len(strokes) == 0 {
		return 0
	}

	sort.SliceStable(strokes, func(i, j int) bool {
		return strokes[i].Hatch.Middle().Y < strokes[j].Hatch.Middle().Y
	})

	line := 0
	top, bottom := strokes[0].Bounds.Y1, strokes[0].Bounds.Y2
	for i := range strokes {
		s := &strokes[i]
		mid := s.Hatch.Middle().Y
		if i > 0 && (mid < float64(top) || mid >= float64(bottom)) {
			line++
			top, bottom = s.Bounds.Y1, s.Bounds.Y2
		}
		s.Line = line
		if s.Bounds.Y1 < top {
			top = s.Bounds.Y1
		}
		if s.Bounds.Y2 > bottom {
			bottom = s.Bounds.Y2
		}
	}

	sort.SliceStable(strokes, func(i, j int) bool {
		if strokes[i].Line != strokes[j].Line {
			return strokes[i].Line < strokes[j].Line
		}
		return strokes[i].Bounds.X1 < strokes[j].Bounds.X1
	})
	return line + 1
}
