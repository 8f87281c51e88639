package grid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/digitgrid-mcp/internal/imaging"
	"github.com/ironsheep/digitgrid-mcp/internal/rows"
)

var (
	// ErrUnrecognized is returned by a Classifier that finds no digit in a
	// crop.
	ErrUnrecognized = errors.New("no digit recognized")

	// ErrNoImage is returned when classification or cropping is asked for
	// without a scan.
	ErrNoImage = errors.New("no image")
)

// Classifier predicts the digit shown in a cell crop.
type Classifier interface {
	// Classify returns the digit (0-9) and a confidence in [0, 1]. It
	// returns an error wrapping ErrUnrecognized when the crop holds no
	// recognizable digit.
	Classify(ctx context.Context, img image.Image) (digit int, confidence float64, err error)
}

// Classify crops every cell of res out of img, predicts its digit with c and
// writes the predictions into res and into the session's cells. Each group's
// Value is then composed from its digits.
//
// res must come from this session's last Run.
func (s *Session) Classify(ctx context.Context, img image.Image, res *Result, c Classifier) error {
	if img == nil {
		return ErrNoImage
	}
	if s.tess == nil {
		return rows.ErrNotProcessed
	}

	bounds := img.Bounds()
	var classified, blank, unrecognized int
	for i := range res.Rows {
		row := &res.Rows[i]
		for j := range row.Cells {
			if err := ctx.Err(); err != nil {
				return err
			}
			cell := &row.Cells[j]
			cell.PredictedNumber, cell.Confidence, cell.Blank = nil, 0, false
			log := s.log.With("row", row.Index, "cell", cell.ID)

			rect := row.CellRegion(*cell, s.cfg.OCR.Padding, bounds)
			if rect.Empty() {
				cell.Blank = true
				blank++
				continue
			}
			crop, err := imaging.Crop(img, rect)
			if err != nil {
				return fmt.Errorf("cell %d: %w", cell.ID, err)
			}
			if imaging.InkCoverage(crop, imaging.DefaultInkLightness) < s.cfg.OCR.MinInkCoverage {
				log.Debug("blank cell")
				cell.Blank = true
				blank++
				continue
			}

			digit, conf, err := c.Classify(ctx, crop)
			if errors.Is(err, ErrUnrecognized) {
				log.Debug("digit not recognized")
				unrecognized++
				continue
			}
			if err != nil {
				return fmt.Errorf("classify cell %d: %w", cell.ID, err)
			}

			cell.PredictedNumber = &digit
			cell.Confidence = conf
			if arena, err := s.tess.Cell(cell.ID); err == nil {
				arena.Predict(digit, conf)
			}
			classified++
		}
		row.composeGroups()
	}

	s.log.Info("cells classified",
		"classified", classified,
		"blank", blank,
		"unrecognized", unrecognized,
	)
	return nil
}

// CellRegion returns the pixel rectangle of cell: its digit width to either
// side of the center and the row band above and below, grown by pad and
// clipped to bounds. A cell without a digit width, the only cell of its row,
// is given a square of the band height.
func (r *RowResult) CellRegion(cell CellResult, pad int, bounds image.Rectangle) image.Rectangle {
	half := cell.DigitWidth
	if half <= 0 {
		half = (r.Top + r.Bottom) / 2
	}
	return imaging.CellRegion(cell.Center, half, r.Top, r.Bottom, pad, bounds)
}

// composeGroups concatenates the predicted digits of every group. Blank cells
// are left out; cells that were not recognized become '?'.
func (r *RowResult) composeGroups() {
	byID := make(map[int]*CellResult, len(r.Cells))
	for i := range r.Cells {
		byID[r.Cells[i].ID] = &r.Cells[i]
	}

	for i := range r.Groups {
		g := &r.Groups[i]
		var b strings.Builder
		conf := math.Inf(1)
		for _, id := range g.Cells {
			cell := byID[id]
			switch {
			case cell == nil || cell.Blank:
			case cell.PredictedNumber == nil:
				b.WriteByte('?')
			default:
				b.WriteString(strconv.Itoa(*cell.PredictedNumber))
				conf = math.Min(conf, cell.Confidence)
			}
		}
		g.Value = b.String()
		g.Confidence = 0
		if !math.IsInf(conf, 1) {
			g.Confidence = conf
		}
	}
}

// GroupCrop is the encoded image of one group.
type GroupCrop struct {
	Row   int                 `json:"row"`
	Cells []int               `json:"cells"`
	Value string              `json:"value,omitempty"`
	Crop  *imaging.CropResult `json:"crop"`
}

// GroupCrops encodes every group of res as a PNG covering all of its cells.
// Groups lying entirely outside img are skipped.
func GroupCrops(img image.Image, res *Result, pad int, scale float64) ([]GroupCrop, error) {
	if img == nil {
		return nil, ErrNoImage
	}

	bounds := img.Bounds()
	var out []GroupCrop
	for i := range res.Rows {
		row := &res.Rows[i]
		byID := make(map[int]CellResult, len(row.Cells))
		for _, c := range row.Cells {
			byID[c.ID] = c
		}

		for _, g := range row.Groups {
			var rect image.Rectangle
			for _, id := range g.Cells {
				rect = rect.Union(row.CellRegion(byID[id], pad, bounds))
			}
			if rect.Empty() {
				continue
			}
			crop, err := imaging.Encode(img, rect, scale)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row.Index, err)
			}
			out = append(out, GroupCrop{
				Row:   row.Index,
				Cells: g.Cells,
				Value: g.Value,
				Crop:  crop,
			})
		}
	}
	return out, nil
}
