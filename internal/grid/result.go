package grid

import (
	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/rows"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// Result is a snapshot of one segmentation.
type Result struct {
	Strategy string      `json:"strategy"`
	Rows     []RowResult `json:"rows"`
}

// RowResult is one row of the grid with its cells in reading order.
type RowResult struct {
	Index  int          `json:"index"`
	Top    float64      `json:"top"`
	Bottom float64      `json:"bottom"`
	Cells  []CellResult `json:"cells"`
	Groups []Group      `json:"groups"`
}

// CellResult is one digit cell.
type CellResult struct {
	// ID is the cell's id in the session's tessellation.
	ID int `json:"id"`

	// Stroke is the index of the input hatch whose middle is Center.
	Stroke int `json:"stroke"`

	Center        geometry.Dot `json:"center"`
	DigitWidth    float64      `json:"digit_width"`
	RelativeWidth float64      `json:"relative_width,omitempty"`
	ComeWith      *int         `json:"come_with,omitempty"`

	PredictedNumber *int    `json:"predicted_number,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`

	// Blank is set by Classify for cells without enough ink to classify.
	Blank bool `json:"blank,omitempty"`
}

// Group is a run of cells linked by ComeWith: the digits of one number.
type Group struct {
	// Cells holds the cell ids in reading order.
	Cells []int `json:"cells"`

	// Value is the composed number, set by Classify. Unrecognized digits are
	// written as '?'.
	Value string `json:"value,omitempty"`

	// Confidence is the lowest confidence among the group's digits.
	Confidence float64 `json:"confidence,omitempty"`
}

// GroupCount returns the number of groups across all rows.
func (r *Result) GroupCount() int {
	n := 0
	for _, row := range r.Rows {
		n += len(row.Groups)
	}
	return n
}

// Cell returns the cell with the given id and the row it belongs to.
func (r *Result) Cell(id int) (*RowResult, *CellResult, bool) {
	for i := range r.Rows {
		row := &r.Rows[i]
		for j := range row.Cells {
			if row.Cells[j].ID == id {
				return row, &row.Cells[j], true
			}
		}
	}
	return nil, nil, false
}

func (s *Session) result() *Result {
	res := &Result{Strategy: s.strategy.Name()}
	for _, row := range s.rows.Rows() {
		res.Rows = append(res.Rows, newRowResult(row, s.tess))
	}
	return res
}

func newRowResult(row *rows.MatrixRow, tess *tessellation.Tessellation) RowResult {
	strokes := row.Strokes()
	out := RowResult{
		Index:  row.Index,
		Top:    row.Top,
		Bottom: row.Bottom,
		Cells:  make([]CellResult, 0, len(row.Cells)),
	}

	for i, id := range row.Cells {
		cell, err := tess.Cell(id)
		if err != nil {
			continue
		}
		cr := CellResult{
			ID:            cell.ID,
			Stroke:        strokes[i],
			Center:        cell.Center,
			DigitWidth:    cell.DigitWidth,
			RelativeWidth: cell.RelativeWidth,
		}
		if cell.ComeWith != nil {
			next := *cell.ComeWith
			cr.ComeWith = &next
		}
		out.Cells = append(out.Cells, cr)
	}

	out.Groups = groupCells(out.Cells)
	return out
}

// groupCells splits a row's cells into runs joined by ComeWith links to the
// following cell.
func groupCells(cells []CellResult) []Group {
	var groups []Group
	for i := 0; i < len(cells); {
		g := Group{Cells: []int{cells[i].ID}}
		for i+1 < len(cells) && cells[i].ComeWith != nil && *cells[i].ComeWith == cells[i+1].ID {
			i++
			g.Cells = append(g.Cells, cells[i].ID)
		}
		groups = append(groups, g)
		i++
	}
	return groups
}
