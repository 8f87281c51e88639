package rows

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// DefaultNewRowAngle is the largest deviation from the horizontal, in
// radians, that still continues the current row.
const DefaultNewRowAngle = math.Pi / 4

// Options configures a Manager. Zero fields take their defaults.
type Options struct {
	NewRowAngle          float64
	HorizontalThreshold  float64
	ContainmentTolerance float64
	Logger               *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.NewRowAngle <= 0 {
		o.NewRowAngle = DefaultNewRowAngle
	}
	if o.HorizontalThreshold <= 0 {
		o.HorizontalThreshold = geometry.DefaultHorizontalThreshold
	}
	if o.ContainmentTolerance <= 0 {
		o.ContainmentTolerance = geometry.DefaultContainmentTolerance
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Manager accumulates the strokes of one document and clusters them into
// rows. It is not safe for concurrent use; use one Manager per document.
type Manager struct {
	opts Options
	log  *slog.Logger

	hatches    []geometry.Hatch
	horizontal []bool
	// vectors[0] is the zero-length seed at the first middle; vectors[k]
	// runs from the middle of stroke k-1 to the middle of stroke k.
	vectors []geometry.Vector
	// angles[k] is the deviation of vectors[k] from the horizontal.
	angles []float64
	dots   []geometry.Dot

	rows      []*MatrixRow
	processed bool
	linked    bool
}

// NewManager creates an empty Manager.
func NewManager(opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{opts: opts, log: opts.Logger}
}

// AddHatch records one stroke. Strokes must arrive in reading order.
func (m *Manager) AddHatch(h geometry.Hatch) error {
	middle := h.Middle()

	var (
		v     geometry.Vector
		angle float64
	)
	if n := len(m.vectors); n == 0 {
		v = geometry.Vector{Begin: middle, End: middle}
	} else {
		v = geometry.Vector{Begin: m.vectors[n-1].End, End: middle}
		var err error
		angle, err = geometry.Angle(v, geometry.Horizontal)
		if err != nil {
			return fmt.Errorf("hatch %d at %v: %w", len(m.hatches), middle, err)
		}
	}

	flat := h.IsHorizontal(m.opts.HorizontalThreshold)
	if !flat {
		m.dots = append(m.dots, middle)
	}
	m.hatches = append(m.hatches, h)
	m.horizontal = append(m.horizontal, flat)
	m.vectors = append(m.vectors, v)
	m.angles = append(m.angles, angle)
	m.processed, m.linked = false, false
	return nil
}

// Len returns the number of recorded strokes.
func (m *Manager) Len() int {
	return len(m.hatches)
}

// Hatches returns the recorded strokes.
func (m *Manager) Hatches() []geometry.Hatch {
	return m.hatches
}

// Dots returns the middles of all strokes that are not flat connectors.
// These are the generators of the tessellation.
func (m *Manager) Dots() []geometry.Dot {
	return m.dots
}

// Rows returns the rows found by the last Process call.
func (m *Manager) Rows() []*MatrixRow {
	return m.rows
}

// Clear drops all strokes and rows.
func (m *Manager) Clear() {
	m.hatches = nil
	m.horizontal = nil
	m.vectors = nil
	m.angles = nil
	m.dots = nil
	m.rows = nil
	m.processed, m.linked = false, false
}

// clusterState is the walk's cursor over the chain.
type clusterState struct {
	current *MatrixRow
	// pending lists strokes of the current row whose corners have not been
	// folded into its band yet.
	pending []int
	// detached is set when the current row does not end at the previous
	// middle, after a connector or an absorbed stroke.
	detached bool
}

// Process clusters the recorded strokes into rows. Calling it again
// recomputes the rows from scratch.
func (m *Manager) Process() ([]*MatrixRow, error) {
	if len(m.hatches) == 0 {
		return nil, ErrNoHatches
	}

	m.rows = []*MatrixRow{newRow(0)}
	m.processed, m.linked = false, false
	st := &clusterState{current: m.rows[0]}
	if !m.horizontal[0] {
		st.current.seed(m.vectors[0].End, 0)
		st.pending = []int{0}
	}

	for k := 1; k < len(m.vectors); k++ {
		v := m.vectors[k]
		log := m.log.With("hatch", k)

		switch {
		case m.horizontal[k]:
			log.Debug("connector, deferring previous hatch")
			st.detached = true

		case st.current.IsEmpty():
			log.Debug("seeding first row", "at", v.End)
			st.current.seed(v.End, k)
			st.pending = []int{k}
			st.detached = false

		case m.angles[k] <= m.opts.NewRowAngle:
			if st.detached {
				v.Begin = st.current.End()
				st.detached = false
			}
			log.Debug("continues row", "row", st.current.Index, "angle", m.angles[k])
			st.current.AddHatch(v, k, m.takePending(st)...)
			st.pending = []int{k}

		default:
			if row := m.findRow(v.End); row != nil {
				log.Debug("absorbed into existing row", "row", row.Index, "angle", m.angles[k])
				row.absorb(v.End, k)
				st.detached = true
				continue
			}
			for _, h := range m.takePending(st) {
				st.current.UpdateBand(h)
			}
			st.current = newRow(len(m.rows))
			st.current.seed(v.End, k)
			m.rows = append(m.rows, st.current)
			st.pending = []int{k}
			st.detached = false
			log.Debug("opened row", "row", st.current.Index, "angle", m.angles[k])
		}
	}

	for _, h := range m.takePending(st) {
		st.current.UpdateBand(h)
	}
	if st.current.IsEmpty() {
		m.rows = m.rows[:len(m.rows)-1]
	}

	m.processed = true
	m.log.Info("hatches clustered", "hatches", len(m.hatches), "rows", len(m.rows))
	return m.rows, nil
}

func (m *Manager) takePending(st *clusterState) []geometry.Hatch {
	out := make([]geometry.Hatch, len(st.pending))
	for i, s := range st.pending {
		out[i] = m.hatches[s]
	}
	st.pending = nil
	return out
}

// findRow returns the first row with a settled band that contains dot.
func (m *Manager) findRow(dot geometry.Dot) *MatrixRow {
	for _, row := range m.rows {
		if row.hasBand() && row.ContainsDot(dot, m.opts.ContainmentTolerance) {
			return row
		}
	}
	return nil
}

// LinkCells resolves every row dot to its tessellation cell and computes the
// digit widths of rows with more than one cell.
func (m *Manager) LinkCells(t *tessellation.Tessellation) error {
	if !m.processed {
		return ErrNotProcessed
	}

	for _, row := range m.rows {
		dots := row.Dots()
		row.Cells = make([]int, len(dots))
		for i, d := range dots {
			cell, ok := t.Lookup(d)
			if !ok {
				return fmt.Errorf("row %d: %w: %v", row.Index, ErrUnknownDot, d)
			}
			row.Cells[i] = cell.ID
		}
	}

	for _, row := range m.rows {
		if len(row.Cells) < 2 {
			continue
		}
		for i, id := range row.Cells {
			allowed := make([]int, 0, 2)
			if i > 0 {
				allowed = append(allowed, row.Cells[i-1])
			}
			if i < len(row.Cells)-1 {
				allowed = append(allowed, row.Cells[i+1])
			}

			cell, err := t.Cell(id)
			if err != nil {
				return fmt.Errorf("row %d: %w", row.Index, err)
			}
			if err := cell.CalculateWidth(allowed); err != nil {
				return fmt.Errorf("row %d: %w", row.Index, err)
			}
		}
	}

	m.linked = true
	return nil
}

// Group links adjacent cells of every row that belong to one number.
func (m *Manager) Group(s Strategy, t *tessellation.Tessellation) error {
	if !m.linked {
		return ErrNotProcessed
	}

	for _, row := range m.rows {
		cells := make([]*tessellation.Cell, len(row.Cells))
		for i, id := range row.Cells {
			cell, err := t.Cell(id)
			if err != nil {
				return fmt.Errorf("row %d: %w", row.Index, err)
			}
			cell.ComeWith = nil
			cell.RelativeWidth = 0
			cells[i] = cell
		}
		if len(cells) < 2 {
			continue
		}
		if err := s.Group(row, cells); err != nil {
			return fmt.Errorf("row %d, %s: %w", row.Index, s.Name(), err)
		}
	}
	return nil
}
