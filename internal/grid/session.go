package grid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ironsheep/digitgrid-mcp/internal/config"
	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/logging"
	"github.com/ironsheep/digitgrid-mcp/internal/rows"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// Session owns the mutable state of one document's segmentation.
type Session struct {
	cfg      *config.Config
	log      *slog.Logger
	strategy rows.Strategy

	rows *rows.Manager
	tess *tessellation.Tessellation
}

// NewSession creates a session. A nil cfg uses config.Default and a nil
// logger discards everything.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:      cfg,
		log:      logger,
		strategy: strategy,
		rows: rows.NewManager(rows.Options{
			NewRowAngle:          cfg.Rows.NewRowAngle,
			HorizontalThreshold:  cfg.Rows.HorizontalThreshold,
			ContainmentTolerance: cfg.Rows.ContainmentTolerance,
			Logger:               logger,
		}),
	}, nil
}

// AddHatch records one stroke. Strokes must arrive in reading order.
func (s *Session) AddHatch(h geometry.Hatch) error {
	s.tess = nil
	return s.rows.AddHatch(h)
}

// AddHatches records strokes in order and stops at the first rejected one.
func (s *Session) AddHatches(hatches []geometry.Hatch) error {
	for _, h := range hatches {
		if err := s.AddHatch(h); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of recorded strokes.
func (s *Session) Len() int {
	return s.rows.Len()
}

// Run clusters the recorded strokes into rows, tessellates their middles,
// links rows to cells and groups the cells. Every call recomputes the whole
// pipeline from the recorded strokes.
//
// The context is checked between stages.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	s.tess = nil

	if _, err := s.rows.Process(); err != nil {
		return nil, fmt.Errorf("cluster rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tess := tessellation.New(s.rows.Dots(), tessellation.Options{
		MergeEpsilon: s.cfg.Tessellation.MergeEpsilon,
	})
	if err := tess.Process(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.rows.LinkCells(tess); err != nil {
		return nil, fmt.Errorf("link cells: %w", err)
	}
	if err := s.rows.Group(s.strategy, tess); err != nil {
		return nil, fmt.Errorf("group cells: %w", err)
	}
	s.tess = tess

	res := s.result()
	s.log.Info("grid segmented",
		"hatches", s.rows.Len(),
		"rows", len(res.Rows),
		"cells", tess.Len(),
		"groups", res.GroupCount(),
		"strategy", res.Strategy,
	)
	return res, nil
}

// Reset drops all strokes and results.
func (s *Session) Reset() {
	s.rows.Clear()
	s.tess = nil
}

// Rows returns the rows of the last successful Run.
func (s *Session) Rows() []*rows.MatrixRow {
	if s.tess == nil {
		return nil
	}
	return s.rows.Rows()
}

// Tessellation returns the cell arena of the last successful Run, or nil.
func (s *Session) Tessellation() *tessellation.Tessellation {
	return s.tess
}

// Config returns the session's configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}
