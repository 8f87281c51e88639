// Package config holds the tunable parameters of the segmentation pipeline.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file and DIGITGRID_* environment variables.
//
// The horizontal threshold and the containment tolerance are expressed in
// image units and depend on the scan resolution; the defaults fit scans where
// a digit is about 40 pixels tall.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/logging"
	"github.com/ironsheep/digitgrid-mcp/internal/rows"
	"github.com/ironsheep/digitgrid-mcp/internal/tessellation"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel            = "DIGITGRID_LOG_LEVEL"
	EnvNewRowAngle         = "DIGITGRID_NEW_ROW_ANGLE"
	EnvHorizontalThreshold = "DIGITGRID_HORIZONTAL_THRESHOLD"
	EnvStrategy            = "DIGITGRID_STRATEGY"
	EnvLanguage            = "DIGITGRID_OCR_LANGUAGE"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of pipeline parameters.
type Config struct {
	LogLevel     string             `yaml:"log_level"`
	Rows         RowsConfig         `yaml:"rows"`
	Tessellation TessellationConfig `yaml:"tessellation"`
	Grouping     GroupingConfig     `yaml:"grouping"`
	Detection    DetectionConfig    `yaml:"detection"`
	OCR          OCRConfig          `yaml:"ocr"`
}

// RowsConfig tunes row clustering.
type RowsConfig struct {
	// NewRowAngle is the largest deviation from the horizontal, in radians,
	// that continues the current row.
	NewRowAngle float64 `yaml:"new_row_angle"`

	// HorizontalThreshold is the largest top-to-bottom extent of a connector
	// stroke.
	HorizontalThreshold float64 `yaml:"horizontal_threshold"`

	// ContainmentTolerance is the area slack of the row band test.
	ContainmentTolerance float64 `yaml:"containment_tolerance"`
}

// TessellationConfig tunes the Voronoi tessellation.
type TessellationConfig struct {
	// MergeEpsilon is the ridge length under which two Voronoi vertices are
	// merged.
	MergeEpsilon float64 `yaml:"merge_epsilon"`
}

// GroupingConfig selects the multi-digit grouping policy.
type GroupingConfig struct {
	Strategy      string  `yaml:"strategy"`
	MaxWidthRatio float64 `yaml:"max_width_ratio"`
}

// DetectionConfig tunes the reference stroke detector.
type DetectionConfig struct {
	// InkThreshold is the gray level under which a pixel counts as ink.
	InkThreshold uint8 `yaml:"ink_threshold"`
	// MinArea drops components with fewer pixels.
	MinArea int `yaml:"min_area"`
}

// OCRConfig tunes the reference digit classifier.
type OCRConfig struct {
	Language string `yaml:"language"`
	// MinInkCoverage skips crops with less ink than this fraction.
	MinInkCoverage float64 `yaml:"min_ink_coverage"`
	// Padding is added around every crop, in pixels.
	Padding int `yaml:"padding"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Rows: RowsConfig{
			NewRowAngle:          rows.DefaultNewRowAngle,
			HorizontalThreshold:  geometry.DefaultHorizontalThreshold,
			ContainmentTolerance: geometry.DefaultContainmentTolerance,
		},
		Tessellation: TessellationConfig{
			MergeEpsilon: tessellation.DefaultMergeEpsilon,
		},
		Grouping: GroupingConfig{
			Strategy:      rows.StrategyWidthRatio,
			MaxWidthRatio: 1.5,
		},
		Detection: DetectionConfig{
			InkThreshold: 128,
			MinArea:      20,
		},
		OCR: OCRConfig{
			Language:       "eng",
			MinInkCoverage: 0.01,
			Padding:        4,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DIGITGRID_* variables found by lookup,
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvStrategy); ok {
		c.Grouping.Strategy = v
	}
	if v, ok := lookup(EnvLanguage); ok {
		c.OCR.Language = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{EnvNewRowAngle, &c.Rows.NewRowAngle},
		{EnvHorizontalThreshold, &c.Rows.HorizontalThreshold},
	}
	for _, f := range floats {
		v, ok := lookup(f.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = parsed
	}
	return nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Rows.NewRowAngle <= 0 || c.Rows.NewRowAngle > math.Pi {
		return fmt.Errorf("%w: rows.new_row_angle %g not in (0, π]", ErrInvalid, c.Rows.NewRowAngle)
	}
	if c.Rows.HorizontalThreshold <= 0 {
		return fmt.Errorf("%w: rows.horizontal_threshold must be positive", ErrInvalid)
	}
	if c.Rows.ContainmentTolerance <= 0 {
		return fmt.Errorf("%w: rows.containment_tolerance must be positive", ErrInvalid)
	}
	if c.Tessellation.MergeEpsilon < 0 {
		return fmt.Errorf("%w: tessellation.merge_epsilon is negative", ErrInvalid)
	}
	if _, err := c.Strategy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Detection.MinArea < 1 {
		return fmt.Errorf("%w: detection.min_area must be at least 1", ErrInvalid)
	}
	if c.OCR.MinInkCoverage < 0 || c.OCR.MinInkCoverage >= 1 {
		return fmt.Errorf("%w: ocr.min_ink_coverage %g not in [0, 1)", ErrInvalid, c.OCR.MinInkCoverage)
	}
	if c.OCR.Padding < 0 {
		return fmt.Errorf("%w: ocr.padding is negative", ErrInvalid)
	}
	return nil
}

// Strategy returns the configured grouping strategy.
func (c *Config) Strategy() (rows.Strategy, error) {
	s, err := rows.StrategyByName(c.Grouping.Strategy)
	if err != nil {
		return nil, err
	}
	if w, ok := s.(rows.WidthRatio); ok && c.Grouping.MaxWidthRatio > 0 {
		w.MaxRatio = c.Grouping.MaxWidthRatio
		return w, nil
	}
	return s, nil
}
