package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/digitgrid-mcp/internal/detection"
	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/grid"
	"github.com/ironsheep/digitgrid-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "grid_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads scans from cache as needed
//  4. Runs a fresh grid.Session for segmentation tools
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Stroke Detection
	case "grid_detect_hatches":
		return s.handleDetectHatches(args)

	// Segmentation
	case "grid_segment":
		return s.handleSegment(ctx, args)
	case "grid_segment_image":
		return s.handleSegmentImage(ctx, args)

	// Classification
	case "grid_classify":
		return s.handleClassify(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Missing arguments decode as an empty
// object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return json.Unmarshal(args, v)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (a imageLoadArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.cache.Info(a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.cache.Dimensions(a.Path)
}

// === Stroke Detection Handlers ===

type detectHatchesArgs struct {
	Path         string `json:"path"`
	InkThreshold *int   `json:"ink_threshold"`
	MinArea      *int   `json:"min_area"`
}

// detectionOptions merges the call's overrides over the configuration.
func (s *Server) detectionOptions(inkThreshold, minArea *int) (detection.Options, error) {
	opts := detection.Options{
		InkThreshold: s.cfg.Detection.InkThreshold,
		MinArea:      s.cfg.Detection.MinArea,
	}
	if inkThreshold != nil {
		if *inkThreshold < 1 || *inkThreshold > 255 {
			return opts, fmt.Errorf("ink_threshold %d not in 1-255", *inkThreshold)
		}
		opts.InkThreshold = uint8(*inkThreshold)
	}
	if minArea != nil {
		if *minArea < 1 {
			return opts, fmt.Errorf("min_area must be at least 1")
		}
		opts.MinArea = *minArea
	}
	return opts, nil
}

func (s *Server) handleDetectHatches(args json.RawMessage) (interface{}, error) {
	var a detectHatchesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	opts, err := s.detectionOptions(a.InkThreshold, a.MinArea)
	if err != nil {
		return nil, err
	}

	scan, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectHatches(scan.Image, opts)
}

// === Segmentation Handlers ===

type segmentArgs struct {
	Hatches  []geometry.Hatch `json:"hatches"`
	Strategy string           `json:"strategy"`
}

// newSession creates a session for one tool call. A non-empty strategy
// overrides the configured one.
func (s *Server) newSession(strategy string) (*grid.Session, error) {
	cfg := *s.cfg
	if strategy != "" {
		cfg.Grouping.Strategy = strategy
	}
	return grid.NewSession(&cfg, s.log)
}

func (s *Server) segment(ctx context.Context, hatches []geometry.Hatch, strategy string) (*grid.Session, *grid.Result, error) {
	sess, err := s.newSession(strategy)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.AddHatches(hatches); err != nil {
		return nil, nil, err
	}
	res, err := sess.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

func (s *Server) handleSegment(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Hatches) == 0 {
		return nil, errors.New("hatches is required")
	}

	_, res, err := s.segment(ctx, a.Hatches, a.Strategy)
	return res, err
}

type segmentImageArgs struct {
	Path         string           `json:"path"`
	Hatches      []geometry.Hatch `json:"hatches"`
	Strategy     string           `json:"strategy"`
	IncludeCrops bool             `json:"include_crops"`
	Scale        float64          `json:"scale"`
}

// SegmentImageResult is returned by grid_segment_image.
type SegmentImageResult struct {
	// Hatches is the number of strokes segmented.
	Hatches int `json:"hatches"`

	// Detected is set when the strokes were found in the scan rather than
	// passed in.
	Detected bool `json:"detected"`

	Segmentation *grid.Result     `json:"segmentation"`
	Crops        []grid.GroupCrop `json:"crops,omitempty"`
}

// scanHatches loads the scan at path and returns the given hatches, or the
// detected ones when none are given.
func (s *Server) scanHatches(path string, hatches []geometry.Hatch) (*imaging.Scan, []geometry.Hatch, bool, error) {
	if path == "" {
		return nil, nil, false, errors.New("path is required")
	}
	scan, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, false, err
	}
	if len(hatches) > 0 {
		return scan, hatches, false, nil
	}

	opts, err := s.detectionOptions(nil, nil)
	if err != nil {
		return nil, nil, false, err
	}
	found, err := detection.DetectHatches(scan.Image, opts)
	if err != nil {
		return nil, nil, false, err
	}
	s.log.Debug("strokes detected", "path", path, "strokes", found.Count, "lines", found.Lines)
	return scan, found.Hatches(), true, nil
}

func (s *Server) handleSegmentImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentImageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	scan, hatches, detected, err := s.scanHatches(a.Path, a.Hatches)
	if err != nil {
		return nil, err
	}
	_, res, err := s.segment(ctx, hatches, a.Strategy)
	if err != nil {
		return nil, err
	}

	out := &SegmentImageResult{
		Hatches:      len(hatches),
		Detected:     detected,
		Segmentation: res,
	}
	if a.IncludeCrops {
		out.Crops, err = grid.GroupCrops(scan.Image, res, s.cfg.OCR.Padding, a.Scale)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// === Classification Handlers ===

type classifyArgs struct {
	Path     string           `json:"path"`
	Hatches  []geometry.Hatch `json:"hatches"`
	Strategy string           `json:"strategy"`
	Language string           `json:"language"`
}

// ClassifyResult is returned by grid_classify.
type ClassifyResult struct {
	Hatches      int          `json:"hatches"`
	Detected     bool         `json:"detected"`
	Segmentation *grid.Result `json:"segmentation"`

	// Numbers lists the composed value of every group, row by row.
	Numbers [][]string `json:"numbers"`
}

func (s *Server) handleClassify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCR.Language
	}

	scan, hatches, detected, err := s.scanHatches(a.Path, a.Hatches)
	if err != nil {
		return nil, err
	}
	sess, res, err := s.segment(ctx, hatches, a.Strategy)
	if err != nil {
		return nil, err
	}

	classifier, closeFn, err := s.newClassifier(a.Language)
	if err != nil {
		return nil, fmt.Errorf("open classifier: %w", err)
	}
	defer closeFn()

	if err := sess.Classify(ctx, scan.Image, res, classifier); err != nil {
		return nil, err
	}

	numbers := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		numbers[i] = make([]string, 0, len(row.Groups))
		for _, g := range row.Groups {
			numbers[i] = append(numbers[i], g.Value)
		}
	}
	return &ClassifyResult{
		Hatches:      len(hatches),
		Detected:     detected,
		Segmentation: res,
		Numbers:      numbers,
	}, nil
}
