package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/digitgrid-mcp/internal/config"
	"github.com/ironsheep/digitgrid-mcp/internal/grid"
	"github.com/ironsheep/digitgrid-mcp/internal/imaging"
	"github.com/ironsheep/digitgrid-mcp/internal/logging"
	"github.com/ironsheep/digitgrid-mcp/internal/ocr"
)

// ServerName and ServerVersion are reported in the initialize handshake.
const (
	ServerName    = "digitgrid-mcp"
	ServerVersion = "0.1.0"
)

// ClassifierFactory opens a digit classifier for the given language. The
// returned close function is called once the tool call is done.
type ClassifierFactory func(language string) (grid.Classifier, func() error, error)

// Server handles MCP protocol communication
type Server struct {
	cfg   *config.Config
	log   *slog.Logger
	cache *imaging.ScanCache

	newClassifier ClassifierFactory

	in  io.Reader
	out io.Writer
}

// Option customizes a Server.
type Option func(*Server)

// WithClassifierFactory replaces the Tesseract digit classifier.
func WithClassifierFactory(f ClassifierFactory) Option {
	return func(s *Server) { s.newClassifier = f }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance. A nil cfg uses config.Default and a
// nil logger discards everything.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		cfg:           cfg,
		log:           logger,
		cache:         imaging.NewScanCache(),
		newClassifier: tesseractClassifier,
		in:            os.Stdin,
		out:           os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func tesseractClassifier(language string) (grid.Classifier, func() error, error) {
	c, err := ocr.NewDigitClassifier(ocr.Options{Language: language})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// Run reads requests line by line until the input ends or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Hatch lists of a full page can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debug("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
