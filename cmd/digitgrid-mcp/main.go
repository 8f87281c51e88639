package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/digitgrid-mcp/internal/config"
	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
	"github.com/ironsheep/digitgrid-mcp/internal/grid"
	"github.com/ironsheep/digitgrid-mcp/internal/logging"
	"github.com/ironsheep/digitgrid-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `digitgrid-mcp - MCP server for handwritten digit grids

Usage:
  digitgrid-mcp [--config FILE]                  Serve MCP over stdin/stdout
  digitgrid-mcp [--config FILE] segment FILE     Segment a JSON list of hatches

Options:
  --config FILE    Read settings from a YAML file
  --version, -v    Print version information
  --help, -h       Print this help message

Environment variables:
  DIGITGRID_LOG_LEVEL=debug              Log level (debug, info, warn, error)
  DIGITGRID_STRATEGY=height_normalized   Grouping strategy
  DIGITGRID_NEW_ROW_ANGLE=0.785          Row break angle in radians
  DIGITGRID_HORIZONTAL_THRESHOLD=20      Connector height in pixels
  DIGITGRID_OCR_LANGUAGE=eng             Tesseract language

The server communicates via MCP protocol over stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var configPath, segmentPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "digitgrid-mcp %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			fmt.Fprint(stdout, usage)
			return 0
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "--config needs a file")
				return 2
			}
			i++
			configPath = args[i]
		case "segment":
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "segment needs a file (- for stdin)")
				return 2
			}
			i++
			segmentPath = args[i]
		default:
			fmt.Fprintf(stderr, "unknown argument %q\n\n%s", args[i], usage)
			return 2
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// Logging goes to stderr (stdout is for MCP protocol)
	logger, err := logging.NewWithWriter(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if segmentPath != "" {
		if err := segment(ctx, cfg, logger, segmentPath, stdin, stdout); err != nil {
			logger.Error("segmentation failed", "error", err)
			return 1
		}
		return 0
	}

	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	srv := server.New(cfg, logger, server.WithIO(stdin, stdout))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}

// loadConfig layers the optional YAML file and the environment over the
// defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// segment reads a JSON array of hatches from path, or stdin when path is
// "-", and writes the segmentation as JSON.
func segment(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var hatches []geometry.Hatch
	if err := json.NewDecoder(in).Decode(&hatches); err != nil {
		return fmt.Errorf("decode hatches: %w", err)
	}

	sess, err := grid.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	if err := sess.AddHatches(hatches); err != nil {
		return err
	}
	res, err := sess.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
