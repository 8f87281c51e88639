package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/digitgrid-mcp/internal/grid"
)

const hatchesJSON = `[
 {"left":{"x":-20,"y":100},"right":{"x":20,"y":100},"top":{"x":0,"y":80},"bottom":{"x":0,"y":120}},
 {"left":{"x":20,"y":100},"right":{"x":60,"y":100},"top":{"x":40,"y":80},"bottom":{"x":40,"y":120}},
 {"left":{"x":180,"y":100},"right":{"x":220,"y":100},"top":{"x":200,"y":80},"bottom":{"x":200,"y":120}},
 {"left":{"x":-20,"y":200},"right":{"x":20,"y":200},"top":{"x":0,"y":180},"bottom":{"x":0,"y":220}},
 {"left":{"x":20,"y":200},"right":{"x":60,"y":200},"top":{"x":40,"y":180},"bottom":{"x":40,"y":220}},
 {"left":{"x":180,"y":200},"right":{"x":220,"y":200},"top":{"x":200,"y":180},"bottom":{"x":200,"y":220}}
]`

func invoke(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := invoke(t, "", "--version")
	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	if !strings.HasPrefix(out, "digitgrid-mcp "+Version) {
		t.Errorf("version output: got %q", out)
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := invoke(t, "", "-h")
	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	if !strings.Contains(out, "segment FILE") {
		t.Errorf("help output: got %q", out)
	}
}

func TestRun_BadArguments(t *testing.T) {
	for _, args := range [][]string{{"--bogus"}, {"--config"}, {"segment"}} {
		if code, _, _ := invoke(t, "", args...); code != 2 {
			t.Errorf("%v: exit code %d, want 2", args, code)
		}
	}
}

func TestRun_Segment(t *testing.T) {
	code, out, errOut := invoke(t, hatchesJSON, "segment", "-")
	if code != 0 {
		t.Fatalf("exit code: got %d, stderr %s", code, errOut)
	}

	var res grid.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a result: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("rows: got %d, want 2", len(res.Rows))
	}
	if res.GroupCount() != 4 {
		t.Errorf("groups: got %d, want 4", res.GroupCount())
	}
}

func TestRun_SegmentWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "digitgrid.yaml")
	if err := os.WriteFile(cfgPath, []byte("grouping:\n  strategy: height_normalized\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	hatchesPath := filepath.Join(dir, "hatches.json")
	if err := os.WriteFile(hatchesPath, []byte(hatchesJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := invoke(t, "", "--config", cfgPath, "segment", hatchesPath)
	if code != 0 {
		t.Fatalf("exit code: got %d, stderr %s", code, errOut)
	}
	var res grid.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a result: %v", err)
	}
	if res.Strategy != "height_normalized" {
		t.Errorf("strategy: got %s, want height_normalized", res.Strategy)
	}
}

func TestRun_SegmentErrors(t *testing.T) {
	if code, _, _ := invoke(t, "not json", "segment", "-"); code != 1 {
		t.Errorf("bad JSON: exit code %d, want 1", code)
	}
	if code, _, _ := invoke(t, "[]", "segment", "-"); code != 1 {
		t.Errorf("no hatches: exit code %d, want 1", code)
	}
	if code, _, _ := invoke(t, "", "--config", "/nonexistent.yaml"); code != 1 {
		t.Errorf("missing config: exit code %d, want 1", code)
	}
}

func TestRun_Serve(t *testing.T) {
	code, out, errOut := invoke(t, `{"jsonrpc":"2.0","id":7,"method":"ping"}`+"\n")
	if code != 0 {
		t.Fatalf("exit code: got %d, stderr %s", code, errOut)
	}
	if !strings.Contains(out, `"id":7`) {
		t.Errorf("ping response: got %q", out)
	}
}
