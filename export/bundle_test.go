package export

import (
	"os"
	"path/filepath"
	"testing"

	"hydroterrain/config"
	"hydroterrain/engine"
)

func coneEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TargetCellSize = 1

	e := engine.New("basin-1", cfg)
	width, height := 5, 5
	data := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-2, y-2
			data[y*width+x] = float32(10 + dx*dx + dy*dy)
		}
	}
	if err := e.LoadDEM(width, height, 1, data); err != nil {
		t.Fatal(err)
	}
	if err := e.Condition("fill", 0); err != nil {
		t.Fatal(err)
	}
	if err := e.ComputeFlow(); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestBuildBundleAndWriteJSON(t *testing.T) {
	e := coneEngine(t)
	cfg := config.DefaultConfig()

	bundle, err := BuildBundle(e, cfg, 1700000000)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if bundle.ID != "basin-1" {
		t.Fatalf("ID = %q, want basin-1", bundle.ID)
	}
	if bundle.Metadata.Width != 5 || bundle.Metadata.Height != 5 {
		t.Fatalf("metadata dims = %dx%d, want 5x5", bundle.Metadata.Width, bundle.Metadata.Height)
	}
	if len(bundle.Flow.FlowAccumulation) != 25 {
		t.Fatalf("flow accumulation length = %d, want 25", len(bundle.Flow.FlowAccumulation))
	}

	path := filepath.Join(t.TempDir(), "basin-1.json")
	if err := WriteJSON(bundle, path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected bundle file to exist: %v", err)
	}
}

func TestWriteIndex(t *testing.T) {
	index := map[string]IndexEntry{
		"basin-1": {Width: 5, Height: 5, Resolution: 1},
	}
	path := filepath.Join(t.TempDir(), "index.json")
	if err := WriteIndex(index, path); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected index file to exist: %v", err)
	}
}
