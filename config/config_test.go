package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TargetCellSize != 100 {
		t.Fatalf("TargetCellSize = %v, want 100", cfg.TargetCellSize)
	}
	if cfg.StreamPercentiles["detailed"] != 0.01 {
		t.Fatalf("detailed percentile = %v, want 0.01", cfg.StreamPercentiles["detailed"])
	}
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("missing config file should not be an error, got %v", err)
	}
	want := DefaultConfig()
	if cfg.TargetCellSize != want.TargetCellSize || cfg.MeshVertexCeiling != want.MeshVertexCeiling {
		t.Fatal("missing config file should yield the defaults")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"targetCellSize": 50}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetCellSize != 50 {
		t.Fatalf("TargetCellSize = %v, want 50", cfg.TargetCellSize)
	}
	if cfg.MeshVertexCeiling != DefaultConfig().MeshVertexCeiling {
		t.Fatal("fields absent from the file should keep their default")
	}
}
