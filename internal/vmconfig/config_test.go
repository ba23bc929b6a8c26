package vmconfig

import (
	"os"
	"testing"
)

func TestDefaultMatchesSpecThresholds(t *testing.T) {
	cfg := Default()
	if cfg.InitialNextGC != 1<<20 {
		t.Fatalf("expected 1 MiB initial next_gc, got %d", cfg.InitialNextGC)
	}
	if cfg.HeapGrowFactor != 2 {
		t.Fatalf("expected heap grow factor 2, got %d", cfg.HeapGrowFactor)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/lumen.toml")
	if err != nil {
		t.Fatalf("expected a missing config file to not be an error, got %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected missing-file config to equal Default(), got %+v", cfg)
	}
}

func TestLoadOverlaysTOMLValues(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/lumen.toml"
	content := "stress_gc = true\nmax_frames = 32\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if !cfg.StressGC {
		t.Fatalf("expected stress_gc to be overlaid to true")
	}
	if cfg.MaxFrames != 32 {
		t.Fatalf("expected max_frames to be overlaid to 32, got %d", cfg.MaxFrames)
	}
	if cfg.InitialNextGC != Default().InitialNextGC {
		t.Fatalf("expected unset fields to retain their default values")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
