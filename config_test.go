package rppg

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 频段换算：40-200 BPM -> 0.67-3.33 Hz
	if math.Abs(cfg.MinFreq()-40.0/60.0) > 1e-9 {
		t.Errorf("MinFreq wrong: %v", cfg.MinFreq())
	}
	if math.Abs(cfg.MaxFreq()-200.0/60.0) > 1e-9 {
		t.Errorf("MaxFreq wrong: %v", cfg.MaxFreq())
	}

	if cfg.AnalysisInterval().Milliseconds() != 500 {
		t.Errorf("Default analysis interval should be 500ms, got %v", cfg.AnalysisInterval())
	}
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	// 只覆盖两个字段，其余保持默认
	content := `
spectrum:
  min_bpm: 50
session:
  respiration_ratio: 4.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Spectrum.MinBPM != 50 {
		t.Errorf("Override lost: MinBPM = %v", cfg.Spectrum.MinBPM)
	}
	if cfg.Session.RespirationRatio != 4.0 {
		t.Errorf("Override lost: RespirationRatio = %v", cfg.Session.RespirationRatio)
	}
	if cfg.Buffer.Capacity != 512 {
		t.Errorf("Untouched field should keep default, Capacity = %v", cfg.Buffer.Capacity)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig("/no/such/file.yaml"); err == nil {
		t.Error("Missing file should return an error")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("{{{not yaml"), 0o644)

	if _, err := LoadConfig(path); err == nil {
		t.Error("Malformed yaml should return an error")
	}
}
