package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing file, got exists for %s", path)
	}
	if cfg.Transcription.Model != "large-v3" {
		t.Fatalf("expected default model, got %q", cfg.Transcription.Model)
	}
	if cfg.Workflow.SynthesisWorkers != 1 {
		t.Fatalf("expected default worker count, got %d", cfg.Workflow.SynthesisWorkers)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`work_dir = "` + filepath.Join(dir, "work") + `"`,
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		"[workflow]",
		"synthesis_workers = 4",
		`device = "mps"`,
		"[transcription]",
		`model = "small"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Workflow.SynthesisWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Workflow.SynthesisWorkers)
	}
	if cfg.Workflow.Device != "mps" {
		t.Fatalf("expected mps device, got %q", cfg.Workflow.Device)
	}
	if cfg.Transcription.Model != "small" {
		t.Fatalf("expected small model, got %q", cfg.Transcription.Model)
	}
}

func TestValidateRejectsUnknownDevice(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Workflow.Device = "tpu"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown device")
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Workflow.SynthesisWorkers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero workers")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/dubber")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "dubber") {
		t.Fatalf("expected %s, got %s", filepath.Join(home, "dubber"), got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
