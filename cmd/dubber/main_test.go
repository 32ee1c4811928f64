package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/config"
	"dubber/internal/queue"
	"dubber/internal/testsupport"
)

func setupCLIConfig(t *testing.T) (string, *config.Config) {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", home)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(home, ".config", "dubber", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatal(err)
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
log_dir = %q
`, cfg.Paths.WorkDir, cfg.Paths.OutputDir, cfg.Paths.LogDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, cfg
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}

func TestVersionCommand(t *testing.T) {
	configPath, _ := setupCLIConfig(t)
	out, err := runCLI(t, configPath, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "dubber")
}

func TestConfigInitWritesSample(t *testing.T) {
	configPath, _ := setupCLIConfig(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when target exists without --overwrite")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	configPath, cfg := setupCLIConfig(t)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, cfg.Paths.WorkDir)
	requireContains(t, out, "work_dir")
}

func TestQueueListEmpty(t *testing.T) {
	configPath, _ := setupCLIConfig(t)

	out, err := runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueListAndHealth(t *testing.T) {
	configPath, cfg := setupCLIConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "/videos/movie.mp4")
	store.Close()

	out, err := runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, string(queue.StatusPending))
	requireContains(t, out, job.Title)
	requireContains(t, out, "Spanish")

	out, err = runCLI(t, configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Pending:    1")
}

func TestQueueClearRemovesJobs(t *testing.T) {
	configPath, cfg := setupCLIConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, "/videos/movie.mp4")
	store.Close()

	out, err := runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 job(s)")
}

func TestRunRejectsUnsupportedTarget(t *testing.T) {
	configPath, _ := setupCLIConfig(t)

	if _, err := runCLI(t, configPath, "run", "/videos/movie.mp4", "--target-lang", "sw"); err == nil {
		t.Fatal("expected unsupported target language to be rejected")
	}
}

func TestRunRejectsMissingSource(t *testing.T) {
	configPath, _ := setupCLIConfig(t)

	_, err := runCLI(t, configPath, "run", "/videos/does-not-exist.mp4", "--target-lang", "es")
	if err == nil {
		t.Fatal("expected missing source to be rejected")
	}
	requireContains(t, err.Error(), "not found")
}

func TestResumeUnknownJob(t *testing.T) {
	configPath, _ := setupCLIConfig(t)

	_, err := runCLI(t, configPath, "resume", "999")
	if err == nil {
		t.Fatal("expected unknown job id to be rejected")
	}
	requireContains(t, err.Error(), "not found")
}
