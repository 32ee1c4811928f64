package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"dubber/internal/services"
)

func TestConsoleHandlerRendersComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	NewComponentLogger(logger, "mixer").Info("mix complete", String("output", "/tmp/mix.wav"))

	line := buf.String()
	if !strings.Contains(line, " INFO mixer: mix complete") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "output=/tmp/mix.wav") {
		t.Fatalf("expected output attr in %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Warn("segment skipped", String("reason", "no audio handle"))
	if !strings.Contains(buf.String(), `reason="no audio handle"`) {
		t.Fatalf("expected quoted attr in %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("stage started", String(FieldStage, "mixing"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("parse json log line: %v", err)
	}
	if payload["msg"] != "stage started" {
		t.Fatalf("expected msg field, got %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["stage"] != "mixing" {
		t.Fatalf("expected stage attr, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsJobAndStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	ctx := services.WithJobID(context.Background(), 7)
	ctx = services.WithStage(ctx, "translating")
	WithContext(ctx, logger).Info("translated segment")

	line := buf.String()
	if !strings.Contains(line, "job_id=7") || !strings.Contains(line, "stage=translating") {
		t.Fatalf("expected context fields in %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}
