// Package translate wraps an offline machine-translation command. The tool
// receives one source line per input segment on stdin and must print exactly
// one translated line per input line, in order. Batching every segment into a
// single invocation keeps the model load cost to one process spawn.
package translate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCommand is the fallback translation binary.
const DefaultCommand = "argos-translate"

// Runner executes the translation command with the given stdin payload and
// returns its stdout.
type Runner func(ctx context.Context, name string, stdin string, args ...string) ([]byte, error)

// Service shells out to a local translation model.
type Service struct {
	binary string
	model  string
	run    Runner
}

// NewService constructs the translation wrapper. model may be empty, leaving
// model selection to the tool.
func NewService(binary, model string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultCommand
	}
	return &Service{binary: binary, model: model}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.model
}

// Translate converts texts from sourceLang to targetLang and returns one
// result per input, index-aligned. Blank inputs are passed through untouched
// without reaching the tool, so silence and music-only segments never burn
// model time. An empty translation from the tool is preserved as empty.
func (s *Service) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if targetLang == "" {
		return nil, fmt.Errorf("translate: target language required")
	}
	results := make([]string, len(texts))

	// Map non-blank inputs into one stdin batch.
	indices := make([]int, 0, len(texts))
	var payload strings.Builder
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		indices = append(indices, i)
		payload.WriteString(flattenLine(trimmed))
		payload.WriteByte('\n')
	}
	if len(indices) == 0 {
		return results, nil
	}

	args := s.buildArgs(sourceLang, targetLang)
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, stdin string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
			cmd.Stdin = strings.NewReader(stdin)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
			}
			return stdout.Bytes(), nil
		}
	}
	output, err := run(ctx, s.binary, payload.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if len(lines) != len(indices) {
		return nil, fmt.Errorf("translate: expected %d lines, got %d", len(indices), len(lines))
	}
	for pos, idx := range indices {
		results[idx] = strings.TrimSpace(lines[pos])
	}
	return results, nil
}

func (s *Service) buildArgs(sourceLang, targetLang string) []string {
	args := make([]string, 0, 6)
	if sourceLang != "" {
		args = append(args, "--from-lang", sourceLang)
	}
	args = append(args, "--to-lang", targetLang)
	if s.model != "" {
		args = append(args, "--model", s.model)
	}
	return args
}

// flattenLine collapses internal newlines so one segment stays one stdin line.
func flattenLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
