// Package tts wraps the Coqui TTS command line for XTTS v2 voice cloning.
package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Model identifiers understood by the Coqui CLI.
const (
	DefaultCommand = "tts"
	DefaultModel   = "xtts_v2"
	xttsModelID    = "tts_models/multilingual/multi-dataset/xtts_v2"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service synthesizes speech with a cloned voice. Each call produces one WAV
// file; callers own concurrency control and output paths.
type Service struct {
	binary string
	model  string
	device string
	run    Runner
}

// NewService constructs the synthesis wrapper. Short model aliases such as
// "xtts_v2" expand to the full Coqui model identifier.
func NewService(binary, model, device string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultCommand
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Service{binary: binary, model: model, device: device}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// ModelID returns the full Coqui model identifier.
func (s *Service) ModelID() string {
	if s.model == DefaultModel {
		return xttsModelID
	}
	return s.model
}

// Synthesize renders text into outPath using speakerWav as the voice
// reference. language must already be an XTTS language code. The output file
// must exist afterwards or the call fails.
func (s *Service) Synthesize(ctx context.Context, text, language, speakerWav, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("synthesize: text required")
	}
	if speakerWav == "" {
		return fmt.Errorf("synthesize: speaker reference required")
	}
	if _, err := os.Stat(speakerWav); err != nil {
		return fmt.Errorf("synthesize: speaker reference: %w", err)
	}

	args := s.buildArgs(text, language, speakerWav, outPath)
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
		}
	}
	if output, err := run(ctx, s.binary, args...); err != nil {
		return fmt.Errorf("tts: %w: %s", err, strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("tts: no output produced at %s", outPath)
	}
	return nil
}

func (s *Service) buildArgs(text, language, speakerWav, outPath string) []string {
	args := []string{
		"--model_name", s.ModelID(),
		"--text", text,
		"--speaker_wav", speakerWav,
		"--language_idx", language,
		"--out_path", outPath,
	}
	if s.device == "cuda" {
		args = append(args, "--use_cuda", "true")
	}
	return args
}
