// Package demucs wraps the Demucs source-separation tool.
package demucs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dubber/internal/fileutil"
)

// Stems references the separated audio resources for one input. All paths
// point at existing readable files once Separate succeeds; the set is never
// mutated afterwards.
type Stems struct {
	Original     string
	Vocals       string
	Instrumental string
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes Demucs for two-stem (vocals / accompaniment) separation.
type Service struct {
	binary string
	model  string
	device string
	lowMem bool
	run    Runner
}

// NewService constructs the separation wrapper.
func NewService(binary, model, device string, lowMem bool) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = "demucs"
	}
	if strings.TrimSpace(model) == "" {
		model = "htdemucs"
	}
	return &Service{binary: binary, model: model, device: device, lowMem: lowMem}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// StemsFor returns the paths Demucs would produce for inputAudio under
// outDir without running anything. Callers use it to detect prior output.
func (s *Service) StemsFor(inputAudio, outDir string) Stems {
	trackName := strings.TrimSuffix(filepath.Base(inputAudio), filepath.Ext(inputAudio))
	modelDir := filepath.Join(outDir, s.model, trackName)
	return Stems{
		Original:     inputAudio,
		Vocals:       filepath.Join(modelDir, "vocals.wav"),
		Instrumental: filepath.Join(modelDir, "no_vocals.wav"),
	}
}

// Separate splits inputAudio into vocal and instrumental stems under outDir.
// Demucs writes to {outDir}/{model}/{trackName}/.
func (s *Service) Separate(ctx context.Context, inputAudio, outDir string) (Stems, error) {
	if err := fileutil.EnsureDir(outDir); err != nil {
		return Stems{}, fmt.Errorf("separate: %w", err)
	}

	args := s.buildArgs(inputAudio, outDir)
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		}
	}
	if output, err := run(ctx, s.binary, args...); err != nil {
		return Stems{}, fmt.Errorf("demucs: %w: %s", err, strings.TrimSpace(string(output)))
	}

	stems := s.StemsFor(inputAudio, outDir)
	for _, path := range []string{stems.Vocals, stems.Instrumental} {
		if _, err := os.Stat(path); err != nil {
			return Stems{}, fmt.Errorf("demucs: expected output missing: %s", path)
		}
	}
	return stems, nil
}

func (s *Service) buildArgs(inputAudio, outDir string) []string {
	args := []string{
		"--name", s.model,
		"--out", outDir,
		"--two-stems", "vocals",
	}
	device := strings.TrimSpace(s.device)
	if device == "" {
		device = "cpu"
	}
	args = append(args, "-d", device)
	if s.lowMem {
		args = append(args, "--shifts", "0", "--jobs", "1")
	}
	return append(args, inputAudio)
}
