package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dubber/internal/segment"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service runs WhisperX through uvx and parses its JSON transcript output.
type Service struct {
	cfg    Config
	binary string
	run    Runner
}

// NewService creates a WhisperX service with the given configuration.
// binary is the uvx launcher path; empty selects the default command name.
func NewService(cfg Config, binary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = UVXCommand
	}
	return &Service{cfg: cfg, binary: binary}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// Model returns the effective model name after low-memory adjustment.
func (s *Service) Model() string {
	model := s.cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if s.cfg.LowMem && model == DefaultModel {
		return LowMemModel
	}
	return model
}

// Transcribe runs WhisperX over source and returns the parsed segments in
// start order. language may be empty for auto-detection. WhisperX writes its
// transcript files into outputDir; the JSON transcript path is derived from
// the source basename.
func (s *Service) Transcribe(ctx context.Context, source, outputDir, language string) ([]segment.Segment, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir, language)
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
			// Torch 2.6 changed torch.load default to weights_only=true, which
			// breaks WhisperX checkpoint loading. Force the legacy behavior.
			if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
				cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
			}
			return cmd.CombinedOutput()
		}
	}
	if output, err := run(ctx, s.binary, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w: %s", err, strings.TrimSpace(string(output)))
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	return LoadSegments(jsonPath)
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 24)

	if s.cfg.Device == CUDADevice {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	vadSilence := s.cfg.VADMinSilenceMs
	if vadSilence <= 0 {
		vadSilence = DefaultVADSilenceMs
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--beam_size", BeamSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", "silero",
		"--chunk_size", "15",
		"--vad_min_silence_ms", strconv.Itoa(vadSilence),
	)

	if language != "" {
		args = append(args, "--language", language)
	}

	// CTranslate2 has no MPS backend, so anything that is not CUDA runs on CPU.
	if s.cfg.Device == CUDADevice {
		args = append(args, "--device", CUDADevice)
	} else {
		computeType := CPUComputeType
		if s.cfg.LowMem {
			computeType = LowMemComputeType
		}
		args = append(args, "--device", CPUDevice, "--compute_type", computeType)
	}

	return args
}

// rawSegment mirrors one entry of WhisperX's JSON transcript.
type rawSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type transcriptPayload struct {
	Segments []rawSegment `json:"segments"`
}

// LoadSegments parses a WhisperX JSON transcript into pipeline segments.
// Entries with empty text or a non-positive time window are dropped; the
// surviving segments are renumbered from zero in start order.
func LoadSegments(jsonPath string) ([]segment.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var payload transcriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", filepath.Base(jsonPath), err)
	}

	segments := make([]segment.Segment, 0, len(payload.Segments))
	for _, raw := range payload.Segments {
		text := strings.TrimSpace(raw.Text)
		if text == "" {
			continue
		}
		seg, err := segment.New(len(segments), raw.Start, raw.End, text)
		if err != nil {
			continue
		}
		segments = append(segments, seg)
	}
	segment.SortByStart(segments)
	for i := range segments {
		segments[i].ID = i
	}
	return segments, nil
}
