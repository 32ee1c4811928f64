// Package pyannote wraps the pyannote.audio speaker-diarization pipeline.
// The tool runs through uvx and emits an RTTM file that is parsed into
// speaker intervals for transcript alignment.
package pyannote

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dubber/internal/diarize"
)

// DefaultPipeline is the pretrained diarization pipeline identifier.
const DefaultPipeline = "pyannote/speaker-diarization-3.1"

// UVXCommand is the default launcher for the bundled pyannote CLI.
const UVXCommand = "uvx"

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes speaker diarization and parses the resulting RTTM output.
type Service struct {
	binary      string
	pipeline    string
	device      string
	maxSpeakers int
	hfToken     string
	run         Runner
}

// NewService constructs the diarization wrapper. binary is the uvx launcher
// path; empty selects the default command name. maxSpeakers caps the number
// of distinct speakers the pipeline may report (0 leaves it unconstrained).
func NewService(binary, device string, maxSpeakers int, hfToken string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = UVXCommand
	}
	return &Service{
		binary:      binary,
		pipeline:    DefaultPipeline,
		device:      device,
		maxSpeakers: maxSpeakers,
		hfToken:     hfToken,
	}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// Diarize runs the pipeline over audioPath and returns the parsed speaker
// intervals. The RTTM file lands in outputDir next to the pipeline logs and
// is kept for inspection after parsing.
func (s *Service) Diarize(ctx context.Context, audioPath, outputDir string) ([]diarize.Interval, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, fmt.Errorf("diarize: audio path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("diarize: ensure output dir: %w", err)
	}

	args := s.buildArgs(audioPath, outputDir)
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
			if s.hfToken != "" {
				cmd.Env = append(os.Environ(), "HF_TOKEN="+s.hfToken)
			}
			return cmd.CombinedOutput()
		}
	}
	if output, err := run(ctx, s.binary, args...); err != nil {
		return nil, fmt.Errorf("pyannote: %w: %s", err, strings.TrimSpace(string(output)))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	rttmPath := filepath.Join(outputDir, baseName+".rttm")
	return ParseRTTMFile(rttmPath)
}

func (s *Service) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		"--from", "pyannote-audio",
		"pyannote-audio-diarize",
		audioPath,
		"--pipeline", s.pipeline,
		"--output-dir", outputDir,
	}
	device := strings.TrimSpace(s.device)
	if device == "" {
		device = "cpu"
	}
	args = append(args, "--device", device)
	if s.maxSpeakers > 0 {
		args = append(args, "--max-speakers", strconv.Itoa(s.maxSpeakers))
	}
	return args
}

// ParseRTTMFile reads an RTTM file from disk and parses its speaker turns.
func ParseRTTMFile(path string) ([]diarize.Interval, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read rttm: %w", err)
	}
	defer file.Close()

	intervals, err := ParseRTTM(file)
	if err != nil {
		return nil, fmt.Errorf("parse rttm %s: %w", filepath.Base(path), err)
	}
	return intervals, nil
}

// ParseRTTM parses RTTM speaker turns. Each SPEAKER line carries the turn
// onset and duration in seconds plus the speaker label in field eight.
// Non-SPEAKER lines and zero-duration turns are skipped.
func ParseRTTM(r io.Reader) ([]diarize.Interval, error) {
	var intervals []diarize.Interval

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 || fields[0] != "SPEAKER" {
			continue
		}
		start, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("turn onset %q: %w", fields[3], err)
		}
		duration, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("turn duration %q: %w", fields[4], err)
		}
		if duration <= 0 {
			continue
		}
		intervals = append(intervals, diarize.Interval{
			Start:   start,
			End:     start + duration,
			Speaker: fields[7],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return intervals, nil
}
