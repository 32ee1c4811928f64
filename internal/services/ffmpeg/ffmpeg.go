package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultSampleRate matches the extraction format; silence blocks must use
	// the same rate so concatenation stays sample-accurate.
	DefaultSampleRate = 44100
	// DefaultChannelLayout matches the extraction format.
	DefaultChannelLayout = "stereo"

	// Fixed ducking policy. These are deliberately not user-tunable.
	duckThreshold = "0.05"
	duckRatio     = "4"
	duckAttackMs  = "50"
	duckReleaseMs = "300"

	remuxAudioCodec   = "aac"
	remuxAudioBitrate = "192k"
)

// Runner executes an external command and returns its combined output.
// Injectable for tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes ffmpeg for the capabilities the pipeline needs.
type Service struct {
	binary string
	run    Runner
}

// NewService constructs the ffmpeg wrapper. An empty binary falls back to
// "ffmpeg" on PATH.
func NewService(binary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Service{binary: binary}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(run Runner) *Service {
	s.run = run
	return s
}

// Binary returns the configured ffmpeg command.
func (s *Service) Binary() string {
	return s.binary
}

func (s *Service) exec(ctx context.Context, args ...string) error {
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		}
	}
	if output, err := run(ctx, s.binary, args...); err != nil {
		return fmt.Errorf("%s: %w: %s", s.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractAudio extracts the audio stream from a video into a PCM WAV at the
// pipeline's working sample rate and channel layout.
func (s *Service) ExtractAudio(ctx context.Context, video, dest string) error {
	return s.exec(ctx, buildExtractArgs(video, dest)...)
}

func buildExtractArgs(video, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(DefaultSampleRate),
		"-ac", "2",
		dest,
	}
}

// Silence writes a silent WAV of the given duration in seconds, matching the
// extraction sample rate and channel layout so it concatenates cleanly with
// synthesized speech.
func (s *Service) Silence(ctx context.Context, duration float64, dest string) error {
	if duration <= 0 {
		return fmt.Errorf("silence: non-positive duration %v", duration)
	}
	return s.exec(ctx, buildSilenceArgs(duration, dest)...)
}

func buildSilenceArgs(duration float64, dest string) []string {
	source := fmt.Sprintf("anullsrc=r=%d:cl=%s", DefaultSampleRate, DefaultChannelLayout)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", source,
		"-t", formatSeconds(duration),
		dest,
	}
}

// Concat joins the listed audio files, in order, into one output using the
// concat demuxer (stream copy, sample-accurate boundaries). A list file is
// written next to the output.
func (s *Service) Concat(ctx context.Context, inputs []string, dest string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat: no inputs")
	}
	listPath := dest + ".list"
	var b strings.Builder
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("concat: resolve %s: %w", input, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("concat: write list: %w", err)
	}
	return s.exec(ctx, buildConcatArgs(listPath, dest)...)
}

func buildConcatArgs(listPath, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		dest,
	}
}

// DuckMix runs the two-stage mix graph: sidechain-compress the instrumental
// using the speech track as the control signal, then additively mix the
// ducked instrumental with the unmodified speech. The first input's duration
// is authoritative.
func (s *Service) DuckMix(ctx context.Context, instrumental, speech, dest string) error {
	return s.exec(ctx, buildDuckMixArgs(instrumental, speech, dest)...)
}

// DuckMixFilter returns the fixed sidechain-plus-amix filter graph.
func DuckMixFilter() string {
	return fmt.Sprintf(
		"[0][1]sidechaincompress=threshold=%s:ratio=%s:attack=%s:release=%s[ducked];[ducked][1]amix=inputs=2:duration=first[out]",
		duckThreshold, duckRatio, duckAttackMs, duckReleaseMs,
	)
}

func buildDuckMixArgs(instrumental, speech, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", instrumental,
		"-i", speech,
		"-filter_complex", DuckMixFilter(),
		"-map", "[out]",
		dest,
	}
}

// Tempo rewrites src to dest with playback tempo scaled by speed, preserving
// pitch. Callers are responsible for keeping speed within atempo's usable
// range.
func (s *Service) Tempo(ctx context.Context, src string, speed float64, dest string) error {
	if speed <= 0 {
		return fmt.Errorf("tempo: non-positive speed %v", speed)
	}
	return s.exec(ctx, buildTempoArgs(src, speed, dest)...)
}

func buildTempoArgs(src string, speed float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-filter:a", "atempo=" + formatSpeed(speed),
		"-vn",
		dest,
	}
}

// Remux replaces the video's audio stream with the mixed track, copying the
// video stream unmodified and truncating to the shorter stream.
func (s *Service) Remux(ctx context.Context, video, audio, dest string) error {
	return s.exec(ctx, buildRemuxArgs(video, audio, dest)...)
}

func buildRemuxArgs(video, audio, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", remuxAudioCodec,
		"-b:a", remuxAudioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		dest,
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func formatSpeed(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func escapeConcatPath(path string) string {
	// The concat demuxer list format wraps paths in single quotes; embedded
	// quotes need the '\'' escape.
	return strings.ReplaceAll(path, "'", `'\''`)
}
