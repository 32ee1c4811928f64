// Package timing rescales synthesized clips so their duration fits the
// segment window they were generated for.
package timing

import (
	"context"
	"fmt"
	"log/slog"

	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
	"dubber/internal/services/ffmpeg"
)

const (
	// MinSpeed and MaxSpeed bound the tempo engine's usable range. Raw ratios
	// outside the range are clamped, not rejected; the residual mismatch is
	// tolerated downstream by the assembler's gap logic.
	MinSpeed = 0.5
	MaxSpeed = 2.0

	// minUsableDuration is the clip length below which stretching is skipped.
	minUsableDuration = 0.1
)

// ComputeSpeed returns the tempo factor for a clip of currentDuration that
// must fit targetDuration, and whether a stretch should be applied at all.
// Clips within 10% of target are left untouched to avoid audible artifacts.
func ComputeSpeed(currentDuration, targetDuration float64) (float64, bool) {
	if currentDuration <= minUsableDuration || targetDuration <= 0 {
		return 1.0, false
	}
	speed := currentDuration / targetDuration
	if speed < MinSpeed {
		speed = MinSpeed
	} else if speed > MaxSpeed {
		speed = MaxSpeed
	}
	if speed > 0.9 && speed < 1.1 {
		return 1.0, false
	}
	return speed, true
}

// Prober measures a media file's duration in seconds.
type Prober func(ctx context.Context, path string) (float64, error)

// Matcher adjusts clip tempo in place via the audio engine.
type Matcher struct {
	engine *ffmpeg.Service
	probe  Prober
	logger *slog.Logger
}

// NewMatcher constructs a duration matcher that probes with ffprobe.
func NewMatcher(engine *ffmpeg.Service, ffprobeBinary string, logger *slog.Logger) *Matcher {
	probe := func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, ffprobeBinary, path)
	}
	return NewMatcherWithProber(engine, probe, logger)
}

// NewMatcherWithProber allows injecting the duration probe (used in tests).
func NewMatcherWithProber(engine *ffmpeg.Service, probe Prober, logger *slog.Logger) *Matcher {
	return &Matcher{
		engine: engine,
		probe:  probe,
		logger: logging.NewComponentLogger(logger, "timing"),
	}
}

// Match stretches or compresses the clip at path so its duration approaches
// targetDuration, replacing the file atomically. A probe failure leaves the
// clip untouched.
func (m *Matcher) Match(ctx context.Context, path string, targetDuration float64) error {
	current, err := m.probe(ctx, path)
	if err != nil {
		m.logger.Warn("duration probe failed; leaving clip unchanged",
			logging.String("clip", path), logging.Error(err))
		return nil
	}

	speed, apply := ComputeSpeed(current, targetDuration)
	if !apply {
		return nil
	}

	m.logger.Info("time-stretching clip",
		logging.String("clip", path),
		logging.Float64("current", current),
		logging.Float64("target", targetDuration),
		logging.Float64("speed", speed))

	tempPath := path + ".tmp.wav"
	if err := m.engine.Tempo(ctx, path, speed, tempPath); err != nil {
		return fmt.Errorf("tempo adjust: %w", err)
	}
	if err := fileutil.MoveFile(tempPath, path); err != nil {
		return fmt.Errorf("swap adjusted clip: %w", err)
	}
	return nil
}
