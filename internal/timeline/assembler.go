// Package timeline builds one continuous speech track of a known total
// duration from sparse, non-overlapping timed clips, inserting silence for
// the gaps between them.
package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"dubber/internal/logging"
	"dubber/internal/segment"
	"dubber/internal/services/ffmpeg"
)

// GapTolerance is the threshold below which a gap produces no silence block.
const GapTolerance = 0.01

// EntryKind distinguishes plan entries.
type EntryKind int

const (
	EntrySilence EntryKind = iota
	EntrySpeech
)

// Entry is one block in the assembly plan: either a silence of a given
// duration or a reference to a synthesized clip.
type Entry struct {
	Kind     EntryKind
	Path     string
	Duration float64
}

// Plan computes the ordered block sequence for the given segments. Segments
// must be sorted ascending by start. Segments without audio are skipped; the
// gap logic already accounts for their span, so they contribute silence
// without special padding. The cursor advances to each placed segment's end
// timestamp; duration matching is assumed to have made the clip fit its
// window, and any residual mismatch is tolerated.
func Plan(segments []segment.Segment, totalDuration float64) []Entry {
	var entries []Entry
	cursor := 0.0

	for _, seg := range segments {
		if !seg.HasAudio() {
			continue
		}
		if gap := seg.Start - cursor; gap > GapTolerance {
			entries = append(entries, Entry{Kind: EntrySilence, Duration: gap})
		}
		entries = append(entries, Entry{Kind: EntrySpeech, Path: seg.AudioPath, Duration: seg.Window()})
		cursor = seg.End
	}

	if remaining := totalDuration - cursor; remaining > GapTolerance {
		entries = append(entries, Entry{Kind: EntrySilence, Duration: remaining})
	}

	return entries
}

// PlannedDuration sums the plan's block durations.
func PlannedDuration(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.Duration
	}
	return total
}

// Assembler materializes plans into a single audio file via the audio engine.
// Silence generation is cached by duration for the lifetime of the assembler,
// which is scoped to one run.
type Assembler struct {
	engine *ffmpeg.Service
	logger *slog.Logger

	mu       sync.Mutex
	silences map[int64]string
}

// NewAssembler constructs an assembler bound to the given audio engine.
func NewAssembler(engine *ffmpeg.Service, logger *slog.Logger) *Assembler {
	return &Assembler{
		engine:   engine,
		logger:   logging.NewComponentLogger(logger, "timeline"),
		silences: make(map[int64]string),
	}
}

// Assemble builds the continuous speech track at dest, generating silence
// files in workDir as needed. Segments are sorted by start before planning.
// When totalDuration is not positive (duration probe failed upstream) the
// last segment's end is used as an approximation.
func (a *Assembler) Assemble(ctx context.Context, segments []segment.Segment, totalDuration float64, workDir, dest string) error {
	ordered := make([]segment.Segment, len(segments))
	copy(ordered, segments)
	segment.SortByStart(ordered)

	if totalDuration <= 0 {
		if len(ordered) > 0 {
			totalDuration = ordered[len(ordered)-1].End
		}
		a.logger.Warn("total duration unavailable; approximating from last segment",
			logging.Float64("approx_duration", totalDuration))
	}

	for _, seg := range ordered {
		if !seg.HasAudio() {
			a.logger.Warn("segment has no synthesized audio; leaving silence",
				logging.Int(logging.FieldSegmentID, seg.ID))
		}
	}

	entries := Plan(ordered, totalDuration)
	if len(entries) == 0 {
		return fmt.Errorf("assemble: empty plan (no segments and no duration)")
	}

	inputs := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch entry.Kind {
		case EntrySpeech:
			inputs = append(inputs, entry.Path)
		case EntrySilence:
			path, err := a.silencePath(ctx, workDir, entry.Duration)
			if err != nil {
				return err
			}
			inputs = append(inputs, path)
		}
	}

	if err := a.engine.Concat(ctx, inputs, dest); err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	a.logger.Info("speech track assembled",
		logging.Int("blocks", len(entries)),
		logging.Float64("duration", PlannedDuration(entries)),
		logging.String("output", dest))
	return nil
}

// silencePath returns a silence file of the given duration, generating it at
// most once per distinct duration within this run.
func (a *Assembler) silencePath(ctx context.Context, workDir string, duration float64) (string, error) {
	key := silenceKey(duration)

	a.mu.Lock()
	if path, ok := a.silences[key]; ok {
		a.mu.Unlock()
		return path, nil
	}
	a.mu.Unlock()

	path := filepath.Join(workDir, fmt.Sprintf("silence_%dms.wav", key))
	if err := a.engine.Silence(ctx, duration, path); err != nil {
		return "", fmt.Errorf("generate silence (%0.3fs): %w", duration, err)
	}

	a.mu.Lock()
	a.silences[key] = path
	a.mu.Unlock()
	return path, nil
}

func silenceKey(duration float64) int64 {
	return int64(math.Round(duration * 1000))
}
