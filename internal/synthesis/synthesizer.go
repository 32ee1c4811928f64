// Package synthesis implements the voice-cloning stage: each translated
// segment is rendered with XTTS and time-stretched to fit its original
// window.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/fileutil"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/services/tts"
	"dubber/internal/stage"
	"dubber/internal/timing"
)

// Voice renders text to a WAV file with a reference speaker.
type Voice interface {
	Synthesize(ctx context.Context, text, lang, speakerWav, outPath string) error
}

// Matcher adjusts a rendered file toward a target duration.
type Matcher interface {
	Match(ctx context.Context, path string, targetDuration float64) error
}

// Synthesizer renders dubbed speech for every translated segment. Segment
// failures are recoverable: a segment that cannot be rendered keeps an empty
// AudioPath and the timeline covers its window with silence.
type Synthesizer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	voice    Voice
	matcher  Matcher
	profiles *tts.Profiles
	workers  int
}

// NewSynthesizer constructs the synthesis stage handler from configuration.
func NewSynthesizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Synthesizer {
	voice := tts.NewService(cfg.Tools.TTS, cfg.TTS.Model, cfg.Workflow.Device)
	engine := ffmpeg.NewService(cfg.Tools.FFmpeg)
	matcher := timing.NewMatcher(engine, cfg.Tools.FFprobe, logger)
	return NewSynthesizerWithServices(cfg, store, logger, voice, matcher)
}

// NewSynthesizerWithServices allows injecting collaborators (used in tests).
func NewSynthesizerWithServices(cfg *config.Config, store *queue.Store, logger *slog.Logger, voice Voice, matcher Matcher) *Synthesizer {
	workers := cfg.Workflow.SynthesisWorkers
	if workers < 1 {
		workers = 1
	}
	return &Synthesizer{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "synthesis"),
		voice:   voice,
		matcher: matcher,
		workers: workers,
	}
}

func (s *Synthesizer) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	code, err := language.XTTSCode(job.TargetLang)
	if err != nil {
		return services.Wrap(services.ErrValidation, "synthesizing", "check language",
			fmt.Sprintf("XTTS cannot speak %q", job.TargetLang), err)
	}

	if err := fileutil.EnsureDir(job.SegmentsDir()); err != nil {
		return services.Wrap(services.ErrConfiguration, "synthesizing", "prepare segments dir",
			"Could not create the synthesis output directory", err)
	}

	profiles, err := s.buildProfiles(job)
	if err != nil {
		return err
	}
	s.profiles = profiles

	job.SetProgress("Synthesis", "Preparing voice synthesis")
	logger.Info("synthesis prepared",
		logging.String("language", code),
		logging.Int("workers", s.workers),
		logging.Int("profiles", len(profiles.Speakers())))
	return nil
}

// buildProfiles registers configured speaker references and falls back to a
// generated tone reference so synthesis never runs without a voice sample.
func (s *Synthesizer) buildProfiles(job *queue.Job) (*tts.Profiles, error) {
	defaultWav := s.cfg.TTS.SpeakerWav
	if defaultWav == "" {
		generated, err := tts.EnsureDefaultReference(filepath.Join(job.WorkDir, "refs", "default_speaker.wav"))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "synthesizing", "default reference",
				"Could not create the fallback speaker reference", err)
		}
		defaultWav = generated
	}

	profiles := tts.NewProfiles(defaultWav)
	for speakerID, wavPath := range s.cfg.TTS.SpeakerWavs {
		if err := profiles.Register(speakerID, wavPath); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "synthesizing", "register profile",
				fmt.Sprintf("Speaker reference for %s is not usable", speakerID), err)
		}
	}
	return profiles, nil
}

func (s *Synthesizer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	segments, err := s.store.SegmentsForJob(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "synthesizing", "load segments",
			"Could not load translated segments", err)
	}
	if len(segments) == 0 {
		logger.Warn("no segments to synthesize")
		job.SetProgress("Synthesis", "Nothing to synthesize")
		return nil
	}

	if s.profiles == nil {
		profiles, err := s.buildProfiles(job)
		if err != nil {
			return err
		}
		s.profiles = profiles
	}

	code, err := language.XTTSCode(job.TargetLang)
	if err != nil {
		return services.Wrap(services.ErrValidation, "synthesizing", "check language",
			fmt.Sprintf("XTTS cannot speak %q", job.TargetLang), err)
	}

	job.SetProgress("Synthesis", "Rendering dubbed speech")

	// Bounded worker pool. Workers own disjoint segment indices, so no
	// locking is needed around the slice. Per-segment render errors are
	// transient and leave a silent gap; a fatal error (cancellation) stops
	// the remaining work.
	indices := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatal error
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				mu.Lock()
				stopped := fatal != nil
				mu.Unlock()
				if stopped {
					continue
				}
				if err := s.renderSegment(ctx, job, code, &segments[i]); err != nil {
					if services.IsFatal(err) {
						mu.Lock()
						if fatal == nil {
							fatal = err
						}
						mu.Unlock()
						continue
					}
					logger.Warn("segment synthesis failed, leaving a silent gap",
						logging.Int("segment", segments[i].ID),
						logging.Error(err))
				}
			}
		}()
	}
	for i := range segments {
		indices <- i
	}
	close(indices)
	wg.Wait()
	if fatal != nil {
		return fatal
	}

	rendered := 0
	for _, seg := range segments {
		if seg.AudioPath != "" {
			rendered++
		}
	}
	logger.Info("synthesis completed",
		logging.Int("rendered", rendered),
		logging.Int("segments", len(segments)))

	if err := segment.WriteSnapshot(segments, job.SnapshotPath()); err != nil {
		return services.Wrap(services.ErrTransient, "synthesizing", "write snapshot",
			"Could not persist the synthesized snapshot", err)
	}
	if err := s.store.ReplaceSegments(ctx, job.ID, segments); err != nil {
		return services.Wrap(services.ErrTransient, "synthesizing", "store segments",
			"Could not persist synthesized segments", err)
	}

	job.SetProgress("Synthesis", fmt.Sprintf("Rendered %d of %d segments", rendered, len(segments)))
	return nil
}

// renderSegment synthesizes one segment and stretches it into its window.
// Render failures come back wrapped as transient so the caller can leave a
// silent gap; cancellation is returned as-is.
func (s *Synthesizer) renderSegment(ctx context.Context, job *queue.Job, lang string, seg *segment.Segment) error {
	logger := logging.WithContext(ctx, s.logger)

	if seg.TranslatedText == "" {
		return nil
	}

	outPath := filepath.Join(job.SegmentsDir(), fmt.Sprintf("seg_%d.wav", seg.ID))
	if fileutil.FileExists(outPath) {
		seg.AudioPath = outPath
		return nil
	}

	reference := s.profiles.Reference(seg.SpeakerID)
	if err := s.voice.Synthesize(ctx, seg.TranslatedText, lang, reference, outPath); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "synthesizing", "render segment",
			fmt.Sprintf("Segment %d could not be rendered", seg.ID), err)
	}

	if err := s.matcher.Match(ctx, outPath, seg.Window()); err != nil {
		logger.Warn("duration match failed, keeping unstretched audio",
			logging.Int("segment", seg.ID),
			logging.Error(err))
	}
	seg.AudioPath = outPath
	return nil
}

func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "synthesis"
	for _, command := range []string{s.cfg.Tools.TTS, s.cfg.Tools.FFmpeg, s.cfg.Tools.FFprobe} {
		if ok, detail := deps.CheckBinary(command); !ok {
			return stage.Unhealthy(name, detail)
		}
	}
	return stage.Healthy(name)
}
