// Package mix implements the mixing stage: assembling the synthesized
// segments into a continuous speech track and ducking the instrumental
// bed underneath it.
package mix

import (
	"context"
	"fmt"
	"log/slog"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services"
	"dubber/internal/services/demucs"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/stage"
	"dubber/internal/timeline"
)

// Assembler builds a continuous speech track from synthesized segments.
type Assembler interface {
	Assemble(ctx context.Context, segments []segment.Segment, totalDuration float64, workDir, dest string) error
}

// Mixer lays the assembled speech track over the instrumental stem.
type Mixer struct {
	cfg        *config.Config
	store      *queue.Store
	logger     *slog.Logger
	engine     *ffmpeg.Service
	assembler  Assembler
	stems      *demucs.Service
	durationFn func(ctx context.Context, path string) (float64, error)
}

// NewMixer constructs the mixing stage handler from configuration.
func NewMixer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Mixer {
	engine := ffmpeg.NewService(cfg.Tools.FFmpeg)
	stems := demucs.NewService(cfg.Tools.Demucs, cfg.Separation.Model, cfg.Workflow.Device, cfg.Separation.LowMem)
	return NewMixerWithServices(cfg, store, logger, engine, timeline.NewAssembler(engine, logger), stems)
}

// NewMixerWithServices allows injecting collaborators (used in tests).
func NewMixerWithServices(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine *ffmpeg.Service, assembler Assembler, stems *demucs.Service) *Mixer {
	m := &Mixer{
		cfg:       cfg,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "mix"),
		engine:    engine,
		assembler: assembler,
		stems:     stems,
	}
	m.durationFn = func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, cfg.Tools.FFprobe, path)
	}
	return m
}

// WithDuration overrides duration probing (used in tests).
func (m *Mixer) WithDuration(fn func(ctx context.Context, path string) (float64, error)) *Mixer {
	m.durationFn = fn
	return m
}

func (m *Mixer) Prepare(ctx context.Context, job *queue.Job) error {
	bed := m.bedPath(job)
	if !fileutil.FileExists(bed) {
		return services.Wrap(services.ErrValidation, "mixing", "locate bed",
			fmt.Sprintf("Background audio not found: %s", bed), nil)
	}
	return nil
}

func (m *Mixer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, m.logger)

	segments, err := m.store.SegmentsForJob(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mixing", "load segments",
			"Could not load segments for mixing", err)
	}

	bed := m.bedPath(job)
	total, err := m.durationFn(ctx, bed)
	if err != nil {
		// The assembler falls back to the last segment end.
		logger.Warn("could not probe bed duration", logging.Error(err))
		total = 0
	}

	job.SetProgress("Mixing", "Assembling speech track")
	speech := job.SpeechTrackPath()
	if err := m.assembler.Assemble(ctx, segments, total, job.WorkDir, speech); err != nil {
		return services.Wrap(services.ErrExternalTool, "mixing", "assemble speech track",
			"Could not assemble the dubbed speech track", err)
	}

	dubbed := job.DubbedAudioPath()
	job.SetProgress("Mixing", "Ducking background under speech")
	if err := m.engine.DuckMix(ctx, bed, speech, dubbed); err != nil {
		return services.Wrap(services.ErrExternalTool, "mixing", "duck mix",
			"Could not mix speech over the background track", err)
	}

	logger.Info("mix completed",
		logging.Int("segments", len(segments)),
		logging.String("output", dubbed))
	job.SetProgress("Mixing", "Dubbed audio ready")
	return nil
}

func (m *Mixer) HealthCheck(ctx context.Context) stage.Health {
	const name = "mix"
	if ok, detail := deps.CheckBinary(m.cfg.Tools.FFmpeg); !ok {
		return stage.Unhealthy(name, detail)
	}
	if ok, detail := deps.CheckBinary(m.cfg.Tools.FFprobe); !ok {
		return stage.Unhealthy(name, detail)
	}
	return stage.Healthy(name)
}

// bedPath picks the background the speech is mixed over. The instrumental
// stem keeps music and effects without the original dialogue; when
// separation was skipped the full track is used instead.
func (m *Mixer) bedPath(job *queue.Job) string {
	stems := m.stems.StemsFor(job.FullAudioPath(), job.StemsDir())
	if fileutil.FileExists(stems.Instrumental) {
		return stems.Instrumental
	}
	return job.FullAudioPath()
}
