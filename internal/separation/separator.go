// Package separation implements the first pipeline stage: extracting the
// source audio track and splitting it into vocal and instrumental stems.
package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/demucs"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/stage"
)

// Separator extracts source audio and runs Demucs two-stem separation.
type Separator struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	engine  *ffmpeg.Service
	demucs  *demucs.Service
	probeFn func(ctx context.Context, path string) (ffprobe.Result, error)
}

// NewSeparator constructs the separation stage handler from configuration.
func NewSeparator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Separator {
	engine := ffmpeg.NewService(cfg.Tools.FFmpeg)
	dem := demucs.NewService(cfg.Tools.Demucs, cfg.Separation.Model, cfg.Workflow.Device, cfg.Separation.LowMem)
	return NewSeparatorWithServices(cfg, store, logger, engine, dem)
}

// NewSeparatorWithServices allows injecting collaborators (used in tests).
func NewSeparatorWithServices(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine *ffmpeg.Service, dem *demucs.Service) *Separator {
	s := &Separator{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "separation"),
		engine: engine,
		demucs: dem,
	}
	s.probeFn = func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, cfg.Tools.FFprobe, path)
	}
	return s
}

// WithProbe overrides media probing (used in tests).
func (s *Separator) WithProbe(probe func(ctx context.Context, path string) (ffprobe.Result, error)) *Separator {
	s.probeFn = probe
	return s
}

func (s *Separator) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	if _, err := os.Stat(job.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "separating", "validate source",
			fmt.Sprintf("Source video not readable: %s", job.SourcePath), err)
	}

	probe, err := s.probeFn(ctx, job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "separating", "probe source",
			"ffprobe could not inspect the source video", err)
	}
	if probe.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrValidation, "separating", "probe source",
			"Source video has no audio stream to dub", nil)
	}

	if job.WorkDir == "" {
		job.WorkDir = job.StagingRoot(s.cfg.Paths.WorkDir)
	}
	if err := fileutil.EnsureDir(job.WorkDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "separating", "prepare work dir",
			"Could not create the job work directory", err)
	}

	job.SetProgress("Separation", "Preparing audio extraction")
	logger.Info("separation prepared",
		logging.String("source", job.SourcePath),
		logging.String("work_dir", job.WorkDir),
		logging.Int("audio_streams", probe.AudioStreamCount()))
	return nil
}

func (s *Separator) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	fullAudio := job.FullAudioPath()
	if _, err := os.Stat(fullAudio); err == nil {
		logger.Info("extracted audio already present, skipping extraction",
			logging.String("audio", fullAudio))
	} else {
		job.SetProgress("Separation", "Extracting audio track")
		if err := fileutil.EnsureDir(filepath.Dir(fullAudio)); err != nil {
			return services.Wrap(services.ErrConfiguration, "separating", "prepare audio dir",
				"Could not create the audio staging directory", err)
		}
		if err := s.engine.ExtractAudio(ctx, job.SourcePath, fullAudio); err != nil {
			return services.Wrap(services.ErrExternalTool, "separating", "extract audio",
				"ffmpeg failed to extract the source audio track", err)
		}
		logger.Info("audio extracted", logging.String("audio", fullAudio))
	}

	stems := s.demucs.StemsFor(fullAudio, job.StemsDir())
	if fileutil.FileExists(stems.Vocals) && fileutil.FileExists(stems.Instrumental) {
		logger.Info("stems already present, skipping separation",
			logging.String("vocals", stems.Vocals))
	} else {
		job.SetProgress("Separation", "Separating vocals from background")
		separated, err := s.demucs.Separate(ctx, fullAudio, job.StemsDir())
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "separating", "run demucs",
				"Demucs separation failed; the original mix cannot be dubbed cleanly", err)
		}
		stems = separated
		logger.Info("separation completed",
			logging.String("vocals", stems.Vocals),
			logging.String("instrumental", stems.Instrumental))
	}

	job.SetProgress("Separation", "Stems ready")
	return nil
}

func (s *Separator) HealthCheck(ctx context.Context) stage.Health {
	const name = "separation"
	for _, command := range []string{s.cfg.Tools.FFmpeg, s.cfg.Tools.FFprobe, s.cfg.Tools.Demucs} {
		if ok, detail := deps.CheckBinary(command); !ok {
			return stage.Unhealthy(name, detail)
		}
	}
	if strings.TrimSpace(s.cfg.Paths.WorkDir) == "" {
		return stage.Unhealthy(name, "work directory not configured")
	}
	return stage.Healthy(name)
}
