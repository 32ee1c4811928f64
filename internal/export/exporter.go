// Package export implements the final pipeline stage: remuxing the dubbed
// audio into the source container and optionally writing translated
// subtitles next to it.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/stage"
	"dubber/internal/subtitles"
)

// Exporter produces the deliverables: the dubbed video and the SRT file.
type Exporter struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	engine *ffmpeg.Service
}

// NewExporter constructs the export stage handler from configuration.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Exporter {
	return NewExporterWithServices(cfg, store, logger, ffmpeg.NewService(cfg.Tools.FFmpeg))
}

// NewExporterWithServices allows injecting collaborators (used in tests).
func NewExporterWithServices(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine *ffmpeg.Service) *Exporter {
	return &Exporter{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "export"),
		engine: engine,
	}
}

func (e *Exporter) Prepare(ctx context.Context, job *queue.Job) error {
	if !fileutil.FileExists(job.SourcePath) {
		return services.Wrap(services.ErrValidation, "exporting", "validate source",
			fmt.Sprintf("Source video not readable: %s", job.SourcePath), nil)
	}
	if !fileutil.FileExists(job.DubbedAudioPath()) {
		return services.Wrap(services.ErrValidation, "exporting", "validate audio",
			fmt.Sprintf("Dubbed audio not found: %s", job.DubbedAudioPath()), nil)
	}
	if err := fileutil.EnsureDir(e.cfg.Paths.OutputDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "exporting", "prepare output dir",
			"Could not create the output directory", err)
	}
	return nil
}

func (e *Exporter) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, e.logger)

	base := job.OutputBaseName()
	output := filepath.Join(e.cfg.Paths.OutputDir, base+".mp4")

	job.SetProgress("Export", "Remuxing dubbed audio into video")
	if err := e.engine.Remux(ctx, job.SourcePath, job.DubbedAudioPath(), output); err != nil {
		return services.Wrap(services.ErrExternalTool, "exporting", "remux",
			"Could not remux the dubbed audio into the video", err)
	}
	job.OutputPath = output

	if e.cfg.Subtitles.Enabled {
		subPath := filepath.Join(e.cfg.Paths.OutputDir, base+".srt")
		if err := e.writeSubtitles(ctx, job, subPath); err != nil {
			// Subtitles are a bonus deliverable; the dub already exists.
			logger.Warn("subtitle export failed", logging.Error(err))
		} else {
			job.SubtitlePath = subPath
		}
	}

	logger.Info("export completed",
		logging.String("output", job.OutputPath),
		logging.String("subtitles", job.SubtitlePath))
	job.SetProgress("Export", "Dubbed video ready")
	return nil
}

func (e *Exporter) writeSubtitles(ctx context.Context, job *queue.Job, path string) error {
	segments, err := e.store.SegmentsForJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("no segments to export")
	}
	return subtitles.WriteSRTFile(path, segments)
}

func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "export"
	if ok, detail := deps.CheckBinary(e.cfg.Tools.FFmpeg); !ok {
		return stage.Unhealthy(name, detail)
	}
	return stage.Healthy(name)
}
