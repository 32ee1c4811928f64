// Package transcription implements the speech-to-text stage: WhisperX
// transcription over the extracted audio, pyannote diarization over the vocal
// stem, and speaker alignment between the two.
package transcription

import (
	"context"
	"log/slog"
	"os"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/diarize"
	"dubber/internal/fileutil"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services"
	"dubber/internal/services/demucs"
	"dubber/internal/services/pyannote"
	"dubber/internal/services/whisperx"
	"dubber/internal/stage"
)

// Recognizer produces transcript segments from an audio file.
type Recognizer interface {
	Transcribe(ctx context.Context, source, outputDir, lang string) ([]segment.Segment, error)
}

// Diarizer produces speaker intervals from an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath, outputDir string) ([]diarize.Interval, error)
}

// Transcriber turns separated audio into speaker-attributed segments.
type Transcriber struct {
	cfg        *config.Config
	store      *queue.Store
	logger     *slog.Logger
	recognizer Recognizer
	diarizer   Diarizer
	stems      *demucs.Service
}

// NewTranscriber constructs the transcription stage handler from configuration.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	recognizer := whisperx.NewService(whisperx.Config{
		Model:           cfg.Transcription.Model,
		Device:          cfg.Workflow.Device,
		LowMem:          cfg.Separation.LowMem,
		VADMinSilenceMs: cfg.Transcription.VADMinSilenceMs,
	}, cfg.Tools.UVX)
	diarizer := pyannote.NewService(cfg.Tools.UVX, cfg.Workflow.Device, cfg.Transcription.MaxSpeakers, cfg.Transcription.HuggingFaceToken)
	stems := demucs.NewService(cfg.Tools.Demucs, cfg.Separation.Model, cfg.Workflow.Device, cfg.Separation.LowMem)
	return NewTranscriberWithServices(cfg, store, logger, recognizer, diarizer, stems)
}

// NewTranscriberWithServices allows injecting collaborators (used in tests).
func NewTranscriberWithServices(cfg *config.Config, store *queue.Store, logger *slog.Logger, recognizer Recognizer, diarizer Diarizer, stems *demucs.Service) *Transcriber {
	return &Transcriber{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "transcription"),
		recognizer: recognizer,
		diarizer:   diarizer,
		stems:      stems,
	}
}

func (t *Transcriber) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	if _, err := os.Stat(job.FullAudioPath()); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "validate inputs",
			"Extracted audio missing; run separation before transcription", err)
	}
	if job.SourceLang != "" {
		normalized, err := language.Normalize(job.SourceLang)
		if err != nil {
			return services.Wrap(services.ErrValidation, "transcribing", "normalize language",
				"Source language code not recognized", err)
		}
		job.SourceLang = normalized
	}

	job.SetProgress("Transcription", "Preparing speech recognition")
	logger.Info("transcription prepared",
		logging.String("language", job.SourceLang),
		logging.String("model", t.cfg.Transcription.Model))
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	job.SetProgress("Transcription", "Recognizing speech")
	segments, err := t.recognizer.Transcribe(ctx, job.FullAudioPath(), job.TranscriptDir(), job.SourceLang)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "run whisperx",
			"Speech recognition failed", err)
	}
	logger.Info("transcript ready", logging.Int("segments", len(segments)))

	if len(segments) == 0 {
		return services.Wrap(services.ErrValidation, "transcribing", "run whisperx",
			"No speech recognized in source audio; nothing to dub", nil)
	}
	t.assignSpeakers(ctx, job, segments)

	if err := segment.WriteSnapshot(segments, job.SnapshotPath()); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "write snapshot",
			"Could not persist the transcript snapshot", err)
	}
	if err := t.store.ReplaceSegments(ctx, job.ID, segments); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "store segments",
			"Could not persist transcript segments", err)
	}

	job.SetProgress("Transcription", "Transcript ready")
	return nil
}

// assignSpeakers labels segments with diarization output. Diarization failure
// is recoverable: every segment falls back to the default speaker identity so
// the dub proceeds with one voice.
func (t *Transcriber) assignSpeakers(ctx context.Context, job *queue.Job, segments []segment.Segment) {
	logger := logging.WithContext(ctx, t.logger)

	diarizeInput := job.FullAudioPath()
	if stems := t.stems.StemsFor(job.FullAudioPath(), job.StemsDir()); fileutil.FileExists(stems.Vocals) {
		// The isolated vocal stem gives cleaner speaker turns than the mix.
		diarizeInput = stems.Vocals
	}

	job.SetProgress("Transcription", "Identifying speakers")
	intervals, err := t.diarizer.Diarize(ctx, diarizeInput, job.TranscriptDir())
	if err != nil {
		logger.Warn("diarization failed, assigning default speaker to all segments",
			logging.Error(err))
		diarize.AssignDefault(segments)
		return
	}
	diarize.AssignSpeakers(segments, intervals)

	speakers := segment.Speakers(segments)
	logger.Info("speakers assigned",
		logging.Int("intervals", len(intervals)),
		logging.Int("speakers", len(speakers)))
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcription"
	if ok, detail := deps.CheckBinary(t.cfg.Tools.UVX); !ok {
		return stage.Unhealthy(name, detail)
	}
	return stage.Healthy(name)
}
