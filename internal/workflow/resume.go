package workflow

import (
	"context"
	"strings"

	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/queue"
	"dubber/internal/services/demucs"
)

// ResumeStatus derives the last durable checkpoint for a job from its
// persisted segments and on-disk artifacts. Failed jobs are restarted from
// here instead of from scratch, so finished stages are not repeated.
func ResumeStatus(ctx context.Context, cfg *config.Config, store *queue.Store, job *queue.Job) (queue.Status, error) {
	segments, err := store.SegmentsForJob(ctx, job.ID)
	if err != nil {
		return "", err
	}

	if fileutil.FileExists(job.DubbedAudioPath()) {
		return queue.StatusMixed, nil
	}

	synthesized := false
	translated := false
	for _, seg := range segments {
		if seg.AudioPath != "" {
			synthesized = true
		}
		if strings.TrimSpace(seg.TranslatedText) != "" {
			translated = true
		}
	}
	switch {
	case synthesized:
		return queue.StatusSynthesized, nil
	case translated:
		return queue.StatusTranslated, nil
	case len(segments) > 0:
		return queue.StatusTranscribed, nil
	}

	stems := demucs.NewService(cfg.Tools.Demucs, cfg.Separation.Model, cfg.Workflow.Device, cfg.Separation.LowMem).
		StemsFor(job.FullAudioPath(), job.StemsDir())
	if fileutil.FileExists(stems.Vocals) && fileutil.FileExists(stems.Instrumental) {
		return queue.StatusSeparated, nil
	}
	return queue.StatusPending, nil
}
