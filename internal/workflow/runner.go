// Package workflow drives a job through the dubbing pipeline. Stages run
// sequentially; each persists its artifacts and advances the job status, so
// an interrupted run resumes at the first incomplete stage.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dubber/internal/config"
	"dubber/internal/export"
	"dubber/internal/logging"
	"dubber/internal/mix"
	"dubber/internal/queue"
	"dubber/internal/separation"
	"dubber/internal/services"
	"dubber/internal/stage"
	"dubber/internal/synthesis"
	"dubber/internal/transcription"
	"dubber/internal/translation"
)

// pipelineStage binds a handler to the statuses it moves a job between.
type pipelineStage struct {
	name       string
	entry      queue.Status
	processing queue.Status
	done       queue.Status
	handler    stage.Handler
}

// Runner executes the dubbing pipeline for queued jobs.
type Runner struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	stages []pipelineStage
}

// NewRunner wires the full pipeline from configuration.
func NewRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Runner {
	return newRunner(cfg, store, logger, []pipelineStage{
		{"separation", queue.StatusPending, queue.StatusSeparating, queue.StatusSeparated, separation.NewSeparator(cfg, store, logger)},
		{"transcription", queue.StatusSeparated, queue.StatusTranscribing, queue.StatusTranscribed, transcription.NewTranscriber(cfg, store, logger)},
		{"translation", queue.StatusTranscribed, queue.StatusTranslating, queue.StatusTranslated, translation.NewTranslator(cfg, store, logger)},
		{"synthesis", queue.StatusTranslated, queue.StatusSynthesizing, queue.StatusSynthesized, synthesis.NewSynthesizer(cfg, store, logger)},
		{"mix", queue.StatusSynthesized, queue.StatusMixing, queue.StatusMixed, mix.NewMixer(cfg, store, logger)},
		{"export", queue.StatusMixed, queue.StatusExporting, queue.StatusCompleted, export.NewExporter(cfg, store, logger)},
	})
}

func newRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger, stages []pipelineStage) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow"),
		stages: stages,
	}
}

// Run processes the job until it completes or a stage fails. Jobs picked up
// mid-pipeline (after a crash rollback or an explicit resume) start at the
// stage matching their current status.
func (r *Runner) Run(ctx context.Context, job *queue.Job) error {
	start, err := r.stageIndexFor(job.Status)
	if err != nil {
		return err
	}

	for i := start; i < len(r.stages); i++ {
		if err := r.runStage(ctx, r.stages[i], job); err != nil {
			return err
		}
	}
	return nil
}

// stageIndexFor maps a job status to the next stage to run. Completed and
// failed jobs are rejected; callers reset failed jobs explicitly.
func (r *Runner) stageIndexFor(status queue.Status) (int, error) {
	for i, st := range r.stages {
		if status == st.entry {
			return i, nil
		}
	}
	return 0, fmt.Errorf("job status %q is not runnable", status)
}

func (r *Runner) runStage(ctx context.Context, st pipelineStage, job *queue.Job) error {
	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithJobID(ctx, job.ID), st.name), requestID)
	logger := logging.WithContext(stageCtx, r.logger)

	job.Status = st.processing
	if err := r.store.Update(stageCtx, job); err != nil {
		return fmt.Errorf("transition to %s: %w", st.processing, err)
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source_file", job.SourcePath))

	if err := st.handler.Prepare(stageCtx, job); err != nil {
		return r.failStage(stageCtx, logger, st, job, err)
	}
	if err := r.store.Update(stageCtx, job); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := st.handler.Execute(stageCtx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return err
		}
		return r.failStage(stageCtx, logger, st, job, err)
	}

	job.Status = st.done
	if job.Status == queue.StatusCompleted {
		job.SetProgress("Completed", "Dubbed video ready")
	}
	if err := r.store.Update(stageCtx, job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("status", string(job.Status)))
	return nil
}

func (r *Runner) failStage(ctx context.Context, logger *slog.Logger, st pipelineStage, job *queue.Job, stageErr error) error {
	details := services.Details(stageErr)
	job.SetFailed(details.Message)
	if err := r.store.Update(ctx, job); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Error(stageErr))
	return fmt.Errorf("%s: %w", st.name, stageErr)
}

// RunNext pops the oldest runnable job and processes it. It returns the job
// that ran, or nil when the queue has no runnable work.
func (r *Runner) RunNext(ctx context.Context) (*queue.Job, error) {
	entries := make([]queue.Status, 0, len(r.stages))
	for _, st := range r.stages {
		entries = append(entries, st.entry)
	}
	job, err := r.store.NextForStatuses(ctx, entries...)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	return job, r.Run(ctx, job)
}

// Health aggregates every stage's dependency check.
func (r *Runner) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(r.stages))
	for _, st := range r.stages {
		checks = append(checks, st.handler.HealthCheck(ctx))
	}
	return checks
}
