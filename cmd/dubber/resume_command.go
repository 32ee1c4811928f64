package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubber/internal/queue"
	"dubber/internal/workflow"
)

func newResumeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <job-id>",
		Short: "Restart a job from its last durable checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			cfg, store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.ResetStuckProcessing(ctx); err != nil {
				return fmt.Errorf("recover interrupted jobs: %w", err)
			}

			job, err := store.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load job: %w", err)
			}
			if job == nil {
				return fmt.Errorf("job %d not found", id)
			}
			if job.Status == queue.StatusCompleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d already completed: %s\n", job.ID, job.OutputPath)
				return nil
			}

			if job.Status == queue.StatusFailed {
				status, err := workflow.ResumeStatus(ctx, cfg, store, job)
				if err != nil {
					return fmt.Errorf("derive resume point: %w", err)
				}
				job.Status = status
				job.ErrorMessage = ""
				job.SetProgress("Resuming", fmt.Sprintf("Restarting from %s", status))
				if err := store.Update(ctx, job); err != nil {
					return fmt.Errorf("reset job: %w", err)
				}
			}

			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			fmt.Fprintf(cmd.OutOrStdout(), "Resuming job %d from %s\n", job.ID, job.Status)
			runner := workflow.NewRunner(cfg, store, logger)
			if err := runner.Run(ctx, job); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dubbed video: %s\n", job.OutputPath)
			return nil
		},
	}
}
