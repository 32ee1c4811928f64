package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dubber/internal/fileutil"
	"dubber/internal/fingerprint"
	"dubber/internal/language"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/workflow"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Dub a video into the target language",
		Long: `Run the full dubbing pipeline on a video file: extract audio, separate
stems, transcribe and diarize, translate, synthesize speech, mix, and export
the dubbed video. Reruns of the same input resume from the last completed
stage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			target, err := language.Normalize(targetLang)
			if err != nil {
				return fmt.Errorf("target language: %w", err)
			}
			if !language.Supported(target) {
				return fmt.Errorf("target language %q is not supported by the synthesis engine", target)
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			if !fileutil.FileExists(source) {
				return fmt.Errorf("source video not found: %s", source)
			}

			cfg, store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			if reset, err := store.ResetStuckProcessing(ctx); err != nil {
				return fmt.Errorf("recover interrupted jobs: %w", err)
			} else if reset > 0 {
				logger.Info("rolled back interrupted jobs", logging.Int("jobs", int(reset)))
			}

			fp, err := fingerprint.FromFile(source)
			if err != nil {
				return fmt.Errorf("fingerprint source: %w", err)
			}

			job, err := store.FindByFingerprint(ctx, fp, target)
			if err != nil {
				return fmt.Errorf("look up existing job: %w", err)
			}
			out := cmd.OutOrStdout()
			switch {
			case job == nil || job.Status == queue.StatusFailed:
				job, err = store.NewJob(ctx, source, sourceLang, target, fp)
				if err != nil {
					return fmt.Errorf("enqueue job: %w", err)
				}
			case job.Status == queue.StatusCompleted:
				fmt.Fprintf(out, "Already dubbed: %s\n", job.OutputPath)
				return nil
			default:
				fmt.Fprintf(out, "Resuming job %d (%s)\n", job.ID, job.Status)
			}

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			runner := workflow.NewRunner(cfg, store, logger)
			if err := runner.Run(ctx, job); err != nil {
				return err
			}

			fmt.Fprintf(out, "Dubbed video: %s\n", job.OutputPath)
			if job.SubtitlePath != "" {
				fmt.Fprintf(out, "Subtitles: %s\n", job.SubtitlePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source-lang", "s", "", "Source language (ISO 639-1); empty lets transcription auto-detect")
	cmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language (ISO 639-1)")
	_ = cmd.MarkFlagRequired("target-lang")
	return cmd
}
