package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/services/demucs"
	"dubber/internal/testsupport"
)

func TestResumeStatusFreshJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewStagedJob(t, cfg, store, "/videos/in.mp4")

	status, err := ResumeStatus(context.Background(), cfg, store, job)
	if err != nil {
		t.Fatal(err)
	}
	if status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", status)
	}
}

func TestResumeStatusAfterSeparation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewStagedJob(t, cfg, store, "/videos/in.mp4")

	stems := demucs.NewService(cfg.Tools.Demucs, cfg.Separation.Model, cfg.Workflow.Device, cfg.Separation.LowMem).
		StemsFor(job.FullAudioPath(), job.StemsDir())
	for _, path := range []string{stems.Vocals, stems.Instrumental} {
		testsupport.WriteFile(t, path, 8)
	}

	status, err := ResumeStatus(context.Background(), cfg, store, job)
	if err != nil {
		t.Fatal(err)
	}
	if status != queue.StatusSeparated {
		t.Fatalf("status = %s, want separated", status)
	}
}

func TestResumeStatusFromSegments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewStagedJob(t, cfg, store, "/videos/in.mp4")
	ctx := context.Background()

	seed := func(segs []segment.Segment) queue.Status {
		t.Helper()
		if err := store.ReplaceSegments(ctx, job.ID, segs); err != nil {
			t.Fatal(err)
		}
		status, err := ResumeStatus(ctx, cfg, store, job)
		if err != nil {
			t.Fatal(err)
		}
		return status
	}

	transcribed := []segment.Segment{{ID: 0, Start: 0, End: 1, SourceText: "hi"}}
	if got := seed(transcribed); got != queue.StatusTranscribed {
		t.Fatalf("status = %s, want transcribed", got)
	}

	translated := []segment.Segment{{ID: 0, Start: 0, End: 1, SourceText: "hi", TranslatedText: "hola"}}
	if got := seed(translated); got != queue.StatusTranslated {
		t.Fatalf("status = %s, want translated", got)
	}

	synthesized := []segment.Segment{{ID: 0, Start: 0, End: 1, SourceText: "hi", TranslatedText: "hola", AudioPath: "/tmp/seg_0.wav"}}
	if got := seed(synthesized); got != queue.StatusSynthesized {
		t.Fatalf("status = %s, want synthesized", got)
	}

	if err := os.MkdirAll(filepath.Dir(job.DubbedAudioPath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(job.DubbedAudioPath(), []byte("mix"), 0o644); err != nil {
		t.Fatal(err)
	}
	status, err := ResumeStatus(ctx, cfg, store, job)
	if err != nil {
		t.Fatal(err)
	}
	if status != queue.StatusMixed {
		t.Fatalf("status = %s, want mixed", status)
	}
}
