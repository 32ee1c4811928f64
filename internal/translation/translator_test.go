package translation

import (
	"context"
	"errors"
	"testing"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/segment"
	"dubber/internal/testsupport"
)

type fakeEngine struct {
	results []string
	err     error
	gotSrc  string
	gotTgt  string
}

func (f *fakeEngine) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	f.gotSrc, f.gotTgt = sourceLang, targetLang
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "[es] " + text
	}
	return out, nil
}

func setupJob(t *testing.T) (*config.Config, *queue.Store, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewStagedJob(t, cfg, store, "/videos/in.mp4")
	return cfg, store, job
}

func seedSegments(t *testing.T, store *queue.Store, jobID int64) {
	t.Helper()
	segments := []segment.Segment{
		{ID: 0, Start: 1, End: 2, SourceText: "Hello", SpeakerID: "SPEAKER_00"},
		{ID: 1, Start: 3, End: 4, SourceText: "World", SpeakerID: "SPEAKER_01"},
	}
	if err := store.ReplaceSegments(context.Background(), jobID, segments); err != nil {
		t.Fatal(err)
	}
}

func TestExecuteTranslatesSegments(t *testing.T) {
	cfg, store, job := setupJob(t)
	seedSegments(t, store, job.ID)
	engine := &fakeEngine{}

	tr := NewTranslatorWithEngine(cfg, store, logging.NewNop(), engine)
	if err := tr.Prepare(context.Background(), job); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if engine.gotSrc != "en" || engine.gotTgt != "es" {
		t.Fatalf("unexpected languages passed: %q %q", engine.gotSrc, engine.gotTgt)
	}

	stored, err := store.SegmentsForJob(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].TranslatedText != "[es] Hello" || stored[1].TranslatedText != "[es] World" {
		t.Fatalf("unexpected translations: %+v", stored)
	}

	snapshot, err := segment.ReadSnapshot(job.SnapshotPath())
	if err != nil {
		t.Fatal(err)
	}
	if snapshot[1].TranslatedText != "[es] World" {
		t.Fatalf("snapshot not updated: %+v", snapshot)
	}
}

func TestExecuteToleratesEmptyTranslations(t *testing.T) {
	cfg, store, job := setupJob(t)
	seedSegments(t, store, job.ID)
	engine := &fakeEngine{results: []string{"Hola", ""}}

	tr := NewTranslatorWithEngine(cfg, store, logging.NewNop(), engine)
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	stored, err := store.SegmentsForJob(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored[1].TranslatedText != "" {
		t.Fatalf("empty translation must be preserved: %+v", stored[1])
	}
}

func TestExecuteEngineFailureIsFatal(t *testing.T) {
	cfg, store, job := setupJob(t)
	seedSegments(t, store, job.ID)
	engine := &fakeEngine{err: errors.New("model missing")}

	tr := NewTranslatorWithEngine(cfg, store, logging.NewNop(), engine)
	if err := tr.Execute(context.Background(), job); err == nil {
		t.Fatal("expected engine failure to propagate")
	}
}

func TestExecuteNoSegments(t *testing.T) {
	cfg, store, job := setupJob(t)
	engine := &fakeEngine{}

	tr := NewTranslatorWithEngine(cfg, store, logging.NewNop(), engine)
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute with no segments: %v", err)
	}
}

func TestPrepareRejectsUnknownTarget(t *testing.T) {
	cfg, store, job := setupJob(t)
	job.TargetLang = "not-a-language"

	tr := NewTranslatorWithEngine(cfg, store, logging.NewNop(), &fakeEngine{})
	if err := tr.Prepare(context.Background(), job); err == nil {
		t.Fatal("expected error for unknown target language")
	}
}
