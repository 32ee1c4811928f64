package workflow

import (
	"context"
	"testing"

	"dubber/internal/logging"
	"dubber/internal/queue"
	"dubber/internal/services"
	"dubber/internal/stage"
	"dubber/internal/testsupport"
)

type fakeHandler struct {
	name     string
	calls    *[]string
	execErr  error
	prepErr  error
	statusAt queue.Status
}

func (f *fakeHandler) Prepare(ctx context.Context, job *queue.Job) error {
	*f.calls = append(*f.calls, f.name+":prepare")
	return f.prepErr
}

func (f *fakeHandler) Execute(ctx context.Context, job *queue.Job) error {
	*f.calls = append(*f.calls, f.name+":execute")
	f.statusAt = job.Status
	return f.execErr
}

func (f *fakeHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(f.name)
}

func newTestRunner(t *testing.T, handlers ...*fakeHandler) (*Runner, *queue.Store, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	var stages []pipelineStage
	layout := []struct {
		entry, processing, done queue.Status
	}{
		{queue.StatusPending, queue.StatusSeparating, queue.StatusSeparated},
		{queue.StatusSeparated, queue.StatusTranscribing, queue.StatusTranscribed},
		{queue.StatusTranscribed, queue.StatusTranslating, queue.StatusCompleted},
	}
	for i, h := range handlers {
		stages = append(stages, pipelineStage{
			name:       h.name,
			entry:      layout[i].entry,
			processing: layout[i].processing,
			done:       layout[i].done,
			handler:    h,
		})
	}
	runner := newRunner(cfg, store, logging.NewNop(), stages)

	job := testsupport.NewJob(t, store, "/videos/in.mp4")
	return runner, store, job
}

func newHandlers(calls *[]string) (*fakeHandler, *fakeHandler, *fakeHandler) {
	return &fakeHandler{name: "a", calls: calls},
		&fakeHandler{name: "b", calls: calls},
		&fakeHandler{name: "c", calls: calls}
}

func TestRunAdvancesThroughAllStages(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	runner, store, job := newTestRunner(t, a, b, c)

	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"a:prepare", "a:execute", "b:prepare", "b:execute", "c:prepare", "c:execute"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if a.statusAt != queue.StatusSeparating || b.statusAt != queue.StatusTranscribing {
		t.Fatalf("handlers must run under processing statuses: %s, %s", a.statusAt, b.statusAt)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("final status = %s, want completed", stored.Status)
	}
}

func TestRunResumesFromIntermediateStatus(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	runner, store, job := newTestRunner(t, a, b, c)

	job.Status = queue.StatusSeparated
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, call := range calls {
		if call == "a:execute" {
			t.Fatalf("completed stage must not rerun: %v", calls)
		}
	}
	if len(calls) != 4 {
		t.Fatalf("expected stages b and c only, got %v", calls)
	}
}

func TestRunStageFailureMarksJobFailed(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	b.execErr = services.Wrap(services.ErrExternalTool, "transcribing", "transcribe",
		"Speech recognition failed", nil)
	runner, store, job := newTestRunner(t, a, b, c)

	if err := runner.Run(context.Background(), job); err == nil {
		t.Fatal("expected stage failure to surface")
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("expected error message on failed job")
	}
	for _, call := range calls {
		if call == "c:prepare" {
			t.Fatalf("later stages must not run after a failure: %v", calls)
		}
	}
}

func TestRunRejectsNonRunnableStatus(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	runner, _, job := newTestRunner(t, a, b, c)
	job.Status = queue.StatusFailed

	if err := runner.Run(context.Background(), job); err == nil {
		t.Fatal("expected failed job to be rejected")
	}
	if len(calls) != 0 {
		t.Fatalf("no handler may run: %v", calls)
	}
}

func TestRunNextProcessesOldestRunnableJob(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	runner, store, job := newTestRunner(t, a, b, c)

	ran, err := runner.RunNext(context.Background())
	if err != nil {
		t.Fatalf("run next: %v", err)
	}
	if ran == nil || ran.ID != job.ID {
		t.Fatalf("expected job %d to run, got %+v", job.ID, ran)
	}

	again, err := runner.RunNext(context.Background())
	if err != nil {
		t.Fatalf("second run next: %v", err)
	}
	if again != nil {
		t.Fatalf("queue should be drained, got %+v", again)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
}

func TestHealthReportsEveryStage(t *testing.T) {
	var calls []string
	a, b, c := newHandlers(&calls)
	runner, _, _ := newTestRunner(t, a, b, c)

	checks := runner.Health(context.Background())
	if len(checks) != 3 {
		t.Fatalf("expected 3 health checks, got %d", len(checks))
	}
	for _, check := range checks {
		if !check.Ready {
			t.Fatalf("expected healthy check, got %+v", check)
		}
	}
}
