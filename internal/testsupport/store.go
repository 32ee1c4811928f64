package testsupport

import (
	"context"
	"os"
	"testing"

	"dubber/internal/config"
	"dubber/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a dubbing job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, sourcePath string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), sourcePath, "en", "es", "fp-test")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}

// NewStagedJob creates a job and assigns it a work directory under the
// config's work root, mirroring what the separation stage does on Prepare.
func NewStagedJob(t testing.TB, cfg *config.Config, store *queue.Store, sourcePath string) *queue.Job {
	t.Helper()

	job := NewJob(t, store, sourcePath)
	job.WorkDir = job.StagingRoot(cfg.Paths.WorkDir)
	if err := os.MkdirAll(job.WorkDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("persist work dir: %v", err)
	}
	return job
}
