// Package stage defines the contract between the workflow runner and the
// pipeline stages that move a dubbing job forward.
package stage

import (
	"context"

	"dubber/internal/queue"
)

// Handler describes the contract the workflow runner needs from each stage.
// Prepare validates inputs and fills in job fields before the status flips to
// the stage's processing value; Execute performs the work and leaves the job
// ready for the configured completion status.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
