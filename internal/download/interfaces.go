package download

import (
	"context"

	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/worker"
)

// JobService is the surface the transport layer talks to.
type JobService interface {
	// Submit validates the request, creates a job and schedules it
	Submit(urls []string, quality string) (string, error)

	// Status returns the current snapshot of a job
	Status(id string) (model.Job, error)

	// List returns snapshots of all known jobs
	List() []model.Job

	// Archive returns the job snapshot once its archive can be served
	Archive(id string) (model.Job, error)
}

// Expander rewrites the input URL list before fetching (playlist expansion)
type Expander interface {
	Expand(ctx context.Context, urls []string) []string
}

// Submitter schedules runner tasks without blocking
type Submitter interface {
	Submit(task worker.Task) error
}
