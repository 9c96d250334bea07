package registry

import (
	"errors"

	"github.com/ytget/yt-batch/internal/model"
)

var (
	// ErrNotFound is returned for an unknown job id
	ErrNotFound = errors.New("job not found")

	// ErrJobFinished is returned when updating a completed or failed job
	ErrJobFinished = errors.New("job already finished")

	// ErrInvalidTransition is returned when an update would break a job invariant
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Registry stores job records shared between runners and the transport layer.
type Registry interface {
	// Create stores a new job in the starting state and returns its id
	Create(spec model.JobSpec) string

	// Update atomically applies fn to the job. fn works on a copy; the copy is
	// committed only if it keeps the job invariants.
	Update(id string, fn func(*model.Job)) error

	// Get returns a snapshot of the job
	Get(id string) (model.Job, error)

	// List returns snapshots of all jobs ordered by creation time
	List() []model.Job

	// Delete forgets the job
	Delete(id string) error
}
