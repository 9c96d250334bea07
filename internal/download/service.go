package download

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/platform"
	"github.com/ytget/yt-batch/internal/registry"
)

var (
	// ErrNoValidURLs is returned when no input URL points at a supported host
	ErrNoValidURLs = errors.New("no valid URLs")

	// ErrNotReady is returned when the archive is requested before completion
	ErrNotReady = errors.New("archive not ready")

	// ErrJobFailed is returned when the archive of a failed job is requested
	ErrJobFailed = errors.New("job failed")

	// ErrArchiveMissing is returned when a completed job's archive is gone
	ErrArchiveMissing = errors.New("archive not found")
)

// Service validates requests, creates jobs and hands them to the pool
type Service struct {
	registry       registry.Registry
	runner         *Runner
	pool           Submitter
	defaultQuality model.Quality
}

// NewService creates a new job service
func NewService(reg registry.Registry, runner *Runner, pool Submitter, defaultQuality model.Quality) *Service {
	if defaultQuality == "" {
		defaultQuality = model.DefaultQuality
	}
	return &Service{
		registry:       reg,
		runner:         runner,
		pool:           pool,
		defaultQuality: defaultQuality,
	}
}

// Submit validates the input and schedules a new job. It returns as soon as
// the job is queued; progress is observed through Status.
func (s *Service) Submit(urls []string, quality string) (string, error) {
	valid := platform.FilterVideoURLs(urls)
	if len(valid) == 0 {
		return "", ErrNoValidURLs
	}
	q, err := model.ParseQuality(quality, s.defaultQuality)
	if err != nil {
		return "", err
	}

	id := s.registry.Create(model.JobSpec{URLs: valid, Quality: q})
	if err := s.pool.Submit(func(ctx context.Context) { s.runner.Run(ctx, id) }); err != nil {
		// Delete publishes job.removed so pushed clients drop the job
		if delErr := s.registry.Delete(id); delErr != nil {
			log.Warn().Err(delErr).Str("job_id", id).Msg("rollback of unscheduled job failed")
		}
		return "", fmt.Errorf("schedule job: %w", err)
	}

	log.Info().
		Str("job_id", id).
		Int("urls", len(valid)).
		Int("rejected", len(urls)-len(valid)).
		Str("quality", string(q)).
		Msg("job submitted")
	return id, nil
}

// Status returns the current snapshot of a job
func (s *Service) Status(id string) (model.Job, error) {
	return s.registry.Get(id)
}

// List returns snapshots of all known jobs
func (s *Service) List() []model.Job {
	return s.registry.List()
}

// Archive returns the job when its archive is ready to be served. For any
// other state the snapshot is returned together with ErrNotReady or
// ErrJobFailed so callers can report the current status.
func (s *Service) Archive(id string) (model.Job, error) {
	job, err := s.registry.Get(id)
	if err != nil {
		return model.Job{}, err
	}

	switch {
	case job.Status == model.JobStatusFailed:
		return job, fmt.Errorf("%w: %s", ErrJobFailed, id)
	case !job.HasArchive():
		return job, fmt.Errorf("%w: status %s", ErrNotReady, job.Status)
	}

	if _, err := os.Stat(job.ArchivePath); err != nil {
		return job, fmt.Errorf("%w: %v", ErrArchiveMissing, err)
	}
	return job, nil
}
