package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/yt-batch/internal/event"
	"github.com/ytget/yt-batch/internal/model"
)

type entry struct {
	mu  sync.Mutex
	job model.Job
}

// Memory is an in-process Registry. The map lock only guards membership;
// each record has its own mutex so unrelated jobs never contend.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[string]*entry
	bus   event.Bus
	newID func() string
	now   func() time.Time
}

// NewMemory creates an empty registry. bus may be nil.
func NewMemory(bus event.Bus) *Memory {
	return &Memory{
		jobs:  make(map[string]*entry),
		bus:   bus,
		newID: generateJobID,
		now:   time.Now,
	}
}

// Create stores a new job and returns its id
func (m *Memory) Create(spec model.JobSpec) string {
	m.mu.Lock()
	id := m.newID()
	for {
		if _, exists := m.jobs[id]; !exists {
			break
		}
		id = m.newID()
	}
	job := model.NewJob(id, spec, m.now())
	m.jobs[id] = &entry{job: job}
	m.mu.Unlock()

	m.publish(event.EventJobCreated, job.Clone())
	return id
}

// Update applies fn to the job under its record lock
func (m *Memory) Update(id string, fn func(*model.Job)) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}

	snapshot, err := m.apply(e, id, fn)
	if err != nil {
		return err
	}
	m.publish(event.ForJob(snapshot), snapshot)
	return nil
}

// apply commits fn's changes and returns the new snapshot. The record lock
// is released even if fn panics.
func (m *Memory) apply(e *entry, id string, fn func(*model.Job)) (model.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.job
	if prev.Status.IsTerminal() {
		return model.Job{}, fmt.Errorf("%w: %s is %s", ErrJobFinished, id, prev.Status)
	}

	next := prev.Clone()
	fn(&next)
	if err := normalize(prev, &next, m.now()); err != nil {
		return model.Job{}, fmt.Errorf("%w: job %s", err, id)
	}
	e.job = next
	return next.Clone(), nil
}

// Get returns a snapshot of the job
func (m *Memory) Get(id string) (model.Job, error) {
	e, err := m.lookup(id)
	if err != nil {
		return model.Job{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone(), nil
}

// List returns snapshots of all jobs, oldest first
func (m *Memory) List() []model.Job {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.jobs))
	for _, e := range m.jobs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	jobs := make([]model.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		jobs = append(jobs, e.job.Clone())
		e.mu.Unlock()
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// Delete removes the job from the registry and announces the removal
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	e, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.jobs, id)
	m.mu.Unlock()

	e.mu.Lock()
	snapshot := e.job.Clone()
	e.mu.Unlock()

	m.publish(event.EventJobRemoved, snapshot)
	return nil
}

func (m *Memory) lookup(id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (m *Memory) publish(t event.EventType, job model.Job) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(context.Background(), event.Event{Type: t, Job: job})
}

// normalize enforces the job invariants on next, given the committed prev.
func normalize(prev model.Job, next *model.Job, now time.Time) error {
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt

	if !next.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next.Status)
	}
	if prev.Status == model.JobStatusRunning && next.Status == model.JobStatusStarting {
		return fmt.Errorf("%w: running -> starting", ErrInvalidTransition)
	}
	if len(next.Errors) < len(prev.Errors) {
		return fmt.Errorf("%w: errors are append-only", ErrInvalidTransition)
	}

	if next.Progress > 100 {
		next.Progress = 100
	}
	if next.Progress < prev.Progress {
		next.Progress = prev.Progress
	}

	switch {
	case next.Status == model.JobStatusCompleted && next.ArchivePath == "":
		return fmt.Errorf("%w: completed without archive", ErrInvalidTransition)
	case next.Status != model.JobStatusCompleted:
		next.ArchivePath = ""
	}

	next.UpdatedAt = now
	if next.Status.IsTerminal() && next.FinishedAt == nil {
		t := now
		next.FinishedAt = &t
	}
	return nil
}

// generateJobID uses UUID v7 so ids sort by creation time
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
