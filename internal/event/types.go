package event

import (
	"time"

	"github.com/ytget/yt-batch/internal/model"
)

type EventType string

const (
	EventJobCreated   EventType = "job.created"
	EventJobUpdated   EventType = "job.updated"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
	EventJobRemoved   EventType = "job.removed"
)

// JobEventTypes lists every job lifecycle event, for subscribers that want all of them.
var JobEventTypes = []EventType{EventJobCreated, EventJobUpdated, EventJobCompleted, EventJobFailed, EventJobRemoved}

type Event struct {
	Type      EventType
	Timestamp time.Time
	Job       model.Job
}

// ForJob picks the event type matching the job's state.
func ForJob(job model.Job) EventType {
	switch job.Status {
	case model.JobStatusCompleted:
		return EventJobCompleted
	case model.JobStatusFailed:
		return EventJobFailed
	default:
		return EventJobUpdated
	}
}
