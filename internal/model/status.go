package model

// JobStatus represents the lifecycle state of a download job
type JobStatus string

const (
	// JobStatusStarting means the job was created and no fetch has begun yet
	JobStatusStarting JobStatus = "starting"

	// JobStatusRunning means the runner is fetching URLs
	JobStatusRunning JobStatus = "running"

	// JobStatusCompleted means every URL was attempted and the archive is ready
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed means the job hit a fatal internal error
	JobStatusFailed JobStatus = "failed"
)

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsActive returns true if the job has not reached a terminal state
func (s JobStatus) IsActive() bool {
	return s == JobStatusStarting || s == JobStatusRunning
}

// IsTerminal returns true if the job is completed or failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsValid reports whether s is one of the known states
func (s JobStatus) IsValid() bool {
	return s.IsActive() || s.IsTerminal()
}
