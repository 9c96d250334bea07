package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxMessageFilenameLength caps filenames embedded in progress messages
const MaxMessageFilenameLength = 50

// Message prefixes written to Job.Current
const (
	MessageInitializing = "Initializing"
	MessageDownloading  = "Downloading: "
	MessageFinished     = "Finished: "
	MessagePackaging    = "Packaging archive"
)

// JobSpec is the validated input a job is created from
type JobSpec struct {
	URLs    []string
	Quality Quality
}

// Job represents one user-submitted batch download and its tracked lifecycle
type Job struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"` // 0 to 100
	Current     string     `json:"current"`  // last activity message
	Errors      []string   `json:"errors"`
	URLs        []string   `json:"urls"`
	Quality     Quality    `json:"quality"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
	ArchivePath string     `json:"-"` // set only when completed
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// NewJob builds the initial record for spec
func NewJob(id string, spec JobSpec, now time.Time) Job {
	urls := make([]string, len(spec.URLs))
	copy(urls, spec.URLs)
	return Job{
		ID:        id,
		Status:    JobStatusStarting,
		Progress:  0,
		Current:   MessageInitializing,
		Errors:    []string{},
		URLs:      urls,
		Quality:   spec.Quality,
		Total:     len(urls),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy that shares no mutable state with j
func (j Job) Clone() Job {
	out := j
	out.Errors = append([]string{}, j.Errors...)
	out.URLs = append([]string{}, j.URLs...)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// HasArchive reports whether the job's archive is available
func (j Job) HasArchive() bool {
	return j.Status == JobStatusCompleted && j.ArchivePath != ""
}

// SummaryMessage returns the final message for a completed job
func SummaryMessage(completed, total int) string {
	return fmt.Sprintf("Completed! %d/%d downloaded", completed, total)
}

// ShortFilename trims a filename for display in progress messages
func ShortFilename(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxMessageFilenameLength {
		return string(runes[:MaxMessageFilenameLength])
	}
	return name
}

// OverallProgress maps finished fetches onto the first 90% of the bar.
// The last 10% is reserved for packaging the archive.
func OverallProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return completed * 90 / total
}
