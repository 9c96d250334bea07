package download

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ytget/yt-batch/internal/archive"
	"github.com/ytget/yt-batch/internal/platform"
	"github.com/ytget/yt-batch/internal/registry"
)

// Janitor forgets finished jobs older than the retention period and removes
// their files
type Janitor struct {
	registry    registry.Registry
	downloadDir string
	retention   time.Duration
	now         func() time.Time
}

// NewJanitor creates a sweeper. A non-positive retention disables sweeping.
func NewJanitor(reg registry.Registry, downloadDir string, retention time.Duration) *Janitor {
	return &Janitor{
		registry:    reg,
		downloadDir: downloadDir,
		retention:   retention,
		now:         time.Now,
	}
}

// Enabled reports whether the janitor does anything
func (j *Janitor) Enabled() bool {
	return j.retention > 0
}

// Sweep removes expired jobs and returns how many were removed
func (j *Janitor) Sweep() int {
	if !j.Enabled() {
		return 0
	}
	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, job := range j.registry.List() {
		if !job.Status.IsTerminal() || job.FinishedAt == nil || job.FinishedAt.After(cutoff) {
			continue
		}
		outDir := platform.JobOutputDir(j.downloadDir, job.ID)
		if err := platform.RemoveAll(outDir, archive.PathFor(outDir, job.ID)); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to remove job files")
			continue
		}
		if err := j.registry.Delete(job.ID); err != nil {
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("expired jobs swept")
	}
	return removed
}

// Run sweeps on every tick until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	if !j.Enabled() {
		return
	}
	interval := j.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}
