package download

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ytget/yt-batch/internal/archive"
	"github.com/ytget/yt-batch/internal/fetch"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/platform"
	"github.com/ytget/yt-batch/internal/registry"
)

// Default values
const (
	DefaultFilenameTemplate = "%(title)s.%(ext)s"
	FailedMessagePrefix     = "Failed: "
)

// RunnerConfig holds the runner's collaborators and settings
type RunnerConfig struct {
	Registry         registry.Registry
	Fetcher          fetch.Fetcher
	Archiver         archive.Archiver
	Expander         Expander // optional
	DownloadDir      string
	FilenameTemplate string
}

// Runner drives one job at a time from start to a terminal state
type Runner struct {
	registry    registry.Registry
	fetcher     fetch.Fetcher
	archiver    archive.Archiver
	expander    Expander
	downloadDir string
	template    string
}

// NewRunner creates a runner
func NewRunner(cfg RunnerConfig) *Runner {
	template := cfg.FilenameTemplate
	if template == "" {
		template = DefaultFilenameTemplate
	}
	archiver := cfg.Archiver
	if archiver == nil {
		archiver = archive.NewBuilder()
	}
	return &Runner{
		registry:    cfg.Registry,
		fetcher:     cfg.Fetcher,
		archiver:    archiver,
		expander:    cfg.Expander,
		downloadDir: cfg.DownloadDir,
		template:    template,
	}
}

// Run executes the job. URLs are fetched one after another in input order;
// a failing URL is recorded and skipped. Only setup, packaging and
// cancellation failures fail the whole job.
func (r *Runner) Run(ctx context.Context, jobID string) {
	logger := log.With().Str("job_id", jobID).Logger()

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("runner panicked")
			r.fail(logger, jobID, fmt.Errorf("internal error: %v", p))
		}
	}()

	job, err := r.registry.Get(jobID)
	if err != nil {
		logger.Error().Err(err).Msg("job vanished before start")
		return
	}
	if err := ctx.Err(); err != nil {
		r.fail(logger, jobID, fmt.Errorf("interrupted: %w", err))
		return
	}

	outDir := platform.JobOutputDir(r.downloadDir, jobID)
	if err := platform.EnsureDir(outDir); err != nil {
		r.fail(logger, jobID, fmt.Errorf("create output directory: %w", err))
		return
	}

	urls := job.URLs
	if r.expander != nil {
		urls = r.expander.Expand(ctx, urls)
	}
	total := len(urls)
	completed := 0

	r.update(logger, jobID, func(j *model.Job) {
		j.Status = model.JobStatusRunning
		j.URLs = urls
		j.Total = total
	})
	logger.Info().Int("urls", total).Str("dir", outDir).Msg("job started")

	onProgress := func(ev fetch.Event) {
		switch ev.Status {
		case fetch.StatusDownloading:
			progress := model.OverallProgress(completed, total)
			msg := model.MessageDownloading + model.ShortFilename(ev.Filename)
			r.update(logger, jobID, func(j *model.Job) {
				j.Progress = progress
				j.Current = msg
			})
		case fetch.StatusFinished:
			completed++
			done := completed
			msg := model.MessageFinished + model.ShortFilename(ev.Filename)
			r.update(logger, jobID, func(j *model.Job) {
				j.Completed = done
				j.Current = msg
			})
		}
	}

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}
		req := fetch.Request{
			URL:            url,
			OutputTemplate: filepath.Join(outDir, r.template),
			Quality:        job.Quality,
			Subtitles:      true,
		}
		if _, err := r.fetcher.Fetch(ctx, req, onProgress); err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("fetch failed")
			msg := err.Error()
			r.update(logger, jobID, func(j *model.Job) {
				j.Errors = append(j.Errors, msg)
			})
		}
	}

	if err := ctx.Err(); err != nil {
		r.fail(logger, jobID, fmt.Errorf("interrupted: %w", err))
		return
	}

	r.update(logger, jobID, func(j *model.Job) {
		j.Progress = model.OverallProgress(completed, total)
		j.Current = model.MessagePackaging
	})

	archivePath, err := r.archiver.Build(outDir, jobID)
	if err != nil {
		r.fail(logger, jobID, fmt.Errorf("build archive: %w", err))
		return
	}

	r.update(logger, jobID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Progress = 100
		j.Completed = completed
		j.ArchivePath = archivePath
		j.Current = model.SummaryMessage(completed, total)
	})
	logger.Info().
		Int("completed", completed).
		Int("total", total).
		Str("archive", archivePath).
		Msg("job completed")
}

func (r *Runner) fail(logger zerolog.Logger, jobID string, cause error) {
	msg := cause.Error()
	logger.Error().Err(cause).Msg("job failed")
	r.update(logger, jobID, func(j *model.Job) {
		j.Status = model.JobStatusFailed
		j.Errors = append(j.Errors, msg)
		j.Current = FailedMessagePrefix + msg
	})
}

func (r *Runner) update(logger zerolog.Logger, jobID string, fn func(*model.Job)) {
	if err := r.registry.Update(jobID, fn); err != nil {
		logger.Warn().Err(err).Msg("job update rejected")
	}
}
