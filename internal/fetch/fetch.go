// Package fetch is the boundary to the media-fetching engine. The core only
// depends on Fetcher; YTDLP is the production implementation.
package fetch

import (
	"context"

	"github.com/ytget/yt-batch/internal/model"
)

// Status tags a progress event
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
)

// Event is a progress notification for one URL
type Event struct {
	Status   Status
	Filename string
}

// Request describes a single URL fetch
type Request struct {
	URL            string
	OutputTemplate string
	Quality        model.Quality
	Subtitles      bool
}

// ProgressFunc receives events synchronously on the fetching goroutine
type ProgressFunc func(Event)

// Fetcher fetches one URL, reporting progress and returning the files it wrote
type Fetcher interface {
	Fetch(ctx context.Context, req Request, onProgress ProgressFunc) ([]string, error)
}
