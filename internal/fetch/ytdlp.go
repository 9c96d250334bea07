package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"
)

// DefaultProgressInterval is how often yt-dlp progress is sampled
const DefaultProgressInterval = 500 * time.Millisecond

// YTDLP fetches media through the yt-dlp executable
type YTDLP struct {
	executable string
	interval   time.Duration
}

// NewYTDLP creates a fetcher. An empty executable resolves yt-dlp from PATH
// or the go-ytdlp cache.
func NewYTDLP(executable string, interval time.Duration) *YTDLP {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &YTDLP{executable: executable, interval: interval}
}

// Install makes sure a yt-dlp executable is available, downloading it when
// missing. It is a no-op when an explicit executable is configured.
func (y *YTDLP) Install(ctx context.Context) error {
	if y.executable != "" {
		return nil
	}
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	log.Info().
		Str("executable", resolved.Executable).
		Str("version", resolved.Version).
		Msg("yt-dlp ready")
	return nil
}

// Fetch downloads req.URL. Progress events run on the caller's goroutine
// through go-ytdlp's progress callback.
func (y *YTDLP) Fetch(ctx context.Context, req Request, onProgress ProgressFunc) ([]string, error) {
	dl := y.command(req)

	var files []string
	dl.ProgressFunc(y.interval, func(update ytdlp.ProgressUpdate) {
		ev, ok := toEvent(update)
		if !ok {
			return
		}
		if ev.Status == StatusFinished && ev.Filename != "" {
			files = append(files, ev.Filename)
		}
		if onProgress != nil {
			onProgress(ev)
		}
	})

	if _, err := dl.Run(ctx, req.URL); err != nil {
		return files, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	return files, nil
}

func (y *YTDLP) command(req Request) *ytdlp.Command {
	dl := ytdlp.New().
		Output(req.OutputTemplate).
		Format(req.Quality.FormatSelector()).
		RestrictFilenames().
		NoWarnings()

	if y.executable != "" {
		dl.SetExecutable(y.executable)
	}
	if req.Subtitles {
		dl.WriteSubs().WriteAutoSubs()
	}
	return dl
}

func toEvent(update ytdlp.ProgressUpdate) (Event, bool) {
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		return Event{Status: StatusDownloading, Filename: update.Filename}, true
	case ytdlp.ProgressStatusFinished:
		return Event{Status: StatusFinished, Filename: update.Filename}, true
	default:
		return Event{}, false
	}
}
