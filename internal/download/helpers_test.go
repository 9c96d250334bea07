package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ytget/yt-batch/internal/fetch"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/registry"
	"github.com/ytget/yt-batch/internal/worker"
)

// fakeFetcher writes one file per successful URL and emits the usual
// downloading/finished event pair. URLs listed in fail return an error.
type fakeFetcher struct {
	mu       sync.Mutex
	fail     map[string]bool
	requests []fetch.Request
	delay    time.Duration
}

func newFakeFetcher(failing ...string) *fakeFetcher {
	f := &fakeFetcher{fail: make(map[string]bool)}
	for _, u := range failing {
		f.fail[u] = true
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, req fetch.Request, onProgress fetch.ProgressFunc) ([]string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fail := f.fail[req.URL]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	name := filepath.Base(req.URL) + ".mp4"
	onProgress(fetch.Event{Status: fetch.StatusDownloading, Filename: name + ".part"})
	if fail {
		return nil, errors.New("ERROR: video unavailable: " + req.URL)
	}

	path := filepath.Join(filepath.Dir(req.OutputTemplate), name)
	if err := os.WriteFile(path, []byte("media:"+req.URL), 0o644); err != nil {
		return nil, err
	}
	onProgress(fetch.Event{Status: fetch.StatusFinished, Filename: name})
	return []string{path}, nil
}

func (f *fakeFetcher) Requests() []fetch.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetch.Request{}, f.requests...)
}

type failingArchiver struct{}

func (failingArchiver) Build(string, string) (string, error) {
	return "", errors.New("disk full")
}

// manualSubmitter keeps tasks instead of running them
type manualSubmitter struct {
	tasks []worker.Task
	err   error
}

func (m *manualSubmitter) Submit(t worker.Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func newTestRunner(t *testing.T, reg registry.Registry, f fetch.Fetcher) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRunner(RunnerConfig{
		Registry:    reg,
		Fetcher:     f,
		DownloadDir: dir,
	}), dir
}

func waitForTerminal(t *testing.T, svc JobService, id string) model.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Status(id)
		if err != nil {
			t.Fatalf("status %s: %v", id, err)
		}
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return model.Job{}
}
