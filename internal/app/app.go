// Package app assembles the service from configuration and runs it until
// the context is cancelled or a termination signal arrives.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-batch/internal/archive"
	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/event"
	"github.com/ytget/yt-batch/internal/fetch"
	"github.com/ytget/yt-batch/internal/platform"
	"github.com/ytget/yt-batch/internal/registry"
	"github.com/ytget/yt-batch/internal/server"
	"github.com/ytget/yt-batch/internal/worker"
)

// Installer prepares the fetching engine before jobs are accepted
type Installer interface {
	Install(ctx context.Context) error
}

// App holds the wired components
type App struct {
	cfg      *config.Config
	registry *registry.Memory
	pool     *worker.Pool
	hub      *server.Hub
	janitor  *download.Janitor
	server   *server.Server

	unsubscribe func()
}

// New wires every component. f is the fetcher jobs use.
func New(cfg *config.Config, f fetch.Fetcher) *App {
	bus := event.NewBus()
	reg := registry.NewMemory(bus)
	hub := server.NewHub()
	unsubscribe := event.SubscribeAll(bus, hub.HandleEvent)

	runnerCfg := download.RunnerConfig{
		Registry:         reg,
		Fetcher:          f,
		Archiver:         archive.NewBuilder(),
		DownloadDir:      cfg.Downloads.Dir,
		FilenameTemplate: cfg.Downloads.FilenameTemplate,
	}
	if cfg.Downloads.ExpandPlaylists {
		runnerCfg.Expander = platform.NewPlaylistExpander()
	}
	runner := download.NewRunner(runnerCfg)

	pool := worker.NewPool(cfg.Downloads.MaxParallel, cfg.Downloads.QueueSize)
	svc := download.NewService(reg, runner, pool, cfg.Downloads.Quality())

	return &App{
		cfg:         cfg,
		registry:    reg,
		pool:        pool,
		hub:         hub,
		janitor:     download.NewJanitor(reg, cfg.Downloads.Dir, cfg.Downloads.Retention),
		server:      server.New(svc, hub),
		unsubscribe: unsubscribe,
	}
}

// Run builds the production fetcher, installs yt-dlp when configured and
// serves until SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := platform.EnsureDir(cfg.Downloads.Dir); err != nil {
		return fmt.Errorf("downloads dir: %w", err)
	}

	ytdlp := fetch.NewYTDLP(cfg.YtDlp.Executable, cfg.YtDlp.ProgressInterval)
	if cfg.YtDlp.AutoInstall {
		if err := install(ctx, ytdlp); err != nil {
			return err
		}
	}

	return New(cfg, ytdlp).Serve(ctx)
}

func install(ctx context.Context, in Installer) error {
	log.Info().Msg("checking yt-dlp installation")
	if err := in.Install(ctx); err != nil {
		return fmt.Errorf("yt-dlp unavailable: %w", err)
	}
	return nil
}

// Serve runs the HTTP server, the WebSocket hub, the worker pool and the
// janitor. When ctx ends, HTTP is drained first, then in-flight jobs are
// cancelled and end up failed.
func (a *App) Serve(ctx context.Context) error {
	defer a.unsubscribe()

	// jobs get their own context so that HTTP shutdown does not cut them off early
	a.pool.Start(context.Background())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		if a.janitor.Enabled() {
			log.Info().Dur("retention", a.cfg.Downloads.Retention).Msg("job janitor started")
		}
		a.janitor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		addr := a.cfg.Server.Addr()
		log.Info().
			Str("addr", addr).
			Str("downloads", a.cfg.Downloads.Dir).
			Int("workers", a.pool.Size()).
			Msg("http server listening")
		if err := a.server.Start(addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		if err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		a.stopJobs(shutdownCtx)
		return err
	})

	return g.Wait()
}

// stopJobs cancels the pool and waits for the workers, giving up when ctx
// expires
func (a *App) stopJobs(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("workers did not stop before the shutdown timeout")
		return
	}

	active := 0
	for _, job := range a.registry.List() {
		if job.Status.IsActive() {
			active++
		}
	}
	if active > 0 {
		log.Warn().Int("jobs", active).Msg("jobs still active after shutdown")
	}
}

// Handler exposes the HTTP handler
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}
