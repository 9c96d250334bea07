package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ytget/yt-batch/internal/app"
	"github.com/ytget/yt-batch/internal/config"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server and download workers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Listen host",
				Sources: cli.EnvVars("YTB_SERVER_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port",
				Sources: cli.EnvVars("YTB_SERVER_PORT"),
			},
			&cli.StringFlag{
				Name:    "downloads-dir",
				Usage:   "Directory that receives job folders and archives",
				Sources: cli.EnvVars("YTB_DOWNLOADS_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyFlags(cmd, cfg)
			setupLogging(cfg.Logging)

			log.Info().Str("version", version).Msg("yt-batch starting")
			return app.Run(ctx, cfg)
		},
	}
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if v := cmd.String("host"); v != "" {
		cfg.Server.Host = v
	}
	if v := cmd.Int("port"); v > 0 {
		cfg.Server.Port = v
	}
	if v := cmd.String("downloads-dir"); v != "" {
		cfg.Downloads.Dir = v
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	cfg.Normalize()
}

func setupLogging(cfg config.LoggingConfig) {
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("level", level.String()).Msg("log level configured")
}
