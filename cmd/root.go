package cmd

import (
	"github.com/urfave/cli/v3"
)

// version is set during build via -ldflags "-X github.com/ytget/yt-batch/cmd.version=X.Y.Z"
var version = "dev"

func App() *cli.Command {
	return &cli.Command{
		Name:    "yt-batch",
		Version: version,
		Usage:   "Batch video downloader with a web UI: submit URLs, track progress, fetch one zip.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML or YAML config file",
				Sources: cli.EnvVars("YTB_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("YTB_LOGGING_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			versionCmd(),
		},
	}
}
