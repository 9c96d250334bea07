package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Default values
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 5000
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultFilenameTemplate = "%(title)s.%(ext)s"
	DefaultQuality          = "720"
	DefaultMaxParallel      = 2
	DefaultQueueSize        = 32
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "pretty"
)

func loadDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.host":             DefaultHost,
		"server.port":             DefaultPort,
		"server.shutdown_timeout": DefaultShutdownTimeout.String(),

		"downloads.dir":               "",
		"downloads.filename_template": DefaultFilenameTemplate,
		"downloads.default_quality":   DefaultQuality,
		"downloads.max_parallel":      DefaultMaxParallel,
		"downloads.queue_size":        DefaultQueueSize,
		"downloads.expand_playlists":  false,
		"downloads.retention":         "0s",

		"ytdlp.executable":        "",
		"ytdlp.auto_install":      true,
		"ytdlp.progress_interval": DefaultProgressInterval.String(),

		"logging.level":  DefaultLogLevel,
		"logging.format": DefaultLogFormat,
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
}
