package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/platform"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "YTB_"

// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Limits for downloads.max_parallel
const (
	MinParallel = 1
	MaxParallel = 10
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Downloads DownloadsConfig `koanf:"downloads"`
	YtDlp     YtDlpConfig     `koanf:"ytdlp"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DownloadsConfig struct {
	Dir              string        `koanf:"dir"`
	FilenameTemplate string        `koanf:"filename_template"`
	DefaultQuality   string        `koanf:"default_quality"`
	MaxParallel      int           `koanf:"max_parallel"`
	QueueSize        int           `koanf:"queue_size"`
	ExpandPlaylists  bool          `koanf:"expand_playlists"`
	Retention        time.Duration `koanf:"retention"`
}

type YtDlpConfig struct {
	Executable       string        `koanf:"executable"`
	AutoInstall      bool          `koanf:"auto_install"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Quality returns the parsed default quality
func (c DownloadsConfig) Quality() model.Quality {
	q, err := model.ParseQuality(c.DefaultQuality, model.DefaultQuality)
	if err != nil {
		return model.DefaultQuality
	}
	return q
}

// Load reads defaults, then the config file (if provided), then YTB_ env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if configPath != "" {
		parser, err := parserFor(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(configPath), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	// YTB_DOWNLOADS_MAX_PARALLEL -> downloads.max_parallel
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKey(key), value
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize clamps and fills values that defaults alone cannot fix
func (c *Config) Normalize() {
	if c.Downloads.Dir == "" {
		c.Downloads.Dir = platform.DefaultDownloadsDir()
	}
	if c.Downloads.FilenameTemplate == "" {
		c.Downloads.FilenameTemplate = DefaultFilenameTemplate
	}
	c.Downloads.DefaultQuality = string(c.Downloads.Quality())
	c.Downloads.MaxParallel = clampParallel(c.Downloads.MaxParallel)
	if c.Downloads.QueueSize < 0 {
		c.Downloads.QueueSize = 0
	}
	if c.Downloads.Retention < 0 {
		c.Downloads.Retention = 0
	}
	if c.YtDlp.ProgressInterval <= 0 {
		c.YtDlp.ProgressInterval = DefaultProgressInterval
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func clampParallel(n int) int {
	if n < MinParallel {
		return MinParallel
	}
	if n > MaxParallel {
		return MaxParallel
	}
	return n
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// envKey maps the first underscore after the section to a dot; the rest
// stay part of the key name.
func envKey(key string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".", 1)
}
