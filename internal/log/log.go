// Package log configures the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
)

// Config controls log output. An empty Path logs to stderr only.
type Config struct {
	Path           string `toml:"path"`
	RotationTime   string `toml:"rotation_time" split_words:"true"`
	MaxAge         string `toml:"max_age" split_words:"true"`
	DefaultPattern string `toml:"default_pattern" split_words:"true"`
	Level          string `toml:"level"`
	Format         string `toml:"format"` // text or json
}

// DefaultConfig logs text at info level to stderr.
func DefaultConfig() Config {
	return Config{
		RotationTime:   "24h",
		MaxAge:         "168h",
		DefaultPattern: "arctic-%Y-%m-%d.log",
		Level:          "info",
		Format:         "text",
	}
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	if cfg.Path != "" {
		if _, err := time.ParseDuration(cfg.RotationTime); err != nil {
			return errors.WithMessage(err, "rotation_time is invalid")
		}
		if _, err := time.ParseDuration(cfg.MaxAge); err != nil {
			return errors.WithMessage(err, "max_age is invalid")
		}
		if strings.TrimSpace(cfg.DefaultPattern) == "" {
			return errors.New("default_pattern is required")
		}
	}
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("invalid level: " + cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		return errors.New("invalid format: " + cfg.Format)
	}
	return nil
}

// Init installs the default logger.
func Init(cfg Config) error {
	return InitWriter(cfg, os.Stderr)
}

// InitWriter installs the default logger writing to console, plus a rotating
// file when cfg.Path is set.
func InitWriter(cfg Config, console io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	out := console
	if cfg.Path != "" {
		fileWriter, err := configureFileLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to configure file logger: %w", err)
		}
		out = io.MultiWriter(console, fileWriter)
	}

	opts := &slog.HandlerOptions{
		Level: mapLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(a.Key, t.Format("2006-01-02 15:04:05.000000"))
				}
			}
			return a
		},
	}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func configureFileLogger(cfg Config) (io.Writer, error) {
	rotationTime, err := time.ParseDuration(cfg.RotationTime)
	if err != nil {
		return nil, err
	}
	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, err
	}
	return rotatelogs.New(
		filepath.Join(cfg.Path, cfg.DefaultPattern),
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)
}

func mapLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the default logger tagged with module.
func Logger(module string) *slog.Logger {
	return slog.Default().With("module", module)
}
