package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/okanb/health-tracker/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
}

// New builds a structured logger writing to w.
func New(c Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && c.Format != FormatJSON {
				return slog.String(slog.TimeKey, time.Now().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(string(c.Format)) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	log := slog.New(handler)
	if c.Component != "" {
		log = log.With("component", c.Component)
	}
	return log
}

// FromAppConfig builds the process logger from app config, writing to stdout.
func FromAppConfig(cfg *config.Config) *slog.Logger {
	if cfg == nil {
		return New(Config{Level: "info", Format: FormatText}, os.Stdout)
	}
	return New(Config{
		Level:      cfg.Log.Level,
		Format:     Format(cfg.Log.Format),
		Component:  cfg.Log.Component,
		WithSource: cfg.Log.Source,
	}, os.Stdout)
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
