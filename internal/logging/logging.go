// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger, configured from LOG_LEVEL, LOG_FORMAT
// and the deployment environment, writing to stdout.
func Setup() *slog.Logger {
	logger := New(os.Stdout, os.Getenv)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w, reading settings through getenv.
func New(w io.Writer, getenv func(string) string) *slog.Logger {
	prod := isProduction(getenv)
	opts := &slog.HandlerOptions{
		Level:     level(getenv("LOG_LEVEL"), prod),
		AddSource: getenv("LOG_SOURCE") == "true",
	}

	format := strings.ToLower(getenv("LOG_FORMAT"))
	if format == "" {
		format = "text"
		if prod {
			format = "json"
		}
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func level(name string, prod bool) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "":
		if prod {
			return slog.LevelInfo
		}
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Environment returns the deployment environment name, "development" when
// nothing says otherwise.
func Environment(getenv func(string) string) string {
	for _, key := range []string{"ENV", "APP_ENV", "GO_ENV"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "kubernetes"
	}
	return "development"
}

func isProduction(getenv func(string) string) bool {
	env := strings.ToLower(Environment(getenv))
	return strings.HasPrefix(env, "prod") || env == "kubernetes"
}
