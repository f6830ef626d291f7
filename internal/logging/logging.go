package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a configured level string onto slog's levels. Unknown
// strings fall back to info so a typo in the registry file never silences
// logging entirely.
func ParseLevel(s string) slog.Level {
	switch s {
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

// New builds a tinted slog logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
}

// Setup installs a tinted stderr logger as the process default. Callers that
// want their own handler simply skip the registry logging key and keep
// whatever slog default they configured.
func Setup(level string) {
	slog.SetDefault(New(os.Stderr, level))
}
