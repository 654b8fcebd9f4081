// Package logging configures slog: JSON to stdout, plus ERROR+ records
// persisted to the system_logs table once the database is available.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout. Development environments log at
// DEBUG, everything else at INFO.
func Setup(env string) {
	slog.SetDefault(slog.New(NewJSONHandler(os.Stdout, env)))
}

func NewJSONHandler(w io.Writer, env string) slog.Handler {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
