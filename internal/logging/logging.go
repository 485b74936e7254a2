// Package logging builds the *slog.Logger that cmd/tweers uses for its own
// output and hands to internal/watch and internal/api. internal/pipeline
// takes no logger; the asset embedder it creates logs through
// slog.Default().
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Options configures the logger constructed by New.
type Options struct {
	Debug bool
	// Writer defaults to os.Stderr when nil.
	Writer io.Writer
}

// New builds a *slog.Logger. When the destination is a terminal, a
// human-readable text handler is used; otherwise (redirected to a file,
// piped into another process, or running under CI) a JSON handler is used
// so log lines remain machine-parseable.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything, used as a safe default
// in tests and programmatic callers that don't supply one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
