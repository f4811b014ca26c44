// Package mlog wires up the zerolog logger shared across the pipeline.
package mlog

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the package-wide logger. Setup replaces it; callers should
// hold onto a value obtained after Setup rather than caching it early.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup configures the shared logger's output and verbosity. verbose
// raises the level to debug; otherwise info.
func Setup(w io.Writer, verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	Logger = zerolog.New(console).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
