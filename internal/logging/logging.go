package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// Format selects the wire shape of log output.
type Format string

const (
	// FormatText is the human-oriented colorized format.
	FormatText Format = "text"
	// FormatJSON emits one JSON object per record, for log files.
	FormatJSON Format = "json"
)

// Config describes the logger to build.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// Format picks text or JSON output. Anything unrecognized means text.
	Format Format
	// Output receives the records; nil means os.Stderr.
	Output io.Writer
}

// New builds a logger from the config.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(NewHandler(out, opts))
}

// Default is the logger used before flags are parsed: Info-level text on
// stderr.
func Default() *slog.Logger {
	return New(Config{Level: slog.LevelInfo})
}

// NewDiscard returns a logger that drops everything, for quiet mode.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testWriter routes handler output to t.Log.
type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	// t.Log appends its own newline
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// NewTestLogger returns a Debug-level logger whose output lands in the
// test log, so it only surfaces on failure or with -v.
func NewTestLogger(t *testing.T) *slog.Logger {
	return New(Config{
		Level:  slog.LevelDebug,
		Format: FormatText,
		Output: &testWriter{t: t},
	})
}
