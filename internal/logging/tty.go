package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// fder is satisfied by os.File and any writer wrapping a real descriptor.
type fder interface {
	Fd() uintptr
}

// IsTTY reports whether the writer is backed by a terminal. Writers without
// a file descriptor (buffers, pipes wrapped elsewhere) are never terminals.
func IsTTY(w io.Writer) bool {
	f, ok := w.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI color codes should be emitted on w.
// The NO_COLOR convention (https://no-color.org) and TERM=dumb both win
// over TTY detection.
func SupportsColor(w io.Writer) bool {
	return supportsColor(w, IsTTY(w))
}

func supportsColor(_ io.Writer, isTTY bool) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY
}
