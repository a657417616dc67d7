package logging

import (
	"os"
	"testing"
)

func TestSupportsColor(t *testing.T) {
	tests := []struct {
		name    string
		noColor bool
		termVar string
		isTTY   bool
		want    bool
	}{
		{name: "TTY with plain env", termVar: "xterm-256color", isTTY: true, want: true},
		{name: "NO_COLOR wins over TTY", noColor: true, termVar: "xterm-256color", isTTY: true, want: false},
		{name: "TERM=dumb wins over TTY", termVar: "dumb", isTTY: true, want: false},
		{name: "non-TTY never colors", termVar: "xterm-256color", isTTY: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			if tt.noColor {
				t.Setenv("NO_COLOR", "1")
			}
			t.Setenv("TERM", tt.termVar)

			// The internal variant takes the TTY verdict as input so the env
			// logic is testable without a real terminal.
			got := supportsColor(nil, tt.isTTY)
			if got != tt.want {
				t.Errorf("supportsColor(isTTY=%v) = %v, want %v", tt.isTTY, got, tt.want)
			}
		})
	}
}

func TestIsTTY_NonFileWriter(t *testing.T) {
	if IsTTY(&discardWriter{}) {
		t.Error("IsTTY should be false for a writer without a descriptor")
	}
}

type discardWriter struct{}

func (*discardWriter) Write(p []byte) (int, error) { return len(p), nil }
