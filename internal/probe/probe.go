// Package probe determines live MCP server status by shelling out to the
// Claude CLI and scraping its output.
//
// The probe is strictly best-effort: any failure (missing binary, non-zero
// exit, timeout, unparseable output) yields an empty map, and callers treat
// servers without a probe result as runtime "unknown". Nothing in resolution
// or persistence depends on the probe succeeding.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status is a server's live status as reported by the host CLI.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// DefaultTimeout bounds the external CLI invocation.
const DefaultTimeout = 5 * time.Second

// Prober returns a name → status map for live servers.
// Implementations must degrade to an empty map instead of failing callers.
type Prober interface {
	Probe(ctx context.Context) map[string]Status
}

// CLIProber probes by running an external command (normally `claude mcp list`)
// and parsing its line output.
type CLIProber struct {
	// Command is the executable to invoke. Defaults to "claude".
	Command string
	// Args are the arguments. Defaults to ["mcp", "list"].
	Args []string
	// Timeout bounds the invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	// runCommand is the exec seam for tests.
	runCommand func(ctx context.Context, command string, args ...string) ([]byte, error)
}

// NewCLIProber creates a prober with the default claude CLI invocation.
func NewCLIProber() *CLIProber {
	return &CLIProber{}
}

// Probe invokes the CLI and parses its output. It degrades silently: any
// error yields an empty map.
func (p *CLIProber) Probe(ctx context.Context) map[string]Status {
	command := p.Command
	if command == "" {
		command = "claude"
	}
	args := p.Args
	if args == nil {
		args = []string{"mcp", "list"}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	run := p.runCommand
	if run == nil {
		run = runCLI
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := run(ctx, command, args...)
	if err != nil {
		return map[string]Status{}
	}
	return ParseStatusOutput(out)
}

func runCLI(ctx context.Context, command string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, command, args...).Output()
}

// ParseStatusOutput parses line-oriented CLI output into a status map.
// Two line shapes are recognized:
//
//	name: status text
//	name (status text)
//
// A line whose status text contains "connected" or "running" maps to
// running; "failed", "disconnected" or "stopped" maps to stopped. Anything
// else is skipped.
func ParseStatusOutput(out []byte) map[string]Status {
	statuses := make(map[string]Status)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, statusText, ok := splitStatusLine(line)
		if !ok {
			continue
		}
		status, ok := classify(statusText)
		if !ok {
			continue
		}
		statuses[name] = status
	}
	return statuses
}

// splitStatusLine extracts (name, status text) from a line in either
// recognized shape.
func splitStatusLine(line string) (string, string, bool) {
	if name, rest, found := strings.Cut(line, ":"); found {
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)
		if name != "" && rest != "" {
			return name, rest, true
		}
	}
	open := strings.LastIndexByte(line, '(')
	if open > 0 && strings.HasSuffix(line, ")") {
		name := strings.TrimSpace(line[:open])
		rest := strings.TrimSpace(line[open+1 : len(line)-1])
		if name != "" && rest != "" {
			return name, rest, true
		}
	}
	return "", "", false
}

func classify(statusText string) (Status, bool) {
	text := strings.ToLower(statusText)
	switch {
	case strings.Contains(text, "connected") && !strings.Contains(text, "disconnected"),
		strings.Contains(text, "running"):
		return StatusRunning, true
	case strings.Contains(text, "failed"),
		strings.Contains(text, "disconnected"),
		strings.Contains(text, "stopped"):
		return StatusStopped, true
	default:
		return "", false
	}
}
