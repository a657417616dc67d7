package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henkisdabro/mcpsel/internal/selector"
)

func testEnv(t *testing.T) (home, cwd string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CLAUDE_CONFIG_DIR", filepath.Join(home, ".claude"))
	return home, t.TempDir()
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
}

func loadManager(t *testing.T, cwd string) *selector.Manager {
	t.Helper()
	m := selector.NewManager(cwd)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m
}

func TestRunStatus(t *testing.T) {
	_, cwd := testEnv(t)
	writeJSON(t, filepath.Join(cwd, ".mcp.json"), map[string]any{
		"mcpServers": map[string]any{
			"github": map[string]any{"command": "gh-mcp"},
			"fetch":  map[string]any{"command": "fetch-mcp"},
		},
	})
	writeJSON(t, filepath.Join(cwd, ".claude", "settings.local.json"), map[string]any{
		"disabledMcpjsonServers": []string{"fetch"},
	})

	var buf bytes.Buffer
	if err := runStatus(loadManager(t, cwd), &buf); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Configuration sources:") {
		t.Errorf("output missing source catalog: %s", out)
	}
	// The two project files exist and must be starred.
	if !strings.Contains(out, "* project") {
		t.Errorf("existing project source should be starred: %s", out)
	}
	if !strings.Contains(out, "2 servers: 1 enabled, 0 paused, 1 disabled") {
		t.Errorf("unexpected summary line: %s", out)
	}
	if !strings.Contains(out, "github") || !strings.Contains(out, "fetch") {
		t.Errorf("server table incomplete: %s", out)
	}
}

func TestRunStatus_NoServers(t *testing.T) {
	_, cwd := testEnv(t)

	var buf bytes.Buffer
	if err := runStatus(loadManager(t, cwd), &buf); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No MCP servers found.") {
		t.Errorf("expected empty-state message, got: %s", buf.String())
	}
}

func TestRunList(t *testing.T) {
	_, cwd := testEnv(t)
	writeJSON(t, filepath.Join(cwd, ".mcp.json"), map[string]any{
		"mcpServers": map[string]any{
			"github": map[string]any{"command": "gh-mcp"},
		},
	})

	var buf bytes.Buffer
	if err := runList(loadManager(t, cwd), &buf); err != nil {
		t.Fatalf("runList() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "SCOPE") {
		t.Errorf("output missing table header: %s", out)
	}
	if !strings.Contains(out, "github") {
		t.Errorf("output missing server row: %s", out)
	}
	if !strings.Contains(out, "mcpjson") {
		t.Errorf("output missing source type: %s", out)
	}
}

func TestRunList_Empty(t *testing.T) {
	_, cwd := testEnv(t)

	var buf bytes.Buffer
	if err := runList(loadManager(t, cwd), &buf); err != nil {
		t.Fatalf("runList() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No MCP servers found.") {
		t.Errorf("expected empty-state message, got: %s", buf.String())
	}
}
