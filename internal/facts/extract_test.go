package facts

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/henkisdabro/mcpsel/internal/catalog"
	"github.com/henkisdabro/mcpsel/internal/paths"
)

// fixtureReader serves JSON documents from an in-memory map keyed by path.
func fixtureReader(files map[string]string) ReadJSONFunc {
	return func(path string, out any) (bool, error) {
		data, ok := files[path]
		if !ok {
			return false, nil
		}
		if err := json.Unmarshal([]byte(data), out); err != nil {
			return false, err
		}
		return true, nil
	}
}

func factsOf(list []Fact, kind Kind) []Fact {
	var out []Fact
	for _, f := range list {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestExtractMCP(t *testing.T) {
	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/proj/.mcp.json": `{
			"mcpServers": {
				"github": {"command": "npx", "args": ["-y", "server-github"]},
				"api": {"type": "http", "url": "https://api.example.com/mcp"}
			}
		}`,
	})}

	src := catalog.ConfigSource{
		Path: "/proj/.mcp.json", Scope: catalog.ScopeProject, Kind: catalog.KindMCP, Exists: true,
	}
	out, errs := ex.Extract("/proj", []catalog.ConfigSource{src})
	if len(errs) != 0 {
		t.Fatalf("Extract errors = %v", errs)
	}
	if len(out) != 2 {
		t.Fatalf("Extract returned %d facts, want 2", len(out))
	}

	// Sorted by server name for deterministic order.
	if out[0].ServerName != "api" || out[1].ServerName != "github" {
		t.Errorf("names = [%s %s], want [api github]", out[0].ServerName, out[1].ServerName)
	}
	for _, f := range out {
		if f.Kind != KindDef {
			t.Errorf("%s: Kind = %s, want def", f.ServerName, f.Kind)
		}
		if f.SourceType != SourceMCPJSON {
			t.Errorf("%s: SourceType = %s, want mcpjson", f.ServerName, f.SourceType)
		}
		if f.Scope != catalog.ScopeProject {
			t.Errorf("%s: Scope = %s, want project", f.ServerName, f.Scope)
		}
		if f.Definition == nil {
			t.Errorf("%s: Definition = nil", f.ServerName)
		}
	}
	if out[0].Definition.URL != "https://api.example.com/mcp" {
		t.Errorf("api URL = %q", out[0].Definition.URL)
	}
	if out[1].Definition.Command != "npx" {
		t.Errorf("github Command = %q", out[1].Definition.Command)
	}
}

func TestExtractSettings(t *testing.T) {
	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/proj/.claude/settings.local.json": `{
			"enabledMcpjsonServers": ["github"],
			"disabledMcpjsonServers": ["fetch"],
			"enabledPlugins": {
				"web-tools@community": true,
				"old-plugin@community": false
			},
			"enableAllProjectMcpServers": true
		}`,
	})}

	src := catalog.ConfigSource{
		Path: "/proj/.claude/settings.local.json", Scope: catalog.ScopeLocal,
		Kind: catalog.KindSettings, Exists: true,
	}
	out, errs := ex.Extract("/proj", []catalog.ConfigSource{src})
	if len(errs) != 0 {
		t.Fatalf("Extract errors = %v", errs)
	}

	enables := factsOf(out, KindEnable)
	if len(enables) != 2 {
		t.Fatalf("enable facts = %d, want 2 (server + plugin)", len(enables))
	}
	if enables[0].ServerName != "github" || enables[0].SourceType == SourcePlugin {
		t.Errorf("first enable = %+v, want plain github", enables[0])
	}
	if enables[1].ServerName != "web-tools@community" || enables[1].SourceType != SourcePlugin {
		t.Errorf("second enable = %+v, want plugin key with plugin source type", enables[1])
	}

	disables := factsOf(out, KindDisable)
	if len(disables) != 1 || disables[0].ServerName != "fetch" {
		t.Errorf("disable facts = %+v, want [fetch]", disables)
	}

	pluginDisables := factsOf(out, KindDisablePlugin)
	if len(pluginDisables) != 1 || pluginDisables[0].ServerName != "old-plugin@community" {
		t.Errorf("disable-plugin facts = %+v, want [old-plugin@community]", pluginDisables)
	}

	if len(factsOf(out, KindEnableAllProject)) != 1 {
		t.Error("missing enable-all-project fact")
	}
}

func TestExtractRootConfig(t *testing.T) {
	cwd := t.TempDir()
	normalized := paths.NormalizeProjectPath(cwd)

	rootDoc := map[string]any{
		"mcpServers": map[string]any{
			"global-direct": map[string]any{"command": "uvx", "args": []string{"server"}},
		},
		"disabledMcpServers": []string{"global-direct"},
		"projects": map[string]any{
			normalized: map[string]any{
				"mcpServers": map[string]any{
					"local-direct": map[string]any{"command": "node"},
				},
				"disabledMcpServers":     []string{"plugin:web-tools:fetch"},
				"enabledMcpjsonServers":  []string{"github"},
				"disabledMcpjsonServers": []string{"fetch"},
			},
			"/some/other/project": map[string]any{
				"mcpServers": map[string]any{"other": map[string]any{"command": "x"}},
			},
		},
	}
	data, err := json.Marshal(rootDoc)
	if err != nil {
		t.Fatal(err)
	}

	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/home/u/.claude.json": string(data),
	})}

	src := catalog.ConfigSource{
		Path: "/home/u/.claude.json", Scope: catalog.ScopeUser,
		Kind: catalog.KindClaude, Exists: true,
	}
	out, errs := ex.Extract(cwd, []catalog.ConfigSource{src})
	if len(errs) != 0 {
		t.Fatalf("Extract errors = %v", errs)
	}

	defs := factsOf(out, KindDef)
	if len(defs) != 2 {
		t.Fatalf("def facts = %d, want 2 (other projects excluded)", len(defs))
	}

	var global, local *Fact
	for i := range defs {
		switch defs[i].ServerName {
		case "global-direct":
			global = &defs[i]
		case "local-direct":
			local = &defs[i]
		}
	}
	if global == nil || local == nil {
		t.Fatalf("defs = %+v, want global-direct and local-direct", defs)
	}
	if global.SourceType != SourceDirectGlobal || global.Scope != catalog.ScopeUser {
		t.Errorf("global-direct = %+v, want direct-global at user scope", global)
	}
	if local.SourceType != SourceDirectLocal || local.Scope != catalog.ScopeLocal {
		t.Errorf("local-direct = %+v, want direct-local at local scope", local)
	}

	tokens := factsOf(out, KindRuntimeDisable)
	if len(tokens) != 2 {
		t.Fatalf("runtime-disable facts = %d, want 2", len(tokens))
	}
	if tokens[0].Scope != catalog.ScopeUser || tokens[1].Scope != catalog.ScopeLocal {
		t.Errorf("token scopes = [%s %s], want [user local]", tokens[0].Scope, tokens[1].Scope)
	}

	enables := factsOf(out, KindEnable)
	if len(enables) != 1 || enables[0].ServerName != "github" || enables[0].Scope != catalog.ScopeLocal {
		t.Errorf("enable facts = %+v, want [github at local]", enables)
	}
}

func TestExtractInstalledPlugins(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/cc")
	marketDir := filepath.Join("/cc", "plugins", "marketplaces", "community")

	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/cc/plugins/config.json": `{
			"plugins": {
				"web-tools@community": [{"installPath": "/installs/web-tools", "version": "1.0.0"}],
				"broken-key": [{"installPath": "/x"}],
				"empty@community": []
			}
		}`,
		// (a) the per-install cache wins for web-tools.
		"/installs/web-tools/.mcp.json": `{
			"mcpServers": {
				"fetch": {"command": "npx", "args": ["fetch-server"]},
				"scrape": {"command": "npx", "args": ["scrape-server"]}
			}
		}`,
		filepath.Join(marketDir, ".claude-plugin", "marketplace.json"): `{
			"name": "community",
			"plugins": [{"name": "web-tools", "source": "./web-tools"}]
		}`,
	})}

	src := catalog.ConfigSource{
		Path: "/cc/plugins/config.json", Scope: catalog.ScopeUser,
		Kind: catalog.KindInstalledPlugins, Exists: true,
	}
	out, errs := ex.Extract("/proj", []catalog.ConfigSource{src})
	if len(errs) != 0 {
		t.Fatalf("Extract errors = %v", errs)
	}

	if len(out) != 2 {
		t.Fatalf("facts = %d, want 2 (malformed key and empty installs skipped)", len(out))
	}
	wantNames := []string{"fetch:web-tools@community", "scrape:web-tools@community"}
	for i, want := range wantNames {
		if out[i].ServerName != want {
			t.Errorf("facts[%d].ServerName = %q, want %q", i, out[i].ServerName, want)
		}
		if out[i].SourceType != SourcePlugin {
			t.Errorf("facts[%d].SourceType = %s, want plugin", i, out[i].SourceType)
		}
	}
}

func TestExtractPluginSourceDirFallback(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/cc")
	marketDir := filepath.Join("/cc", "plugins", "marketplaces", "community")

	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/cc/plugins/config.json": `{
			"plugins": {"web-tools@community": [{"installPath": "/gone"}]}
		}`,
		// No install cache; resolution falls through to the declared source
		// directory inside the marketplace clone.
		filepath.Join(marketDir, ".claude-plugin", "marketplace.json"): `{
			"name": "community",
			"plugins": [{"name": "web-tools", "source": {"source": "./plugins/web-tools"}}]
		}`,
		filepath.Join(marketDir, "plugins", "web-tools", ".mcp.json"): `{
			"mcpServers": {"fetch": {"command": "npx"}}
		}`,
	})}

	src := catalog.ConfigSource{
		Path: "/cc/plugins/config.json", Scope: catalog.ScopeUser,
		Kind: catalog.KindInstalledPlugins, Exists: true,
	}
	out, _ := ex.Extract("/proj", []catalog.ConfigSource{src})
	if len(out) != 1 || out[0].ServerName != "fetch:web-tools@community" {
		t.Errorf("facts = %+v, want one fetch:web-tools@community def", out)
	}
}

func TestExtractPluginInlineServers(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/cc")
	marketDir := filepath.Join("/cc", "plugins", "marketplaces", "community")

	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/cc/plugins/config.json": `{
			"plugins": {"web-tools@community": [{}]}
		}`,
		filepath.Join(marketDir, ".claude-plugin", "marketplace.json"): `{
			"name": "community",
			"plugins": [{
				"name": "web-tools",
				"mcpServers": {"fetch": {"command": "npx", "args": ["fetch-server"]}}
			}]
		}`,
	})}

	src := catalog.ConfigSource{
		Path: "/cc/plugins/config.json", Scope: catalog.ScopeUser,
		Kind: catalog.KindInstalledPlugins, Exists: true,
	}
	out, _ := ex.Extract("/proj", []catalog.ConfigSource{src})
	if len(out) != 1 {
		t.Fatalf("facts = %d, want 1", len(out))
	}
	if out[0].Definition == nil || out[0].Definition.Command != "npx" {
		t.Errorf("Definition = %+v, want inline npx command", out[0].Definition)
	}
}

func TestExtractSkipsMalformedSource(t *testing.T) {
	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/proj/.mcp.json":                   `{not json`,
		"/proj/.claude/settings.local.json": `{"enabledMcpjsonServers": ["github"]}`,
	})}

	sources := []catalog.ConfigSource{
		{Path: "/proj/.mcp.json", Scope: catalog.ScopeProject, Kind: catalog.KindMCP, Exists: true},
		{Path: "/proj/.claude/settings.local.json", Scope: catalog.ScopeLocal, Kind: catalog.KindSettings, Exists: true},
	}
	out, errs := ex.Extract("/proj", sources)

	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one for the malformed file", errs)
	}
	// The healthy source still contributes.
	if len(out) != 1 || out[0].ServerName != "github" {
		t.Errorf("facts = %+v, want the settings enable fact", out)
	}
}

func TestExtractSkipsMissingSources(t *testing.T) {
	ex := &Extractor{ReadJSON: fixtureReader(nil)}

	sources := []catalog.ConfigSource{
		{Path: "/proj/.mcp.json", Scope: catalog.ScopeProject, Kind: catalog.KindMCP, Exists: false},
	}
	out, errs := ex.Extract("/proj", sources)
	if len(out) != 0 || len(errs) != 0 {
		t.Errorf("Extract = (%v, %v), want nothing for missing sources", out, errs)
	}
}

func TestSplitPluginKey(t *testing.T) {
	tests := []struct {
		key            string
		plugin, market string
		ok             bool
	}{
		{"web-tools@community", "web-tools", "community", true},
		{"no-at-sign", "", "", false},
		{"@community", "", "", false},
		{"web-tools@", "", "", false},
		{"a@b@c", "", "", false},
	}
	for _, tt := range tests {
		plugin, market, ok := splitPluginKey(tt.key)
		if plugin != tt.plugin || market != tt.market || ok != tt.ok {
			t.Errorf("splitPluginKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.key, plugin, market, ok, tt.plugin, tt.market, tt.ok)
		}
	}
}

func TestListMarketplacePlugins(t *testing.T) {
	ex := &Extractor{ReadJSON: fixtureReader(map[string]string{
		"/mkt/community/.claude-plugin/marketplace.json": `{
			"name": "community",
			"plugins": [
				{"name": "web-tools", "description": "Web fetch tools"},
				{"name": "db-tools"}
			]
		}`,
	})}

	sources := []catalog.ConfigSource{
		{Path: "/mkt/community/.claude-plugin/marketplace.json", Kind: catalog.KindPlugin,
			Exists: true, Marketplace: "community"},
		{Path: "/proj/.mcp.json", Kind: catalog.KindMCP, Exists: true},
	}
	installed := map[string]bool{"web-tools@community": true}

	plugins := ex.ListMarketplacePlugins(sources, installed)
	if len(plugins) != 2 {
		t.Fatalf("plugins = %d, want 2", len(plugins))
	}
	if !plugins[0].Installed {
		t.Error("web-tools not flagged installed")
	}
	if plugins[1].Installed {
		t.Error("db-tools flagged installed")
	}
	if plugins[0].Description != "Web fetch tools" {
		t.Errorf("description = %q", plugins[0].Description)
	}
}
