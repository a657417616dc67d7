// Package catalog enumerates the candidate configuration files that can
// contribute MCP server definitions or enable/disable state.
//
// The set of sources is fixed and platform-aware; only the marketplace scan
// is dynamic. Discovery is cheap and recomputed on every load, and the
// enumeration order is part of the package contract: the resolver breaks
// equal-priority ties by taking the last fact extracted, so reordering
// sources changes observable behavior.
package catalog

import (
	"os"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/paths"
)

// Scope is the authority tier of a configuration source.
// Higher priority always outranks lower; this ordering is the single source
// of truth for every precedence decision.
type Scope string

const (
	ScopeEnterprise Scope = "enterprise"
	ScopeLocal      Scope = "local"
	ScopeProject    Scope = "project"
	ScopeUser       Scope = "user"
)

// Priority returns the scope's rank on the authority ladder:
// enterprise(4) > local(3) > project(2) > user(1).
func (s Scope) Priority() int {
	switch s {
	case ScopeEnterprise:
		return 4
	case ScopeLocal:
		return 3
	case ScopeProject:
		return 2
	case ScopeUser:
		return 1
	default:
		return 0
	}
}

// SourceKind classifies what a configuration file contains and therefore
// which facts can be extracted from it.
type SourceKind string

const (
	// KindSettings is a settings(.local).json file: enable/disable arrays,
	// the enabledPlugins map, and enableAllProjectMcpServers.
	KindSettings SourceKind = "settings"
	// KindMCP is a .mcp.json style file: a bare mcpServers definition map.
	KindMCP SourceKind = "mcp"
	// KindClaude is the root ~/.claude.json config: global definitions,
	// per-project sections, and disabled-server lists.
	KindClaude SourceKind = "claude"
	// KindEnterprise is the managed-settings.json policy file.
	KindEnterprise SourceKind = "enterprise"
	// KindInstalledPlugins is the installed-plugins manifest.
	KindInstalledPlugins SourceKind = "installed-plugins"
	// KindPlugin is an installed marketplace's manifest.
	KindPlugin SourceKind = "plugin"
)

// ConfigSource identifies one candidate configuration file.
// Sources are immutable and recomputed on every load; they are never persisted.
type ConfigSource struct {
	// Path is the absolute file path.
	Path string
	// Scope is the authority tier facts from this source carry.
	Scope Scope
	// Kind determines which extractor handles the file.
	Kind SourceKind
	// Exists reports whether the file was present at discovery time.
	Exists bool
	// Marketplace is set for KindPlugin sources: the marketplace directory name.
	Marketplace string
}

// Discover returns the full source list for a working directory, in the
// fixed extraction order:
//
//  1. enterprise managed-settings.json and managed-mcp.json
//  2. user-level files (~/.claude.json, ~/.claude/settings.json, ~/.claude/.mcp.json)
//  3. plugin manifest and installed marketplaces
//  4. project files (<cwd>/.mcp.json, <cwd>/.claude/settings.json)
//  5. local overrides (<cwd>/.claude/settings.local.json)
//
// Lower-authority sources come first so that, at equal priority, later facts
// from more specific files win the resolver's last-wins tie-break.
func Discover(cwd string) []ConfigSource {
	sources := []ConfigSource{
		{Path: paths.ManagedSettingsPath(), Scope: ScopeEnterprise, Kind: KindEnterprise},
		{Path: paths.ManagedMCPPath(), Scope: ScopeEnterprise, Kind: KindMCP},
		{Path: paths.RootConfigPath(), Scope: ScopeUser, Kind: KindClaude},
		{Path: paths.UserSettingsPath(), Scope: ScopeUser, Kind: KindSettings},
		{Path: paths.UserMCPPath(), Scope: ScopeUser, Kind: KindMCP},
		{Path: paths.InstalledPluginsPath(), Scope: ScopeUser, Kind: KindInstalledPlugins},
	}

	sources = append(sources, marketplaceSources()...)

	sources = append(sources,
		ConfigSource{Path: paths.ProjectMCPPath(cwd), Scope: ScopeProject, Kind: KindMCP},
		ConfigSource{Path: paths.ProjectSettingsPath(cwd), Scope: ScopeProject, Kind: KindSettings},
		ConfigSource{Path: paths.LocalSettingsPath(cwd), Scope: ScopeLocal, Kind: KindSettings},
	)

	for i := range sources {
		if sources[i].Path == "" {
			continue
		}
		if info, err := os.Stat(sources[i].Path); err == nil && !info.IsDir() {
			sources[i].Exists = true
		}
	}

	return sources
}

// marketplaceSources scans the installed-marketplaces directory and returns
// one KindPlugin source per marketplace that carries a manifest. The scan is
// sorted by marketplace name so extraction order stays deterministic.
func marketplaceSources() []ConfigSource {
	dir := paths.MarketplacesDir()
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Missing directory means no plugins installed; not an error.
		return nil
	}

	var marketplaces []string
	for _, e := range entries {
		if e.IsDir() {
			marketplaces = append(marketplaces, e.Name())
		}
	}
	sort.Strings(marketplaces)

	sources := make([]ConfigSource, 0, len(marketplaces))
	for _, m := range marketplaces {
		sources = append(sources, ConfigSource{
			Path:        paths.MarketplaceManifestPath(m),
			Scope:       ScopeUser,
			Kind:        KindPlugin,
			Marketplace: m,
		})
	}
	return sources
}

// ValidScope reports whether s is one of the four known scopes.
func ValidScope(s Scope) bool {
	return s.Priority() > 0
}

// ParseScope converts a string to a Scope, validating it.
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !ValidScope(scope) {
		return "", errors.Newf("unknown scope %q", s)
	}
	return scope, nil
}
