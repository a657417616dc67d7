package facts

import (
	"encoding/json"
	"path/filepath"

	"github.com/henkisdabro/mcpsel/internal/catalog"
	"github.com/henkisdabro/mcpsel/internal/paths"
)

// resolvePluginServers locates an installed plugin's MCP server map.
// Lookups are tried in order and the first that yields any servers wins:
//
//	(a) the per-install cache: <installPath>/.mcp.json
//	(b) the plugin's declared source directory inside its marketplace
//	(c) an inline server map embedded in the marketplace manifest entry
//	    (itself possibly a string path to another file)
//	(d) the <marketplaceDir>/<pluginName>/.mcp.json fallback
//
// Failures at any step are treated as "no servers here" and the chain moves
// on; a plugin whose servers cannot be located simply contributes nothing.
func (e *Extractor) resolvePluginServers(plugin, marketplace string, install pluginInstall) map[string]*Definition {
	// (a) per-install cache
	if install.InstallPath != "" {
		if servers := e.readServerMap(filepath.Join(install.InstallPath, ".mcp.json")); len(servers) > 0 {
			return servers
		}
	}

	marketDir := filepath.Join(paths.MarketplacesDir(), marketplace)
	entry := e.marketplaceEntry(marketplace, plugin)

	// (b) declared source directory
	if entry != nil {
		if dir := entry.sourceDir(); dir != "" {
			if servers := e.readServerMap(filepath.Join(marketDir, dir, ".mcp.json")); len(servers) > 0 {
				return servers
			}
		}
	}

	// (c) inline map, or a string path to a server map file
	if entry != nil && len(entry.MCPServers) > 0 {
		if servers := e.inlineServers(entry.MCPServers, marketDir); len(servers) > 0 {
			return servers
		}
	}

	// (d) marketplace/<pluginName> fallback
	return e.readServerMap(filepath.Join(marketDir, plugin, ".mcp.json"))
}

// marketplaceEntry loads the marketplace manifest and finds the plugin's entry.
func (e *Extractor) marketplaceEntry(marketplace, plugin string) *marketplaceEntry {
	manifestPath := paths.MarketplaceManifestPath(marketplace)
	if manifestPath == "" {
		return nil
	}
	var manifest marketplaceFile
	ok, err := e.ReadJSON(manifestPath, &manifest)
	if err != nil || !ok {
		return nil
	}
	for i := range manifest.Plugins {
		if manifest.Plugins[i].Name == plugin {
			return &manifest.Plugins[i]
		}
	}
	return nil
}

// readServerMap reads a .mcp.json style file, tolerating both the wrapped
// {"mcpServers": {...}} shape and a bare server map.
func (e *Extractor) readServerMap(path string) map[string]*Definition {
	var file mcpFile
	ok, err := e.ReadJSON(path, &file)
	if err != nil || !ok {
		return nil
	}
	if len(file.MCPServers) > 0 {
		return file.MCPServers
	}
	var bare map[string]*Definition
	if ok, err := e.ReadJSON(path, &bare); err == nil && ok {
		// A bare map parse also matches the wrapped form, in which case the
		// only key is "mcpServers" and decoding it as a Definition yields
		// nothing useful; treat that as empty.
		delete(bare, "mcpServers")
		return bare
	}
	return nil
}

// inlineServers decodes a manifest entry's mcpServers field: either an inline
// server map or a string path (relative to the marketplace directory) to a
// file containing one.
func (e *Extractor) inlineServers(raw json.RawMessage, marketDir string) map[string]*Definition {
	var inline map[string]*Definition
	if err := json.Unmarshal(raw, &inline); err == nil {
		return inline
	}
	var path string
	if err := json.Unmarshal(raw, &path); err == nil && path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(marketDir, path)
		}
		return e.readServerMap(path)
	}
	return nil
}

// MarketplacePlugin is one plugin offered by an installed marketplace,
// whether or not it is installed.
type MarketplacePlugin struct {
	Name        string
	Marketplace string
	Description string
	Installed   bool
}

// ListMarketplacePlugins returns every plugin advertised by the installed
// marketplaces, flagging the ones present in the installed set (keyed by
// "pluginName@marketplace"). This is a read-only listing for installation
// flows; it never feeds resolution, which only considers installed plugins.
func (e *Extractor) ListMarketplacePlugins(sources []catalog.ConfigSource, installed map[string]bool) []MarketplacePlugin {
	var out []MarketplacePlugin
	for _, src := range sources {
		if src.Kind != catalog.KindPlugin || !src.Exists {
			continue
		}
		var manifest marketplaceFile
		ok, err := e.ReadJSON(src.Path, &manifest)
		if err != nil || !ok {
			continue
		}
		for _, entry := range manifest.Plugins {
			if entry.Name == "" {
				continue
			}
			out = append(out, MarketplacePlugin{
				Name:        entry.Name,
				Marketplace: src.Marketplace,
				Description: entry.Description,
				Installed:   installed[entry.Name+"@"+src.Marketplace],
			})
		}
	}
	return out
}
