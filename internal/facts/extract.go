package facts

import (
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/catalog"
	"github.com/henkisdabro/mcpsel/internal/names"
	"github.com/henkisdabro/mcpsel/internal/paths"
)

// Extractor turns configuration sources into facts.
type Extractor struct {
	// ReadJSON is the file parsing collaborator. Defaults to ReadJSONFile.
	ReadJSON ReadJSONFunc

	// Log receives warnings about malformed sources. Defaults to a discard
	// logger when nil.
	Log *slog.Logger
}

// NewExtractor creates an Extractor using the production file reader.
func NewExtractor(log *slog.Logger) *Extractor {
	return &Extractor{ReadJSON: ReadJSONFile, Log: log}
}

// Extract walks the source list in order and emits every fact found.
//
// A malformed source is reported in the returned error slice and skipped;
// extraction never aborts because one file failed to parse. Missing files
// are normal and produce neither facts nor errors. The returned fact order
// follows source order exactly, which is what makes the resolver's
// last-wins tie-break deterministic.
func (e *Extractor) Extract(cwd string, sources []catalog.ConfigSource) ([]Fact, []error) {
	var out []Fact
	var errs []error

	for _, src := range sources {
		if !src.Exists {
			continue
		}

		var (
			fs  []Fact
			err error
		)
		switch src.Kind {
		case catalog.KindMCP:
			fs, err = e.extractMCP(src)
		case catalog.KindSettings:
			fs, err = e.extractSettings(src)
		case catalog.KindClaude:
			fs, err = e.extractRootConfig(src, cwd)
		case catalog.KindInstalledPlugins:
			fs, err = e.extractInstalledPlugins(src)
		case catalog.KindEnterprise, catalog.KindPlugin:
			// Policy files are handled by the policy package; marketplace
			// manifests only contribute during installed-plugin resolution
			// and the read-only marketplace listing.
			continue
		default:
			err = errors.Newf("unknown source kind %q", src.Kind)
		}

		if err != nil {
			e.log().Warn("skipping malformed config source", "path", src.Path, "error", err)
			errs = append(errs, errors.Wrapf(err, "source %s", src.Path))
			continue
		}
		out = append(out, fs...)
	}

	return out, errs
}

func (e *Extractor) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.New(slog.DiscardHandler)
}

// extractMCP emits one def fact per server in a .mcp.json style file.
// Enterprise-scope files carry the same shape as project/user ones.
func (e *Extractor) extractMCP(src catalog.ConfigSource) ([]Fact, error) {
	var file mcpFile
	ok, err := e.ReadJSON(src.Path, &file)
	if err != nil || !ok {
		return nil, err
	}

	out := make([]Fact, 0, len(file.MCPServers))
	for _, name := range sortedKeys(file.MCPServers) {
		def := file.MCPServers[name]
		if def == nil {
			def = &Definition{}
		}
		out = append(out, Fact{
			Kind:       KindDef,
			ServerName: name,
			Scope:      src.Scope,
			SourceFile: src.Path,
			SourceType: SourceMCPJSON,
			Definition: def,
		})
	}
	return out, nil
}

// extractSettings emits enable/disable facts from the mcpjson arrays, plugin
// enablement facts from the enabledPlugins map, and an enable-all-project
// fact when the flag is set.
func (e *Extractor) extractSettings(src catalog.ConfigSource) ([]Fact, error) {
	var file settingsFile
	ok, err := e.ReadJSON(src.Path, &file)
	if err != nil || !ok {
		return nil, err
	}

	var out []Fact
	for _, name := range file.EnabledMCPJSONServers {
		out = append(out, Fact{Kind: KindEnable, ServerName: name, Scope: src.Scope, SourceFile: src.Path})
	}
	for _, name := range file.DisabledMCPJSONServers {
		out = append(out, Fact{Kind: KindDisable, ServerName: name, Scope: src.Scope, SourceFile: src.Path})
	}
	for _, key := range sortedKeys(file.EnabledPlugins) {
		if file.EnabledPlugins[key] {
			out = append(out, Fact{Kind: KindEnable, ServerName: key, Scope: src.Scope, SourceFile: src.Path, SourceType: SourcePlugin})
		} else {
			out = append(out, Fact{Kind: KindDisablePlugin, ServerName: key, Scope: src.Scope, SourceFile: src.Path})
		}
	}
	if file.EnableAllProjectMCPServers {
		out = append(out, Fact{Kind: KindEnableAllProject, Scope: src.Scope, SourceFile: src.Path})
	}
	return out, nil
}

// extractRootConfig emits facts from ~/.claude.json: root-level direct-global
// definitions and runtime-disables at user scope, plus the per-project
// section for the normalized working directory at local scope.
func (e *Extractor) extractRootConfig(src catalog.ConfigSource, cwd string) ([]Fact, error) {
	var file rootConfigFile
	ok, err := e.ReadJSON(src.Path, &file)
	if err != nil || !ok {
		return nil, err
	}

	var out []Fact
	for _, name := range sortedKeys(file.MCPServers) {
		def := file.MCPServers[name]
		if def == nil {
			def = &Definition{}
		}
		out = append(out, Fact{
			Kind:       KindDef,
			ServerName: name,
			Scope:      src.Scope,
			SourceFile: src.Path,
			SourceType: SourceDirectGlobal,
			Definition: def,
		})
	}
	for _, token := range file.DisabledMCPServers {
		out = append(out, Fact{Kind: KindRuntimeDisable, ServerName: token, Scope: src.Scope, SourceFile: src.Path})
	}

	project, found := file.Projects[paths.NormalizeProjectPath(cwd)]
	if !found {
		return out, nil
	}

	for _, name := range sortedKeys(project.MCPServers) {
		def := project.MCPServers[name]
		if def == nil {
			def = &Definition{}
		}
		out = append(out, Fact{
			Kind:       KindDef,
			ServerName: name,
			Scope:      catalog.ScopeLocal,
			SourceFile: src.Path,
			SourceType: SourceDirectLocal,
			Definition: def,
		})
	}
	for _, token := range project.DisabledMCPServers {
		out = append(out, Fact{Kind: KindRuntimeDisable, ServerName: token, Scope: catalog.ScopeLocal, SourceFile: src.Path})
	}
	for _, name := range project.EnabledMCPJSONServers {
		out = append(out, Fact{Kind: KindEnable, ServerName: name, Scope: catalog.ScopeLocal, SourceFile: src.Path})
	}
	for _, name := range project.DisabledMCPJSONServers {
		out = append(out, Fact{Kind: KindDisable, ServerName: name, Scope: catalog.ScopeLocal, SourceFile: src.Path})
	}
	return out, nil
}

// extractInstalledPlugins resolves each installed plugin's server map and
// emits one def fact per server, named "serverKey:pluginName@marketplace"
// and deduplicated by that full name.
func (e *Extractor) extractInstalledPlugins(src catalog.ConfigSource) ([]Fact, error) {
	var file installedPluginsFile
	ok, err := e.ReadJSON(src.Path, &file)
	if err != nil || !ok {
		return nil, err
	}

	var out []Fact
	seen := make(map[string]bool)

	for _, key := range sortedKeys(file.Plugins) {
		installs := file.Plugins[key]
		if len(installs) == 0 {
			continue
		}

		plugin, marketplace, valid := splitPluginKey(key)
		if !valid {
			e.log().Warn("skipping malformed plugin key", "key", key, "path", src.Path)
			continue
		}

		servers := e.resolvePluginServers(plugin, marketplace, installs[0])
		for _, serverKey := range sortedKeys(servers) {
			full := names.FullName(serverKey, plugin, marketplace)
			if seen[full] {
				continue
			}
			seen[full] = true
			def := servers[serverKey]
			if def == nil {
				def = &Definition{}
			}
			out = append(out, Fact{
				Kind:       KindDef,
				ServerName: full,
				Scope:      src.Scope,
				SourceFile: src.Path,
				SourceType: SourcePlugin,
				Definition: def,
			})
		}
	}
	return out, nil
}

// splitPluginKey splits "pluginName@marketplace", requiring exactly one '@'
// and non-empty halves.
func splitPluginKey(key string) (plugin, marketplace string, ok bool) {
	for i := range key {
		if key[i] == '@' {
			plugin, marketplace = key[:i], key[i+1:]
			if plugin == "" || marketplace == "" {
				return "", "", false
			}
			for j := range marketplace {
				if marketplace[j] == '@' {
					return "", "", false
				}
			}
			return plugin, marketplace, true
		}
	}
	return "", "", false
}

// sortedKeys returns the map's keys in sorted order, for deterministic
// extraction output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
