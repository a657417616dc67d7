// Package facts extracts typed resolution facts from configuration sources.
//
// A fact is the atomic unit the resolver consumes: a server definition, an
// enable or disable marker, a plugin hard-disable, or a runtime-disable
// token. Facts are ephemeral; they are produced fresh on every load and
// never persisted. Extraction never produces resolved servers; combining
// facts is entirely the resolver's job.
package facts

import (
	"github.com/henkisdabro/mcpsel/internal/catalog"
)

// Kind discriminates the fact union. Every consumer switches exhaustively
// over it; optional-field presence is never used to classify a fact.
type Kind string

const (
	// KindDef carries a server definition body.
	KindDef Kind = "def"
	// KindEnable marks a server (or plugin, when SourceType is plugin) enabled.
	KindEnable Kind = "enable"
	// KindDisable marks a server disabled at the fact's scope.
	KindDisable Kind = "disable"
	// KindDisablePlugin is a plugin hard-disable (enabledPlugins entry set to false).
	KindDisablePlugin Kind = "disable-plugin"
	// KindRuntimeDisable is an entry of a disabledMcpServers list.
	KindRuntimeDisable Kind = "runtime-disable"
	// KindEnableAllProject is the enableAllProjectMcpServers settings flag.
	KindEnableAllProject Kind = "enable-all-project"
)

// SourceType records where a definition came from, which dictates both its
// identity format and the write path used to change its state.
type SourceType string

const (
	// SourceMCPJSON is a .mcp.json style definition (enterprise, project or user).
	SourceMCPJSON SourceType = "mcpjson"
	// SourceDirectGlobal is a root-level entry of ~/.claude.json.
	SourceDirectGlobal SourceType = "direct-global"
	// SourceDirectLocal is a per-project entry of ~/.claude.json.
	SourceDirectLocal SourceType = "direct-local"
	// SourcePlugin is a server exposed by an installed plugin.
	SourcePlugin SourceType = "plugin"
)

// IsDirect reports whether t is one of the direct root-config source types.
// Direct servers have no mcpjson enable/disable arrays; the disabledMcpServers
// list is their only control mechanism.
func (t SourceType) IsDirect() bool {
	return t == SourceDirectGlobal || t == SourceDirectLocal
}

// Fact is one extracted observation about a server.
type Fact struct {
	// Kind discriminates the union.
	Kind Kind

	// ServerName identifies the subject. For KindDef with SourcePlugin it is
	// the full "serverKey:pluginName@marketplace" name; for plugin
	// enablement facts it is the "pluginName@marketplace" key; for
	// KindRuntimeDisable it is the raw list token; KindEnableAllProject has
	// no subject and leaves it empty.
	ServerName string

	// Scope is the authority tier of the source file.
	Scope catalog.Scope

	// SourceFile is the file the fact was extracted from.
	SourceFile string

	// SourceType is set on KindDef facts, and on KindEnable facts produced
	// from an enabledPlugins entry (SourcePlugin) so the resolver can route
	// them to the plugin enablement map.
	SourceType SourceType

	// Definition is the payload of a KindDef fact; nil for all other kinds.
	Definition *Definition
}

// Definition is a server's connection/launch configuration.
// Absent collections unmarshal to empty values; downstream code never needs
// nil checks beyond the Definition pointer itself.
type Definition struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// CommandLine returns the full command array (command followed by args).
// Returns nil for URL-based servers.
func (d *Definition) CommandLine() []string {
	if d == nil || d.Command == "" {
		return nil
	}
	line := make([]string, 0, 1+len(d.Args))
	line = append(line, d.Command)
	return append(line, d.Args...)
}
