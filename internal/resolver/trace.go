package resolver

import (
	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/names"
)

// ErrNoDefinition indicates a trace was requested for a name no def fact
// mentions.
var ErrNoDefinition = errors.New("no definition found for server")

// Trace explains how one server resolved: every contributing fact and which
// of them won the definition and state questions. It reproduces the exact
// winners Resolve would pick because it runs the same accumulation.
type Trace struct {
	// Name is the server under inspection.
	Name string

	// Contributing lists every fact that referenced this server, in
	// extraction order: defs and enable/disable entries for the name,
	// enablement facts for its plugin key, matching runtime-disable tokens,
	// and enable-all-project facts for mcpjson servers.
	Contributing []facts.Fact

	// DefWinner is the fact whose definition won.
	DefWinner facts.Fact

	// StateWinner is the fact that decided the configured state; nil when
	// the state is the implicit default (on with no explicit entry).
	StateWinner *facts.Fact

	// State and Runtime are the resolved results, for cross-checking
	// against the merged view.
	State   State
	Runtime Runtime
}

// TracePrecedence explains the resolution of a single server name against a
// fact stream. Use it to troubleshoot precedence surprises: the winners
// reported here are by construction the ones Resolve picks.
func TracePrecedence(factList []facts.Fact, name string) (*Trace, error) {
	a := accumulate(factList)

	de, ok := a.defs[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoDefinition, "%q", name)
	}
	def := a.facts[de.factIdx]

	state, stateIdx := a.resolveState(name, &def)

	runtime := RuntimeUnknown
	if state == StateOn {
		if _, disabled := a.runtimeDisabled(name); disabled {
			runtime = RuntimeStopped
		}
	}

	trace := &Trace{
		Name:      name,
		DefWinner: def,
		State:     state,
		Runtime:   runtime,
	}
	if stateIdx >= 0 {
		winner := a.facts[stateIdx]
		trace.StateWinner = &winner
	}

	pluginKey := ""
	if ps, err := names.ParseFullName(name); err == nil {
		pluginKey = ps.PluginKey()
	}
	stripped := names.StripMarketplace(name)

	for _, f := range factList {
		if contributes(&f, name, pluginKey, stripped, def.SourceType) {
			trace.Contributing = append(trace.Contributing, f)
		}
	}
	return trace, nil
}

// contributes reports whether a fact participates in resolving the named
// server.
func contributes(f *facts.Fact, name, pluginKey, stripped string, st facts.SourceType) bool {
	switch f.Kind {
	case facts.KindDef:
		return f.ServerName == name
	case facts.KindEnable:
		if f.SourceType == facts.SourcePlugin {
			return pluginKey != "" && f.ServerName == pluginKey
		}
		return f.ServerName == name
	case facts.KindDisable:
		return f.ServerName == name
	case facts.KindDisablePlugin:
		return pluginKey != "" && f.ServerName == pluginKey
	case facts.KindRuntimeDisable:
		if f.ServerName == name {
			return true
		}
		if plugin, serverKey, ok := names.ParseDisableToken(f.ServerName); ok {
			return names.TokenFragment(plugin, serverKey) == stripped
		}
		return false
	case facts.KindEnableAllProject:
		return st == facts.SourceMCPJSON
	default:
		return false
	}
}
