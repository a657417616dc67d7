// Package resolver merges extracted facts into one consistent Server view.
//
// Resolution answers two independent questions per server name (where is it
// defined, and is it on), each governed by the same scope-priority ladder
// (enterprise > local > project > user). The merge guarantees exactly one
// Server per distinct name.
//
// Tie-breaking is an explicit contract: a fact replaces the stored winner
// when its scope priority is greater than or equal to the stored one, so at
// equal priority the last fact in extraction order wins. The catalog's fixed
// enumeration order makes this deterministic.
package resolver

import (
	"sort"

	"github.com/henkisdabro/mcpsel/internal/catalog"
	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/names"
	"github.com/henkisdabro/mcpsel/internal/policy"
)

// State is a server's configured on/off setting.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

// Runtime is a server's last observed live status.
type Runtime string

const (
	RuntimeRunning Runtime = "running"
	RuntimeStopped Runtime = "stopped"
	RuntimeUnknown Runtime = "unknown"
)

// Flags annotate a server with access-control results.
type Flags struct {
	// Enterprise marks servers defined at enterprise scope.
	Enterprise bool
	// Blocked means an enterprise deny rule matched.
	Blocked bool
	// Restricted means the enterprise allowlist did not admit the server.
	Restricted bool
}

// Server is the resolved record for one unique server name.
type Server struct {
	Name           string
	State          State
	Scope          catalog.Scope
	DefinitionFile string
	SourceType     facts.SourceType
	Flags          Flags
	Runtime        Runtime
	Definition     *facts.Definition
}

// Subject converts the server into the access-control matcher's input shape.
func (s *Server) Subject() policy.Subject {
	sub := policy.Subject{
		Name:       s.Name,
		Enterprise: s.Scope == catalog.ScopeEnterprise,
	}
	if s.Definition != nil {
		sub.Command = s.Definition.CommandLine()
		sub.URL = s.Definition.URL
	}
	return sub
}

// Resolve merges a fact stream into the resolved server set, annotated with
// the given enterprise policy (nil means no policy). The result is sorted by
// name and contains exactly one Server per distinct definition name.
func Resolve(factList []facts.Fact, pol *policy.Policy) []*Server {
	return accumulate(factList).merge(pol)
}

// defEntry tracks the winning definition fact for one name.
type defEntry struct {
	priority int
	factIdx  int
}

// stateEntry tracks the winning enable/disable fact for one name.
type stateEntry struct {
	priority int
	on       bool
	factIdx  int
}

// pluginEntry tracks the winning enablement fact for one plugin key.
type pluginEntry struct {
	priority int
	enabled  bool
	factIdx  int
}

// enableAllEntry records one enable-all-project fact.
type enableAllEntry struct {
	priority int
	factIdx  int
}

// accumulator holds the intermediate maps of the two accumulation passes.
// Fact indices into the original stream are retained so TracePrecedence can
// point at the exact winning facts.
type accumulator struct {
	facts []facts.Fact

	// defs keys by server name.
	defs map[string]defEntry
	// states keys by server name; holds config state for non-plugin servers.
	states map[string]stateEntry
	// plugins keys by plugin key ("pluginName@marketplace"), separately from
	// states: enabledPlugins entries apply at the plugin level even when a
	// plugin exposes multiple servers.
	plugins map[string]pluginEntry
	// disableTokens maps each raw runtime-disable token to its fact.
	disableTokens map[string]int
	// disableFragments maps the derived "serverKey:pluginName" fragment of
	// plugin-format tokens to the token's fact, so full server names with a
	// trailing "@marketplace" suffix can match.
	disableFragments map[string]int
	// enableAll records enable-all-project facts.
	enableAll []enableAllEntry
}

// accumulate runs the accumulation passes over the fact stream in order.
func accumulate(factList []facts.Fact) *accumulator {
	a := &accumulator{
		facts:            factList,
		defs:             make(map[string]defEntry),
		states:           make(map[string]stateEntry),
		plugins:          make(map[string]pluginEntry),
		disableTokens:    make(map[string]int),
		disableFragments: make(map[string]int),
	}

	for i, f := range factList {
		prio := f.Scope.Priority()
		switch f.Kind {
		case facts.KindDef:
			if cur, ok := a.defs[f.ServerName]; !ok || prio >= cur.priority {
				a.defs[f.ServerName] = defEntry{priority: prio, factIdx: i}
			}

		case facts.KindEnable:
			if f.SourceType == facts.SourcePlugin {
				// ServerName is a plugin key here.
				if cur, ok := a.plugins[f.ServerName]; !ok || prio >= cur.priority {
					a.plugins[f.ServerName] = pluginEntry{priority: prio, enabled: true, factIdx: i}
				}
				continue
			}
			if cur, ok := a.states[f.ServerName]; !ok || prio >= cur.priority {
				a.states[f.ServerName] = stateEntry{priority: prio, on: true, factIdx: i}
			}

		case facts.KindDisable:
			if cur, ok := a.states[f.ServerName]; !ok || prio >= cur.priority {
				a.states[f.ServerName] = stateEntry{priority: prio, on: false, factIdx: i}
			}

		case facts.KindDisablePlugin:
			if cur, ok := a.plugins[f.ServerName]; !ok || prio >= cur.priority {
				a.plugins[f.ServerName] = pluginEntry{priority: prio, enabled: false, factIdx: i}
			}

		case facts.KindRuntimeDisable:
			a.disableTokens[f.ServerName] = i
			if plugin, serverKey, ok := names.ParseDisableToken(f.ServerName); ok {
				a.disableFragments[names.TokenFragment(plugin, serverKey)] = i
			}

		case facts.KindEnableAllProject:
			a.enableAll = append(a.enableAll, enableAllEntry{priority: prio, factIdx: i})
		}
	}

	return a
}

// runtimeDisabled reports whether name matches the runtime-disable set,
// either as a raw token or via the plugin-token fragment with the
// "@marketplace" suffix stripped. Returns the matching fact index.
func (a *accumulator) runtimeDisabled(name string) (int, bool) {
	if idx, ok := a.disableTokens[name]; ok {
		return idx, true
	}
	if idx, ok := a.disableFragments[names.StripMarketplace(name)]; ok {
		return idx, true
	}
	return 0, false
}

// resolveState computes the configured state for one definition, returning
// the winning state fact index (negative when the state is a default or
// derived from the runtime-disable list rather than an explicit entry).
func (a *accumulator) resolveState(name string, def *facts.Fact) (State, int) {
	// 1. Config-state entry; default on when absent. An enable-all-project
	//    fact acts as an enable entry for mcpjson servers, out-ranking only
	//    strictly lower-priority entries.
	state := StateOn
	winner := -1
	entry, hasEntry := a.states[name]
	if hasEntry {
		state = stateFor(entry.on)
		winner = entry.factIdx
	}
	if def.SourceType == facts.SourceMCPJSON {
		for _, ea := range a.enableAll {
			if !hasEntry || ea.priority > entry.priority {
				if state != StateOn {
					state = StateOn
					winner = ea.factIdx
				}
			}
		}
	}

	// 2. Plugin servers take their state from the plugin enablement map;
	//    only an explicit false turns them off.
	if def.SourceType == facts.SourcePlugin {
		state = StateOn
		winner = -1
		if ps, err := names.ParseFullName(name); err == nil {
			if pe, ok := a.plugins[ps.PluginKey()]; ok {
				state = stateFor(pe.enabled)
				winner = pe.factIdx
			}
		}
	}

	// 3. For direct servers the disabledMcpServers list is the only control
	//    mechanism, not merely a pause signal.
	if def.SourceType.IsDirect() {
		if idx, ok := a.runtimeDisabled(name); ok {
			state = StateOff
			winner = idx
		}
	}

	return state, winner
}

// merge produces the resolved server set.
func (a *accumulator) merge(pol *policy.Policy) []*Server {
	servers := make([]*Server, 0, len(a.defs))

	for name, de := range a.defs {
		def := a.facts[de.factIdx]

		state, _ := a.resolveState(name, &def)

		// Stopped means configured on but present in the runtime-disable
		// list: the "paused" display state for plugin/mcpjson servers.
		runtime := RuntimeUnknown
		if state == StateOn {
			if _, ok := a.runtimeDisabled(name); ok {
				runtime = RuntimeStopped
			}
		}

		srv := &Server{
			Name:           name,
			State:          state,
			Scope:          def.Scope,
			DefinitionFile: def.SourceFile,
			SourceType:     def.SourceType,
			Runtime:        runtime,
			Definition:     def.Definition,
		}
		srv.Flags.Enterprise = def.Scope == catalog.ScopeEnterprise

		verdict := pol.Evaluate(srv.Subject())
		srv.Flags.Blocked = verdict.Blocked
		srv.Flags.Restricted = verdict.Restricted

		servers = append(servers, srv)
	}

	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Name < servers[j].Name
	})
	return servers
}

func stateFor(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}
