// Package selector orchestrates the load → resolve → toggle → save cycle.
//
// A Manager owns one in-memory server set for one working directory. The set
// is disposable: every Load re-derives it from the configuration files, and
// nothing in memory is authoritative across process restarts. There is no
// package-level state; callers construct and thread a Manager explicitly.
package selector

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/catalog"
	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/paths"
	"github.com/henkisdabro/mcpsel/internal/policy"
	"github.com/henkisdabro/mcpsel/internal/probe"
	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/toggle"
	"github.com/henkisdabro/mcpsel/internal/writer"
)

// Manager holds the resolved server set for one working directory.
type Manager struct {
	cwd       string
	log       *slog.Logger
	extractor *facts.Extractor
	prober    probe.Prober
	writer    *writer.Writer

	sources  []catalog.ConfigSource
	factList []facts.Fact
	servers  []*resolver.Server
	policy   *policy.Policy
	loadErrs []error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithExtractor overrides the fact extractor (used by tests to inject
// fixture file readers).
func WithExtractor(e *facts.Extractor) Option {
	return func(m *Manager) { m.extractor = e }
}

// WithProber sets the runtime status prober. Nil disables probing.
func WithProber(p probe.Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithWriter overrides the persistence writer.
func WithWriter(w *writer.Writer) Option {
	return func(m *Manager) { m.writer = w }
}

// NewManager creates a Manager for the given working directory.
func NewManager(cwd string, opts ...Option) *Manager {
	m := &Manager{
		cwd: cwd,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.extractor == nil {
		m.extractor = facts.NewExtractor(m.log)
	}
	if m.writer == nil {
		m.writer = &writer.Writer{Log: m.log}
	}
	return m
}

// Load discovers sources, extracts facts, loads the enterprise policy, and
// resolves the server set. Malformed sources, the policy file included, are
// collected into LoadErrors and skipped; Load never aborts on one bad file.
// An unparseable policy file is replaced by a lockdown policy so resolution
// continues with every non-enterprise server restricted rather than allowed.
func (m *Manager) Load(ctx context.Context) error {
	m.sources = catalog.Discover(m.cwd)

	pol, polErr := policy.Load(policy.ReadJSONFunc(m.extractor.ReadJSON), paths.ManagedSettingsPath())
	if polErr != nil {
		pol = policy.Lockdown()
	}
	m.policy = pol

	m.factList, m.loadErrs = m.extractor.Extract(m.cwd, m.sources)
	if polErr != nil {
		m.loadErrs = append(m.loadErrs, polErr)
	}
	m.servers = resolver.Resolve(m.factList, m.policy)

	if m.prober != nil {
		m.overlayRuntime(m.prober.Probe(ctx))
	}
	return nil
}

// overlayRuntime refines unknown runtimes with live probe results. Paused
// servers keep their stopped runtime regardless of what the probe says: the
// pause is configured, not observed.
func (m *Manager) overlayRuntime(statuses map[string]probe.Status) {
	for _, s := range m.servers {
		if s.State != resolver.StateOn || s.Runtime != resolver.RuntimeUnknown {
			continue
		}
		switch statuses[s.Name] {
		case probe.StatusRunning:
			s.Runtime = resolver.RuntimeRunning
		case probe.StatusStopped:
			s.Runtime = resolver.RuntimeStopped
		}
	}
}

// Servers returns the resolved set, sorted by name.
func (m *Manager) Servers() []*resolver.Server {
	return m.servers
}

// Sources returns the discovered configuration sources.
func (m *Manager) Sources() []catalog.ConfigSource {
	return m.sources
}

// LoadErrors returns the malformed-source errors collected by the last Load.
func (m *Manager) LoadErrors() []error {
	return m.loadErrs
}

// Get returns the resolved server with the given name.
func (m *Manager) Get(name string) (*resolver.Server, error) {
	for _, s := range m.servers {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, errors.Wrapf(mcperrors.ErrServerNotFound, "%q", name)
}

// Toggle advances the named server one step along the display cycle.
func (m *Manager) Toggle(name string) toggle.Result {
	return m.apply(name, toggle.Toggle)
}

// Enable turns the named server on.
func (m *Manager) Enable(name string) toggle.Result {
	return m.apply(name, toggle.Enable)
}

// Disable turns the named server off.
func (m *Manager) Disable(name string) toggle.Result {
	return m.apply(name, toggle.Disable)
}

// Pause moves the named server to the paused (orange) state.
func (m *Manager) Pause(name string) toggle.Result {
	return m.apply(name, toggle.Pause)
}

func (m *Manager) apply(name string, op func(*resolver.Server) toggle.Result) toggle.Result {
	s, err := m.Get(name)
	if err != nil {
		return toggle.Result{Success: false, Reason: err.Error()}
	}
	return op(s)
}

// EnableAll enables every server independently; guard failures leave the
// affected server unchanged and are reported per name.
func (m *Manager) EnableAll() map[string]toggle.Result {
	return toggle.EnableAll(m.servers)
}

// DisableAll disables every server independently.
func (m *Manager) DisableAll() map[string]toggle.Result {
	return toggle.DisableAll(m.servers)
}

// Trace explains how the named server resolved.
func (m *Manager) Trace(name string) (*resolver.Trace, error) {
	return resolver.TracePrecedence(m.factList, name)
}

// Save commits the current in-memory state back to disk. The next Load
// re-derives everything from the files.
func (m *Manager) Save() *writer.Report {
	return m.writer.Save(m.cwd, m.servers)
}
