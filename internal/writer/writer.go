// Package writer commits the in-memory server set back to disk.
//
// Two files receive writes: the project's local settings file
// (.claude/settings.local.json) takes the mcpjson enable/disable arrays and
// the enabledPlugins map, and the root config (~/.claude.json) takes the
// per-project disabledMcpServers list. Edits preserve every JSON field they
// do not understand: both files are shared with the host application and a
// lossy rewrite would corrupt unrelated state.
//
// Each target is backed up, locked, and written with an atomic rename. A
// failed lock degrades to an unlocked write with a warning; a failed write
// on one target never prevents attempting the other.
package writer

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/backup"
	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/lockfile"
	"github.com/henkisdabro/mcpsel/internal/names"
	"github.com/henkisdabro/mcpsel/internal/paths"
	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/toggle"
	"github.com/henkisdabro/mcpsel/pkg/fileutil"
)

// Writer persists resolved server state.
type Writer struct {
	// Backups, when non-nil, receives a copy of each target before it is
	// rewritten.
	Backups *backup.Manager

	// Log receives lock-degradation warnings. Defaults to discard when nil.
	Log *slog.Logger
}

// Report is the outcome of a save: which files were written and which
// failed. One file failing does not prevent attempting the other, so both
// slices can be populated at once.
type Report struct {
	FilesWritten []string
	Errors       []error
}

// OK reports whether every target was written.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Save computes the per-file deltas for the server set and commits them.
func (w *Writer) Save(cwd string, servers []*resolver.Server) *Report {
	d := computeDeltas(servers)
	report := &Report{}

	settingsPath := paths.LocalSettingsPath(cwd)
	rootPath := paths.RootConfigPath()

	// Lock both targets up front so a concurrent invocation sees either the
	// old state of both files or the new state of both.
	locks := w.acquireLocks(settingsPath, rootPath)
	defer func() {
		for _, l := range locks {
			l.Release()
		}
	}()

	if err := w.writeSettings(settingsPath, d); err != nil {
		report.Errors = append(report.Errors, errors.Wrapf(err, "writing %s", settingsPath))
	} else {
		report.FilesWritten = append(report.FilesWritten, settingsPath)
	}

	if err := w.writeRootConfig(rootPath, cwd, d); err != nil {
		report.Errors = append(report.Errors, errors.Wrapf(err, "writing %s", rootPath))
	} else {
		report.FilesWritten = append(report.FilesWritten, rootPath)
	}

	return report
}

// acquireLocks takes advisory locks on all targets, degrading to unlocked
// operation with a warning when a lock cannot be acquired.
func (w *Writer) acquireLocks(targets ...string) []*lockfile.Lock {
	var locks []*lockfile.Lock
	for _, target := range targets {
		if target == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			continue
		}
		lock, err := lockfile.Acquire(target)
		if err != nil {
			w.log().Warn("proceeding without lock", "file", target, "error", err)
			continue
		}
		locks = append(locks, lock)
	}
	return locks
}

func (w *Writer) log() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.New(slog.DiscardHandler)
}

// deltas holds the computed per-file write payloads.
type deltas struct {
	enabledMCPJSON  []string
	disabledMCPJSON []string

	// enabledPlugins only ever contains true values. A disabled plugin is
	// omitted entirely: an explicit false hides the plugin from the host UI,
	// which is not what "off" means here.
	enabledPlugins map[string]bool

	// disabledMCPServers is the per-project list in the root config: paused
	// servers, disabled direct servers, and disabled plugin servers (which
	// cannot be turned off through enabledPlugins).
	disabledMCPServers []string
}

// computeDeltas derives the write payloads from the resolved server set.
func computeDeltas(servers []*resolver.Server) deltas {
	d := deltas{enabledPlugins: make(map[string]bool)}
	disabledSet := make(map[string]bool)
	pluginSeen := make(map[string]bool)

	for _, s := range servers {
		display := toggle.GetDisplayState(s)

		switch s.SourceType {
		case facts.SourceMCPJSON:
			if s.State == resolver.StateOn {
				d.enabledMCPJSON = append(d.enabledMCPJSON, s.Name)
			} else {
				d.disabledMCPJSON = append(d.disabledMCPJSON, s.Name)
			}

		case facts.SourcePlugin:
			ps, err := names.ParseFullName(s.Name)
			if err != nil {
				// A plugin def with an unparseable name cannot be persisted.
				continue
			}
			// The first server of a plugin decides; duplicates are skipped.
			if key := ps.PluginKey(); !pluginSeen[key] {
				pluginSeen[key] = true
				if s.State == resolver.StateOn {
					d.enabledPlugins[key] = true
				}
			}
			if display == toggle.Orange || display == toggle.Red {
				disabledSet[ps.DisableToken()] = true
			}

		default:
			// Direct servers: the disabledMcpServers list is their only
			// control mechanism.
			if display != toggle.Green {
				disabledSet[s.Name] = true
			}
		}

		// Paused non-plugin servers also land in disabledMcpServers under
		// their bare name.
		if display == toggle.Orange && s.SourceType != facts.SourcePlugin && !s.SourceType.IsDirect() {
			disabledSet[s.Name] = true
		}
	}

	for token := range disabledSet {
		d.disabledMCPServers = append(d.disabledMCPServers, token)
	}
	sort.Strings(d.enabledMCPJSON)
	sort.Strings(d.disabledMCPJSON)
	sort.Strings(d.disabledMCPServers)
	return d
}

// writeSettings rewrites the local settings file with the mcpjson arrays and
// plugin enablement map, preserving all other fields.
func (w *Writer) writeSettings(path string, d deltas) error {
	if path == "" {
		return errors.New("settings path unavailable")
	}

	doc, err := loadRawObject(path)
	if err != nil {
		return err
	}

	setOrDelete(doc, "enabledMcpjsonServers", d.enabledMCPJSON, len(d.enabledMCPJSON) > 0)
	setOrDelete(doc, "disabledMcpjsonServers", d.disabledMCPJSON, len(d.disabledMCPJSON) > 0)
	setOrDelete(doc, "enabledPlugins", d.enabledPlugins, len(d.enabledPlugins) > 0)

	return w.commit(path, doc)
}

// writeRootConfig rewrites the per-project disabledMcpServers list inside the
// root config, leaving every other byte of the document alone.
func (w *Writer) writeRootConfig(path, cwd string, d deltas) error {
	if path == "" {
		return errors.New("root config path unavailable")
	}

	doc, err := loadRawObject(path)
	if err != nil {
		return err
	}

	projects := make(map[string]json.RawMessage)
	if raw, ok := doc["projects"]; ok {
		if err := json.Unmarshal(raw, &projects); err != nil {
			return errors.Wrap(err, "parsing projects section")
		}
	}

	projectKey := paths.NormalizeProjectPath(cwd)
	project := make(map[string]json.RawMessage)
	if raw, ok := projects[projectKey]; ok {
		if err := json.Unmarshal(raw, &project); err != nil {
			return errors.Wrapf(err, "parsing project section %s", projectKey)
		}
	}

	setOrDelete(project, "disabledMcpServers", d.disabledMCPServers, len(d.disabledMCPServers) > 0)

	projectRaw, err := json.Marshal(project)
	if err != nil {
		return errors.Wrap(err, "encoding project section")
	}
	projects[projectKey] = projectRaw

	projectsRaw, err := json.Marshal(projects)
	if err != nil {
		return errors.Wrap(err, "encoding projects section")
	}
	doc["projects"] = projectsRaw

	return w.commit(path, doc)
}

// commit backs up the target and writes the document atomically.
func (w *Writer) commit(path string, doc map[string]json.RawMessage) error {
	if w.Backups != nil {
		if _, err := w.Backups.Backup(path); err != nil {
			return errors.Wrap(err, "backing up")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}
	return fileutil.AtomicWriteJSON(path, doc)
}

// loadRawObject reads a JSON object file as raw fields, returning an empty
// document when the file does not exist.
func loadRawObject(path string) (map[string]json.RawMessage, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if os.IsNotExist(errors.UnwrapAll(err)) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, err
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing")
	}
	return doc, nil
}

// setOrDelete replaces key with v when keep is true and removes it otherwise.
// Empty collections are dropped rather than written, keeping the files tidy.
func setOrDelete(doc map[string]json.RawMessage, key string, v any, keep bool) {
	if !keep {
		delete(doc, key)
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	doc[key] = raw
}
