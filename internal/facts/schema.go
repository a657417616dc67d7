package facts

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/pkg/fileutil"
)

// ReadJSONFunc parses the JSON file at path into out.
// It returns (false, nil) when the file does not exist, (true, nil) on
// success, and (false, err) when the file exists but cannot be parsed.
//
// Extraction and plugin resolution go through this seam so tests can feed
// fixtures without touching the real filesystem layout.
type ReadJSONFunc func(path string, out any) (bool, error)

// ReadJSONFile is the production ReadJSONFunc.
func ReadJSONFile(path string, out any) (bool, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if os.IsNotExist(errors.UnwrapAll(err)) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrapf(err, "parsing %s", path)
	}
	return true, nil
}

// mcpFile is the schema of .mcp.json style files.
type mcpFile struct {
	MCPServers map[string]*Definition `json:"mcpServers"`
}

// settingsFile is the schema of settings.json / settings.local.json, reduced
// to the fields that drive server state.
type settingsFile struct {
	EnabledMCPJSONServers      []string        `json:"enabledMcpjsonServers"`
	DisabledMCPJSONServers     []string        `json:"disabledMcpjsonServers"`
	EnableAllProjectMCPServers bool            `json:"enableAllProjectMcpServers"`
	EnabledPlugins             map[string]bool `json:"enabledPlugins"`
}

// rootConfigFile is the schema of ~/.claude.json, reduced to the fields this
// tool reads. The full file holds much more; the writer preserves everything
// it does not understand.
type rootConfigFile struct {
	MCPServers         map[string]*Definition       `json:"mcpServers"`
	DisabledMCPServers []string                     `json:"disabledMcpServers"`
	Projects           map[string]rootProjectConfig `json:"projects"`
}

// rootProjectConfig is one per-project section of the root config, keyed by
// normalized project path.
type rootProjectConfig struct {
	MCPServers             map[string]*Definition `json:"mcpServers"`
	DisabledMCPServers     []string               `json:"disabledMcpServers"`
	EnabledMCPJSONServers  []string               `json:"enabledMcpjsonServers"`
	DisabledMCPJSONServers []string               `json:"disabledMcpjsonServers"`
}

// installedPluginsFile is the schema of the installed-plugins manifest.
// Each key is a "pluginName@marketplace" plugin key; the value lists installs
// (normally one).
type installedPluginsFile struct {
	Plugins map[string][]pluginInstall `json:"plugins"`
}

type pluginInstall struct {
	InstallPath string `json:"installPath"`
	Version     string `json:"version"`
}

// marketplaceFile is the schema of a marketplace manifest.
type marketplaceFile struct {
	Name    string             `json:"name"`
	Plugins []marketplaceEntry `json:"plugins"`
}

// marketplaceEntry is one plugin listed by a marketplace. Source is either a
// relative path string or an object with a "source" field; MCPServers is
// either an inline server map or a string path to a file containing one.
// Both come in as raw JSON and are decoded on demand.
type marketplaceEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Source      json.RawMessage `json:"source,omitempty"`
	MCPServers  json.RawMessage `json:"mcpServers,omitempty"`
}

// sourceDir decodes the entry's source field into a relative directory path.
func (e *marketplaceEntry) sourceDir() string {
	if len(e.Source) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Source, &s); err == nil {
		return s
	}
	var obj struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(e.Source, &obj); err == nil {
		return obj.Source
	}
	return ""
}
