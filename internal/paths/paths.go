package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is used for mcpsel's own config and backup directories.
const AppName = "mcpsel"

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory.
// Note: It returns an empty string on error for backward compatibility.
// Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// AppConfigDir returns mcpsel's own configuration directory.
func AppConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// BackupDir returns the root directory for config file backups.
func BackupDir() string {
	return filepath.Join(AppConfigDir(), "backups")
}

// ClaudeDir returns the user-level Claude configuration directory.
// The CLAUDE_CONFIG_DIR environment variable overrides the default ~/.claude.
func ClaudeDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".claude")
}

// RootConfigPath returns the path to the root Claude config file (~/.claude.json).
// This file holds the global mcpServers map, the per-project sections, and the
// disabled-servers lists.
func RootConfigPath() string {
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".claude.json")
}

// UserSettingsPath returns the user-level settings.json path.
func UserSettingsPath() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "settings.json")
}

// UserMCPPath returns the user-level .mcp.json path.
func UserMCPPath() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ".mcp.json")
}

// ProjectSettingsPath returns <projectRoot>/.claude/settings.json.
func ProjectSettingsPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return filepath.Join(projectRoot, ".claude", "settings.json")
}

// LocalSettingsPath returns <projectRoot>/.claude/settings.local.json.
// This file is the git-ignored per-developer override layer.
func LocalSettingsPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return filepath.Join(projectRoot, ".claude", "settings.local.json")
}

// ProjectMCPPath returns <projectRoot>/.mcp.json.
func ProjectMCPPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	return filepath.Join(projectRoot, ".mcp.json")
}

// PluginsDir returns the Claude plugins directory.
func PluginsDir() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "plugins")
}

// InstalledPluginsPath returns the installed-plugins manifest path.
func InstalledPluginsPath() string {
	dir := PluginsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// MarketplacesDir returns the directory containing installed marketplace clones.
func MarketplacesDir() string {
	dir := PluginsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "marketplaces")
}

// MarketplaceManifestPath returns the manifest path inside a marketplace clone.
func MarketplaceManifestPath(marketplace string) string {
	dir := MarketplacesDir()
	if dir == "" || marketplace == "" {
		return ""
	}
	return filepath.Join(dir, marketplace, ".claude-plugin", "marketplace.json")
}

// enterpriseDir returns the machine-wide managed config directory for the
// current operating system.
func enterpriseDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Library/Application Support/ClaudeCode"
	case "windows":
		return `C:\ProgramData\ClaudeCode`
	default:
		return "/etc/claude-code"
	}
}

// ManagedSettingsPath returns the enterprise managed-settings.json path.
func ManagedSettingsPath() string {
	return filepath.Join(enterpriseDir(), "managed-settings.json")
}

// ManagedMCPPath returns the enterprise managed-mcp.json path.
func ManagedMCPPath() string {
	return filepath.Join(enterpriseDir(), "managed-mcp.json")
}

// NormalizeProjectPath canonicalizes a working directory for use as a key in
// the root config's projects map. Symlinks are resolved when possible so the
// same project maps to the same key regardless of how it was reached.
func NormalizeProjectPath(cwd string) string {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return filepath.Clean(cwd)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
