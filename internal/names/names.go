// Package names converts between the identity formats a server can appear
// under in Claude configuration files.
//
// Four forms exist:
//
//   - plain name: "fetch" (mcpjson and direct servers)
//   - full plugin server name: "serverKey:pluginName@marketplace"
//   - plugin key: "pluginName@marketplace" (enabledPlugins map key)
//   - disable-list token: "plugin:pluginName:serverKey"
//
// Parsing is strict: a full plugin name has exactly one ':' before exactly
// one '@', with all three segments non-empty. Anything else is treated as a
// plain name.
package names

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// DisableTokenPrefix marks plugin entries in disabledMcpServers lists.
const DisableTokenPrefix = "plugin:"

// ErrMalformedName indicates a string is not a valid full plugin server name.
var ErrMalformedName = errors.New("malformed plugin server name")

// PluginServer is the parsed form of a full plugin server name.
type PluginServer struct {
	// ServerKey is the key the server appears under in the plugin's mcpServers map.
	ServerKey string
	// Plugin is the plugin name.
	Plugin string
	// Marketplace is the marketplace the plugin was installed from.
	Marketplace string
}

// FullName assembles "serverKey:pluginName@marketplace".
func FullName(serverKey, plugin, marketplace string) string {
	return serverKey + ":" + plugin + "@" + marketplace
}

// String returns the full server name.
func (p PluginServer) String() string {
	return FullName(p.ServerKey, p.Plugin, p.Marketplace)
}

// PluginKey returns "pluginName@marketplace", the key used in the
// enabledPlugins settings map. Enablement applies at the plugin level even
// when a plugin exposes several servers.
func (p PluginServer) PluginKey() string {
	return p.Plugin + "@" + p.Marketplace
}

// DisableToken returns "plugin:pluginName:serverKey", the form used in
// disabledMcpServers lists.
func (p PluginServer) DisableToken() string {
	return DisableTokenPrefix + p.Plugin + ":" + p.ServerKey
}

// ParseFullName parses "serverKey:pluginName@marketplace".
// Returns ErrMalformedName unless the string has exactly one ':' before
// exactly one '@' and every segment is non-empty.
func ParseFullName(name string) (PluginServer, error) {
	before, marketplace, ok := strings.Cut(name, "@")
	if !ok || marketplace == "" || strings.Contains(marketplace, "@") {
		return PluginServer{}, errors.Wrapf(ErrMalformedName, "%q", name)
	}
	serverKey, plugin, ok := strings.Cut(before, ":")
	if !ok || serverKey == "" || plugin == "" || strings.Contains(plugin, ":") {
		return PluginServer{}, errors.Wrapf(ErrMalformedName, "%q", name)
	}
	return PluginServer{
		ServerKey:   serverKey,
		Plugin:      plugin,
		Marketplace: marketplace,
	}, nil
}

// IsPluginName reports whether name parses as a full plugin server name.
func IsPluginName(name string) bool {
	_, err := ParseFullName(name)
	return err == nil
}

// ParseDisableToken parses "plugin:pluginName:serverKey".
// The second return value is false for plain-name tokens.
func ParseDisableToken(token string) (plugin, serverKey string, ok bool) {
	rest, found := strings.CutPrefix(token, DisableTokenPrefix)
	if !found {
		return "", "", false
	}
	plugin, serverKey, found = strings.Cut(rest, ":")
	if !found || plugin == "" || serverKey == "" || strings.Contains(serverKey, ":") {
		return "", "", false
	}
	return plugin, serverKey, true
}

// TokenFragment returns the "serverKey:pluginName" fragment derived from a
// plugin disable token. A full server name matches the token when the name
// minus its "@marketplace" suffix equals this fragment; the token itself
// carries no marketplace, so the match must ignore it.
func TokenFragment(plugin, serverKey string) string {
	return serverKey + ":" + plugin
}

// StripMarketplace removes a trailing "@marketplace" suffix, if present.
func StripMarketplace(name string) string {
	if i := strings.LastIndex(name, "@"); i >= 0 {
		return name[:i]
	}
	return name
}
