// Package policy implements the enterprise access-control matcher.
//
// A machine-wide managed-settings.json may carry allow and deny rules for
// MCP servers. Deny is absolute: it applies to every scope, enterprise
// included. The allowlist is subtler: a missing allowlist means "everything
// allowed", while a present-but-empty one is lockdown mode and denies every
// non-enterprise server. Enterprise-scoped servers bypass the allowlist
// entirely (the same authority wrote both).
package policy

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// Rule is one allow or deny entry. The three matching modes are mutually
// exclusive and tried in priority order: exact server-name equality, exact
// order-preserving command-array equality, anchored URL wildcard matching.
type Rule struct {
	ServerName    string   `json:"serverName,omitempty"`
	ServerCommand []string `json:"serverCommand,omitempty"`
	ServerURL     string   `json:"serverUrl,omitempty"`
}

// Subject is the server-shaped input the matcher evaluates rules against.
type Subject struct {
	// Name is the resolved server name.
	Name string
	// Command is the full command array (command followed by args), nil for
	// URL-based servers.
	Command []string
	// URL is the server endpoint, empty for stdio servers.
	URL string
	// Enterprise marks servers defined at enterprise scope.
	Enterprise bool
}

// Matches reports whether the rule matches the subject.
func (r Rule) Matches(sub Subject) bool {
	switch {
	case r.ServerName != "":
		return r.ServerName == sub.Name
	case len(r.ServerCommand) > 0:
		return commandEqual(r.ServerCommand, sub.Command)
	case r.ServerURL != "":
		return sub.URL != "" && WildcardMatch(r.ServerURL, sub.URL)
	default:
		return false
	}
}

// Policy is the parsed enterprise allow/deny configuration.
type Policy struct {
	// Denied servers are blocked everywhere.
	Denied []Rule

	// Allowed is the allowlist. A nil slice means no allowlist is
	// configured; an empty non-nil slice means lockdown. The distinction is
	// preserved through JSON: an absent key decodes to nil, a present empty
	// array to an empty slice.
	Allowed []Rule
}

// Lockdown returns a policy with an empty allowlist: every non-enterprise
// server is restricted and nothing is blocked outright. Callers substitute
// it when the real policy file exists but cannot be parsed, so an unreadable
// policy restricts rather than allows.
func Lockdown() *Policy {
	return &Policy{Allowed: []Rule{}}
}

// Verdict is the matcher's output for one server.
type Verdict struct {
	// Blocked means a deny rule matched. Deny short-circuits everything.
	Blocked bool
	// Restricted means the allowlist is configured and did not admit the
	// server.
	Restricted bool
}

// Evaluate applies the policy to a subject.
// A nil policy allows everything.
func (p *Policy) Evaluate(sub Subject) Verdict {
	if p == nil {
		return Verdict{}
	}

	// Deny first, across all scopes including enterprise.
	for _, rule := range p.Denied {
		if rule.Matches(sub) {
			return Verdict{Blocked: true}
		}
	}

	// No allowlist configured.
	if p.Allowed == nil {
		return Verdict{}
	}

	// Enterprise-defined servers bypass the allowlist.
	if sub.Enterprise {
		return Verdict{}
	}

	// Present but empty allowlist: lockdown.
	for _, rule := range p.Allowed {
		if rule.Matches(sub) {
			return Verdict{}
		}
	}
	return Verdict{Restricted: true}
}

// commandEqual requires equal length and element-wise, order-preserving
// equality.
func commandEqual(a, b []string) bool {
	if len(a) != len(b) || len(b) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WildcardMatch matches s against a pattern where '*' expands to any
// character sequence. Every other regex metacharacter is escaped and the
// pattern is anchored at both ends, so '*' is the only wildcard and a match
// always covers the full string.
func WildcardMatch(pattern, s string) bool {
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	matched, err := regexp.MatchString(expr, s)
	return err == nil && matched
}

// managedSettings is the subset of managed-settings.json the matcher reads.
// encoding/json keeps the nil-vs-empty distinction: an absent key leaves the
// slice nil, a present empty array yields an empty non-nil slice.
type managedSettings struct {
	DeniedMCPServers  []Rule `json:"deniedMcpServers"`
	AllowedMCPServers []Rule `json:"allowedMcpServers"`
}

// ReadJSONFunc mirrors the facts package file-reading seam.
type ReadJSONFunc func(path string, out any) (bool, error)

// Load reads the enterprise policy from a managed-settings.json file.
// Returns (nil, nil) when the file does not exist; no policy is configured.
// A malformed policy file is an error: failing open on access control would
// defeat its purpose.
func Load(readJSON ReadJSONFunc, path string) (*Policy, error) {
	if path == "" {
		return nil, nil
	}
	var settings managedSettings
	ok, err := readJSON(path, &settings)
	if err != nil {
		return nil, errors.Wrap(err, "loading enterprise policy")
	}
	if !ok {
		return nil, nil
	}
	if settings.DeniedMCPServers == nil && settings.AllowedMCPServers == nil {
		// Settings file present but carries no MCP rules.
		return nil, nil
	}
	return &Policy{
		Denied:  settings.DeniedMCPServers,
		Allowed: settings.AllowedMCPServers,
	}, nil
}
