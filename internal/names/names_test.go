package names

import (
	"errors"
	"testing"
)

func TestParseFullName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PluginServer
		wantErr bool
	}{
		{
			name:  "valid full name",
			input: "fetch:web-tools@community",
			want:  PluginServer{ServerKey: "fetch", Plugin: "web-tools", Marketplace: "community"},
		},
		{
			name:  "hyphenated segments",
			input: "api-server:my-plugin@internal-marketplace",
			want:  PluginServer{ServerKey: "api-server", Plugin: "my-plugin", Marketplace: "internal-marketplace"},
		},
		{
			name:    "plain name",
			input:   "github",
			wantErr: true,
		},
		{
			name:    "missing colon",
			input:   "webtools@community",
			wantErr: true,
		},
		{
			name:    "missing marketplace",
			input:   "fetch:web-tools",
			wantErr: true,
		},
		{
			name:    "empty server key",
			input:   ":web-tools@community",
			wantErr: true,
		},
		{
			name:    "empty plugin",
			input:   "fetch:@community",
			wantErr: true,
		},
		{
			name:    "empty marketplace",
			input:   "fetch:web-tools@",
			wantErr: true,
		},
		{
			name:    "double colon",
			input:   "fetch:extra:web-tools@community",
			wantErr: true,
		},
		{
			name:    "double at",
			input:   "fetch:web-tools@community@other",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFullName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFullName(%q) error = nil, want error", tt.input)
				}
				if !errors.Is(err, ErrMalformedName) {
					t.Errorf("ParseFullName(%q) error = %v, want ErrMalformedName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFullName(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFullName(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPluginServerRoundTrip(t *testing.T) {
	ps := PluginServer{ServerKey: "fetch", Plugin: "web-tools", Marketplace: "community"}

	full := ps.String()
	if full != "fetch:web-tools@community" {
		t.Errorf("String() = %q, want %q", full, "fetch:web-tools@community")
	}

	parsed, err := ParseFullName(full)
	if err != nil {
		t.Fatalf("ParseFullName(%q) error = %v", full, err)
	}
	if parsed != ps {
		t.Errorf("round trip = %+v, want %+v", parsed, ps)
	}
}

func TestPluginKey(t *testing.T) {
	ps := PluginServer{ServerKey: "fetch", Plugin: "web-tools", Marketplace: "community"}
	if got := ps.PluginKey(); got != "web-tools@community" {
		t.Errorf("PluginKey() = %q, want %q", got, "web-tools@community")
	}
}

func TestDisableToken(t *testing.T) {
	ps := PluginServer{ServerKey: "fetch", Plugin: "web-tools", Marketplace: "community"}
	if got := ps.DisableToken(); got != "plugin:web-tools:fetch" {
		t.Errorf("DisableToken() = %q, want %q", got, "plugin:web-tools:fetch")
	}
}

func TestParseDisableToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantPlugin string
		wantKey    string
		wantOK     bool
	}{
		{
			name:       "valid token",
			token:      "plugin:web-tools:fetch",
			wantPlugin: "web-tools",
			wantKey:    "fetch",
			wantOK:     true,
		},
		{
			name:   "plain name",
			token:  "github",
			wantOK: false,
		},
		{
			name:   "prefix only",
			token:  "plugin:",
			wantOK: false,
		},
		{
			name:   "missing server key",
			token:  "plugin:web-tools",
			wantOK: false,
		},
		{
			name:   "empty plugin segment",
			token:  "plugin::fetch",
			wantOK: false,
		},
		{
			name:   "too many segments",
			token:  "plugin:web-tools:fetch:extra",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin, key, ok := ParseDisableToken(tt.token)
			if ok != tt.wantOK {
				t.Fatalf("ParseDisableToken(%q) ok = %v, want %v", tt.token, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if plugin != tt.wantPlugin || key != tt.wantKey {
				t.Errorf("ParseDisableToken(%q) = (%q, %q), want (%q, %q)",
					tt.token, plugin, key, tt.wantPlugin, tt.wantKey)
			}
		})
	}
}

func TestTokenFragmentMatchesStrippedName(t *testing.T) {
	// A disable token carries no marketplace, so matching a full name means
	// comparing the token fragment against the name minus its @suffix.
	ps := PluginServer{ServerKey: "fetch", Plugin: "web-tools", Marketplace: "community"}

	plugin, key, ok := ParseDisableToken(ps.DisableToken())
	if !ok {
		t.Fatal("ParseDisableToken failed on a generated token")
	}

	fragment := TokenFragment(plugin, key)
	stripped := StripMarketplace(ps.String())
	if fragment != stripped {
		t.Errorf("TokenFragment = %q, StripMarketplace = %q; want equal", fragment, stripped)
	}
}

func TestStripMarketplace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fetch:web-tools@community", "fetch:web-tools"},
		{"github", "github"},
		{"web-tools@community", "web-tools"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripMarketplace(tt.input); got != tt.want {
			t.Errorf("StripMarketplace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsPluginName(t *testing.T) {
	if !IsPluginName("fetch:web-tools@community") {
		t.Error("IsPluginName(full name) = false, want true")
	}
	if IsPluginName("github") {
		t.Error("IsPluginName(plain name) = true, want false")
	}
}
