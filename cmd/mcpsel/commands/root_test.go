package commands

import "testing"

func TestRootCommand_Metadata(t *testing.T) {
	if rootCmd.Use != "mcpsel" {
		t.Errorf("Use = %q, want %q", rootCmd.Use, "mcpsel")
	}
	if rootCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if !rootCmd.SilenceErrors {
		t.Error("SilenceErrors should be set; errors are rendered by Execute")
	}
	if !rootCmd.SilenceUsage {
		t.Error("SilenceUsage should be set")
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"project", "verbose", "quiet", "log-format", "log-file", "no-probe"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag should be defined", name)
		}
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range []string{
		"list", "status", "select", "toggle", "enable", "disable", "pause",
		"trace", "plugins", "backup", "config",
	} {
		if !registered[name] {
			t.Errorf("subcommand %q should be registered", name)
		}
	}
}
