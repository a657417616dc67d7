package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/logging"
	"github.com/henkisdabro/mcpsel/internal/names"
	"github.com/henkisdabro/mcpsel/internal/selector"
)

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List plugins advertised by installed marketplaces",
	Long: `List every plugin offered by the marketplaces installed on this machine,
marking the ones that are currently installed.

Only installed plugins contribute MCP servers; this listing covers the
full marketplace catalog so you can see what else is available.`,
	Example: `  # Show all marketplace plugins
  mcpsel plugins`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newManager(cmd.Context(), false)
		if err != nil {
			return err
		}
		ex := facts.NewExtractor(logging.FromContext(cmd.Context()))
		return runPlugins(m, ex, os.Stdout)
	},
}

// runPlugins renders the marketplace plugin catalog.
func runPlugins(m *selector.Manager, ex *facts.Extractor, w io.Writer) error {
	installed := installedPluginKeys(m)
	plugins := ex.ListMarketplacePlugins(m.Sources(), installed)
	if len(plugins) == 0 {
		fmt.Fprintln(w, "No marketplace plugins found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMARKETPLACE\tINSTALLED\tDESCRIPTION")
	for _, p := range plugins {
		mark := "-"
		if p.Installed {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Marketplace, mark, p.Description)
	}
	return tw.Flush()
}

// installedPluginKeys collects the "plugin@marketplace" keys behind the
// resolved plugin servers.
func installedPluginKeys(m *selector.Manager) map[string]bool {
	keys := make(map[string]bool)
	for _, s := range m.Servers() {
		if s.SourceType != facts.SourcePlugin {
			continue
		}
		ps, err := names.ParseFullName(s.Name)
		if err != nil {
			continue
		}
		keys[ps.PluginKey()] = true
	}
	return keys
}
