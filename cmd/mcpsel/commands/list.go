package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/selector"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all resolved MCP servers",
	Long: `List every MCP server visible in the current project, resolved across
all configuration scopes.

Each server shows its display state (red/green/orange), the scope its
definition won at, where it is defined, and any enterprise policy flags.`,
	Example: `  # List servers with live status
  mcpsel list

  # List without probing the Claude CLI
  mcpsel list --no-probe`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newManager(cmd.Context(), true)
		if err != nil {
			return err
		}
		return runList(m, os.Stdout)
	},
}

// runList renders the resolved server table.
func runList(m *selector.Manager, w io.Writer) error {
	servers := m.Servers()
	if len(servers) == 0 {
		fmt.Fprintln(w, "No MCP servers found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tSTATE\tSCOPE\tSOURCE\tFLAGS")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\n",
			stateDot(s), s.Name, s.State, s.Scope, s.SourceType, flagString(s))
	}
	return tw.Flush()
}

// flagString summarizes policy flags for display.
func flagString(s *resolver.Server) string {
	switch {
	case s.Flags.Blocked:
		return "blocked"
	case s.Flags.Restricted:
		return "restricted"
	case s.Flags.Enterprise:
		return "enterprise"
	default:
		return "-"
	}
}
