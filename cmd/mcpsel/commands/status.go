package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/selector"
	"github.com/henkisdabro/mcpsel/internal/toggle"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration sources and live server status",
	Long: `Show every configuration file consulted for the current project, a
summary of resolved server states, and the live runtime status of each
enabled server as reported by the Claude CLI.`,
	Example: `  mcpsel status
  mcpsel status --project ~/src/myapp`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newManager(cmd.Context(), true)
		if err != nil {
			return err
		}
		return runStatus(m, os.Stdout)
	},
}

// runStatus renders the source catalog and runtime summary.
func runStatus(m *selector.Manager, w io.Writer) error {
	fmt.Fprintln(w, "Configuration sources:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, src := range m.Sources() {
		mark := " "
		if src.Exists {
			mark = "*"
		}
		fmt.Fprintf(tw, "  %s %s\t%s\t%s\n", mark, src.Scope, src.Kind, src.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	servers := m.Servers()
	if len(servers) == 0 {
		fmt.Fprintln(w, "\nNo MCP servers found.")
		return nil
	}

	var enabled, paused, disabled int
	for _, s := range servers {
		switch toggle.GetDisplayState(s) {
		case toggle.Green:
			enabled++
		case toggle.Orange:
			paused++
		default:
			disabled++
		}
	}
	fmt.Fprintf(w, "\n%d servers: %d enabled, %d paused, %d disabled\n\n",
		len(servers), enabled, paused, disabled)

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tSTATE\tRUNTIME")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", stateDot(s), s.Name, toggle.GetDisplayState(s), runtimeString(s))
	}
	return tw.Flush()
}

func runtimeString(s *resolver.Server) string {
	if s.State != resolver.StateOn {
		return "-"
	}
	return string(s.Runtime)
}
