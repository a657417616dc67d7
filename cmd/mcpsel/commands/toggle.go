package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
	"github.com/henkisdabro/mcpsel/internal/logging"
	"github.com/henkisdabro/mcpsel/internal/selector"
	"github.com/henkisdabro/mcpsel/internal/toggle"
)

var (
	enableAll  bool
	disableAll bool
)

func init() {
	enableCmd.Flags().BoolVar(&enableAll, "all", false, "enable every server")
	disableCmd.Flags().BoolVar(&disableAll, "all", false, "disable every server")

	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(pauseCmd)
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <name>",
	Short: "Cycle a server to its next state",
	Long: `Advance a server one step along the red -> green -> orange cycle:
disabled servers are enabled, enabled servers are paused, and paused
servers are disabled.

Enterprise-managed servers refuse all changes. Blocked or restricted
servers can only be cycled into the disabled state.`,
	Example: `  mcpsel toggle github`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStateChange(cmd, "toggle", args[0])
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable an MCP server",
	Long: `Turn a server on (green). The change is written to the file that owns
the server's state: the local settings file for .mcp.json servers and
plugins, the root Claude config for direct servers.`,
	Example: `  # Enable one server
  mcpsel enable github

  # Enable everything the policy allows
  mcpsel enable --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if enableAll {
			return runBulkStateChange(cmd, true)
		}
		if len(args) != 1 {
			return mcperrors.NewUserError(nil, "provide a server name or --all")
		}
		return runStateChange(cmd, "enable", args[0])
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable an MCP server",
	Long: `Turn a server off (red). Disabling is always permitted for blocked and
restricted servers as a safety valve; only enterprise-managed servers
refuse it.`,
	Example: `  # Disable one server
  mcpsel disable github

  # Disable everything
  mcpsel disable --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if disableAll {
			return runBulkStateChange(cmd, false)
		}
		if len(args) != 1 {
			return mcperrors.NewUserError(nil, "provide a server name or --all")
		}
		return runStateChange(cmd, "disable", args[0])
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <name>",
	Short: "Pause an MCP server",
	Long: `Pause a server (orange): it stays configured on but is added to the
project's disabled-servers list so the host stops it without forgetting
its enabled state.`,
	Example: `  mcpsel pause github`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStateChange(cmd, "pause", args[0])
	},
}

// runStateChange applies a single-server operation and saves.
func runStateChange(cmd *cobra.Command, op, name string) error {
	m, err := newManager(cmd.Context(), false)
	if err != nil {
		return err
	}

	var result toggle.Result
	switch op {
	case "toggle":
		result = m.Toggle(name)
	case "enable":
		result = m.Enable(name)
	case "disable":
		result = m.Disable(name)
	case "pause":
		result = m.Pause(name)
	}

	if !result.Success {
		return mcperrors.NewUserError(
			fmt.Errorf("cannot %s %q: %s", op, name, result.Reason),
			"Run 'mcpsel list' to see server states and policy flags")
	}

	if err := saveAndReport(m, logging.FromContext(cmd.Context())); err != nil {
		return err
	}

	s, _ := m.Get(name)
	fmt.Fprintf(os.Stdout, "%s %s is now %s\n", stateDot(s), name, toggle.GetDisplayState(s))
	return nil
}

// runBulkStateChange enables or disables every server, reporting per-server
// outcomes. Guard failures are expected partial results, not errors.
func runBulkStateChange(cmd *cobra.Command, enable bool) error {
	m, err := newManager(cmd.Context(), false)
	if err != nil {
		return err
	}

	var results map[string]toggle.Result
	if enable {
		results = m.EnableAll()
	} else {
		results = m.DisableAll()
	}

	if err := saveAndReport(m, logging.FromContext(cmd.Context())); err != nil {
		return err
	}

	return reportBulk(m, results, os.Stdout)
}

func reportBulk(m *selector.Manager, results map[string]toggle.Result, w io.Writer) error {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := 0
	for _, name := range names {
		result := results[name]
		if result.Success {
			changed++
			continue
		}
		fmt.Fprintf(w, "  skipped %s: %s\n", name, result.Reason)
	}
	fmt.Fprintf(w, "%d of %d servers updated\n", changed, len(results))
	return nil
}
