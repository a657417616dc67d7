package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
	"github.com/henkisdabro/mcpsel/internal/logging"
	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/toggle"
)

func init() {
	rootCmd.AddCommand(selectCmd)
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Interactively pick servers to toggle",
	Long: `Open a fuzzy finder over the resolved servers. Every selected server is
cycled one step along the red -> green -> orange cycle, then all changes
are written in a single save. Press tab to select multiple servers,
enter to confirm, escape to abort without changes.`,
	Example: `  mcpsel select`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd.Context(), false)
		if err != nil {
			return err
		}

		servers := m.Servers()
		if len(servers) == 0 {
			fmt.Fprintln(os.Stdout, "No MCP servers found.")
			return nil
		}

		indices, err := fuzzyfinder.FindMulti(
			servers,
			func(i int) string {
				s := servers[i]
				return fmt.Sprintf("%s [%s] (%s)", s.Name, toggle.GetDisplayState(s), s.Scope)
			},
			fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
				if i == -1 {
					return ""
				}
				return previewServer(servers[i])
			}),
		)
		if err != nil {
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil
			}
			return mcperrors.NewSystemError(err, "interactive selection failed")
		}

		results := make(map[string]toggle.Result, len(indices))
		for _, i := range indices {
			name := servers[i].Name
			results[name] = m.Toggle(name)
		}

		if err := saveAndReport(m, logging.FromContext(cmd.Context())); err != nil {
			return err
		}
		return reportBulk(m, results, os.Stdout)
	},
}

// previewServer renders the detail pane for one server.
func previewServer(s *resolver.Server) string {
	out := fmt.Sprintf("Name: %s\nState: %s\nScope: %s\nSource: %s\nDefined in: %s\n",
		s.Name, toggle.GetDisplayState(s), s.Scope, s.SourceType, s.DefinitionFile)

	if s.Flags.Enterprise {
		out += "\nManaged by enterprise policy; changes are refused.\n"
	}
	if s.Flags.Blocked {
		out += "\nBlocked by managed policy.\n"
	}
	if s.Flags.Restricted {
		out += "\nNot on the managed allowlist.\n"
	}

	if d := s.Definition; d != nil {
		if d.URL != "" {
			out += fmt.Sprintf("\nURL: %s\n", d.URL)
		}
		if line := d.CommandLine(); line != nil {
			out += fmt.Sprintf("\nCommand: %v\n", line)
		}
	}
	return out
}
