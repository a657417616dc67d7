package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/henkisdabro/mcpsel/internal/facts"
	"github.com/henkisdabro/mcpsel/internal/resolver"
)

func init() {
	rootCmd.AddCommand(traceCmd)
}

var traceCmd = &cobra.Command{
	Use:   "trace <name>",
	Short: "Explain how a server's state was resolved",
	Long: `Show every configuration fact that contributed to a server's resolution
and which fact won the definition and the on/off state. Use this to
troubleshoot precedence surprises when the same server appears in
several files.`,
	Example: `  mcpsel trace github
  mcpsel trace fetch:web-tools@community`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd.Context(), false)
		if err != nil {
			return err
		}
		trace, err := m.Trace(args[0])
		if err != nil {
			return err
		}
		return runTrace(trace, os.Stdout)
	},
}

func runTrace(trace *resolver.Trace, w io.Writer) error {
	fmt.Fprintf(w, "%s resolves to state=%s runtime=%s\n\n", trace.Name, trace.State, trace.Runtime)

	fmt.Fprintln(w, "Contributing facts (extraction order):")
	for _, f := range trace.Contributing {
		marker := " "
		if sameFact(f, trace.DefWinner) {
			marker = "D" // definition winner
		} else if trace.StateWinner != nil && sameFact(f, *trace.StateWinner) {
			marker = "S" // state winner
		}
		fmt.Fprintf(w, "  [%s] %-18s scope=%-10s %s\n", marker, f.Kind, f.Scope, f.SourceFile)
	}

	fmt.Fprintf(w, "\nDefinition won at scope %s from %s\n", trace.DefWinner.Scope, trace.DefWinner.SourceFile)
	if trace.StateWinner != nil {
		fmt.Fprintf(w, "State decided by %s fact at scope %s from %s\n",
			trace.StateWinner.Kind, trace.StateWinner.Scope, trace.StateWinner.SourceFile)
	} else {
		fmt.Fprintln(w, "State is the default (on): no explicit entry matched")
	}
	return nil
}

// sameFact compares facts by identity-relevant fields; facts carry no IDs.
func sameFact(a, b facts.Fact) bool {
	return a.Kind == b.Kind && a.ServerName == b.ServerName &&
		a.Scope == b.Scope && a.SourceFile == b.SourceFile
}
