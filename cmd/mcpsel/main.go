// Package main is the entry point for the mcpsel CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/henkisdabro/mcpsel/cmd/mcpsel/commands"
	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		var exitErr *mcperrors.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
			}
			if exitErr.Suggestion != "" {
				fmt.Fprintln(os.Stderr, "Suggestion:", exitErr.Suggestion)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(mcperrors.ExitUser)
	}
}
