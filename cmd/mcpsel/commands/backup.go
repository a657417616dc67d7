package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/henkisdabro/mcpsel/internal/backup"
	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
	"github.com/henkisdabro/mcpsel/internal/paths"
)

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect and restore configuration backups",
	Long: `Every write made by mcpsel first copies the target file into a backup
store. These subcommands list the retained copies and roll a file back
to an earlier one.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List retained backups",
	Long: `List backup copies, newest first. Without an argument both managed
files are covered: the project's local settings file and the root
Claude config.`,
	Example: `  mcpsel backup list
  mcpsel backup list ~/.claude.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := backupManager()
		if mgr == nil {
			return mcperrors.NewUserError(nil, "backups are disabled in the configuration")
		}

		targets, err := backupTargets(args)
		if err != nil {
			return err
		}
		return runBackupList(mgr, targets, os.Stdout)
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file> [backup-id]",
	Short: "Restore a file from a backup",
	Long: `Replace a file with one of its backup copies. Without a backup ID the
most recent copy is used. The copy's checksum is verified before any
byte is written.`,
	Example: `  # Roll back to the latest copy
  mcpsel backup restore ~/.claude.json

  # Roll back to a specific copy
  mcpsel backup restore ~/.claude.json 20260831T101500.123456789`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := backupManager()
		if mgr == nil {
			return mcperrors.NewUserError(nil, "backups are disabled in the configuration")
		}

		target := args[0]
		id := ""
		if len(args) == 2 {
			id = args[1]
		}
		return runBackupRestore(mgr, target, id, os.Stdout)
	},
}

// backupTargets resolves the files to report on: the explicit argument, or
// the two files mcpsel writes.
func backupTargets(args []string) ([]string, error) {
	if len(args) == 1 {
		return []string{args[0]}, nil
	}
	cwd, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	return []string{
		paths.LocalSettingsPath(cwd),
		paths.RootConfigPath(),
	}, nil
}

func runBackupList(mgr *backup.Manager, targets []string, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tID\tCREATED\tSHA256")

	total := 0
	for _, target := range targets {
		entries, err := mgr.List(target)
		if err != nil {
			if errors.Is(err, backup.ErrNoBackupsFound) {
				continue
			}
			return mcperrors.NewSystemError(err, fmt.Sprintf("cannot read backups for %s", target))
		}
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.12s\n",
				target, e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.SHA256Hash)
			total++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(w, "No backups found.")
	}
	return nil
}

func runBackupRestore(mgr *backup.Manager, target, id string, w io.Writer) error {
	if id == "" {
		latest, err := mgr.Latest(target)
		if err != nil {
			if errors.Is(err, backup.ErrNoBackupsFound) {
				return mcperrors.NewUserError(err, fmt.Sprintf("no backups exist for %s", target))
			}
			return mcperrors.NewSystemError(err, "cannot read backup manifest")
		}
		id = latest.ID
	}

	if err := mgr.Restore(target, id); err != nil {
		if errors.Is(err, backup.ErrBackupCorrupted) {
			return mcperrors.NewSystemError(err,
				"the backup copy failed checksum verification; try an older ID from 'mcpsel backup list'")
		}
		return mcperrors.NewSystemError(err, "restore failed")
	}

	fmt.Fprintf(w, "Restored %s from backup %s\n", target, id)
	return nil
}
