package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/henkisdabro/mcpsel/internal/backup"
	mcperrors "github.com/henkisdabro/mcpsel/internal/errors"
	"github.com/henkisdabro/mcpsel/internal/logging"
	"github.com/henkisdabro/mcpsel/internal/probe"
	"github.com/henkisdabro/mcpsel/internal/resolver"
	"github.com/henkisdabro/mcpsel/internal/selector"
	"github.com/henkisdabro/mcpsel/internal/toggle"
	"github.com/henkisdabro/mcpsel/internal/writer"
)

// display state colors
var (
	redDot    = color.New(color.FgRed).Sprint("●")
	greenDot  = color.New(color.FgGreen).Sprint("●")
	orangeDot = color.New(color.FgYellow).Sprint("●")
)

// stateDot returns the colored dot for a server's display state.
func stateDot(s *resolver.Server) string {
	switch toggle.GetDisplayState(s) {
	case toggle.Red:
		return redDot
	case toggle.Orange:
		return orangeDot
	default:
		return greenDot
	}
}

// resolveProjectDir returns the working directory the commands operate on:
// the --project flag when set, otherwise the current directory.
func resolveProjectDir() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", mcperrors.NewSystemError(err, "cannot determine current directory")
	}
	return cwd, nil
}

// backupManager builds the backup manager from the loaded config, or nil
// when backups are disabled.
func backupManager() *backup.Manager {
	if cfg != nil && !cfg.Backup.Enabled {
		return nil
	}
	var opts []backup.Option
	if cfg != nil {
		if cfg.Backup.Dir != "" {
			opts = append(opts, backup.WithBackupDir(cfg.Backup.Dir))
		}
		if cfg.Backup.Retention > 0 {
			opts = append(opts, backup.WithRetentionCount(cfg.Backup.Retention))
		}
	}
	return backup.NewManager(opts...)
}

// newManager constructs and loads a selector.Manager for the project
// directory, honoring the --no-probe flag.
func newManager(ctx context.Context, withProbe bool) (*selector.Manager, error) {
	cwd, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)

	opts := []selector.Option{
		selector.WithLogger(log),
		selector.WithWriter(&writer.Writer{Backups: backupManager(), Log: log}),
	}
	if withProbe && !noProbe {
		prober := probe.NewCLIProber()
		if cfg != nil {
			prober.Command = cfg.Probe.Command
			prober.Args = cfg.Probe.Args
			prober.Timeout = cfg.Probe.Timeout()
		}
		opts = append(opts, selector.WithProber(prober))
	}

	m := selector.NewManager(cwd, opts...)
	if err := m.Load(ctx); err != nil {
		return nil, mcperrors.NewSystemError(err, "failed to load MCP configuration")
	}

	for _, loadErr := range m.LoadErrors() {
		log.Warn("config source skipped", "error", loadErr)
	}
	return m, nil
}

// saveAndReport commits the manager's state and logs per-file failures.
// Returns a system error when nothing could be written.
func saveAndReport(m *selector.Manager, log *slog.Logger) error {
	report := m.Save()
	for _, err := range report.Errors {
		log.Error("write failed", "error", err)
	}
	if !report.OK() && len(report.FilesWritten) == 0 {
		return mcperrors.NewSystemError(report.Errors[0], "no configuration file could be written")
	}
	return nil
}
