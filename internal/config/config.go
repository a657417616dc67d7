// Package config provides configuration management for mcpsel using Viper.
package config

import (
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/henkisdabro/mcpsel/internal/paths"
	"github.com/henkisdabro/mcpsel/pkg/fileutil"
)

// AppName is the application name used for config file naming.
const AppName = "mcpsel"

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// Backup controls pre-write config file backups.
	Backup BackupConfig `mapstructure:"backup" yaml:"backup"`

	// Probe controls the external runtime status probe.
	Probe ProbeConfig `mapstructure:"probe" yaml:"probe"`
}

// BackupConfig holds backup settings.
type BackupConfig struct {
	// Enabled toggles pre-write backups.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Retention is the number of backups kept per file.
	Retention int `mapstructure:"retention" yaml:"retention"`
	// Dir overrides the backup directory.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
}

// ProbeConfig holds runtime probe settings.
type ProbeConfig struct {
	// Command is the executable invoked to list live servers.
	Command string `mapstructure:"command" yaml:"command"`
	// Args are passed to the command.
	Args []string `mapstructure:"args" yaml:"args"`
	// TimeoutSeconds bounds the invocation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the probe timeout as a duration.
func (p ProbeConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(paths.ConfigHome(), AppName))

	viper.SetEnvPrefix("MCPSEL")
	viper.AutomaticEnv()

	viper.SetDefault("version", 1)
	viper.SetDefault("backup.enabled", true)
	viper.SetDefault("backup.retention", 10)
	viper.SetDefault("probe.command", "claude")
	viper.SetDefault("probe.args", []string{"mcp", "list"})
	viper.SetDefault("probe.timeout_seconds", 5)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches the default locations and falls back to
// defaults when no file exists.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			// No config file is fine; defaults apply.
		} else if path != "" {
			return nil, errors.Wrapf(err, "reading config %s", path)
		} else {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	return &cfg, nil
}

// Save writes the configuration to its default location.
func Save(cfg *Config) error {
	dir := paths.AppConfigDir()
	if err := paths.EnsureDir(dir, 0); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	return fileutil.AtomicWriteYAML(filepath.Join(dir, "config.yaml"), cfg)
}
