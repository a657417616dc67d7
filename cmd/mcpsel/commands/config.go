package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/henkisdabro/mcpsel/internal/config"
	"github.com/henkisdabro/mcpsel/internal/paths"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcpsel configuration",
	Long: `Manage mcpsel configuration stored in ~/.config/mcpsel/config.yaml.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  mcpsel config

  # Get a specific value
  mcpsel config get probe.command

  # Set a value
  mcpsel config set backup.retention 20`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys. Array values are printed one per line.`,
	Example: `  mcpsel config get backup.retention
  mcpsel config get probe.args`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write it back to the config file.

For array values like probe.args, use comma-separated values.`,
	Example: `  mcpsel config set backup.retention 20
  mcpsel config set probe.args mcp,list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all configuration",
	Long:    `List all configuration values in YAML format.`,
	Example: `  mcpsel config list`,
	RunE:    runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR environment variable, or falls back to vi.`,
	Example: `  mcpsel config edit
  EDITOR=nano mcpsel config edit`,
	RunE: runConfigEdit,
}

func runConfigGet(_ *cobra.Command, args []string) error {
	key := args[0]

	if !viper.IsSet(key) {
		fmt.Println("not set")
		return nil
	}

	val := viper.Get(key)
	switch v := val.(type) {
	case []any:
		for _, item := range v {
			fmt.Println(item)
		}
	case []string:
		for _, item := range v {
			fmt.Println(item)
		}
	default:
		fmt.Println(viper.GetString(key))
	}
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	switch key {
	case "backup.retention", "probe.timeout_seconds", "version":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.Newf("%s must be a non-negative integer, got %q", key, value)
		}
		viper.Set(key, n)

	case "backup.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Newf("%s must be true or false, got %q", key, value)
		}
		viper.Set(key, b)

	case "probe.args":
		viper.Set(key, splitCommaList(value))

	case "backup.dir", "probe.command":
		viper.Set(key, value)

	default:
		return errors.Newf("unknown configuration key %q", key)
	}

	if err := writeConfig(); err != nil {
		return err
	}
	fmt.Printf("Set %s = %v\n", key, viper.Get(key))
	return nil
}

func runConfigList(_ *cobra.Command, _ []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	fmt.Print(string(data))
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath := filepath.Join(paths.AppConfigDir(), "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return errors.Newf("config file not found at %s\nRun 'mcpsel config set' to create it", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "running editor")
	}
	return nil
}

// splitCommaList splits a comma-separated string, trimming whitespace and
// dropping empty items.
func splitCommaList(s string) []string {
	var items []string
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}

// currentConfig materializes the viper state into the typed Config.
func currentConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	return &cfg, nil
}

// writeConfig persists the current viper state to the config file.
func writeConfig() error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	return config.Save(cfg)
}
