package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smugmirror/pkg/auth"
	"smugmirror/pkg/config"
	"smugmirror/pkg/ui"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage smugmirror configuration files.

Configuration is layered, highest priority first:
  - Command line flags
  - Environment variables (SMUGMIRROR_*, also read from .env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file holding every option at its default value.

The file goes to --config if given, otherwise to
~/.config/smugmirror/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.
The session token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return withExitCode(1, fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path))
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return withExitCode(1, err)
	}

	ui.PrintSuccess("Configuration written")
	ui.PrintInfo("Path", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return withExitCode(1, err)
	}

	display := *cfg
	if display.SmugMug.Session != "" {
		display.SmugMug.Session = auth.MaskToken(display.SmugMug.Session)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd, ""); err != nil {
		ui.PrintError("Configuration is invalid")
		for _, line := range joinedErrors(err) {
			ui.PrintError("  " + line)
		}
		return withExitCode(1, errors.New("validation failed"))
	}

	ui.PrintSuccess("Configuration is valid")
	return nil
}

// joinedErrors flattens an errors.Join tree into one message per leaf
func joinedErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, joinedErrors(e)...)
		}
		return lines
	}
	return []string{err.Error()}
}
