package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/snapsort/pkg/snapsort/config"
	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage snapsort configuration settings.

Configuration is loaded from:
  1. --config FILE
  2. $XDG_CONFIG_HOME/snapsort/config.yaml
  3. ~/.config/snapsort/config.yaml

Environment variables override the file using the SNAPSORT_ prefix:
  SNAPSORT_WORKERS=4
  SNAPSORT_MTIME_FALLBACK=true
  SNAPSORT_MANIFEST_RETENTION_DAYS=30`,
	Args: noArgs,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  noArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Args:  noArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  noArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(stdout, "Config file: %s\n\n", used)
	} else {
		fmt.Fprint(stdout, "Config file: (using defaults, no file found)\n\n")
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	fmt.Fprintln(stdout, "Current Configuration:")
	fmt.Fprintln(stdout, "----------------------")
	fmt.Fprintf(stdout, "workers:                  %d\n", cfg.Workers)
	fmt.Fprintf(stdout, "exclude:                  %v\n", cfg.Exclude)
	fmt.Fprintf(stdout, "output:                   %s\n", cfg.Output)
	fmt.Fprintf(stdout, "max_collisions:           %d\n", cfg.MaxCollisions)
	fmt.Fprintf(stdout, "mtime_fallback:           %t\n", cfg.MtimeFallback)
	fmt.Fprintf(stdout, "manifest.enabled:         %t\n", cfg.Manifest.Enabled)
	fmt.Fprintf(stdout, "manifest.path:            %s\n", cfg.Manifest.Path)
	fmt.Fprintf(stdout, "manifest.retention_days:  %d\n", cfg.Manifest.RetentionDays)
	fmt.Fprintf(stdout, "logging.level:            %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "logging.path:             %s\n", logPath)
	fmt.Fprintf(stdout, "logging.rotation:         %s, %d backups\n",
		cfg.Logging.Rotation.MaxSize, cfg.Logging.Rotation.MaxBackups)

	fmt.Fprintln(stdout, "\nEnvironment Overrides:")
	fmt.Fprintln(stdout, "----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Fprintln(stdout, kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(stdout, "(none)")
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.ConfigFile()
	}
	created, err := config.WriteDefault(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		printInfo("Config file already exists: %s", path)
		return nil
	}
	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if used := viper.ConfigFileUsed(); used != "" {
		path = used
	}
	fmt.Fprintln(stdout, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		printInfo("(file does not exist, run 'snapsort config init' to create it)")
	}
	return nil
}
