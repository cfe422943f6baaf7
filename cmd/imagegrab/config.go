package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imagegrab/pkg/config"
	"imagegrab/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imagegrab configuration files.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (IMAGEGRAB_*)
  - .env files
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file holding every option with its default value.

The file is created as 'imagegrab.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Value ranges and names
  - That the output and log directories can be created`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "imagegrab.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	cfg := config.DefaultConfig()
	cfg.Search.Keywords = []string{}
	cfg.Search.Modifiers = []string{}
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	if !ui.IsQuietMode() {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "1. Add default keywords or adjust the download settings")
		fmt.Fprintln(out, "2. Run 'imagegrab config validate' to check the configuration")
		fmt.Fprintln(out, "3. Start downloading with 'imagegrab <keyword>'")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	if ui.IsQuietMode() {
		return nil
	}
	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintf(out, "2. Environment variables (%s*)\n", config.EnvPrefix)
	fmt.Fprintln(out, "3. .env files")
	if configFile != "" {
		fmt.Fprintf(out, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "4. Configuration file: first of")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(out, "     %s\n", p)
		}
	}
	fmt.Fprintln(out, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []error
	if err := os.MkdirAll(cfg.Download.OutputDirectory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if len(cfg.Search.Keywords) == 0 {
		ui.PrintWarning("No default keywords configured, pass them on the command line")
	}

	ui.PrintSuccess("Configuration is valid")
	if !ui.IsQuietMode() {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\nConfiguration summary:")
		fmt.Fprintf(out, "  Output directory: %s\n", cfg.Download.OutputDirectory)
		fmt.Fprintf(out, "  Filename format: %s\n", cfg.Download.FilenameFormat)
		fmt.Fprintf(out, "  No clobber: %t\n", cfg.Download.NoClobber)
		fmt.Fprintf(out, "  Workers: %d\n", cfg.Download.Workers)
		fmt.Fprintf(out, "  Limit: %d\n", cfg.Download.Limit)
		fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	}
	return nil
}
