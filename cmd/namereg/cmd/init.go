/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/namereg/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration with a generated API key",
	Long: `Create the namereg configuration file and data directory.

This command will:
- Generate a random API key for the REST API
- Write the configuration with owner-only permissions
- Create the data directory

Examples:
  namereg init
  namereg init --data-dir ./data --config ./namereg.yaml
  namereg init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		_, err := initializeConfig(cmd.OutOrStdout(), configPath, dataDir, force)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
}

// initializeConfig bootstraps a configuration at configPath unless one
// exists and force is false.
func initializeConfig(out io.Writer, configPath, dataDir string, force bool) (*config.Config, error) {
	if config.ConfigExists(configPath) && !force {
		fmt.Fprintf(out, "Configuration already exists at %s. Use --force to overwrite.\n", configPath)
		return config.LoadConfig(configPath)
	}

	cfg, err := config.BootstrapConfig(configPath, dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fmt.Fprintf(out, "✅ Configuration created at %s\n", configPath)
	fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
	fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
	fmt.Fprintf(out, "\nYou can now start the server with:\n")
	fmt.Fprintf(out, "  namereg serve --config %s\n", configPath)
	return cfg, nil
}
