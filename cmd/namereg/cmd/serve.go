/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/namereg/pkg/api"
	"github.com/ssargent/namereg/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the namereg REST API server. The API key comes from the
configuration file or NAMEREG_API_KEY; run 'namereg init' to generate one.

Examples:
  namereg serve
  namereg serve --port 9000 --bind 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(rt *runtime) error {
			return serve(cmd, rt)
		})
	},
}

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bootstrap and start the namereg server",
	Long: `Bootstrap namereg by creating a configuration with a generated API key
if none exists, then start the REST API server. This is the recommended way
to get namereg running.

Examples:
  namereg up
  namereg up --data-dir ./mydata --port 9000
  namereg up --config ./custom-config.yaml --print-keys`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
			if err := cmd.Flags().Set("config", configPath); err != nil {
				return err
			}
		}

		if !config.ConfigExists(configPath) {
			cmd.Printf("🔧 First run detected. Bootstrapping namereg...\n")
			cfg, err := config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				return fmt.Errorf("bootstrap config: %w", err)
			}
			cmd.Printf("✅ Configuration created at %s\n", configPath)
			if printKeys {
				cmd.Printf("\n🔑 API Key: %s\n", cfg.Security.APIKey)
				cmd.Printf("⚠️  Store this key securely! It is also saved in %s\n\n", configPath)
			}
		} else {
			cmd.Printf("✅ Loaded existing configuration from %s\n", configPath)
		}

		return withRuntime(cmd, func(rt *runtime) error {
			return serve(cmd, rt)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(upCmd)

	for _, c := range []*cobra.Command{serveCmd, upCmd} {
		c.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
		c.Flags().String("bind", "127.0.0.1", "Address to bind server to (overrides config)")
	}
	upCmd.Flags().Bool("print-keys", false, "Print the generated API key to console")
}

func serve(cmd *cobra.Command, rt *runtime) error {
	if rt.cfg.Security.APIKey == "" || rt.cfg.Security.APIKey == "auto" {
		return fmt.Errorf("no API key configured: run 'namereg init' or set NAMEREG_API_KEY")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("🚀 Starting namereg server on %s:%d\n", rt.cfg.Bind, rt.cfg.Port)
	cmd.Printf("📁 Data directory: %s\n", rt.cfg.DataDir)

	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, rt.ledger, rt.processor, api.ServerConfig{
		Port:   rt.cfg.Port,
		Bind:   rt.cfg.Bind,
		APIKey: rt.cfg.Security.APIKey,
	}, rt.logger)
}
