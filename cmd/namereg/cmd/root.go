/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/namereg/pkg/config"
	"github.com/ssargent/namereg/pkg/di"
	"github.com/ssargent/namereg/pkg/instruction"
	"github.com/ssargent/namereg/pkg/ledger"
	"github.com/ssargent/namereg/pkg/registry"
)

var container *di.Container

// SetContainer injects the dependency container used by all commands
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "namereg",
	Short: "Namereg - name registration over ledger slots",
	Long: `Namereg registers short names into fixed-size ledger slots.

Each registration funds a 256-byte slot at the rent-exempt minimum, records
the payer as owner together with the registration time, and can be resolved
back from the slot identity.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the ledger (overrides config)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads the config file if present, then applies environment
// variables and finally explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, configPath, err
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, configPath, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, configPath, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, configPath, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, configPath, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Lookup("bind") != nil && flags.Changed("bind") {
		cfg.Bind, _ = flags.GetString("bind")
	}
	return nil
}

// runtime is the opened ledger with the registry and processor on top of it
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	ledger    *ledger.Ledger
	registry  *registry.Registry
	processor *instruction.Processor
}

func newRuntime(cfg *config.Config, logger *slog.Logger, factory di.LedgerFactory) (*runtime, error) {
	programID, err := cfg.ProgramIdentity()
	if err != nil {
		return nil, err
	}

	l, err := factory.OpenLedger(cfg.LedgerConfig(), logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New(l, registry.WithProgramID(programID), registry.WithLogger(logger))
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		ledger:    l,
		registry:  reg,
		processor: instruction.NewProcessor(reg, logger),
	}, nil
}

func (rt *runtime) Close() error {
	return rt.ledger.Close()
}

// withRuntime opens the configured ledger for the duration of fn
func withRuntime(cmd *cobra.Command, fn func(rt *runtime) error) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, logger, container.GetLedgerFactory())
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(rt)
}
