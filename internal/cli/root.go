// Package cli implements the goodwallet command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/config"
	"github.com/goodwallet/goodwallet/internal/log"
)

var (
	// Global flags
	dataDir    string
	jsonOutput bool
	verbose    bool

	// Global state initialized in PersistentPreRunE
	cfg *config.Config
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "goodwallet",
	Short: "A GoodDollar wallet CLI",
	Long: `Goodwallet is a terminal wallet for the GoodDollar token.

It derives per-purpose accounts from a single BIP39 mnemonic, checks
balances and UBI entitlement, sends tokens, claims daily UBI, and
creates shareable payment links.

Example:
  goodwallet address
  goodwallet balance
  goodwallet send --to 0x... --amount 1000
  goodwallet link create --amount 500 --reason "coffee"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// initGlobals loads configuration and wires the logger.
func initGlobals() error {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv(config.EnvDataDir)
	}
	if dir == "" {
		dir = config.DefaultDataDir()
	}

	var err error
	cfg, err = config.Load(config.Path(dir))
	if err != nil {
		// Missing or unreadable config falls back to defaults.
		cfg = config.Defaults()
	}
	cfg.DataDir = dir

	config.ApplyEnvironment(cfg)

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := log.Init(level, cfg.Logging.JSON, cfg.Logging.File); err != nil {
		return err
	}

	return nil
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "goodwallet data directory (default: ~/.goodwallet)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
