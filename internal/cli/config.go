package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goodwallet/goodwallet/internal/config"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify goodwallet configuration settings.`,
}

// configInitCmd writes the default configuration file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file in the data directory.

An existing configuration file is not overwritten unless --force is
specified.`,
	Example: `  goodwallet config init
  goodwallet config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the effective configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after environment overrides.`,
	Example: `  goodwallet config show`,
	RunE:    runConfigShow,
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := config.Path(cfg.DataDir)

	if _, err := os.Stat(path); err == nil && !configForce {
		return walleterr.WithDetail(walleterr.ErrInvalidInput,
			"reason", fmt.Sprintf("configuration already exists at %s, use --force to overwrite", path))
	}

	defaults := config.Defaults()
	defaults.DataDir = cfg.DataDir
	if err := config.Save(defaults, path); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Configuration written to %s\n", path)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}
