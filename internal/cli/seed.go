package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goodwallet/goodwallet/internal/seedstore"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var seedResetYes bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage the wallet seed",
	Long: `Manage the encrypted wallet seed.

The seed is generated on first use, encrypted with a device-local
identity, and stored on disk. It never leaves this machine.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedRevealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Print the recovery phrase",
	Long: `Print the BIP39 recovery phrase to the terminal.

Anyone with the phrase controls the wallet. The command refuses to run
when stdout is not a terminal, so the phrase cannot end up in pipes,
shell histories, or log files by accident.`,
	Example: `  goodwallet seed reveal`,
	RunE:    runSeedReveal,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored seed",
	Long: `Delete the encrypted seed and device identity from disk. The wallet
is unrecoverable afterwards unless the recovery phrase was saved.`,
	Example: `  goodwallet seed reset --yes`,
	RunE:    runSeedReset,
}

func runSeedReveal(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return walleterr.WithDetail(walleterr.ErrInvalidInput,
			"reason", "refusing to write the recovery phrase to a non-terminal")
	}

	kv, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	store := seedstore.New(kv)
	exists, err := store.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return walleterr.WithDetail(walleterr.ErrNotFound, "resource", "seed")
	}

	mnemonic, err := store.Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Recovery phrase (anyone with it controls the wallet):")
	fmt.Println(mnemonic)
	return nil
}

func runSeedReset(_ *cobra.Command, _ []string) error {
	if !seedResetYes {
		if !confirm("Delete the stored seed? The wallet cannot be recovered without the phrase [y/N]: ") {
			fmt.Fprintln(os.Stderr, "Aborted")
			return nil
		}
	}

	kv, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	if err := seedstore.New(kv).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Seed deleted")
	return nil
}

// confirm reads a yes/no answer from stdin.
func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedRevealCmd)
	seedCmd.AddCommand(seedResetCmd)

	seedResetCmd.Flags().BoolVar(&seedResetYes, "yes", false, "skip the confirmation prompt")
}
