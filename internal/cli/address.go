package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/keys"
	"github.com/goodwallet/goodwallet/internal/wallet"
)

// addressAll includes every derived account, not just the primary one.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var addressAll bool

// AddressEntry is one derived account in the address listing.
type AddressEntry struct {
	Usage   string `json:"usage"`
	Path    string `json:"path"`
	Address string `json:"address"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show wallet addresses",
	Long: `Show the primary account address, or all derived accounts with --all.

Each account is derived from the same mnemonic at a fixed BIP44 index,
one per purpose (token transfers, identity database, generic signing,
donations).`,
	Example: `  goodwallet address
  goodwallet address --all
  goodwallet address --all --json`,
	RunE: runAddress,
}

func runAddress(_ *cobra.Command, _ []string) error {
	return withWallet(func(_ context.Context, w *wallet.Wallet) error {
		if !addressAll {
			fmt.Println(w.Address().Hex())
			return nil
		}

		entries := make([]AddressEntry, 0, len(keys.AllUsages()))
		for _, usage := range keys.AllUsages() {
			account, err := w.AccountFor(usage)
			if err != nil {
				return err
			}
			entries = append(entries, AddressEntry{
				Usage:   usage.String(),
				Path:    account.Path,
				Address: account.Address.Hex(),
			})
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}
		for _, e := range entries {
			fmt.Printf("%-16s %-20s %s\n", e.Usage, e.Path, e.Address)
		}
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.Flags().BoolVar(&addressAll, "all", false, "show all derived accounts")
}
