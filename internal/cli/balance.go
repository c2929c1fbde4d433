package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/wallet"
)

// BalanceResponse is the full response for the balance command.
type BalanceResponse struct {
	Address     string `json:"address"`
	Balance     string `json:"balance"`
	Entitlement string `json:"entitlement"`
	Citizen     bool   `json:"citizen"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show token balance and UBI entitlement",
	Long: `Show the GoodDollar balance of the primary account, the currently
claimable UBI entitlement, and whether the account passed identity
verification. Amounts are in base token units.`,
	Example: `  goodwallet balance
  goodwallet balance --json`,
	RunE: runBalance,
}

func runBalance(_ *cobra.Command, _ []string) error {
	return withWallet(func(ctx context.Context, w *wallet.Wallet) error {
		balance, err := w.BalanceOf(ctx)
		if err != nil {
			return err
		}
		entitlement, err := w.CheckEntitlement(ctx)
		if err != nil {
			return err
		}
		citizen, err := w.IsCitizen(ctx)
		if err != nil {
			return err
		}

		resp := BalanceResponse{
			Address:     w.Address().Hex(),
			Balance:     balance.String(),
			Entitlement: entitlement.String(),
			Citizen:     citizen,
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(resp)
		}
		fmt.Printf("Address:     %s\n", resp.Address)
		fmt.Printf("Balance:     %s\n", resp.Balance)
		fmt.Printf("Entitlement: %s\n", resp.Entitlement)
		fmt.Printf("Verified:    %t\n", resp.Citizen)
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
}
