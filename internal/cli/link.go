package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/wallet"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	linkAmount string
	linkReason string
)

// LinkCreateResponse reports a created payment link.
type LinkCreateResponse struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
	Reason string `json:"reason,omitempty"`
	TxHash string `json:"tx_hash,omitempty"`
	Status string `json:"status"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage payment links",
	Long: `Create and redeem shareable payment links.

A link escrows tokens under a one-time code; anyone holding the code
can withdraw the amount once. The code is random and independent of the
wallet seed.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var linkCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a payment link",
	Long: `Escrow tokens under a fresh one-time code and print the code as soon
as it is generated, before the deposit confirms. The command then waits
for confirmation; on timeout the link stays pending and can be checked
with "link pending".`,
	Example: `  goodwallet link create --amount 500
  goodwallet link create --amount 500 --reason "lunch"`,
	RunE: runLinkCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var linkRedeemCmd = &cobra.Command{
	Use:   "redeem <code>",
	Short: "Redeem a payment link",
	Long: `Withdraw the tokens escrowed under a payment link code into the
primary account. Fails when the code was already claimed.`,
	Example: `  goodwallet link redeem 0x1f8a...`,
	Args:    cobra.ExactArgs(1),
	RunE:    runLinkRedeem,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var linkPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending link deposits",
	Long:  `List payment link deposits recorded locally and their last known state.`,
	RunE:  runLinkPending,
}

func runLinkCreate(_ *cobra.Command, _ []string) error {
	amount, err := parseAmount(linkAmount)
	if err != nil {
		return err
	}

	return withWallet(func(ctx context.Context, w *wallet.Wallet) error {
		intent, err := w.BeginLink(ctx, amount, linkReason)
		if err != nil {
			return err
		}

		// The code is usable as soon as the deposit lands; surface it
		// immediately so a timeout below does not lose it.
		if !jsonOutput {
			fmt.Printf("Code: %s\n", intent.Code)
			intent.OnHashKnown(func(hash common.Hash) {
				fmt.Printf("Tx:   %s\n", hash.Hex())
			})
		}

		_, waitErr := intent.Wait(ctx)

		resp := LinkCreateResponse{
			Code:   intent.Code,
			Amount: amount.String(),
			Reason: linkReason,
			Status: "confirmed",
		}
		if hash, ok := intent.Hash(); ok {
			resp.TxHash = hash.Hex()
		}
		if waitErr != nil {
			resp.Status = "pending"
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
				return err
			}
		} else if waitErr == nil {
			fmt.Println("Deposit confirmed")
		}
		return waitErr
	})
}

func runLinkRedeem(_ *cobra.Command, args []string) error {
	return withWallet(func(ctx context.Context, w *wallet.Wallet) error {
		receipt, err := w.RedeemLink(ctx, args[0])
		if err != nil {
			return err
		}
		return printReceipt(receipt.TxHash.Hex(), receipt.BlockNumber.Uint64())
	})
}

func runLinkPending(_ *cobra.Command, _ []string) error {
	return withWallet(func(_ context.Context, w *wallet.Wallet) error {
		records, err := w.PendingLinks()
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(records)
		}
		if len(records) == 0 {
			fmt.Println("No pending links")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%-10s %-12s %s\n", rec.State, rec.Amount, rec.LinkCode)
		}
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkCreateCmd)
	linkCmd.AddCommand(linkRedeemCmd)
	linkCmd.AddCommand(linkPendingCmd)

	linkCreateCmd.Flags().StringVar(&linkAmount, "amount", "", "amount in base token units (required)")
	linkCreateCmd.Flags().StringVar(&linkReason, "reason", "", "optional note stored with the link")
	_ = linkCreateCmd.MarkFlagRequired("amount")
}
