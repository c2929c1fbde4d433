package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/wallet"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sendTo     string
	sendAmount string
)

// TxResponse reports a submitted transaction.
type TxResponse struct {
	TxHash string `json:"tx_hash"`
	Block  uint64 `json:"block"`
	Status string `json:"status"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send tokens to an address",
	Long: `Send GoodDollar tokens from the primary account to a recipient
address and wait for confirmation. The amount is in base token units
and must be strictly below the current balance.`,
	Example: `  goodwallet send --to 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B --amount 1000`,
	RunE:    runSend,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim daily UBI",
	Long: `Claim the daily universal basic income for the primary account and
wait for confirmation. Fails when the account is not verified or the
entitlement is zero.`,
	Example: `  goodwallet claim`,
	RunE:    runClaim,
}

func runSend(_ *cobra.Command, _ []string) error {
	amount, err := parseAmount(sendAmount)
	if err != nil {
		return err
	}

	return withWallet(func(ctx context.Context, w *wallet.Wallet) error {
		receipt, err := w.SendAmount(ctx, sendTo, amount)
		if err != nil {
			return err
		}
		return printReceipt(receipt.TxHash.Hex(), receipt.BlockNumber.Uint64())
	})
}

func runClaim(_ *cobra.Command, _ []string) error {
	return withWallet(func(ctx context.Context, w *wallet.Wallet) error {
		receipt, err := w.Claim(ctx)
		if err != nil {
			return err
		}
		return printReceipt(receipt.TxHash.Hex(), receipt.BlockNumber.Uint64())
	})
}

// parseAmount parses a positive decimal amount in base token units.
func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, walleterr.WithDetail(walleterr.ErrInvalidInput, "amount", s)
	}
	return amount, nil
}

func printReceipt(hash string, block uint64) error {
	resp := TxResponse{TxHash: hash, Block: block, Status: "confirmed"}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(resp)
	}
	fmt.Printf("Confirmed in block %d\n", resp.Block)
	fmt.Printf("Tx: %s\n", resp.TxHash)
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(claimCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (required)")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in base token units (required)")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}
