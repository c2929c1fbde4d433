package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/seedstore"
	"github.com/goodwallet/goodwallet/internal/wallet"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the account for balance changes",
	Long: `Subscribe to token transfers touching the primary account and print
the refreshed balance after each one. Runs until interrupted.`,
	Example: `  goodwallet watch`,
	RunE:    runWatch,
}

func runWatch(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	client, err := chain.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	w := wallet.New(cfg, seedstore.New(kv), client, kv)
	if err := w.Initialize(ctx); err != nil {
		return err
	}
	defer w.Close()

	updates, unsubscribe := w.SyncState().Subscribe()
	defer unsubscribe()

	if err := w.StartBalanceListener(ctx); err != nil {
		return err
	}

	// Seed the state before the first event arrives.
	w.UpdateAll(ctx)
	printSnapshot(w)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			printSnapshot(w)
		}
	}
}

func printSnapshot(w *wallet.Wallet) {
	snap := w.SyncState().Snapshot()
	if !snap.Ready {
		return
	}
	if jsonOutput {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"balance":     snap.Balance.String(),
			"entitlement": snap.Entitlement.String(),
		})
		return
	}
	fmt.Printf("balance=%s entitlement=%s block=%d\n",
		snap.Balance, snap.Entitlement, snap.LastProcessedBlock)
}
