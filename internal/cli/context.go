package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/seedstore"
	"github.com/goodwallet/goodwallet/internal/storage"
	"github.com/goodwallet/goodwallet/internal/wallet"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// defaultCommandTimeout bounds a regular CLI command end to end. It is
// deliberately longer than the transaction confirmation timeout so that
// confirmation, not the command, decides when a send gives up.
const defaultCommandTimeout = 60 * time.Second

// cmdContext returns a context for a single command invocation.
func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultCommandTimeout)
}

// withWallet opens the local store, dials the chain, initializes the
// wallet facade, and hands it to fn. Resources are released when fn
// returns regardless of outcome.
func withWallet(fn func(ctx context.Context, w *wallet.Wallet) error) error {
	ctx, cancel := cmdContext()
	defer cancel()

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

	return fn(ctx, w)
}

// openStore opens the on-disk key-value store under the data directory.
func openStore() (storage.KV, error) {
	dir := filepath.Join(cfg.DataDir, "store")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInitialization, "openStore", err)
	}
	return storage.OpenBadger(dir)
}
