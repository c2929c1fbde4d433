package wallet

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/log"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// listener owns the running transfer-event subscription. Holding the
// handle (instead of a bare started flag) makes starting a guarded
// state transition and stopping idempotent.
type listener struct {
	sub  chain.Subscription
	quit chan struct{}
	done chan struct{}
}

// UpdateAll refreshes balance and entitlement. The two reads are
// independent and fetched concurrently; the result is committed against
// the block observed before the reads, so a slower, older refresh
// cannot overwrite a newer one. Errors are logged and swallowed: a
// failed refresh leaves the previous state in place.
//
// Returns true when the committed state changed.
func (w *Wallet) UpdateAll(ctx context.Context) bool {
	block, err := w.client.BlockNumber(ctx)
	if err != nil {
		log.Sync.Warn().Err(err).Msg("refresh skipped: block number query failed")
		return false
	}

	var (
		wg          sync.WaitGroup
		balance     *big.Int
		entitlement *big.Int
		balErr      error
		entErr      error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		balance, balErr = w.BalanceOf(ctx)
	}()
	go func() {
		defer wg.Done()
		entitlement, entErr = w.CheckEntitlement(ctx)
	}()
	wg.Wait()

	if balErr != nil || entErr != nil {
		log.Sync.Warn().
			AnErr("balance_err", balErr).
			AnErr("entitlement_err", entErr).
			Msg("refresh skipped: fetch failed")
		return false
	}

	changed := w.syncState.Commit(balance, entitlement, block)
	if changed {
		log.Sync.Debug().
			Str("balance", balance.String()).
			Str("entitlement", entitlement.String()).
			Uint64("block", block).
			Msg("account state updated")
	}
	return changed
}

// StartBalanceListener subscribes to Transfer events touching the
// primary account, resuming from the persisted block cursor. Each
// event triggers a refresh and advances the persisted cursor. Starting
// twice is a no-op: the running subscription handle is the guard.
func (w *Wallet) StartBalanceListener(ctx context.Context) error {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()

	if w.listener != nil {
		return nil
	}

	cursor := w.loadBlockCursor()
	sink := make(chan chain.TransferEvent, 16)

	sub, err := w.client.SubscribeTransfers(ctx, w.token, w.Address(), cursor, sink)
	if err != nil {
		return walleterr.Wrap(walleterr.ErrNetwork, "startBalanceListener", err)
	}

	l := &listener{sub: sub, quit: make(chan struct{}), done: make(chan struct{})}
	w.listener = l
	w.syncState.AdvanceBlock(cursor)

	go w.consumeTransfers(l, sink)

	log.Sync.Info().Uint64("from_block", cursor).Msg("balance listener started")
	return nil
}

// StopBalanceListener cancels the running subscription. Safe to call
// when no listener is running, and safe to call twice.
func (w *Wallet) StopBalanceListener() {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()

	if w.listener == nil {
		return
	}
	w.listener.sub.Unsubscribe()
	close(w.listener.quit)
	<-w.listener.done
	w.listener = nil
}

func (w *Wallet) consumeTransfers(l *listener, sink <-chan chain.TransferEvent) {
	defer close(l.done)

	for {
		select {
		case <-l.quit:
			return

		case err := <-l.sub.Err():
			log.Sync.Error().Err(err).Msg("transfer subscription terminated")
			return

		case event, ok := <-sink:
			if !ok {
				return
			}
			log.Sync.Debug().
				Str("from", event.From.Hex()).
				Str("to", event.To.Hex()).
				Uint64("block", event.BlockNumber).
				Msg("transfer event")

			refreshCtx, cancel := context.WithTimeout(context.Background(), w.confirmTimeout)
			w.UpdateAll(refreshCtx)
			cancel()

			w.syncState.AdvanceBlock(event.BlockNumber)
			w.saveBlockCursor(event.BlockNumber)
		}
	}
}

// loadBlockCursor reads the persisted last processed block. Missing or
// unreadable cursors restart from the configured genesis of interest
// (zero), which only costs a larger first poll.
func (w *Wallet) loadBlockCursor() uint64 {
	raw, err := w.kv.Get([]byte(blockCursorKey))
	if err != nil {
		return 0
	}
	cursor, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return cursor
}

func (w *Wallet) saveBlockCursor(block uint64) {
	if err := w.kv.Put([]byte(blockCursorKey), []byte(strconv.FormatUint(block, 10))); err != nil {
		log.Sync.Warn().Err(err).Uint64("block", block).Msg("persisting block cursor failed")
	}
}
