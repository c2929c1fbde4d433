package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/log"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// HandleTxGracefully waits for a transaction handle's terminal outcome,
// bounded by the configured confirmation deadline. Chain confirmation
// latency is unbounded; the caller must not hang indefinitely.
//
// If the deadline elapses after a hash was captured the failure carries
// the hash: the transaction may still land on-chain and can be
// reconciled later by hash lookup. Without a hash there is nothing to
// reconcile and a plain timeout is returned. A handle error propagates
// verbatim; a confirmation resolves with the receipt.
func (w *Wallet) HandleTxGracefully(ctx context.Context, handle *chain.TxHandle) (*types.Receipt, error) {
	var txHash *common.Hash

	deadline := time.NewTimer(w.confirmTimeout)
	defer deadline.Stop()

	hashCh := handle.Hash()

	for {
		select {
		case hash, ok := <-hashCh:
			// At most one hash ever arrives; stop listening either way.
			hashCh = nil
			if ok {
				hash := hash
				txHash = &hash
			}

		case outcome := <-handle.Done():
			if outcome.Err != nil {
				return nil, outcome.Err
			}
			return outcome.Receipt, nil

		case <-deadline.C:
			if txHash != nil {
				log.Wallet.Warn().Str("tx_hash", txHash.Hex()).Msg("confirmation deadline elapsed with known hash")
				return nil, walleterr.WithDetail(
					walleterr.Wrap(walleterr.ErrTxTimeout, "handleTx", nil),
					"tx_hash", txHash.Hex(),
				)
			}
			return nil, walleterr.Wrap(walleterr.ErrTimeout, "handleTx", nil)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SendAmount transfers tokens from the primary account.
//
// Validation happens before any gas work: a malformed address or a
// non-spendable amount fails immediately without touching estimation.
// Gas estimation failure aborts the send; there is no blind gas guess
// for transfers.
func (w *Wallet) SendAmount(ctx context.Context, to string, amount *big.Int) (*types.Receipt, error) {
	if !common.IsHexAddress(to) {
		return nil, walleterr.Wrap(walleterr.ErrInvalidAddress, "sendAmount", nil)
	}

	if amount == nil || amount.Sign() <= 0 {
		return nil, walleterr.Wrap(walleterr.ErrInsufficientFunds, "sendAmount", nil)
	}
	ok, err := w.CanSend(ctx, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, walleterr.Wrap(walleterr.ErrInsufficientFunds, "sendAmount", nil)
	}

	recipient := common.HexToAddress(to)
	gasPrice := w.GasPrice(ctx)

	gas, err := w.client.EstimateGas(ctx, w.Address(), w.token, "transfer", recipient, amount)
	if err != nil {
		return nil, err
	}

	log.Wallet.Debug().
		Str("to", recipient.Hex()).
		Str("amount", amount.String()).
		Uint64("gas", gas).
		Msg("submitting transfer")

	handle, err := w.client.SendSigned(ctx, w.account, w.token, "transfer",
		chain.SendOpts{Gas: gas, GasPrice: gasPrice}, recipient, amount)
	if err != nil {
		return nil, err
	}

	return w.HandleTxGracefully(ctx, handle)
}

// Claim submits a claimTokens call for the verified identity's
// entitlement and waits under the timeout policy.
func (w *Wallet) Claim(ctx context.Context) (*types.Receipt, error) {
	gas, err := w.client.EstimateGas(ctx, w.Address(), w.claim, "claimTokens")
	if err != nil {
		return nil, err
	}

	handle, err := w.client.SendSigned(ctx, w.account, w.claim, "claimTokens",
		chain.SendOpts{Gas: gas, GasPrice: w.GasPrice(ctx)})
	if err != nil {
		return nil, err
	}

	return w.HandleTxGracefully(ctx, handle)
}
