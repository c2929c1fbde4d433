package wallet

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/log"
	"github.com/goodwallet/goodwallet/internal/secure"
	"github.com/goodwallet/goodwallet/internal/storage"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// linkEntropyBytes is the amount of fresh randomness behind a link
// code. The code is independent of any account key material: a leaked
// link must not expose the wallet.
const linkEntropyBytes = 10

// LinkIntent is the two-phase result of beginning a payment link. The
// shareable code is available synchronously; the transaction hash
// arrives later via OnHashKnown so the caller can persist a pending
// record before confirmation is known; Wait applies the confirmation
// timeout policy to completion.
type LinkIntent struct {
	Code   string
	Amount *big.Int
	Reason string

	wallet *Wallet
	handle *chain.TxHandle

	mu       sync.Mutex
	hash     *common.Hash
	handlers []func(common.Hash)
}

// OnHashKnown registers a callback invoked once the network assigns a
// transaction hash. If the hash is already known the callback runs
// immediately.
func (li *LinkIntent) OnHashKnown(fn func(common.Hash)) {
	li.mu.Lock()
	if li.hash != nil {
		hash := *li.hash
		li.mu.Unlock()
		fn(hash)
		return
	}
	li.handlers = append(li.handlers, fn)
	li.mu.Unlock()
}

// Hash returns the transaction hash if the network has assigned one.
func (li *LinkIntent) Hash() (common.Hash, bool) {
	li.mu.Lock()
	defer li.mu.Unlock()
	if li.hash == nil {
		return common.Hash{}, false
	}
	return *li.hash, true
}

// Wait blocks until the deposit transaction completes or the
// confirmation deadline elapses, with the same timeout semantics as
// any other submission.
func (li *LinkIntent) Wait(ctx context.Context) (*types.Receipt, error) {
	deadline := time.NewTimer(li.wallet.confirmTimeout)
	defer deadline.Stop()

	select {
	case outcome := <-li.handle.Done():
		if outcome.Err != nil {
			li.markPending(storage.TxStateFailed)
			return nil, outcome.Err
		}
		li.markPending(storage.TxStateConfirmed)
		return outcome.Receipt, nil

	case <-deadline.C:
		if hash, ok := li.Hash(); ok {
			li.markPending(storage.TxStateTimedOut)
			return nil, walleterr.WithDetail(
				walleterr.Wrap(walleterr.ErrTxTimeout, "beginLink", nil),
				"tx_hash", hash.Hex(),
			)
		}
		return nil, walleterr.Wrap(walleterr.ErrTimeout, "beginLink", nil)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (li *LinkIntent) markPending(state string) {
	hash, ok := li.Hash()
	if !ok {
		return
	}
	if err := li.wallet.pending.MarkState(hash.Hex(), state); err != nil {
		log.Wallet.Warn().Err(err).Str("tx_hash", hash.Hex()).Msg("updating pending link record failed")
	}
}

// observeHash consumes the handle's hash notification, persists the
// write-ahead record, and fans out to registered callbacks.
func (li *LinkIntent) observeHash() {
	hash, ok := <-li.handle.Hash()
	if !ok {
		return
	}

	li.mu.Lock()
	li.hash = &hash
	handlers := li.handlers
	li.handlers = nil
	li.mu.Unlock()

	record := &storage.PendingTxRecord{
		Hash:     hash.Hex(),
		Kind:     "link_deposit",
		LinkCode: li.Code,
		Amount:   li.Amount.String(),
		Reason:   li.Reason,
		State:    storage.TxStatePending,
	}
	if err := li.wallet.pending.Save(record); err != nil {
		log.Wallet.Warn().Err(err).Str("tx_hash", hash.Hex()).Msg("persisting pending link record failed")
	}

	for _, fn := range handlers {
		fn(hash)
	}
}

// BeginLink creates a one-time claimable payment link. The deposit is
// encoded as an inner call against the link registry and carried by the
// token's transferAndCall; gas is estimated for that outer call, the
// one actually submitted. The shareable code is returned synchronously
// once submission has begun; link usability is asynchronous.
func (w *Wallet) BeginLink(ctx context.Context, amount *big.Int, reason string) (*LinkIntent, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, walleterr.Wrap(walleterr.ErrInsufficientFunds, "beginLink", nil)
	}
	ok, err := w.CanSend(ctx, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, walleterr.Wrap(walleterr.ErrInsufficientFunds, "beginLink", nil)
	}

	code, codeWord, err := generateLinkCode()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInitialization, "beginLink", err)
	}

	innerCall, err := w.links.Pack("deposit", w.Address(), codeWord, amount)
	if err != nil {
		return nil, err
	}

	// Estimate against the outer transferAndCall, not the inner deposit:
	// estimation must reflect the transaction actually submitted.
	gas, err := w.client.EstimateGas(ctx, w.Address(), w.token, "transferAndCall",
		w.links.Address, amount, innerCall)
	if err != nil {
		return nil, err
	}

	handle, err := w.client.SendSigned(ctx, w.account, w.token, "transferAndCall",
		chain.SendOpts{Gas: gas, GasPrice: w.GasPrice(ctx)},
		w.links.Address, amount, innerCall)
	if err != nil {
		return nil, err
	}

	intent := &LinkIntent{
		Code:   code,
		Amount: new(big.Int).Set(amount),
		Reason: reason,
		wallet: w,
		handle: handle,
	}
	go intent.observeHash()

	log.Wallet.Debug().Str("amount", amount.String()).Msg("payment link deposit submitted")
	return intent, nil
}

// RedeemLink withdraws a one-time payment link by its code. A link
// claims exactly once; an already-used code fails without submitting.
func (w *Wallet) RedeemLink(ctx context.Context, code string) (*types.Receipt, error) {
	codeWord, err := parseLinkCode(code)
	if err != nil {
		return nil, err
	}

	var used bool
	if err := w.client.Call(ctx, w.links, "isLinkUsed", &used, codeWord); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrChainQuery, "redeemLink", err)
	}
	if used {
		return nil, walleterr.Wrap(walleterr.ErrLinkUsed, "redeemLink", nil)
	}

	gas, err := w.client.EstimateGas(ctx, w.Address(), w.links, "withdraw", codeWord)
	if err != nil {
		return nil, err
	}

	handle, err := w.client.SendSigned(ctx, w.account, w.links, "withdraw",
		chain.SendOpts{Gas: gas, GasPrice: w.GasPrice(ctx)}, codeWord)
	if err != nil {
		return nil, err
	}

	return w.HandleTxGracefully(ctx, handle)
}

// PendingLinks lists persisted write-ahead link records.
func (w *Wallet) PendingLinks() ([]*storage.PendingTxRecord, error) {
	return w.pending.List()
}

// generateLinkCode produces the opaque one-time code and its on-chain
// 32-byte form. The code is the keccak digest of fresh entropy, so it
// cannot be derived from the seed or any account key.
func generateLinkCode() (string, [32]byte, error) {
	var word [32]byte

	entropy, err := secure.RandomBytes(linkEntropyBytes)
	if err != nil {
		return "", word, err
	}

	copy(word[:], ethcrypto.Keccak256(entropy))
	return hexutil.Encode(word[:]), word, nil
}

// parseLinkCode decodes a shared code back into its 32-byte form.
func parseLinkCode(code string) ([32]byte, error) {
	var word [32]byte

	raw, err := hexutil.Decode(code)
	if err != nil || len(raw) != 32 {
		return word, walleterr.WithDetail(
			walleterr.Wrap(walleterr.ErrNotFound, "redeemLink", err),
			"code", code,
		)
	}

	copy(word[:], raw)
	return word, nil
}
