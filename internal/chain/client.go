package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goodwallet/goodwallet/internal/keys"
)

// SendOpts carries the gas parameters for a signed submission.
type SendOpts struct {
	Gas      uint64
	GasPrice *big.Int
}

// TransferEvent is an on-chain notification that funds moved into or
// out of a tracked account.
type TransferEvent struct {
	From        common.Address
	To          common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// Subscription is a handle over a running event stream. Unsubscribe is
// idempotent; Err yields at most one terminal stream error.
type Subscription interface {
	Unsubscribe()
	Err() <-chan error
}

// Client is the RPC surface the wallet core consumes. Implementations
// wrap transport errors rather than leaking them raw.
type Client interface {
	// Call executes a read-only contract method and decodes the result.
	Call(ctx context.Context, contract *Contract, method string, result interface{}, args ...interface{}) error

	// EstimateGas estimates gas for calling a contract method from an address.
	EstimateGas(ctx context.Context, from common.Address, contract *Contract, method string, args ...interface{}) (uint64, error)

	// SendSigned signs and submits a contract call, returning a handle
	// that emits at most one hash notification and then exactly one
	// terminal outcome.
	SendSigned(ctx context.Context, from *keys.Account, contract *Contract, method string, opts SendOpts, args ...interface{}) (*TxHandle, error)

	// SuggestGasPrice queries the network's current gas price.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// SubscribeTransfers streams Transfer events touching the account
	// (either direction), starting from the given block cursor. Events
	// are delivered to sink until Unsubscribe or a terminal stream error.
	SubscribeTransfers(ctx context.Context, token *Contract, account common.Address, fromBlock uint64, sink chan<- TransferEvent) (Subscription, error)

	// Close releases the transport.
	Close()
}

// TxOutcome is the terminal result of a submitted transaction.
type TxOutcome struct {
	Receipt *types.Receipt
	Err     error
}

// TxHandle represents one in-flight signed call. It emits, over its
// lifetime, at most one hash notification, then exactly one of
// confirmed or error. Confirmation notifications are not assumed
// reliable; callers race the handle against their own deadline.
type TxHandle struct {
	hashOnce sync.Once
	doneOnce sync.Once
	hashCh   chan common.Hash
	doneCh   chan TxOutcome
}

// NewTxHandle creates an empty transaction handle.
func NewTxHandle() *TxHandle {
	return &TxHandle{
		hashCh: make(chan common.Hash, 1),
		doneCh: make(chan TxOutcome, 1),
	}
}

// Hash yields the transaction hash once the network accepts the
// submission. It may never yield if the network never acknowledges.
func (h *TxHandle) Hash() <-chan common.Hash {
	return h.hashCh
}

// Done yields the terminal outcome exactly once.
func (h *TxHandle) Done() <-chan TxOutcome {
	return h.doneCh
}

// EmitHash records the assigned hash. Subsequent calls are no-ops.
func (h *TxHandle) EmitHash(hash common.Hash) {
	h.hashOnce.Do(func() {
		h.hashCh <- hash
	})
}

// Complete records the terminal outcome. Subsequent calls are no-ops:
// a handle never re-enters a non-terminal state. If no hash was ever
// emitted the hash channel is closed so waiters stop listening for one.
func (h *TxHandle) Complete(outcome TxOutcome) {
	h.doneOnce.Do(func() {
		h.hashOnce.Do(func() {
			close(h.hashCh)
		})
		h.doneCh <- outcome
	})
}
