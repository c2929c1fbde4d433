// Package wallet implements the wallet facade: the single owner of all
// chain interaction. It derives usage-bound accounts from the stored
// seed, binds the fixed contract set for the configured network, and
// exposes balance, entitlement, transfer and payment-link operations
// with bounded-time completion guarantees.
package wallet

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/config"
	"github.com/goodwallet/goodwallet/internal/keys"
	"github.com/goodwallet/goodwallet/internal/log"
	"github.com/goodwallet/goodwallet/internal/secure"
	"github.com/goodwallet/goodwallet/internal/seedstore"
	"github.com/goodwallet/goodwallet/internal/state"
	"github.com/goodwallet/goodwallet/internal/storage"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// blockCursorKey stores the last processed block for event listening.
const blockCursorKey = "GD_LAST_BLOCK"

// Wallet orchestrates balance queries, entitlement checks, transaction
// submission with timeout handling, event subscriptions, and payment
// link generation and redemption.
type Wallet struct {
	cfg     *config.Config
	seeds   *seedstore.Store
	client  chain.Client
	kv      storage.KV
	pending *storage.PendingTxStore

	syncState *state.State

	mu          sync.Mutex
	initialized bool
	accounts    map[keys.Usage]*keys.Account
	account     *keys.Account // primary-token account
	token       *chain.Contract
	identity    *chain.Contract
	claim       *chain.Contract
	links       *chain.Contract

	fallbackGasPrice *big.Int
	confirmTimeout   time.Duration

	listenerMu sync.Mutex
	listener   *listener
}

// New creates a wallet facade. Initialize must be called before any
// chain operation.
func New(cfg *config.Config, seeds *seedstore.Store, client chain.Client, kv storage.KV) *Wallet {
	timeout := cfg.Tx.ConfirmationTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfirmationTimeout
	}

	fallback, ok := new(big.Int).SetString(cfg.Gas.FallbackPriceWei, 10)
	if !ok || fallback.Sign() <= 0 {
		fallback, _ = new(big.Int).SetString(config.DefaultGasPriceWei, 10)
	}

	return &Wallet{
		cfg:              cfg,
		seeds:            seeds,
		client:           client,
		kv:               kv,
		pending:          storage.NewPendingTxStore(kv),
		syncState:        state.New(),
		fallbackGasPrice: fallback,
		confirmTimeout:   timeout,
	}
}

// Initialize loads the seed, derives accounts for all usages, and binds
// the contract set for the configured network id. Failure wraps the
// cause in an initialization error; retrying is the caller's decision.
func (w *Wallet) Initialize(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return nil
	}

	mnemonic, err := w.seeds.Load()
	if err != nil {
		return walleterr.Wrap(walleterr.ErrInitialization, "initialize", err)
	}

	seed, err := keys.MnemonicToSeed(mnemonic)
	if err != nil {
		return walleterr.Wrap(walleterr.ErrInitialization, "initialize", err)
	}

	// Keep the seed in locked memory for the derivation window.
	seedBuf := secure.FromSlice(seed)
	secure.Zero(seed)
	defer seedBuf.Destroy()

	accountSet, err := keys.DeriveAll(seedBuf.Bytes())
	if err != nil {
		return walleterr.Wrap(walleterr.ErrInitialization, "initialize", err)
	}

	contracts, ok := w.cfg.ContractsForNetwork()
	if !ok {
		for _, a := range accountSet {
			a.Destroy()
		}
		return walleterr.WithDetail(
			walleterr.Wrap(walleterr.ErrInitialization, "initialize", nil),
			"network_id", new(big.Int).SetUint64(w.cfg.Network.ID).String(),
		)
	}

	token, err := chain.NewContract("token", chain.TokenABI, contracts.Token)
	if err == nil {
		w.identity, err = chain.NewContract("identity", chain.IdentityABI, contracts.Identity)
	}
	if err == nil {
		w.claim, err = chain.NewContract("claim", chain.ClaimABI, contracts.Claim)
	}
	if err == nil {
		w.links, err = chain.NewContract("paymentLinks", chain.PaymentLinksABI, contracts.PaymentLinks)
	}
	if err != nil {
		for _, a := range accountSet {
			a.Destroy()
		}
		return walleterr.Wrap(walleterr.ErrInitialization, "initialize", err)
	}

	w.token = token
	w.accounts = accountSet
	w.account = accountSet[keys.UsagePrimaryToken]
	w.initialized = true

	log.Wallet.Info().
		Str("address", w.account.Address.Hex()).
		Uint64("network_id", w.cfg.Network.ID).
		Msg("wallet ready")
	return nil
}

// Close destroys the in-memory accounts and stops the balance
// listener. The persisted seed stays; a subsequent Initialize restores
// the same wallet.
func (w *Wallet) Close() {
	w.StopBalanceListener()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range w.accounts {
		a.Destroy()
	}
	w.accounts = nil
	w.account = nil
	w.initialized = false
}

// Reset destroys the in-memory accounts and removes the persisted seed.
// Used on wallet logout; a subsequent Initialize creates a new wallet.
func (w *Wallet) Reset() error {
	w.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seeds.Clear()
}

// Address returns the primary account address.
func (w *Wallet) Address() common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.account == nil {
		return common.Address{}
	}
	return w.account.Address
}

// AccountFor returns the derived account for a usage.
func (w *Wallet) AccountFor(usage keys.Usage) (*keys.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	account, ok := w.accounts[usage]
	if !ok {
		return nil, walleterr.WithDetail(walleterr.ErrNotFound, "usage", usage.String())
	}
	return account, nil
}

// SyncState returns the observable account sync state.
func (w *Wallet) SyncState() *state.State {
	return w.syncState
}

// BalanceOf returns the primary account's token balance. A transient
// RPC failure surfaces as a chain query error; no internal retry.
func (w *Wallet) BalanceOf(ctx context.Context) (*big.Int, error) {
	var balance *big.Int
	if err := w.client.Call(ctx, w.token, "balanceOf", &balance, w.Address()); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrChainQuery, "balanceOf", err)
	}
	return balance, nil
}

// CheckEntitlement returns the claimable amount the identity is owed.
func (w *Wallet) CheckEntitlement(ctx context.Context) (*big.Int, error) {
	var entitlement *big.Int
	if err := w.client.Call(ctx, w.claim, "checkEntitlement", &entitlement); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrChainQuery, "checkEntitlement", err)
	}
	return entitlement, nil
}

// IsVerified reports whether an address passed identity verification.
func (w *Wallet) IsVerified(ctx context.Context, address common.Address) (bool, error) {
	var verified bool
	if err := w.client.Call(ctx, w.identity, "isVerified", &verified, address); err != nil {
		return false, walleterr.Wrap(walleterr.ErrChainQuery, "isVerified", err)
	}
	return verified, nil
}

// IsCitizen reports whether the primary account is a verified identity.
func (w *Wallet) IsCitizen(ctx context.Context) (bool, error) {
	return w.IsVerified(ctx, w.Address())
}

// CanSend reports whether the amount is spendable. The comparison is
// strictly amount < balance: sending the exact full balance is
// disallowed as an implicit reserve for gas and remainder.
func (w *Wallet) CanSend(ctx context.Context, amount *big.Int) (bool, error) {
	balance, err := w.BalanceOf(ctx)
	if err != nil {
		return false, err
	}
	return amount.Cmp(balance) < 0, nil
}

// GasPrice returns the network gas price, degrading to the configured
// fallback when the oracle fails or reports zero. A send is never
// blocked on a gas price oracle outage.
func (w *Wallet) GasPrice(ctx context.Context) *big.Int {
	price, err := w.client.SuggestGasPrice(ctx)
	if err != nil || price == nil || price.Sign() <= 0 {
		if err != nil {
			log.Wallet.Warn().Err(err).Msg("gas price query failed, using fallback")
		}
		return new(big.Int).Set(w.fallbackGasPrice)
	}
	return price
}

// Sign signs data with a usage account using the standard signed
// message scheme.
func (w *Wallet) Sign(data []byte, usage keys.Usage) ([]byte, error) {
	account, err := w.AccountFor(usage)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Sign(accounts.TextHash(data), account.PrivateKey())
}
