package wallet

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/goodwallet/goodwallet/internal/chain"
	"github.com/goodwallet/goodwallet/internal/config"
	"github.com/goodwallet/goodwallet/internal/keys"
	"github.com/goodwallet/goodwallet/internal/seedstore"
	"github.com/goodwallet/goodwallet/internal/storage"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// submission captures one SendSigned call and the handle the fake
// returned for it, so tests can drive the outcome.
type submission struct {
	contract string
	method   string
	args     []interface{}
	opts     chain.SendOpts
	handle   *chain.TxHandle
}

// fakeSubscription implements chain.Subscription for tests.
type fakeSubscription struct {
	once  sync.Once
	errCh chan error
}

func (s *fakeSubscription) Unsubscribe()      { s.once.Do(func() {}) }
func (s *fakeSubscription) Err() <-chan error { return s.errCh }
func (s *fakeSubscription) fail(err error)    { s.errCh <- err }

// fakeClient is an in-memory chain.Client. Reads are served from
// configured values; submissions hand back handles the test completes.
type fakeClient struct {
	mu          sync.Mutex
	balance     *big.Int
	entitlement *big.Int
	verified    bool
	linkUsed    bool
	gasPrice    *big.Int
	gasPriceErr error
	block       uint64
	blockErr    error
	callErr     error
	estimateErr error

	estimateCalls []string
	sendCh        chan *submission

	subscribeCount int
	subSink        chan<- chain.TransferEvent
	sub            *fakeSubscription
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balance:     big.NewInt(100),
		entitlement: big.NewInt(10),
		verified:    true,
		gasPrice:    big.NewInt(2_000_000_000),
		block:       50,
		sendCh:      make(chan *submission, 8),
	}
}

func (f *fakeClient) Call(_ context.Context, contract *chain.Contract, method string, result interface{}, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.callErr != nil {
		return f.callErr
	}

	switch method {
	case "balanceOf":
		*(result.(**big.Int)) = new(big.Int).Set(f.balance)
	case "checkEntitlement":
		*(result.(**big.Int)) = new(big.Int).Set(f.entitlement)
	case "isVerified":
		*(result.(*bool)) = f.verified
	case "isLinkUsed":
		*(result.(*bool)) = f.linkUsed
	default:
		panic("unexpected call: " + contract.Name + "." + method)
	}
	return nil
}

func (f *fakeClient) EstimateGas(_ context.Context, _ common.Address, contract *chain.Contract, method string, _ ...interface{}) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimateCalls = append(f.estimateCalls, contract.Name+"."+method)
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 90000, nil
}

func (f *fakeClient) SendSigned(_ context.Context, _ *keys.Account, contract *chain.Contract, method string, opts chain.SendOpts, args ...interface{}) (*chain.TxHandle, error) {
	handle := chain.NewTxHandle()
	f.sendCh <- &submission{
		contract: contract.Name,
		method:   method,
		args:     args,
		opts:     opts,
		handle:   handle,
	}
	return handle, nil
}

func (f *fakeClient) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gasPriceErr != nil {
		return nil, f.gasPriceErr
	}
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeClient) BlockNumber(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockErr != nil {
		return 0, f.blockErr
	}
	return f.block, nil
}

func (f *fakeClient) SubscribeTransfers(_ context.Context, _ *chain.Contract, _ common.Address, _ uint64, sink chan<- chain.TransferEvent) (chain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeCount++
	f.subSink = sink
	f.sub = &fakeSubscription{errCh: make(chan error, 1)}
	return f.sub, nil
}

func (f *fakeClient) Close() {}

func (f *fakeClient) setBalance(v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = big.NewInt(v)
}

func (f *fakeClient) setBlock(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = v
}

func (f *fakeClient) sink() chan<- chain.TransferEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subSink
}

func (f *fakeClient) subscription() *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

func (f *fakeClient) subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribeCount
}

func (f *fakeClient) estimates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.estimateCalls))
	copy(out, f.estimateCalls)
	return out
}

// awaitSubmission waits for the next SendSigned call.
func (f *fakeClient) awaitSubmission(t *testing.T) *submission {
	t.Helper()
	select {
	case sub := <-f.sendCh:
		return sub
	case <-time.After(5 * time.Second):
		t.Fatal("no submission observed")
		return nil
	}
}

// testWallet bundles an initialized wallet over a fake client.
type testWallet struct {
	w  *Wallet
	fc *fakeClient
	kv *storage.MemoryKV
}

func newTestWallet(t *testing.T, timeout time.Duration) *testWallet {
	t.Helper()

	cfg := config.Defaults()
	cfg.Tx.ConfirmationTimeout = timeout

	kv := storage.NewMemoryKV()
	fc := newFakeClient()
	w := New(cfg, seedstore.New(kv), fc, kv)
	require.NoError(t, w.Initialize(context.Background()))
	t.Cleanup(w.Close)

	return &testWallet{w: w, fc: fc, kv: kv}
}

// requireWalletErr asserts err unwraps to the given sentinel.
func requireWalletErr(t *testing.T, err error, sentinel *walleterr.WalletError) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
}
