package wallet

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodwallet/goodwallet/internal/chain"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

const testRecipient = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

type sendResult struct {
	receipt *types.Receipt
	err     error
}

// startSend runs SendAmount in the background and returns its result
// channel alongside the captured submission.
func startSend(t *testing.T, tw *testWallet, to string, amount *big.Int) (<-chan sendResult, *submission) {
	t.Helper()
	results := make(chan sendResult, 1)
	go func() {
		receipt, err := tw.w.SendAmount(context.Background(), to, amount)
		results <- sendResult{receipt, err}
	}()
	return results, tw.fc.awaitSubmission(t)
}

func TestSendAmountInvalidAddress(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, time.Second)

	_, err := tw.w.SendAmount(context.Background(), "not-an-address", big.NewInt(10))
	requireWalletErr(t, err, walleterr.ErrInvalidAddress)

	// Validation failed before any gas work.
	assert.Empty(t, tw.fc.estimates())
}

func TestSendAmountRejectsNonPositive(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, time.Second)

	_, err := tw.w.SendAmount(context.Background(), testRecipient, nil)
	requireWalletErr(t, err, walleterr.ErrInsufficientFunds)

	_, err = tw.w.SendAmount(context.Background(), testRecipient, big.NewInt(0))
	requireWalletErr(t, err, walleterr.ErrInsufficientFunds)

	_, err = tw.w.SendAmount(context.Background(), testRecipient, big.NewInt(-5))
	requireWalletErr(t, err, walleterr.ErrInsufficientFunds)

	assert.Empty(t, tw.fc.estimates())
}

func TestSendAmountRejectsFullBalance(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, time.Second)
	tw.fc.setBalance(100)

	_, err := tw.w.SendAmount(context.Background(), testRecipient, big.NewInt(100))
	requireWalletErr(t, err, walleterr.ErrInsufficientFunds)
	assert.Empty(t, tw.fc.estimates())
}

func TestSendAmountGasEstimationFailure(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, time.Second)
	tw.fc.estimateErr = walleterr.Wrap(walleterr.ErrGasEstimation, "estimateGas", nil)

	_, err := tw.w.SendAmount(context.Background(), testRecipient, big.NewInt(10))
	requireWalletErr(t, err, walleterr.ErrGasEstimation)
}

func TestSendAmountConfirmed(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, 5*time.Second)
	tw.fc.setBalance(1000)

	results, sub := startSend(t, tw, testRecipient, big.NewInt(10))

	assert.Equal(t, "token", sub.contract)
	assert.Equal(t, "transfer", sub.method)
	assert.Equal(t, uint64(90000), sub.opts.Gas)
	require.Len(t, sub.args, 2)
	assert.Equal(t, common.HexToAddress(testRecipient), sub.args[0])
	assert.Equal(t, big.NewInt(10), sub.args[1])

	hash := common.HexToHash("0xf00d")
	receipt := &types.Receipt{
		TxHash:      hash,
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(77),
	}
	sub.handle.EmitHash(hash)
	sub.handle.Complete(chain.TxOutcome{Receipt: receipt})

	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, receipt, result.receipt)
}

func TestSendAmountTimeoutWithHash(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, 100*time.Millisecond)
	tw.fc.setBalance(1000)

	results, sub := startSend(t, tw, testRecipient, big.NewInt(10))

	hash := common.HexToHash("0xbeef")
	sub.handle.EmitHash(hash)
	// Never complete: the deadline decides.

	result := <-results
	requireWalletErr(t, result.err, walleterr.ErrTxTimeout)
	assert.Equal(t, hash.Hex(), walleterr.TxHash(result.err))
}

func TestSendAmountTimeoutWithoutHash(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, 100*time.Millisecond)
	tw.fc.setBalance(1000)

	results, _ := startSend(t, tw, testRecipient, big.NewInt(10))

	result := <-results
	requireWalletErr(t, result.err, walleterr.ErrTimeout)
	assert.NotErrorIs(t, result.err, walleterr.ErrTxTimeout)
	assert.Empty(t, walleterr.TxHash(result.err))
}

func TestSendAmountHandleErrorPropagates(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, 5*time.Second)
	tw.fc.setBalance(1000)

	results, sub := startSend(t, tw, testRecipient, big.NewInt(10))

	revertErr := walleterr.WithDetail(
		walleterr.Wrap(walleterr.ErrTxReverted, "broadcast", nil),
		"tx_hash", "0xdead",
	)
	sub.handle.EmitHash(common.HexToHash("0xdead"))
	sub.handle.Complete(chain.TxOutcome{Err: revertErr})

	result := <-results
	requireWalletErr(t, result.err, walleterr.ErrTxReverted)
}

func TestSendAmountContextCancellation(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, time.Hour)
	tw.fc.setBalance(1000)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan sendResult, 1)
	go func() {
		receipt, err := tw.w.SendAmount(ctx, testRecipient, big.NewInt(10))
		results <- sendResult{receipt, err}
	}()
	tw.fc.awaitSubmission(t)

	cancel()
	result := <-results
	require.ErrorIs(t, result.err, context.Canceled)
}

func TestClaim(t *testing.T) {
	t.Parallel()
	tw := newTestWallet(t, 5*time.Second)

	results := make(chan sendResult, 1)
	go func() {
		receipt, err := tw.w.Claim(context.Background())
		results <- sendResult{receipt, err}
	}()
	sub := tw.fc.awaitSubmission(t)

	assert.Equal(t, "claim", sub.contract)
	assert.Equal(t, "claimTokens", sub.method)

	receipt := &types.Receipt{
		TxHash:      common.HexToHash("0xc1a1"),
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(90),
	}
	sub.handle.EmitHash(receipt.TxHash)
	sub.handle.Complete(chain.TxOutcome{Receipt: receipt})

	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, receipt, result.receipt)
	assert.Equal(t, []string{"claim.claimTokens"}, tw.fc.estimates())
}
