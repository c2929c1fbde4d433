package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/goodwallet/goodwallet/internal/config"
	"github.com/goodwallet/goodwallet/internal/keys"
	"github.com/goodwallet/goodwallet/internal/log"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// maxReceiptWait caps how long the background receipt poller keeps
// looking for a confirmation after broadcast. This is independent of
// the caller's observation deadline, which only abandons waiting.
const maxReceiptWait = 10 * time.Minute

// Compile-time interface check
var _ Client = (*EthClient)(nil)

// EthClient implements Client over a go-ethereum JSON-RPC connection.
type EthClient struct {
	endpoint        string
	ws              bool
	rpc             *rpc.Client
	ec              *ethclient.Client
	signer          types.Signer
	limiter         *RateLimiter
	receiptInterval time.Duration
	pollInterval    time.Duration
}

// Dial connects to the configured RPC endpoint, HTTP or WebSocket.
func Dial(ctx context.Context, cfg *config.Config) (*EthClient, error) {
	endpoint := cfg.Endpoint()
	if endpoint == "" {
		return nil, fmt.Errorf("no RPC endpoint configured for transport %q", cfg.Network.Transport)
	}

	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrNetwork, "dial", err)
	}

	receiptInterval := cfg.Tx.ReceiptPollInterval
	if receiptInterval <= 0 {
		receiptInterval = time.Second
	}
	pollInterval := cfg.Tx.EventPollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &EthClient{
		endpoint:        endpoint,
		ws:              strings.HasPrefix(endpoint, "ws"),
		rpc:             rpcClient,
		ec:              ethclient.NewClient(rpcClient),
		signer:          types.LatestSignerForChainID(new(big.Int).SetUint64(cfg.Network.ID)),
		limiter:         DefaultRateLimiter(),
		receiptInterval: receiptInterval,
		pollInterval:    pollInterval,
	}, nil
}

// Call executes a read-only contract method and decodes the result.
func (c *EthClient) Call(ctx context.Context, contract *Contract, method string, result interface{}, args ...interface{}) error {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return err
	}

	data, err := contract.Pack(method, args...)
	if err != nil {
		return err
	}

	msg := ethereum.CallMsg{
		To:   &contract.Address,
		Data: data,
	}

	out, err := c.ec.CallContract(ctx, msg, nil)
	if err != nil {
		return walleterr.Wrap(walleterr.ErrNetwork, contract.Name+"."+method, err)
	}

	return contract.Unpack(method, out, result)
}

// EstimateGas estimates gas for calling a contract method.
func (c *EthClient) EstimateGas(ctx context.Context, from common.Address, contract *Contract, method string, args ...interface{}) (uint64, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return 0, err
	}

	data, err := contract.Pack(method, args...)
	if err != nil {
		return 0, err
	}

	msg := ethereum.CallMsg{
		From: from,
		To:   &contract.Address,
		Data: data,
	}

	gas, err := c.ec.EstimateGas(ctx, msg)
	if err != nil {
		return 0, walleterr.Wrap(walleterr.ErrGasEstimation, contract.Name+"."+method, err)
	}
	return gas, nil
}

// SendSigned signs and broadcasts a contract call. Submission and
// receipt tracking run detached from the caller's context: the
// observation timeout abandons waiting locally but cannot recall a
// transaction already handed to the network.
func (c *EthClient) SendSigned(ctx context.Context, from *keys.Account, contract *Contract, method string, opts SendOpts, args ...interface{}) (*TxHandle, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	nonce, err := c.ec.PendingNonceAt(ctx, from.Address)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrNetwork, contract.Name+"."+method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract.Address,
		Value:    big.NewInt(0),
		Gas:      opts.Gas,
		GasPrice: opts.GasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, c.signer, from.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("signing %s.%s: %w", contract.Name, method, err)
	}

	handle := NewTxHandle()
	go c.broadcast(signed, contract.Name+"."+method, handle)
	return handle, nil
}

func (c *EthClient) broadcast(tx *types.Transaction, op string, handle *TxHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), maxReceiptWait)
	defer cancel()

	if err := c.ec.SendTransaction(ctx, tx); err != nil {
		handle.Complete(TxOutcome{Err: walleterr.Wrap(walleterr.ErrNetwork, op, err)})
		return
	}

	hash := tx.Hash()
	handle.EmitHash(hash)
	log.Chain.Debug().Str("op", op).Str("tx_hash", hash.Hex()).Msg("transaction broadcast")

	ticker := time.NewTicker(c.receiptInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			handle.Complete(TxOutcome{Err: walleterr.Wrap(walleterr.ErrNetwork, op, ctx.Err())})
			return
		case <-ticker.C:
			receipt, err := c.ec.TransactionReceipt(ctx, hash)
			if err != nil {
				// Not mined yet; keep polling.
				continue
			}
			if receipt.Status == types.ReceiptStatusFailed {
				handle.Complete(TxOutcome{
					Receipt: receipt,
					Err: walleterr.WithDetail(
						walleterr.Wrap(walleterr.ErrTxReverted, op, nil),
						"tx_hash", hash.Hex(),
					),
				})
				return
			}
			handle.Complete(TxOutcome{Receipt: receipt})
			return
		}
	}
}

// SuggestGasPrice queries the network's current gas price.
func (c *EthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}

	price, err := c.ec.SuggestGasPrice(ctx)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrNetwork, "gasPrice", err)
	}
	return price, nil
}

// BlockNumber returns the latest block number.
func (c *EthClient) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return 0, err
	}

	n, err := c.ec.BlockNumber(ctx)
	if err != nil {
		return 0, walleterr.Wrap(walleterr.ErrNetwork, "blockNumber", err)
	}
	return n, nil
}

// Close releases the transport.
func (c *EthClient) Close() {
	c.rpc.Close()
}
