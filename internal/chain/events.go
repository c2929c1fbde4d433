package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goodwallet/goodwallet/internal/log"
	walleterr "github.com/goodwallet/goodwallet/pkg/errors"
)

// transferSubscription implements Subscription for both transports.
type transferSubscription struct {
	stopOnce sync.Once
	stop     chan struct{}
	errCh    chan error
}

func newTransferSubscription() *transferSubscription {
	return &transferSubscription{
		stop:  make(chan struct{}),
		errCh: make(chan error, 1),
	}
}

// Unsubscribe stops the stream. Safe to call multiple times.
func (s *transferSubscription) Unsubscribe() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Err yields at most one terminal stream error.
func (s *transferSubscription) Err() <-chan error {
	return s.errCh
}

func (s *transferSubscription) fail(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

// SubscribeTransfers streams Transfer events where the account is the
// sender or the recipient, starting from the given block cursor. A
// WebSocket transport uses a push subscription; HTTP falls back to
// interval polling with eth_getLogs.
func (c *EthClient) SubscribeTransfers(ctx context.Context, token *Contract, account common.Address, fromBlock uint64, sink chan<- TransferEvent) (Subscription, error) {
	transferID, err := token.EventID("Transfer")
	if err != nil {
		return nil, err
	}

	accountTopic := common.BytesToHash(account.Bytes())

	// Two queries, mirroring the two directional filters: topics cannot
	// express from==X OR to==X in a single position.
	fromQuery := ethereum.FilterQuery{
		Addresses: []common.Address{token.Address},
		Topics:    [][]common.Hash{{transferID}, {accountTopic}},
		FromBlock: new(big.Int).SetUint64(fromBlock),
	}
	toQuery := ethereum.FilterQuery{
		Addresses: []common.Address{token.Address},
		Topics:    [][]common.Hash{{transferID}, nil, {accountTopic}},
		FromBlock: new(big.Int).SetUint64(fromBlock),
	}

	sub := newTransferSubscription()

	if c.ws {
		if err := c.subscribePush(ctx, sub, token, []ethereum.FilterQuery{fromQuery, toQuery}, sink); err != nil {
			return nil, err
		}
		return sub, nil
	}

	go c.pollLogs(sub, token, account, transferID, fromBlock, sink)
	return sub, nil
}

// subscribePush wires real log subscriptions over WebSocket.
func (c *EthClient) subscribePush(ctx context.Context, sub *transferSubscription, token *Contract, queries []ethereum.FilterQuery, sink chan<- TransferEvent) error {
	logsCh := make(chan types.Log, 16)

	subs := make([]ethereum.Subscription, 0, len(queries))
	for _, q := range queries {
		ethSub, err := c.ec.SubscribeFilterLogs(ctx, q, logsCh)
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return walleterr.Wrap(walleterr.ErrNetwork, "subscribeLogs", err)
		}
		subs = append(subs, ethSub)
	}

	go func() {
		defer func() {
			for _, s := range subs {
				s.Unsubscribe()
			}
		}()

		errCases := make(chan error, len(subs))
		for _, s := range subs {
			s := s
			go func() {
				if err, ok := <-s.Err(); ok && err != nil {
					errCases <- err
				}
			}()
		}

		for {
			select {
			case <-sub.stop:
				return
			case err := <-errCases:
				sub.fail(walleterr.Wrap(walleterr.ErrNetwork, "subscribeLogs", err))
				return
			case lg := <-logsCh:
				event, err := decodeTransfer(token, lg)
				if err != nil {
					log.Chain.Warn().Err(err).Msg("skipping undecodable transfer log")
					continue
				}
				select {
				case sink <- event:
				case <-sub.stop:
					return
				}
			}
		}
	}()

	return nil
}

// pollLogs emulates a subscription over HTTP by polling eth_getLogs
// from the last seen block. Transient query failures are retried with
// backoff on the next tick rather than terminating the stream.
func (c *EthClient) pollLogs(sub *transferSubscription, token *Contract, account common.Address, transferID common.Hash, fromBlock uint64, sink chan<- TransferEvent) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sub.stop
		cancel()
	}()

	cursor := fromBlock

	for {
		select {
		case <-sub.stop:
			return
		case <-time.After(c.pollInterval):
		}

		head, err := c.BlockNumber(ctx)
		if err != nil {
			log.Chain.Debug().Err(err).Msg("log poll: head query failed")
			continue
		}
		if head < cursor {
			continue
		}

		query := ethereum.FilterQuery{
			Addresses: []common.Address{token.Address},
			Topics:    [][]common.Hash{{transferID}},
			FromBlock: new(big.Int).SetUint64(cursor),
			ToBlock:   new(big.Int).SetUint64(head),
		}

		logs, err := Retry(ctx, func() ([]types.Log, error) {
			batch, ferr := c.ec.FilterLogs(ctx, query)
			if ferr != nil {
				return nil, WrapRetryable(ferr)
			}
			return batch, nil
		})
		if err != nil {
			log.Chain.Debug().Err(err).Uint64("from", cursor).Msg("log poll: query failed")
			continue
		}

		for _, lg := range logs {
			event, derr := decodeTransfer(token, lg)
			if derr != nil {
				continue
			}
			if event.From != account && event.To != account {
				continue
			}
			select {
			case sink <- event:
			case <-sub.stop:
				return
			}
		}

		cursor = head + 1
	}
}

// decodeTransfer unpacks a Transfer log into a TransferEvent.
func decodeTransfer(token *Contract, lg types.Log) (TransferEvent, error) {
	var payload struct {
		Value *big.Int
	}
	if err := token.ABI.UnpackIntoInterface(&payload, "Transfer", lg.Data); err != nil {
		return TransferEvent{}, err
	}

	event := TransferEvent{
		Amount:      payload.Value,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
	}
	if len(lg.Topics) >= 3 {
		event.From = common.BytesToAddress(lg.Topics[1].Bytes())
		event.To = common.BytesToAddress(lg.Topics[2].Bytes())
	}
	return event, nil
}
