package ledger

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethevent "github.com/ethereum/go-ethereum/event"

	"swap_go/internal/domain"
	"swap_go/internal/event"
)

// EthContract reads the escrow contract over a websocket JSON-RPC endpoint.
// It is a thin boundary layer: decoding and error classification only, no
// throttling (the gateway routes calls through the governor).
type EthContract struct {
	client *ethclient.Client
	addr   common.Address
	abi    abi.ABI

	// cached event signature topics
	evCreated   common.Hash
	evFilled    common.Hash
	evCanceled  common.Hash
	evCleanedUp common.Hash
	evRetry     common.Hash
}

// DialEscrow connects to rpcURL and binds the escrow contract at contractAddr.
// The endpoint must support eth_subscribe (websocket) for live events.
func DialEscrow(ctx context.Context, rpcURL, contractAddr string) (*EthContract, error) {
	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, domain.NewNetworkError("dial", err)
	}

	return &EthContract{
		client:      client,
		addr:        common.HexToAddress(contractAddr),
		abi:         parsed,
		evCreated:   parsed.Events["OrderCreated"].ID,
		evFilled:    parsed.Events["OrderFilled"].ID,
		evCanceled:  parsed.Events["OrderCanceled"].ID,
		evCleanedUp: parsed.Events["OrderCleanedUp"].ID,
		evRetry:     parsed.Events["RetryOrder"].ID,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *EthContract) Close() {
	c.client.Close()
}

// call packs, executes, and unpacks one read-only contract call.
func (c *EthContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.addr, Data: data}, nil)
	if err != nil {
		return nil, classify(method, err)
	}

	vals, err := c.abi.Unpack(method, out)
	if err != nil {
		// Undecodable return data will not improve on retry.
		return nil, domain.NewFatalNetworkError(method, err)
	}
	return vals, nil
}

// OrderCount returns nextOrderId, the exclusive upper bound of the id range.
func (c *EthContract) OrderCount(ctx context.Context) (uint64, error) {
	vals, err := c.call(ctx, "nextOrderId")
	if err != nil {
		return 0, err
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// ReadOrder reads one order slot and maps it into the domain model.
func (c *EthContract) ReadOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	vals, err := c.call(ctx, "orders", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}

	maker := vals[0].(common.Address)
	if maker == (common.Address{}) {
		// Never-created slot.
		return nil, domain.ErrEmptySlot
	}

	status, err := mapStatus(vals[7].(uint8))
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:          id,
		Maker:       maker,
		Taker:       vals[1].(common.Address),
		SellToken:   vals[2].(common.Address),
		BuyToken:    vals[3].(common.Address),
		SellAmount:  vals[4].(*big.Int),
		BuyAmount:   vals[5].(*big.Int),
		CreatedAt:   vals[6].(*big.Int).Int64(),
		Status:      status,
		RetryCount:  vals[8].(*big.Int).Uint64(),
		CreationFee: vals[9].(*big.Int),
	}, nil
}

// Constants reads the ledger-wide order expiry and grace period.
func (c *EthContract) Constants(ctx context.Context) (domain.LedgerConstants, error) {
	var consts domain.LedgerConstants

	vals, err := c.call(ctx, "orderExpiryTime")
	if err != nil {
		return consts, err
	}
	consts.OrderExpirySeconds = vals[0].(*big.Int).Int64()

	vals, err = c.call(ctx, "gracePeriod")
	if err != nil {
		return consts, err
	}
	consts.GracePeriodSeconds = vals[0].(*big.Int).Int64()

	return consts, nil
}

// WatchEvents subscribes to the contract's logs and feeds decoded events to
// sink. Undecodable logs are skipped (data gap, not fatal); transport errors
// surface on the returned subscription's Err channel.
func (c *EthContract) WatchEvents(ctx context.Context, sink chan<- event.Event) (ethereum.Subscription, error) {
	logs := make(chan types.Log, 256)
	logSub, err := c.client.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{c.addr},
	}, logs)
	if err != nil {
		return nil, classify("subscribe", err)
	}

	sub := gethevent.NewSubscription(func(quit <-chan struct{}) error {
		defer logSub.Unsubscribe()
		for {
			select {
			case lg := <-logs:
				if lg.Removed {
					// Reorged out; the next resync reconciles.
					continue
				}
				ev, err := c.decodeLog(lg)
				if err != nil {
					slog.Warn("Undecodable escrow log skipped",
						slog.String("tx", lg.TxHash.Hex()), slog.Any("error", err))
					continue
				}
				if ev == nil {
					continue
				}
				select {
				case sink <- ev:
				case <-quit:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			case err := <-logSub.Err():
				return err
			case <-quit:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return sub, nil
}

// decodeLog maps one contract log to an engine event. Unknown topics return
// (nil, nil) so unrelated logs never break the stream.
func (c *EthContract) decodeLog(lg types.Log) (event.Event, error) {
	if len(lg.Topics) == 0 {
		return nil, nil
	}

	switch lg.Topics[0] {
	case c.evCreated:
		vals, err := c.abi.Unpack("OrderCreated", lg.Data)
		if err != nil {
			return nil, err
		}
		ev := event.AcquireOrderCreated()
		ev.OrderID = vals[0].(*big.Int).Uint64()
		ev.Maker = vals[1].(common.Address)
		ev.Taker = vals[2].(common.Address)
		ev.SellToken = vals[3].(common.Address)
		ev.BuyToken = vals[4].(common.Address)
		ev.SellAmount = vals[5].(*big.Int)
		ev.BuyAmount = vals[6].(*big.Int)
		ev.CreatedAt = vals[7].(*big.Int).Int64()
		ev.CreationFee = vals[8].(*big.Int)
		return ev, nil

	case c.evFilled:
		vals, err := c.abi.Unpack("OrderFilled", lg.Data)
		if err != nil {
			return nil, err
		}
		ev := event.AcquireOrderFilled()
		ev.OrderID = vals[0].(*big.Int).Uint64()
		ev.Taker = vals[1].(common.Address)
		return ev, nil

	case c.evCanceled:
		vals, err := c.abi.Unpack("OrderCanceled", lg.Data)
		if err != nil {
			return nil, err
		}
		return &event.OrderCanceled{
			BaseEvent: event.BaseEvent{OrderID: vals[0].(*big.Int).Uint64()},
		}, nil

	case c.evCleanedUp:
		vals, err := c.abi.Unpack("OrderCleanedUp", lg.Data)
		if err != nil {
			return nil, err
		}
		return &event.OrderCleanedUp{
			BaseEvent: event.BaseEvent{OrderID: vals[0].(*big.Int).Uint64()},
		}, nil

	case c.evRetry:
		vals, err := c.abi.Unpack("RetryOrder", lg.Data)
		if err != nil {
			return nil, err
		}
		return &event.RetryOrder{
			BaseEvent:  event.BaseEvent{OrderID: vals[0].(*big.Int).Uint64()},
			NewID:      vals[1].(*big.Int).Uint64(),
			RetryCount: vals[2].(*big.Int).Uint64(),
		}, nil
	}

	return nil, nil
}
