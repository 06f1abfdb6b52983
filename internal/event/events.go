package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind defines the type of ledger change event.
type Kind uint16

const (
	EvOrderCreated Kind = iota + 1
	EvOrderFilled
	EvOrderCanceled
	EvOrderCleanedUp
	EvRetryOrder
)

func (k Kind) String() string {
	switch k {
	case EvOrderCreated:
		return "OrderCreated"
	case EvOrderFilled:
		return "OrderFilled"
	case EvOrderCanceled:
		return "OrderCanceled"
	case EvOrderCleanedUp:
		return "OrderCleanedUp"
	case EvRetryOrder:
		return "RetryOrder"
	default:
		return "Unknown"
	}
}

// Event is the interface for all ledger change events.
type Event interface {
	GetKind() Kind
	GetOrderID() uint64
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	OrderID uint64 `json:"order_id"`
}

func (e BaseEvent) GetOrderID() uint64 { return e.OrderID }

// OrderCreated carries the full record of a freshly created escrow order.
type OrderCreated struct {
	BaseEvent
	Maker       common.Address `json:"maker"`
	Taker       common.Address `json:"taker"`
	SellToken   common.Address `json:"sell_token"`
	BuyToken    common.Address `json:"buy_token"`
	SellAmount  *big.Int       `json:"sell_amount"`
	BuyAmount   *big.Int       `json:"buy_amount"`
	CreatedAt   int64          `json:"created_at"`
	CreationFee *big.Int       `json:"creation_fee"`
}

func (e *OrderCreated) GetKind() Kind { return EvOrderCreated }

// OrderFilled signals a taker accepted the order.
type OrderFilled struct {
	BaseEvent
	Taker common.Address `json:"taker"`
}

func (e *OrderFilled) GetKind() Kind { return EvOrderFilled }

// OrderCanceled signals the maker withdrew the order within its grace period.
type OrderCanceled struct {
	BaseEvent
}

func (e *OrderCanceled) GetKind() Kind { return EvOrderCanceled }

// OrderCleanedUp signals the order slot was reclaimed and must be dropped.
type OrderCleanedUp struct {
	BaseEvent
}

func (e *OrderCleanedUp) GetKind() Kind { return EvOrderCleanedUp }

// RetryOrder signals a failed cleanup-return re-issued the order under a new
// id. OrderID is the old id being replaced.
type RetryOrder struct {
	BaseEvent
	NewID      uint64 `json:"new_id"`
	RetryCount uint64 `json:"retry_count"`
}

func (e *RetryOrder) GetKind() Kind { return EvRetryOrder }
