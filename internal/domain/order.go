package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Order statuses mirrored from the escrow contract's numeric enum.
const (
	OrderStatusActive   = "Active"
	OrderStatusFilled   = "Filled"
	OrderStatusCanceled = "Canceled"

	// StatusExpired is derived from time, never stored on the ledger.
	StatusExpired = "Expired"
)

// AnyTaker is the sentinel taker address meaning the order is open to everyone.
var AnyTaker = common.Address{}

// Order represents one escrow position on the ledger.
// Raw token amounts are uint256 base units; decimal normalization happens
// only in the deal calculator.
type Order struct {
	ID          uint64
	Maker       common.Address
	Taker       common.Address // AnyTaker when fillable by anyone
	SellToken   common.Address
	BuyToken    common.Address
	SellAmount  *big.Int
	BuyAmount   *big.Int
	CreatedAt   int64 // unix seconds, ledger-assigned, immutable
	Status      string
	RetryCount  uint64
	CreationFee *big.Int

	// Deal is recomputed from live prices and token metadata. Never persisted.
	Deal *DealMetrics
}

// LedgerConstants are fetched once per session and treated as immutable.
type LedgerConstants struct {
	OrderExpirySeconds int64
	GracePeriodSeconds int64
}

// ExpiresAt returns the unix time after which the order can no longer be filled.
func (o *Order) ExpiresAt(c LedgerConstants) int64 {
	return o.CreatedAt + c.OrderExpirySeconds
}

// GraceEndsAt returns the unix time after which the maker can no longer cancel.
func (o *Order) GraceEndsAt(c LedgerConstants) int64 {
	return o.ExpiresAt(c) + c.GracePeriodSeconds
}

// IsTerminal reports whether the ledger recorded a final status.
// Terminal statuses are never reversed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusCanceled
}

// CanFill reports whether account may fill the order at the given unix time.
// Fillable iff: Active, not yet expired, account is not the maker, and the
// taker is either AnyTaker or the account itself.
func (o *Order) CanFill(account common.Address, now int64, c LedgerConstants) bool {
	if o.Status != OrderStatusActive {
		return false
	}
	if now >= o.ExpiresAt(c) {
		return false
	}
	if account == o.Maker {
		return false
	}
	return o.Taker == AnyTaker || o.Taker == account
}

// CanCancel reports whether account may cancel the order at the given unix time.
// Cancelable iff: Active, still within the grace period, and account is the maker.
func (o *Order) CanCancel(account common.Address, now int64, c LedgerConstants) bool {
	if o.Status != OrderStatusActive {
		return false
	}
	if now >= o.GraceEndsAt(c) {
		return false
	}
	return account == o.Maker
}

// DisplayStatus returns the status string shown to consumers. An Active order
// past its expiry (but with no terminal ledger status) displays as Expired.
func (o *Order) DisplayStatus(now int64, c LedgerConstants) string {
	if o.Status == OrderStatusActive && now >= o.ExpiresAt(c) {
		return StatusExpired
	}
	return o.Status
}

// Clone returns a copy that shares no mutable state with the original.
func (o *Order) Clone() *Order {
	cp := *o
	if o.SellAmount != nil {
		cp.SellAmount = new(big.Int).Set(o.SellAmount)
	}
	if o.BuyAmount != nil {
		cp.BuyAmount = new(big.Int).Set(o.BuyAmount)
	}
	if o.CreationFee != nil {
		cp.CreationFee = new(big.Int).Set(o.CreationFee)
	}
	if o.Deal != nil {
		deal := *o.Deal
		cp.Deal = &deal
	}
	return &cp
}
