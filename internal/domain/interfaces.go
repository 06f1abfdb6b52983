package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceSource provides USD prices for tokens. Implementations cache the last
// known quote; ok is false when no quote has been received for the token.
type PriceSource interface {
	Price(token common.Address) (price decimal.Decimal, quotedAt time.Time, ok bool)
}

// TokenSource resolves token metadata used for amount normalization.
type TokenSource interface {
	Token(addr common.Address) (*TokenInfo, bool)
}
