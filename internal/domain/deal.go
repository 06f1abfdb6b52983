package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealMetrics holds the derived valuation of an order against current market
// prices. All values are recomputed on order change and on price refresh.
type DealMetrics struct {
	// Price is the taker's receive-per-give ratio: buyAmount / sellAmount,
	// both normalized by token decimals.
	Price decimal.Decimal `json:"price"`

	// Rate is the market exchange rate: sellTokenUSD / buyTokenUSD.
	Rate decimal.Decimal `json:"rate"`

	// Deal = Price * Rate. Unitless; higher favors the taker.
	Deal decimal.Decimal `json:"deal"`

	// Normalized amounts, for display.
	SellAmountDec decimal.Decimal `json:"sell_amount"`
	BuyAmountDec  decimal.Decimal `json:"buy_amount"`

	// Timestamps of the price quotes that fed Rate. Zero when the price
	// was missing and the neutral fallback was used.
	SellPricedAt time.Time `json:"sell_priced_at,omitempty"`
	BuyPricedAt  time.Time `json:"buy_priced_at,omitempty"`
}
