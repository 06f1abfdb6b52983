package service

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swap_go/internal/domain"
)

// defaultDecimals is assumed when a token is missing from the registry.
const defaultDecimals = 18

// DealCalculator derives comparative valuation metrics for orders from
// token metadata and live USD prices. It is stateless; all state lives in
// its collaborators.
type DealCalculator struct {
	tokens domain.TokenSource
	prices domain.PriceSource
}

// NewDealCalculator creates a calculator over the given collaborators.
func NewDealCalculator(tokens domain.TokenSource, prices domain.PriceSource) *DealCalculator {
	return &DealCalculator{
		tokens: tokens,
		prices: prices,
	}
}

// Compute derives the deal metrics for one order. A missing USD price
// degrades to the neutral value 1 for that token; Compute never fails.
func (c *DealCalculator) Compute(o *domain.Order) *domain.DealMetrics {
	sellDec := c.normalize(o.SellAmount, o.SellToken)
	buyDec := c.normalize(o.BuyAmount, o.BuyToken)

	// Taker's receive-per-give ratio, independent of raw unit scale.
	price := decimal.Zero
	if !sellDec.IsZero() {
		price = buyDec.Div(sellDec)
	}

	m := &domain.DealMetrics{
		Price:         price,
		SellAmountDec: sellDec,
		BuyAmountDec:  buyDec,
	}

	sellUSD := decimal.NewFromInt(1)
	if p, at, ok := c.prices.Price(o.SellToken); ok && p.IsPositive() {
		sellUSD = p
		m.SellPricedAt = at
	}
	buyUSD := decimal.NewFromInt(1)
	if p, at, ok := c.prices.Price(o.BuyToken); ok && p.IsPositive() {
		buyUSD = p
		m.BuyPricedAt = at
	}

	m.Rate = sellUSD.Div(buyUSD)
	m.Deal = m.Price.Mul(m.Rate)
	return m
}

// normalize converts a raw base-unit amount to a decimal using the token's
// registered decimal count.
func (c *DealCalculator) normalize(amount *big.Int, token common.Address) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}

	decimals := int32(defaultDecimals)
	if info, ok := c.tokens.Token(token); ok {
		decimals = info.Decimals
	}
	return decimal.NewFromBigInt(amount, -decimals)
}
