package service

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swap_go/internal/domain"
)

var (
	sellTok = common.HexToAddress("0x3000000000000000000000000000000000000001")
	buyTok  = common.HexToAddress("0x3000000000000000000000000000000000000002")
)

type stubTokens map[common.Address]int32

func (s stubTokens) Token(addr common.Address) (*domain.TokenInfo, bool) {
	d, ok := s[addr]
	if !ok {
		return nil, false
	}
	return &domain.TokenInfo{Address: addr.Hex(), Decimals: d}, true
}

type stubPrices map[common.Address]decimal.Decimal

func (s stubPrices) Price(token common.Address) (decimal.Decimal, time.Time, bool) {
	p, ok := s[token]
	if !ok {
		return decimal.Zero, time.Time{}, false
	}
	return p, time.Unix(1_700_000_000, 0), true
}

// units converts whole token units to the raw base-unit representation.
func units(n int64, decimals int32) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), exp)
}

func TestDealCalculatorCompute(t *testing.T) {
	calc := NewDealCalculator(
		stubTokens{sellTok: 6, buyTok: 18},
		stubPrices{
			sellTok: decimal.NewFromInt(2),
			buyTok:  decimal.NewFromInt(4),
		},
	)

	m := calc.Compute(&domain.Order{
		SellToken:  sellTok,
		BuyToken:   buyTok,
		SellAmount: units(100, 6),
		BuyAmount:  units(50, 18),
	})

	if !m.SellAmountDec.Equal(decimal.NewFromInt(100)) {
		t.Errorf("sell = %s, want 100", m.SellAmountDec)
	}
	if !m.BuyAmountDec.Equal(decimal.NewFromInt(50)) {
		t.Errorf("buy = %s, want 50", m.BuyAmountDec)
	}
	if !m.Price.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("price = %s, want 0.5", m.Price)
	}
	if !m.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("rate = %s, want 0.5", m.Rate)
	}
	if !m.Deal.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("deal = %s, want 0.25", m.Deal)
	}
	if m.SellPricedAt.IsZero() || m.BuyPricedAt.IsZero() {
		t.Error("quote timestamps not recorded")
	}
}

func TestDealCalculatorMissingPriceIsNeutral(t *testing.T) {
	calc := NewDealCalculator(
		stubTokens{sellTok: 18, buyTok: 18},
		stubPrices{sellTok: decimal.NewFromInt(3)}, // no quote for buyTok
	)

	m := calc.Compute(&domain.Order{
		SellToken:  sellTok,
		BuyToken:   buyTok,
		SellAmount: units(10, 18),
		BuyAmount:  units(10, 18),
	})

	// Missing buy price degrades to 1, so rate equals the sell price.
	if !m.Rate.Equal(decimal.NewFromInt(3)) {
		t.Errorf("rate = %s, want 3", m.Rate)
	}
	if !m.Deal.Equal(decimal.NewFromInt(3)) {
		t.Errorf("deal = %s, want 3", m.Deal)
	}
	if !m.BuyPricedAt.IsZero() {
		t.Error("missing quote must not record a timestamp")
	}
}

func TestDealCalculatorNoQuotesAtAll(t *testing.T) {
	calc := NewDealCalculator(stubTokens{}, stubPrices{})

	m := calc.Compute(&domain.Order{
		SellToken:  sellTok,
		BuyToken:   buyTok,
		SellAmount: units(4, 18), // unknown tokens fall back to 18 decimals
		BuyAmount:  units(2, 18),
	})

	if !m.Rate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("rate = %s, want neutral 1", m.Rate)
	}
	if !m.Deal.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("deal = %s, want 0.5", m.Deal)
	}
}

func TestDealCalculatorZeroSellAmount(t *testing.T) {
	calc := NewDealCalculator(stubTokens{}, stubPrices{})

	m := calc.Compute(&domain.Order{
		SellToken:  sellTok,
		BuyToken:   buyTok,
		SellAmount: big.NewInt(0),
		BuyAmount:  units(5, 18),
	})

	if !m.Price.IsZero() {
		t.Errorf("price = %s, want 0 for zero sell amount", m.Price)
	}
	if !m.Deal.IsZero() {
		t.Errorf("deal = %s, want 0", m.Deal)
	}
}

func TestDealCalculatorNonPositivePriceIgnored(t *testing.T) {
	calc := NewDealCalculator(
		stubTokens{sellTok: 18, buyTok: 18},
		stubPrices{
			sellTok: decimal.Zero,
			buyTok:  decimal.NewFromInt(2),
		},
	)

	m := calc.Compute(&domain.Order{
		SellToken:  sellTok,
		BuyToken:   buyTok,
		SellAmount: units(1, 18),
		BuyAmount:  units(1, 18),
	})

	// Zero quote treated as missing: sell side defaults to 1.
	if !m.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("rate = %s, want 0.5", m.Rate)
	}
}
