package domain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/fedbook/pkg/mathutil"
)

const (
	ModeFiat OrderMode = "fiat"
	ModeSwap OrderMode = "swap"
)

// OrderMode distinguishes fiat trades from on-chain swaps.
type OrderMode string

// BondParams are the order parameters the maker bond depends on.
type BondParams struct {
	Amount    decimal.Decimal
	MaxAmount decimal.Decimal
	HasRange  bool
	Mode      OrderMode
	// Price is the market price of one bitcoin in the order currency.
	Price decimal.Decimal
	// Premium is a signed percentage.
	Premium decimal.Decimal
	// BondSize is the percentage of the trade locked as bond.
	BondSize decimal.Decimal
}

// CalculateBondAmount returns the bond in satoshis for the given order
// parameters. Ranged orders are bonded on their max amount.
// In fiat mode the bond can't be computed until a price is known, in which
// case false is returned.
func CalculateBondAmount(p BondParams) (btcutil.Amount, bool) {
	amount := p.Amount
	if p.HasRange {
		amount = p.MaxAmount
	}

	var sats decimal.Decimal
	switch p.Mode {
	case ModeSwap:
		factor := decimal.NewFromInt(1).Add(p.Premium.Div(mathutil.Hundred))
		if !factor.IsPositive() {
			return 0, true
		}
		sats = amount.Mul(mathutil.BigOneDecimal).Div(factor)
	default:
		if p.Price.IsZero() {
			return 0, false
		}
		sats = amount.Div(p.Price).Mul(mathutil.BigOneDecimal)
	}

	bond := mathutil.PercentOf(sats, p.BondSize).Floor()
	return btcutil.Amount(bond.IntPart()), true
}
