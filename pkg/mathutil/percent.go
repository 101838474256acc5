package mathutil

import "github.com/shopspring/decimal"

// PercentOf returns the given percentage of amount, ie. PercentOf(200, 3) = 6
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(Hundred)
}

// Widen returns the interval [low*(1-tolerance), high*(1+tolerance)].
// Tolerance is a ratio, ie. 0.2 widens the interval by 20% on both sides.
func Widen(low, high, tolerance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	one := decimal.NewFromInt(1)
	return low.Mul(one.Sub(tolerance)), high.Mul(one.Add(tolerance))
}
