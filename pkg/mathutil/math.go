package mathutil

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	//BigOne represents one bitcoin expressed in satoshis
	BigOne = int64(math.Pow10(8))
	//BigOneDecimal represents one bitcoin expressed in satoshis as decimal.Decimal
	BigOneDecimal = decimal.NewFromInt(BigOne)
	//Hundred is used to convert percentages to ratios
	Hundred = decimal.NewFromInt(100)

	two = decimal.NewFromInt(2)
)

// Mean returns the arithmetic mean of x and y
func Mean(x, y decimal.Decimal) decimal.Decimal {
	return x.Add(y).Div(two)
}

// MinDecimal returns the smaller of x and y
func MinDecimal(x, y decimal.Decimal) decimal.Decimal {
	if x.LessThan(y) {
		return x
	}
	return y
}

// MaxDecimal returns the greater of x and y
func MaxDecimal(x, y decimal.Decimal) decimal.Decimal {
	if x.GreaterThan(y) {
		return x
	}
	return y
}
