package domain

import (
	"github.com/shopspring/decimal"
	"github.com/tdex-network/fedbook/pkg/mathutil"
)

// Limit is one coordinator's observation of price and order size bounds for
// a currency.
type Limit struct {
	Code              int             `json:"code"`
	Price             decimal.Decimal `json:"price"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	MaxBondlessAmount decimal.Decimal `json:"max_bondless_amount"`
}

// LimitList maps currency codes to limits.
type LimitList map[int]Limit

// CompareUpdateLimit reconciles two observations of the same currency.
// Price is averaged with the previous value, which makes repeated application
// a low-pass filter. Bounds are widened to the envelope of both observations.
// A nil old observation yields the new one untouched.
func CompareUpdateLimit(old *Limit, new Limit) Limit {
	if old == nil {
		return new
	}
	return Limit{
		Code:              new.Code,
		Price:             mathutil.Mean(old.Price, new.Price),
		MinAmount:         mathutil.MinDecimal(old.MinAmount, new.MinAmount),
		MaxAmount:         mathutil.MaxDecimal(old.MaxAmount, new.MaxAmount),
		MaxBondlessAmount: mathutil.MaxDecimal(old.MaxBondlessAmount, new.MaxBondlessAmount),
	}
}

// Merge reconciles a fresh observation against l and returns the result.
// Currencies missing from observed are dropped.
func (l LimitList) Merge(observed LimitList) LimitList {
	merged := make(LimitList, len(observed))
	for code, limit := range observed {
		limit.Code = code
		if prev, ok := l[code]; ok {
			merged[code] = CompareUpdateLimit(&prev, limit)
			continue
		}
		merged[code] = CompareUpdateLimit(nil, limit)
	}
	return merged
}

// Copy returns a shallow copy of the list.
func (l LimitList) Copy() LimitList {
	if l == nil {
		return nil
	}
	c := make(LimitList, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}
