package httpinterface

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

const defaultAmountThreshold = "0.7"

type bookQuery struct {
	Type           string   `form:"type"`
	Currency       string   `form:"currency"`
	Mode           string   `form:"mode"`
	Host           string   `form:"host"`
	Premium        string   `form:"premium"`
	PaymentMethods []string `form:"payment_methods"`
	Amount         string   `form:"amount"`
	MinAmount      string   `form:"min_amount"`
	MaxAmount      string   `form:"max_amount"`
	Threshold      string   `form:"threshold"`
}

type bookFilter struct {
	base           domain.BaseFilter
	premiumFloor   *decimal.Decimal
	paymentMethods []string
	amount         *domain.AmountFilter
}

func (q bookQuery) parse() (*bookFilter, error) {
	f := &bookFilter{}

	if q.Type != "" && q.Type != "any" {
		t, ok := domain.OrderTypeFromString(q.Type)
		if !ok {
			return nil, ErrInvalidOrderType
		}
		f.base.Type = &t
	}

	currency, err := parseCurrency(q.Currency)
	if err != nil {
		return nil, err
	}
	f.base.Currency = currency

	mode, err := parseMode(q.Mode)
	if err != nil {
		return nil, err
	}
	f.base.Mode = mode
	f.base.Host = q.Host

	if q.Premium != "" {
		premium, err := decimal.NewFromString(q.Premium)
		if err != nil {
			return nil, ErrInvalidPremium
		}
		f.premiumFloor = &premium
	}

	for _, pm := range q.PaymentMethods {
		for _, m := range strings.Split(pm, ",") {
			if m = strings.TrimSpace(m); m != "" {
				f.paymentMethods = append(f.paymentMethods, m)
			}
		}
	}

	amount, err := parseOptionalAmount(q.Amount)
	if err != nil {
		return nil, err
	}
	minAmount, err := parseOptionalAmount(q.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseOptionalAmount(q.MaxAmount)
	if err != nil {
		return nil, err
	}
	if amount != nil || minAmount != nil || maxAmount != nil {
		threshold := q.Threshold
		if threshold == "" {
			threshold = defaultAmountThreshold
		}
		t, err := decimal.NewFromString(threshold)
		if err != nil || t.IsNegative() {
			return nil, ErrInvalidAmount
		}
		f.amount = &domain.AmountFilter{
			Amount:    amount,
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			Threshold: t,
		}
	}

	return f, nil
}

type bondQuery struct {
	Amount    string `form:"amount"`
	MaxAmount string `form:"max_amount"`
	HasRange  bool   `form:"has_range"`
	Mode      string `form:"mode"`
	Currency  string `form:"currency"`
	Price     string `form:"price"`
	Premium   string `form:"premium"`
	BondSize  string `form:"bond_size"`
}

func (q bondQuery) parse(limits domain.LimitList) (*domain.BondParams, error) {
	params := &domain.BondParams{HasRange: q.HasRange}

	amountStr := q.Amount
	if q.HasRange {
		amountStr = q.MaxAmount
	}
	amount, err := parseOptionalAmount(amountStr)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, ErrInvalidAmount
	}
	params.Amount, params.MaxAmount = *amount, *amount

	mode, err := parseMode(q.Mode)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = domain.ModeFiat
	}
	params.Mode = mode

	if q.Premium != "" {
		premium, err := decimal.NewFromString(q.Premium)
		if err != nil {
			return nil, ErrInvalidPremium
		}
		params.Premium = premium
	}

	bondSize, err := decimal.NewFromString(q.BondSize)
	if err != nil || !bondSize.IsPositive() {
		return nil, ErrInvalidBondSize
	}
	params.BondSize = bondSize

	if mode == domain.ModeSwap {
		return params, nil
	}

	if q.Price != "" {
		price, err := parseOptionalAmount(q.Price)
		if err != nil {
			return nil, err
		}
		params.Price = *price
		return params, nil
	}

	currency, err := parseCurrency(q.Currency)
	if err != nil {
		return nil, err
	}
	if limit, ok := limits[currency]; ok {
		params.Price = limit.Price
	}
	return params, nil
}

// parseCurrency accepts both numeric codes and currency symbols. An empty
// string means any currency.
func parseCurrency(s string) (int, error) {
	if s == "" {
		return domain.AnyCurrency, nil
	}
	if code, err := strconv.Atoi(s); err == nil {
		if code == domain.AnyCurrency {
			return code, nil
		}
		if _, ok := domain.CurrencyName(code); !ok {
			return 0, ErrInvalidCurrency
		}
		return code, nil
	}
	code, ok := domain.CurrencyCode(strings.ToUpper(s))
	if !ok {
		return 0, ErrInvalidCurrency
	}
	return code, nil
}

func parseMode(s string) (domain.OrderMode, error) {
	switch domain.OrderMode(s) {
	case "":
		return "", nil
	case domain.ModeFiat, domain.ModeSwap:
		return domain.OrderMode(s), nil
	default:
		return "", ErrInvalidMode
	}
}

func parseOptionalAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &amount, nil
}
