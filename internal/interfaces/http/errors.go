package httpinterface

import "errors"

var (
	// ErrNullFederation ...
	ErrNullFederation = errors.New("federation must not be null")
	// ErrInvalidOrderType ...
	ErrInvalidOrderType = errors.New("type must be either buy or sell")
	// ErrInvalidCurrency ...
	ErrInvalidCurrency = errors.New("currency must be a known code or symbol")
	// ErrInvalidMode ...
	ErrInvalidMode = errors.New("mode must be either fiat or swap")
	// ErrInvalidAmount is returned if any amount related param is not a
	// positive decimal.
	ErrInvalidAmount = errors.New("amount must be a positive decimal")
	// ErrInvalidPremium ...
	ErrInvalidPremium = errors.New("premium must be a decimal")
	// ErrInvalidBondSize ...
	ErrInvalidBondSize = errors.New("bond size must be a positive decimal")
	// ErrMissingPrice is returned if the bond of a fiat order can't be
	// computed because no price is known for its currency.
	ErrMissingPrice = errors.New("no price available for currency")
)
