package domain

import (
	"sort"
	"strings"
)

var currencies = map[int]string{
	1:    "USD",
	2:    "EUR",
	3:    "JPY",
	4:    "GBP",
	5:    "AUD",
	6:    "CAD",
	7:    "CHF",
	8:    "CNY",
	9:    "HKD",
	10:   "NZD",
	11:   "SEK",
	12:   "KRW",
	13:   "SGD",
	14:   "NOK",
	15:   "MXN",
	16:   "BYN",
	17:   "RUB",
	18:   "ZAR",
	19:   "TRY",
	20:   "BRL",
	21:   "CLP",
	22:   "CZK",
	23:   "DKK",
	24:   "HRK",
	25:   "HUF",
	26:   "INR",
	27:   "ISK",
	28:   "PLN",
	29:   "RON",
	30:   "ARS",
	31:   "VES",
	32:   "COP",
	33:   "PEN",
	34:   "UYU",
	35:   "PYG",
	36:   "BOB",
	37:   "IDR",
	38:   "ANG",
	39:   "CRC",
	40:   "CUP",
	41:   "DOP",
	42:   "GHS",
	43:   "GTQ",
	44:   "ILS",
	45:   "JMD",
	46:   "KES",
	47:   "KZT",
	48:   "MYR",
	49:   "NAD",
	50:   "NGN",
	51:   "AZN",
	52:   "PAB",
	53:   "PHP",
	54:   "PKR",
	55:   "QAR",
	56:   "SAR",
	57:   "THB",
	58:   "TTD",
	59:   "VND",
	60:   "XOF",
	61:   "TWD",
	62:   "TZS",
	63:   "XAF",
	64:   "UAH",
	65:   "EGP",
	66:   "LKR",
	67:   "MAD",
	68:   "AED",
	69:   "TND",
	70:   "ETB",
	71:   "GEL",
	72:   "UGX",
	73:   "RSD",
	74:   "IRT",
	75:   "BDT",
	76:   "ALL",
	300:  "XAU",
	1000: "BTC",
}

var currencyCodes = func() map[string]int {
	m := make(map[string]int, len(currencies))
	for code, name := range currencies {
		m[name] = code
	}
	return m
}()

// CurrencyName returns the ticker of the given currency code.
func CurrencyName(code int) (string, bool) {
	name, ok := currencies[code]
	return name, ok
}

// CurrencyCode looks up the numeric code of a currency ticker, case insensitive.
func CurrencyCode(name string) (int, bool) {
	code, ok := currencyCodes[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok
}

// CurrencyCodes returns all known currency codes in ascending order.
func CurrencyCodes() []int {
	codes := make([]int, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}
