package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/fedbook/pkg/mathutil"
)

const (
	// HostAny accepts orders from any trusted coordinator.
	HostAny = "any"
	// HostFederated accepts only orders of federation members, excluding
	// third parties.
	HostFederated = "federated"
)

// BaseFilter holds the always-present order book selectors.
type BaseFilter struct {
	// Type is nil to match both buy and sell orders.
	Type *OrderType
	// Currency is AnyCurrency to match any currency.
	Currency int
	Mode     OrderMode
	// Host is HostAny, HostFederated or a coordinator short alias.
	Host string
}

// AmountFilter selects orders compatible with the given amount or range,
// widened on both sides by Threshold (ie. 0.7 means ±70%).
type AmountFilter struct {
	Amount    *decimal.Decimal
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Threshold decimal.Decimal
}

func (f *AmountFilter) isEmpty() bool {
	return f == nil || (f.Amount == nil && (f.MinAmount == nil || f.MaxAmount == nil))
}

func (f *AmountFilter) bounds() (decimal.Decimal, decimal.Decimal) {
	if f.Amount != nil {
		return mathutil.Widen(*f.Amount, *f.Amount, f.Threshold)
	}
	return mathutil.Widen(*f.MinAmount, *f.MaxAmount, f.Threshold)
}

// TrustPolicy tells which coordinators' orders can be shown.
type TrustPolicy struct {
	// Enabled holds the aliases of the enabled coordinators.
	Enabled map[string]bool
	// Federated holds the aliases of the coordinators that are members of
	// the trusted federation.
	Federated map[string]bool
	// ThirdParties holds the aliases of allowed non-federated sources.
	ThirdParties map[string]bool
}

func (p TrustPolicy) trusts(alias string) bool {
	return p.Enabled[alias] || p.ThirdParties[alias]
}

// FilterOrders returns the orders satisfying every given criteria. A nil
// premium floor, empty payment method list or nil amount filter disable the
// respective predicate. Results are ordered by premium, best first for the
// side of the order, then by id.
func FilterOrders(
	orders []PublicOrder,
	trust TrustPolicy,
	base BaseFilter,
	premiumFloor *decimal.Decimal,
	paymentMethods []string,
	amount *AmountFilter,
) []PublicOrder {
	filtered := make([]PublicOrder, 0, len(orders))
	for _, order := range orders {
		if !trust.trusts(order.Coordinator) ||
			!matchType(order, base.Type) ||
			!matchMode(order, base.Mode) ||
			!matchPremium(order, premiumFloor) ||
			!matchCurrency(order, base.Currency) ||
			!matchPaymentMethods(order, paymentMethods) ||
			!matchAmount(order, amount) ||
			!matchHost(order, base.Host, trust) {
			continue
		}
		filtered = append(filtered, order)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if !a.Premium.Equal(b.Premium) {
			if a.Type == OrderTypeBuy {
				return a.Premium.GreaterThan(b.Premium)
			}
			return a.Premium.LessThan(b.Premium)
		}
		if a.Coordinator != b.Coordinator {
			return a.Coordinator < b.Coordinator
		}
		return a.ID < b.ID
	})
	return filtered
}

func matchType(order PublicOrder, t *OrderType) bool {
	return t == nil || order.Type == *t
}

func matchMode(order PublicOrder, mode OrderMode) bool {
	switch mode {
	case ModeFiat:
		return !order.IsSwap()
	case ModeSwap:
		return order.IsSwap()
	default:
		return true
	}
}

// Buyers look for high premiums while sellers look for low ones.
func matchPremium(order PublicOrder, floor *decimal.Decimal) bool {
	if floor == nil {
		return true
	}
	if order.Type == OrderTypeBuy {
		return order.Premium.GreaterThanOrEqual(*floor)
	}
	return order.Premium.LessThanOrEqual(*floor)
}

func matchCurrency(order PublicOrder, currency int) bool {
	return currency == AnyCurrency || order.Currency == currency
}

func matchPaymentMethods(order PublicOrder, methods []string) bool {
	if len(methods) <= 0 {
		return true
	}
	for _, m := range methods {
		if m != "" && strings.Contains(order.PaymentMethod, m) {
			return true
		}
	}
	return false
}

func matchAmount(order PublicOrder, filter *AmountFilter) bool {
	if filter.isEmpty() {
		return true
	}
	filterMin, filterMax := filter.bounds()
	orderMin, orderMax := order.AmountBounds()
	return mathutil.MaxDecimal(filterMin, orderMin).
		LessThanOrEqual(mathutil.MinDecimal(filterMax, orderMax))
}

func matchHost(order PublicOrder, host string, trust TrustPolicy) bool {
	switch host {
	case "", HostAny:
		return true
	case HostFederated:
		return trust.Federated[order.Coordinator]
	default:
		return order.Coordinator == host
	}
}
