package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AnyCurrency is the wildcard currency code used by filters.
	AnyCurrency = 0
	// SwapCurrency is the pseudo-currency code of on-chain swap orders.
	SwapCurrency = 1000
)

const (
	OrderTypeBuy OrderType = iota
	OrderTypeSell
)

// OrderType is the side of a public order from the maker point of view.
type OrderType int

func (t OrderType) String() string {
	switch t {
	case OrderTypeBuy:
		return "buy"
	case OrderTypeSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderTypeFromString is the inverse of OrderType.String.
func OrderTypeFromString(s string) (OrderType, bool) {
	switch s {
	case "buy", "0":
		return OrderTypeBuy, true
	case "sell", "1":
		return OrderTypeSell, true
	default:
		return -1, false
	}
}

const (
	MakerStatusActive       MakerStatus = "Active"
	MakerStatusSeenRecently MakerStatus = "Seen recently"
	MakerStatusInactive     MakerStatus = "Inactive"
)

// MakerStatus tells how recently the maker of an order has been online.
type MakerStatus string

// PublicOrder is an advertised, not yet taken, trade offer.
type PublicOrder struct {
	ID             int64            `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	ExpiresAt      time.Time        `json:"expires_at"`
	Type           OrderType        `json:"type"`
	Currency       int              `json:"currency"`
	Amount         *decimal.Decimal `json:"amount"`
	HasRange       bool             `json:"has_range"`
	MinAmount      *decimal.Decimal `json:"min_amount"`
	MaxAmount      *decimal.Decimal `json:"max_amount"`
	PaymentMethod  string           `json:"payment_method"`
	IsExplicit     bool             `json:"is_explicit"`
	Premium        decimal.Decimal  `json:"premium"`
	Satoshis       int64            `json:"satoshis"`
	SatoshisNow    int64            `json:"satoshis_now"`
	Price          decimal.Decimal  `json:"price"`
	BondSize       decimal.Decimal  `json:"bond_size"`
	EscrowDuration int64            `json:"escrow_duration"`
	MakerNick      string           `json:"maker_nick"`
	MakerHashID    string           `json:"maker_hash_id"`
	MakerStatus    MakerStatus      `json:"maker_status"`
	Latitude       *float64         `json:"latitude"`
	Longitude      *float64         `json:"longitude"`
	Coordinator    string           `json:"coordinatorShortAlias"`
}

// OrderKey returns the key identifying an order across the whole federation.
// The same string is used as "d" tag of the order's replaceable relay event.
func OrderKey(coordinator string, id int64) string {
	return fmt.Sprintf("%s#%d", coordinator, id)
}

// Key returns the federation-wide identity of the order.
func (o PublicOrder) Key() string {
	return OrderKey(o.Coordinator, o.ID)
}

// IsSwap returns whether the order trades on-chain bitcoin instead of fiat.
func (o PublicOrder) IsSwap() bool {
	return o.Currency == SwapCurrency
}

// Validate checks the amount/range invariant of the order.
func (o PublicOrder) Validate() error {
	if o.HasRange {
		if o.Amount != nil {
			return ErrOrderRangeWithAmount
		}
		if o.MinAmount == nil || o.MaxAmount == nil {
			return ErrOrderMissingRange
		}
		if o.MinAmount.GreaterThan(*o.MaxAmount) {
			return ErrOrderInvalidRange
		}
		return nil
	}
	if o.Amount == nil {
		return ErrOrderMissingAmount
	}
	return nil
}

// AmountBounds returns the [min, max] interval of amounts the order accepts.
// Single amount orders have a degenerate interval.
func (o PublicOrder) AmountBounds() (decimal.Decimal, decimal.Decimal) {
	if !o.HasRange {
		if o.Amount == nil {
			return decimal.Zero, decimal.Zero
		}
		return *o.Amount, *o.Amount
	}
	var min, max decimal.Decimal
	if o.MinAmount != nil {
		min = *o.MinAmount
	}
	if o.MaxAmount != nil {
		max = *o.MaxAmount
	}
	return min, max
}

// OrderEventKind is the parameterized replaceable nostr kind of order
// advertisements.
const OrderEventKind = 38383

// OrderEvent is the result of decoding one relay order advertisement.
// Withdrawn events carry no order and ask to remove Key from the book.
type OrderEvent struct {
	Key       string
	Order     *PublicOrder
	Withdrawn bool
	CreatedAt time.Time
}
