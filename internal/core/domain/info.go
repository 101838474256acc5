package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Info holds the aggregate statistics and node details a coordinator
// publishes about itself.
type Info struct {
	NumPublicBuyOrders        int             `json:"num_public_buy_orders"`
	NumPublicSellOrders       int             `json:"num_public_sell_orders"`
	BookLiquidity             int64           `json:"book_liquidity"`
	ActiveRobotsToday         int             `json:"active_robots_today"`
	LastDayNonKYCBTCPremium   decimal.Decimal `json:"last_day_nonkyc_btc_premium"`
	LastDayVolume             decimal.Decimal `json:"last_day_volume"`
	LifetimeVolume            decimal.Decimal `json:"lifetime_volume"`
	LNDVersion                string          `json:"lnd_version,omitempty"`
	CLNVersion                string          `json:"cln_version,omitempty"`
	RobosatsRunningCommitHash string          `json:"robosats_running_commit_hash"`
	AlternativeSite           string          `json:"alternative_site,omitempty"`
	AlternativeName           string          `json:"alternative_name,omitempty"`
	NodeAlias                 string          `json:"node_alias"`
	NodeID                    string          `json:"node_id"`
	Network                   string          `json:"network"`
	MakerFee                  decimal.Decimal `json:"maker_fee"`
	TakerFee                  decimal.Decimal `json:"taker_fee"`
	BondSize                  decimal.Decimal `json:"bond_size"`
	CurrentSwapFeeRate        decimal.Decimal `json:"current_swap_fee_rate"`
	Version                   Version         `json:"version"`
	NoticeSeverity            string          `json:"notice_severity,omitempty"`
	NoticeMessage             string          `json:"notice_message,omitempty"`
	MinOrderSize              int64           `json:"min_order_size"`
	MaxOrderSize              int64           `json:"max_order_size"`
	SwapEnabled               bool            `json:"swap_enabled"`
	MaxSwap                   int64           `json:"max_swap"`
}

// ExchangeInfo holds the statistics of the whole federation.
type ExchangeInfo struct {
	NumPublicBuyOrders      int             `json:"num_public_buy_orders"`
	NumPublicSellOrders     int             `json:"num_public_sell_orders"`
	BookLiquidity           int64           `json:"book_liquidity"`
	ActiveRobotsToday       int             `json:"active_robots_today"`
	LastDayNonKYCBTCPremium decimal.Decimal `json:"last_day_nonkyc_btc_premium"`
	LastDayVolume           decimal.Decimal `json:"last_day_volume"`
	LifetimeVolume          decimal.Decimal `json:"lifetime_volume"`
	MakerFee                decimal.Decimal `json:"maker_fee"`
	TakerFee                decimal.Decimal `json:"taker_fee"`
	OnlineCoordinators      int             `json:"online_coordinators"`
	EnabledCoordinators     int             `json:"enabled_coordinators"`
	TotalCoordinators       int             `json:"total_coordinators"`
}

// NewExchangeInfo aggregates the infos of the coordinators that reported
// one. Counters and volumes are summed, the non-KYC premium is weighted by
// each coordinator's last day volume and fees are averaged.
func NewExchangeInfo(infos []Info, enabled, total int) ExchangeInfo {
	exchange := ExchangeInfo{
		OnlineCoordinators:  len(infos),
		EnabledCoordinators: enabled,
		TotalCoordinators:   total,
	}
	if len(infos) == 0 {
		return exchange
	}

	weightedPremium := decimal.Zero
	makerFees, takerFees := decimal.Zero, decimal.Zero
	for _, info := range infos {
		exchange.NumPublicBuyOrders += info.NumPublicBuyOrders
		exchange.NumPublicSellOrders += info.NumPublicSellOrders
		exchange.BookLiquidity += info.BookLiquidity
		exchange.ActiveRobotsToday += info.ActiveRobotsToday
		exchange.LastDayVolume = exchange.LastDayVolume.Add(info.LastDayVolume)
		exchange.LifetimeVolume = exchange.LifetimeVolume.Add(info.LifetimeVolume)
		weightedPremium = weightedPremium.Add(
			info.LastDayNonKYCBTCPremium.Mul(info.LastDayVolume),
		)
		makerFees = makerFees.Add(info.MakerFee)
		takerFees = takerFees.Add(info.TakerFee)
	}

	if exchange.LastDayVolume.IsPositive() {
		exchange.LastDayNonKYCBTCPremium = weightedPremium.Div(exchange.LastDayVolume)
	}
	count := decimal.NewFromInt(int64(len(infos)))
	exchange.MakerFee = makerFees.Div(count)
	exchange.TakerFee = takerFees.Div(count)
	return exchange
}

// Snapshot is an immutable, versioned view of the federation book. A new
// snapshot with a greater version replaces the previous one on every change.
type Snapshot struct {
	Version    uint64         `json:"version"`
	Connection ConnectionMode `json:"connection"`
	// Loading is set while the book is being fetched, from coordinators or
	// relays, or while any enabled coordinator is fetching limits or info.
	Loading  bool                   `json:"loading"`
	Book     map[string]PublicOrder `json:"book"`
	Exchange ExchangeInfo           `json:"exchange"`
	Restored bool                   `json:"restored"`
}

// Orders returns the orders of the snapshot as a list.
func (s *Snapshot) Orders() []PublicOrder {
	if s == nil {
		return nil
	}
	orders := make([]PublicOrder, 0, len(s.Book))
	for _, o := range s.Book {
		orders = append(orders, o)
	}
	return orders
}
