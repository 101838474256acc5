package coordinatorclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	coordinatorclient "github.com/tdex-network/fedbook/internal/infrastructure/coordinator-client"
)

const (
	bookJSON = `[
		{
			"id": 42,
			"created_at": "2024-01-02T10:00:00.123456Z",
			"expires_at": "2024-01-03T10:00:00Z",
			"type": 1,
			"currency": 2,
			"amount": "100.00000000",
			"has_range": false,
			"min_amount": null,
			"max_amount": null,
			"payment_method": "SEPA",
			"is_explicit": false,
			"premium": "1.50",
			"satoshis": null,
			"satoshis_now": 250000,
			"price": 40000.5,
			"bond_size": "3.00",
			"escrow_duration": 10800,
			"maker_nick": "HumbleRobot",
			"maker_status": "Active",
			"latitude": null,
			"longitude": null
		},
		{
			"id": 43,
			"type": 0,
			"currency": 1,
			"amount": null,
			"has_range": true,
			"min_amount": "20",
			"max_amount": "200",
			"payment_method": "Zelle",
			"premium": "-2",
			"maker_status": "Seen recently"
		}
	]`
	notFoundJSON = `{"not_found": "No orders found, be the first to make one."}`
	limitsJSON   = `{
		"1": {"code": "USD", "price": 42000.12, "min_amount": 10.5, "max_amount": 4000, "max_bondless_amount": 100},
		"2": {"code": "EUR", "price": "39000", "min_amount": "9", "max_amount": "3500", "max_bondless_amount": "90"}
	}`
	infoJSON = `{
		"num_public_buy_orders": 12,
		"num_public_sell_orders": 7,
		"book_liquidity": 123456789,
		"active_robots_today": 40,
		"last_day_nonkyc_btc_premium": 2.3,
		"last_day_volume": 0.75,
		"lifetime_volume": 120.5,
		"lnd_version": "0.17.0-beta",
		"robosats_running_commit_hash": "abcdef",
		"node_alias": "temple",
		"node_id": "02aa",
		"network": "mainnet",
		"maker_fee": 0.002,
		"taker_fee": 0.002,
		"bond_size": 3,
		"current_swap_fee_rate": 1.2,
		"version": {"major": 0, "minor": 6, "patch": 1},
		"min_order_size": 20000,
		"max_order_size": 5000000,
		"swap_enabled": true,
		"max_swap": 1000000
	}`
)

func TestGetBook(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]response{
		"/api/book/": {http.StatusOK, bookJSON},
	})
	client := newTestClient(t)

	orders, err := client.GetBook(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	order := orders[0]
	require.Equal(t, int64(42), order.ID)
	require.Equal(t, domain.OrderTypeSell, order.Type)
	require.Equal(t, 2, order.Currency)
	require.NotNil(t, order.Amount)
	require.Equal(t, "100", order.Amount.String())
	require.Equal(t, "1.5", order.Premium.String())
	require.Equal(t, "40000.5", order.Price.String())
	require.Equal(t, int64(250000), order.SatoshisNow)
	require.Equal(t, domain.MakerStatusActive, order.MakerStatus)
	require.NoError(t, order.Validate())

	ranged := orders[1]
	require.True(t, ranged.HasRange)
	require.Nil(t, ranged.Amount)
	require.Equal(t, domain.MakerStatusSeenRecently, ranged.MakerStatus)
	require.NoError(t, ranged.Validate())
}

func TestGetBookNotFound(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]response{
		"/api/book/": {http.StatusNotFound, notFoundJSON},
	})
	client := newTestClient(t)

	orders, err := client.GetBook(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.NotNil(t, orders)
	require.Empty(t, orders)
}

func TestGetLimits(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]response{
		"/mainnet/temple/api/limits/": {http.StatusOK, limitsJSON},
	})
	client := newTestClient(t)

	limits, err := client.GetLimits(
		context.Background(), server.URL+"/mainnet/temple",
	)
	require.NoError(t, err)
	require.Len(t, limits, 2)
	require.Equal(t, 1, limits[1].Code)
	require.Equal(t, "42000.12", limits[1].Price.String())
	require.Equal(t, "10.5", limits[1].MinAmount.String())
	require.Equal(t, "3500", limits[2].MaxAmount.String())
	require.Equal(t, "90", limits[2].MaxBondlessAmount.String())
}

func TestGetInfo(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]response{
		"/api/info/": {http.StatusOK, infoJSON},
	})
	client := newTestClient(t)

	info, err := client.GetInfo(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, 12, info.NumPublicBuyOrders)
	require.Equal(t, 7, info.NumPublicSellOrders)
	require.Equal(t, int64(123456789), info.BookLiquidity)
	require.Equal(t, "v0.6.1", info.Version.String())
	require.Equal(t, "0.002", info.MakerFee.String())
	require.True(t, info.SwapEnabled)
}

func TestFailingRequests(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]response{
		"/api/book/":   {http.StatusOK, `{"detail": "unexpected"}`},
		"/api/limits/": {http.StatusInternalServerError, "boom"},
		"/api/info/":   {http.StatusOK, "not json"},
	})
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetBook(ctx, server.URL)
	require.ErrorIs(t, err, coordinatorclient.ErrMalformedResponse)

	_, err = client.GetLimits(ctx, server.URL)
	require.ErrorIs(t, err, coordinatorclient.ErrBadStatus)

	_, err = client.GetInfo(ctx, server.URL)
	require.ErrorIs(t, err, coordinatorclient.ErrMalformedResponse)

	_, err = client.GetInfo(ctx, "")
	require.ErrorIs(t, err, coordinatorclient.ErrMissingURL)

	_, err = client.GetBook(ctx, "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	))
	t.Cleanup(server.Close)

	client, err := coordinatorclient.NewClient(100*time.Millisecond, "", 0)
	require.NoError(t, err)

	_, err = client.GetInfo(context.Background(), server.URL)
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

type response struct {
	status int
	body   string
}

func newTestServer(t *testing.T, routes map[string]response) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			resp, ok := routes[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusTeapot)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.status)
			// nolint
			w.Write([]byte(resp.body))
		},
	))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) ports.CoordinatorClient {
	client, err := coordinatorclient.NewClient(5*time.Second, "", 50)
	require.NoError(t, err)
	return client
}
