package ordercodec_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/fedbook/internal/core/domain"
	ordercodec "github.com/tdex-network/fedbook/internal/infrastructure/order-codec"
)

const sourceURL = "http://temple.onion/order/"

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	codec, sk := newTestCodec(t)

	lat, lon := 41.9028, 12.4964
	tests := []struct {
		name  string
		order domain.PublicOrder
	}{
		{
			name: "single amount",
			order: domain.PublicOrder{
				ID:             42,
				Type:           domain.OrderTypeSell,
				Currency:       2,
				Amount:         decPtr("100.5"),
				PaymentMethod:  "SEPA Instant",
				Premium:        dec("-1.25"),
				BondSize:       dec("3"),
				Satoshis:       250000,
				EscrowDuration: 10800,
				MakerNick:      "HumbleRobot",
				MakerHashID:    "abcd",
				Coordinator:    "temple",
			},
		},
		{
			name: "range with location",
			order: domain.PublicOrder{
				ID:            7,
				Type:          domain.OrderTypeBuy,
				Currency:      1,
				HasRange:      true,
				MinAmount:     decPtr("20"),
				MaxAmount:     decPtr("500"),
				PaymentMethod: "Cash F2F",
				Premium:       dec("5"),
				BondSize:      dec("2.5"),
				Latitude:      &lat,
				Longitude:     &lon,
				Coordinator:   "temple",
			},
		},
		{
			name: "swap",
			order: domain.PublicOrder{
				ID:            9,
				Type:          domain.OrderTypeSell,
				Currency:      domain.SwapCurrency,
				Amount:        decPtr("0.02"),
				PaymentMethod: "On-Chain BTC",
				Premium:       dec("0"),
				BondSize:      dec("1"),
				Coordinator:   "temple",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order := tt.order
			order.CreatedAt = time.Unix(1700000000, 0)
			order.ExpiresAt = time.Unix(1700086400, 0)

			event, err := codec.Encode(order, domain.NetworkMainnet, sourceURL)
			require.NoError(t, err)
			require.NoError(t, event.Sign(sk))

			decoded, err := codec.Decode(event)
			require.NoError(t, err)
			require.False(t, decoded.Withdrawn)
			require.Equal(t, order.Key(), decoded.Key)
			require.NotNil(t, decoded.Order)

			got := decoded.Order
			require.Equal(t, order.ID, got.ID)
			require.Equal(t, order.Type, got.Type)
			require.Equal(t, order.Currency, got.Currency)
			require.Equal(t, order.HasRange, got.HasRange)
			requireDecimalPtrEqual(t, order.Amount, got.Amount)
			requireDecimalPtrEqual(t, order.MinAmount, got.MinAmount)
			requireDecimalPtrEqual(t, order.MaxAmount, got.MaxAmount)
			require.Equal(t, order.PaymentMethod, got.PaymentMethod)
			require.True(t, order.Premium.Equal(got.Premium))
			require.True(t, order.BondSize.Equal(got.BondSize))
			require.Equal(t, order.Satoshis, got.Satoshis)
			require.Equal(t, order.EscrowDuration, got.EscrowDuration)
			require.Equal(t, order.MakerNick, got.MakerNick)
			require.Equal(t, "temple", got.Coordinator)
			require.True(t, order.CreatedAt.Equal(got.CreatedAt))
			require.True(t, order.ExpiresAt.Equal(got.ExpiresAt))
			if order.Latitude != nil {
				require.NotNil(t, got.Latitude)
				require.NotNil(t, got.Longitude)
				require.InDelta(t, *order.Latitude, *got.Latitude, 1e-4)
				require.InDelta(t, *order.Longitude, *got.Longitude, 1e-4)
			} else {
				require.Nil(t, got.Latitude)
				require.Nil(t, got.Longitude)
			}
		})
	}
}

func TestEncodeTags(t *testing.T) {
	t.Parallel()

	codec, _ := newTestCodec(t)
	order := domain.PublicOrder{
		ID:            3,
		Type:          domain.OrderTypeSell,
		Currency:      2,
		Amount:        decPtr("100"),
		PaymentMethod: "SEPA",
		Premium:       dec("1"),
		BondSize:      dec("3"),
		Satoshis:      1000,
		Coordinator:   "temple",
	}

	event, err := codec.Encode(order, domain.NetworkTestnet, sourceURL)
	require.NoError(t, err)
	require.Equal(t, domain.OrderEventKind, event.Kind)
	require.Empty(t, event.Sig)

	tags := event.Tags
	require.Equal(t, "temple#3", tags.GetD())
	require.Equal(t, "sell", tagValue(tags, "k"))
	require.Equal(t, "EUR", tagValue(tags, "f"))
	require.Equal(t, "pending", tagValue(tags, "s"))
	require.Equal(t, "1000", tagValue(tags, "amt"))
	require.Equal(t, nostr.Tag{"fa", "100"}, *tags.GetFirst([]string{"fa", ""}))
	require.Equal(t, "testnet", tagValue(tags, "n"))
	require.Equal(t, "testnet", tagValue(tags, "network"))
	require.Equal(t, "lightning", tagValue(tags, "layer"))
	require.Equal(t, "robosats", tagValue(tags, "y"))
	require.Equal(t, "order", tagValue(tags, "z"))
	require.Equal(t, sourceURL+"3", tagValue(tags, "source"))
	require.Nil(t, tags.GetFirst([]string{"g", ""}))

	t.Run("source url", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			orderURL       string
			expectedSource string
		}{
			{
				name:           "trailing slash",
				orderURL:       "http://temple.onion/order/",
				expectedSource: "http://temple.onion/order/3",
			},
			{
				name:           "no trailing slash",
				orderURL:       "http://temple.onion/order",
				expectedSource: "http://temple.onion/order/3",
			},
			{
				name: "omitted",
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				event, err := codec.Encode(order, domain.NetworkTestnet, tt.orderURL)
				require.NoError(t, err)
				if tt.expectedSource == "" {
					require.Nil(t, event.Tags.GetFirst([]string{"source", ""}))
					return
				}
				require.Equal(t, tt.expectedSource, tagValue(event.Tags, "source"))
			})
		}
	})
}

func TestEncodeFailing(t *testing.T) {
	t.Parallel()

	codec, _ := newTestCodec(t)

	_, err := codec.Encode(domain.PublicOrder{ID: 1, Currency: 2}, domain.NetworkMainnet, "")
	require.ErrorIs(t, err, domain.ErrOrderMissingAmount)

	_, err = codec.Encode(
		domain.PublicOrder{ID: 1, Currency: 999, Amount: decPtr("1")},
		domain.NetworkMainnet, "",
	)
	require.ErrorIs(t, err, ordercodec.ErrUnknownCurrency)
}

func TestDecodeWithdrawn(t *testing.T) {
	t.Parallel()

	codec, sk := newTestCodec(t)
	event := &nostr.Event{
		CreatedAt: 1700000100,
		Kind:      domain.OrderEventKind,
		Tags: nostr.Tags{
			{"d", "temple#5"},
			{"s", "success"},
		},
	}
	require.NoError(t, event.Sign(sk))

	decoded, err := codec.Decode(event)
	require.NoError(t, err)
	require.True(t, decoded.Withdrawn)
	require.Nil(t, decoded.Order)
	require.Equal(t, "temple#5", decoded.Key)
	require.Equal(t, time.Unix(1700000100, 0), decoded.CreatedAt)
}

func TestDecodeSynthesizesMakerHashID(t *testing.T) {
	t.Parallel()

	codec, sk := newTestCodec(t)
	event := &nostr.Event{
		CreatedAt: 1700000000,
		Kind:      domain.OrderEventKind,
		Tags: nostr.Tags{
			{"d", "temple#12"},
			{"s", "pending"},
			{"f", "USD"},
			{"fa", "50"},
			{"name", "NoHashRobot"},
		},
	}
	require.NoError(t, event.Sign(sk))

	decoded, err := codec.Decode(event)
	require.NoError(t, err)

	h := sha256.Sum256([]byte("12temple"))
	require.Equal(t, int64(12), decoded.Order.ID)
	require.Equal(t, hex.EncodeToString(h[:]), decoded.Order.MakerHashID)
	require.Equal(t, 1, decoded.Order.Currency)
}

func TestDecodeFailing(t *testing.T) {
	t.Parallel()

	codec, sk := newTestCodec(t)
	otherSk := nostr.GeneratePrivateKey()

	baseTags := func(extra ...nostr.Tag) nostr.Tags {
		tags := nostr.Tags{
			{"d", "temple#1"},
			{"s", "pending"},
			{"fa", "100"},
			{"source", sourceURL + "1"},
		}
		return append(tags, extra...)
	}

	tests := []struct {
		name        string
		event       func() *nostr.Event
		expectedErr error
	}{
		{
			name:        "null event",
			event:       func() *nostr.Event { return nil },
			expectedErr: ordercodec.ErrNullEvent,
		},
		{
			name: "wrong kind",
			event: func() *nostr.Event {
				return signed(t, sk, 1, baseTags(nostr.Tag{"f", "EUR"}))
			},
			expectedErr: ordercodec.ErrInvalidKind,
		},
		{
			name: "unknown author",
			event: func() *nostr.Event {
				return signed(t, otherSk, domain.OrderEventKind, baseTags(nostr.Tag{"f", "EUR"}))
			},
			expectedErr: ordercodec.ErrUnknownAuthor,
		},
		{
			name: "bad signature",
			event: func() *nostr.Event {
				ev := signed(t, sk, domain.OrderEventKind, baseTags(nostr.Tag{"f", "EUR"}))
				ev.Content = "tampered"
				return ev
			},
			expectedErr: ordercodec.ErrInvalidSignature,
		},
		{
			name: "bad id",
			event: func() *nostr.Event {
				ev := signed(t, sk, domain.OrderEventKind, baseTags(nostr.Tag{"f", "EUR"}))
				ev.ID = strings.Repeat("0", 64)
				return ev
			},
			expectedErr: ordercodec.ErrInvalidSignature,
		},
		{
			name: "missing d tag",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, nostr.Tags{{"s", "pending"}, {"f", "EUR"}})
			},
			expectedErr: ordercodec.ErrMissingIdentifier,
		},
		{
			name: "missing currency",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, baseTags())
			},
			expectedErr: ordercodec.ErrUnknownCurrency,
		},
		{
			name: "unknown currency",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, baseTags(nostr.Tag{"f", "XYZ"}))
			},
			expectedErr: ordercodec.ErrUnknownCurrency,
		},
		{
			name: "malformed premium",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, baseTags(
					nostr.Tag{"f", "EUR"}, nostr.Tag{"premium", "high"},
				))
			},
			expectedErr: ordercodec.ErrInvalidTag,
		},
		{
			name: "malformed geohash",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, baseTags(
					nostr.Tag{"f", "EUR"}, nostr.Tag{"g", "abc!"},
				))
			},
			expectedErr: ordercodec.ErrInvalidTag,
		},
		{
			name: "missing order id",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, nostr.Tags{
					{"d", "temple#3f1c0a"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "1"},
				})
			},
			expectedErr: ordercodec.ErrMissingOrderID,
		},
		{
			name: "d tag without alias",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, nostr.Tags{
					{"d", "3f1c0a"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "1"},
				})
			},
			expectedErr: ordercodec.ErrForeignIdentifier,
		},
		{
			name: "source id differs from d tag",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, nostr.Tags{
					{"d", "temple#1"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "1"},
					{"source", sourceURL + "2"},
				})
			},
			expectedErr: ordercodec.ErrIdentifierMismatch,
		},
		{
			name: "missing amount",
			event: func() *nostr.Event {
				return signed(t, sk, domain.OrderEventKind, nostr.Tags{
					{"d", "temple#1"}, {"s", "pending"}, {"f", "EUR"},
				})
			},
			expectedErr: domain.ErrOrderMissingAmount,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decoded, err := codec.Decode(tt.event())
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, decoded)
		})
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	t.Parallel()

	codec, sk := newTestCodec(t)
	event := signed(t, sk, domain.OrderEventKind, nostr.Tags{
		{"d", "temple#1"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "10", "20"},
		{"pm", "Revolut", "Wise"},
	})

	first, err := codec.Decode(event)
	require.NoError(t, err)
	second, err := codec.Decode(event)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "Revolut Wise", first.Order.PaymentMethod)
	require.True(t, first.Order.HasRange)
	require.Nil(t, first.Order.Amount)
}

func TestAuthors(t *testing.T) {
	t.Parallel()

	pubkey := "ab"
	codec := ordercodec.NewCodec([]domain.CoordinatorProfile{
		{ShortAlias: "temple", NostrHexPubkey: pubkey},
		{ShortAlias: "nokey"},
	})
	require.Equal(t, []string{pubkey}, codec.Authors())
}

func TestDecodeForeignIdentifier(t *testing.T) {
	t.Parallel()

	templeSk := nostr.GeneratePrivateKey()
	templePk, err := nostr.GetPublicKey(templeSk)
	require.NoError(t, err)
	lakeSk := nostr.GeneratePrivateKey()
	lakePk, err := nostr.GetPublicKey(lakeSk)
	require.NoError(t, err)

	codec := ordercodec.NewCodec([]domain.CoordinatorProfile{
		{ShortAlias: "temple", NostrHexPubkey: templePk},
		{ShortAlias: "lake", NostrHexPubkey: lakePk},
	})

	tests := []struct {
		name        string
		sk          string
		tags        nostr.Tags
		expectedKey string
		expectedErr error
	}{
		{
			name:        "withdrawal of another coordinator order",
			sk:          lakeSk,
			tags:        nostr.Tags{{"d", "temple#1"}, {"s", "canceled"}},
			expectedErr: ordercodec.ErrForeignIdentifier,
		},
		{
			name: "upsert of another coordinator order",
			sk:   lakeSk,
			tags: nostr.Tags{
				{"d", "temple#1"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "1"},
			},
			expectedErr: ordercodec.ErrForeignIdentifier,
		},
		{
			name:        "alias prefix of another coordinator",
			sk:          lakeSk,
			tags:        nostr.Tags{{"d", "lake#temple#1"}, {"s", "canceled"}},
			expectedErr: ordercodec.ErrForeignIdentifier,
		},
		{
			name:        "withdrawal of own order",
			sk:          lakeSk,
			tags:        nostr.Tags{{"d", "lake#1"}, {"s", "canceled"}},
			expectedKey: "lake#1",
		},
		{
			name: "upsert of own order",
			sk:   templeSk,
			tags: nostr.Tags{
				{"d", "temple#1"}, {"s", "pending"}, {"f", "EUR"}, {"fa", "1"},
			},
			expectedKey: "temple#1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decoded, err := codec.Decode(signed(t, tt.sk, domain.OrderEventKind, tt.tags))
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Nil(t, decoded)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedKey, decoded.Key)
		})
	}
}

func newTestCodec(t *testing.T) (*ordercodec.Codec, string) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	return ordercodec.NewCodec([]domain.CoordinatorProfile{
		{ShortAlias: "temple", NostrHexPubkey: pk},
	}), sk
}

func signed(t *testing.T, sk string, kind int, tags nostr.Tags) *nostr.Event {
	ev := &nostr.Event{
		CreatedAt: 1700000000,
		Kind:      kind,
		Tags:      tags,
	}
	require.NoError(t, ev.Sign(sk))
	return ev
}

func tagValue(tags nostr.Tags, key string) string {
	tag := tags.GetFirst([]string{key, ""})
	if tag == nil {
		return ""
	}
	return tag.Value()
}

func requireDecimalPtrEqual(t *testing.T, expected, got *decimal.Decimal) {
	if expected == nil {
		require.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	require.True(t, expected.Equal(*got), "expected %s, got %s", expected, got)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
