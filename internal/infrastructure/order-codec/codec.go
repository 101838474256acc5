package ordercodec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/nbd-wtf/go-nostr"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

const (
	statusPending = "pending"
	platform      = "robosats"
	docType       = "order"
	layer         = "lightning"

	geohashPrecision = 9
	geohashAlphabet  = "0123456789bcdefghjkmnpqrstuvwxyz"
)

// Codec maps order advertisements to public orders and back.
type Codec struct {
	authors map[string]string
}

// NewCodec returns a codec accepting events signed by the given coordinators
// only. Profiles without a nostr pubkey are ignored.
func NewCodec(profiles []domain.CoordinatorProfile) *Codec {
	authors := make(map[string]string)
	for _, p := range profiles {
		if p.NostrHexPubkey == "" {
			continue
		}
		authors[strings.ToLower(p.NostrHexPubkey)] = p.ShortAlias
	}
	return &Codec{authors}
}

var _ ports.OrderDecoder = (*Codec)(nil)

// Authors returns the pubkeys of the coordinators known by the codec.
func (c *Codec) Authors() []string {
	authors := make([]string, 0, len(c.authors))
	for pubkey := range c.authors {
		authors = append(authors, pubkey)
	}
	return authors
}

// Decode parses a signed order advertisement. Events whose status is not
// pending are returned as withdrawn, without order. The d tag must be the
// order key of the signing coordinator, so that no coordinator can touch
// the orders of another one.
func (c *Codec) Decode(event *nostr.Event) (*domain.OrderEvent, error) {
	if event == nil {
		return nil, ErrNullEvent
	}
	if event.Kind != domain.OrderEventKind {
		return nil, ErrInvalidKind
	}
	alias, ok := c.authors[strings.ToLower(event.PubKey)]
	if !ok {
		return nil, ErrUnknownAuthor
	}
	if event.GetID() != event.ID {
		return nil, ErrInvalidSignature
	}
	if ok, err := event.CheckSignature(); err != nil || !ok {
		return nil, ErrInvalidSignature
	}

	key := event.Tags.GetD()
	if key == "" {
		return nil, ErrMissingIdentifier
	}
	keyAlias, keyID := splitKey(key)
	if keyAlias != alias {
		return nil, fmt.Errorf("%w: %s signed by %s", ErrForeignIdentifier, key, alias)
	}

	createdAt := event.CreatedAt.Time()
	if tagValue(event.Tags, "s") != statusPending {
		return &domain.OrderEvent{
			Key:       key,
			Withdrawn: true,
			CreatedAt: createdAt,
		}, nil
	}

	if keyID <= 0 {
		return nil, ErrMissingOrderID
	}
	order, err := decodeOrder(event.Tags, alias)
	if err != nil {
		return nil, err
	}
	if order.ID > 0 && order.ID != keyID {
		return nil, fmt.Errorf(
			"%w: source id %d, d tag %s", ErrIdentifierMismatch, order.ID, key,
		)
	}
	order.ID = keyID
	if order.MakerHashID == "" {
		order.MakerHashID = makerHashID(order.ID, alias)
	}
	order.CreatedAt = createdAt
	if err := order.Validate(); err != nil {
		return nil, err
	}

	return &domain.OrderEvent{
		Key:       key,
		Order:     order,
		CreatedAt: createdAt,
	}, nil
}

// Encode returns the unsigned advertisement of the given order. The event is
// stamped with the order creation time, or the current one if not set.
// The source tag is the order id appended to orderURL, and it's omitted if
// orderURL is empty.
func (c *Codec) Encode(
	order domain.PublicOrder, network domain.Network, orderURL string,
) (*nostr.Event, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	currency, ok := domain.CurrencyName(order.Currency)
	if !ok {
		return nil, ErrUnknownCurrency
	}

	var expiration int64
	if !order.ExpiresAt.IsZero() {
		expiration = order.ExpiresAt.Unix()
	}
	amount := []string{"fa"}
	if order.HasRange {
		amount = append(amount, order.MinAmount.String(), order.MaxAmount.String())
	} else {
		amount = append(amount, order.Amount.String())
	}
	hashID := order.MakerHashID
	if hashID == "" {
		hashID = makerHashID(order.ID, order.Coordinator)
	}

	tags := nostr.Tags{
		{"d", order.Key()},
		{"name", order.MakerNick, hashID},
		{"k", order.Type.String()},
		{"f", currency},
		{"s", statusPending},
		{"amt", strconv.FormatInt(order.Satoshis, 10)},
		amount,
		append(nostr.Tag{"pm"}, strings.Split(order.PaymentMethod, " ")...),
		{"premium", order.Premium.String()},
		{"network", string(network)},
		{"layer", layer},
		{"expiration", strconv.FormatInt(expiration, 10), strconv.FormatInt(order.EscrowDuration, 10)},
		{"y", platform},
		{"z", docType},
		{"n", string(network)},
		{"bond", order.BondSize.String()},
	}
	if orderURL != "" {
		source := strings.TrimRight(orderURL, "/") + "/" + strconv.FormatInt(order.ID, 10)
		tags = append(tags, nostr.Tag{"source", source})
	}
	if order.Latitude != nil && order.Longitude != nil {
		tags = append(tags, nostr.Tag{
			"g", geohash.EncodeWithPrecision(*order.Latitude, *order.Longitude, geohashPrecision),
		})
	}

	createdAt := nostr.Now()
	if !order.CreatedAt.IsZero() {
		createdAt = nostr.Timestamp(order.CreatedAt.Unix())
	}
	return &nostr.Event{
		CreatedAt: createdAt,
		Kind:      domain.OrderEventKind,
		Tags:      tags,
	}, nil
}

func decodeOrder(tags nostr.Tags, alias string) (*domain.PublicOrder, error) {
	order := &domain.PublicOrder{
		Coordinator: alias,
		MakerStatus: domain.MakerStatusActive,
	}
	currencyFound := false

	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		values := tag[1:]

		var err error
		switch tag.Key() {
		case "k":
			order.Type = domain.OrderTypeBuy
			if values[0] == domain.OrderTypeSell.String() {
				order.Type = domain.OrderTypeSell
			}
		case "expiration":
			var expiry int64
			if expiry, err = parseInt(values[0]); err == nil && expiry > 0 {
				order.ExpiresAt = time.Unix(expiry, 0)
			}
			if err == nil && len(values) > 1 {
				order.EscrowDuration, err = parseInt(values[1])
			}
		case "fa":
			if len(values) > 1 {
				order.HasRange = true
				order.MinAmount, err = parseDecimalPtr(values[0])
				if err == nil {
					order.MaxAmount, err = parseDecimalPtr(values[1])
				}
				break
			}
			order.Amount, err = parseDecimalPtr(values[0])
		case "amt":
			order.Satoshis, err = parseInt(values[0])
			order.SatoshisNow = order.Satoshis
		case "bond":
			order.BondSize, err = decimal.NewFromString(values[0])
		case "name":
			order.MakerNick = values[0]
			if len(values) > 1 {
				order.MakerHashID = values[1]
			}
		case "premium":
			order.Premium, err = decimal.NewFromString(values[0])
		case "pm":
			order.PaymentMethod = strings.Join(values, " ")
		case "g":
			var lat, lon float64
			if lat, lon, err = decodeGeohash(values[0]); err == nil {
				order.Latitude, order.Longitude = &lat, &lon
			}
		case "f":
			code, ok := domain.CurrencyCode(values[0])
			if !ok {
				return nil, fmt.Errorf("%w %s", ErrUnknownCurrency, values[0])
			}
			order.Currency = code
			currencyFound = true
		case "source":
			if id, ok := idFromSource(values[0]); ok {
				order.ID = id
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w %s: %s", ErrInvalidTag, tag.Key(), err)
		}
	}

	if !currencyFound {
		return nil, ErrUnknownCurrency
	}
	return order, nil
}

// makerHashID derives a stable maker identity for orders advertised without
// one.
func makerHashID(id int64, alias string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d%s", id, alias)))
	return hex.EncodeToString(h[:])
}

func idFromSource(source string) (int64, bool) {
	source = strings.TrimRight(source, "/")
	i := strings.LastIndex(source, "/")
	id, err := strconv.ParseInt(source[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// splitKey returns the coordinator alias and the order id of an order key.
// The id is zero if it can't be parsed.
func splitKey(key string) (string, int64) {
	i := strings.LastIndex(key, "#")
	if i < 0 {
		return "", 0
	}
	id, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return key[:i], 0
	}
	return key[:i], id
}

func tagValue(tags nostr.Tags, key string) string {
	tag := tags.GetFirst([]string{key, ""})
	if tag == nil {
		return ""
	}
	return tag.Value()
}

func decodeGeohash(hash string) (float64, float64, error) {
	hash = strings.ToLower(hash)
	if len(hash) <= 0 || len(hash) > 12 {
		return 0, 0, ErrInvalidGeohash
	}
	for _, r := range hash {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return 0, 0, ErrInvalidGeohash
		}
	}
	lat, lon := geohash.Decode(hash)
	return lat, lon, nil
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseDecimalPtr(s string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
