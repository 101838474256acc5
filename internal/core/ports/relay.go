package ports

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

// RelayHandler holds the callbacks invoked by a relay subscription.
// Callbacks of the same relay are never invoked concurrently.
type RelayHandler struct {
	// OnEvent is called for every event delivered by a relay.
	OnEvent func(relay string, event *nostr.Event)
	// OnEOSE is called once per relay when it's done sending stored events.
	OnEOSE func(relay string)
}

type RelaySubscription interface {
	ID() string
	// Close unsubscribes from every relay and releases the connections.
	Close()
}

// RelayPool opens subscriptions across a set of relays.
type RelayPool interface {
	// Subscribe opens one subscription with the given filter on every relay.
	// Relays unreachable at the time of the call are retried in background.
	Subscribe(
		ctx context.Context, relays []string, filter nostr.Filter,
		handler RelayHandler,
	) (RelaySubscription, error)
}

// OrderDecoder turns relay order advertisements into order events.
type OrderDecoder interface {
	Decode(event *nostr.Event) (*domain.OrderEvent, error)
}
