package application

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// BookSource feeds the federation book from one of the supported transports.
type BookSource interface {
	Mode() domain.ConnectionMode
	// Start makes the source begin delivering orders.
	Start(ctx context.Context) error
	// LoadBook asks the source for a fresh copy of the book. It returns once
	// every coordinator has been queried, or immediately if the source
	// pushes updates on its own.
	LoadBook(ctx context.Context)
	// Stop releases the resources of the source. No order is delivered
	// after Stop returns.
	Stop()
}

// restBookSource polls every enabled coordinator in parallel.
type restBookSource struct {
	federation *Federation
}

func newRestBookSource(f *Federation) BookSource {
	return &restBookSource{f}
}

func (s *restBookSource) Mode() domain.ConnectionMode {
	return domain.ConnectionAPI
}

func (s *restBookSource) Start(_ context.Context) error {
	return nil
}

func (s *restBookSource) LoadBook(ctx context.Context) {
	coordinators := s.federation.enabledCoordinators()
	if len(coordinators) <= 0 {
		return
	}

	s.federation.beginBookLoad(len(coordinators))

	eg := &errgroup.Group{}
	for i := range coordinators {
		c := coordinators[i]
		eg.Go(func() error {
			c.LoadBook(ctx, nil)
			s.federation.endBookLoad()
			return nil
		})
	}
	// nolint
	eg.Wait()
}

func (s *restBookSource) Stop() {}

// relayBookSource keeps the book in sync with the order advertisements
// published on a pool of relays.
type relayBookSource struct {
	federation *Federation
	pool       ports.RelayPool
	decoder    ports.OrderDecoder
	relays     []string
	filter     nostr.Filter

	lock    *sync.Mutex
	sub     ports.RelaySubscription
	stopped atomic.Bool
}

func newRelayBookSource(
	f *Federation, pool ports.RelayPool, decoder ports.OrderDecoder,
	relays []string, authors []string, network domain.Network,
) BookSource {
	filter := nostr.Filter{
		Authors: authors,
		Kinds:   []int{domain.OrderEventKind},
		Tags:    map[string][]string{"n": {string(network)}},
	}
	return &relayBookSource{
		federation: f,
		pool:       pool,
		decoder:    decoder,
		relays:     relays,
		filter:     filter,
		lock:       &sync.Mutex{},
	}
}

func (s *relayBookSource) Mode() domain.ConnectionMode {
	return domain.ConnectionNostr
}

func (s *relayBookSource) Start(ctx context.Context) error {
	s.federation.resetRelayBook(s, len(s.relays))
	if len(s.relays) <= 0 {
		return nil
	}

	sub, err := s.pool.Subscribe(ctx, s.relays, s.filter, ports.RelayHandler{
		OnEvent: s.onEvent,
		OnEOSE:  s.onEOSE,
	})
	if err != nil {
		s.federation.resetRelayBook(s, 0)
		return err
	}

	s.lock.Lock()
	if s.stopped.Load() {
		s.lock.Unlock()
		sub.Close()
		return nil
	}
	s.sub = sub
	s.lock.Unlock()

	log.WithField("subscription", sub.ID()).Debugf(
		"subscribed to %d relays", len(s.relays),
	)
	return nil
}

func (s *relayBookSource) LoadBook(_ context.Context) {}

func (s *relayBookSource) Stop() {
	s.stopped.Store(true)

	s.lock.Lock()
	sub := s.sub
	s.sub = nil
	s.lock.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (s *relayBookSource) onEvent(relay string, event *nostr.Event) {
	if s.stopped.Load() {
		return
	}

	orderEvent, err := s.decoder.Decode(event)
	if err != nil {
		log.WithError(err).WithField("relay", relay).Debug("dropped order event")
		return
	}
	s.federation.applyOrderEvent(s, *orderEvent)
}

func (s *relayBookSource) onEOSE(relay string) {
	if s.stopped.Load() {
		return
	}

	log.WithField("relay", relay).Debug("received stored order events")
	s.federation.endRelayLoad(s)
}
