package relay

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"github.com/thanhpk/randstr"
	"golang.org/x/net/proxy"
)

var (
	// ReconnectDelay is the time waited before dialing again a relay whose
	// connection dropped or failed.
	ReconnectDelay = time.Second
	// HandshakeTimeout bounds dialing and websocket upgrade of a relay.
	HandshakeTimeout = 30 * time.Second
)

type pool struct {
	dialer *websocket.Dialer
}

// NewPool returns a relay pool dialing relays directly, or through the given
// SOCKS5 proxy for onion hosts if torProxy is defined.
func NewPool(torProxy string) (ports.RelayPool, error) {
	direct := &net.Dialer{Timeout: HandshakeTimeout}
	dialer := &websocket.Dialer{
		HandshakeTimeout: HandshakeTimeout,
		NetDialContext:   direct.DialContext,
	}

	if torProxy != "" {
		socks, err := proxy.SOCKS5("tcp", torProxy, nil, direct)
		if err != nil {
			return nil, fmt.Errorf("invalid tor proxy: %s", err)
		}
		socksDialer, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("tor proxy dialer does not support contexts")
		}
		dialer.NetDialContext = func(
			ctx context.Context, network, addr string,
		) (net.Conn, error) {
			host, _, _ := net.SplitHostPort(addr)
			if strings.HasSuffix(host, ".onion") {
				return socksDialer.DialContext(ctx, network, addr)
			}
			return direct.DialContext(ctx, network, addr)
		}
	}

	return &pool{dialer}, nil
}

func (p *pool) Subscribe(
	ctx context.Context, relays []string, filter nostr.Filter,
	handler ports.RelayHandler,
) (ports.RelaySubscription, error) {
	subID := randstr.Hex(16)
	req, err := nostr.ReqEnvelope{
		SubscriptionID: subID,
		Filters:        nostr.Filters{filter},
	}.MarshalJSON()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:     subID,
		cancel: cancel,
		wg:     &sync.WaitGroup{},
	}

	seen := make(map[string]bool)
	for _, url := range relays {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		w := &worker{
			url:     url,
			subID:   subID,
			req:     req,
			filter:  filter,
			handler: handler,
			dialer:  p.dialer,
		}
		sub.wg.Add(1)
		go w.run(ctx, sub.wg)
	}

	return sub, nil
}

type subscription struct {
	id     string
	cancel context.CancelFunc
	wg     *sync.WaitGroup
	once   sync.Once
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}
