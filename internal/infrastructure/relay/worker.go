package relay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

// worker keeps one subscription alive on a single relay.
type worker struct {
	url     string
	subID   string
	req     []byte
	filter  nostr.Filter
	handler ports.RelayHandler
	dialer  *websocket.Dialer

	eoseSent bool
}

func (w *worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := w.connect(ctx)
		if err != nil {
			log.WithError(err).WithField("relay", w.url).Debug(
				"relay connection failed, retrying",
			)
		} else {
			w.process(ctx, conn)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(ReconnectDelay):
		}
	}
}

func (w *worker) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, w.req); err != nil {
		conn.Close()
		return nil, err
	}

	log.WithField("relay", w.url).Debug("relay connected")
	return conn, nil
}

// process reads from conn until it drops or ctx is canceled. The connection
// is closed, and the watcher goroutine gone, by the time process returns.
func (w *worker) process(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			w.unsubscribe(conn)
			conn.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-watcherDone
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).WithField("relay", w.url).Warn(
					"relay connection dropped",
				)
			}
			return
		}

		if closed := w.handleMessage(msg); closed {
			return
		}
	}
}

// handleMessage dispatches a relay frame and returns whether the relay closed
// the subscription.
func (w *worker) handleMessage(msg []byte) bool {
	switch env := nostr.ParseMessage(msg).(type) {
	case *nostr.EventEnvelope:
		if env.SubscriptionID != nil && *env.SubscriptionID != w.subID {
			return false
		}
		if !w.filter.Matches(&env.Event) {
			return false
		}
		if w.handler.OnEvent != nil {
			w.handler.OnEvent(w.url, &env.Event)
		}
	case *nostr.EOSEEnvelope:
		if string(*env) != w.subID || w.eoseSent {
			return false
		}
		w.eoseSent = true
		if w.handler.OnEOSE != nil {
			w.handler.OnEOSE(w.url)
		}
	case *nostr.NoticeEnvelope:
		log.WithField("relay", w.url).Infof("relay notice: %s", string(*env))
	case *nostr.ClosedEnvelope:
		if env.SubscriptionID != w.subID {
			return false
		}
		log.WithField("relay", w.url).Warnf(
			"subscription closed by relay: %s", env.Reason,
		)
		return true
	case nil:
		log.WithField("relay", w.url).Debug("skipping malformed relay message")
	}
	return false
}

func (w *worker) unsubscribe(conn *websocket.Conn) {
	msg, err := nostr.CloseEnvelope(w.subID).MarshalJSON()
	if err != nil {
		return
	}
	// nolint
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	// nolint
	conn.WriteMessage(websocket.TextMessage, msg)
}
