package pubsub

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"github.com/tdex-network/fedbook/pkg/circuitbreaker"
	"golang.org/x/sync/errgroup"
)

const defaultRequestTimeout = 15 * time.Second

type service struct {
	store    *store
	webhooks *webhookClient
	topics   map[string]bool

	lock     *sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewService returns a pubsub service notifying webhooks. Subscriptions are
// restricted to the given topics, if any, plus ports.AnyTopic.
func NewService(requestTimeout time.Duration, topics ...string) ports.PubSub {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	var validTopics map[string]bool
	if len(topics) > 0 {
		validTopics = map[string]bool{ports.AnyTopic: true}
		for _, t := range topics {
			validTopics[t] = true
		}
	}

	return &service{
		store:    newStore(),
		webhooks: newWebhookClient(requestTimeout),
		topics:   validTopics,
		lock:     &sync.Mutex{},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	return ws.SubscribeWithID("", topic, endpoint, secret)
}

func (ws *service) SubscribeWithID(
	id, topic, endpoint, secret string,
) (string, error) {
	if ws.topics != nil && !ws.topics[topic] {
		return "", ErrInvalidTopic
	}
	sub, err := NewSubscriptionWithID(id, topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	ws.store.add(*sub)
	return sub.ID, nil
}

func (ws *service) Unsubscribe(_, id string) error {
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	return ws.publishForTopic(topic, message)
}

func (ws *service) Close() {
	ws.store.clear()
	ws.webhooks.close()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	subs := ws.store.get(topic)
	if topic != ports.AnyTopic && topic != ports.UnspecifiedTopic {
		subsForAnyTopic := ws.store.get(ports.AnyTopic)
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) publishForTopic(topic, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(sub, message) })
	}
	return eg.Wait()
}

func (ws *service) breaker(endpoint string) *gobreaker.CircuitBreaker {
	name := endpoint
	if u, err := url.Parse(endpoint); err == nil {
		name = u.Host
	}

	ws.lock.Lock()
	defer ws.lock.Unlock()

	cb, ok := ws.breakers[name]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker(name)
		ws.breakers[name] = cb
	}
	return cb
}

func (ws *service) doRequest(sub Subscription, payload string) error {
	_, err := ws.breaker(sub.Endpoint).Execute(func() (interface{}, error) {
		var token string
		if sub.IsSecured() {
			var err error
			token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				IssuedAt: time.Now().Unix(),
				Subject:  sub.Event,
			}).SignedString([]byte(sub.Secret))
			if err != nil {
				return nil, err
			}
		}

		if err := ws.webhooks.deliver(
			context.Background(), sub.Endpoint, []byte(payload), token,
		); err != nil {
			return nil, fmt.Errorf("webhook %s: %w", sub.ID, err)
		}
		return nil, nil
	})

	return err
}
