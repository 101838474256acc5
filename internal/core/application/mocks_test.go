package application_test

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

// **** CoordinatorClient ****

type mockCoordinatorClient struct {
	mock.Mock
}

func (m *mockCoordinatorClient) GetBook(
	ctx context.Context, baseURL string,
) ([]domain.PublicOrder, error) {
	args := m.Called(ctx, baseURL)

	var res []domain.PublicOrder
	if a := args.Get(0); a != nil {
		res = a.([]domain.PublicOrder)
	}
	return res, args.Error(1)
}

func (m *mockCoordinatorClient) GetLimits(
	ctx context.Context, baseURL string,
) (domain.LimitList, error) {
	args := m.Called(ctx, baseURL)

	var res domain.LimitList
	if a := args.Get(0); a != nil {
		res = a.(domain.LimitList)
	}
	return res, args.Error(1)
}

func (m *mockCoordinatorClient) GetInfo(
	ctx context.Context, baseURL string,
) (*domain.Info, error) {
	args := m.Called(ctx, baseURL)

	var res *domain.Info
	if a := args.Get(0); a != nil {
		res = a.(*domain.Info)
	}
	return res, args.Error(1)
}

// **** RelayPool ****

type mockRelayPool struct {
	mock.Mock
}

func (m *mockRelayPool) Subscribe(
	ctx context.Context, relays []string, filter nostr.Filter,
	handler ports.RelayHandler,
) (ports.RelaySubscription, error) {
	args := m.Called(ctx, relays, filter, handler)

	var res ports.RelaySubscription
	if a := args.Get(0); a != nil {
		res = a.(ports.RelaySubscription)
	}
	return res, args.Error(1)
}

type mockRelaySubscription struct {
	mock.Mock
}

func (m *mockRelaySubscription) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockRelaySubscription) Close() {
	m.Called()
}

// **** OrderDecoder ****

type mockOrderDecoder struct {
	mock.Mock
}

func (m *mockOrderDecoder) Decode(event *nostr.Event) (*domain.OrderEvent, error) {
	args := m.Called(event)

	var res *domain.OrderEvent
	if a := args.Get(0); a != nil {
		res = a.(*domain.OrderEvent)
	}
	return res, args.Error(1)
}

// **** PubSub ****

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) SubscribeWithID(
	id, topic, endpoint, secret string,
) (string, error) {
	args := m.Called(id, topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(topic, id string) error {
	args := m.Called(topic, id)
	return args.Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}

func (m *mockPubSub) Close() {
	m.Called()
}
