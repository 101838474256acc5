package pubsub_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"github.com/tdex-network/fedbook/internal/infrastructure/pubsub"
)

const testMessage = `{"topic":"book","version":3,"connection":"api","loading":false}`

type receivedRequest struct {
	path      string
	payload   string
	auth      string
	userAgent string
}

type testWebServer struct {
	*httptest.Server
	lock     *sync.Mutex
	requests []receivedRequest
}

func TestPubSubService(t *testing.T) {
	t.Parallel()

	server := newTestWebServer(t)
	svc := pubsub.NewService(5*time.Second, "book", "exchange")
	t.Cleanup(svc.Close)

	secret := randomSecret()
	bookEndpoint := server.URL + "/book"
	allEndpoint := server.URL + "/all"

	bookID, err := svc.Subscribe("book", bookEndpoint, secret)
	require.NoError(t, err)
	require.NotEmpty(t, bookID)

	allID, err := svc.SubscribeWithID("all-events", ports.AnyTopic, allEndpoint, "")
	require.NoError(t, err)
	require.Equal(t, "all-events", allID)

	// Subscribing twice with the same id is a no-op.
	_, err = svc.SubscribeWithID("all-events", ports.AnyTopic, allEndpoint, "")
	require.NoError(t, err)

	subs := svc.ListSubscriptionsForTopic("book")
	require.Len(t, subs, 2)
	require.Equal(t, bookEndpoint, subs[0].NotifyAt())
	require.True(t, subs[0].IsSecured())
	require.Equal(t, ports.AnyTopic, subs[1].Topic())
	require.False(t, subs[1].IsSecured())

	require.Len(t, svc.ListSubscriptionsForTopic(ports.UnspecifiedTopic), 2)
	require.Len(t, svc.ListSubscriptionsForTopic("exchange"), 1)

	err = svc.Publish("book", testMessage)
	require.NoError(t, err)

	requests := server.received()
	require.Len(t, requests, 2)
	for _, r := range requests {
		require.Equal(t, testMessage, r.payload)
		require.Equal(t, "fedbookd-webhook", r.userAgent)
		if r.path != "/book" {
			require.Empty(t, r.auth)
			continue
		}
		require.True(t, strings.HasPrefix(r.auth, "Bearer "))
		token, err := jwt.Parse(
			strings.TrimPrefix(r.auth, "Bearer "),
			func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		)
		require.NoError(t, err)
		require.True(t, token.Valid)
	}

	err = svc.Unsubscribe("book", bookID)
	require.NoError(t, err)
	require.Len(t, svc.ListSubscriptionsForTopic("book"), 1)

	err = svc.Unsubscribe("book", bookID)
	require.ErrorIs(t, err, pubsub.ErrSubscriptionNotFound)

	err = svc.Unsubscribe(ports.AnyTopic, allID)
	require.NoError(t, err)

	// Checks that it's all ok if there are no hooks to invoke.
	err = svc.Publish("exchange", testMessage)
	require.NoError(t, err)
	require.Len(t, server.received(), 2)
}

func TestPubSubServiceFailing(t *testing.T) {
	t.Parallel()

	svc := pubsub.NewService(time.Second, "book")
	t.Cleanup(svc.Close)

	tests := []struct {
		name          string
		topic         string
		endpoint      string
		expectedError error
	}{
		{"missing_topic", "", "http://localhost:8888/book", pubsub.ErrInvalidTopic},
		{"unknown_topic", "limits", "http://localhost:8888/book", pubsub.ErrInvalidTopic},
		{"relative_endpoint", "book", "/book", pubsub.ErrInvalidEndpoint},
		{"malformed_endpoint", "book", "localhost", pubsub.ErrInvalidEndpoint},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Subscribe(tt.topic, tt.endpoint, "")
			require.ErrorIs(t, err, tt.expectedError)
		})
	}

	_, err := pubsub.NewSubscription("", "http://localhost:8888/book", "")
	require.ErrorIs(t, err, pubsub.ErrMissingTopic)
}

func TestPubSubServiceDelivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		delay         time.Duration
		expectedError error
		expectedBody  string
	}{
		{
			name:   "ok",
			status: http.StatusOK,
		},
		{
			name:   "no_content",
			status: http.StatusNoContent,
		},
		{
			name:          "server_error",
			status:        http.StatusInternalServerError,
			expectedError: pubsub.ErrDeliveryRejected,
			expectedBody:  "boom",
		},
		{
			name:          "not_modified",
			status:        http.StatusNotModified,
			expectedError: pubsub.ErrDeliveryRejected,
		},
		{
			name:   "timeout",
			status: http.StatusOK,
			delay:  time.Second,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					if tt.delay > 0 {
						select {
						case <-time.After(tt.delay):
						case <-r.Context().Done():
							return
						}
					}
					if tt.status >= http.StatusBadRequest {
						http.Error(w, "boom", tt.status)
						return
					}
					w.WriteHeader(tt.status)
				},
			))
			t.Cleanup(server.Close)

			svc := pubsub.NewService(200 * time.Millisecond)
			t.Cleanup(svc.Close)

			_, err := svc.Subscribe("anything", server.URL, "")
			require.NoError(t, err)

			err = svc.Publish("anything", testMessage)
			if tt.delay > 0 {
				require.ErrorIs(t, err, context.DeadlineExceeded)
				return
			}
			if tt.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expectedError)
			require.Contains(t, err.Error(), tt.expectedBody)
		})
	}
}

func newTestWebServer(t *testing.T) *testWebServer {
	s := &testWebServer{lock: &sync.Mutex{}}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Bad method", http.StatusMethodNotAllowed)
				return
			}
			if r.Header.Get("Content-Type") == "" {
				http.Error(w, "Missing Content-Type header", http.StatusUnsupportedMediaType)
				return
			}
			defer r.Body.Close()
			payload, _ := io.ReadAll(r.Body)

			s.lock.Lock()
			s.requests = append(s.requests, receivedRequest{
				path:      r.URL.Path,
				payload:   string(payload),
				auth:      r.Header.Get("Authorization"),
				userAgent: r.Header.Get("User-Agent"),
			})
			s.lock.Unlock()

			w.WriteHeader(http.StatusOK)
		},
	))
	t.Cleanup(s.Close)
	return s
}

func (s *testWebServer) received() []receivedRequest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]receivedRequest{}, s.requests...)
}

func randomSecret() string {
	b := make([]byte, 32)
	//nolint
	rand.Read(b)
	return hex.EncodeToString(b)
}
