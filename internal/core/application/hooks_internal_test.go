package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

func TestHookHubCoalescesUpdates(t *testing.T) {
	h := newHookHub(func() *domain.Snapshot { return &domain.Snapshot{} })
	defer h.close()

	updates := make(chan Update, 10)
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	h.subscribe(func(u Update) {
		updates <- u
		if first {
			first = false
			close(entered)
			<-release
		}
	})

	h.notify(UpdateBook)
	<-entered

	h.notify(UpdateLimits)
	h.notify(UpdateInfo)
	h.notify(UpdateLimits)
	close(release)

	require.Equal(t, UpdateBook, receiveUpdate(t, updates).Kinds)
	require.Equal(t, UpdateLimits|UpdateInfo, receiveUpdate(t, updates).Kinds)

	h.close()
	require.Len(t, updates, 0)
}

func TestHookHubUnsubscribe(t *testing.T) {
	h := newHookHub(func() *domain.Snapshot { return &domain.Snapshot{Version: 3} })

	first := make(chan Update, 10)
	second := make(chan Update, 10)
	_, unsubscribe := h.subscribe(func(u Update) { first <- u })
	id, _ := h.subscribe(func(u Update) { second <- u })
	require.NotEmpty(t, id)

	unsubscribe()
	h.notify(UpdateExchange)

	u := receiveUpdate(t, second)
	require.Equal(t, UpdateExchange, u.Kinds)
	require.Equal(t, uint64(3), u.Snapshot.Version)

	h.close()
	require.Len(t, first, 0)
}

func TestUpdateKindLabels(t *testing.T) {
	kinds := UpdateBook | UpdateLoading | UpdateConnection

	require.True(t, kinds.Has(UpdateBook|UpdateLoading))
	require.False(t, kinds.Has(UpdateLimits))
	require.Equal(t, []string{"book", "loading", "connection"}, kinds.Labels())
	require.Equal(t, "book|loading|connection", kinds.String())
	require.Empty(t, UpdateKind(0).Labels())
}

func receiveUpdate(t *testing.T, updates chan Update) Update {
	select {
	case u := <-updates:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for update")
		return Update{}
	}
}
