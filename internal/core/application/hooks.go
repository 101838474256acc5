package application

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

const (
	UpdateBook UpdateKind = 1 << iota
	UpdateLimits
	UpdateInfo
	UpdateExchange
	UpdateCoordinators
	UpdateLoading
	UpdateConnection
)

var updateKindLabels = []struct {
	kind  UpdateKind
	label string
}{
	{UpdateBook, "book"},
	{UpdateLimits, "limits"},
	{UpdateInfo, "info"},
	{UpdateExchange, "exchange"},
	{UpdateCoordinators, "coordinators"},
	{UpdateLoading, "loading"},
	{UpdateConnection, "connection"},
}

// UpdateKind is a set of federation changes.
type UpdateKind uint16

// Has returns whether k includes every change of other.
func (k UpdateKind) Has(other UpdateKind) bool {
	return k&other == other
}

// Labels returns the names of the changes included in the set.
func (k UpdateKind) Labels() []string {
	labels := make([]string, 0, len(updateKindLabels))
	for _, l := range updateKindLabels {
		if k.Has(l.kind) {
			labels = append(labels, l.label)
		}
	}
	return labels
}

func (k UpdateKind) String() string {
	return strings.Join(k.Labels(), "|")
}

// Update is delivered to federation subscribers. Kinds is the union of every
// change occurred since the previous delivery, Snapshot is the latest one.
type Update struct {
	Kinds    UpdateKind
	Snapshot *domain.Snapshot
}

type hookSubscriber struct {
	id      string
	handler func(Update)
}

// hookHub delivers updates to subscribers from a single goroutine. Changes
// notified while subscribers are busy are merged into the next delivery.
type hookHub struct {
	lock        *sync.Mutex
	pending     UpdateKind
	subscribers []hookSubscriber
	snapshot    func() *domain.Snapshot

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newHookHub(snapshot func() *domain.Snapshot) *hookHub {
	h := &hookHub{
		lock:     &sync.Mutex{},
		snapshot: snapshot,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.dispatch()
	return h
}

func (h *hookHub) subscribe(handler func(Update)) (string, func()) {
	id := uuid.New().String()

	h.lock.Lock()
	h.subscribers = append(h.subscribers, hookSubscriber{id, handler})
	h.lock.Unlock()

	return id, func() { h.unsubscribe(id) }
}

func (h *hookHub) unsubscribe(id string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for i, s := range h.subscribers {
		if s.id == id {
			h.subscribers = append(h.subscribers[:i:i], h.subscribers[i+1:]...)
			return
		}
	}
}

func (h *hookHub) notify(kinds UpdateKind) {
	if kinds == 0 {
		return
	}

	h.lock.Lock()
	h.pending |= kinds
	h.lock.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *hookHub) close() {
	h.closeOnce.Do(func() {
		close(h.quit)
		<-h.done
	})
}

func (h *hookHub) dispatch() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			return
		case <-h.wake:
		}

		h.lock.Lock()
		kinds := h.pending
		h.pending = 0
		subscribers := make([]hookSubscriber, len(h.subscribers))
		copy(subscribers, h.subscribers)
		h.lock.Unlock()

		if kinds == 0 || len(subscribers) <= 0 {
			continue
		}

		update := Update{Kinds: kinds, Snapshot: h.snapshot()}
		for _, s := range subscribers {
			s.handler(update)
		}
	}
}
