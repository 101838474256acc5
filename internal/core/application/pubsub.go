package application

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

// Topics returns the labels of the federation changes that can be
// subscribed to with a PubSub service.
func Topics() []string {
	labels := make([]string, 0, len(updateKindLabels))
	for _, l := range updateKindLabels {
		labels = append(labels, l.label)
	}
	return labels
}

type updateMessage struct {
	Topic      string      `json:"topic"`
	Version    uint64      `json:"version"`
	Connection string      `json:"connection"`
	Loading    bool        `json:"loading"`
	Data       interface{} `json:"data,omitempty"`
}

// NewUpdatePublisher forwards every federation update to the given pubsub
// service, one message per changed topic. The returned func stops it.
func NewUpdatePublisher(f *Federation, pubsub ports.PubSub) func() {
	if pubsub == nil {
		return func() {}
	}

	_, unsubscribe := f.Subscribe(func(u Update) {
		for _, topic := range u.Kinds.Labels() {
			message, err := newUpdateMessage(f, topic, u)
			if err != nil {
				log.WithError(err).Warn("failed to serialize federation update")
				continue
			}
			if err := pubsub.Publish(topic, message); err != nil {
				log.WithError(err).WithField("topic", topic).Warn(
					"failed to publish federation update",
				)
			}
		}
	})
	return unsubscribe
}

func newUpdateMessage(f *Federation, topic string, u Update) (string, error) {
	msg := updateMessage{Topic: topic}
	if u.Snapshot != nil {
		msg.Version = u.Snapshot.Version
		msg.Connection = string(u.Snapshot.Connection)
		msg.Loading = u.Snapshot.Loading
	}

	switch topic {
	case "book":
		msg.Data = u.Snapshot.Orders()
	case "exchange", "info":
		if u.Snapshot != nil {
			msg.Data = u.Snapshot.Exchange
		}
	case "limits":
		msg.Data = f.Limits()
	case "coordinators":
		enabled := make(map[string]bool)
		for _, c := range f.Coordinators() {
			enabled[c.ShortAlias()] = c.IsEnabled()
		}
		msg.Data = enabled
	}

	buf, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s update: %w", topic, err)
	}
	return string(buf), nil
}
