package pubsub

import "errors"

var (
	// ErrMissingTopic ...
	ErrMissingTopic = errors.New("missing topic")
	// ErrInvalidEndpoint is returned if the webhook endpoint is not a valid
	// absolute url.
	ErrInvalidEndpoint = errors.New("invalid webhook endpoint, must be a valid URI")
	// ErrSubscriptionNotFound ...
	ErrSubscriptionNotFound = errors.New("webhook not found")
	// ErrInvalidTopic is returned whenever attempting to subscribe to an unknown
	// topic.
	ErrInvalidTopic = errors.New("topic is invalid")
	// ErrDeliveryRejected is returned if a webhook endpoint answers with a
	// non 2xx status.
	ErrDeliveryRejected = errors.New("webhook rejected delivery with status")
)
