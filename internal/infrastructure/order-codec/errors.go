package ordercodec

import "errors"

var (
	// ErrNullEvent ...
	ErrNullEvent = errors.New("event must not be null")
	// ErrInvalidKind is returned for events that are not order advertisements
	ErrInvalidKind = errors.New("event is not an order")
	// ErrUnknownAuthor is returned for events not signed by a known coordinator
	ErrUnknownAuthor = errors.New("event author is not a known coordinator")
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("event has invalid id or signature")
	// ErrMissingIdentifier is returned for events without d tag
	ErrMissingIdentifier = errors.New("event is missing the d tag")
	// ErrForeignIdentifier is returned if the d tag is not an order key of
	// the signing coordinator
	ErrForeignIdentifier = errors.New("d tag does not belong to the event author")
	// ErrIdentifierMismatch is returned if source and d tag carry different
	// order ids
	ErrIdentifierMismatch = errors.New("source and d tag order ids differ")
	// ErrUnknownCurrency is returned if the f tag is missing or unknown
	ErrUnknownCurrency = errors.New("unknown order currency")
	// ErrMissingOrderID is returned if the order id can't be determined
	ErrMissingOrderID = errors.New("d tag carries no valid order id")
	// ErrInvalidTag is returned if some tag can't be parsed
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidGeohash ...
	ErrInvalidGeohash = errors.New("invalid geohash")
)
