package coordinatorclient

import "errors"

var (
	// ErrMissingURL ...
	ErrMissingURL = errors.New("coordinator url must not be empty")
	// ErrMalformedResponse is returned if the body can't be parsed
	ErrMalformedResponse = errors.New("malformed coordinator response")
	// ErrBadStatus is returned for any non 2xx response
	ErrBadStatus = errors.New("unexpected response status")
)
