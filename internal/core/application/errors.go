package application

import "errors"

var (
	// ErrNullCoordinatorClient ...
	ErrNullCoordinatorClient = errors.New("coordinator client must not be null")
	// ErrNullRelayPool ...
	ErrNullRelayPool = errors.New("relay pool must not be null")
	// ErrNullOrderDecoder ...
	ErrNullOrderDecoder = errors.New("order decoder must not be null")
	// ErrDuplicatedCoordinator is returned if two manifest entries share the
	// same short alias
	ErrDuplicatedCoordinator = errors.New("duplicated coordinator short alias")
	// ErrCoordinatorNotFound ...
	ErrCoordinatorNotFound = errors.New("coordinator not found")
	// ErrFederationStarted ...
	ErrFederationStarted = errors.New("federation is already started")
	// ErrFederationNotStarted ...
	ErrFederationNotStarted = errors.New("federation is not started")
)
