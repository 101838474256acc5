package domain

import "errors"

var (
	// ErrOrderMissingAmount is returned if a non ranged order has no amount
	ErrOrderMissingAmount = errors.New("order must have an amount if it has no range")
	// ErrOrderMissingRange is returned if a ranged order lacks one bound
	ErrOrderMissingRange = errors.New("ranged order must have both min and max amount")
	// ErrOrderRangeWithAmount is returned if a ranged order also has an amount
	ErrOrderRangeWithAmount = errors.New("ranged order must not have an amount")
	// ErrOrderInvalidRange is returned if min amount is greater than max amount
	ErrOrderInvalidRange = errors.New("order min amount must not exceed max amount")
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("network must be either mainnet or testnet")
	// ErrUnknownOrigin ...
	ErrUnknownOrigin = errors.New("origin must be one of clearnet, onion or i2p")
	// ErrUnknownConnection ...
	ErrUnknownConnection = errors.New("connection must be either api or nostr")
	// ErrMissingShortAlias is returned by a manifest entry without alias
	ErrMissingShortAlias = errors.New("coordinator must have a short alias")
)
