// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across provider/session layers.
var (
	// ErrNotLoggedIn indicates no identity is available; actions fail fast.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotFound indicates the referenced pet or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientInventory indicates requested consumption exceeds tracked quantity.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrInsufficientFunds indicates a purchase cost exceeds available coins.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownItem indicates an item identifier absent from the effect tables/catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrPublishFailed indicates the data provider rejected or timed out a write.
	ErrPublishFailed = errors.New("publish failed")

	// ErrParse indicates a malformed record (dropped from result sets, diagnostics only).
	ErrParse = errors.New("parse error")

	// ErrRateLimited indicates a publish was temporarily blocked by the relay.
	ErrRateLimited = errors.New("rate limited")
)
