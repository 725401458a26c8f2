package errs

import "fmt"

// NotFoundError reports a missing entity by kind and identifier.
type NotFoundError struct {
	Entity string // "pet" or "profile"
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s", e.Entity, ErrNotFound)
	}
	return fmt.Sprintf("%s %q %s", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientInventoryError carries the shortfall for a rejected consumption.
type InsufficientInventoryError struct {
	ItemID string
	Want   int
	Have   int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: item %q want %d have %d", ErrInsufficientInventory, e.ItemID, e.Want, e.Have)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// Shortfall returns how many items were missing.
func (e *InsufficientInventoryError) Shortfall() int { return e.Want - e.Have }

// InsufficientFundsError carries cost and balance for a rejected purchase.
type InsufficientFundsError struct {
	Cost    int
	Balance int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: cost %d balance %d", ErrInsufficientFunds, e.Cost, e.Balance)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// UnknownItemError names the item that could not be resolved.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownItem, e.ItemID)
}

func (e *UnknownItemError) Unwrap() error { return ErrUnknownItem }

// PublishFailedError wraps the provider failure that triggered a rollback.
type PublishFailedError struct {
	Cause error
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPublishFailed, e.Cause)
}

func (e *PublishFailedError) Unwrap() error { return ErrPublishFailed }
