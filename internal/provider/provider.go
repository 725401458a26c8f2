// Package provider defines the data-provider boundary: an opaque query/publish
// capability over signed events, implemented by concrete backends.
package provider

import (
	"context"

	"github.com/blobbi/island/internal/event"
)

// Provider is the network capability the session layer depends on. Both
// operations must honor context deadlines; a timed-out query is a transient
// failure, not fatal.
type Provider interface {
	// QueryLatest returns the latest event per document identifier for the
	// given kind and author identity.
	QueryLatest(ctx context.Context, kind int, author string) ([]event.Event, error)

	// Publish writes a full replacement record for a logical document.
	Publish(ctx context.Context, ev event.Event) error
}
