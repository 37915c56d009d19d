// Package sequence issues the per-tenant, per-year ticket display numbers.
// Concurrent callers against the same counter are serialized by an
// exclusive row lock held for the whole read-increment-write section, so
// values within a year come out strictly increasing and gapless.
package sequence

import (
	"context"
	"errors"
	"fmt"
)

// ErrAllocation wraps counter-store failures, typically a lock wait that
// exceeded the surrounding transaction's timeout. The allocator never
// retries internally; the caller retries the entire ticket creation.
var ErrAllocation = errors.New("sequence allocation failed")

// CounterStore advances a tenant's counter for the given year and returns
// the resulting value. Implementations must serialize concurrent callers
// against the same counter and reset the counter when the year changes.
type CounterStore interface {
	NextValue(ctx context.Context, tenantID string, year int) (int64, error)
}

// Allocator produces formatted ticket numbers from a counter store.
type Allocator struct {
	store CounterStore
}

// New builds an allocator over the given store.
func New(store CounterStore) *Allocator {
	return &Allocator{store: store}
}

// Next returns the next sequence value and its display form for the
// tenant and year.
func (a *Allocator) Next(ctx context.Context, tenantID string, year int) (int64, string, error) {
	value, err := a.store.NextValue(ctx, tenantID, year)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	return value, Format(year, value), nil
}

// Format renders a display number, e.g. TKT-202500042. Padding only pads
// up to five digits; larger values are never truncated.
func Format(year int, value int64) string {
	return fmt.Sprintf("TKT-%04d%05d", year, value)
}
