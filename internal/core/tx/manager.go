// Package tx provides transaction management abstractions.
// The domain depends on these interfaces; the pgx implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// ReadOnlyManager runs a unit of read-only work.
// Both queries issued inside fn observe the same snapshot, so a count and
// the page it describes cannot disagree.
type ReadOnlyManager interface {
	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop runs fn directly. Used by storage backends without transactions.
type Nop struct{}

// ReadOnly implements ReadOnlyManager.
func (Nop) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
