// Package search runs a filter request end to end: parse, compile, count,
// fetch the page and assemble the envelope.
package search

import (
	"context"

	"careindex/internal/domain/filter"
)

// Repository executes a compiled QuerySpec against a store.
// Implementations must apply the same predicate and joins to both calls.
type Repository interface {
	// Count returns the number of rows matching the spec's conditions.
	// Ordering and pagination are ignored.
	Count(ctx context.Context, spec filter.QuerySpec) (int64, error)

	// Find returns one ordered page of rows, keyed by logical column name
	// and restricted to spec.Fields.
	Find(ctx context.Context, spec filter.QuerySpec) ([]filter.Record, error)
}

// Pinger is implemented by repositories that can report store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Period summarizes one imported monthly snapshot.
type Period struct {
	Year          int     `db:"year" json:"year"`
	Month         int     `db:"month" json:"month"`
	MonthName     string  `db:"-" json:"month_name"`
	FileName      *string `db:"file_name" json:"file_name"`
	LocationCount int64   `db:"location_count" json:"location_count"`
}

// PeriodLister is implemented by repositories that can list the imported
// periods with the number of locations each one holds.
type PeriodLister interface {
	Periods(ctx context.Context) ([]Period, error)
}
