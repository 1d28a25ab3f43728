// Package memory executes compiled filter queries against records held in
// process. It backs tests and the fixture-driven development mode.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
)

var (
	_ search.Repository   = (*Store)(nil)
	_ search.PeriodLister = (*Store)(nil)
)

// Store is a search.Repository over an in-memory record set.
// The record set is fixed at construction, so reads need no locking.
type Store struct {
	env     *cel.Env
	records []filter.Record
}

// NewStore creates a store holding records. Records are keyed by logical
// column name with values already typed (see Load).
func NewStore(records []filter.Record) (*Store, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	return &Store{env: env, records: records}, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Count implements search.Repository.
func (s *Store) Count(ctx context.Context, spec filter.QuerySpec) (int64, error) {
	matched, err := s.match(ctx, spec)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Find implements search.Repository.
func (s *Store) Find(ctx context.Context, spec filter.QuerySpec) ([]filter.Record, error) {
	matched, err := s.match(ctx, spec)
	if err != nil {
		return nil, err
	}

	order := spec.OrderBy.Name
	desc := spec.Direction == filter.Desc
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareNullable(matched[i][order], matched[j][order])
		if desc {
			return c > 0
		}
		return c < 0
	})

	if spec.Offset >= len(matched) {
		return []filter.Record{}, nil
	}
	end := spec.Offset + spec.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]filter.Record, 0, end-spec.Offset)
	for _, rec := range matched[spec.Offset:end] {
		page = append(page, project(rec, spec.Fields))
	}
	return page, nil
}

// Periods implements search.PeriodLister. Records without a year or month
// belong to no period.
func (s *Store) Periods(ctx context.Context) ([]search.Period, error) {
	type key struct {
		year, month int64
		file        string
		hasFile     bool
	}
	seen := map[key]map[any]struct{}{}
	var order []key

	for i, rec := range s.records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		year, ok1 := rec["year"].(int64)
		month, ok2 := rec["month"].(int64)
		if !ok1 || !ok2 {
			continue
		}
		k := key{year: year, month: month}
		k.file, k.hasFile = rec["file_name"].(string)

		locs, ok := seen[k]
		if !ok {
			locs = map[any]struct{}{}
			seen[k] = locs
			order = append(order, k)
		}
		if id := rec["location_id"]; id != nil {
			locs[id] = struct{}{}
		}
	}

	out := make([]search.Period, 0, len(order))
	for _, k := range order {
		p := search.Period{Year: int(k.year), Month: int(k.month), LocationCount: int64(len(seen[k]))}
		if k.hasFile {
			file := k.file
			p.FileName = &file
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) match(ctx context.Context, spec filter.QuerySpec) ([]filter.Record, error) {
	pred, err := compilePredicate(s.env, spec)
	if err != nil {
		return nil, err
	}

	var out []filter.Record
	for i, rec := range s.records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ok, err := pred.match(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// project copies the requested fields; absent fields come back as nil like
// a LEFT JOIN miss would.
func project(rec filter.Record, fields []filter.Column) filter.Record {
	out := make(filter.Record, len(fields))
	for _, f := range fields {
		out[f.Name] = rec[f.Name]
	}
	return out
}

// compareNullable treats nil as the greatest value, which yields
// PostgreSQL's NULLS LAST for ASC and NULLS FIRST for DESC.
func compareNullable(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return compare(a, b)
}

func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
