package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"careindex/internal/core/apperror"
)

// DefaultOrderColumn keeps pagination stable when no order is requested.
const DefaultOrderColumn = "location_id"

// Options carries everything besides conditions that shapes a query.
type Options struct {
	Logic          string
	OrderBy        string
	OrderDirection string
	Limit          int
	Offset         int
	// Fields is the projection; empty means every catalog column.
	Fields []string
}

// QuerySpec fully determines the page query and the count query.
// The count query uses only Conditions and Logic.
type QuerySpec struct {
	Conditions []Condition
	Logic      Logic
	OrderBy    Column
	Direction  Direction
	Limit      int
	Offset     int
	Fields     []Column
}

// Tables returns every table alias referenced by the spec's conditions,
// order and projection, without duplicates, in first-use order.
func (q QuerySpec) Tables() []Table {
	seen := map[Table]struct{}{}
	var out []Table
	add := func(t Table) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, c := range q.Conditions {
		add(c.Column.Table)
	}
	if q.OrderBy.Name != "" {
		add(q.OrderBy.Table)
	}
	for _, f := range q.Fields {
		add(f.Table)
	}
	return out
}

// Compiler validates conditions and options against the catalog.
type Compiler struct {
	catalog *Catalog
	limits  Limits
}

// NewCompiler creates a compiler bound to a catalog.
func NewCompiler(catalog *Catalog, limits Limits) *Compiler {
	return &Compiler{catalog: catalog, limits: limits}
}

// Compile builds a QuerySpec. Case-insensitive text operands are folded to
// lower case here; executors compare them against the lower-cased column.
func (c *Compiler) Compile(conds []Condition, opts Options) (QuerySpec, error) {
	if len(conds) == 0 {
		return QuerySpec{}, apperror.NewNoConditions()
	}
	if len(conds) > c.limits.MaxConditions {
		return QuerySpec{}, apperror.NewParseError(ParamFilters,
			fmt.Sprintf("too many conditions: %d, max %d", len(conds), c.limits.MaxConditions))
	}

	logic, err := ParseLogic(opts.Logic)
	if err != nil {
		return QuerySpec{}, apperror.NewValidation(err.Error()).WithDetail("field", ParamLogic)
	}
	direction, err := ParseDirection(opts.OrderDirection)
	if err != nil {
		return QuerySpec{}, apperror.NewValidation(err.Error()).WithDetail("field", ParamOrderDirection)
	}

	if opts.Limit < 1 || opts.Limit > c.limits.MaxLimit {
		return QuerySpec{}, apperror.NewInvalidPagination(ParamLimit, opts.Limit,
			fmt.Sprintf("must be between 1 and %d", c.limits.MaxLimit))
	}
	if opts.Offset < 0 {
		return QuerySpec{}, apperror.NewInvalidPagination(ParamOffset, opts.Offset, "must not be negative")
	}

	orderName := opts.OrderBy
	if orderName == "" {
		orderName = DefaultOrderColumn
	}
	orderBy, err := c.catalog.Resolve(orderName)
	if err != nil {
		return QuerySpec{}, err
	}

	fields, err := c.projection(opts.Fields)
	if err != nil {
		return QuerySpec{}, err
	}

	out := make([]Condition, 0, len(conds))
	for _, cond := range conds {
		checked, err := c.check(cond)
		if err != nil {
			return QuerySpec{}, err
		}
		out = append(out, checked)
	}

	return QuerySpec{
		Conditions: out,
		Logic:      logic,
		OrderBy:    orderBy,
		Direction:  direction,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
		Fields:     fields,
	}, nil
}

func (c *Compiler) projection(names []string) ([]Column, error) {
	if len(names) == 0 {
		return c.catalog.List(), nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]Column, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		col, err := c.catalog.Resolve(name)
		if err != nil {
			return nil, err
		}
		seen[name] = struct{}{}
		out = append(out, col)
	}
	if len(out) == 0 {
		return c.catalog.List(), nil
	}
	return out, nil
}

// check re-validates a condition against the catalog and returns a copy
// ready for execution. Conditions are never modified in place.
func (c *Compiler) check(cond Condition) (Condition, error) {
	col, err := c.catalog.Resolve(cond.Column.Name)
	if err != nil {
		return Condition{}, err
	}
	if !col.Allows(cond.Operator) {
		return Condition{}, apperror.NewUnsupportedOperator(col.Name, string(cond.Operator))
	}

	out := Condition{
		Column:        col,
		Operator:      cond.Operator,
		CaseSensitive: cond.CaseSensitive || col.Type != TypeString,
	}

	if cond.Operator.IsList() {
		if len(cond.Values) == 0 {
			return Condition{}, apperror.NewParseError(col.Name, "list must not be empty")
		}
		out.Values = make([]any, len(cond.Values))
		for i, v := range cond.Values {
			if err := checkType(col, v); err != nil {
				return Condition{}, apperror.NewParseError(col.Name, err.Error())
			}
			out.Values[i] = fold(v, out.CaseSensitive)
		}
		return out, nil
	}

	if err := checkType(col, cond.Value); err != nil {
		return Condition{}, apperror.NewParseError(col.Name, err.Error())
	}
	out.Value = fold(cond.Value, out.CaseSensitive)
	return out, nil
}

func fold(v any, caseSensitive bool) any {
	if s, ok := v.(string); ok && !caseSensitive {
		return strings.ToLower(s)
	}
	return v
}

func checkType(col Column, v any) error {
	ok := false
	switch col.Type {
	case TypeString:
		_, ok = v.(string)
	case TypeInteger:
		_, ok = v.(int64)
	case TypeFloat:
		_, ok = v.(decimal.Decimal)
	case TypeDate:
		_, ok = v.(time.Time)
	case TypeFlag:
		if col.Flag == FlagYesNo {
			s, isStr := v.(string)
			ok = isStr && (s == "Y" || s == "N")
		} else {
			_, ok = v.(bool)
		}
	}
	if !ok {
		return fmt.Errorf("operand %v does not match column type %s", v, col.Type)
	}
	return nil
}
