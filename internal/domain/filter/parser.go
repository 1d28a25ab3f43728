package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careindex/internal/core/apperror"
)

// Limits bounds a single request. Supplied by configuration at construction.
type Limits struct {
	DefaultLimit  int
	MaxLimit      int
	MaxConditions int
}

// DefaultLimits returns the stock bounds.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: 100, MaxLimit: 1000, MaxConditions: 50}
}

// Validate checks that the limits are usable.
func (l Limits) Validate() error {
	if l.MaxLimit < 1 {
		return fmt.Errorf("max limit must be positive, got %d", l.MaxLimit)
	}
	if l.DefaultLimit < 1 || l.DefaultLimit > l.MaxLimit {
		return fmt.Errorf("default limit %d outside [1, %d]", l.DefaultLimit, l.MaxLimit)
	}
	if l.MaxConditions < 1 {
		return fmt.Errorf("max conditions must be positive, got %d", l.MaxConditions)
	}
	return nil
}

// Reserved parameter names that are never treated as column filters.
const (
	ParamFilters        = "filters"
	ParamLogic          = "logic"
	ParamLimit          = "limit"
	ParamOffset         = "offset"
	ParamOrderBy        = "order_by"
	ParamOrderDirection = "order_direction"
	ParamFields         = "fields"
)

var reservedParams = map[string]struct{}{
	ParamFilters: {}, ParamLogic: {}, ParamLimit: {}, ParamOffset: {},
	ParamOrderBy: {}, ParamOrderDirection: {}, ParamFields: {},
}

// IsReserved reports whether name is a control parameter.
func IsReserved(name string) bool {
	_, ok := reservedParams[name]
	return ok
}

const (
	suffixMin = "_min"
	suffixMax = "_max"
)

// containsParams are flat parameters documented as case-insensitive
// substring searches rather than exact matches.
var containsParams = map[string]struct{}{
	"location_name": {},
	"provider_name": {},
}

// RawInput is the request as decoded by the transport.
type RawInput struct {
	// Params are flat query parameters keyed by name. Reserved names are ignored.
	Params map[string][]string
	// Filters is the JSON-encoded array of Spec, possibly empty.
	Filters []byte
}

// Spec is one element of the JSON filters array.
type Spec struct {
	Column        string          `json:"column"`
	Value         json.RawMessage `json:"value"`
	Operator      string          `json:"operator"`
	CaseSensitive *bool           `json:"case_sensitive,omitempty"`
}

// Condition is a validated, typed (column, operator, operand) triple.
// Value holds the operand for scalar operators and Values for in/not_in.
type Condition struct {
	Column        Column
	Operator      Operator
	Value         any
	Values        []any
	CaseSensitive bool
}

// Parser normalizes raw input into conditions. Safe for concurrent use.
type Parser struct {
	catalog *Catalog
	limits  Limits
}

// NewParser creates a parser bound to a catalog.
func NewParser(catalog *Catalog, limits Limits) *Parser {
	return &Parser{catalog: catalog, limits: limits}
}

// Parse returns flat-parameter conditions first (in catalog order), followed
// by JSON filters in array order. The whole input is rejected on the first
// invalid entry.
func (p *Parser) Parse(raw RawInput) ([]Condition, error) {
	flat, err := p.parseParams(raw.Params)
	if err != nil {
		return nil, err
	}

	specs, err := DecodeSpecs(raw.Filters)
	if err != nil {
		return nil, err
	}
	if len(flat)+len(specs) > p.limits.MaxConditions {
		return nil, apperror.NewParseError(ParamFilters,
			fmt.Sprintf("too many conditions: %d, max %d", len(flat)+len(specs), p.limits.MaxConditions))
	}

	conds := flat
	for _, s := range specs {
		c, err := p.parseSpec(s)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}

	if len(conds) == 0 {
		return nil, apperror.NewNoConditions()
	}
	return conds, nil
}

// DecodeSpecs decodes the JSON filters array. Empty input and null yield no specs.
func DecodeSpecs(data []byte) ([]Spec, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, apperror.NewParseError(ParamFilters, "expected a JSON array of conditions").WithCause(err)
	}
	return specs, nil
}

func (p *Parser) parseSpec(s Spec) (Condition, error) {
	col, err := p.catalog.Resolve(s.Column)
	if err != nil {
		return Condition{}, err
	}
	op, ok := ParseOperator(s.Operator)
	if !ok {
		return Condition{}, apperror.NewUnsupportedOperator(col.Name, s.Operator)
	}
	if len(bytes.TrimSpace(s.Value)) == 0 {
		return Condition{}, apperror.NewParseError(col.Name, "value is required")
	}
	operand, err := DecodeOperand(s.Value)
	if err != nil {
		return Condition{}, apperror.NewParseError(col.Name, err.Error())
	}

	caseSensitive := true
	if s.CaseSensitive != nil {
		caseSensitive = *s.CaseSensitive
	}
	return newCondition(col, op, operand, caseSensitive)
}

func (p *Parser) parseParams(params map[string][]string) ([]Condition, error) {
	if len(params) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	// Values are collected per target column, then emitted in catalog order.
	base := map[string]string{}
	mins := map[string]string{}
	maxs := map[string]string{}

	for _, name := range names {
		if IsReserved(name) {
			continue
		}

		target, bucket := name, base
		if !p.catalog.Has(name) {
			switch {
			case strings.HasSuffix(name, suffixMin):
				target, bucket = strings.TrimSuffix(name, suffixMin), mins
			case strings.HasSuffix(name, suffixMax):
				target, bucket = strings.TrimSuffix(name, suffixMax), maxs
			default:
				return nil, apperror.NewUnknownColumn(name)
			}
			col, err := p.catalog.Resolve(target)
			if err != nil || !col.Type.Ordered() {
				return nil, apperror.NewUnknownColumn(name)
			}
		}

		col, _ := p.catalog.Resolve(target)
		value, err := flatValue(name, col, params[name])
		if err != nil {
			return nil, err
		}
		bucket[target] = value
	}

	var conds []Condition
	for _, col := range p.catalog.columns {
		if v, ok := base[col.Name]; ok {
			c, err := flatCondition(col, v)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		if v, ok := mins[col.Name]; ok {
			c, err := newCondition(col, GreaterOrEqual, StringOperand(v), true)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		if v, ok := maxs[col.Name]; ok {
			c, err := newCondition(col, LessOrEqual, StringOperand(v), true)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
	}
	return conds, nil
}

// flatValue collapses repeated occurrences of a parameter. Repeats of a
// list-capable parameter are joined with commas; flags and range bounds
// take exactly one value.
func flatValue(name string, col Column, values []string) (string, error) {
	if len(values) == 0 {
		return "", apperror.NewParseError(name, "value is required")
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return "", apperror.NewParseError(name, "value is required")
		}
	}
	if len(values) > 1 {
		if col.Type == TypeFlag || name != col.Name {
			return "", apperror.NewParseError(name, "expected a single value")
		}
		return strings.Join(values, ","), nil
	}
	return values[0], nil
}

// flatCondition applies the by-name operator convention.
func flatCondition(col Column, value string) (Condition, error) {
	if _, ok := containsParams[col.Name]; ok {
		return newCondition(col, Contains, StringOperand(value), false)
	}
	if col.Type != TypeFlag && strings.Contains(value, ",") {
		return newCondition(col, InList, StringOperand(value), true)
	}
	return newCondition(col, Equal, StringOperand(value), true)
}
