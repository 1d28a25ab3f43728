// Package filter turns untrusted, loosely typed filter input into a validated
// query description over the fixed CQC location catalog.
//
// The pipeline is Parse (raw input to conditions), Compile (conditions plus
// logic, ordering and pagination to a QuerySpec) and Assemble (rows plus count
// to the response envelope). Executing a QuerySpec is left to a storage
// backend. Every type here is immutable once built and safe to share.
package filter

import (
	"fmt"
	"strings"
)

// Operator is the closed set of comparisons a condition may use.
type Operator string

const (
	Equal          Operator = "eq"
	Greater        Operator = "gt"
	GreaterOrEqual Operator = "gte"
	Less           Operator = "lt"
	LessOrEqual    Operator = "lte"
	InList         Operator = "in"
	NotInList      Operator = "not_in"

	// Contains and StartsWith treat the operand as a literal substring.
	// Executors that implement them with pattern matching (LIKE) must escape
	// wildcard metacharacters in the operand first.
	Contains   Operator = "contains"
	StartsWith Operator = "starts_with"
)

// operatorOrder fixes bit positions in OperatorSet and the discovery order.
var operatorOrder = []Operator{
	Equal, Contains, StartsWith,
	Greater, GreaterOrEqual, Less, LessOrEqual,
	InList, NotInList,
}

var operatorDescriptions = map[Operator]string{
	Equal:          "Exact match (=)",
	Contains:       "Contains substring (LIKE %value%)",
	StartsWith:     "Starts with (LIKE value%)",
	Greater:        "Greater than (>)",
	GreaterOrEqual: "Greater than or equal (>=)",
	Less:           "Less than (<)",
	LessOrEqual:    "Less than or equal (<=)",
	InList:         "In list (value1,value2,value3)",
	NotInList:      "Not in list (NOT IN)",
}

// Operators returns every operator in a stable order.
func Operators() []Operator {
	out := make([]Operator, len(operatorOrder))
	copy(out, operatorOrder)
	return out
}

// ParseOperator maps a client spelling to an Operator.
// An empty spelling and the legacy "equals" both mean Equal.
func ParseOperator(s string) (Operator, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "equals":
		return Equal, true
	}
	op := Operator(s)
	if _, ok := operatorDescriptions[op]; ok {
		return op, true
	}
	return "", false
}

// Description returns a human readable summary used by discovery.
func (o Operator) Description() string {
	return operatorDescriptions[o]
}

// IsList reports whether the operator takes a list operand.
func (o Operator) IsList() bool {
	return o == InList || o == NotInList
}

// IsPattern reports whether the operator is a substring match.
func (o Operator) IsPattern() bool {
	return o == Contains || o == StartsWith
}

// OperatorSet is an immutable set of operators.
type OperatorSet uint16

// NewOperatorSet builds a set from the given operators.
func NewOperatorSet(ops ...Operator) OperatorSet {
	var s OperatorSet
	for _, op := range ops {
		for i, known := range operatorOrder {
			if known == op {
				s |= 1 << i
			}
		}
	}
	return s
}

// Has reports membership.
func (s OperatorSet) Has(op Operator) bool {
	for i, known := range operatorOrder {
		if known == op {
			return s&(1<<i) != 0
		}
	}
	return false
}

// List returns members in discovery order.
func (s OperatorSet) List() []Operator {
	out := make([]Operator, 0, len(operatorOrder))
	for i, op := range operatorOrder {
		if s&(1<<i) != 0 {
			out = append(out, op)
		}
	}
	return out
}

// ValueType is the declared type of a catalog column.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeFlag    ValueType = "boolean_flag"
	TypeDate    ValueType = "date"
)

// ValueTypes returns every value type in a stable order.
func ValueTypes() []ValueType {
	return []ValueType{TypeString, TypeInteger, TypeFloat, TypeFlag, TypeDate}
}

// DefaultOperators is the operator set a column of this type gets.
func (t ValueType) DefaultOperators() OperatorSet {
	switch t {
	case TypeString:
		return NewOperatorSet(Equal, Contains, StartsWith, InList, NotInList)
	case TypeInteger, TypeFloat, TypeDate:
		return NewOperatorSet(Equal, Greater, GreaterOrEqual, Less, LessOrEqual, InList, NotInList)
	case TypeFlag:
		return NewOperatorSet(Equal)
	}
	return 0
}

// Ordered reports whether values of this type support range comparison.
func (t ValueType) Ordered() bool {
	return t == TypeInteger || t == TypeFloat || t == TypeDate
}

// Logic is the single flat combinator applied across all conditions.
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// ParseLogic accepts AND/OR in any case. Empty means AND.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	}
	return "", fmt.Errorf("logic must be AND or OR, got %q", s)
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts ASC/DESC in any case. Empty means ASC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return "", fmt.Errorf("order_direction must be ASC or DESC, got %q", s)
}

// Record is one result row keyed by logical column name.
type Record map[string]any
