package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"careindex/internal/core/apperror"
)

// DateLayout is the accepted textual form of date operands.
const DateLayout = "2006-01-02"

// OperandKind tags the shape of a client-supplied value.
type OperandKind uint8

const (
	OperandString OperandKind = iota + 1
	OperandNumber
	OperandBool
	OperandList
)

func (k OperandKind) String() string {
	switch k {
	case OperandString:
		return "string"
	case OperandNumber:
		return "number"
	case OperandBool:
		return "boolean"
	case OperandList:
		return "list"
	}
	return "unknown"
}

// Operand is an untyped value as received from a client, before it is
// coerced to a column type. Exactly one of the payload fields is meaningful,
// selected by Kind. List elements are never lists themselves.
type Operand struct {
	Kind OperandKind
	Str  string
	Num  json.Number
	Bool bool
	List []Operand
}

// StringOperand wraps a raw string, as produced by flat query parameters.
func StringOperand(s string) Operand {
	return Operand{Kind: OperandString, Str: s}
}

// DecodeOperand decodes a JSON value into an Operand.
// null, objects and nested arrays are rejected.
func DecodeOperand(raw json.RawMessage) (Operand, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Operand{}, fmt.Errorf("malformed value: %w", err)
	}
	return operandFrom(v, true)
}

func operandFrom(v any, allowList bool) (Operand, error) {
	switch t := v.(type) {
	case string:
		return Operand{Kind: OperandString, Str: t}, nil
	case json.Number:
		return Operand{Kind: OperandNumber, Num: t}, nil
	case bool:
		return Operand{Kind: OperandBool, Bool: t}, nil
	case []any:
		if !allowList {
			return Operand{}, fmt.Errorf("nested lists are not allowed")
		}
		items := make([]Operand, 0, len(t))
		for _, item := range t {
			o, err := operandFrom(item, false)
			if err != nil {
				return Operand{}, err
			}
			items = append(items, o)
		}
		return Operand{Kind: OperandList, List: items}, nil
	case nil:
		return Operand{}, fmt.Errorf("value is required")
	default:
		return Operand{}, fmt.Errorf("unsupported value of type %T", v)
	}
}

// text returns the literal text of a scalar operand.
func (o Operand) text() string {
	switch o.Kind {
	case OperandString:
		return o.Str
	case OperandNumber:
		return o.Num.String()
	case OperandBool:
		return strconv.FormatBool(o.Bool)
	}
	return ""
}

// newCondition coerces o against col for op. All failures are AppErrors
// attributed to the column.
func newCondition(col Column, op Operator, o Operand, caseSensitive bool) (Condition, error) {
	if !col.Allows(op) {
		return Condition{}, apperror.NewUnsupportedOperator(col.Name, string(op))
	}
	if col.Type != TypeString {
		// Case folding is only defined for text.
		caseSensitive = true
	}

	cond := Condition{Column: col, Operator: op, CaseSensitive: caseSensitive}

	if op.IsList() {
		items, err := listItems(o)
		if err != nil {
			return Condition{}, apperror.NewParseError(col.Name, err.Error())
		}
		cond.Values = make([]any, 0, len(items))
		for _, item := range items {
			v, err := coerce(col, item)
			if err != nil {
				return Condition{}, apperror.NewParseError(col.Name, err.Error())
			}
			cond.Values = append(cond.Values, v)
		}
		return cond, nil
	}

	if o.Kind == OperandList {
		return Condition{}, apperror.NewParseError(col.Name,
			fmt.Sprintf("list value requires operator %s or %s, got %s", InList, NotInList, op))
	}
	v, err := coerce(col, o)
	if err != nil {
		return Condition{}, apperror.NewParseError(col.Name, err.Error())
	}
	if op.IsPattern() && v.(string) == "" {
		return Condition{}, apperror.NewParseError(col.Name, "pattern must not be empty")
	}
	cond.Value = v
	return cond, nil
}

// listItems expands a list operand. A string is split on commas; any other
// scalar becomes a single-element list.
func listItems(o Operand) ([]Operand, error) {
	var items []Operand
	switch o.Kind {
	case OperandList:
		items = o.List
	case OperandString:
		for _, part := range strings.Split(o.Str, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, fmt.Errorf("empty element in list %q", o.Str)
			}
			items = append(items, StringOperand(part))
		}
	default:
		items = []Operand{o}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}
	return items, nil
}

// coerce converts a scalar operand to the column's Go representation:
// string, int64, decimal.Decimal, time.Time, bool, or "Y"/"N".
func coerce(col Column, o Operand) (any, error) {
	switch col.Type {
	case TypeString:
		if o.Kind == OperandBool {
			return nil, fmt.Errorf("expected text, got boolean")
		}
		return o.text(), nil

	case TypeInteger:
		if o.Kind == OperandBool {
			return nil, fmt.Errorf("expected integer, got boolean")
		}
		n, err := strconv.ParseInt(strings.TrimSpace(o.text()), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", o.text())
		}
		return n, nil

	case TypeFloat:
		if o.Kind == OperandBool {
			return nil, fmt.Errorf("expected number, got boolean")
		}
		d, err := decimal.NewFromString(strings.TrimSpace(o.text()))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", o.text())
		}
		return d, nil

	case TypeDate:
		if o.Kind != OperandString {
			return nil, fmt.Errorf("expected date as %s, got %s", DateLayout, o.Kind)
		}
		t, err := time.Parse(DateLayout, strings.TrimSpace(o.Str))
		if err != nil {
			return nil, fmt.Errorf("%q is not a date (%s)", o.Str, DateLayout)
		}
		return t, nil

	case TypeFlag:
		var b bool
		switch {
		case o.Kind == OperandBool:
			b = o.Bool
		case o.Kind == OperandString && strings.EqualFold(strings.TrimSpace(o.Str), "true"):
			b = true
		case o.Kind == OperandString && strings.EqualFold(strings.TrimSpace(o.Str), "false"):
			b = false
		default:
			return nil, fmt.Errorf("expected true or false, got %q", o.text())
		}
		if col.Flag == FlagYesNo {
			if b {
				return "Y", nil
			}
			return "N", nil
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}
