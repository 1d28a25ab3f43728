package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/shopspring/decimal"

	"careindex/internal/domain/filter"
)

// newEnv declares a record as `row` and the bound operands as `p`.
// string.fold() lower-cases with the same Unicode mapping the compiler
// applies to case-insensitive operands.
func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("p", cel.ListType(cel.DynType)),
		cel.Function("fold",
			cel.MemberOverload("string_fold", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(fold),
			),
		),
	)
}

func fold(v ref.Val) ref.Val {
	s, ok := v.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(v)
	}
	return types.String(strings.ToLower(string(s)))
}

// predicate is a compiled QuerySpec predicate with its operands.
type predicate struct {
	expr   string
	prg    cel.Program
	params []any
}

// compilePredicate renders the spec's conditions as one CEL expression.
// Operands never appear in the source text; they are bound through p.
func compilePredicate(env *cel.Env, spec filter.QuerySpec) (*predicate, error) {
	var (
		terms  = make([]string, 0, len(spec.Conditions))
		params = make([]any, 0, len(spec.Conditions))
	)
	for _, c := range spec.Conditions {
		term, err := conditionExpr(c, len(params))
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		params = append(params, operand(c))
	}

	joiner := " && "
	if spec.Logic == filter.Or {
		joiner = " || "
	}
	expr := strings.Join(terms, joiner)

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program construction: %w", err)
	}
	return &predicate{expr: expr, prg: prg, params: params}, nil
}

// match evaluates the predicate against one record.
func (p *predicate) match(rec filter.Record) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"row": map[string]any(rec),
		"p":   p.params,
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("predicate returned %T, want bool", out.Value())
	}
	return b, nil
}

// conditionExpr builds one term. Missing and null fields never match,
// mirroring SQL three-valued logic.
func conditionExpr(c filter.Condition, idx int) (string, error) {
	field := fmt.Sprintf("row[%q]", c.Column.Name)
	lhs := field
	if !c.CaseSensitive {
		lhs = field + ".fold()"
	}
	arg := fmt.Sprintf("p[%d]", idx)

	var cmp string
	switch c.Operator {
	case filter.Equal:
		cmp = lhs + " == " + arg
	case filter.Greater:
		cmp = lhs + " > " + arg
	case filter.GreaterOrEqual:
		cmp = lhs + " >= " + arg
	case filter.Less:
		cmp = lhs + " < " + arg
	case filter.LessOrEqual:
		cmp = lhs + " <= " + arg
	case filter.InList:
		cmp = lhs + " in " + arg
	case filter.NotInList:
		cmp = "!(" + lhs + " in " + arg + ")"
	case filter.Contains:
		cmp = lhs + ".contains(" + arg + ")"
	case filter.StartsWith:
		cmp = lhs + ".startsWith(" + arg + ")"
	default:
		return "", fmt.Errorf("operator %q has no memory translation", c.Operator)
	}
	return fmt.Sprintf("(%q in row && %s != null && %s)", c.Column.Name, field, cmp), nil
}

func operand(c filter.Condition) any {
	if c.Operator.IsList() {
		out := make([]any, len(c.Values))
		for i, v := range c.Values {
			out[i] = native(v)
		}
		return out
	}
	return native(c.Value)
}

// native maps operand values onto types the CEL adapter understands.
func native(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case time.Time:
		return t.UTC()
	}
	return v
}
