package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/internal/core/apperror"
)

func newTestCompiler() *Compiler {
	return NewCompiler(DefaultCatalog(), DefaultLimits())
}

func mustParse(t *testing.T, raw RawInput) []Condition {
	t.Helper()
	conds, err := newTestParser().Parse(raw)
	require.NoError(t, err)
	return conds
}

func TestCompile_Defaults(t *testing.T) {
	conds := mustParse(t, RawInput{Params: params("year", "2024")})

	spec, err := newTestCompiler().Compile(conds, Options{Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, And, spec.Logic)
	assert.Equal(t, Asc, spec.Direction)
	assert.Equal(t, DefaultOrderColumn, spec.OrderBy.Name)
	assert.Equal(t, 100, spec.Limit)
	assert.Equal(t, 0, spec.Offset)
	assert.Len(t, spec.Fields, DefaultCatalog().Len())
}

func TestCompile_LogicFlattening(t *testing.T) {
	conds := mustParse(t, RawInput{Filters: []byte(`[
		{"column":"location_city","value":"Leeds"},
		{"column":"location_city","value":"York"},
		{"column":"location_city","value":"Hull"}
	]`)})

	spec, err := newTestCompiler().Compile(conds, Options{Logic: "or", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, Or, spec.Logic)
	assert.Len(t, spec.Conditions, 3)
}

func TestCompile_MinMaxStayAnded(t *testing.T) {
	conds := mustParse(t, RawInput{Params: params("care_homes_beds_min", "20", "care_homes_beds_max", "100")})

	spec, err := newTestCompiler().Compile(conds, Options{Limit: 10})
	require.NoError(t, err)

	require.Len(t, spec.Conditions, 2)
	assert.Equal(t, And, spec.Logic)
	assert.Equal(t, GreaterOrEqual, spec.Conditions[0].Operator)
	assert.Equal(t, LessOrEqual, spec.Conditions[1].Operator)
}

func TestCompile_FoldsCaseInsensitiveOperands(t *testing.T) {
	conds := mustParse(t, RawInput{Filters: []byte(`[
		{"column":"provider_name","value":"HealthCare","operator":"contains","case_sensitive":false},
		{"column":"location_region","value":["London","KENT"],"operator":"in","case_sensitive":false},
		{"column":"location_city","value":"Leeds","operator":"eq"}
	]`)})

	spec, err := newTestCompiler().Compile(conds, Options{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "healthcare", spec.Conditions[0].Value)
	assert.Equal(t, []any{"london", "kent"}, spec.Conditions[1].Values)
	assert.Equal(t, "Leeds", spec.Conditions[2].Value)

	// input conditions are untouched
	assert.Equal(t, "HealthCare", conds[0].Value)
	assert.Equal(t, []any{"London", "KENT"}, conds[1].Values)
}

func TestCompile_Idempotent(t *testing.T) {
	raw := RawInput{
		Params:  params("latest_overall_rating", "Outstanding,Good", "care_homes_beds_min", "20"),
		Filters: []byte(`[{"column":"provider_name","value":"care","operator":"contains","case_sensitive":false}]`),
	}
	opts := Options{Logic: "AND", OrderBy: "location_name", OrderDirection: "desc", Limit: 50, Offset: 50, Fields: []string{"location_id", "location_name"}}

	first, err := newTestCompiler().Compile(mustParse(t, raw), opts)
	require.NoError(t, err)
	second, err := newTestCompiler().Compile(mustParse(t, raw), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompile_Errors(t *testing.T) {
	conds := mustParse(t, RawInput{Params: params("year", "2024")})

	tests := []struct {
		name     string
		opts     Options
		wantCode string
	}{
		{"zero limit", Options{Limit: 0}, apperror.CodeInvalidPagination},
		{"limit over max", Options{Limit: 1001}, apperror.CodeInvalidPagination},
		{"negative offset", Options{Limit: 10, Offset: -1}, apperror.CodeInvalidPagination},
		{"unknown order_by", Options{Limit: 10, OrderBy: "salary"}, apperror.CodeUnknownColumn},
		{"unknown field", Options{Limit: 10, Fields: []string{"location_id", "salary"}}, apperror.CodeUnknownColumn},
		{"bad logic", Options{Limit: 10, Logic: "XOR"}, apperror.CodeValidation},
		{"bad direction", Options{Limit: 10, OrderDirection: "sideways"}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestCompiler().Compile(conds, tt.opts)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestCompile_RejectsHandBuiltConditions(t *testing.T) {
	cat := DefaultCatalog()
	year, _ := cat.Resolve("year")
	city, _ := cat.Resolve("location_city")

	tests := []struct {
		name     string
		cond     Condition
		wantCode string
	}{
		{"uncataloged column", Condition{Column: Column{Name: "ghost"}, Operator: Equal, Value: "x"}, apperror.CodeUnknownColumn},
		{"operator not allowed", Condition{Column: year, Operator: Contains, Value: "20"}, apperror.CodeUnsupportedOperator},
		{"operand type mismatch", Condition{Column: year, Operator: Equal, Value: "2024"}, apperror.CodeParse},
		{"empty list", Condition{Column: city, Operator: InList}, apperror.CodeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestCompiler().Compile([]Condition{tt.cond}, Options{Limit: 10})
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestCompile_OperatorTypeMatrix(t *testing.T) {
	cat := DefaultCatalog()
	samples := map[ValueType]string{
		TypeString:  "location_city",
		TypeInteger: "care_homes_beds",
		TypeFloat:   "location_latitude",
		TypeDate:    "publication_date",
		TypeFlag:    "dementia",
	}

	for vt, name := range samples {
		col, err := cat.Resolve(name)
		require.NoError(t, err)
		for _, op := range Operators() {
			if vt.DefaultOperators().Has(op) {
				continue
			}
			_, err := newTestCompiler().Compile([]Condition{{Column: col, Operator: op, Value: "x", Values: []any{"x"}}}, Options{Limit: 10})
			require.Error(t, err, "%s %s", vt, op)
			assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedOperator), "%s %s", vt, op)
		}
	}
}

func TestCompile_NoConditions(t *testing.T) {
	_, err := newTestCompiler().Compile(nil, Options{Limit: 10})
	assert.True(t, apperror.HasCode(err, apperror.CodeNoConditions))
}

func TestQuerySpec_Tables(t *testing.T) {
	conds := mustParse(t, RawInput{Params: params("brand_name", "Acme", "year", "2024")})

	spec, err := newTestCompiler().Compile(conds, Options{Limit: 10, Fields: []string{"location_id", "provider_name"}})
	require.NoError(t, err)

	assert.ElementsMatch(t, []Table{TableBrands, TableDataPeriods, TableLocations, TableProviders}, spec.Tables())
}
