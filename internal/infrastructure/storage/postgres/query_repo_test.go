package postgres

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/internal/domain/filter"
)

const (
	joinPeriodData = "LEFT JOIN location_period_data lpd ON l.location_id = lpd.location_id"
	joinPeriods    = "LEFT JOIN data_periods dp ON lpd.period_id = dp.period_id"
	joinProviders  = "LEFT JOIN providers p ON l.provider_id = p.provider_id"
	joinBrands     = "LEFT JOIN brands b ON p.brand_id = b.brand_id"
	joinFlags      = "LEFT JOIN location_activity_flags laf ON l.location_id = laf.location_id AND lpd.period_id = laf.period_id"
	joinDual       = "LEFT JOIN dual_registrations dr ON l.location_id = dr.location_id AND dp.year = dr.year AND dp.month = dr.month"
)

func compileSpec(t *testing.T, params map[string][]string, filters string, opts filter.Options) filter.QuerySpec {
	t.Helper()
	cat := filter.DefaultCatalog()
	conds, err := filter.NewParser(cat, filter.DefaultLimits()).Parse(filter.RawInput{Params: params, Filters: []byte(filters)})
	require.NoError(t, err)
	if opts.Limit == 0 {
		opts.Limit = 100
	}
	spec, err := filter.NewCompiler(cat, filter.DefaultLimits()).Compile(conds, opts)
	require.NoError(t, err)
	return spec
}

func TestPageQuery_MinMax(t *testing.T) {
	spec := compileSpec(t,
		map[string][]string{"care_homes_beds_min": {"20"}, "care_homes_beds_max": {"100"}}, "",
		filter.Options{Limit: 50, Offset: 50, Fields: []string{"location_id", "care_homes_beds"}})

	sql, args, err := PageQuery(spec).ToSql()
	require.NoError(t, err)

	want := "SELECT l.location_id AS location_id, lpd.care_homes_beds AS care_homes_beds FROM locations l " +
		joinPeriodData + " " + joinPeriods + " " + joinDual +
		" WHERE (lpd.care_homes_beds >= $1 AND lpd.care_homes_beds <= $2)" +
		" ORDER BY l.location_id ASC LIMIT 50 OFFSET 50"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{int64(20), int64(100)}, args)
}

func TestCountQuery_SamePredicateNoPaging(t *testing.T) {
	spec := compileSpec(t, nil,
		`[{"column":"provider_name","value":"HealthCare","operator":"contains","case_sensitive":false}]`,
		filter.Options{Limit: 10, Offset: 20, OrderBy: "location_name", OrderDirection: "DESC"})

	sql, args, err := CountQuery(spec).ToSql()
	require.NoError(t, err)

	want := "SELECT COUNT(*) FROM locations l " +
		joinPeriodData + " " + joinPeriods + " " + joinProviders + " " + joinDual +
		" WHERE (LOWER(p.provider_name) LIKE $1)"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{"%healthcare%"}, args)
}

func TestPageQuery_Operators(t *testing.T) {
	tests := []struct {
		name     string
		filters  string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "eq",
			filters:  `[{"column":"location_city","value":"Leeds"}]`,
			wantSQL:  "WHERE (l.location_city = $1)",
			wantArgs: []any{"Leeds"},
		},
		{
			name:     "eq case-insensitive",
			filters:  `[{"column":"location_city","value":"LEEDS","case_sensitive":false}]`,
			wantSQL:  "WHERE (LOWER(l.location_city) = $1)",
			wantArgs: []any{"leeds"},
		},
		{
			name:     "in",
			filters:  `[{"column":"latest_overall_rating","value":"Outstanding,Good","operator":"in"}]`,
			wantSQL:  "WHERE (lpd.latest_overall_rating IN ($1,$2))",
			wantArgs: []any{"Outstanding", "Good"},
		},
		{
			name:     "not_in",
			filters:  `[{"column":"year","value":[2020,2021],"operator":"not_in"}]`,
			wantSQL:  "WHERE (dp.year NOT IN ($1,$2))",
			wantArgs: []any{int64(2020), int64(2021)},
		},
		{
			name:     "gt float",
			filters:  `[{"column":"location_latitude","value":51.5,"operator":"gt"}]`,
			wantSQL:  "WHERE (l.location_latitude > $1)",
			wantArgs: []any{decimal.RequireFromString("51.5")},
		},
		{
			name:     "lt",
			filters:  `[{"column":"month","value":6,"operator":"lt"}]`,
			wantSQL:  "WHERE (dp.month < $1)",
			wantArgs: []any{int64(6)},
		},
		{
			name:     "starts_with escapes wildcards",
			filters:  `[{"column":"location_name","value":"100%_off\\","operator":"starts_with"}]`,
			wantSQL:  "WHERE (l.location_name LIKE $1)",
			wantArgs: []any{`100\%\_off\\%`},
		},
		{
			name:     "yes/no flag",
			filters:  `[{"column":"is_care_home","value":"true"}]`,
			wantSQL:  "WHERE (lpd.is_care_home = $1)",
			wantArgs: []any{"Y"},
		},
		{
			name:     "computed flag",
			filters:  `[{"column":"is_dual_registered","value":false}]`,
			wantSQL:  "WHERE ((CASE WHEN dr.location_id IS NOT NULL THEN true ELSE false END) = $1)",
			wantArgs: []any{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := compileSpec(t, nil, tt.filters, filter.Options{Fields: []string{"location_id"}})

			sql, args, err := PageQuery(spec).ToSql()
			require.NoError(t, err)

			assert.Contains(t, sql, tt.wantSQL)
			// squirrel unwraps driver.Valuer operands such as decimals
			assert.Equal(t, fmt.Sprint(tt.wantArgs...), fmt.Sprint(args...))
		})
	}
}

func TestPredicate_LogicFlattening(t *testing.T) {
	spec := compileSpec(t, nil, `[
		{"column":"location_city","value":"Leeds"},
		{"column":"location_city","value":"York"},
		{"column":"location_city","value":"Hull"}
	]`, filter.Options{Logic: "OR"})

	sql, args, err := Predicate(spec).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "(l.location_city = ? OR l.location_city = ? OR l.location_city = ?)", sql)
	assert.Equal(t, []any{"Leeds", "York", "Hull"}, args)
	assert.NotContains(t, sql, "AND")
}

func TestPageQuery_JoinRouting(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string][]string
		fields  []string
		want    []string
		notWant []string
	}{
		{
			name:    "static only",
			params:  map[string][]string{"location_city": {"Leeds"}},
			fields:  []string{"location_id"},
			want:    []string{joinPeriodData, joinPeriods, joinDual},
			notWant: []string{joinProviders, joinBrands, joinFlags},
		},
		{
			name:    "brand pulls in providers",
			params:  map[string][]string{"brand_name": {"Acme"}},
			fields:  []string{"location_id"},
			want:    []string{joinProviders, joinBrands},
			notWant: []string{joinFlags},
		},
		{
			name:   "flag in projection only",
			params: map[string][]string{"location_city": {"Leeds"}},
			fields: []string{"location_id", "dementia"},
			want:   []string{joinFlags},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := compileSpec(t, tt.params, "", filter.Options{Fields: tt.fields})
			sql, _, err := PageQuery(spec).ToSql()
			require.NoError(t, err)

			for _, j := range tt.want {
				assert.Contains(t, sql, j)
			}
			for _, j := range tt.notWant {
				assert.NotContains(t, sql, j)
			}
			if strings.Contains(sql, joinBrands) {
				assert.Less(t, strings.Index(sql, joinProviders), strings.Index(sql, joinBrands))
			}
		})
	}
}

func TestPageQuery_OrderTieBreak(t *testing.T) {
	spec := compileSpec(t, map[string][]string{"year": {"2024"}}, "",
		filter.Options{OrderBy: "care_homes_beds", OrderDirection: "desc", Fields: []string{"location_id"}})

	sql, _, err := PageQuery(spec).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "ORDER BY lpd.care_homes_beds DESC, l.location_id ASC LIMIT 100"), sql)
}

func TestPageQuery_DefaultProjection(t *testing.T) {
	spec := compileSpec(t, map[string][]string{"year": {"2024"}}, "", filter.Options{})

	sql, _, err := PageQuery(spec).ToSql()
	require.NoError(t, err)

	for _, col := range filter.DefaultCatalog().List() {
		assert.Contains(t, sql, col.Path()+" AS "+col.Name)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", EscapeLike("plain"))
	assert.Equal(t, `50\%`, EscapeLike("50%"))
	assert.Equal(t, `a\_b`, EscapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, EscapeLike(`c:\dir`))
}

func TestPeriodsQuery(t *testing.T) {
	sql, args, err := PeriodsQuery().ToSql()
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t,
		"SELECT dp.year, dp.month, dp.file_name, COUNT(DISTINCT lpd.location_id) AS location_count "+
			"FROM data_periods dp LEFT JOIN location_period_data lpd ON lpd.period_id = dp.period_id "+
			"GROUP BY dp.period_id, dp.year, dp.month, dp.file_name "+
			"ORDER BY dp.year DESC, dp.month DESC",
		sql)
}
