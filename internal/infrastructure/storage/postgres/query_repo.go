package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgtype"

	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
)

var (
	_ search.Repository   = (*QueryRepo)(nil)
	_ search.PeriodLister = (*QueryRepo)(nil)
)

// joinOrder lists every joinable table with its join clause, in the order
// the clauses must appear. Brands hang off providers.
var joinOrder = []struct {
	table  filter.Table
	clause string
	needs  filter.Table
}{
	{filter.TablePeriodData, "location_period_data lpd ON l.location_id = lpd.location_id", ""},
	{filter.TableDataPeriods, "data_periods dp ON lpd.period_id = dp.period_id", ""},
	{filter.TableProviders, "providers p ON l.provider_id = p.provider_id", ""},
	{filter.TableBrands, "brands b ON p.brand_id = b.brand_id", filter.TableProviders},
	{filter.TableActivityFlags, "location_activity_flags laf ON l.location_id = laf.location_id AND lpd.period_id = laf.period_id", ""},
	{filter.TableDualRegistrations, "dual_registrations dr ON l.location_id = dr.location_id AND dp.year = dr.year AND dp.month = dr.month", ""},
}

// rowDefining tables are always joined: they decide how many rows a
// location contributes, so pruning them would change counts.
var rowDefining = map[filter.Table]bool{
	filter.TablePeriodData:        true,
	filter.TableDataPeriods:       true,
	filter.TableDualRegistrations: true,
}

// QueryRepo translates QuerySpecs into SQL over the CQC schema.
type QueryRepo struct {
	txm *TxManager
}

// NewQueryRepo creates the PostgreSQL executor.
func NewQueryRepo(txm *TxManager) *QueryRepo {
	return &QueryRepo{txm: txm}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Ping checks database connectivity.
func (r *QueryRepo) Ping(ctx context.Context) error {
	var one int
	return r.txm.GetQuerier(ctx).QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Count implements search.Repository.
func (r *QueryRepo) Count(ctx context.Context, spec filter.QuerySpec) (int64, error) {
	sql, args, err := CountQuery(spec).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

// Find implements search.Repository.
func (r *QueryRepo) Find(ctx context.Context, spec filter.QuerySpec) ([]filter.Record, error) {
	sql, args, err := PageQuery(spec).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []map[string]any
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	out := make([]filter.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row, spec.Fields))
	}
	return out, nil
}

// Periods implements search.PeriodLister.
func (r *QueryRepo) Periods(ctx context.Context) ([]search.Period, error) {
	sql, args, err := PeriodsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build periods query: %w", err)
	}

	var periods []search.Period
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &periods, sql, args...); err != nil {
		return nil, fmt.Errorf("select periods: %w", err)
	}
	return periods, nil
}

// PeriodsQuery lists every data period with its distinct location count.
// Periods with no imported rows report zero.
func PeriodsQuery() squirrel.SelectBuilder {
	return Builder().
		Select("dp.year", "dp.month", "dp.file_name", "COUNT(DISTINCT lpd.location_id) AS location_count").
		From("data_periods dp").
		LeftJoin("location_period_data lpd ON lpd.period_id = dp.period_id").
		GroupBy("dp.period_id", "dp.year", "dp.month", "dp.file_name").
		OrderBy("dp.year DESC", "dp.month DESC")
}

// CountQuery builds the COUNT(*) variant: same joins and predicate, no
// ordering or pagination.
func CountQuery(spec filter.QuerySpec) squirrel.SelectBuilder {
	tables := make([]filter.Table, 0, len(spec.Conditions))
	for _, c := range spec.Conditions {
		tables = append(tables, c.Column.Table)
	}
	q := withJoins(Builder().Select("COUNT(*)").From("locations l"), tables)
	return q.Where(Predicate(spec))
}

// PageQuery builds the projected, ordered and paginated select.
func PageQuery(spec filter.QuerySpec) squirrel.SelectBuilder {
	cols := make([]string, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		cols = append(cols, f.Path()+" AS "+f.Name)
	}

	q := withJoins(Builder().Select(cols...).From("locations l"), spec.Tables())
	q = q.Where(Predicate(spec))

	q = q.OrderBy(fmt.Sprintf("%s %s", spec.OrderBy.Path(), spec.Direction))
	if spec.OrderBy.Name != filter.DefaultOrderColumn {
		q = q.OrderBy("l.location_id ASC")
	}

	q = q.Limit(uint64(spec.Limit))
	if spec.Offset > 0 {
		q = q.Offset(uint64(spec.Offset))
	}
	return q
}

func withJoins(q squirrel.SelectBuilder, referenced []filter.Table) squirrel.SelectBuilder {
	need := make(map[filter.Table]bool, len(referenced))
	for _, t := range referenced {
		need[t] = true
	}
	for _, j := range joinOrder {
		if j.needs != "" && need[j.table] {
			need[j.needs] = true
		}
	}
	for _, j := range joinOrder {
		if rowDefining[j.table] || need[j.table] {
			q = q.LeftJoin(j.clause)
		}
	}
	return q
}

// Predicate combines all conditions under the spec's single logic operator.
func Predicate(spec filter.QuerySpec) squirrel.Sqlizer {
	parts := make([]squirrel.Sqlizer, 0, len(spec.Conditions))
	for _, c := range spec.Conditions {
		parts = append(parts, conditionSQL(c))
	}
	if spec.Logic == filter.Or {
		return squirrel.Or(parts)
	}
	return squirrel.And(parts)
}

// conditionSQL renders one condition. Operands of case-insensitive
// conditions arrive already lower-cased, so only the column side is folded.
func conditionSQL(c filter.Condition) squirrel.Sqlizer {
	lhs := c.Column.Path()
	if !c.CaseSensitive {
		lhs = "LOWER(" + lhs + ")"
	}

	switch c.Operator {
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{lhs: c.Value}
	case filter.LessOrEqual:
		return squirrel.LtOrEq{lhs: c.Value}
	case filter.Greater:
		return squirrel.Gt{lhs: c.Value}
	case filter.Less:
		return squirrel.Lt{lhs: c.Value}
	case filter.InList:
		return squirrel.Eq{lhs: c.Values}
	case filter.NotInList:
		return squirrel.NotEq{lhs: c.Values}
	case filter.Contains:
		return squirrel.Like{lhs: "%" + EscapeLike(c.Value.(string)) + "%"}
	case filter.StartsWith:
		return squirrel.Like{lhs: EscapeLike(c.Value.(string)) + "%"}
	default:
		return squirrel.Eq{lhs: c.Value}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern using
// PostgreSQL's default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// toRecord keys a scanned row by logical name and converts driver types
// into JSON-friendly values.
func toRecord(row map[string]any, fields []filter.Column) filter.Record {
	rec := make(filter.Record, len(fields))
	for _, f := range fields {
		v := row[f.Name]
		switch t := v.(type) {
		case pgtype.Numeric:
			if fv, err := t.Float64Value(); err == nil && fv.Valid {
				v = fv.Float64
			} else {
				v = nil
			}
		case time.Time:
			if f.Type == filter.TypeDate {
				v = t.Format(filter.DateLayout)
			}
		}
		rec[f.Name] = v
	}
	return rec
}
