package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"careindex/internal/core/apperror"
	"careindex/internal/domain/filter"
)

// HistoryFields is the projection of one location_history row.
var HistoryFields = []string{
	"year", "month", "file_name",
	"location_name", "latest_overall_rating",
	"is_dormant", "is_care_home", "care_homes_beds",
	"provider_id", "location_region", "location_local_authority",
}

// Nearby bounds. The box is an approximation: one degree of latitude is
// taken as 111 km everywhere.
const (
	DefaultRadiusKm = 10.0
	MinRadiusKm     = 1.0
	MaxRadiusKm     = 100.0
	DefaultNearby   = 50
	MaxNearby       = 500

	kmPerDegree = 111.0
)

// NearbyQuery asks for locations inside a box around a point.
// Zero RadiusKm and Limit take the defaults.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
	Offset    int
}

// Location returns the latest period's row for a location.
func (s *Service) Location(ctx context.Context, id string) (filter.Record, error) {
	rows, err := s.locationRows(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("location", id)
	}
	return rows[0], nil
}

// History returns one row per period for a location, newest first.
func (s *Service) History(ctx context.Context, id string) ([]filter.Record, error) {
	rows, err := s.locationRows(ctx, id, HistoryFields)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("location", id)
	}
	for _, row := range rows {
		row["month_name"] = monthName(toInt(row["month"]))
	}
	return rows, nil
}

func (s *Service) locationRows(ctx context.Context, id string, fields []string) ([]filter.Record, error) {
	filters, err := equals("location_id", id)
	if err != nil {
		return nil, err
	}
	limit := s.limits.MaxLimit
	env, err := s.Search(ctx, Request{
		Filters:        filters,
		OrderBy:        "year",
		OrderDirection: string(filter.Desc),
		Limit:          &limit,
		Fields:         fields,
	})
	if err != nil {
		return nil, err
	}

	rows := env.Data
	sort.SliceStable(rows, func(i, j int) bool {
		yi, yj := toInt(rows[i]["year"]), toInt(rows[j]["year"])
		if yi != yj {
			return yi > yj
		}
		return toInt(rows[i]["month"]) > toInt(rows[j]["month"])
	})
	return rows, nil
}

// Provider returns the provider and brand columns for a provider id.
func (s *Service) Provider(ctx context.Context, id string) (filter.Record, error) {
	filters, err := equals("provider_id", id)
	if err != nil {
		return nil, err
	}

	var fields []string
	for _, col := range s.catalog.List() {
		if col.Category == filter.CategoryProvider || col.Category == filter.CategoryBrand {
			fields = append(fields, col.Name)
		}
	}

	one := 1
	env, err := s.Search(ctx, Request{Filters: filters, Limit: &one, Fields: fields})
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, apperror.NewNotFound("provider", id)
	}
	return env.Data[0], nil
}

// Nearby returns locations whose coordinates fall inside the bounding box
// of the query's radius. Locations without coordinates never match.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) (filter.Envelope, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.Limit == 0 {
		q.Limit = DefaultNearby
	}
	if err := q.validate(); err != nil {
		return filter.Envelope{}, err
	}

	latDelta := q.RadiusKm / kmPerDegree
	specs := []filter.Spec{
		number("location_latitude", filter.GreaterOrEqual, q.Latitude-latDelta),
		number("location_latitude", filter.LessOrEqual, q.Latitude+latDelta),
	}
	// Near the poles the box spans every longitude.
	if cos := math.Cos(q.Latitude * math.Pi / 180); cos > 1e-6 {
		lngDelta := q.RadiusKm / (kmPerDegree * cos)
		if lngDelta < 180 {
			specs = append(specs,
				number("location_longitude", filter.GreaterOrEqual, q.Longitude-lngDelta),
				number("location_longitude", filter.LessOrEqual, q.Longitude+lngDelta),
			)
		}
	}

	filters, err := json.Marshal(specs)
	if err != nil {
		return filter.Envelope{}, fmt.Errorf("encode nearby filters: %w", err)
	}
	limit := q.Limit
	return s.Search(ctx, Request{Filters: filters, Limit: &limit, Offset: q.Offset})
}

func (q NearbyQuery) validate() error {
	switch {
	case math.IsNaN(q.Latitude) || q.Latitude < -90 || q.Latitude > 90:
		return apperror.NewValidation("latitude must be between -90 and 90").WithDetail("field", "latitude")
	case math.IsNaN(q.Longitude) || q.Longitude < -180 || q.Longitude > 180:
		return apperror.NewValidation("longitude must be between -180 and 180").WithDetail("field", "longitude")
	case math.IsNaN(q.RadiusKm) || q.RadiusKm < MinRadiusKm || q.RadiusKm > MaxRadiusKm:
		return apperror.NewValidation(fmt.Sprintf("radius_km must be between %g and %g", MinRadiusKm, MaxRadiusKm)).
			WithDetail("field", "radius_km")
	case q.Limit < 1 || q.Limit > MaxNearby:
		return apperror.NewInvalidPagination("limit", q.Limit, fmt.Sprintf("must be between 1 and %d", MaxNearby))
	case q.Offset < 0:
		return apperror.NewInvalidPagination("offset", q.Offset, "must not be negative")
	}
	return nil
}

// Periods lists every imported period, newest first.
func (s *Service) Periods(ctx context.Context) ([]Period, error) {
	lister, ok := s.repo.(PeriodLister)
	if !ok {
		return nil, apperror.NewInternal(errors.New("store cannot list data periods"))
	}

	var periods []Period
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		periods, err = lister.Periods(ctx)
		return err
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewDatabase(err)
	}

	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year > periods[j].Year
		}
		return periods[i].Month > periods[j].Month
	})
	for i := range periods {
		periods[i].MonthName = monthName(periods[i].Month)
	}
	if periods == nil {
		periods = []Period{}
	}
	return periods, nil
}

// equals builds a JSON filters array holding one case-sensitive equality.
// Going through JSON keeps commas in the id from splitting it into a list.
func equals(column, value string) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	yes := true
	return json.Marshal([]filter.Spec{{
		Column:        column,
		Operator:      string(filter.Equal),
		Value:         raw,
		CaseSensitive: &yes,
	}})
}

func number(column string, op filter.Operator, v float64) filter.Spec {
	raw, _ := json.Marshal(v)
	return filter.Spec{Column: column, Operator: string(op), Value: raw}
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
