package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
)

type stubRepo struct{ err error }

func (s stubRepo) Count(context.Context, filter.QuerySpec) (int64, error) { return 3, s.err }
func (s stubRepo) Find(context.Context, filter.QuerySpec) ([]filter.Record, error) {
	return []filter.Record{{}}, s.err
}

type periodRepo struct{ stubRepo }

func (periodRepo) Periods(context.Context) ([]search.Period, error) {
	return []search.Period{{Year: 2024, Month: 3, LocationCount: 2}}, nil
}

func TestObserveFilter(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFilter("success", 3)
	m.ObserveFilter("success", 1)
	m.ObserveFilter("UNKNOWN_COLUMN", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilterOutcomes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilterOutcomes.WithLabelValues("UNKNOWN_COLUMN")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FilterConditions))
}

func TestInstrumentRepository(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	repo := m.InstrumentRepository(stubRepo{})
	n, err := repo.Count(context.Background(), filter.QuerySpec{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = repo.Find(context.Background(), filter.QuerySpec{})
	require.NoError(t, err)

	failing := m.InstrumentRepository(stubRepo{err: errors.New("boom")})
	_, err = failing.Count(context.Background(), filter.QuerySpec{})
	assert.Error(t, err)

	assert.Equal(t, 3, testutil.CollectAndCount(m.QueryDuration))
}

func TestInstrumentRepository_Periods(t *testing.T) {
	m := New(prometheus.NewRegistry())

	lister, ok := m.InstrumentRepository(periodRepo{}).(search.PeriodLister)
	require.True(t, ok)
	periods, err := lister.Periods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Period{{Year: 2024, Month: 3, LocationCount: 2}}, periods)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryDuration.WithLabelValues("periods", "ok")))

	unsupported := m.InstrumentRepository(stubRepo{}).(search.PeriodLister)
	_, err = unsupported.Periods(context.Background())
	assert.Error(t, err)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
