package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/internal/core/apperror"
	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/storage/memory"
)

func newService(t *testing.T, repo search.Repository) *search.Service {
	t.Helper()
	svc, err := search.NewService(search.ServiceConfig{
		Limits: filter.DefaultLimits(),
		Repo:   repo,
	})
	require.NoError(t, err)
	return svc
}

func seededStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	records := make([]filter.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, filter.Record{
			"location_id":     fmt.Sprintf("1-%09d", i),
			"provider_name":   "Example HEALTHCARE Provider",
			"care_homes_beds": int64(i % 120),
			"year":            int64(2024),
		})
	}
	store, err := memory.NewStore(records)
	require.NoError(t, err)
	return store
}

func intPtr(v int) *int { return &v }

func TestService_Search(t *testing.T) {
	svc := newService(t, seededStore(t, 1250))

	env, err := svc.Search(context.Background(), search.Request{
		Params: map[string][]string{"year": {"2024"}},
		Limit:  intPtr(50),
		Offset: 50,
		Fields: []string{"location_id"},
	})
	require.NoError(t, err)

	assert.Equal(t, filter.StatusSuccess, env.Status)
	assert.Len(t, env.Data, 50)
	assert.Equal(t, int64(1250), env.Pagination.TotalCount)
	assert.Equal(t, 2, env.Pagination.CurrentPage)
	assert.Equal(t, int64(25), env.Pagination.TotalPages)
	assert.Equal(t, filter.FiltersApplied{Conditions: 1, Logic: filter.And}, env.FiltersApplied)
}

func TestService_DefaultLimit(t *testing.T) {
	svc := newService(t, seededStore(t, 250))

	env, err := svc.Search(context.Background(), search.Request{Params: map[string][]string{"year": {"2024"}}})
	require.NoError(t, err)
	assert.Equal(t, 100, env.Pagination.Limit)
	assert.Len(t, env.Data, 100)
}

func TestService_MinMax(t *testing.T) {
	svc := newService(t, seededStore(t, 120))

	env, err := svc.Search(context.Background(), search.Request{
		Params: map[string][]string{"care_homes_beds_min": {"20"}, "care_homes_beds_max": {"100"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(81), env.Pagination.TotalCount)
	assert.Equal(t, 2, env.FiltersApplied.Conditions)
}

func TestService_EmptyResult(t *testing.T) {
	svc := newService(t, seededStore(t, 3))

	env, err := svc.Search(context.Background(), search.Request{
		Filters: []byte(`[{"column":"year","value":1999}]`),
	})
	require.NoError(t, err)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
	assert.Equal(t, int64(0), env.Pagination.TotalPages)
}

func TestService_NoConditions(t *testing.T) {
	repo := &countingRepo{}
	svc := newService(t, repo)

	_, err := svc.Search(context.Background(), search.Request{Limit: intPtr(10)})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNoConditions))
	assert.Zero(t, repo.calls, "storage must not be touched")
}

func TestService_ExecutorFailureSurfaces(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newService(t, &countingRepo{err: boom})

	_, err := svc.Search(context.Background(), search.Request{Params: map[string][]string{"year": {"2024"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
}

func TestService_SkipsPageWhenCountIsZero(t *testing.T) {
	repo := &countingRepo{}
	svc := newService(t, repo)

	_, err := svc.Search(context.Background(), search.Request{Params: map[string][]string{"year": {"2024"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestService_UsesReadOnlyUnit(t *testing.T) {
	txm := &recordingTx{}
	svc, err := search.NewService(search.ServiceConfig{
		Limits:    filter.DefaultLimits(),
		Repo:      seededStore(t, 1),
		TxManager: txm,
	})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), search.Request{Params: map[string][]string{"year": {"2024"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, txm.calls)
}

func TestNewService_Validates(t *testing.T) {
	_, err := search.NewService(search.ServiceConfig{Limits: filter.DefaultLimits()})
	assert.Error(t, err)

	_, err = search.NewService(search.ServiceConfig{Limits: filter.Limits{}, Repo: &countingRepo{}})
	assert.Error(t, err)
}

type countingRepo struct {
	calls int
	err   error
}

func (r *countingRepo) Count(context.Context, filter.QuerySpec) (int64, error) {
	r.calls++
	return 0, r.err
}

func (r *countingRepo) Find(context.Context, filter.QuerySpec) ([]filter.Record, error) {
	r.calls++
	return nil, r.err
}

type recordingTx struct{ calls int }

func (m *recordingTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}
