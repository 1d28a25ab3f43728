package v1_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/internal/infrastructure/http/v1/dto"
)

func TestLocation(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/api/v1/locations/1-000000001", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got dto.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "Rose Court", got.Data["location_name"])

	w = do(router, http.MethodGet, "/api/v1/locations/1-000000009", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "1-000000009", body.Details["id"])
}

func TestLocationHistory(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/api/v1/locations/1-000000002/history", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got dto.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "1-000000002", got.LocationID)
	require.Len(t, got.History, 1)
	assert.Equal(t, "March", got.History[0]["month_name"])
	assert.Equal(t, "Outstanding", got.History[0]["latest_overall_rating"])

	w = do(router, http.MethodGet, "/api/v1/locations/1-000000009/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNearby(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/api/v1/locations/search/nearby?latitude=53.80&longitude=-1.55&radius_km=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "1-000000001", env.Data[0]["location_id"])
	assert.Equal(t, 50, env.Pagination.Limit)

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"missing longitude", "/api/v1/locations/search/nearby?latitude=53.8", "VALIDATION_ERROR"},
		{"latitude not a number", "/api/v1/locations/search/nearby?latitude=north&longitude=0", "VALIDATION_ERROR"},
		{"radius too large", "/api/v1/locations/search/nearby?latitude=53.8&longitude=-1.5&radius_km=500", "VALIDATION_ERROR"},
		{"malformed limit", "/api/v1/locations/search/nearby?latitude=53.8&longitude=-1.5&limit=all", "INVALID_PAGINATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestProvider(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/api/v1/providers/1-100000002", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got dto.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Coastal Care Ltd", got.Data["provider_name"])
	assert.NotContains(t, got.Data, "location_name")

	w = do(router, http.MethodGet, "/api/v1/providers/1-199999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDataPeriods(t *testing.T) {
	router, reg := newRouter(t)

	w := do(router, http.MethodGet, "/api/v1/data-periods", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got dto.PeriodsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	require.Len(t, got.DataPeriods, 1)
	assert.Equal(t, "March", got.DataPeriods[0].MonthName)
	assert.Equal(t, int64(2), got.DataPeriods[0].LocationCount)

	families, err := reg.Gather()
	require.NoError(t, err)
	var sawPeriods bool
	for _, mf := range families {
		if mf.GetName() != "careindex_query_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == "periods" {
					sawPeriods = true
				}
			}
		}
	}
	assert.True(t, sawPeriods)
}
