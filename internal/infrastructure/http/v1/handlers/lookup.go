package handlers

import (
	"github.com/gin-gonic/gin"

	"careindex/internal/core/apperror"
	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/http/v1/dto"
)

// LookupHandler serves the read-only location, provider and period lookups.
type LookupHandler struct {
	*BaseHandler
	service *search.Service
}

// NewLookupHandler creates a lookup handler.
func NewLookupHandler(base *BaseHandler, service *search.Service) *LookupHandler {
	return &LookupHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers lookup routes on the API root group.
func (h *LookupHandler) RegisterRoutes(rg *gin.RouterGroup) {
	locations := rg.Group("/locations")
	{
		locations.GET("/search/nearby", h.Nearby)
		locations.GET("/:id", h.Location)
		locations.GET("/:id/history", h.History)
	}
	rg.GET("/providers/:id", h.Provider)
	rg.GET("/data-periods", h.Periods)
}

// Location returns the latest row for a location.
// GET /api/v1/locations/:id
func (h *LookupHandler) Location(c *gin.Context) {
	rec, err := h.service.Location(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RecordResponse{Status: filter.StatusSuccess, Data: rec})
}

// History returns a location's rows across every period.
// GET /api/v1/locations/:id/history
func (h *LookupHandler) History(c *gin.Context) {
	id := c.Param("id")
	rows, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.HistoryResponse{Status: filter.StatusSuccess, LocationID: id, History: rows})
}

// Nearby lists locations around a point.
// GET /api/v1/locations/search/nearby?latitude=&longitude=&radius_km=&limit=&offset=
func (h *LookupHandler) Nearby(c *gin.Context) {
	var q search.NearbyQuery

	for _, f := range []struct {
		key      string
		dst      *float64
		required bool
	}{
		{"latitude", &q.Latitude, true},
		{"longitude", &q.Longitude, true},
		{"radius_km", &q.RadiusKm, false},
	} {
		v, err := h.ParseFloatQuery(c, f.key)
		if err != nil {
			h.Error(c, err)
			return
		}
		if v == nil {
			if f.required {
				h.Error(c, apperror.NewValidation(f.key+" is required").WithDetail("field", f.key))
				return
			}
			continue
		}
		*f.dst = *v
	}

	limit, err := h.ParseIntQuery(c, filter.ParamLimit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if limit != nil {
		q.Limit = *limit
	}
	offset, err := h.ParseIntQuery(c, filter.ParamOffset)
	if err != nil {
		h.Error(c, err)
		return
	}
	if offset != nil {
		q.Offset = *offset
	}

	env, err := h.service.Nearby(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, env)
}

// Provider returns a provider's details.
// GET /api/v1/providers/:id
func (h *LookupHandler) Provider(c *gin.Context) {
	rec, err := h.service.Provider(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RecordResponse{Status: filter.StatusSuccess, Data: rec})
}

// Periods lists the imported data periods, newest first.
// GET /api/v1/data-periods
func (h *LookupHandler) Periods(c *gin.Context) {
	periods, err := h.service.Periods(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PeriodsResponse{Status: filter.StatusSuccess, DataPeriods: periods})
}
