package handlers

import (
	"github.com/gin-gonic/gin"

	"careindex/internal/core/apperror"
	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/http/v1/dto"
	"careindex/internal/infrastructure/metrics"
	"careindex/internal/metadata"
)

// FilterHandler serves the filtering and discovery endpoints.
type FilterHandler struct {
	*BaseHandler
	service  *search.Service
	registry *metadata.Registry
	metrics  *metrics.Metrics // optional
}

// NewFilterHandler creates a filter handler. m may be nil.
func NewFilterHandler(base *BaseHandler, service *search.Service, registry *metadata.Registry, m *metrics.Metrics) *FilterHandler {
	return &FilterHandler{
		BaseHandler: base,
		service:     service,
		registry:    registry,
		metrics:     m,
	}
}

// RegisterRoutes registers filter routes on the given group.
func (h *FilterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/filter-data", h.FilterData)
	rg.POST("/filter-data", h.FilterDataBody)
	rg.GET("/available-columns", h.AvailableColumns)
	rg.GET("/available-columns/:name", h.Column)
	rg.GET("/operators", h.Operators)
}

// FilterData filters by flat query parameters and an optional JSON
// "filters" parameter.
// GET /api/v1/filter/filter-data
func (h *FilterHandler) FilterData(c *gin.Context) {
	req, err := search.ParseQuery(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.run(c, req)
}

// FilterDataBody filters by a JSON request body.
// POST /api/v1/filter/filter-data
func (h *FilterHandler) FilterDataBody(c *gin.Context) {
	var body dto.FilterRequest
	if !h.BindJSON(c, &body) {
		h.observe(apperror.CodeValidation, 0)
		return
	}

	req := search.Request{
		Filters:        body.Filters,
		Logic:          body.Logic,
		OrderBy:        body.OrderBy,
		OrderDirection: body.OrderDirection,
		Limit:          body.Limit,
		Fields:         body.Fields,
	}
	if body.Offset != nil {
		req.Offset = *body.Offset
	}

	h.run(c, req)
}

func (h *FilterHandler) run(c *gin.Context, req search.Request) {
	env, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.observe("success", env.FiltersApplied.Conditions)
	h.OK(c, env)
}

func (h *FilterHandler) fail(c *gin.Context, err error) {
	outcome := apperror.CodeInternal
	if appErr, ok := apperror.AsAppError(err); ok {
		outcome = appErr.Code
	}
	h.observe(outcome, 0)
	h.Error(c, err)
}

func (h *FilterHandler) observe(outcome string, conditions int) {
	if h.metrics != nil {
		h.metrics.ObserveFilter(outcome, conditions)
	}
}

// AvailableColumns lists every filterable column.
// GET /api/v1/filter/available-columns
func (h *FilterHandler) AvailableColumns(c *gin.Context) {
	h.OK(c, h.registry.Columns())
}

// Column describes one filterable column.
// GET /api/v1/filter/available-columns/:name
func (h *FilterHandler) Column(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Column(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("column", name))
		return
	}
	h.OK(c, def)
}

// Operators lists operators and where they apply.
// GET /api/v1/filter/operators
func (h *FilterHandler) Operators(c *gin.Context) {
	h.OK(c, h.registry.Operators())
}
