// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"encoding/json"
)

// FilterRequest is the JSON body of POST /filter/filter-data.
// Filters is kept raw and decoded by the condition parser so GET and POST
// share one validation path.
type FilterRequest struct {
	Filters        json.RawMessage `json:"filters"`
	Logic          string          `json:"logic"`
	Limit          *int            `json:"limit"`
	Offset         *int            `json:"offset"`
	OrderBy        string          `json:"order_by"`
	OrderDirection string          `json:"order_direction"`
	Fields         []string        `json:"fields"`
}

// HealthChecks is the body of the readiness check.
type HealthChecks struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
