package dto

import (
	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
)

// RecordResponse wraps a single location or provider row.
type RecordResponse struct {
	Status string        `json:"status"`
	Data   filter.Record `json:"data"`
}

// HistoryResponse lists a location's rows across periods, newest first.
type HistoryResponse struct {
	Status     string          `json:"status"`
	LocationID string          `json:"location_id"`
	History    []filter.Record `json:"history"`
}

// PeriodsResponse lists the imported data periods.
type PeriodsResponse struct {
	Status      string          `json:"status"`
	DataPeriods []search.Period `json:"data_periods"`
}
