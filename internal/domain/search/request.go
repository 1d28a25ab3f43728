package search

import (
	"strconv"
	"strings"

	"careindex/internal/core/apperror"
	"careindex/internal/domain/filter"
)

// ParseQuery builds a Request from the query parameters of GET filter-data.
// Control parameters take their first value; every parameter, control ones
// included, is also handed to the parser, which skips the reserved names.
func ParseQuery(values map[string][]string) (Request, error) {
	first := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := Request{
		Params:         values,
		Logic:          first(filter.ParamLogic),
		OrderBy:        first(filter.ParamOrderBy),
		OrderDirection: first(filter.ParamOrderDirection),
		Fields:         SplitList(first(filter.ParamFields)),
	}
	if v, ok := values[filter.ParamFilters]; ok && len(v) > 0 {
		req.Filters = []byte(v[0])
	}

	limit, err := parseInt(filter.ParamLimit, first(filter.ParamLimit))
	if err != nil {
		return Request{}, err
	}
	req.Limit = limit

	offset, err := parseInt(filter.ParamOffset, first(filter.ParamOffset))
	if err != nil {
		return Request{}, err
	}
	if offset != nil {
		req.Offset = *offset
	}
	return req, nil
}

// parseInt returns nil for an absent value. Malformed values fail with
// INVALID_PAGINATION.
func parseInt(key, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.NewInvalidPagination(key, raw, "must be an integer")
	}
	return &n, nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
