package filter

// StatusSuccess is the only status an assembled envelope carries.
const StatusSuccess = "success"

// Envelope is the response body of a filter request.
type Envelope struct {
	Status         string         `json:"status"`
	Data           []Record       `json:"data"`
	Pagination     Pagination     `json:"pagination"`
	FiltersApplied FiltersApplied `json:"filters_applied"`
}

// Pagination describes where the page sits in the full result.
type Pagination struct {
	TotalCount  int64 `json:"total_count"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
}

// FiltersApplied summarizes the predicate that produced the page.
type FiltersApplied struct {
	Conditions int   `json:"conditions"`
	Logic      Logic `json:"logic"`
}

// Assemble shapes a page of rows and the total count into an Envelope.
// An empty page is a valid result with data set to [].
func Assemble(rows []Record, total int64, spec QuerySpec) Envelope {
	if rows == nil {
		rows = []Record{}
	}
	return Envelope{
		Status:     StatusSuccess,
		Data:       rows,
		Pagination: NewPagination(total, spec.Limit, spec.Offset),
		FiltersApplied: FiltersApplied{
			Conditions: len(spec.Conditions),
			Logic:      spec.Logic,
		},
	}
}

// NewPagination derives page numbers. limit must be positive.
func NewPagination(total int64, limit, offset int) Pagination {
	p := Pagination{TotalCount: total, Limit: limit, Offset: offset}
	if limit > 0 {
		p.CurrentPage = offset/limit + 1
		p.TotalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return p
}
