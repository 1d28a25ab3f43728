// Package metadata builds the discovery documents that describe what a
// client may filter on.
package metadata

import (
	"careindex/internal/domain/filter"
)

// ColumnDef describes one filterable column.
type ColumnDef struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Table      string   `json:"table"`
	Category   string   `json:"category"`
	Operators  []string `json:"operators"`
	TimeSeries bool     `json:"time_series"`
	// RangeParams are the flat *_min/*_max parameter names, if any.
	RangeParams []string `json:"range_params,omitempty"`
}

// ColumnsDocument is the body of the available-columns endpoint.
type ColumnsDocument struct {
	AvailableColumns []string            `json:"available_columns"`
	TotalColumns     int                 `json:"total_columns"`
	Columns          []ColumnDef         `json:"columns"`
	Categories       map[string][]string `json:"categories"`
}

// OperatorsDocument is the body of the operators endpoint.
type OperatorsDocument struct {
	Operators       map[string]string   `json:"operators"`
	ApplicableTypes map[string][]string `json:"applicable_types"`
	Aliases         map[string]string   `json:"aliases"`
	LogicOperators  []string            `json:"logic_operators"`
	OrderDirections []string            `json:"order_directions"`
}

// Registry holds discovery documents derived from a catalog.
// Built once; read-only afterwards.
type Registry struct {
	columns   ColumnsDocument
	operators OperatorsDocument
	byName    map[string]ColumnDef
}

// NewRegistry derives the documents from cat.
func NewRegistry(cat *filter.Catalog) *Registry {
	r := &Registry{byName: make(map[string]ColumnDef, cat.Len())}
	r.columns = buildColumns(cat, r.byName)
	r.operators = buildOperators()
	return r
}

// Columns returns the available-columns document.
func (r *Registry) Columns() ColumnsDocument {
	return r.columns
}

// Column returns one column definition.
func (r *Registry) Column(name string) (ColumnDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Operators returns the operators document.
func (r *Registry) Operators() OperatorsDocument {
	return r.operators
}

func buildColumns(cat *filter.Catalog, index map[string]ColumnDef) ColumnsDocument {
	doc := ColumnsDocument{
		AvailableColumns: make([]string, 0, cat.Len()),
		TotalColumns:     cat.Len(),
		Columns:          make([]ColumnDef, 0, cat.Len()),
		Categories:       make(map[string][]string),
	}
	for _, c := range filter.Categories() {
		doc.Categories[string(c)] = []string{}
	}

	for _, col := range cat.List() {
		ops := cat.OperatorsFor(col)
		def := ColumnDef{
			Name:       col.Name,
			Type:       string(col.Type),
			Table:      col.Table.Name(),
			Category:   string(col.Category),
			Operators:  make([]string, 0, len(ops)),
			TimeSeries: col.Table.TimeSeries(),
		}
		for _, op := range ops {
			def.Operators = append(def.Operators, string(op))
		}
		if col.Type.Ordered() {
			def.RangeParams = []string{col.Name + "_min", col.Name + "_max"}
		}

		doc.AvailableColumns = append(doc.AvailableColumns, col.Name)
		doc.Columns = append(doc.Columns, def)
		doc.Categories[def.Category] = append(doc.Categories[def.Category], col.Name)
		index[col.Name] = def
	}
	return doc
}

func buildOperators() OperatorsDocument {
	doc := OperatorsDocument{
		Operators:       make(map[string]string),
		ApplicableTypes: make(map[string][]string),
		Aliases:         map[string]string{"equals": string(filter.Equal)},
		LogicOperators:  []string{string(filter.And), string(filter.Or)},
		OrderDirections: []string{string(filter.Asc), string(filter.Desc)},
	}
	for _, op := range filter.Operators() {
		doc.Operators[string(op)] = op.Description()
		types := []string{}
		for _, vt := range filter.ValueTypes() {
			if vt.DefaultOperators().Has(op) {
				types = append(types, string(vt))
			}
		}
		doc.ApplicableTypes[string(op)] = types
	}
	return doc
}
