package filter

import (
	"fmt"

	"careindex/internal/core/apperror"
)

// Table is the alias of a joined table in the filtering query.
type Table string

const (
	TableLocations         Table = "l"
	TableProviders         Table = "p"
	TableBrands            Table = "b"
	TablePeriodData        Table = "lpd"
	TableDataPeriods       Table = "dp"
	TableActivityFlags     Table = "laf"
	TableDualRegistrations Table = "dr"
)

var tableNames = map[Table]string{
	TableLocations:         "locations",
	TableProviders:         "providers",
	TableBrands:            "brands",
	TablePeriodData:        "location_period_data",
	TableDataPeriods:       "data_periods",
	TableActivityFlags:     "location_activity_flags",
	TableDualRegistrations: "dual_registrations",
}

// Name returns the physical table name.
func (t Table) Name() string {
	return tableNames[t]
}

// TimeSeries reports whether the table holds per-period rows rather than
// static location/provider data.
func (t Table) TimeSeries() bool {
	switch t {
	case TablePeriodData, TableDataPeriods, TableActivityFlags, TableDualRegistrations:
		return true
	}
	return false
}

// FlagEncoding says how a boolean flag is stored.
type FlagEncoding uint8

const (
	// FlagNative columns are SQL booleans.
	FlagNative FlagEncoding = iota
	// FlagYesNo columns store 'Y' / 'N'.
	FlagYesNo
)

// Category groups columns for discovery.
type Category string

const (
	CategoryLocation          Category = "location_info"
	CategoryLocationStatus    Category = "location_status"
	CategoryProvider          Category = "provider_info"
	CategoryBrand             Category = "brand_info"
	CategoryRegulatedActivity Category = "regulated_activities"
	CategoryServiceType       Category = "service_types"
	CategoryUserBand          Category = "user_bands"
	CategoryPeriod            Category = "period"
	CategoryDualRegistration  Category = "dual_registration"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryLocation, CategoryLocationStatus, CategoryProvider, CategoryBrand,
		CategoryRegulatedActivity, CategoryServiceType, CategoryUserBand,
		CategoryPeriod, CategoryDualRegistration,
	}
}

// Column describes one filterable logical column.
type Column struct {
	Name      string
	Table     Table
	Field     string // physical column on Table
	Expr      string // computed SQL expression; takes precedence over Table.Field
	Type      ValueType
	Operators OperatorSet
	Flag      FlagEncoding
	Category  Category
}

// Path returns the physical reference used in SQL.
func (c Column) Path() string {
	if c.Expr != "" {
		return c.Expr
	}
	return string(c.Table) + "." + c.Field
}

// Allows reports whether op may be applied to this column.
func (c Column) Allows(op Operator) bool {
	return c.Operators.Has(op)
}

// Catalog is the closed registry of filterable columns.
// Built once at startup and read-only afterwards.
type Catalog struct {
	columns []Column
	index   map[string]int
}

// NewCatalog validates and indexes the given columns.
func NewCatalog(columns []Column) (*Catalog, error) {
	c := &Catalog{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(c.columns, columns)

	for i, col := range c.columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := c.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if col.Expr == "" && (col.Table.Name() == "" || col.Field == "") {
			return nil, fmt.Errorf("column %q has no physical path", col.Name)
		}
		if col.Operators == 0 {
			return nil, fmt.Errorf("column %q allows no operators", col.Name)
		}
		c.index[col.Name] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics. Use only for static definitions.
func MustCatalog(columns []Column) *Catalog {
	c, err := NewCatalog(columns)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCatalog = MustCatalog(cqcColumns())

// DefaultCatalog returns the process-wide CQC catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Resolve looks up a logical name. Unknown names fail with UNKNOWN_COLUMN.
func (c *Catalog) Resolve(name string) (Column, error) {
	i, ok := c.index[name]
	if !ok {
		return Column{}, apperror.NewUnknownColumn(name)
	}
	return c.columns[i], nil
}

// Has reports whether name is cataloged.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// List returns every column in catalog order.
func (c *Catalog) List() []Column {
	out := make([]Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// Len returns the number of columns.
func (c *Catalog) Len() int {
	return len(c.columns)
}

// OperatorsFor returns the operators allowed on col.
func (c *Catalog) OperatorsFor(col Column) []Operator {
	return col.Operators.List()
}
