// Package catalog describes datasource metadata: which source columns are
// dimensions or metrics, their physical types, and which probabilistic
// structures they carry. The push-down translator reads it, never writes it.
package catalog

import (
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// ColumnKind classifies a source column.
type ColumnKind string

const (
	KindDimension     ColumnKind = "DIMENSION"
	KindTimeDimension ColumnKind = "TIME"
	KindMetric        ColumnKind = "METRIC"
)

// Column is the per-source-column descriptor.
type Column struct {
	Name       string
	Kind       ColumnKind
	DruidType  druid.Type
	NotIndexed bool // present in the schema but unusable as a grouping key

	// HLLMetric and SketchMetric name pre-aggregated probabilistic
	// structure columns associated with this column, empty when none.
	HLLMetric    string
	SketchMetric string
}

// IsDimension reports whether the column is a non-time dimension.
func (c *Column) IsDimension() bool { return c.Kind == KindDimension }

// IsTimeDimension reports whether the column is the time dimension.
func (c *Column) IsTimeDimension() bool { return c.Kind == KindTimeDimension }

// IsMetric reports whether the column is a numeric aggregation input.
func (c *Column) IsMetric() bool {
	if c.Kind != KindMetric {
		return false
	}
	switch c.DruidType {
	case druid.TypeLong, druid.TypeFloat, druid.TypeDouble:
		return true
	}
	return false
}

// HasProbabilisticStructure reports whether the column carries an associated
// HLL or sketch structure.
func (c *Column) HasProbabilisticStructure() bool {
	return c.HLLMetric != "" || c.SketchMetric != ""
}

// LogicalType maps the column's physical type to the query-level type.
func (c *Column) LogicalType() plan.DataType {
	if c.Kind == KindTimeDimension {
		return plan.TypeTimestamp
	}
	switch c.DruidType {
	case druid.TypeLong:
		return plan.TypeLong
	case druid.TypeFloat:
		return plan.TypeFloat
	case druid.TypeDouble:
		return plan.TypeDouble
	default:
		return plan.TypeString
	}
}

// AggregatorInfo is the indexing-time aggregator declared for a metric, as
// reported by segment metadata.
type AggregatorInfo struct {
	Type      string
	FieldName string
}

// Datasource is the in-memory metadata snapshot for one datasource.
type Datasource struct {
	Name    string
	Columns map[string]*Column

	// Aggregators maps metric name to its declared indexing-time
	// aggregator. Nil when segment metadata carried no aggregator block,
	// which older stores omit.
	Aggregators map[string]AggregatorInfo
}

// NewDatasource assembles a snapshot from already-classified columns.
// Pass nil aggregators to model a store that reported no aggregator block.
func NewDatasource(name string, columns []*Column, aggregators map[string]AggregatorInfo) *Datasource {
	ds := &Datasource{Name: name, Columns: make(map[string]*Column, len(columns)), Aggregators: aggregators}
	for _, c := range columns {
		ds.Columns[c.Name] = c
	}
	return ds
}

// Column returns the descriptor for a column name, or nil when unknown.
func (d *Datasource) Column(name string) *Column {
	return d.Columns[name]
}

// StructureConfirmed reports whether the named probabilistic structure column
// is confirmed usable as wantType.
//
// When aggregator metadata was retrievable, the declared type tag is trusted
// exactly. When it was not, presence is inferred: the structure is assumed
// applicable only when the named column has NOT been independently retained
// as a queryable raw column. A retained raw column means the name refers to
// ordinary data, so the fast structure must not be assumed.
func (d *Datasource) StructureConfirmed(name, wantType string) bool {
	if name == "" {
		return false
	}
	if d.Aggregators != nil {
		info, ok := d.Aggregators[name]
		return ok && info.Type == wantType
	}
	_, retained := d.Columns[name]
	return !retained
}
