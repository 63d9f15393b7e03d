// Package pushdown translates a logical grouping/aggregation stage into the
// store's native query vocabulary, or decides that it cannot be translated.
//
// The translator is pure and synchronous: it performs no I/O and reads only
// the in-memory metadata snapshot carried by the builder. Failure is
// immediate and deterministic; re-running a translation over the same inputs
// yields structurally identical output, alias names included.
package pushdown

import (
	"fmt"

	"druid-connect/internal/catalog"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// OutputBinding ties a generated output name back to the expression it
// computes, for later row and type reconstruction by the caller.
type OutputBinding struct {
	Name        string
	Expr        plan.Expr
	LogicalType plan.DataType
	DruidType   druid.Type
}

// QueryBuilder accumulates dimension specs, aggregation specs, and output
// bindings for one in-progress push-down candidate. Translation steps return
// updated copies; a builder is either fully updated for a plan node or
// abandoned, never partially updated.
type QueryBuilder struct {
	ds           *catalog.Datasource
	dimensions   []druid.DimensionSpec
	aggregations []druid.AggregationSpec
	bindings     []OutputBinding
	aliasCnt     int
}

// NewQueryBuilder creates a builder over one datasource's metadata snapshot.
// Builders are not safe for concurrent use; concurrent candidate plans each
// need their own builder.
func NewQueryBuilder(ds *catalog.Datasource) *QueryBuilder {
	return &QueryBuilder{ds: ds}
}

// Datasource returns the metadata snapshot the builder translates against.
func (b *QueryBuilder) Datasource() *catalog.Datasource { return b.ds }

// DimensionSpecs returns the accumulated grouping keys in group-by order.
func (b *QueryBuilder) DimensionSpecs() []druid.DimensionSpec { return b.dimensions }

// AggregationSpecs returns the accumulated native aggregators.
func (b *QueryBuilder) AggregationSpecs() []druid.AggregationSpec { return b.aggregations }

// Bindings returns the output bindings in emission order.
func (b *QueryBuilder) Bindings() []OutputBinding { return b.bindings }

// Binding looks up a binding by output name.
func (b *QueryBuilder) Binding(name string) (OutputBinding, bool) {
	for _, bind := range b.bindings {
		if bind.Name == name {
			return bind, true
		}
	}
	return OutputBinding{}, false
}

// AliasCount returns how many aliases the builder has handed out.
func (b *QueryBuilder) AliasCount() int { return b.aliasCnt }

// nextAlias returns a fresh output name. Names are never reused within one
// builder's lifetime, including names handed to branches that did not commit,
// and never shadow a name already taken by a bound grouping column.
func (b *QueryBuilder) nextAlias() string {
	for {
		name := fmt.Sprintf("alias_%d", b.aliasCnt)
		b.aliasCnt++
		if _, taken := b.Binding(name); !taken {
			return name
		}
	}
}

// clone copies the builder so a translation step can update it without
// touching the caller's snapshot.
func (b *QueryBuilder) clone() *QueryBuilder {
	next := *b
	next.dimensions = append([]druid.DimensionSpec(nil), b.dimensions...)
	next.aggregations = append([]druid.AggregationSpec(nil), b.aggregations...)
	next.bindings = append([]OutputBinding(nil), b.bindings...)
	return &next
}

func (b *QueryBuilder) bind(name string, e plan.Expr, logical plan.DataType, physical druid.Type) {
	b.bindings = append(b.bindings, OutputBinding{
		Name:        name,
		Expr:        e,
		LogicalType: logical,
		DruidType:   physical,
	})
}

// GroupByQuery assembles the native query from the accumulated state. The
// surrounding planner calls this once translation of the whole plan
// succeeded.
func (b *QueryBuilder) GroupByQuery(intervals []string) *druid.GroupByQuery {
	if len(intervals) == 0 {
		intervals = []string{druid.DefaultInterval}
	}
	return &druid.GroupByQuery{
		DataSource:   b.ds.Name,
		Granularity:  "all",
		Dimensions:   b.dimensions,
		Aggregations: b.aggregations,
		Intervals:    intervals,
	}
}
