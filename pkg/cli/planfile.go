package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"druid-connect/internal/catalog"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// PlanFile is the YAML description of one grouping/aggregation stage.
type PlanFile struct {
	Datasource string           `yaml:"datasource"`
	GroupBy    []GroupByEntry   `yaml:"group_by"`
	Aggregates []AggregateEntry `yaml:"aggregates"`

	// Metadata, when present, is used instead of a live segment-metadata
	// query.
	Metadata *MetadataFile `yaml:"metadata"`
}

// GroupByEntry describes one group-by expression. Exactly one field group
// must be set.
type GroupByEntry struct {
	Column     string          `yaml:"column"`
	TimeFormat *TimeFormatSpec `yaml:"time_format"`
	DateTrunc  *DateTruncSpec  `yaml:"date_trunc"`
}

// TimeFormatSpec describes date_format(col, format), optionally parsing a
// string column first.
type TimeFormatSpec struct {
	Column      string `yaml:"column"`
	Format      string `yaml:"format"`
	ParseFormat string `yaml:"parse_format"`
}

// DateTruncSpec describes date_trunc(unit, col).
type DateTruncSpec struct {
	Unit   string `yaml:"unit"`
	Column string `yaml:"column"`
}

// AggregateEntry describes one aggregate expression.
type AggregateEntry struct {
	Kind     string `yaml:"kind"`
	Column   string `yaml:"column"`
	Type     string `yaml:"type"` // declared output logical type, defaults by kind
	Distinct bool   `yaml:"distinct"`
	Alias    string `yaml:"alias"`
}

// MetadataFile is an inline datasource metadata snapshot.
type MetadataFile struct {
	Columns     []ColumnEntry              `yaml:"columns"`
	Aggregators map[string]AggregatorEntry `yaml:"aggregators"`
	NotIndexed  []string                   `yaml:"not_indexed"`
	Structures  map[string]string          `yaml:"structures"`
}

// ColumnEntry is one column of an inline metadata snapshot.
type ColumnEntry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// AggregatorEntry is one declared indexing-time aggregator.
type AggregatorEntry struct {
	Type      string `yaml:"type"`
	FieldName string `yaml:"fieldName"`
}

// LoadPlanFile reads and parses a plan YAML file.
func LoadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	if pf.Datasource == "" {
		return nil, fmt.Errorf("plan file needs a datasource")
	}
	return &pf, nil
}

// BuildPlan converts the file into a logical aggregation over a scan.
func (pf *PlanFile) BuildPlan() (*plan.Aggregate, error) {
	agg := &plan.Aggregate{Input: &plan.Scan{Datasource: pf.Datasource}}

	for i, g := range pf.GroupBy {
		e, err := g.expr()
		if err != nil {
			return nil, fmt.Errorf("group_by[%d]: %w", i, err)
		}
		agg.GroupBy = append(agg.GroupBy, e)
	}

	for i, a := range pf.Aggregates {
		ae, err := a.aggregate()
		if err != nil {
			return nil, fmt.Errorf("aggregates[%d]: %w", i, err)
		}
		agg.Aggregates = append(agg.Aggregates, ae)
	}

	return agg, nil
}

func (g GroupByEntry) expr() (plan.Expr, error) {
	switch {
	case g.Column != "":
		return &plan.ColumnRef{Name: g.Column}, nil
	case g.TimeFormat != nil:
		var arg plan.Expr = &plan.ColumnRef{Name: g.TimeFormat.Column}
		if g.TimeFormat.ParseFormat != "" {
			arg = &plan.ScalarFunc{Name: "parse_time", Args: []plan.Expr{
				arg,
				&plan.Literal{Type: plan.LiteralString, Value: g.TimeFormat.ParseFormat},
			}}
		}
		return &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
			arg,
			&plan.Literal{Type: plan.LiteralString, Value: g.TimeFormat.Format},
		}}, nil
	case g.DateTrunc != nil:
		return &plan.ScalarFunc{Name: "date_trunc", Args: []plan.Expr{
			&plan.Literal{Type: plan.LiteralString, Value: g.DateTrunc.Unit},
			&plan.ColumnRef{Name: g.DateTrunc.Column},
		}}, nil
	default:
		return nil, fmt.Errorf("entry needs column, time_format, or date_trunc")
	}
}

func (a AggregateEntry) aggregate() (*plan.AggregateExpr, error) {
	kind := plan.AggKind(strings.ToLower(a.Kind))
	switch kind {
	case plan.AggCount, plan.AggSum, plan.AggMin, plan.AggMax, plan.AggAvg,
		plan.AggFirst, plan.AggLast, plan.AggApproxCountDistinct:
	default:
		return nil, fmt.Errorf("unknown aggregate kind %q", a.Kind)
	}

	var args []plan.Expr
	if a.Column != "" {
		args = []plan.Expr{&plan.ColumnRef{Name: a.Column}}
	} else if kind == plan.AggCount {
		args = []plan.Expr{&plan.Literal{Type: plan.LiteralNumber, Value: "1"}}
	} else {
		return nil, fmt.Errorf("aggregate %q needs a column", a.Kind)
	}

	outputType := plan.DataType(strings.ToUpper(a.Type))
	if a.Type == "" {
		outputType = defaultOutputType(kind)
	}

	return &plan.AggregateExpr{
		Func: plan.AggFunc{
			Kind:       kind,
			Args:       args,
			Distinct:   a.Distinct,
			OutputType: outputType,
		},
		Alias: a.Alias,
	}, nil
}

func defaultOutputType(kind plan.AggKind) plan.DataType {
	switch kind {
	case plan.AggCount, plan.AggApproxCountDistinct:
		return plan.TypeLong
	default:
		return plan.TypeDouble
	}
}

// BuildDatasource converts inline metadata into a catalog snapshot.
func (m *MetadataFile) BuildDatasource(name string) *catalog.Datasource {
	notIndexed := make(map[string]bool, len(m.NotIndexed))
	for _, col := range m.NotIndexed {
		notIndexed[col] = true
	}

	cols := make([]*catalog.Column, 0, len(m.Columns))
	for _, c := range m.Columns {
		cols = append(cols, &catalog.Column{
			Name:       c.Name,
			Kind:       catalog.ClassifyColumn(c.Name, c.Type),
			DruidType:  druid.Type(c.Type),
			NotIndexed: notIndexed[c.Name],
		})
	}

	var aggs map[string]catalog.AggregatorInfo
	if m.Aggregators != nil {
		aggs = make(map[string]catalog.AggregatorInfo, len(m.Aggregators))
		for n, a := range m.Aggregators {
			aggs[n] = catalog.AggregatorInfo{Type: a.Type, FieldName: a.FieldName}
		}
	}

	ds := catalog.NewDatasource(name, cols, aggs)
	for dim, structure := range m.Structures {
		col := ds.Column(dim)
		if col == nil {
			continue
		}
		switch {
		case strings.HasSuffix(structure, "_sketch"):
			col.SketchMetric = structure
		default:
			col.HLLMetric = structure
		}
		if info, ok := ds.Aggregators[structure]; ok {
			// Declared metadata wins over the naming convention.
			col.HLLMetric, col.SketchMetric = "", ""
			switch info.Type {
			case druid.AggregatorHyperUnique:
				col.HLLMetric = structure
			case druid.AggregatorThetaSketch:
				col.SketchMetric = structure
			}
		}
	}
	return ds
}
