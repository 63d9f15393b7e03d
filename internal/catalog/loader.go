package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
)

// timeColumn is the store's implicit time dimension.
const timeColumn = "__time"

// LoaderOptions tunes how raw segment metadata is interpreted.
type LoaderOptions struct {
	// NotIndexed lists dimensions that exist in the schema but were never
	// indexed and so cannot be grouped on.
	NotIndexed []string

	// Structures maps a dimension name to the probabilistic structure
	// column built from it at indexing time. Associations following the
	// "<dim>_hll" / "<dim>_sketch" naming convention are picked up
	// automatically.
	Structures map[string]string

	Logger *slog.Logger
}

// Loader builds Datasource snapshots from broker segment metadata.
type Loader struct {
	client *druid.Client
	opts   LoaderOptions
	log    *slog.Logger
}

// NewLoader creates a metadata loader backed by the given broker client.
func NewLoader(client *druid.Client, opts ...LoaderOptions) *Loader {
	options := LoaderOptions{}
	if len(opts) > 0 {
		options = opts[0]
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, opts: options, log: logger}
}

// Load fetches and interprets metadata for one datasource.
func (l *Loader) Load(ctx context.Context, name string) (*Datasource, error) {
	analyses, err := l.client.SegmentMetadata(ctx, &druid.SegmentMetadataQuery{
		DataSource:             name,
		Merge:                  true,
		AnalysisTypes:          []string{"cardinality", "aggregators"},
		LenientAggregatorMerge: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load metadata for %q: %w", name, err)
	}
	if len(analyses) == 0 {
		return nil, domain.ErrNotFound("datasource %q has no segments", name)
	}
	return l.interpret(name, analyses[0]), nil
}

// LoadAll fetches metadata for several datasources concurrently.
func (l *Loader) LoadAll(ctx context.Context, names []string) (map[string]*Datasource, error) {
	var mu sync.Mutex
	out := make(map[string]*Datasource, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			ds, err := l.Load(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[ds.Name] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// interpret turns one merged segment analysis into a Datasource snapshot.
func (l *Loader) interpret(name string, analysis druid.SegmentAnalysis) *Datasource {
	notIndexed := make(map[string]bool, len(l.opts.NotIndexed))
	for _, col := range l.opts.NotIndexed {
		notIndexed[col] = true
	}

	ds := &Datasource{Name: name, Columns: make(map[string]*Column, len(analysis.Columns))}
	for colName, col := range analysis.Columns {
		ds.Columns[colName] = &Column{
			Name:       colName,
			Kind:       ClassifyColumn(colName, col.Type),
			DruidType:  druid.Type(col.Type),
			NotIndexed: notIndexed[colName],
		}
	}

	if analysis.Aggregators != nil {
		ds.Aggregators = make(map[string]AggregatorInfo, len(analysis.Aggregators))
		for aggName, agg := range analysis.Aggregators {
			ds.Aggregators[aggName] = AggregatorInfo{Type: agg.Type, FieldName: agg.FieldName}
		}
	} else {
		l.log.Warn("segment metadata carried no aggregators block, probabilistic structures resolved heuristically",
			"dataSource", name)
	}

	l.associateStructures(ds)

	l.log.Info("datasource metadata loaded",
		"dataSource", name,
		"columns", len(ds.Columns),
		"aggregatorsKnown", ds.Aggregators != nil)
	return ds
}

// associateStructures links dimensions to their probabilistic structure
// columns, from explicit configuration first, then naming convention.
func (l *Loader) associateStructures(ds *Datasource) {
	for dim, structure := range l.opts.Structures {
		l.bindStructure(ds, dim, structure)
	}

	// Deterministic iteration keeps repeated loads identical.
	names := make([]string, 0, len(ds.Columns))
	for n := range ds.Columns {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		var dim string
		switch {
		case strings.HasSuffix(n, "_hll"):
			dim = strings.TrimSuffix(n, "_hll")
		case strings.HasSuffix(n, "_sketch"):
			dim = strings.TrimSuffix(n, "_sketch")
		default:
			continue
		}
		if _, ok := ds.Columns[dim]; ok {
			l.bindStructure(ds, dim, n)
		}
	}
}

func (l *Loader) bindStructure(ds *Datasource, dim, structure string) {
	col := ds.Columns[dim]
	if col == nil {
		return
	}
	structureType := ""
	if info, ok := ds.Aggregators[structure]; ok {
		structureType = info.Type
	} else if sc := ds.Columns[structure]; sc != nil {
		structureType = string(sc.DruidType)
	}

	switch structureType {
	case druid.AggregatorHyperUnique:
		col.HLLMetric = structure
	case druid.AggregatorThetaSketch:
		col.SketchMetric = structure
	default:
		// Unknown structure type: record as HLL only when naming says so
		// and metadata cannot contradict it.
		if ds.Aggregators == nil && strings.HasSuffix(structure, "_hll") {
			col.HLLMetric = structure
		} else if ds.Aggregators == nil && strings.HasSuffix(structure, "_sketch") {
			col.SketchMetric = structure
		}
	}
}

// ClassifyColumn maps a physical column type to its kind.
func ClassifyColumn(name, physicalType string) ColumnKind {
	if name == timeColumn {
		return KindTimeDimension
	}
	switch druid.Type(physicalType) {
	case druid.TypeLong, druid.TypeFloat, druid.TypeDouble,
		druid.TypeHyperUnique, druid.TypeThetaSketch:
		return KindMetric
	default:
		return KindDimension
	}
}
