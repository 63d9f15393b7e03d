package druid

import "encoding/json"

// DefaultInterval covers all time when a query carries no time bounds.
const DefaultInterval = "1900-01-01T00:00:00.000Z/3000-01-01T00:00:00.000Z"

// GroupByQuery is the native grouping/aggregation query envelope.
type GroupByQuery struct {
	DataSource   string            `json:"dataSource"`
	Granularity  string            `json:"granularity"`
	Dimensions   []DimensionSpec   `json:"dimensions"`
	Aggregations []AggregationSpec `json:"aggregations"`
	Intervals    []string          `json:"intervals"`
	Context      map[string]string `json:"context,omitempty"`
}

func (q *GroupByQuery) MarshalJSON() ([]byte, error) {
	type alias GroupByQuery
	return json.Marshal(struct {
		QueryType string `json:"queryType"`
		*alias
	}{"groupBy", (*alias)(q)})
}

// GroupByRow is one result row of a groupBy query.
type GroupByRow struct {
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Event     map[string]interface{} `json:"event"`
}

// SegmentMetadataQuery asks the broker for merged column and aggregator
// metadata of a datasource.
type SegmentMetadataQuery struct {
	DataSource             string   `json:"dataSource"`
	Intervals              []string `json:"intervals,omitempty"`
	Merge                  bool     `json:"merge"`
	AnalysisTypes          []string `json:"analysisTypes"`
	LenientAggregatorMerge bool     `json:"lenientAggregatorMerge"`
}

func (q *SegmentMetadataQuery) MarshalJSON() ([]byte, error) {
	type alias SegmentMetadataQuery
	return json.Marshal(struct {
		QueryType string `json:"queryType"`
		*alias
	}{"segmentMetadata", (*alias)(q)})
}

// ColumnAnalysis is the per-column block of a segment metadata response.
type ColumnAnalysis struct {
	Type              string `json:"type"`
	HasMultipleValues bool   `json:"hasMultipleValues"`
	Size              int64  `json:"size"`
	Cardinality       int64  `json:"cardinality"`
	ErrorMessage      string `json:"errorMessage"`
}

// AggregatorAnalysis is the per-metric aggregator block of a segment
// metadata response. Absent entirely on older stores.
type AggregatorAnalysis struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

// SegmentAnalysis is one element of a segment metadata response.
type SegmentAnalysis struct {
	ID          string                        `json:"id"`
	Intervals   []string                      `json:"intervals"`
	Columns     map[string]ColumnAnalysis     `json:"columns"`
	Aggregators map[string]AggregatorAnalysis `json:"aggregators"`
	Size        int64                         `json:"size"`
	NumRows     int64                         `json:"numRows"`
}
