package druid

import "encoding/json"

// === Aggregation Specs ===

// AggregationSpec is the interface implemented by all native aggregator
// descriptions. Output names are unique within one query.
type AggregationSpec interface {
	aggregationSpec()
	OutputName() string
}

// CountAggregation counts rows using the store's implicit row-count metric.
type CountAggregation struct {
	Name string `json:"name"`
}

func (*CountAggregation) aggregationSpec()     {}
func (a *CountAggregation) OutputName() string { return a.Name }

func (a *CountAggregation) MarshalJSON() ([]byte, error) {
	type alias CountAggregation
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"count", (*alias)(a)})
}

// FieldAggregation is a single-field native aggregator. Op is the full
// operator token (longSum, floatMin, doubleLast, ...).
type FieldAggregation struct {
	Op        string `json:"type"`
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

func (*FieldAggregation) aggregationSpec()     {}
func (a *FieldAggregation) OutputName() string { return a.Name }

// CardinalityAggregation estimates the distinct count of one or more
// dimensions at query time.
type CardinalityAggregation struct {
	Name       string   `json:"name"`
	FieldNames []string `json:"fieldNames"`
	ByRow      bool     `json:"byRow"`
}

func (*CardinalityAggregation) aggregationSpec()     {}
func (a *CardinalityAggregation) OutputName() string { return a.Name }

func (a *CardinalityAggregation) MarshalJSON() ([]byte, error) {
	type alias CardinalityAggregation
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"cardinality", (*alias)(a)})
}

// HyperUniqueAggregation folds a pre-built HLL metric column.
type HyperUniqueAggregation struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

func (*HyperUniqueAggregation) aggregationSpec()     {}
func (a *HyperUniqueAggregation) OutputName() string { return a.Name }

func (a *HyperUniqueAggregation) MarshalJSON() ([]byte, error) {
	type alias HyperUniqueAggregation
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"hyperUnique", (*alias)(a)})
}

// SketchAggregation folds a pre-built theta-sketch metric column.
type SketchAggregation struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

func (*SketchAggregation) aggregationSpec()     {}
func (a *SketchAggregation) OutputName() string { return a.Name }

func (a *SketchAggregation) MarshalJSON() ([]byte, error) {
	type alias SketchAggregation
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"thetaSketch", (*alias)(a)})
}

// JavascriptAggregation is a generated-code aggregator: the store evaluates
// the fold/combine/reset bodies per segment.
type JavascriptAggregation struct {
	Name        string   `json:"name"`
	FieldNames  []string `json:"fieldNames"`
	FnAggregate string   `json:"fnAggregate"`
	FnCombine   string   `json:"fnCombine"`
	FnReset     string   `json:"fnReset"`
}

func (*JavascriptAggregation) aggregationSpec()     {}
func (a *JavascriptAggregation) OutputName() string { return a.Name }

func (a *JavascriptAggregation) MarshalJSON() ([]byte, error) {
	type alias JavascriptAggregation
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"javascript", (*alias)(a)})
}
