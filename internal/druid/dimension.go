package druid

import "encoding/json"

// === Dimension Specs ===

// DimensionSpec is the interface implemented by all grouping-key
// descriptions.
type DimensionSpec interface {
	dimensionSpec()
	Output() string
}

// DefaultDimension groups on a dimension's raw value.
type DefaultDimension struct {
	Dimension  string `json:"dimension"`
	OutputName string `json:"outputName"`
}

func (*DefaultDimension) dimensionSpec()   {}
func (d *DefaultDimension) Output() string { return d.OutputName }

func (d *DefaultDimension) MarshalJSON() ([]byte, error) {
	type alias DefaultDimension
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"default", (*alias)(d)})
}

// ExtractionDimension groups on a per-row transform of a dimension's value.
type ExtractionDimension struct {
	Dimension    string       `json:"dimension"`
	OutputName   string       `json:"outputName"`
	ExtractionFn ExtractionFn `json:"extractionFn"`
}

func (*ExtractionDimension) dimensionSpec()   {}
func (d *ExtractionDimension) Output() string { return d.OutputName }

func (d *ExtractionDimension) MarshalJSON() ([]byte, error) {
	type alias ExtractionDimension
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"extraction", (*alias)(d)})
}

// === Extraction Functions ===

// ExtractionFn is the interface implemented by per-row dimension transforms.
type ExtractionFn interface {
	extractionFn()
}

// TimeFormatExtraction formats a time-typed dimension value.
type TimeFormatExtraction struct {
	Format   string `json:"format"`
	TimeZone string `json:"timeZone,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

func (*TimeFormatExtraction) extractionFn() {}

func (f *TimeFormatExtraction) MarshalJSON() ([]byte, error) {
	type alias TimeFormatExtraction
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"timeFormat", (*alias)(f)})
}

// TimeParsingExtraction parses a string dimension value with TimeFormat and
// re-renders it with ResultFormat.
type TimeParsingExtraction struct {
	TimeFormat   string `json:"timeFormat"`
	ResultFormat string `json:"resultFormat"`
}

func (*TimeParsingExtraction) extractionFn() {}

func (f *TimeParsingExtraction) MarshalJSON() ([]byte, error) {
	type alias TimeParsingExtraction
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"time", (*alias)(f)})
}

// JavascriptExtraction applies a generated function body to each value.
type JavascriptExtraction struct {
	Function string `json:"function"`
}

func (*JavascriptExtraction) extractionFn() {}

func (f *JavascriptExtraction) MarshalJSON() ([]byte, error) {
	type alias JavascriptExtraction
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{"javascript", (*alias)(f)})
}
