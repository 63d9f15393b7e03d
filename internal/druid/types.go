// Package druid models the native aggregation query language of a Druid
// broker: aggregation specs, dimension specs, extraction functions, and the
// JSON query envelopes, plus the HTTP client that issues them.
package druid

// Type is a physical column or metric type as reported by the store.
type Type string

const (
	TypeString      Type = "STRING"
	TypeLong        Type = "LONG"
	TypeFloat       Type = "FLOAT"
	TypeDouble      Type = "DOUBLE"
	TypeHyperUnique Type = "hyperUnique"
	TypeThetaSketch Type = "thetaSketch"
)

// Aggregator type tags as they appear in segment metadata.
const (
	AggregatorHyperUnique = "hyperUnique"
	AggregatorThetaSketch = "thetaSketch"
)
