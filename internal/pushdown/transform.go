package pushdown

import (
	"druid-connect/internal/jscodegen"
	"druid-connect/internal/plan"
)

// PlanTranslator is the surrounding planner's generic dispatch, used to
// translate the child subtree of an aggregation node. A (nil, nil) return
// means the subtree cannot be pushed down.
type PlanTranslator interface {
	Translate(qb *QueryBuilder, n plan.Node) (*QueryBuilder, error)
}

// Translator holds the collaborators of one translation configuration. It is
// stateless across calls and safe for concurrent use as long as each call
// gets its own builder.
type Translator struct {
	codegen   *jscodegen.Generator
	timeZone  string
	recognize TimeGroupRecognizer
}

// Option configures a Translator.
type Option func(*Translator)

// WithTimeGroupRecognizer replaces the default time-group recognizer.
func WithTimeGroupRecognizer(r TimeGroupRecognizer) Option {
	return func(t *Translator) { t.recognize = r }
}

// NewTranslator creates a translator for the given time zone.
func NewTranslator(timeZone string, opts ...Option) *Translator {
	t := &Translator{
		codegen:   jscodegen.NewGenerator(timeZone),
		timeZone:  timeZone,
		recognize: RecognizeTimeGroup,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TransformAggregate is the entry rule for one grouping/aggregation node.
// It returns the fully populated builder on success, (nil, nil) when the
// node cannot be pushed down, and an error for the fatal cases. The incoming
// builder is never partially updated.
func (t *Translator) TransformAggregate(qb *QueryBuilder, agg *plan.Aggregate, planner PlanTranslator) (*QueryBuilder, error) {
	// A query with more than one distinct aggregate is rewritten by the
	// upstream planner into a two-phase aggregation over an Expand node.
	// Nothing below that shape is expressible in the store.
	if hasMultiDistinctShape(agg) {
		return nil, nil
	}
	// The store has no exact distinct aggregation at all.
	if hasDistinctAggregate(agg.Aggregates) {
		return nil, nil
	}

	cur, err := planner.Translate(qb, agg.Input)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}

	for _, g := range agg.GroupBy {
		cur, err = t.groupingSpec(cur, g)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, nil
		}
	}

	for _, ae := range dedupAggregates(agg.Aggregates) {
		cur, err = t.classifyAggregate(cur, ae)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, nil
		}
	}

	return cur, nil
}

// hasMultiDistinctShape recognizes the nested-duplication pattern planners
// produce for queries with multiple distinct aggregates: an aggregation over
// an aggregation over an Expand.
func hasMultiDistinctShape(agg *plan.Aggregate) bool {
	inner, ok := agg.Input.(*plan.Aggregate)
	if !ok {
		return false
	}
	_, ok = inner.Input.(*plan.Expand)
	return ok
}

func hasDistinctAggregate(aggs []*plan.AggregateExpr) bool {
	for _, ae := range aggs {
		if ae.Func.Distinct {
			return true
		}
	}
	return false
}

// dedupAggregates removes structural duplicates, preserving first-seen
// order.
func dedupAggregates(aggs []*plan.AggregateExpr) []*plan.AggregateExpr {
	seen := make(map[string]bool, len(aggs))
	out := make([]*plan.AggregateExpr, 0, len(aggs))
	for _, ae := range aggs {
		key := plan.AggKey(ae)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ae)
	}
	return out
}
