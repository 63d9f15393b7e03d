package pushdown

import "druid-connect/internal/plan"

// Planner is a minimal generic dispatch over plan nodes. Fuller planners
// (projection and filter push-down, join handling) implement PlanTranslator
// themselves; this one covers the shapes the aggregation translator needs:
// a scan leaf and nested aggregations.
type Planner struct {
	translator *Translator
}

// NewPlanner creates a planner around the given translator.
func NewPlanner(t *Translator) *Planner {
	return &Planner{translator: t}
}

// Translate implements PlanTranslator.
func (p *Planner) Translate(qb *QueryBuilder, n plan.Node) (*QueryBuilder, error) {
	switch node := n.(type) {
	case *plan.Scan:
		if node.Datasource != qb.Datasource().Name {
			return nil, nil
		}
		return qb, nil
	case *plan.Aggregate:
		return p.translator.TransformAggregate(qb, node, p)
	default:
		return nil, nil
	}
}
