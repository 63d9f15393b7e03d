package pushdown

import (
	"druid-connect/internal/catalog"
	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// matchResult is the typed outcome of one classifier rule: exactly one of
// matched (qb set), not applicable (zero value), or fatal.
type matchResult struct {
	qb    *QueryBuilder
	fatal error
}

var notApplicable = matchResult{}

func matched(qb *QueryBuilder) matchResult { return matchResult{qb: qb} }
func fatal(err error) matchResult          { return matchResult{fatal: err} }

// classifyAggregate maps one deduplicated aggregate expression to native
// aggregation specs. Rules run in strict order; the first match wins.
// Returns (nil, nil) when no rule matches and generation fails, and an error
// for the known-unsound cases.
func (t *Translator) classifyAggregate(qb *QueryBuilder, ae *plan.AggregateExpr) (*QueryBuilder, error) {
	f := ae.Func

	// 1. Unconditional row count: count(1) in literal or
	// degenerate-reference form.
	if isLiteralCount(f) {
		next := qb.clone()
		name := next.nextAlias()
		next.aggregations = append(next.aggregations, &druid.CountAggregation{Name: name})
		next.bind(name, ae, plan.TypeLong, druid.TypeLong)
		return next, nil
	}

	// 2. Average-shaped per the generator's own candidacy probe. The store
	// aggregates at indexing time, so there is no way to know which metric
	// supplies the correct sum-of-counts denominator; generating code here
	// would silently return a wrong number.
	if t.codegen.AverageCandidate(f) {
		return nil, errUnsoundAverage(f)
	}

	// 3. Native aggregator shapes.
	if res := t.nativeAggregate(qb, ae); res.fatal != nil {
		return nil, res.fatal
	} else if res.qb != nil {
		return res.qb, nil
	}

	// 4. Generated-code fallback.
	return t.generatedAggregate(qb, ae)
}

// nativeAggregate handles the approximate-distinct-count and
// sum/min/max/first/last/avg shapes, all of which require the sole argument
// to resolve to a catalog column.
func (t *Translator) nativeAggregate(qb *QueryBuilder, ae *plan.AggregateExpr) matchResult {
	f := ae.Func
	if len(f.Args) != 1 {
		return notApplicable
	}
	ref, ok := f.Args[0].(*plan.ColumnRef)
	if !ok {
		return notApplicable
	}
	col := qb.ds.Column(ref.Name)
	if col == nil {
		return notApplicable
	}

	switch f.Kind {
	case plan.AggApproxCountDistinct:
		return t.approxDistinct(qb, ae, col)

	case plan.AggSum, plan.AggMin, plan.AggMax, plan.AggFirst, plan.AggLast:
		if !col.IsMetric() {
			return notApplicable
		}
		subtype, ok := plan.TightestCommonType(f.OutputType, col.LogicalType())
		if !ok {
			return notApplicable
		}
		op, ok := operatorToken(f.Kind, subtype)
		if !ok {
			return notApplicable
		}
		next := qb.clone()
		name := next.nextAlias()
		next.aggregations = append(next.aggregations, &druid.FieldAggregation{
			Op:        op,
			Name:      name,
			FieldName: col.Name,
		})
		next.bind(name, ae, subtype, physicalType(subtype))
		return matched(next)

	case plan.AggAvg:
		if !col.IsMetric() {
			return notApplicable
		}
		if _, ok := plan.TightestCommonType(f.OutputType, col.LogicalType()); !ok {
			return notApplicable
		}
		// A paired sum+count decomposition would look like this, but it is
		// only sound when a genuine count-type metric for the same rows is
		// provably known at indexing time, which the metadata cannot show.
		// Do not revive without a verifiable denominator contract.
		//
		//	sumName, countName := next.nextAlias(), next.nextAlias()
		//	next.aggregations = append(next.aggregations,
		//		&druid.FieldAggregation{Op: "doubleSum", Name: sumName, FieldName: col.Name},
		//		&druid.CountAggregation{Name: countName})
		return fatal(errUnsoundAverage(f))
	}

	return notApplicable
}

// approxDistinct handles approximate distinct counts over a dimension or a
// probabilistic-structure carrier.
func (t *Translator) approxDistinct(qb *QueryBuilder, ae *plan.AggregateExpr, col *catalog.Column) matchResult {
	if !col.IsDimension() && !col.HasProbabilisticStructure() {
		return notApplicable
	}

	next := qb.clone()
	name := next.nextAlias()

	switch {
	case next.ds.StructureConfirmed(col.HLLMetric, druid.AggregatorHyperUnique):
		next.aggregations = append(next.aggregations, &druid.HyperUniqueAggregation{
			Name:      name,
			FieldName: col.HLLMetric,
		})
		next.bind(name, ae, plan.TypeLong, druid.TypeHyperUnique)
		return matched(next)

	case next.ds.StructureConfirmed(col.SketchMetric, druid.AggregatorThetaSketch):
		next.aggregations = append(next.aggregations, &druid.SketchAggregation{
			Name:      name,
			FieldName: col.SketchMetric,
		})
		next.bind(name, ae, plan.TypeLong, druid.TypeThetaSketch)
		return matched(next)

	default:
		if !col.IsDimension() {
			return notApplicable
		}
		next.aggregations = append(next.aggregations, &druid.CardinalityAggregation{
			Name:       name,
			FieldNames: []string{col.Name},
		})
		next.bind(name, ae, plan.TypeLong, druid.TypeLong)
		return matched(next)
	}
}

// generatedAggregate is the code-generation fallback. Generation failure is
// an expected outcome and propagates as "not translatable".
func (t *Translator) generatedAggregate(qb *QueryBuilder, ae *plan.AggregateExpr) (*QueryBuilder, error) {
	fns, err := t.codegen.Aggregate(ae)
	if err != nil {
		return nil, nil
	}
	// The store feeds raw column values to the fold with no coercion. Every
	// referenced column must exist, and the numeric folds must read numeric
	// inputs: min over a string dimension is a valid lexicographic aggregate
	// upstream, but Math.min would fold it to NaN.
	for _, input := range fns.Inputs {
		col := qb.ds.Column(input)
		if col == nil {
			return nil, nil
		}
		if ae.Func.Kind != plan.AggCount && !col.IsMetric() {
			return nil, nil
		}
	}
	next := qb.clone()
	name := next.nextAlias()
	next.aggregations = append(next.aggregations, &druid.JavascriptAggregation{
		Name:        name,
		FieldNames:  fns.Inputs,
		FnAggregate: fns.FnAggregate,
		FnCombine:   fns.FnCombine,
		FnReset:     fns.FnReset,
	})
	// Generated aggregators fold in JS numbers.
	next.bind(name, ae, plan.TypeDouble, druid.TypeDouble)
	return next, nil
}

// isLiteralCount recognizes count(1), in literal form or as a degenerate
// reference to the constant column "1".
func isLiteralCount(f plan.AggFunc) bool {
	if f.Kind != plan.AggCount || f.Distinct || len(f.Args) != 1 {
		return false
	}
	switch arg := f.Args[0].(type) {
	case *plan.Literal:
		return arg.Type == plan.LiteralNumber && arg.Value == "1"
	case *plan.ColumnRef:
		return arg.Name == "1"
	}
	return false
}

func errUnsoundAverage(f plan.AggFunc) error {
	return domain.ErrUnsupported("cannot push down %s: the store aggregates at indexing time and the correct sum-of-counts denominator for an average cannot be established", plan.AggKey(&plan.AggregateExpr{Func: f}))
}

// aggOpSuffix and typePrefix cross to the native operator token, e.g.
// sum × LONG -> "longSum".
var aggOpSuffix = map[plan.AggKind]string{
	plan.AggSum:   "Sum",
	plan.AggMin:   "Min",
	plan.AggMax:   "Max",
	plan.AggFirst: "First",
	plan.AggLast:  "Last",
}

var typePrefix = map[plan.DataType]string{
	plan.TypeLong:   "long",
	plan.TypeFloat:  "float",
	plan.TypeDouble: "double",
}

func operatorToken(kind plan.AggKind, subtype plan.DataType) (string, bool) {
	suffix, okKind := aggOpSuffix[kind]
	prefix, okType := typePrefix[subtype]
	if !okKind || !okType {
		return "", false
	}
	return prefix + suffix, true
}

func physicalType(t plan.DataType) druid.Type {
	switch t {
	case plan.TypeLong:
		return druid.TypeLong
	case plan.TypeFloat:
		return druid.TypeFloat
	case plan.TypeDouble:
		return druid.TypeDouble
	default:
		return druid.TypeString
	}
}
