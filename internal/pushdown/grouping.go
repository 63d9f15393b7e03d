package pushdown

import (
	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// groupingSpec maps one group-by expression to a dimension spec. It returns
// (nil, nil) when the expression has no translation, and an error only for
// the fatal not-indexed case.
func (t *Translator) groupingSpec(qb *QueryBuilder, e plan.Expr) (*QueryBuilder, error) {
	// Direct reference to a non-time dimension.
	if ref, ok := e.(*plan.ColumnRef); ok {
		if col := qb.ds.Column(ref.Name); col != nil && col.IsDimension() {
			if col.NotIndexed {
				// The column exists but can never be grouped on, no matter
				// how the rest of the query looks. Refusing silently would
				// let the caller fall back to a plan that still cannot
				// produce the grouping.
				return nil, domain.ErrUnsupported("dimension %q of datasource %q is not indexed and cannot be grouped on", col.Name, qb.ds.Name)
			}
			if !groupableType(col.DruidType) {
				return nil, nil
			}
			next := qb.clone()
			// A source column may itself be named like a generated alias;
			// rename its output rather than collide with one.
			name := col.Name
			if _, taken := next.Binding(name); taken {
				name = next.nextAlias()
			}
			next.dimensions = append(next.dimensions, &druid.DefaultDimension{
				Dimension:  col.Name,
				OutputName: name,
			})
			next.bind(name, e, col.LogicalType(), col.DruidType)
			return next, nil
		}
	}

	// Time-bucketing or time-formatting transform over a time column.
	if tg := t.recognize(e, t.timeZone); tg != nil {
		if next := t.timeGroupSpec(qb, e, tg); next != nil {
			return next, nil
		}
		return nil, nil
	}

	// Generated-code fallback. The store applies an extraction function to
	// one dimension's raw values, so the single referenced column must be a
	// groupable dimension.
	fn, err := t.codegen.Extraction(e)
	if err != nil {
		return nil, nil
	}
	if col := qb.ds.Column(fn.Inputs[0]); col == nil || !col.IsDimension() || col.NotIndexed {
		return nil, nil
	}
	next := qb.clone()
	name := next.nextAlias()
	next.dimensions = append(next.dimensions, &druid.ExtractionDimension{
		Dimension:    fn.Inputs[0],
		OutputName:   name,
		ExtractionFn: &druid.JavascriptExtraction{Function: fn.Function()},
	})
	// Generated extraction functions only ever produce string values.
	next.bind(name, e, plan.TypeString, druid.TypeString)
	return next, nil
}

// timeGroupSpec emits the extraction dimension spec for a recognized time
// group, or nil when the descriptor does not line up with the catalog.
func (t *Translator) timeGroupSpec(qb *QueryBuilder, e plan.Expr, tg *TimeGroupDescriptor) *QueryBuilder {
	col := qb.ds.Column(tg.TimeColumn)
	if col == nil {
		return nil
	}
	// Without a parse format the raw value must already be time-typed. With
	// one, the store parses a dimension's raw values, so the column must be a
	// groupable dimension just like in the generated-extraction path.
	if tg.InputFormat == "" && !col.IsTimeDimension() {
		return nil
	}
	if tg.InputFormat != "" && (!col.IsDimension() || col.NotIndexed) {
		return nil
	}

	var fn druid.ExtractionFn
	if tg.InputFormat != "" {
		fn = &druid.TimeParsingExtraction{
			TimeFormat:   tg.InputFormat,
			ResultFormat: tg.OutputFormat,
		}
	} else {
		fn = &druid.TimeFormatExtraction{
			Format:   tg.OutputFormat,
			TimeZone: tg.TimeZone,
		}
	}

	next := qb.clone()
	name := tg.OutputName
	if name == "" {
		name = next.nextAlias()
	}
	next.dimensions = append(next.dimensions, &druid.ExtractionDimension{
		Dimension:    col.Name,
		OutputName:   name,
		ExtractionFn: fn,
	})
	next.bind(name, e, col.LogicalType(), col.DruidType)
	return next
}

// groupableType reports whether a dimension's physical type can serve as a
// grouping key.
func groupableType(t druid.Type) bool {
	switch t {
	case druid.TypeHyperUnique, druid.TypeThetaSketch:
		return false
	}
	return true
}
