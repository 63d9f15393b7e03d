package pushdown

import "druid-connect/internal/plan"

// TimeGroupDescriptor is the result of recognizing a time-bucketing or
// time-formatting pattern in a group expression.
type TimeGroupDescriptor struct {
	TimeColumn   string
	InputFormat  string // parse format for string-typed time columns, empty when none
	OutputFormat string // format applied to produce the grouping value
	TimeZone     string
	OutputName   string // requested output name, empty when none
}

// TimeGroupRecognizer matches a group expression against known time-group
// shapes, returning nil when the expression is not one. Keeping this
// pluggable lets new time shapes be added without touching aggregation
// logic.
type TimeGroupRecognizer func(e plan.Expr, timeZone string) *TimeGroupDescriptor

// truncFormats maps a date_trunc unit to the output format that reproduces
// the truncation as a formatted grouping value.
var truncFormats = map[string]string{
	"year":   "yyyy",
	"month":  "yyyy-MM",
	"day":    "yyyy-MM-dd",
	"hour":   "yyyy-MM-dd HH",
	"minute": "yyyy-MM-dd HH:mm",
	"second": "yyyy-MM-dd HH:mm:ss",
}

// RecognizeTimeGroup is the default recognizer. Shapes handled:
//
//	date_format(col, 'fmt')
//	date_format(parse_time(col, 'infmt'), 'fmt')
//	date_trunc('unit', col)
//	cast(col as DATE)
func RecognizeTimeGroup(e plan.Expr, timeZone string) *TimeGroupDescriptor {
	if c, ok := e.(*plan.Cast); ok {
		ref, isRef := c.Expr.(*plan.ColumnRef)
		if !isRef || c.To != plan.TypeDate {
			return nil
		}
		return &TimeGroupDescriptor{
			TimeColumn:   ref.Name,
			OutputFormat: truncFormats["day"],
			TimeZone:     timeZone,
		}
	}

	f, ok := e.(*plan.ScalarFunc)
	if !ok {
		return nil
	}

	switch f.Name {
	case "date_format":
		if len(f.Args) != 2 {
			return nil
		}
		format, ok := stringLiteral(f.Args[1])
		if !ok {
			return nil
		}
		switch arg := f.Args[0].(type) {
		case *plan.ColumnRef:
			return &TimeGroupDescriptor{
				TimeColumn:   arg.Name,
				OutputFormat: format,
				TimeZone:     timeZone,
			}
		case *plan.ScalarFunc:
			if arg.Name != "parse_time" && arg.Name != "to_timestamp" {
				return nil
			}
			if len(arg.Args) != 2 {
				return nil
			}
			col, ok := arg.Args[0].(*plan.ColumnRef)
			if !ok {
				return nil
			}
			inputFormat, ok := stringLiteral(arg.Args[1])
			if !ok {
				return nil
			}
			return &TimeGroupDescriptor{
				TimeColumn:   col.Name,
				InputFormat:  inputFormat,
				OutputFormat: format,
				TimeZone:     timeZone,
			}
		}
		return nil

	case "date_trunc":
		if len(f.Args) != 2 {
			return nil
		}
		unit, ok := stringLiteral(f.Args[0])
		if !ok {
			return nil
		}
		format, ok := truncFormats[unit]
		if !ok {
			return nil
		}
		col, ok := f.Args[1].(*plan.ColumnRef)
		if !ok {
			return nil
		}
		return &TimeGroupDescriptor{
			TimeColumn:   col.Name,
			OutputFormat: format,
			TimeZone:     timeZone,
		}
	}

	return nil
}

func stringLiteral(e plan.Expr) (string, bool) {
	lit, ok := e.(*plan.Literal)
	if !ok || lit.Type != plan.LiteralString {
		return "", false
	}
	return lit.Value, true
}
