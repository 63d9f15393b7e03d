// Package jscodegen compiles logical scalar and aggregate expressions into
// JavaScript function bodies the store can evaluate per row. It is the
// fallback path for expressions with no native equivalent; callers treat a
// generation error as "not expressible", never as a query failure.
package jscodegen

import (
	"fmt"
	"strings"

	"druid-connect/internal/plan"
)

// ScalarFunc is a generated single-expression function.
type ScalarFunc struct {
	Params []string // parameter names, one per referenced column
	Body   string   // JS expression over Params
	Inputs []string // referenced source columns, same order as Params
}

// Function renders the complete JS function literal.
func (f *ScalarFunc) Function() string {
	return fmt.Sprintf("function(%s) { return %s; }", strings.Join(f.Params, ", "), f.Body)
}

// AggregateFuncs holds the three bodies of a generated-code aggregator.
type AggregateFuncs struct {
	Inputs      []string
	FnAggregate string
	FnCombine   string
	FnReset     string
}

// Generator compiles expressions with a fixed time zone.
type Generator struct {
	TimeZone string
}

// NewGenerator creates a generator for the given time zone.
func NewGenerator(timeZone string) *Generator {
	return &Generator{TimeZone: timeZone}
}

// Scalar compiles a scalar expression into a function of its referenced
// columns. Unsupported shapes return an error.
func (g *Generator) Scalar(e plan.Expr) (*ScalarFunc, error) {
	inputs := plan.CollectColumns(e)
	params := make(map[string]string, len(inputs))
	for _, col := range inputs {
		params[col] = jsIdentifier(col)
	}

	body, err := g.compile(e, params)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(inputs))
	for i, col := range inputs {
		names[i] = params[col]
	}
	return &ScalarFunc{Params: names, Body: body, Inputs: inputs}, nil
}

// Extraction compiles an expression into an extraction function body. The
// expression must reference exactly one column, since the store hands an
// extraction function one raw dimension value at a time.
func (g *Generator) Extraction(e plan.Expr) (*ScalarFunc, error) {
	fn, err := g.Scalar(e)
	if err != nil {
		return nil, err
	}
	if len(fn.Inputs) != 1 {
		return nil, fmt.Errorf("extraction function needs exactly one input column, expression references %d", len(fn.Inputs))
	}
	return fn, nil
}

// AverageCandidate reports whether the aggregate would compile as an
// average-like computation. Callers use this as a pre-flight probe; the
// translator refuses such functions rather than generating them, because the
// correct denominator cannot be established from store metadata.
func (g *Generator) AverageCandidate(f plan.AggFunc) bool {
	if f.Kind != plan.AggAvg || len(f.Args) != 1 {
		return false
	}
	_, err := g.Scalar(f.Args[0])
	return err == nil
}

// Aggregate compiles an aggregate expression into fold/combine/reset bodies.
func (g *Generator) Aggregate(ae *plan.AggregateExpr) (*AggregateFuncs, error) {
	f := ae.Func
	if len(f.Args) != 1 {
		return nil, fmt.Errorf("cannot generate aggregator for %d-argument %s", len(f.Args), f.Kind)
	}

	arg, err := g.Scalar(f.Args[0])
	if err != nil {
		return nil, err
	}

	// SQL aggregates skip null inputs, so every fold leaves the accumulator
	// untouched when the row's value is null.
	var fold, zero string
	value := arg.Body
	switch f.Kind {
	case plan.AggSum:
		fold, zero = fmt.Sprintf("(%s) != null ? current + (%s) : current", value, value), "0"
	case plan.AggCount:
		fold, zero = fmt.Sprintf("(%s) != null ? current + 1 : current", value), "0"
	case plan.AggMin:
		fold, zero = fmt.Sprintf("(%s) != null ? Math.min(current, (%s)) : current", value, value), "Number.POSITIVE_INFINITY"
	case plan.AggMax:
		fold, zero = fmt.Sprintf("(%s) != null ? Math.max(current, (%s)) : current", value, value), "Number.NEGATIVE_INFINITY"
	default:
		return nil, fmt.Errorf("no generated aggregator for %s", f.Kind)
	}

	combine := "partialA + partialB"
	if f.Kind == plan.AggMin {
		combine = "Math.min(partialA, partialB)"
	} else if f.Kind == plan.AggMax {
		combine = "Math.max(partialA, partialB)"
	}

	return &AggregateFuncs{
		Inputs:      arg.Inputs,
		FnAggregate: fmt.Sprintf("function(current, %s) { return %s; }", strings.Join(arg.Params, ", "), fold),
		FnCombine:   fmt.Sprintf("function(partialA, partialB) { return %s; }", combine),
		FnReset:     fmt.Sprintf("function() { return %s; }", zero),
	}, nil
}

// compile renders one expression node to a JS expression string.
func (g *Generator) compile(e plan.Expr, params map[string]string) (string, error) {
	switch ex := e.(type) {
	case *plan.ColumnRef:
		name, ok := params[ex.Name]
		if !ok {
			return "", fmt.Errorf("unbound column %q", ex.Name)
		}
		return name, nil

	case *plan.Literal:
		switch ex.Type {
		case plan.LiteralString:
			return fmt.Sprintf("%q", ex.Value), nil
		case plan.LiteralNull:
			return "null", nil
		default:
			return ex.Value, nil
		}

	case *plan.Cast:
		inner, err := g.compile(ex.Expr, params)
		if err != nil {
			return "", err
		}
		switch ex.To {
		case plan.TypeString:
			return fmt.Sprintf("String(%s)", inner), nil
		case plan.TypeLong:
			return fmt.Sprintf("Math.floor(Number(%s))", inner), nil
		case plan.TypeFloat, plan.TypeDouble:
			return fmt.Sprintf("Number(%s)", inner), nil
		default:
			return "", fmt.Errorf("cannot generate cast to %s", ex.To)
		}

	case *plan.ScalarFunc:
		return g.compileFunc(ex, params)

	default:
		return "", fmt.Errorf("cannot generate code for %T", e)
	}
}

func (g *Generator) compileFunc(f *plan.ScalarFunc, params map[string]string) (string, error) {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		s, err := g.compile(a, params)
		if err != nil {
			return "", err
		}
		args[i] = s
	}

	switch f.Name {
	case "add", "+":
		return binary(args, "+")
	case "subtract", "-":
		return binary(args, "-")
	case "multiply", "*":
		return binary(args, "*")
	case "divide", "/":
		return binary(args, "/")
	case "mod", "%":
		return binary(args, "%")
	case "concat":
		return "(" + strings.Join(args, " + ") + ")", nil
	case "upper":
		return unary(args, "(%s).toUpperCase()")
	case "lower":
		return unary(args, "(%s).toLowerCase()")
	case "length":
		return unary(args, "(%s).length")
	case "abs":
		return unary(args, "Math.abs(%s)")
	case "substring":
		if len(args) != 3 {
			return "", fmt.Errorf("substring needs 3 arguments, got %d", len(args))
		}
		return fmt.Sprintf("(%s).substring(%s, (%s) + (%s))", args[0], args[1], args[1], args[2]), nil
	default:
		return "", fmt.Errorf("no generated code for function %q", f.Name)
	}
}

func binary(args []string, op string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("operator %q needs 2 arguments, got %d", op, len(args))
	}
	return fmt.Sprintf("((%s) %s (%s))", args[0], op, args[1]), nil
}

func unary(args []string, format string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("function needs 1 argument, got %d", len(args))
	}
	return fmt.Sprintf(format, args[0]), nil
}

// jsIdentifier rewrites a column name into a safe JS parameter name.
func jsIdentifier(col string) string {
	var b strings.Builder
	b.WriteString("v_")
	for _, r := range col {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
