package plan

import (
	"fmt"
	"strings"
)

// ExprKey renders an expression into a deterministic string form. Two
// expressions are structurally equal exactly when their keys are equal, so
// the key doubles as a deduplication key and a stable display form.
func ExprKey(e Expr) string {
	switch ex := e.(type) {
	case *ColumnRef:
		return ex.Name
	case *Literal:
		switch ex.Type {
		case LiteralString:
			return fmt.Sprintf("'%s'", ex.Value)
		case LiteralNull:
			return "null"
		default:
			return ex.Value
		}
	case *Cast:
		return fmt.Sprintf("cast(%s as %s)", ExprKey(ex.Expr), ex.To)
	case *ScalarFunc:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = ExprKey(a)
		}
		return fmt.Sprintf("%s(%s)", ex.Name, strings.Join(args, ", "))
	case *AggregateExpr:
		return AggKey(ex)
	default:
		return fmt.Sprintf("%#v", e)
	}
}

// AggKey renders an aggregate expression into its deduplication key. The
// requested alias is deliberately excluded: two calls differing only in
// alias compute the same value.
func AggKey(ae *AggregateExpr) string {
	f := ae.Func
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = ExprKey(a)
	}
	distinct := ""
	if f.Distinct {
		distinct = "distinct "
	}
	return fmt.Sprintf("%s(%s%s):%s", f.Kind, distinct, strings.Join(args, ", "), f.OutputType)
}
