package plan

// CollectColumns returns the deduplicated source column names referenced by
// an expression, in first-seen order.
func CollectColumns(e Expr) []string {
	seen := make(map[string]bool)
	var cols []string
	walkExpr(e, seen, &cols)
	return cols
}

// walkExpr recursively traverses an expression tree, collecting ColumnRef
// names.
func walkExpr(e Expr, seen map[string]bool, cols *[]string) {
	switch ex := e.(type) {
	case *ColumnRef:
		if !seen[ex.Name] {
			seen[ex.Name] = true
			*cols = append(*cols, ex.Name)
		}
	case *Cast:
		walkExpr(ex.Expr, seen, cols)
	case *ScalarFunc:
		for _, a := range ex.Args {
			walkExpr(a, seen, cols)
		}
	case *AggregateExpr:
		for _, a := range ex.Func.Args {
			walkExpr(a, seen, cols)
		}
	}
}

// DatasourceName walks a plan subtree down to its Scan leaf and returns the
// datasource name. Returns empty string when the subtree has no single scan.
func DatasourceName(n Node) string {
	switch node := n.(type) {
	case *Scan:
		return node.Datasource
	case *Project:
		return DatasourceName(node.Input)
	case *Filter:
		return DatasourceName(node.Input)
	case *Aggregate:
		return DatasourceName(node.Input)
	case *Expand:
		return DatasourceName(node.Input)
	default:
		return ""
	}
}
