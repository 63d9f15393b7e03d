package plan

// === Relational Nodes ===

// Node is the interface implemented by all relational plan nodes.
type Node interface {
	planNode()
}

// Scan reads a datasource.
type Scan struct {
	Datasource string
}

func (*Scan) planNode() {}

// Project computes a list of expressions over its input.
type Project struct {
	Exprs []Expr
	Input Node
}

func (*Project) planNode() {}

// Filter keeps input rows satisfying a condition.
type Filter struct {
	Condition Expr
	Input     Node
}

func (*Filter) planNode() {}

// Aggregate groups its input and computes aggregate expressions.
type Aggregate struct {
	GroupBy    []Expr
	Aggregates []*AggregateExpr
	Input      Node
}

func (*Aggregate) planNode() {}

// Expand replicates each input row once per projection list. Planners insert
// it when rewriting a query with multiple distinct aggregates into a
// two-phase aggregation.
type Expand struct {
	Projections [][]Expr
	Input       Node
}

func (*Expand) planNode() {}
