package plan

// === Expression Nodes ===

// Expr is the interface implemented by all scalar expression nodes.
type Expr interface {
	exprNode()
}

// ColumnRef represents a reference to a source column.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal represents a literal value (number, string, bool, null).
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) exprNode() {}

// Cast represents an explicit conversion of an expression to a logical type.
type Cast struct {
	Expr Expr
	To   DataType
}

func (*Cast) exprNode() {}

// ScalarFunc represents a scalar function call (arithmetic, string and time
// functions). Names are lower-case.
type ScalarFunc struct {
	Name string
	Args []Expr
}

func (*ScalarFunc) exprNode() {}

// === Aggregate Descriptors ===

// AggKind identifies an aggregate function.
type AggKind string

const (
	AggCount               AggKind = "count"
	AggSum                 AggKind = "sum"
	AggMin                 AggKind = "min"
	AggMax                 AggKind = "max"
	AggAvg                 AggKind = "avg"
	AggFirst               AggKind = "first"
	AggLast                AggKind = "last"
	AggApproxCountDistinct AggKind = "approx_count_distinct"
)

// AggFunc describes one aggregate function call.
type AggFunc struct {
	Kind       AggKind
	Args       []Expr
	Distinct   bool
	OutputType DataType // declared logical output type
}

// AggregateExpr wraps an aggregate function as it appears in the select list.
type AggregateExpr struct {
	Func  AggFunc
	Alias string // output name requested by the query, may be empty
}

func (*AggregateExpr) exprNode() {}
