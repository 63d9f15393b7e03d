// Package plan defines the logical-plan algebra the push-down translator
// consumes: scalar expressions, aggregate descriptors, and relational nodes.
package plan

// DataType is a logical (query-level) column type.
type DataType string

const (
	TypeString    DataType = "STRING"
	TypeLong      DataType = "LONG"
	TypeFloat     DataType = "FLOAT"
	TypeDouble    DataType = "DOUBLE"
	TypeTimestamp DataType = "TIMESTAMP"
	TypeDate      DataType = "DATE"
)

// numericPrecedence orders the numeric types by widening precedence.
// A value of a lower-precedence type can always be losslessly coerced to a
// higher-precedence one.
var numericPrecedence = map[DataType]int{
	TypeLong:   1,
	TypeFloat:  2,
	TypeDouble: 3,
}

// Numeric reports whether the type participates in numeric widening.
func (t DataType) Numeric() bool {
	_, ok := numericPrecedence[t]
	return ok
}

// TightestCommonType returns the minimal numeric type to which both a and b
// can be losslessly coerced, or false when no such type exists.
func TightestCommonType(a, b DataType) (DataType, bool) {
	pa, okA := numericPrecedence[a]
	pb, okB := numericPrecedence[b]
	if !okA || !okB {
		return "", false
	}
	if pa >= pb {
		return a, true
	}
	return b, true
}
