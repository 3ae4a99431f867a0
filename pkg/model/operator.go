package model

import "fmt"

// Operator is a comparison operator carried by ranged numeric and time-delta filters.
type Operator string

const (
	OpEq  Operator = "="  // Equal
	OpLt  Operator = "<"  // Less than
	OpLte Operator = "<=" // Less than or equal
	OpGt  Operator = ">"  // Greater than
	OpGte Operator = ">=" // Greater than or equal
)

// Wire suffixes appended to the field name of an operator-bearing parameter.
// They are part of bookmarked URLs and must not change.
var operatorSuffixes = map[Operator]string{
	OpEq:  "",
	OpLt:  "_inf",
	OpLte: "_inf_eg",
	OpGt:  "_sup",
	OpGte: "_sup_eg",
}

// DecodeOrder is the precedence used when several operator variants of one
// field are present: exact, inf, inf_eg, sup, sup_eg.
func DecodeOrder() []Operator {
	return []Operator{OpEq, OpLt, OpLte, OpGt, OpGte}
}

// IsValid checks if the operator is one of the five supported operators.
func (op Operator) IsValid() bool {
	_, ok := operatorSuffixes[op]
	return ok
}

// Suffix returns the parameter name suffix for the operator.
// An invalid operator has no suffix.
func (op Operator) Suffix() string {
	return operatorSuffixes[op]
}

// ParamName returns the wire parameter name for field under this operator.
func (op Operator) ParamName(field string) string {
	return field + op.Suffix()
}

// ParseOperator accepts the ASCII symbols and their typographic variants.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "=", "==", "":
		return OpEq, nil
	case "<":
		return OpLt, nil
	case "<=", "≤":
		return OpLte, nil
	case ">":
		return OpGt, nil
	case ">=", "≥":
		return OpGte, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidValue, s)
}

// OperatorKey returns the name of the synthetic companion entry holding a
// ranged field's operator.
func OperatorKey(field string) string {
	return field + "_operator"
}
