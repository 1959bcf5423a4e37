package query

import (
	"strings"

	"resdir/internal/apierror"
)

// DataType is the declared type of a searchable field.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumeric DataType = "numeric"
	DataTypeDate    DataType = "date"
	DataTypeBoolean DataType = "boolean"
)

// Operator is one of the recognized filter operators, without negation.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpIEquals     Operator = "iequals"
	OpContains    Operator = "contains"
	OpIContains   Operator = "icontains"
	OpStartsWith  Operator = "startswith"
	OpIStartsWith Operator = "istartswith"
	OpEndsWith    Operator = "endswith"
	OpIEndsWith   Operator = "iendswith"
	OpLike        Operator = "like"
	OpRegex       Operator = "regex"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpBetween     Operator = "between"
)

var operators = map[Operator]struct{}{
	OpEquals: {}, OpIEquals: {}, OpContains: {}, OpIContains: {},
	OpStartsWith: {}, OpIStartsWith: {}, OpEndsWith: {}, OpIEndsWith: {},
	OpLike: {}, OpRegex: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpBetween: {},
}

// SearchOperator pairs an operator with its negation flag. The "not_"
// prefix on the wire sets Negated and is stripped before lookup.
type SearchOperator struct {
	Op      Operator
	Negated bool
}

// ParseOperator resolves an operator token, handling the not_ prefix.
func ParseOperator(raw string) (SearchOperator, error) {
	name := raw
	negated := false
	if strings.HasPrefix(name, "not_") {
		negated = true
		name = strings.TrimPrefix(name, "not_")
	}
	op := Operator(name)
	if _, ok := operators[op]; !ok {
		return SearchOperator{}, apierror.BadRequest("Invalid search operator: '%s'", raw)
	}
	return SearchOperator{Op: op, Negated: negated}, nil
}

// ApplicableTo reports whether the operator may be used on a field of the
// given type. Equality works everywhere, comparisons need numbers or dates,
// everything else is string matching.
func (s SearchOperator) ApplicableTo(dt DataType) bool {
	switch s.Op {
	case OpEquals:
		return true
	case OpGt, OpGte, OpLt, OpLte, OpBetween:
		return dt == DataTypeNumeric || dt == DataTypeDate
	default:
		return dt == DataTypeString
	}
}

func (s SearchOperator) String() string {
	if s.Negated {
		return "not_" + string(s.Op)
	}
	return string(s.Op)
}
