package query

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"resdir/internal/apierror"
)

// MaxEqualsValues caps the number of distinct values an equals predicate may
// carry. Discrete-membership and range predicates cannot be merged into one
// OR clause, so oversized sets are rejected rather than degraded. Tunable.
const MaxEqualsValues = 50

// Scope is a composable predicate applied to a gorm query.
type Scope = func(*gorm.DB) *gorm.DB

// FieldBinding ties an API field name to its column and declared type.
type FieldBinding struct {
	Column   string
	DataType DataType
}

// FieldSet is the whitelist of searchable fields for one entity.
type FieldSet map[string]FieldBinding

// Compile turns parsed params into AND-composed scopes against the entity's
// field set. Unknown fields are rejected; each param compiles independently
// per its field's datatype.
func Compile(params []ParsedQueryParam, entity string, fields FieldSet) ([]Scope, error) {
	scopes := make([]Scope, 0, len(params))
	for _, p := range params {
		binding, ok := fields[p.Field]
		if !ok {
			return nil, apierror.BadRequest(
				"Field '%s' isn't searchable (or does not exist) for %s", p.Field, entity)
		}
		s, err := CompileParam(p, binding)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, nil
}

// CompileParam compiles one param against a single field binding.
func CompileParam(p ParsedQueryParam, binding FieldBinding) (Scope, error) {
	if !p.Operator.ApplicableTo(binding.DataType) {
		return nil, apierror.OperatorMismatch(
			"Operator '%s' is not applicable to %s field '%s'",
			p.Operator, binding.DataType, p.Field)
	}
	switch binding.DataType {
	case DataTypeNumeric:
		return compileNumeric(p, binding.Column)
	case DataTypeDate:
		return compileDate(p, binding.Column)
	case DataTypeBoolean:
		return compileBoolean(p, binding.Column)
	default:
		return compileString(p, binding.Column)
	}
}

func distinctCount(vals []int64) int {
	seen := make(map[int64]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func minMaxInt(vals []int64) (int64, int64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func compileNumeric(p ParsedQueryParam, col string) (Scope, error) {
	vals, err := ValueAsIntegerList(p.Value)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, apierror.BadRequest("Invalid query parameter: '%s' (no value)", p.Field)
	}
	lo, hi := minMaxInt(vals)
	return compileComparable(p, col, anySlice(vals), lo, hi, distinctCount(vals))
}

func compileDate(p ParsedQueryParam, col string) (Scope, error) {
	vals, err := ValueAsDateList(p.Value)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, apierror.BadRequest("Invalid query parameter: '%s' (no value)", p.Field)
	}
	lo, hi := vals[0], vals[0]
	seen := make(map[time.Time]struct{}, len(vals))
	for _, v := range vals {
		if v.Before(lo) {
			lo = v
		}
		if v.After(hi) {
			hi = v
		}
		seen[v] = struct{}{}
	}
	return compileComparable(p, col, anySlice(vals), lo, hi, len(seen))
}

// compileComparable is the shared shape of the numeric and date passes:
// membership for equals, min/max bounds for the inequality operators, an
// inclusive range for between.
func compileComparable(p ParsedQueryParam, col string, vals []any, lo, hi any, distinct int) (Scope, error) {
	neg := p.Operator.Negated
	switch p.Operator.Op {
	case OpEquals:
		if distinct > MaxEqualsValues {
			return nil, apierror.OperatorMismatch(
				"Operator 'equals' on field '%s' accepts at most %d distinct values, got %d",
				p.Field, MaxEqualsValues, distinct)
		}
		if neg {
			return where(col+" NOT IN ?", vals), nil
		}
		return where(col+" IN ?", vals), nil
	case OpGt:
		return cmp(col, ">", "<=", neg, hi), nil
	case OpGte:
		return cmp(col, ">=", "<", neg, lo), nil
	case OpLt:
		return cmp(col, "<", ">=", neg, lo), nil
	case OpLte:
		return cmp(col, "<=", ">", neg, hi), nil
	case OpBetween:
		if len(vals) != 2 {
			return nil, apierror.OperatorMismatch(
				"Operator 'between' on field '%s' requires exactly 2 values, got %d",
				p.Field, len(vals))
		}
		if neg {
			return where(col+" NOT BETWEEN ? AND ?", lo, hi), nil
		}
		return where(col+" BETWEEN ? AND ?", lo, hi), nil
	}
	return nil, apierror.OperatorMismatch(
		"Operator '%s' is not applicable to field '%s'", p.Operator, p.Field)
}

func compileBoolean(p ParsedQueryParam, col string) (Scope, error) {
	v, err := ValueAsBoolean(p.Value)
	if err != nil {
		return nil, err
	}
	if p.Operator.Negated {
		v = !v
	}
	return where(col+" = ?", v), nil
}

func compileString(p ParsedQueryParam, col string) (Scope, error) {
	v := p.Value
	neg := p.Operator.Negated
	switch p.Operator.Op {
	case OpEquals:
		return cmp(col, "=", "<>", neg, v), nil
	case OpIEquals:
		return cmpLower(col, "=", "<>", neg, strings.ToLower(v)), nil
	case OpContains:
		return like(col, neg, "%"+v+"%"), nil
	case OpIContains:
		return likeLower(col, neg, "%"+strings.ToLower(v)+"%"), nil
	case OpStartsWith:
		return like(col, neg, v+"%"), nil
	case OpIStartsWith:
		return likeLower(col, neg, strings.ToLower(v)+"%"), nil
	case OpEndsWith:
		return like(col, neg, "%"+v), nil
	case OpIEndsWith:
		return likeLower(col, neg, "%"+strings.ToLower(v)), nil
	case OpLike:
		// Pattern used verbatim; the caller owns its wildcards.
		return like(col, neg, v), nil
	case OpRegex:
		if neg {
			return where("NOT ("+col+" REGEXP ?)", v), nil
		}
		return where(col+" REGEXP ?", v), nil
	}
	return nil, apierror.OperatorMismatch(
		"Operator '%s' is not applicable to field '%s'", p.Operator, p.Field)
}

func where(cond string, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where(cond, args...) }
}

func cmp(col, op, negOp string, negated bool, v any) Scope {
	if negated {
		op = negOp
	}
	return where(fmt.Sprintf("%s %s ?", col, op), v)
}

// cmpLower compares case-insensitively via LOWER so the same SQL runs on
// every supported backend.
func cmpLower(col, op, negOp string, negated bool, v string) Scope {
	if negated {
		op = negOp
	}
	return where(fmt.Sprintf("LOWER(%s) %s ?", col, op), v)
}

func like(col string, negated bool, pattern string) Scope {
	if negated {
		return where(col+" NOT LIKE ?", pattern)
	}
	return where(col+" LIKE ?", pattern)
}

func likeLower(col string, negated bool, pattern string) Scope {
	if negated {
		return where("LOWER("+col+") NOT LIKE ?", pattern)
	}
	return where("LOWER("+col+") LIKE ?", pattern)
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
