package querybuilder

import (
	"strings"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// Operator is a reserved query object key.
type Operator int

const (
	OpSelect Operator = iota + 1
	OpLimit
	OpSkip
	OpSort
	OpIn
	OpNin
	OpLt
	OpLte
	OpGt
	OpGte
	OpNe
	OpNot
	OpOr
	OpAQL
	OpResolve
	OpSearch
	OpCalculate
)

var operatorNames = map[Operator]string{
	OpSelect:    "$select",
	OpLimit:     "$limit",
	OpSkip:      "$skip",
	OpSort:      "$sort",
	OpIn:        "$in",
	OpNin:       "$nin",
	OpLt:        "$lt",
	OpLte:       "$lte",
	OpGt:        "$gt",
	OpGte:       "$gte",
	OpNe:        "$ne",
	OpNot:       "$not",
	OpOr:        "$or",
	OpAQL:       "$aql",
	OpResolve:   "$resolve",
	OpSearch:    "$search",
	OpCalculate: "$calculate",
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[name] = op
	}
	return m
}()

// String returns the operator key, e.g. "$gte".
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// Lookup returns the operator named by key. Matching ignores case.
func Lookup(key string) (Operator, bool) {
	op, ok := operatorsByName[strings.ToLower(key)]
	return op, ok
}

// IsReserved reports whether key is a reserved operator key.
func IsReserved(key string) bool {
	_, ok := Lookup(key)
	return ok
}

// comparison builds the predicate for one field operator.
type comparison struct {
	op    Operator
	build func(field string, payload any) queryir.Predicate
}

// comparisons lists the field operators in extraction order. When several
// are present on one value, the earliest in this list is extracted first.
var comparisons = []comparison{
	{OpIn, membership(queryir.QuantifierAny)},
	{OpNin, membership(queryir.QuantifierNone)},
	{OpNot, compare(queryir.OpNe)},
	{OpLt, compare(queryir.OpLt)},
	{OpLte, compare(queryir.OpLte)},
	{OpGt, compare(queryir.OpGt)},
	{OpGte, compare(queryir.OpGte)},
	{OpNe, compare(queryir.OpNe)},
}

func compare(op queryir.CompareOp) func(string, any) queryir.Predicate {
	return func(field string, payload any) queryir.Predicate {
		return queryir.Compare{Field: field, Op: op, Value: payload}
	}
}

func membership(q queryir.Quantifier) func(string, any) queryir.Predicate {
	return func(field string, payload any) queryir.Predicate {
		return queryir.Membership{Field: field, Quantifier: q, Values: asArray(payload)}
	}
}

// asArray coerces a membership payload to an array: nil is empty and any
// other non-array is a single element.
func asArray(v any) []any {
	if v == nil {
		return []any{}
	}
	if elems, ok := ir.Elements(v); ok {
		return elems
	}
	return []any{v}
}

