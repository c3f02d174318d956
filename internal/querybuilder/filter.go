package querybuilder

import (
	"fmt"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// filter walks one query object. Field predicates are AND-joined; each $or
// contributes one OR group. Directives are returned in clauses.
func (t *translator) filter(query any, alias string, depth int) (queryir.Predicate, clauses, error) {
	var cl clauses
	if depth > t.maxDepth {
		return nil, cl, fmt.Errorf("%w: more than %d levels at %s", ErrMaxDepth, t.maxDepth, alias)
	}

	members, ok := ir.Members(query)
	if !ok {
		if query != nil {
			t.logger.Debug("ignoring non-object query", "alias", alias, "type", fmt.Sprintf("%T", query))
		}
		return nil, cl, nil
	}

	var preds []queryir.Predicate
	for _, m := range members {
		op, reserved := Lookup(m.Key)
		if !reserved {
			p, sub, err := t.field(m.Key, m.Value, alias, depth)
			if err != nil {
				return nil, cl, err
			}
			preds = append(preds, p)
			cl.merge(sub)
			continue
		}

		switch op {
		case OpOr:
			p, sub, err := t.or(m.Value, alias, depth)
			if err != nil {
				return nil, cl, err
			}
			preds = append(preds, p)
			cl.merge(sub)
		case OpLimit:
			n := parseLimit(m.Value)
			cl.limit = &n
		case OpSkip:
			n := parseSkip(m.Value)
			cl.skip = &n
		case OpSort:
			if keys := parseSort(m.Value, alias); keys != nil {
				cl.sort = keys
			}
		case OpSearch:
			if s, ok := parseSearch(m.Value); ok {
				cl.search = &s
				cl.searchAlias = alias
			}
		case OpSelect, OpResolve, OpCalculate, OpAQL:
			// $select is read by project; the others belong to other layers.
		default:
			t.logger.Debug("ignoring field operator outside a field", "alias", alias, "operator", op.String())
		}
	}

	return queryir.Join(queryir.CombineAnd, preds...), cl, nil
}

// or compiles an $or value. A non-array is treated as a one-element array.
// Each element is an AND group and the groups are OR-joined.
func (t *translator) or(value any, alias string, depth int) (queryir.Predicate, clauses, error) {
	elems, ok := ir.Elements(value)
	if !ok {
		elems = []any{value}
	}

	var cl clauses
	groups := make([]queryir.Predicate, 0, len(elems))
	for _, elem := range elems {
		p, sub, err := t.filter(elem, alias, depth+1)
		if err != nil {
			return nil, cl, err
		}
		groups = append(groups, p)
		cl.merge(sub)
	}
	return queryir.Join(queryir.CombineOr, groups...), cl, nil
}

// field compiles the value of one field key.
func (t *translator) field(key string, value any, alias string, depth int) (queryir.Predicate, clauses, error) {
	path := alias + "." + key

	if ir.IsScalar(value) {
		return queryir.Compare{Field: path, Op: queryir.OpEq, Value: value}, clauses{}, nil
	}
	if ir.IsEmpty(value) {
		return nil, clauses{}, nil
	}
	if elems, ok := ir.Elements(value); ok {
		return queryir.Membership{Field: path, Quantifier: queryir.QuantifierAny, Values: elems}, clauses{}, nil
	}

	members, ok := ir.Members(value)
	if !ok {
		t.logger.Debug("ignoring unsupported value", "field", path, "type", fmt.Sprintf("%T", value))
		return nil, clauses{}, nil
	}
	return t.operators(path, members, depth)
}

// operators extracts the first field operator present in comparison order,
// then recurses on the remaining members. The extracted predicates are
// AND-joined. Once no operator is left, remaining non-reserved keys are
// compiled as a nested filter on path.
func (t *translator) operators(path string, members []ir.Member, depth int) (queryir.Predicate, clauses, error) {
	for _, c := range comparisons {
		for i, m := range members {
			if op, _ := Lookup(m.Key); op != c.op {
				continue
			}
			pred := c.build(path, m.Value)

			rest, cl, err := t.operators(path, withoutIndex(members, i), depth)
			if err != nil {
				return nil, cl, err
			}
			return queryir.Join(queryir.CombineAnd, pred, rest), cl, nil
		}
	}
	return t.leftovers(path, members, depth)
}

func (t *translator) leftovers(path string, members []ir.Member, depth int) (queryir.Predicate, clauses, error) {
	var keys []string
	for _, m := range members {
		if !IsReserved(m.Key) {
			keys = append(keys, m.Key)
		}
	}
	if len(keys) == 0 {
		return nil, clauses{}, nil
	}

	t.logger.Debug("compiling leftover keys as nested filter", "field", path, "keys", keys)
	return t.filter(ir.Object(members), path, depth+1)
}

func withoutIndex(members []ir.Member, i int) []ir.Member {
	out := make([]ir.Member, 0, len(members)-1)
	out = append(out, members[:i]...)
	return append(out, members[i+1:]...)
}
