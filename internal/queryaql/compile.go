package queryaql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// Compile renders q into AQL fragments and bind variables.
//
// CRITICAL: values (including search text) are bound, never interpolated.
// Equal scalar values share one bind variable.
func Compile(q queryir.Query) (*Compiled, error) {
	r := newRenderer()

	c := &Compiled{
		Collection: q.Collection,
		Alias:      q.Alias,
		Projection: r.renderProjection(q.Alias, q.Projection),
		Sort:       r.renderSort(q.Sort),
		Pagination: r.renderPage(q.Page),
	}

	if q.Filter != nil {
		filter, err := r.renderPredicate(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("compile filter: %w", err)
		}
		c.Filter = filter
	}

	if q.Search != nil {
		search, err := r.renderSearch(*q.Search)
		if err != nil {
			return nil, fmt.Errorf("compile search: %w", err)
		}
		c.Search = search
	}

	c.BindVars = r.bindVars
	return c, nil
}

// renderer holds the bind state of one Compile call.
type renderer struct {
	bindVars map[string]any
	// names maps comparable scalar values to the variable already bound to them.
	names map[any]string
}

func newRenderer() *renderer {
	return &renderer{
		bindVars: make(map[string]any),
		names:    make(map[any]string),
	}
}

// bind registers v and returns its placeholder ("@value0").
func (r *renderer) bind(v any) string {
	v = ir.Plain(v)

	reuse := isComparableScalar(v)
	if reuse {
		if name, ok := r.names[v]; ok {
			return "@" + name
		}
	}

	name := "value" + strconv.Itoa(len(r.bindVars))
	r.bindVars[name] = v
	if reuse {
		r.names[v] = name
	}
	return "@" + name
}

func isComparableScalar(v any) bool {
	switch v.(type) {
	case nil:
		return true
	default:
		return ir.IsScalar(v)
	}
}

// renderPredicate compiles a predicate to an AQL boolean expression.
func (r *renderer) renderPredicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return fmt.Sprintf("%s %s %s", pred.Field, pred.Op, r.bind(pred.Value)), nil

	case queryir.Membership:
		return fmt.Sprintf("%s %s == %s", r.bind(pred.Values), pred.Quantifier, pred.Field), nil

	case queryir.Logical:
		return r.renderLogical(pred)

	case queryir.FuzzyMatch:
		return fmt.Sprintf(`ANALYZER(LEVENSHTEIN_MATCH(%s, LOWER(%s), %d), "lowercase")`,
			pred.Field, r.bind(pred.Query), pred.Threshold), nil

	case queryir.PrefixMatch:
		return fmt.Sprintf(`ANALYZER(STARTS_WITH(%s, LOWER(%s)), "lowercase")`,
			pred.Field, r.bind(pred.Query)), nil

	case queryir.InSubquery:
		return r.renderSubquery(pred)

	case nil:
		return "", fmt.Errorf("nil predicate")

	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// renderLogical joins operands with the combinator, parenthesizing nested
// groups so precedence never depends on AQL's AND-before-OR rule.
func (r *renderer) renderLogical(l queryir.Logical) (string, error) {
	if len(l.Operands) == 0 {
		if l.Op == queryir.CombineOr {
			return "false", nil
		}
		return "true", nil
	}

	parts := make([]string, 0, len(l.Operands))
	for _, operand := range l.Operands {
		s, err := r.renderPredicate(operand)
		if err != nil {
			return "", err
		}
		if nested, ok := operand.(queryir.Logical); ok && len(nested.Operands) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+string(l.Op)+" "), nil
}

// renderSubquery compiles
//
//	<field> IN (FOR <alias> IN <source> SEARCH ... RETURN <return>)
func (r *renderer) renderSubquery(sub queryir.InSubquery) (string, error) {
	inner, err := r.renderSearch(sub.Search)
	if err != nil {
		return "", fmt.Errorf("subquery %s: %w", sub.Source, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s IN (FOR %s IN %s %s %s", sub.Field, sub.Alias, sub.Source, inner.Mode, inner.Predicate)
	if inner.Let != "" {
		b.WriteString(" " + inner.Let)
	}
	if inner.Sort != "" {
		b.WriteString(" SORT " + inner.Sort)
	}
	fmt.Fprintf(&b, " RETURN %s)", sub.Return)
	return b.String(), nil
}

func (r *renderer) renderSearch(s queryir.Search) (*SearchFragment, error) {
	pred, err := r.renderPredicate(s.Predicate)
	if err != nil {
		return nil, err
	}

	mode := s.Mode
	if mode == "" {
		mode = queryir.SearchModeView
	}
	frag := &SearchFragment{Predicate: pred, Mode: mode}

	if s.Rank != nil && len(s.Rank.Fields) > 0 {
		q := r.bind(s.Rank.Query)
		terms := make([]string, len(s.Rank.Fields))
		for i, f := range s.Rank.Fields {
			terms[i] = fmt.Sprintf("LEVENSHTEIN_DISTANCE(LOWER(%s), LOWER(%s))", f, q)
		}
		frag.Let = fmt.Sprintf("LET %s = %s", s.Rank.Var, strings.Join(terms, " + "))
		frag.Sort = s.Rank.Var
	}
	return frag, nil
}

// renderSort compiles sort keys to "doc.age DESC, doc.name ASC".
func (r *renderer) renderSort(keys []queryir.SortKey) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts[i] = k.Field + " " + dir
	}
	return strings.Join(parts, ", ")
}

// renderPage compiles a window to "LIMIT skip, count".
// The zero window compiles to nothing.
func (r *renderer) renderPage(p queryir.Page) string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("LIMIT %d, %d", p.Skip, p.Count())
}

// renderProjection compiles the RETURN clause.
func (r *renderer) renderProjection(alias string, p queryir.Projection) string {
	ret := p.Alias
	if ret == "" {
		ret = alias
	}
	if len(p.Fields) == 0 {
		return "RETURN " + ret
	}
	return "RETURN " + renderObject(p.Fields)
}

func renderObject(nodes []queryir.ProjectionNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		value := n.Expr
		if n.Children != nil {
			value = renderObject(n.Children)
		}
		parts[i] = quoteKey(n.Key) + ": " + value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// quoteKey renders key as a JSON string literal, which AQL accepts as an
// object attribute name.
func quoteKey(key string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(key) // encoding a string cannot fail
	return strings.TrimSuffix(b.String(), "\n")
}
