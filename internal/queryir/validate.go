package queryir

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationResult contains the literal-text safety analysis of a query.
//
// Field paths, aliases and view names are emitted into AQL as text. They
// normally come from trusted code, but query objects carry field names as
// keys, so a caller exposing the compiler to user input should reject
// queries that are not safe.
type ValidationResult struct {
	// IsSafe indicates every literal in the query is a plain identifier path.
	IsSafe bool

	// Warnings lists each offending literal. Empty when IsSafe is true.
	Warnings []string
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that every path, alias and source in the query is made
// of plain identifiers joined by dots.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsSafe:   len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// IsIdentifier reports whether s can be emitted as a bare AQL name.
func IsIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// IsPath reports whether every dot-separated segment of s is an identifier.
func IsPath(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !IsIdentifier(seg) {
			return false
		}
	}
	return true
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) checkPath(kind, path string) {
	if !IsPath(path) {
		v.addWarning("%s %q is not a plain identifier path", kind, path)
	}
}

func (v *validator) validateQuery(q Query) {
	if !IsIdentifier(q.Alias) {
		v.addWarning("alias %q is not a plain identifier", q.Alias)
	}

	if q.Projection.Alias != "" && !IsIdentifier(q.Projection.Alias) {
		v.addWarning("return alias %q is not a plain identifier", q.Projection.Alias)
	}
	v.validateProjection(q.Projection.Fields)

	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}

	for _, key := range q.Sort {
		v.checkPath("sort field", key.Field)
	}

	if q.Page.Skip < 0 {
		v.addWarning("negative skip %d", q.Page.Skip)
	}
	if q.Page.Limit < Unset {
		v.addWarning("negative limit %d", q.Page.Limit)
	}

	if q.Search != nil {
		v.validateSearch(*q.Search)
	}
}

func (v *validator) validateProjection(nodes []ProjectionNode) {
	for _, n := range nodes {
		if n.Children != nil {
			v.validateProjection(n.Children)
			continue
		}
		v.checkPath("projected field", n.Expr)
	}
}

func (v *validator) validateSearch(s Search) {
	if s.Predicate != nil {
		v.validatePredicate(s.Predicate)
	}
	if s.Rank != nil {
		if !IsIdentifier(s.Rank.Var) {
			v.addWarning("rank variable %q is not a plain identifier", s.Rank.Var)
		}
		for _, f := range s.Rank.Fields {
			v.checkPath("rank field", f)
		}
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		return
	case Compare:
		v.checkPath("field", pred.Field)
	case Membership:
		v.checkPath("field", pred.Field)
	case FuzzyMatch:
		v.checkPath("search field", pred.Field)
	case PrefixMatch:
		v.checkPath("search field", pred.Field)
	case InSubquery:
		v.checkPath("field", pred.Field)
		if !IsIdentifier(pred.Source) {
			v.addWarning("subquery source %q is not a plain identifier", pred.Source)
		}
		if !IsIdentifier(pred.Alias) {
			v.addWarning("subquery alias %q is not a plain identifier", pred.Alias)
		}
		v.checkPath("subquery return", pred.Return)
		v.validateSearch(pred.Search)
	case Logical:
		for _, operand := range pred.Operands {
			v.validatePredicate(operand)
		}
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}
