package queryir

// Predicate is a boolean condition over one document.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// CompareOp is a binary comparison operator, spelled as in AQL.
type CompareOp string

const (
	OpEq  CompareOp = "=="
	OpNe  CompareOp = "!="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
)

// Compare represents a field-versus-value comparison.
//
// Semantics:
//
//	<field> <op> @value
//
// Field is the full document path including the alias (e.g. "doc.age").
type Compare struct {
	Field string
	Op    CompareOp
	Value any
}

func (Compare) predicateNode() {}

// Quantifier selects the array comparison form used by Membership.
type Quantifier string

const (
	QuantifierAny  Quantifier = "ANY"
	QuantifierNone Quantifier = "NONE"
)

// Membership tests a field against a list of values.
//
// Semantics:
//
//	@values ANY == <field>   // field is one of values
//	@values NONE == <field>  // field is none of values
//
// Values is bound as a single array parameter.
type Membership struct {
	Field      string
	Quantifier Quantifier
	Values     any
}

func (Membership) predicateNode() {}

// Combinator joins predicates.
type Combinator string

const (
	CombineAnd Combinator = "AND"
	CombineOr  Combinator = "OR"
)

// Logical joins operands with one combinator.
// An empty Logical is vacuously true for AND and false for OR; Join never
// produces one.
type Logical struct {
	Op       Combinator
	Operands []Predicate
}

func (Logical) predicateNode() {}

// FuzzyMatch is a case-insensitive Levenshtein match within Threshold edits.
//
// Semantics (ArangoSearch):
//
//	ANALYZER(LEVENSHTEIN_MATCH(<field>, LOWER(@query), <threshold>), "lowercase")
type FuzzyMatch struct {
	Field     string
	Query     string
	Threshold int
}

func (FuzzyMatch) predicateNode() {}

// PrefixMatch is a case-insensitive prefix match.
//
// Semantics (ArangoSearch):
//
//	ANALYZER(STARTS_WITH(<field>, LOWER(@query)), "lowercase")
type PrefixMatch struct {
	Field string
	Query string
}

func (PrefixMatch) predicateNode() {}

// InSubquery tests a field against the results of a search over another view.
//
// Semantics:
//
//	<field> IN (FOR <alias> IN <source> SEARCH <search> RETURN <return>)
//
// Used by edge collections: an edge matches when its _from (or _to) vertex
// matches the search on the vertex view.
type InSubquery struct {
	Field  string
	Source string
	Alias  string
	Search Search
	Return string
}

func (InSubquery) predicateNode() {}

// SearchMode says where a search predicate belongs in an assembled query.
type SearchMode string

const (
	// SearchModeView predicates use ArangoSearch functions and go in SEARCH.
	SearchModeView SearchMode = "SEARCH"
	// SearchModeFilter predicates are plain AQL and go in FILTER.
	SearchModeFilter SearchMode = "FILTER"
)

// Search is a compiled free-text search.
type Search struct {
	Predicate Predicate
	Rank      *Rank
	Mode      SearchMode
}

// Rank orders search hits by total edit distance, best first.
//
// Semantics:
//
//	LET <var> = LEVENSHTEIN_DISTANCE(LOWER(<f1>), LOWER(@query)) + ...
//	SORT <var>
type Rank struct {
	Var    string
	Fields []string
	Query  string
}

// SortKey is one entry of an ordering clause.
type SortKey struct {
	Field string
	Desc  bool
}

// Unset marks a Page limit that was not given.
const Unset int64 = -1

// MaxLimit stands in for "no limit" when only a skip was given.
// It is a ceiling, not infinity: AQL LIMIT needs a count.
const MaxLimit int64 = 1_000_000_000

// Page is a skip/limit window. The zero window is Page{Skip: 0, Limit: Unset}.
type Page struct {
	Skip  int64
	Limit int64
}

// NoPage returns the window that selects everything.
func NoPage() Page {
	return Page{Skip: 0, Limit: Unset}
}

// IsZero reports whether the window leaves the result unbounded.
func (p Page) IsZero() bool {
	return p.Skip == 0 && p.Limit == Unset
}

// Count returns the effective LIMIT count.
func (p Page) Count() int64 {
	if p.Limit == Unset {
		return MaxLimit
	}
	return p.Limit
}

// ProjectionNode is one key of a projected object literal.
// A node has either Expr (a document path) or Children, never both.
type ProjectionNode struct {
	Key      string
	Expr     string
	Children []ProjectionNode
}

// Projection is the RETURN clause. Nil Fields returns the whole document.
type Projection struct {
	Alias  string
	Fields []ProjectionNode
}

// Query is a fully translated query object.
type Query struct {
	Collection string
	Alias      string
	Projection Projection
	Filter     Predicate // nil = no filter
	Sort       []SortKey
	Page       Page
	Search     *Search // nil = no $search
}

// Join combines predicates with op. Nil operands are dropped, operands
// with the same combinator are flattened, and a single survivor is
// returned as is. Join returns nil when nothing survives.
func Join(op Combinator, preds ...Predicate) Predicate {
	var operands []Predicate
	for _, p := range preds {
		if p == nil {
			continue
		}
		if l, ok := p.(Logical); ok && l.Op == op {
			operands = append(operands, l.Operands...)
			continue
		}
		operands = append(operands, p)
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return Logical{Op: op, Operands: operands}
	}
}
