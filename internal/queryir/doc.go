// Package queryir provides the predicate AST that query objects compile to.
//
// ARCHITECTURE:
//
//	[query object] → querybuilder → [queryir.Query] → queryaql → [AQL fragments + bind vars]
//
// The builder is a pure recursive translation that returns nodes; it never
// writes query text. The renderer owns all text generation and all bind
// variable naming. Keeping the two apart means the AST can be inspected,
// validated and snapshotted without caring about parameter names.
//
// SEALED INTERFACES:
//
// Predicate is sealed with the marker method pattern. Only types in this
// package implement it, so renderers can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case Membership:
//	case Logical:
//	case FuzzyMatch:
//	case PrefixMatch:
//	case InSubquery:
//	}
//
// VALUES:
//
// Compare.Value, Membership.Values and the search query strings are data.
// Renderers MUST bind them as parameters, never interpolate them. Field
// paths and aliases are trusted literal text; Validate reports paths that
// are not plain identifiers.
package queryir
