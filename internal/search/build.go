package search

import (
	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// RankVar is the variable search hits are ranked by.
const RankVar = "distance"

// Build compiles a free-text query against the profile registered for
// collection, matching documents bound to alias.
//
// Each fuzzy field contributes a Levenshtein match and a prefix match, all
// OR-joined. An exactInt field adds an equality against the query read as
// an integer (0 when it is not one). Hits rank by the summed edit distance
// of every fuzzy field. A related profile instead yields a membership test
// against a search over the related view.
func (r *Registry) Build(collection, alias, query string) queryir.Search {
	p, _ := r.Lookup(collection)
	return r.render(p, alias, query)
}

func (r *Registry) render(p Profile, alias, query string) queryir.Search {
	if rel := p.Related; rel != nil {
		// NewRegistry guarantees the related profile exists and the chain ends.
		related, _ := r.Lookup(rel.Profile)
		return queryir.Search{
			Mode: queryir.SearchModeFilter,
			Predicate: queryir.InSubquery{
				Field:  alias + "." + rel.Field,
				Source: rel.View,
				Alias:  rel.Alias,
				Search: r.render(related, rel.Alias, query),
				Return: rel.Alias + "." + rel.Return,
			},
		}
	}

	var matches []queryir.Predicate
	fields := make([]string, 0, len(p.Fuzzy))
	for _, f := range p.Fuzzy {
		path := alias + "." + f.Field
		fields = append(fields, path)
		matches = append(matches,
			queryir.FuzzyMatch{Field: path, Query: query, Threshold: f.Threshold},
			queryir.PrefixMatch{Field: path, Query: query},
		)
	}

	if p.ExactInt != "" {
		n, _ := ir.ParseInt(query)
		matches = append(matches, queryir.Compare{
			Field: alias + "." + p.ExactInt,
			Op:    queryir.OpEq,
			Value: n,
		})
	}

	return queryir.Search{
		Mode:      queryir.SearchModeView,
		Predicate: queryir.Join(queryir.CombineOr, matches...),
		Rank: &queryir.Rank{
			Var:    RankVar,
			Fields: fields,
			Query:  query,
		},
	}
}
