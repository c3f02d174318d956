package queryaql

import (
	"maps"
	"strings"

	"github.com/roach88/arangoq/internal/queryir"
)

// SourceParam is the collection bind parameter AQL binds the FOR source to.
const SourceParam = "@source"

// SearchFragment is a compiled free-text search.
type SearchFragment struct {
	// Predicate is the match expression, without its keyword.
	Predicate string
	// Let binds the rank variable ("LET distance = ..."). Empty when unranked.
	Let string
	// Sort is the rank sort key ("distance"). Empty when unranked.
	Sort string
	// Mode says whether Predicate belongs after SEARCH or FILTER.
	Mode queryir.SearchMode
}

// String returns the search clause as one piece:
// "<predicate> LET distance = ... SORT distance".
func (s *SearchFragment) String() string {
	if s == nil {
		return ""
	}
	parts := []string{s.Predicate}
	if s.Let != "" {
		parts = append(parts, s.Let)
	}
	if s.Sort != "" {
		parts = append(parts, "SORT "+s.Sort)
	}
	return strings.Join(parts, " ")
}

// Compiled holds the AQL fragments for one query object.
//
// Fragments carry no clause keyword except Projection ("RETURN ...") and
// Pagination ("LIMIT ..."). Empty strings mean the clause is absent.
// A Compiled is not modified after Compile returns.
type Compiled struct {
	Collection string
	Alias      string
	Projection string
	Filter     string
	Sort       string
	Search     *SearchFragment
	Pagination string
	BindVars   map[string]any
	// Warnings lists literal text that is not a plain identifier path.
	Warnings []string
}

// Fragments returns the clauses that follow "FOR <alias> IN <source>",
// in AQL order.
func (c *Compiled) Fragments() []string {
	var out []string
	var sortKeys []string

	if s := c.Search; s != nil {
		out = append(out, string(s.Mode)+" "+s.Predicate)
		if s.Let != "" {
			out = append(out, s.Let)
		}
		if s.Sort != "" {
			sortKeys = append(sortKeys, s.Sort)
		}
	}
	if c.Filter != "" {
		out = append(out, "FILTER "+c.Filter)
	}
	if c.Sort != "" {
		sortKeys = append(sortKeys, c.Sort)
	}
	if len(sortKeys) > 0 {
		out = append(out, "SORT "+strings.Join(sortKeys, ", "))
	}
	if c.Pagination != "" {
		out = append(out, c.Pagination)
	}
	return append(out, c.Projection)
}

// AQL assembles a complete query over source and returns it with its bind
// variables. source is bound through @@source, never interpolated.
//
// A query with a view-mode search needs source to be an ArangoSearch view.
func (c *Compiled) AQL(source string) (string, map[string]any) {
	query := "FOR " + c.Alias + " IN @" + SourceParam + "\n" + strings.Join(c.Fragments(), "\n")

	bindVars := make(map[string]any, len(c.BindVars)+1)
	maps.Copy(bindVars, c.BindVars)
	bindVars[SourceParam] = source
	return query, bindVars
}
