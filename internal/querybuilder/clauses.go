package querybuilder

import (
	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// clauses collects the non-filter directives met during a walk.
type clauses struct {
	sort        []queryir.SortKey
	limit       *int64
	skip        *int64
	search      *string
	searchAlias string
}

// merge overlays the directives set in o; o was met later.
func (c *clauses) merge(o clauses) {
	if o.sort != nil {
		c.sort = o.sort
	}
	if o.limit != nil {
		c.limit = o.limit
	}
	if o.skip != nil {
		c.skip = o.skip
	}
	if o.search != nil {
		c.search = o.search
		c.searchAlias = o.searchAlias
	}
}

// page resolves the window. An unread limit stays Unset and an unread
// skip stays 0.
func (c clauses) page() queryir.Page {
	p := queryir.NoPage()
	if c.limit != nil {
		p.Limit = *c.limit
	}
	if c.skip != nil {
		p.Skip = *c.skip
	}
	return p
}

// parseLimit reads $limit. Non-numeric and negative values mean unset.
func parseLimit(v any) int64 {
	n, ok := ir.ParseInt(v)
	if !ok || n < 0 {
		return queryir.Unset
	}
	return n
}

// parseSkip reads $skip. Non-numeric and negative values mean 0.
func parseSkip(v any) int64 {
	n, ok := ir.ParseInt(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// parseSort reads a $sort object in member order. A direction reading as
// -1 sorts descending; anything else ascends. A non-object yields no keys.
func parseSort(v any, alias string) []queryir.SortKey {
	members, ok := ir.Members(v)
	if !ok || len(members) == 0 {
		return nil
	}
	keys := make([]queryir.SortKey, len(members))
	for i, m := range members {
		n, ok := ir.ParseInt(m.Value)
		keys[i] = queryir.SortKey{
			Field: alias + "." + m.Key,
			Desc:  ok && n == -1,
		}
	}
	return keys
}

// parseSearch reads $search text. Empty text is no search.
func parseSearch(v any) (string, bool) {
	if !ir.IsScalar(v) {
		return "", false
	}
	s := ir.FormatScalar(v)
	return s, s != ""
}
