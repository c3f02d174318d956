package queryaql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arangoq/internal/queryir"
)

func baseQuery() queryir.Query {
	return queryir.Query{
		Collection: "person",
		Alias:      "doc",
		Projection: queryir.Projection{Alias: "doc"},
		Page:       queryir.NoPage(),
	}
}

func TestCompile_Empty(t *testing.T) {
	c, err := Compile(baseQuery())
	require.NoError(t, err)

	assert.Equal(t, "RETURN doc", c.Projection)
	assert.Empty(t, c.Filter)
	assert.Empty(t, c.Sort)
	assert.Empty(t, c.Pagination)
	assert.Nil(t, c.Search)
	assert.Empty(t, c.BindVars)
}

func TestCompile_Compare(t *testing.T) {
	q := baseQuery()
	q.Filter = queryir.Compare{Field: "doc.name", Op: queryir.OpEq, Value: "ada"}

	c, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t, "doc.name == @value0", c.Filter)
	assert.Equal(t, map[string]any{"value0": "ada"}, c.BindVars)
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	dangerous := `" || true || "`

	q := baseQuery()
	q.Filter = queryir.Compare{Field: "doc.name", Op: queryir.OpEq, Value: dangerous}
	q.Search = &queryir.Search{
		Mode: queryir.SearchModeView,
		Predicate: queryir.Logical{Op: queryir.CombineOr, Operands: []queryir.Predicate{
			queryir.FuzzyMatch{Field: "doc.name", Query: dangerous, Threshold: 2},
			queryir.PrefixMatch{Field: "doc.name", Query: dangerous},
		}},
		Rank: &queryir.Rank{Var: "distance", Fields: []string{"doc.name"}, Query: dangerous},
	}

	c, err := Compile(q)
	require.NoError(t, err)

	query, bindVars := c.AQL("person_view")
	assert.NotContains(t, query, dangerous, "values must never be interpolated")
	assert.NotContains(t, query, "person_view", "the source is bound too")
	assert.Contains(t, bindVars, "value0")
	assert.Equal(t, dangerous, bindVars["value0"])
}

func TestCompile_DedupesEqualScalars(t *testing.T) {
	q := baseQuery()
	q.Filter = queryir.Logical{Op: queryir.CombineOr, Operands: []queryir.Predicate{
		queryir.Compare{Field: "doc.a", Op: queryir.OpEq, Value: "x"},
		queryir.Compare{Field: "doc.b", Op: queryir.OpEq, Value: "x"},
		queryir.Compare{Field: "doc.c", Op: queryir.OpEq, Value: 1},
		queryir.Membership{Field: "doc.d", Quantifier: queryir.QuantifierAny, Values: []any{"x"}},
		queryir.Membership{Field: "doc.e", Quantifier: queryir.QuantifierAny, Values: []any{"x"}},
	}}

	c, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t,
		"doc.a == @value0 OR doc.b == @value0 OR doc.c == @value1 OR @value2 ANY == doc.d OR @value3 ANY == doc.e",
		c.Filter)
	assert.Len(t, c.BindVars, 4)
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		name string
		pred queryir.Predicate
		want string
	}{
		{"eq", queryir.Compare{Field: "doc.a", Op: queryir.OpEq, Value: 1}, "doc.a == @value0"},
		{"ne", queryir.Compare{Field: "doc.a", Op: queryir.OpNe, Value: 1}, "doc.a != @value0"},
		{"lt", queryir.Compare{Field: "doc.a", Op: queryir.OpLt, Value: 1}, "doc.a < @value0"},
		{"lte", queryir.Compare{Field: "doc.a", Op: queryir.OpLte, Value: 1}, "doc.a <= @value0"},
		{"gt", queryir.Compare{Field: "doc.a", Op: queryir.OpGt, Value: 1}, "doc.a > @value0"},
		{"gte", queryir.Compare{Field: "doc.a", Op: queryir.OpGte, Value: 1}, "doc.a >= @value0"},
		{"in", queryir.Membership{Field: "doc.a", Quantifier: queryir.QuantifierAny, Values: []any{1, 2}}, "@value0 ANY == doc.a"},
		{"nin", queryir.Membership{Field: "doc.a", Quantifier: queryir.QuantifierNone, Values: []any{1, 2}}, "@value0 NONE == doc.a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := baseQuery()
			q.Filter = tt.pred

			c, err := Compile(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Filter)
			assert.Len(t, c.BindVars, 1)
		})
	}
}

func TestCompile_NestedLogicalIsParenthesized(t *testing.T) {
	q := baseQuery()
	q.Filter = queryir.Logical{Op: queryir.CombineAnd, Operands: []queryir.Predicate{
		queryir.Compare{Field: "doc.active", Op: queryir.OpEq, Value: true},
		queryir.Logical{Op: queryir.CombineOr, Operands: []queryir.Predicate{
			queryir.Compare{Field: "doc.a", Op: queryir.OpEq, Value: 1},
			queryir.Compare{Field: "doc.b", Op: queryir.OpEq, Value: 2},
		}},
	}}

	c, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "doc.active == @value0 AND (doc.a == @value1 OR doc.b == @value2)", c.Filter)
}

func TestCompile_EmptyLogical(t *testing.T) {
	q := baseQuery()
	q.Filter = queryir.Logical{Op: queryir.CombineOr}

	c, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "false", c.Filter)
}

func TestCompile_UnsupportedPredicate(t *testing.T) {
	q := baseQuery()
	q.Filter = queryir.Logical{Op: queryir.CombineAnd, Operands: []queryir.Predicate{nil, nil}}

	_, err := Compile(q)
	assert.Error(t, err)
}

func TestCompile_SortAndPage(t *testing.T) {
	tests := []struct {
		name string
		page queryir.Page
		want string
	}{
		{"none", queryir.NoPage(), ""},
		{"limit only", queryir.Page{Skip: 0, Limit: 5}, "LIMIT 0, 5"},
		{"skip only", queryir.Page{Skip: 10, Limit: queryir.Unset}, "LIMIT 10, 1000000000"},
		{"both", queryir.Page{Skip: 10, Limit: 5}, "LIMIT 10, 5"},
		{"limit zero", queryir.Page{Skip: 0, Limit: 0}, "LIMIT 0, 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := baseQuery()
			q.Page = tt.page
			q.Sort = []queryir.SortKey{{Field: "doc.age", Desc: true}, {Field: "doc.name"}}

			c, err := Compile(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Pagination)
			assert.Equal(t, "doc.age DESC, doc.name ASC", c.Sort)
		})
	}
}

func TestCompile_Projection(t *testing.T) {
	q := baseQuery()
	q.Projection = queryir.Projection{Alias: "doc", Fields: []queryir.ProjectionNode{
		{Key: "_key", Expr: "doc._key"},
		{Key: "name", Expr: "doc.name"},
		{Key: "address", Children: []queryir.ProjectionNode{
			{Key: "city", Expr: "doc.address.city"},
		}},
	}}

	c, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, `RETURN {"_key": doc._key, "name": doc.name, "address": {"city": doc.address.city}}`, c.Projection)
}

func TestCompile_ProjectionKeyQuoting(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "control characters", key: "a\x01b\a", want: `"a\u0001b\u0007"`},
		{name: "quote and backslash", key: `q"\`, want: `"q\"\\"`},
		{name: "newline", key: "a\nb", want: `"a\nb"`},
		{name: "html characters kept", key: "<a&b>", want: `"<a&b>"`},
		{name: "unicode kept", key: "navn_ø", want: `"navn_ø"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := baseQuery()
			q.Projection = queryir.Projection{Alias: "doc", Fields: []queryir.ProjectionNode{
				{Key: tt.key, Expr: "doc.x"},
			}}

			c, err := Compile(q)
			require.NoError(t, err)
			assert.Equal(t, "RETURN {"+tt.want+": doc.x}", c.Projection)
		})
	}
}

func TestCompile_ProjectionFallsBackToAlias(t *testing.T) {
	q := baseQuery()
	q.Alias = "p"
	q.Projection = queryir.Projection{}

	c, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "RETURN p", c.Projection)
}

func TestCompile_SearchRank(t *testing.T) {
	q := baseQuery()
	q.Search = &queryir.Search{
		Mode: queryir.SearchModeView,
		Predicate: queryir.Logical{Op: queryir.CombineOr, Operands: []queryir.Predicate{
			queryir.FuzzyMatch{Field: "doc.name", Query: "smith", Threshold: 2},
			queryir.PrefixMatch{Field: "doc.name", Query: "smith"},
			queryir.Compare{Field: "doc.id", Op: queryir.OpEq, Value: int64(0)},
		}},
		Rank: &queryir.Rank{Var: "distance", Fields: []string{"doc.name", "doc.alias"}, Query: "smith"},
	}

	c, err := Compile(q)
	require.NoError(t, err)
	require.NotNil(t, c.Search)

	assert.Equal(t, queryir.SearchModeView, c.Search.Mode)
	assert.Equal(t,
		`ANALYZER(LEVENSHTEIN_MATCH(doc.name, LOWER(@value0), 2), "lowercase") OR ANALYZER(STARTS_WITH(doc.name, LOWER(@value0)), "lowercase") OR doc.id == @value1`,
		c.Search.Predicate)
	assert.Equal(t,
		"LET distance = LEVENSHTEIN_DISTANCE(LOWER(doc.name), LOWER(@value0)) + LEVENSHTEIN_DISTANCE(LOWER(doc.alias), LOWER(@value0))",
		c.Search.Let)
	assert.Equal(t, "distance", c.Search.Sort)
	assert.Equal(t, map[string]any{"value0": "smith", "value1": int64(0)}, c.BindVars)
}

func TestCompile_SearchSubquery(t *testing.T) {
	q := baseQuery()
	q.Search = &queryir.Search{
		Mode: queryir.SearchModeFilter,
		Predicate: queryir.InSubquery{
			Field:  "doc._from",
			Source: "person_view",
			Alias:  "r",
			Return: "r._id",
			Search: queryir.Search{
				Mode:      queryir.SearchModeView,
				Predicate: queryir.PrefixMatch{Field: "r.name", Query: "ada"},
				Rank:      &queryir.Rank{Var: "distance", Fields: []string{"r.name"}, Query: "ada"},
			},
		},
	}

	c, err := Compile(q)
	require.NoError(t, err)
	require.NotNil(t, c.Search)

	assert.Equal(t, queryir.SearchModeFilter, c.Search.Mode)
	assert.Empty(t, c.Search.Let)
	assert.Equal(t,
		`doc._from IN (FOR r IN person_view SEARCH ANALYZER(STARTS_WITH(r.name, LOWER(@value0)), "lowercase") LET distance = LEVENSHTEIN_DISTANCE(LOWER(r.name), LOWER(@value0)) SORT distance RETURN r._id)`,
		c.Search.Predicate)
}

func TestSearchFragmentString(t *testing.T) {
	var nilFrag *SearchFragment
	assert.Empty(t, nilFrag.String())

	f := &SearchFragment{Predicate: "p", Let: "LET distance = d", Sort: "distance"}
	assert.Equal(t, "p LET distance = d SORT distance", f.String())
}
