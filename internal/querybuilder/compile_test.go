package querybuilder

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryaql"
)

func mustCompile(t *testing.T, collection string, query any) *queryaql.Compiled {
	t.Helper()
	c, err := Compile(collection, query, Options{})
	require.NoError(t, err)
	return c
}

func TestCompile_ScalarEquality(t *testing.T) {
	values := []any{"ada", true, false, 42, 3.5, int64(-7), ""}

	for _, v := range values {
		c := mustCompile(t, "person", ir.Object{ir.M("field", v)})

		assert.Equal(t, "doc.field == @value0", c.Filter)
		assert.Equal(t, map[string]any{"value0": v}, c.BindVars)
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	dangerous := `x" || 1 == 1 || "`

	c := mustCompile(t, "person", ir.Object{
		ir.M("name", dangerous),
		ir.M("age", ir.Object{ir.M("$in", []any{dangerous})}),
		ir.M("$search", dangerous),
	})

	query, bindVars := c.AQL("person_view")
	assert.NotContains(t, query, dangerous)
	assert.Contains(t, bindVars, "value0")
}

func TestCompile_EachOperatorAppearsOnce(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{"$in", "@value0 ANY == doc.age"},
		{"$nin", "@value0 NONE == doc.age"},
		{"$lt", "doc.age < @value0"},
		{"$lte", "doc.age <= @value0"},
		{"$gt", "doc.age > @value0"},
		{"$gte", "doc.age >= @value0"},
		{"$ne", "doc.age != @value0"},
		{"$not", "doc.age != @value0"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			c := mustCompile(t, "person", ir.Object{ir.M("age", ir.Object{ir.M(tt.op, []any{18})})})
			assert.Equal(t, tt.want, c.Filter)
		})
	}
}

func TestCompile_RangeOnOneField(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("age", ir.Object{ir.M("$gte", 18), ir.M("$lte", 65)}),
	})

	// $lte precedes $gte in extraction order, whatever the input order.
	assert.Equal(t, "doc.age <= @value0 AND doc.age >= @value1", c.Filter)
	assert.Equal(t, map[string]any{"value0": 65, "value1": 18}, c.BindVars)
}

func TestCompile_FalsyOperatorPayloadCounts(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("age", ir.Object{ir.M("$gt", 0)}),
		ir.M("name", ir.Object{ir.M("$ne", "")}),
	})

	assert.Equal(t, "doc.age > @value0 AND doc.name != @value1", c.Filter)
}

func TestCompile_OrDoesNotLeak(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("active", true),
		ir.M("$or", []any{
			ir.Object{ir.M("role", "admin")},
			ir.Object{ir.M("role", "owner")},
		}),
		ir.M("org", "x"),
	})

	assert.Equal(t, "doc.active == @value0 AND (doc.role == @value1 OR doc.role == @value2) AND doc.org == @value3", c.Filter)
}

func TestCompile_NestedOr(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("$or", []any{
			ir.Object{ir.M("a", 1), ir.M("b", 2)},
			ir.Object{ir.M("$or", []any{
				ir.Object{ir.M("c", 3)},
				ir.Object{ir.M("d", 4)},
			})},
		}),
	})

	assert.Equal(t, "(doc.a == @value0 AND doc.b == @value1) OR doc.c == @value2 OR doc.d == @value3", c.Filter)
}

func TestCompile_OrSingleObject(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{ir.M("$or", ir.Object{ir.M("a", 1)})})
	assert.Equal(t, "doc.a == @value0", c.Filter)
}

func TestCompile_Pagination(t *testing.T) {
	tests := []struct {
		name  string
		query ir.Object
		want  string
	}{
		{"none", ir.Object{}, ""},
		{"limit", ir.Object{ir.M("$limit", 5)}, "LIMIT 0, 5"},
		{"skip", ir.Object{ir.M("$skip", 10)}, "LIMIT 10, 1000000000"},
		{"both", ir.Object{ir.M("$limit", 5), ir.M("$skip", 10)}, "LIMIT 10, 5"},
		{"string numbers", ir.Object{ir.M("$limit", "5"), ir.M("$skip", "10")}, "LIMIT 10, 5"},
		{"non-numeric", ir.Object{ir.M("$limit", "abc"), ir.M("$skip", "xyz")}, ""},
		{"negative limit is unset", ir.Object{ir.M("$limit", -1), ir.M("$skip", 3)}, "LIMIT 3, 1000000000"},
		{"negative skip clamps", ir.Object{ir.M("$limit", 5), ir.M("$skip", -3)}, "LIMIT 0, 5"},
		{"case-insensitive", ir.Object{ir.M("$LIMIT", 7)}, "LIMIT 0, 7"},
		{"hex string", ir.Object{ir.M("$limit", "0x10")}, "LIMIT 0, 16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, "person", tt.query)
			assert.Equal(t, tt.want, c.Pagination)
			assert.Empty(t, c.Filter)
		})
	}
}

func TestCompile_Sort(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("$sort", ir.Object{ir.M("age", -1), ir.M("name", 1)}),
	})
	assert.Equal(t, "doc.age DESC, doc.name ASC", c.Sort)

	c = mustCompile(t, "person", ir.Object{
		ir.M("$sort", ir.Object{ir.M("name", "1"), ir.M("age", "-1")}),
	})
	assert.Equal(t, "doc.name ASC, doc.age DESC", c.Sort)

	c = mustCompile(t, "person", ir.Object{ir.M("$sort", ir.Object{})})
	assert.Empty(t, c.Sort)
}

func TestCompile_SearchFallbackProfile(t *testing.T) {
	c := mustCompile(t, "unregistered", ir.Object{ir.M("$search", "smith")})

	require.NotNil(t, c.Search)
	assert.Equal(t,
		`ANALYZER(LEVENSHTEIN_MATCH(doc.name, LOWER(@value0), 2), "lowercase") OR ANALYZER(STARTS_WITH(doc.name, LOWER(@value0)), "lowercase")`,
		c.Search.Predicate)
	assert.Equal(t, "LET distance = LEVENSHTEIN_DISTANCE(LOWER(doc.name), LOWER(@value0))", c.Search.Let)
	assert.Equal(t, "distance", c.Search.Sort)
	assert.Equal(t, map[string]any{"value0": "smith"}, c.BindVars)
}

func TestCompile_SearchRelatedProfile(t *testing.T) {
	c := mustCompile(t, "person_role", ir.Object{ir.M("$search", "smith")})

	require.NotNil(t, c.Search)
	assert.True(t, strings.HasPrefix(c.Search.Predicate, "doc._from IN (FOR r IN person_view SEARCH "))
	assert.True(t, strings.HasSuffix(c.Search.Predicate, " RETURN r._id)"))
	assert.NotContains(t, c.Search.Predicate, "doc.firstName")
	assert.Contains(t, c.Search.Predicate, "r.firstName")
	assert.Empty(t, c.Search.Let)
}

func TestCompile_EmptySearchIgnored(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{ir.M("$search", "")})
	assert.Nil(t, c.Search)
}

func TestCompile_IgnoredDirectives(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{
		ir.M("$resolve", ir.Object{ir.M("x", 1)}),
		ir.M("$calculate", true),
		ir.M("$aql", "FOR x IN y"),
		ir.M("$select", []any{"name"}),
	})

	assert.Empty(t, c.Filter)
	assert.Empty(t, c.BindVars)
}

func TestCompile_Idempotent(t *testing.T) {
	query := ir.Object{
		ir.M("age", ir.Object{ir.M("$gte", 18), ir.M("$lt", 65)}),
		ir.M("$or", []any{ir.Object{ir.M("a", 1)}, ir.Object{ir.M("b", "x")}}),
		ir.M("$search", "ada"),
		ir.M("$sort", ir.Object{ir.M("age", -1)}),
		ir.M("$limit", 10),
	}

	first := mustCompile(t, "person", query)
	second := mustCompile(t, "person", query)

	assert.Equal(t, first, second)
	assert.Len(t, second.BindVars, len(first.BindVars))
}

func TestCompile_PlainMapInput(t *testing.T) {
	c := mustCompile(t, "person", map[string]any{
		"name": "ada",
		"age":  map[string]any{"$gt": 30},
	})

	// map keys iterate sorted
	assert.Equal(t, "doc.age > @value0 AND doc.name == @value1", c.Filter)
}

func TestCompile_NilQuery(t *testing.T) {
	c := mustCompile(t, "person", nil)

	assert.Equal(t, "RETURN doc", c.Projection)
	assert.Empty(t, c.Filter)
	assert.Empty(t, c.BindVars)
}

func TestCompile_Aliases(t *testing.T) {
	c, err := Compile("person", ir.Object{ir.M("name", "ada"), ir.M("$select", "name")}, Options{DocAlias: "p", ReturnAlias: "out"})
	require.NoError(t, err)

	assert.Equal(t, "p", c.Alias)
	assert.Equal(t, "p.name == @value0", c.Filter)
	assert.Equal(t, `RETURN {"_key": out._key, "name": out.name}`, c.Projection)

	c, err = Compile("person", nil, Options{DocAlias: "p"})
	require.NoError(t, err)
	assert.Equal(t, "RETURN p", c.Projection)
}

func TestCompile_MaxDepth(t *testing.T) {
	var query any = ir.Object{ir.M("leaf", 1)}
	for range 40 {
		query = ir.Object{ir.M("nested", query)}
	}

	_, err := Compile("person", query, Options{})
	assert.ErrorIs(t, err, ErrMaxDepth)

	_, err = Compile("person", query, Options{MaxDepth: 64})
	assert.NoError(t, err)
}

func TestCompile_MaxDepthOr(t *testing.T) {
	var query any = ir.Object{ir.M("a", 1)}
	for range 5 {
		query = ir.Object{ir.M("$or", []any{query})}
	}

	_, err := Compile("person", query, Options{MaxDepth: 3})
	assert.ErrorIs(t, err, ErrMaxDepth)
}

func TestCompile_WarnsOnUnsafeFieldNames(t *testing.T) {
	c := mustCompile(t, "person", ir.Object{ir.M("name) || true || (", 1)})
	assert.NotEmpty(t, c.Warnings)

	c = mustCompile(t, "person", ir.Object{ir.M("name", 1)})
	assert.Empty(t, c.Warnings)
}

func TestCompile_LogsLeftovers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := Compile("person", ir.Object{
		ir.M("address", ir.Object{ir.M("$gte", 1), ir.M("city", "Oslo")}),
	}, Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, "doc.address >= @value0 AND doc.address.city == @value1", c.Filter)
	assert.Contains(t, buf.String(), "leftover")
	assert.Contains(t, buf.String(), "doc.address")
}
