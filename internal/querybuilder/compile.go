package querybuilder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/arangoq/internal/queryaql"
	"github.com/roach88/arangoq/internal/queryir"
	"github.com/roach88/arangoq/internal/search"
)

// ErrMaxDepth is returned for query objects nested deeper than
// Options.MaxDepth.
var ErrMaxDepth = errors.New("query object nested too deeply")

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 32

// Options configures a translation. The zero value is usable.
type Options struct {
	// DocAlias names the document in FOR and filters. Default "doc".
	DocAlias string
	// ReturnAlias names the document in RETURN. Default DocAlias.
	ReturnAlias string
	// Registry supplies search profiles. Default search.Default().
	Registry *search.Registry
	// Logger receives debug output about ignored or reinterpreted keys.
	// Default slog.Default().
	Logger *slog.Logger
	// MaxDepth caps object nesting. Default DefaultMaxDepth.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.DocAlias == "" {
		o.DocAlias = "doc"
	}
	if o.ReturnAlias == "" {
		o.ReturnAlias = o.DocAlias
	}
	if o.Registry == nil {
		o.Registry = search.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Compile translates query for collection and renders it to AQL.
// The returned descriptor carries literal-safety warnings from
// queryir.Validate; Compile does not reject unsafe queries itself.
func Compile(collection string, query any, opts Options) (*queryaql.Compiled, error) {
	q, err := Translate(collection, query, opts)
	if err != nil {
		return nil, err
	}

	compiled, err := queryaql.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("render %s query: %w", collection, err)
	}
	compiled.Warnings = queryir.Validate(q).Warnings
	return compiled, nil
}

// Translate builds the query IR for a query object.
//
// query is an ir.Object, a map[string]any, or nil. Projection is read from
// the top-level $select. Every other key is walked once: field keys become
// filter predicates and $sort, $limit, $skip and $search set their clauses
// wherever they appear, the last occurrence winning.
func Translate(collection string, query any, opts Options) (queryir.Query, error) {
	opts = opts.withDefaults()
	t := &translator{
		collection: collection,
		registry:   opts.Registry,
		logger:     opts.Logger,
		maxDepth:   opts.MaxDepth,
	}

	filter, cl, err := t.filter(query, opts.DocAlias, 1)
	if err != nil {
		return queryir.Query{}, err
	}

	q := queryir.Query{
		Collection: collection,
		Alias:      opts.DocAlias,
		Projection: project(query, opts.ReturnAlias, t.logger),
		Filter:     filter,
		Sort:       cl.sort,
		Page:       cl.page(),
	}
	if cl.search != nil {
		s := t.registry.Build(collection, cl.searchAlias, *cl.search)
		q.Search = &s
	}
	return q, nil
}

// translator carries the read-only settings of one translation.
type translator struct {
	collection string
	registry   *search.Registry
	logger     *slog.Logger
	maxDepth   int
}
