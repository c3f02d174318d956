// Package querybuilder translates REST-style query objects into AQL.
//
// A query object maps field names to values and reserved "$" keys to
// directives, the shape produced by parsing a URL query string:
//
//	{"age": {"$gte": 18}, "$or": [{"role": "admin"}, {"role": "owner"}],
//	 "$sort": {"age": -1}, "$limit": 10, "$select": ["name"]}
//
// Translate walks the object once and builds an immutable queryir.Query.
// Compile renders that query with queryaql. Neither keeps state between
// calls, so both are safe for concurrent use.
//
// Translation is permissive: malformed shapes degrade to a broader or
// narrower filter instead of failing. The only error is ErrMaxDepth, for
// objects nested deeper than Options.MaxDepth.
package querybuilder
