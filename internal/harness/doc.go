// Package harness runs compile scenarios for arangoq.
//
// A scenario names a collection and a query object (or a raw query string),
// compiles it with the search profiles in force, and checks the assembled
// AQL and bind variables against a list of assertions. Every compilation is
// recorded in a fresh in-memory history store and read back before it is
// checked, so scenarios also cover the storage round trip.
//
// # Scenario Format
//
//	name: people_range
//	description: "Range filter with an $or group"
//	collection: person
//	source: person          # optional, defaults to collection
//	alias: doc              # optional
//	profiles: profiles.yaml # optional, relative to the scenario file
//	query:
//	  age: { $gte: 18 }
//	  $or:
//	    - role: admin
//	    - role: owner
//	assertions:
//	  - type: aql_contains
//	    text: "FILTER doc.age >= @value0"
//	  - type: bind_count
//	    count: 3
//
// query_string may replace query; it is decoded the way an HTTP query
// string is (a[b]=1&$or[0][x]=2).
//
// # Assertion Types
//
//   - aql_contains: the assembled AQL contains text
//   - aql_excludes: the assembled AQL does not contain text
//   - bind_count: number of bind variables, excluding @source
//   - bind_value: bind variable name equals value
//   - warning_count: number of validation warnings
//   - error_contains: compilation fails with a message containing text
//
// # Golden Files
//
// Snapshot renders a result as the AQL text, a blank line and the canonical
// JSON of the bind variables. RunWithGolden compares it against
// testdata/golden/{name}.golden.
package harness
