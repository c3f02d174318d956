// Package store keeps an optional SQLite history of compiled queries.
//
// Each row records the compilation input (collection, alias and the query
// object as canonical JSON), the rendered AQL and bind variables, and the
// hash of the search profiles in force. Rows are keyed by a UUIDv7 and
// grouped by query_id, the content hash from ir.QueryID, so repeated
// compilations of the same input can be compared.
//
// # Ordering
//
// All reads ORDER BY seq ASC. Timestamps are never stored, which keeps two
// histories built from the same inputs byte-identical apart from their ids.
//
// # Connections
//
// Pragmas are set through the go-sqlite3 DSN (WAL journal, NORMAL sync,
// a 5s busy timeout) and the pool holds one connection. Schema upgrades
// are numbered by PRAGMA user_version; see migrations in store.go.
package store
