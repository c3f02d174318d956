// Package queryaql renders queryir queries into ArangoDB AQL fragments.
//
// Every value is bound as a bind variable (@value0, @value1, ...) and never
// interpolated into query text. Field paths, aliases and view names are
// emitted literally; queryir.Validate reports the ones that are not plain
// identifiers.
//
// The output is a Compiled descriptor holding one fragment per clause.
// Callers either assemble their own query from the fragments or use
// Compiled.AQL for the standard FOR ... RETURN shape.
package queryaql
