// Package ir provides the value model for loosely-typed query objects.
//
// Query objects arrive from URL query strings, JSON bodies, YAML scenario
// files and plain Go maps. This package gives them one shape:
//   - Object is an ordered object; member order is the caller's order
//   - map[string]any is accepted everywhere an Object is (keys sorted)
//   - arrays are []any or any typed slice
//   - scalars are string, bool, json.Number and the Go numeric kinds
//
// Key order matters: a $sort object lists fields in priority order, so
// decoders in this package never route objects through a Go map.
//
// ir imports nothing internal. All other internal packages import ir.
package ir
