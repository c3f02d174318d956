// Package qparams decodes bracketed URL query strings into query objects.
//
// It understands the nesting conventions REST frameworks use for filter
// parameters:
//
//	name=ada                 {"name": "ada"}
//	age[$gte]=18             {"age": {"$gte": "18"}}
//	tag[]=a&tag[]=b          {"tag": ["a", "b"]}
//	tag=a&tag=b              {"tag": ["a", "b"]}
//	$or[0][a]=1&$or[1][b]=2  {"$or": [{"a": "1"}, {"b": "2"}]}
//
// Values stay strings; the query compiler coerces where it needs numbers.
// Key order follows first appearance.
package qparams

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/arangoq/internal/ir"
)

// MaxDepth is the number of bracket segments read per key. Any further
// segments are kept as one literal key, e.g. "[f][g]".
const MaxDepth = 5

// ArrayLimit is the largest index read as an array position. Larger
// indices become object keys so "a[99999999]=x" cannot allocate.
const ArrayLimit = 20

// Parse decodes a query string. A leading "?" is ignored.
func Parse(raw string) (ir.Object, error) {
	raw = strings.TrimPrefix(raw, "?")
	root := newNode()

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("decode key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("decode value of %q: %w", key, err)
		}

		segs := splitKey(key)
		if segs == nil {
			continue
		}
		root.assign(segs, value)
	}

	return root.object(), nil
}

// splitKey splits "a[b][c]" into ["a", "b", "c"]. A key without a valid
// bracket suffix is one segment. An empty base is skipped.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		if key == "" || open == 0 {
			return nil
		}
		return []string{key}
	}

	segs := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' && len(segs) <= MaxDepth {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	if len(segs) == 1 {
		return []string{key}
	}
	if rest != "" {
		segs = append(segs, rest)
	}
	return segs
}

// node is one level of the tree under construction.
type node struct {
	values []string
	keys   []string
	kids   map[string]*node
	// appended counts "[]" segments, which become fresh array slots.
	appended int
}

func newNode() *node {
	return &node{kids: make(map[string]*node)}
}

const appendPrefix = "\x00append"

func (n *node) assign(segs []string, value string) {
	if len(segs) == 0 {
		n.values = append(n.values, value)
		return
	}

	key := segs[0]
	if key == "" {
		key = appendPrefix + strconv.Itoa(n.appended)
		n.appended++
	}

	kid, ok := n.kids[key]
	if !ok {
		kid = newNode()
		n.kids[key] = kid
		n.keys = append(n.keys, key)
	}
	kid.assign(segs[1:], value)
}

// value converts a node. Leaves are strings, or arrays when a key repeats.
// A node with both direct values and children keeps the children.
func (n *node) value() any {
	if len(n.keys) == 0 {
		if len(n.values) == 1 {
			return n.values[0]
		}
		out := make([]any, len(n.values))
		for i, v := range n.values {
			out[i] = v
		}
		return out
	}

	if arr, ok := n.array(); ok {
		return arr
	}
	return n.object()
}

// array returns the children as an array when every key is an array
// position. Indexed slots sort by index and appended slots follow in
// order; gaps close up.
func (n *node) array() ([]any, bool) {
	type slot struct {
		index int
		key   string
	}
	var indexed, appended []slot
	for _, key := range n.keys {
		if strings.HasPrefix(key, appendPrefix) {
			appended = append(appended, slot{key: key})
			continue
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i > ArrayLimit || strconv.Itoa(i) != key {
			return nil, false
		}
		indexed = append(indexed, slot{index: i, key: key})
	}

	slices.SortStableFunc(indexed, func(a, b slot) int { return a.index - b.index })
	out := make([]any, 0, len(n.keys))
	for _, s := range append(indexed, appended...) {
		out = append(out, n.kids[s.key].value())
	}
	return out, true
}

// object returns the children as an object. Appended slots in a mixed
// node are keyed by their position.
func (n *node) object() ir.Object {
	obj := make(ir.Object, 0, len(n.keys))
	for i, key := range n.keys {
		name := key
		if strings.HasPrefix(key, appendPrefix) {
			name = strconv.Itoa(i)
		}
		obj = append(obj, ir.M(name, n.kids[key].value()))
	}
	return obj
}
