package querybuilder

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/queryir"
)

// project builds the RETURN clause from the top-level $select.
//
// Without $select the whole document is returned. With it, _key comes
// first, then every selected path. Dotted paths nest; a later path
// replaces an earlier entry at the same key.
func project(query any, alias string, logger *slog.Logger) queryir.Projection {
	proj := queryir.Projection{Alias: alias}

	members, ok := ir.Members(query)
	if !ok {
		return proj
	}

	var selected any
	for _, m := range members {
		if op, _ := Lookup(m.Key); op == OpSelect {
			selected = m.Value
		}
	}

	fields := selectedFields(selected)
	if len(fields) == 0 {
		return proj
	}

	nodes := setPath(nil, []string{"_key"}, alias+"._key")
	for _, f := range fields {
		segs := strings.Split(f, ".")
		if slices.Contains(segs, "") {
			logger.Debug("ignoring malformed $select path", "path", f)
			continue
		}
		nodes = setPath(nodes, segs, alias+"."+f)
	}
	proj.Fields = nodes
	return proj
}

// selectedFields reads $select as a list of paths. A single string is a
// one-element list.
func selectedFields(v any) []string {
	if v == nil {
		return nil
	}
	if ir.IsScalar(v) {
		if s := ir.FormatScalar(v); s != "" {
			return []string{s}
		}
		return nil
	}

	elems, ok := ir.Elements(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if ir.IsScalar(e) {
			out = append(out, ir.FormatScalar(e))
		}
	}
	return out
}

// setPath stores expr at segs, replacing whatever was there.
// Existing keys keep their position.
func setPath(nodes []queryir.ProjectionNode, segs []string, expr string) []queryir.ProjectionNode {
	key := segs[0]
	idx := slices.IndexFunc(nodes, func(n queryir.ProjectionNode) bool { return n.Key == key })

	var node queryir.ProjectionNode
	if len(segs) == 1 {
		node = queryir.ProjectionNode{Key: key, Expr: expr}
	} else {
		var children []queryir.ProjectionNode
		if idx >= 0 {
			children = nodes[idx].Children
		}
		node = queryir.ProjectionNode{Key: key, Children: setPath(slices.Clone(children), segs[1:], expr)}
	}

	if idx >= 0 {
		nodes[idx] = node
		return nodes
	}
	return append(nodes, node)
}
