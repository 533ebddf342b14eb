package geometry

import "github.com/hazyhaar/srkit/srwatch/segment"

// Flattener turns one captured node tree into the ordered wireframe list
// used for diffing. The zero value is ready to use.
type Flattener struct{}

// Flatten walks node depth-first in paint order. Each wireframe is clipped
// against the parents of its node. Invalid wireframes and wireframes hidden
// by an opaque wireframe painted later are dropped.
func (Flattener) Flatten(node segment.Node) []segment.Wireframe {
	var all []segment.Wireframe
	walk(node, &all)

	out := make([]segment.Wireframe, 0, len(all))
	for i, w := range all {
		if !IsValid(w) {
			continue
		}
		if IsCovered(w, all[i+1:]) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func walk(n segment.Node, acc *[]segment.Wireframe) {
	for _, w := range n.Wireframes {
		if len(n.Parents) > 0 {
			w = w.WithClip(ResolveClip(w, n.Parents))
		}
		*acc = append(*acc, w)
	}
	for _, c := range n.Children {
		walk(c, acc)
	}
}

// FlattenAll concatenates the flattened lists of several root nodes.
func (f Flattener) FlattenAll(nodes []segment.Node) []segment.Wireframe {
	var out []segment.Wireframe
	for _, n := range nodes {
		out = append(out, f.Flatten(n)...)
	}
	return out
}
