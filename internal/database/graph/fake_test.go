package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type fakeNode struct {
	id     int64
	labels []string
	props  map[string]any
}

type fakeRel struct {
	id       int64
	typ      string
	src, dst int64
	props    map[string]any
}

// fakeRunner is an in-memory property graph that answers the named
// statements of this package. It records every statement it sees.
type fakeRunner struct {
	mu     sync.Mutex
	nextID int64
	nodes  []*fakeNode
	rels   []*fakeRel
	seen   []string
	failOn string
	closed bool
}

func newFakeRunner() *fakeRunner { return &fakeRunner{} }

func (f *fakeRunner) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeRunner) node(id any) *fakeNode {
	for _, n := range f.nodes {
		if n.id == id.(int64) {
			return n
		}
	}
	return nil
}

func (f *fakeRunner) rel(id any) *fakeRel {
	for _, r := range f.rels {
		if r.id == id.(int64) {
			return r
		}
	}
	return nil
}

func hasLabel(n *fakeNode, label string) bool {
	for _, l := range n.labels {
		if l == label {
			return true
		}
	}
	return false
}

func (f *fakeRunner) byOID(label string, oid any) *fakeNode {
	for _, n := range f.nodes {
		if hasLabel(n, label) && n.props[oidKey] == oid {
			return n
		}
	}
	return nil
}

func copyProps(m any) map[string]any {
	out := map[string]any{}
	if src, ok := m.(map[string]any); ok {
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}

func (f *fakeRunner) Write(_ context.Context, st Statement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, st.Name)
	if st.Name == f.failOn {
		return fmt.Errorf("injected failure on %s", st.Name)
	}
	p := st.Params
	switch st.Name {
	case "reset":
		f.nodes, f.rels = nil, nil
	case "put_schema":
		for _, n := range f.nodes {
			if hasLabel(n, schemaLabel) {
				n.props["json"] = p["json"]
				return nil
			}
		}
		f.nextID++
		f.nodes = append(f.nodes, &fakeNode{id: f.nextID, labels: []string{schemaLabel}, props: map[string]any{"key": "schema", "json": p["json"]}})
	case "create_index":
	case "create_vertices":
		for _, row := range p["rows"].([]map[string]any) {
			props := copyProps(row["props"])
			props[oidKey] = row["oid"]
			f.nextID++
			f.nodes = append(f.nodes, &fakeNode{id: f.nextID, labels: []string{p["label"].(string)}, props: props})
		}
	case "create_edges":
		for _, row := range p["rows"].([]map[string]any) {
			a := f.byOID(p["src_label"].(string), row["src"])
			b := f.byOID(p["dst_label"].(string), row["dst"])
			if a == nil || b == nil {
				continue
			}
			props := copyProps(row["props"])
			props[seqKey] = row["seq"]
			f.nextID++
			f.rels = append(f.rels, &fakeRel{id: f.nextID, typ: p["type"].(string), src: a.id, dst: b.id, props: props})
		}
	default:
		return fmt.Errorf("fake: unexpected write %s", st.Name)
	}
	return nil
}

func (f *fakeRunner) Read(_ context.Context, st Statement) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, st.Name)
	if st.Name == f.failOn {
		return nil, fmt.Errorf("injected failure on %s", st.Name)
	}
	p := st.Params
	var out []Record
	switch st.Name {
	case "get_schema":
		for _, n := range f.nodes {
			if hasLabel(n, schemaLabel) {
				out = append(out, Record{"json": n.props["json"]})
			}
		}
	case "labels":
		seen := map[string]bool{}
		for _, n := range f.nodes {
			for _, l := range n.labels {
				if !seen[l] {
					seen[l] = true
					out = append(out, Record{"label": l})
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i]["label"].(string) < out[j]["label"].(string) })
	case "relationship_types":
		seen := map[string]bool{}
		for _, r := range f.rels {
			if !seen[r.typ] {
				seen[r.typ] = true
				out = append(out, Record{"type": r.typ})
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i]["type"].(string) < out[j]["type"].(string) })
	case "label_keys", "type_keys":
		samples := map[string]any{}
		if st.Name == "label_keys" {
			for _, n := range f.nodes {
				if hasLabel(n, p["label"].(string)) {
					for k, v := range n.props {
						if _, ok := samples[k]; !ok {
							samples[k] = v
						}
					}
				}
			}
		} else {
			for _, r := range f.rels {
				if r.typ == p["type"] {
					for k, v := range r.props {
						if _, ok := samples[k]; !ok {
							samples[k] = v
						}
					}
				}
			}
		}
		keys := make([]string, 0, len(samples))
		for k := range samples {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Record{"key": k, "sample": samples[k]})
		}
	case "type_ends":
		seen := map[[2]string]bool{}
		for _, r := range f.rels {
			if r.typ != p["type"] {
				continue
			}
			k := [2]string{f.node(r.src).labels[0], f.node(r.dst).labels[0]}
			if !seen[k] {
				seen[k] = true
				out = append(out, Record{"src": k[0], "dst": k[1]})
			}
		}
	case "count_vertices":
		n := int64(0)
		for _, node := range f.nodes {
			if hasLabel(node, p["label"].(string)) {
				n++
			}
		}
		out = append(out, Record{"count": n})
	case "count_edges":
		n := int64(0)
		for _, r := range f.rels {
			if r.typ == p["type"] {
				n++
			}
		}
		out = append(out, Record{"count": n})
	case "vertices":
		var nodes []*fakeNode
		for _, n := range f.nodes {
			if hasLabel(n, p["label"].(string)) {
				nodes = append(nodes, n)
			}
		}
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].props[oidKey].(int64) < nodes[j].props[oidKey].(int64) })
		for _, n := range nodes {
			out = append(out, Record{"id": n.id})
		}
	case "vertex_labels":
		if n := f.node(p["id"]); n != nil {
			labels := make([]any, len(n.labels))
			for i, l := range n.labels {
				labels[i] = l
			}
			out = append(out, Record{"labels": labels})
		}
	case "out_edges", "in_edges":
		for _, r := range f.rels {
			if t, ok := p["type"]; ok && r.typ != t {
				continue
			}
			self, nbr := r.src, r.dst
			if st.Name == "in_edges" {
				self, nbr = r.dst, r.src
			}
			if self == p["id"].(int64) {
				out = append(out, Record{"eid": r.id, "type": r.typ, "nbr": nbr, "seq": r.props[seqKey]})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i]["seq"].(int64) < out[j]["seq"].(int64) })
	case "vertex_property", "vertex_properties":
		if n := f.node(p["id"]); n != nil {
			labels := []any{}
			for _, l := range n.labels {
				labels = append(labels, l)
			}
			if st.Name == "vertex_property" {
				out = append(out, Record{"labels": labels, "value": n.props[p["key"].(string)]})
			} else {
				out = append(out, Record{"labels": labels, "props": copyProps(n.props)})
			}
		}
	case "edge_property", "edge_properties":
		if r := f.rel(p["id"]); r != nil {
			if st.Name == "edge_property" {
				out = append(out, Record{"type": r.typ, "value": r.props[p["key"].(string)]})
			} else {
				out = append(out, Record{"type": r.typ, "props": copyProps(r.props)})
			}
		}
	case "vertex_by_oid":
		if n := f.byOID(p["label"].(string), p["oid"]); n != nil {
			out = append(out, Record{"id": n.id})
		}
	case "vertex_oid":
		if n := f.node(p["id"]); n != nil {
			out = append(out, Record{"oid": n.props[oidKey]})
		}
	default:
		return nil, fmt.Errorf("fake: unexpected read %s", st.Name)
	}
	return out, nil
}

// dropSchema removes the schema node so Open has to discover the schema.
func (f *fakeRunner) dropSchema() {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.nodes[:0]
	for _, n := range f.nodes {
		if !hasLabel(n, schemaLabel) {
			kept = append(kept, n)
		}
	}
	f.nodes = kept
}
