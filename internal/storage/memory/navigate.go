package memory

import (
	"grinkit/internal/grin"
)

func (f *Fragment) VertexTypeOf(v grin.Vertex) (grin.VertexType, error) {
	ti, _, _, ok := f.locate(v)
	if !ok {
		return grin.NullVertexType, grin.InvalidValuef("vertex type", "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	return grin.VertexType(ti), nil
}

// Vertices lists vertices type by type; within a type master vertices come
// first in offset order, then mirrors in the order they were registered.
func (f *Fragment) Vertices(q grin.VertexQuery) (*grin.VertexList, error) {
	types := f.VertexTypes()
	if q.Type != grin.NullVertexType {
		if int(q.Type) >= len(f.vtables) {
			return nil, grin.InvalidValuef("vertex list", "unknown vertex type %d", q.Type)
		}
		types = []grin.VertexType{q.Type}
	}
	var out []grin.Vertex
	for _, vt := range types {
		t := f.vtables[vt]
		if q.Scope != grin.ScopeMirror {
			for off := 0; off < t.innerNum(); off++ {
				out = append(out, grin.Vertex(f.parser.generate(f.fid, int(vt), int64(off))))
			}
		}
		if q.Scope != grin.ScopeMaster {
			for k := 0; k < t.outerNum(); k++ {
				out = append(out, grin.Vertex(f.parser.generateOuter(f.fid, int(vt), int64(k))))
			}
		}
	}
	return grin.NewVertexList(q, out), nil
}

// Adjacent walks the requested edge types in order. For Both, each type
// contributes its out-edges before its in-edges, so a self loop is listed
// twice.
func (f *Fragment) Adjacent(q grin.AdjacentQuery) (*grin.AdjacentList, error) {
	d, ok := f.dense(q.Vertex)
	if !ok {
		return nil, grin.InvalidValuef("adjacent list", "vertex %#x is not in partition %d", uint64(q.Vertex), f.fid)
	}
	if q.Dir > grin.Both {
		return nil, grin.InvalidValuef("adjacent list", "invalid direction %d", q.Dir)
	}
	types := f.EdgeTypes()
	if q.EdgeType != grin.NullEdgeType {
		if int(q.EdgeType) >= len(f.etables) {
			return nil, grin.InvalidValuef("adjacent list", "unknown edge type %d", q.EdgeType)
		}
		types = []grin.EdgeType{q.EdgeType}
	}
	var out []grin.Adjacency
	for _, et := range types {
		t := f.etables[et]
		if q.Dir == grin.Out || q.Dir == grin.Both {
			out = t.out.collect(out, d, q.Vertex, et, grin.Out)
		}
		if q.Dir == grin.In || q.Dir == grin.Both {
			out = t.in.collect(out, d, q.Vertex, et, grin.In)
		}
	}
	return grin.NewAdjacentList(q, out), nil
}

func (c *csr) collect(out []grin.Adjacency, d int, v grin.Vertex, et grin.EdgeType, dir grin.Direction) []grin.Adjacency {
	for i := c.offsets[d]; i < c.offsets[d+1]; i++ {
		nbr := c.nbrs[i]
		e := grin.Edge{Src: v, Dst: nbr, Type: et, Dir: dir, ID: uint64(c.eids[i])}
		if dir == grin.In {
			e.Src, e.Dst = nbr, v
		}
		out = append(out, grin.Adjacency{Neighbor: nbr, Edge: e})
	}
	return out
}
