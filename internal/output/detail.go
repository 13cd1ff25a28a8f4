package output

import (
	"fmt"

	"grinkit/internal/grin"
)

// PropertyView names one property and its datatype.
type PropertyView struct {
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
}

// TypeView describes one vertex or edge type.
type TypeView struct {
	Name       string         `json:"name"`
	Count      int            `json:"count"`
	Properties []PropertyView `json:"properties"`
	Relations  []string       `json:"relations,omitempty"`
}

// SchemaView describes the schema of a graph and its sizes.
type SchemaView struct {
	VertexTypes  []TypeView `json:"vertex_types"`
	EdgeTypes    []TypeView `json:"edge_types"`
	Capabilities []string   `json:"capabilities"`
	VertexNum    int        `json:"vertex_num"`
	EdgeNum      int        `json:"edge_num"`
}

// DescribeSchema lists every type of g with its count and properties.
func DescribeSchema(g grin.Graph) SchemaView {
	res := SchemaView{
		Capabilities: g.Capabilities().Names(),
		VertexNum:    g.VertexNum(),
		EdgeNum:      g.EdgeNum(),
	}
	for _, vt := range g.VertexTypes() {
		info := TypeView{Name: g.VertexTypeName(vt), Count: g.VertexNumByType(vt), Properties: []PropertyView{}}
		for _, vp := range g.VertexProperties(vt) {
			info.Properties = append(info.Properties, PropertyView{Name: g.VertexPropertyName(vp), Datatype: g.VertexPropertyDatatype(vp).String()})
		}
		res.VertexTypes = append(res.VertexTypes, info)
	}
	for _, et := range g.EdgeTypes() {
		info := TypeView{Name: g.EdgeTypeName(et), Count: g.EdgeNumByType(et), Properties: []PropertyView{}}
		for _, ep := range g.EdgeProperties(et) {
			info.Properties = append(info.Properties, PropertyView{Name: g.EdgePropertyName(ep), Datatype: g.EdgePropertyDatatype(ep).String()})
		}
		info.Relations = relations(g, et)
		res.EdgeTypes = append(res.EdgeTypes, info)
	}
	return res
}

// VertexView is one vertex with its properties resolved by name.
type VertexView struct {
	Vertex     uint64         `json:"vertex"`
	Type       string         `json:"type"`
	OriginalID any            `json:"original_id,omitempty"`
	Ref        string         `json:"ref,omitempty"`
	Mirror     bool           `json:"mirror,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NeighborView is one adjacency entry.
type NeighborView struct {
	Neighbor       uint64         `json:"neighbor"`
	NeighborType   string         `json:"neighbor_type"`
	EdgeType       string         `json:"edge_type"`
	Direction      string         `json:"direction"`
	EdgeProperties map[string]any `json:"edge_properties,omitempty"`
}

// DescribeVertex reads every property of v. The original id and the
// serialized ref are filled in when g supports them.
func DescribeVertex(g grin.Graph, v grin.Vertex) (VertexView, error) {
	vt, err := g.VertexTypeOf(v)
	if err != nil {
		return VertexView{}, err
	}
	view := VertexView{Vertex: uint64(v), Type: g.VertexTypeName(vt), Properties: map[string]any{}}

	if idx, ok := g.(grin.OriginalIDIndex); ok && g.Capabilities().Has(grin.CapOriginalID) {
		oid, err := idx.VertexOriginalID(v)
		if err != nil {
			return VertexView{}, err
		}
		view.OriginalID = oid.Any()
	}
	if r, err := grin.Referencer(g); err == nil {
		ref, err := r.VertexRef(v)
		if err != nil {
			return VertexView{}, err
		}
		if view.Ref, err = r.SerializeRef(ref); err != nil {
			return VertexView{}, err
		}
		view.Mirror = r.IsMirror(v)
	}

	row, err := grin.VertexRow(g, v)
	if err != nil {
		return VertexView{}, err
	}
	for i, vp := range g.VertexProperties(vt) {
		val, err := row.ValueAt(i)
		if err != nil {
			return VertexView{}, err
		}
		view.Properties[g.VertexPropertyName(vp)] = val.Any()
	}
	return view, nil
}

// DescribeNeighbors returns up to limit entries of q's adjacency and the
// full adjacency size. A non-positive limit returns every entry.
func DescribeNeighbors(g grin.Graph, q grin.AdjacentQuery, limit int) (int, []NeighborView, error) {
	l, err := g.Adjacent(q)
	if err != nil {
		return 0, nil, fmt.Errorf("adjacency: %w", err)
	}
	n := l.Len()
	if limit > 0 {
		n = min(n, limit)
	}
	out := make([]NeighborView, 0, n)
	for i := 0; i < n; i++ {
		nbr, e := l.Neighbor(i), l.Edge(i)
		nt, err := g.VertexTypeOf(nbr)
		if err != nil {
			return 0, nil, err
		}
		view := NeighborView{
			Neighbor:     uint64(nbr),
			NeighborType: g.VertexTypeName(nt),
			EdgeType:     g.EdgeTypeName(e.Type),
			Direction:    e.Dir.String(),
		}
		props := g.EdgeProperties(e.Type)
		if len(props) > 0 {
			row, err := grin.EdgeRow(g, e)
			if err != nil {
				return 0, nil, err
			}
			view.EdgeProperties = make(map[string]any, len(props))
			for j, ep := range props {
				val, err := row.ValueAt(j)
				if err != nil {
					return 0, nil, err
				}
				view.EdgeProperties[g.EdgePropertyName(ep)] = val.Any()
			}
		}
		out = append(out, view)
	}
	return l.Len(), out, nil
}

// FindVertex looks a vertex up by type name and original id.
func FindVertex(g grin.Graph, typ string, oid int64) (grin.Vertex, error) {
	idx, ok := g.(grin.OriginalIDIndex)
	if !ok || !g.Capabilities().Has(grin.CapOriginalID) {
		return grin.NullVertex, fmt.Errorf("graph has no original id index")
	}
	vt := grin.VertexTypeByName(g, typ)
	if vt == grin.NullVertexType {
		return grin.NullVertex, fmt.Errorf("unknown vertex type %q", typ)
	}
	val, err := grin.ValueOf(idx.VertexOriginalIDDatatype(), oid)
	if err != nil {
		return grin.NullVertex, err
	}
	v, err := idx.VertexByOriginalID(vt, val)
	if err != nil {
		return grin.NullVertex, err
	}
	if v == grin.NullVertex {
		return grin.NullVertex, fmt.Errorf("no %s with original id %d", typ, oid)
	}
	return v, nil
}
