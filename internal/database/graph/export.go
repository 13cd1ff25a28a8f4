package graph

import (
	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// Export walks g into a dataset, so a graph served by any engine can be
// copied into Neo4j with Import. Vertex ids come from the original-id index
// when g has one and from list position otherwise. Mirror vertices are
// skipped along with every edge that reaches one, so a partition exports
// as a self-contained dataset.
func Export(g grin.Graph) (*catalog.Dataset, error) {
	ds := &catalog.Dataset{Schema: ExportSchema(g)}

	oids, _ := g.(grin.OriginalIDIndex)
	refs, _ := g.(grin.VertexReferencer)
	keys := make(map[grin.Vertex]catalog.VertexKey)

	masters, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
	if err != nil {
		return nil, err
	}
	for i, v := range masters.Slice() {
		if refs != nil && refs.IsMirror(v) {
			continue
		}
		vt, err := g.VertexTypeOf(v)
		if err != nil {
			return nil, err
		}
		id := int64(i)
		if oids != nil {
			oid, err := oids.VertexOriginalID(v)
			if err != nil {
				return nil, err
			}
			if id, err = oid.Int64(); err != nil {
				return nil, err
			}
		}
		rec := catalog.VertexRecord{Label: g.VertexTypeName(vt), ID: id}
		if rec.Props, err = propsOf(g.VertexProperties(vt), func(vp grin.VertexProperty) (grin.Value, error) {
			return g.VertexValue(v, vp)
		}, func(vp grin.VertexProperty) string { return g.VertexPropertyName(vp) }); err != nil {
			return nil, err
		}
		keys[v] = catalog.VertexKey{Label: rec.Label, ID: id}
		ds.Vertices = append(ds.Vertices, rec)
	}

	for _, v := range masters.Slice() {
		src, ok := keys[v]
		if !ok {
			continue
		}
		adj, err := g.Adjacent(grin.AdjacentQuery{Vertex: v, Dir: grin.Out, EdgeType: grin.NullEdgeType})
		if err != nil {
			return nil, err
		}
		for it := adj.Iter(); !it.IsEnd(); it.Next() {
			e := it.Edge()
			dst, ok := keys[it.Neighbor()]
			if !ok {
				continue
			}
			rec := catalog.EdgeRecord{Label: g.EdgeTypeName(e.Type), SrcLabel: src.Label, Src: src.ID, DstLabel: dst.Label, Dst: dst.ID}
			if rec.Props, err = propsOf(g.EdgeProperties(e.Type), func(ep grin.EdgeProperty) (grin.Value, error) {
				return g.EdgeValue(e, ep)
			}, func(ep grin.EdgeProperty) string { return g.EdgePropertyName(ep) }); err != nil {
				return nil, err
			}
			ds.Edges = append(ds.Edges, rec)
		}
	}
	return ds, ds.Validate()
}

// ExportSchema reads the schema half of g into a catalog schema.
func ExportSchema(g grin.Graph) catalog.Schema {
	var s catalog.Schema
	for _, vt := range g.VertexTypes() {
		def := catalog.VertexTypeDef{Name: g.VertexTypeName(vt)}
		for _, vp := range g.VertexProperties(vt) {
			def.Properties = append(def.Properties, catalog.PropDef{Name: g.VertexPropertyName(vp), Type: g.VertexPropertyDatatype(vp)})
		}
		s.VertexTypes = append(s.VertexTypes, def)
	}
	for _, et := range g.EdgeTypes() {
		def := catalog.EdgeTypeDef{Name: g.EdgeTypeName(et)}
		for _, ep := range g.EdgeProperties(et) {
			def.Properties = append(def.Properties, catalog.PropDef{Name: g.EdgePropertyName(ep), Type: g.EdgePropertyDatatype(ep)})
		}
		srcs, dsts := g.EdgeSrcTypes(et), g.EdgeDstTypes(et)
		for i := range srcs {
			def.Relations = append(def.Relations, catalog.Relation{Src: g.VertexTypeName(srcs[i]), Dst: g.VertexTypeName(dsts[i])})
		}
		s.EdgeTypes = append(s.EdgeTypes, def)
	}
	return s
}

func propsOf[P any](props []P, read func(P) (grin.Value, error), name func(P) string) (map[string]any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(props))
	for _, p := range props {
		v, err := read(p)
		if err != nil {
			return nil, err
		}
		out[name(p)] = v.Any()
	}
	return out, nil
}
