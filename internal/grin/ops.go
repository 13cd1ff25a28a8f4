package grin

// ============================================================================
// SCHEMA LOOKUPS
// ============================================================================

// VertexTypeByName returns NullVertexType when no type has that name.
func VertexTypeByName(g Graph, name string) VertexType {
	for _, vt := range g.VertexTypes() {
		if g.VertexTypeName(vt) == name {
			return vt
		}
	}
	return NullVertexType
}

// EdgeTypeByName returns NullEdgeType when no type has that name.
func EdgeTypeByName(g Graph, name string) EdgeType {
	for _, et := range g.EdgeTypes() {
		if g.EdgeTypeName(et) == name {
			return et
		}
	}
	return NullEdgeType
}

// VertexTypeID is the natural id of vt: its position in VertexTypes.
func VertexTypeID(g Graph, vt VertexType) NaturalID {
	for i, t := range g.VertexTypes() {
		if t == vt {
			return NaturalID(i)
		}
	}
	return NullNaturalID
}

// VertexTypeByID returns NullVertexType for an id out of range.
func VertexTypeByID(g Graph, id NaturalID) VertexType {
	vts := g.VertexTypes()
	if id == NullNaturalID || int(id) >= len(vts) {
		return NullVertexType
	}
	return vts[id]
}

func EdgeTypeID(g Graph, et EdgeType) NaturalID {
	for i, t := range g.EdgeTypes() {
		if t == et {
			return NaturalID(i)
		}
	}
	return NullNaturalID
}

func EdgeTypeByID(g Graph, id NaturalID) EdgeType {
	ets := g.EdgeTypes()
	if id == NullNaturalID || int(id) >= len(ets) {
		return NullEdgeType
	}
	return ets[id]
}

// EqualVertexType and EqualEdgeType compare type handles.
func EqualVertexType(a, b VertexType) bool { return a == b }
func EqualEdgeType(a, b EdgeType) bool     { return a == b }

// EqualVertex compares two vertices of g, honoring a VertexComparer.
func EqualVertex(g Graph, a, b Vertex) bool {
	if c, ok := g.(VertexComparer); ok {
		return c.EqualVertex(a, b)
	}
	return a == b
}

// EdgeTypesBetween lists the edge types with a relation from src to dst.
func EdgeTypesBetween(g Graph, src, dst VertexType) []EdgeType {
	var out []EdgeType
	for _, et := range g.EdgeTypes() {
		srcs, dsts := g.EdgeSrcTypes(et), g.EdgeDstTypes(et)
		for i := range srcs {
			if i < len(dsts) && srcs[i] == src && dsts[i] == dst {
				out = append(out, et)
				break
			}
		}
	}
	return out
}

// VertexPropertyByName returns the property of vt called name, or
// NullVertexProperty when vt is null or has no such property.
func VertexPropertyByName(g Graph, vt VertexType, name string) VertexProperty {
	if vt == NullVertexType {
		return NullVertexProperty
	}
	for _, vp := range g.VertexProperties(vt) {
		if g.VertexPropertyName(vp) == name {
			return vp
		}
	}
	return NullVertexProperty
}

// VertexPropertiesByName collects the properties called name across all
// vertex types. The result is nil when none match.
func VertexPropertiesByName(g Graph, name string) []VertexProperty {
	var out []VertexProperty
	for _, vt := range g.VertexTypes() {
		if vp := VertexPropertyByName(g, vt, name); vp != NullVertexProperty {
			out = append(out, vp)
		}
	}
	return out
}

// VertexPropertyType returns the type that owns vp.
func VertexPropertyType(vp VertexProperty) VertexType {
	if vp == NullVertexProperty {
		return NullVertexType
	}
	return vp.Type()
}

// VertexPropertyID is the natural id of vp within vt, or NullNaturalID if
// vp belongs to another type.
func VertexPropertyID(g Graph, vt VertexType, vp VertexProperty) NaturalID {
	if vp == NullVertexProperty || vp.Type() != vt {
		return NullNaturalID
	}
	for i, p := range g.VertexProperties(vt) {
		if p == vp {
			return NaturalID(i)
		}
	}
	return NullNaturalID
}

// VertexPropertyByID returns NullVertexProperty for an id out of range.
func VertexPropertyByID(g Graph, vt VertexType, id NaturalID) VertexProperty {
	vps := g.VertexProperties(vt)
	if id == NullNaturalID || int(id) >= len(vps) {
		return NullVertexProperty
	}
	return vps[id]
}

func EdgePropertyByName(g Graph, et EdgeType, name string) EdgeProperty {
	if et == NullEdgeType {
		return NullEdgeProperty
	}
	for _, ep := range g.EdgeProperties(et) {
		if g.EdgePropertyName(ep) == name {
			return ep
		}
	}
	return NullEdgeProperty
}

func EdgePropertiesByName(g Graph, name string) []EdgeProperty {
	var out []EdgeProperty
	for _, et := range g.EdgeTypes() {
		if ep := EdgePropertyByName(g, et, name); ep != NullEdgeProperty {
			out = append(out, ep)
		}
	}
	return out
}

func EdgePropertyType(ep EdgeProperty) EdgeType {
	if ep == NullEdgeProperty {
		return NullEdgeType
	}
	return ep.Type()
}

func EdgePropertyID(g Graph, et EdgeType, ep EdgeProperty) NaturalID {
	if ep == NullEdgeProperty || ep.Type() != et {
		return NullNaturalID
	}
	for i, p := range g.EdgeProperties(et) {
		if p == ep {
			return NaturalID(i)
		}
	}
	return NullNaturalID
}

func EdgePropertyByID(g Graph, et EdgeType, id NaturalID) EdgeProperty {
	eps := g.EdgeProperties(et)
	if id == NullNaturalID || int(id) >= len(eps) {
		return NullEdgeProperty
	}
	return eps[id]
}

// ============================================================================
// NAVIGATION
// ============================================================================

// SelectType narrows a vertex list to vt.
func SelectType(g Graph, l *VertexList, vt VertexType) (*VertexList, error) {
	if l == nil {
		return nil, nil
	}
	if !g.Capabilities().Has(CapSelectType) {
		return nil, ErrUnsupported
	}
	q := l.Query()
	q.Type = vt
	return g.Vertices(q)
}

// SelectMaster narrows a vertex list to locally mastered vertices. A list
// that is already master or mirror scoped yields the null list.
func SelectMaster(g Graph, l *VertexList) (*VertexList, error) {
	return selectScope(g, l, ScopeMaster)
}

// SelectMirror narrows a vertex list to mirror vertices.
func SelectMirror(g Graph, l *VertexList) (*VertexList, error) {
	return selectScope(g, l, ScopeMirror)
}

func selectScope(g Graph, l *VertexList, s Scope) (*VertexList, error) {
	if l == nil || l.Query().Scope != ScopeAll {
		return nil, nil
	}
	if !g.Capabilities().Has(CapSelectMaster) {
		return nil, ErrUnsupported
	}
	q := l.Query()
	q.Scope = s
	return g.Vertices(q)
}

// SelectEdgeType narrows an adjacency list to et.
func SelectEdgeType(g Graph, l *AdjacentList, et EdgeType) (*AdjacentList, error) {
	if l == nil {
		return nil, nil
	}
	if !g.Capabilities().Has(CapSelectEdgeType) {
		return nil, ErrUnsupported
	}
	q := l.Query()
	q.EdgeType = et
	return g.Adjacent(q)
}

// ============================================================================
// IDENTITY
// ============================================================================

// Referencer returns g's VertexReferencer when g declares CapVertexRef.
func Referencer(g Graph) (VertexReferencer, error) {
	r, ok := g.(VertexReferencer)
	if !ok || !g.Capabilities().Has(CapVertexRef) {
		return nil, ErrUnsupported
	}
	return r, nil
}

// FastReferencer returns g's FastVertexReferencer when g declares
// CapFastVertexRef.
func FastReferencer(g Graph) (FastVertexReferencer, error) {
	r, ok := g.(FastVertexReferencer)
	if !ok || !g.Capabilities().Has(CapFastVertexRef) {
		return nil, ErrUnsupported
	}
	return r, nil
}

// ResolveRef deserializes s against g and resolves the local vertex and the
// master partition. v is NullVertex when g cannot resolve the vertex.
func ResolveRef(g Graph, s string) (v Vertex, master Partition, err error) {
	r, err := Referencer(g)
	if err != nil {
		return NullVertex, NullPartition, err
	}
	ref, err := r.DeserializeRef(s)
	if err != nil {
		return NullVertex, NullPartition, err
	}
	if master, err = r.MasterPartition(ref); err != nil {
		return NullVertex, NullPartition, err
	}
	if v, err = r.VertexFromRef(ref); err != nil {
		return NullVertex, master, err
	}
	return v, master, nil
}

// ============================================================================
// TYPED VALUE ACCESS
// ============================================================================

func vertexAs[T any](g Graph, v Vertex, vp VertexProperty, dt Datatype, get func(Value) (T, error)) (T, error) {
	var zero T
	if got := g.VertexPropertyDatatype(vp); got != dt {
		return zero, UnknownDatatypef("vertex value", "property is %s, accessor is %s", got, dt)
	}
	val, err := g.VertexValue(v, vp)
	if err != nil {
		return zero, err
	}
	return get(val)
}

func edgeAs[T any](g Graph, e Edge, ep EdgeProperty, dt Datatype, get func(Value) (T, error)) (T, error) {
	var zero T
	if got := g.EdgePropertyDatatype(ep); got != dt {
		return zero, UnknownDatatypef("edge value", "property is %s, accessor is %s", got, dt)
	}
	val, err := g.EdgeValue(e, ep)
	if err != nil {
		return zero, err
	}
	return get(val)
}

func VertexInt32(g Graph, v Vertex, vp VertexProperty) (int32, error) {
	return vertexAs(g, v, vp, Int32, Value.Int32)
}

func VertexUInt32(g Graph, v Vertex, vp VertexProperty) (uint32, error) {
	return vertexAs(g, v, vp, UInt32, Value.UInt32)
}

func VertexInt64(g Graph, v Vertex, vp VertexProperty) (int64, error) {
	return vertexAs(g, v, vp, Int64, Value.Int64)
}

func VertexUInt64(g Graph, v Vertex, vp VertexProperty) (uint64, error) {
	return vertexAs(g, v, vp, UInt64, Value.UInt64)
}

func VertexFloat(g Graph, v Vertex, vp VertexProperty) (float32, error) {
	return vertexAs(g, v, vp, Float, Value.Float)
}

func VertexDouble(g Graph, v Vertex, vp VertexProperty) (float64, error) {
	return vertexAs(g, v, vp, Double, Value.Double)
}

func VertexString(g Graph, v Vertex, vp VertexProperty) (string, error) {
	return vertexAs(g, v, vp, String, Value.Str)
}

func VertexDate32(g Graph, v Vertex, vp VertexProperty) (int32, error) {
	return vertexAs(g, v, vp, Date32, Value.Date32)
}

func VertexTime32(g Graph, v Vertex, vp VertexProperty) (int32, error) {
	return vertexAs(g, v, vp, Time32, Value.Time32)
}

func VertexTimestamp64(g Graph, v Vertex, vp VertexProperty) (int64, error) {
	return vertexAs(g, v, vp, Timestamp64, Value.Timestamp64)
}

func EdgeInt32(g Graph, e Edge, ep EdgeProperty) (int32, error) {
	return edgeAs(g, e, ep, Int32, Value.Int32)
}

func EdgeUInt32(g Graph, e Edge, ep EdgeProperty) (uint32, error) {
	return edgeAs(g, e, ep, UInt32, Value.UInt32)
}

func EdgeInt64(g Graph, e Edge, ep EdgeProperty) (int64, error) {
	return edgeAs(g, e, ep, Int64, Value.Int64)
}

func EdgeUInt64(g Graph, e Edge, ep EdgeProperty) (uint64, error) {
	return edgeAs(g, e, ep, UInt64, Value.UInt64)
}

func EdgeFloat(g Graph, e Edge, ep EdgeProperty) (float32, error) {
	return edgeAs(g, e, ep, Float, Value.Float)
}

func EdgeDouble(g Graph, e Edge, ep EdgeProperty) (float64, error) {
	return edgeAs(g, e, ep, Double, Value.Double)
}

func EdgeString(g Graph, e Edge, ep EdgeProperty) (string, error) {
	return edgeAs(g, e, ep, String, Value.Str)
}

func EdgeDate32(g Graph, e Edge, ep EdgeProperty) (int32, error) {
	return edgeAs(g, e, ep, Date32, Value.Date32)
}

func EdgeTime32(g Graph, e Edge, ep EdgeProperty) (int32, error) {
	return edgeAs(g, e, ep, Time32, Value.Time32)
}

func EdgeTimestamp64(g Graph, e Edge, ep EdgeProperty) (int64, error) {
	return edgeAs(g, e, ep, Timestamp64, Value.Timestamp64)
}

// VertexValueBytes reads raw storage bytes when g declares
// CapConstValuePtr.
func VertexValueBytes(g Graph, v Vertex, vp VertexProperty) ([]byte, error) {
	r, ok := g.(RawValueReader)
	if !ok || !g.Capabilities().Has(CapConstValuePtr) {
		return nil, ErrUnsupported
	}
	return r.VertexValueBytes(v, vp)
}

func EdgeValueBytes(g Graph, e Edge, ep EdgeProperty) ([]byte, error) {
	r, ok := g.(RawValueReader)
	if !ok || !g.Capabilities().Has(CapConstValuePtr) {
		return nil, ErrUnsupported
	}
	return r.EdgeValueBytes(e, ep)
}

// VertexRow reads every property of v, falling back to per-property reads
// when g has no RowReader.
func VertexRow(g Graph, v Vertex) (*Row, error) {
	if r, ok := g.(RowReader); ok && g.Capabilities().Has(CapRow) {
		return r.VertexRow(v)
	}
	vt, err := g.VertexTypeOf(v)
	if err != nil {
		return nil, err
	}
	row := NewRow()
	for _, vp := range g.VertexProperties(vt) {
		val, err := g.VertexValue(v, vp)
		if err != nil {
			return nil, err
		}
		row.InsertValue(val)
	}
	return row, nil
}

// EdgeRow reads every property of e.
func EdgeRow(g Graph, e Edge) (*Row, error) {
	if r, ok := g.(RowReader); ok && g.Capabilities().Has(CapRow) {
		return r.EdgeRow(e)
	}
	row := NewRow()
	for _, ep := range g.EdgeProperties(e.Type) {
		val, err := g.EdgeValue(e, ep)
		if err != nil {
			return nil, err
		}
		row.InsertValue(val)
	}
	return row, nil
}
