package graph

import (
	"context"
	"time"

	"go.uber.org/zap"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

const engineCaps = grin.CapDirected | grin.CapMultigraph |
	grin.CapVertexList | grin.CapAdjacentList | grin.CapSchema |
	grin.CapVertexProperty | grin.CapEdgeProperty |
	grin.CapVertexTypeNaturalID | grin.CapEdgeTypeNaturalID | grin.CapPropertyNaturalID |
	grin.CapRow | grin.CapSelectMaster | grin.CapSelectType | grin.CapSelectEdgeType |
	grin.CapOriginalID

// Graph serves a Neo4j database. The schema and counts are read at open;
// everything else is a Cypher round trip.
type Graph struct {
	*catalog.SchemaView

	runner     Runner
	timeout    time.Duration
	discovered bool
	vcount     []int
	ecount     []int
	nv, ne     int
	log        *zap.Logger
}

var (
	_ grin.Graph           = (*Graph)(nil)
	_ grin.RowReader       = (*Graph)(nil)
	_ grin.OriginalIDIndex = (*Graph)(nil)
)

// Option configures Open.
type Option func(*Graph)

// WithTimeout bounds every Cypher round trip.
func WithTimeout(d time.Duration) Option {
	return func(g *Graph) { g.timeout = d }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// Open snapshots the schema and counts behind r. The graph owns r.
func Open(ctx context.Context, r Runner, opts ...Option) (*Graph, error) {
	g := &Graph{runner: r, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	schema, discovered, err := LoadSchema(ctx, r)
	if err != nil {
		return nil, err
	}
	g.SchemaView = catalog.NewSchemaView(*schema)
	g.discovered = discovered

	for _, vt := range schema.VertexTypes {
		n, err := g.count(ctx, countVerticesStmt(vt.Name))
		if err != nil {
			return nil, err
		}
		g.vcount = append(g.vcount, n)
		g.nv += n
	}
	for _, et := range schema.EdgeTypes {
		n, err := g.count(ctx, countEdgesStmt(et.Name))
		if err != nil {
			return nil, err
		}
		g.ecount = append(g.ecount, n)
		g.ne += n
	}
	g.log.Info("neo4j graph opened",
		zap.Bool("discovered_schema", discovered),
		zap.Int("vertex_types", len(schema.VertexTypes)),
		zap.Int("vertices", g.nv),
		zap.Int("edges", g.ne))
	return g, nil
}

func (g *Graph) count(ctx context.Context, st Statement) (int, error) {
	recs, err := g.runner.Read(ctx, st)
	if err != nil {
		return 0, grin.Internal(st.Name, err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	n, _ := asInt64(recs[0]["count"])
	return int(n), nil
}

// read runs st with the per-call timeout.
func (g *Graph) read(op string, st Statement) ([]Record, error) {
	ctx := context.Background()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	recs, err := g.runner.Read(ctx, st)
	if err != nil {
		return nil, grin.Internal(op, err)
	}
	return recs, nil
}

// Discovered reports whether the schema was inferred rather than stored.
func (g *Graph) Discovered() bool { return g.discovered }

func (g *Graph) Capabilities() grin.Capabilities { return engineCaps }

func (g *Graph) Close() error { return g.runner.Close(context.Background()) }

func (g *Graph) VertexNum() int { return g.nv }
func (g *Graph) EdgeNum() int   { return g.ne }

func (g *Graph) VertexNumByType(vt grin.VertexType) int {
	if !g.HasVertexType(vt) {
		return 0
	}
	return g.vcount[vt]
}

func (g *Graph) EdgeNumByType(et grin.EdgeType) int {
	if !g.HasEdgeType(et) {
		return 0
	}
	return g.ecount[et]
}

// typeOfLabels picks the first label that names a vertex type.
func (g *Graph) typeOfLabels(labels []string) (grin.VertexType, bool) {
	s := g.Schema()
	for _, l := range labels {
		if i := s.VertexTypeIndex(l); i >= 0 {
			return grin.VertexType(i), true
		}
	}
	return grin.NullVertexType, false
}

func (g *Graph) VertexTypeOf(v grin.Vertex) (grin.VertexType, error) {
	if v == grin.NullVertex {
		return grin.NullVertexType, grin.InvalidValuef("vertex type", "null vertex")
	}
	recs, err := g.read("vertex type", vertexLabelsStmt(int64(v)))
	if err != nil {
		return grin.NullVertexType, err
	}
	if len(recs) == 0 {
		return grin.NullVertexType, grin.InvalidValuef("vertex type", "unknown vertex %d", uint64(v))
	}
	vt, ok := g.typeOfLabels(asStrings(recs[0]["labels"]))
	if !ok {
		return grin.NullVertexType, grin.InvalidValuef("vertex type", "vertex %d has no known label", uint64(v))
	}
	return vt, nil
}

// Vertices lists type by type in original-id order. Every vertex is a
// master, so a mirror scope yields an empty list.
func (g *Graph) Vertices(q grin.VertexQuery) (*grin.VertexList, error) {
	types := g.VertexTypes()
	if q.Type != grin.NullVertexType {
		if !g.HasVertexType(q.Type) {
			return nil, grin.InvalidValuef("vertex list", "unknown vertex type %d", q.Type)
		}
		types = []grin.VertexType{q.Type}
	}
	var out []grin.Vertex
	if q.Scope == grin.ScopeMirror {
		return grin.NewVertexList(q, out), nil
	}
	for _, vt := range types {
		recs, err := g.read("vertex list", verticesStmt(g.VertexTypeName(vt)))
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			id, ok := asInt64(rec["id"])
			if !ok {
				continue
			}
			out = append(out, grin.Vertex(id))
		}
	}
	return grin.NewVertexList(q, out), nil
}

// Adjacent lists, per edge type, out-edges before in-edges, each in import
// order.
func (g *Graph) Adjacent(q grin.AdjacentQuery) (*grin.AdjacentList, error) {
	if q.Vertex == grin.NullVertex {
		return nil, grin.InvalidValuef("adjacent list", "null vertex")
	}
	if q.Dir > grin.Both {
		return nil, grin.InvalidValuef("adjacent list", "invalid direction %d", q.Dir)
	}
	typ := ""
	if q.EdgeType != grin.NullEdgeType {
		if !g.HasEdgeType(q.EdgeType) {
			return nil, grin.InvalidValuef("adjacent list", "unknown edge type %d", q.EdgeType)
		}
		typ = g.EdgeTypeName(q.EdgeType)
	}
	if _, err := g.VertexTypeOf(q.Vertex); err != nil {
		return nil, err
	}

	buckets := make([][2][]grin.Adjacency, len(g.Schema().EdgeTypes))
	for _, dir := range []grin.Direction{grin.Out, grin.In} {
		if q.Dir != grin.Both && q.Dir != dir {
			continue
		}
		recs, err := g.read("adjacent list", adjacentStmt(dir, int64(q.Vertex), typ))
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			ti := g.Schema().EdgeTypeIndex(asString(rec["type"]))
			eid, ok1 := asInt64(rec["eid"])
			nbr, ok2 := asInt64(rec["nbr"])
			if ti < 0 || !ok1 || !ok2 {
				continue
			}
			e := grin.Edge{Src: q.Vertex, Dst: grin.Vertex(nbr), Type: grin.EdgeType(ti), Dir: dir, ID: uint64(eid)}
			slot := 0
			if dir == grin.In {
				e.Src, e.Dst = grin.Vertex(nbr), q.Vertex
				slot = 1
			}
			buckets[ti][slot] = append(buckets[ti][slot], grin.Adjacency{Neighbor: grin.Vertex(nbr), Edge: e})
		}
	}
	var out []grin.Adjacency
	for _, b := range buckets {
		out = append(out, b[0]...)
		out = append(out, b[1]...)
	}
	return grin.NewAdjacentList(q, out), nil
}

// =============================================================================
// VALUES
// =============================================================================

// fromNeo converts a Bolt value back to dt. Unsigned 64-bit values were
// stored bit-cast into int64.
func fromNeo(dt grin.Datatype, x any) (grin.Value, error) {
	if dt == grin.UInt64 {
		if n, ok := x.(int64); ok {
			return grin.UInt64Value(uint64(n)), nil
		}
	}
	return grin.ValueOf(dt, x)
}

func (g *Graph) VertexValue(v grin.Vertex, vp grin.VertexProperty) (grin.Value, error) {
	p, ok := g.VertexProp(vp)
	if !ok {
		return grin.NullValue, grin.InvalidValuef("vertex value", "unknown property %#x", uint64(vp))
	}
	recs, err := g.read("vertex value", vertexPropertyStmt(int64(v), p.Name))
	if err != nil {
		return grin.NullValue, err
	}
	if len(recs) == 0 {
		return grin.NullValue, grin.InvalidValuef("vertex value", "unknown vertex %d", uint64(v))
	}
	vt, ok := g.typeOfLabels(asStrings(recs[0]["labels"]))
	if !ok || vt != vp.Type() {
		return grin.NullValue, grin.InvalidValuef("vertex value", "property %#x does not belong to vertex %d", uint64(vp), uint64(v))
	}
	return fromNeo(p.Type, recs[0]["value"])
}

func (g *Graph) VertexRow(v grin.Vertex) (*grin.Row, error) {
	recs, err := g.read("vertex row", vertexPropertiesStmt(int64(v)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, grin.InvalidValuef("vertex row", "unknown vertex %d", uint64(v))
	}
	vt, ok := g.typeOfLabels(asStrings(recs[0]["labels"]))
	if !ok {
		return nil, grin.InvalidValuef("vertex row", "vertex %d has no known label", uint64(v))
	}
	return rowOf(g.Schema().VertexTypes[vt].Properties, recs[0]["props"])
}

func (g *Graph) checkEdge(op string, e grin.Edge, got string) error {
	if got == "" {
		return grin.InvalidValuef(op, "unknown edge %d", e.ID)
	}
	if got != g.EdgeTypeName(e.Type) {
		return grin.InvalidValuef(op, "edge %d has type %s, handle says %d", e.ID, got, e.Type)
	}
	return nil
}

func (g *Graph) EdgeValue(e grin.Edge, ep grin.EdgeProperty) (grin.Value, error) {
	p, ok := g.EdgeProp(ep)
	if !ok || ep.Type() != e.Type {
		return grin.NullValue, grin.InvalidValuef("edge value", "property %#x does not belong to edge type %d", uint64(ep), e.Type)
	}
	if e.IsNull() {
		return grin.NullValue, grin.InvalidValuef("edge value", "null edge")
	}
	recs, err := g.read("edge value", edgePropertyStmt(int64(e.ID), p.Name))
	if err != nil {
		return grin.NullValue, err
	}
	got := ""
	if len(recs) > 0 {
		got = asString(recs[0]["type"])
	}
	if err := g.checkEdge("edge value", e, got); err != nil {
		return grin.NullValue, err
	}
	return fromNeo(p.Type, recs[0]["value"])
}

func (g *Graph) EdgeRow(e grin.Edge) (*grin.Row, error) {
	if e.IsNull() || !g.HasEdgeType(e.Type) {
		return nil, grin.InvalidValuef("edge row", "invalid edge handle")
	}
	recs, err := g.read("edge row", edgePropertiesStmt(int64(e.ID)))
	if err != nil {
		return nil, err
	}
	got := ""
	if len(recs) > 0 {
		got = asString(recs[0]["type"])
	}
	if err := g.checkEdge("edge row", e, got); err != nil {
		return nil, err
	}
	return rowOf(g.Schema().EdgeTypes[e.Type].Properties, recs[0]["props"])
}

func rowOf(defs []catalog.PropDef, raw any) (*grin.Row, error) {
	props, _ := raw.(map[string]any)
	row := grin.NewRow()
	for _, d := range defs {
		v, err := fromNeo(d.Type, props[d.Name])
		if err != nil {
			return nil, err
		}
		row.InsertValue(v)
	}
	return row, nil
}

// =============================================================================
// ORIGINAL IDS
// =============================================================================

func (g *Graph) VertexOriginalIDDatatype() grin.Datatype { return grin.Int64 }

func (g *Graph) VertexOriginalID(v grin.Vertex) (grin.Value, error) {
	if v == grin.NullVertex {
		return grin.NullValue, grin.InvalidValuef("original id", "null vertex")
	}
	recs, err := g.read("original id", vertexOIDStmt(int64(v)))
	if err != nil {
		return grin.NullValue, err
	}
	if len(recs) == 0 {
		return grin.NullValue, grin.InvalidValuef("original id", "unknown vertex %d", uint64(v))
	}
	oid, ok := asInt64(recs[0]["oid"])
	if !ok {
		return grin.NullValue, grin.InvalidValuef("original id", "vertex %d was not imported with an id", uint64(v))
	}
	return grin.Int64Value(oid), nil
}

func (g *Graph) VertexByOriginalID(vt grin.VertexType, oid grin.Value) (grin.Vertex, error) {
	id, err := oid.Int64()
	if err != nil {
		return grin.NullVertex, err
	}
	if !g.HasVertexType(vt) {
		return grin.NullVertex, grin.InvalidValuef("vertex by original id", "unknown vertex type %d", vt)
	}
	recs, err := g.read("vertex by original id", vertexByOIDStmt(g.VertexTypeName(vt), id))
	if err != nil {
		return grin.NullVertex, err
	}
	if len(recs) == 0 {
		return grin.NullVertex, nil
	}
	n, ok := asInt64(recs[0]["id"])
	if !ok {
		return grin.NullVertex, nil
	}
	return grin.Vertex(n), nil
}
