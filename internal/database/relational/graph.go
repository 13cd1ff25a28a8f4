package relational

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

const graphCaps = grin.CapDirected | grin.CapMultigraph |
	grin.CapVertexList | grin.CapAdjacentList | grin.CapSchema |
	grin.CapVertexProperty | grin.CapEdgeProperty |
	grin.CapVertexTypeNaturalID | grin.CapEdgeTypeNaturalID | grin.CapPropertyNaturalID |
	grin.CapRow | grin.CapVertexRef | grin.CapFastVertexRef |
	grin.CapSelectMaster | grin.CapSelectType | grin.CapSelectEdgeType |
	grin.CapOriginalID | grin.CapInternalID

// Graph serves a graph stored in the grin_* tables. The schema and the
// per-type counts are read once at open; vertex and edge data are queried
// on demand. A vertex handle is its vid.
type Graph struct {
	*catalog.SchemaView

	client *DuckDBClient
	repo   *Repo
	counts TypeCounts
	nv, ne int
	log    *zap.Logger
}

var (
	_ grin.Graph                = (*Graph)(nil)
	_ grin.VertexReferencer     = (*Graph)(nil)
	_ grin.FastVertexReferencer = (*Graph)(nil)
	_ grin.RowReader            = (*Graph)(nil)
	_ grin.OriginalIDIndex      = (*Graph)(nil)
	_ grin.InternalIDIndex      = (*Graph)(nil)
)

// OpenGraph snapshots the schema and counts stored in client. The graph
// owns client and closes it on Close.
func OpenGraph(ctx context.Context, client *DuckDBClient) (*Graph, error) {
	repo := NewRepo(client.DB(), client.log)
	ctx, cancel := client.withTimeout(ctx)
	defer cancel()

	if err := repo.Migrate(ctx); err != nil {
		return nil, grin.Internal("duckdb open", err)
	}
	schema, err := repo.LoadSchema(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := repo.TypeCounts(ctx)
	if err != nil {
		return nil, err
	}
	g := &Graph{
		SchemaView: catalog.NewSchemaView(*schema),
		client:     client,
		repo:       repo,
		counts:     counts,
		log:        client.log,
	}
	for _, n := range counts.VertexCount {
		g.nv += int(n)
	}
	for _, n := range counts.EdgeCount {
		g.ne += int(n)
	}
	g.log.Info("duckdb graph opened",
		zap.String("dsn", client.DSN()),
		zap.Int("vertex_types", len(schema.VertexTypes)),
		zap.Int("vertices", g.nv),
		zap.Int("edges", g.ne))
	return g, nil
}

func (g *Graph) Capabilities() grin.Capabilities { return graphCaps }

func (g *Graph) Close() error { return g.client.Close() }

func (g *Graph) VertexNum() int { return g.nv }
func (g *Graph) EdgeNum() int   { return g.ne }

func (g *Graph) VertexNumByType(vt grin.VertexType) int {
	if !g.HasVertexType(vt) {
		return 0
	}
	return int(g.counts.VertexCount[vt])
}

func (g *Graph) EdgeNumByType(et grin.EdgeType) int {
	if !g.HasEdgeType(et) {
		return 0
	}
	return int(g.counts.EdgeCount[et])
}

// typeOf finds the type whose vid range holds v.
func (g *Graph) typeOf(v grin.Vertex) (grin.VertexType, bool) {
	if v == grin.NullVertex {
		return grin.NullVertexType, false
	}
	for ti, base := range g.counts.VertexBase {
		if int64(v) >= base && int64(v) < base+g.counts.VertexCount[ti] {
			return grin.VertexType(ti), true
		}
	}
	return grin.NullVertexType, false
}

func (g *Graph) VertexTypeOf(v grin.Vertex) (grin.VertexType, error) {
	vt, ok := g.typeOf(v)
	if !ok {
		return grin.NullVertexType, grin.InvalidValuef("vertex type", "unknown vertex %d", uint64(v))
	}
	return vt, nil
}

// Vertices enumerates vid ranges; every stored vertex is a master, so a
// mirror scope yields an empty list.
func (g *Graph) Vertices(q grin.VertexQuery) (*grin.VertexList, error) {
	types := g.VertexTypes()
	if q.Type != grin.NullVertexType {
		if !g.HasVertexType(q.Type) {
			return nil, grin.InvalidValuef("vertex list", "unknown vertex type %d", q.Type)
		}
		types = []grin.VertexType{q.Type}
	}
	var out []grin.Vertex
	if q.Scope != grin.ScopeMirror {
		for _, vt := range types {
			base := g.counts.VertexBase[vt]
			for i := int64(0); i < g.counts.VertexCount[vt]; i++ {
				out = append(out, grin.Vertex(base+i))
			}
		}
	}
	return grin.NewVertexList(q, out), nil
}

// Adjacent reads every matching edge in one query ordered by (type, eid)
// and lists, per type, out-edges before in-edges.
func (g *Graph) Adjacent(q grin.AdjacentQuery) (*grin.AdjacentList, error) {
	if _, ok := g.typeOf(q.Vertex); !ok {
		return nil, grin.InvalidValuef("adjacent list", "unknown vertex %d", uint64(q.Vertex))
	}
	if q.Dir > grin.Both {
		return nil, grin.InvalidValuef("adjacent list", "invalid direction %d", q.Dir)
	}
	if q.EdgeType != grin.NullEdgeType && !g.HasEdgeType(q.EdgeType) {
		return nil, grin.InvalidValuef("adjacent list", "unknown edge type %d", q.EdgeType)
	}

	vid := int64(q.Vertex)
	query := `SELECT eid, type_id, src, dst FROM grin_edges WHERE `
	args := []any{}
	switch q.Dir {
	case grin.Out:
		query += `src = ?`
		args = append(args, vid)
	case grin.In:
		query += `dst = ?`
		args = append(args, vid)
	default:
		query += `(src = ? OR dst = ?)`
		args = append(args, vid, vid)
	}
	if q.EdgeType != grin.NullEdgeType {
		query += ` AND type_id = ?`
		args = append(args, int(q.EdgeType))
	}
	query += ` ORDER BY type_id, eid`

	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	rows, err := g.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, grin.Internal("adjacent list", err)
	}
	defer rows.Close()

	var out, in []grin.Adjacency
	cur := grin.NullEdgeType
	flush := func(dst []grin.Adjacency) []grin.Adjacency {
		dst = append(dst, out...)
		dst = append(dst, in...)
		out, in = out[:0], in[:0]
		return dst
	}
	var entries []grin.Adjacency
	for rows.Next() {
		var eid, src, dst int64
		var ti int
		if err := rows.Scan(&eid, &ti, &src, &dst); err != nil {
			return nil, grin.Internal("adjacent list", err)
		}
		et := grin.EdgeType(ti)
		if et != cur {
			entries = flush(entries)
			cur = et
		}
		e := grin.Edge{Src: grin.Vertex(src), Dst: grin.Vertex(dst), Type: et, ID: uint64(eid)}
		if src == vid && q.Dir != grin.In {
			e.Dir = grin.Out
			out = append(out, grin.Adjacency{Neighbor: grin.Vertex(dst), Edge: e})
		}
		if dst == vid && q.Dir != grin.Out {
			e.Dir = grin.In
			in = append(in, grin.Adjacency{Neighbor: grin.Vertex(src), Edge: e})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, grin.Internal("adjacent list", err)
	}
	return grin.NewAdjacentList(q, flush(entries)), nil
}

// =============================================================================
// VALUES
// =============================================================================

func (g *Graph) checkVertexProp(op string, v grin.Vertex, vp grin.VertexProperty) (*catalog.PropDef, error) {
	vt, ok := g.typeOf(v)
	if !ok {
		return nil, grin.InvalidValuef(op, "unknown vertex %d", uint64(v))
	}
	p, ok := g.VertexProp(vp)
	if !ok || vp.Type() != vt {
		return nil, grin.InvalidValuef(op, "property %#x does not belong to vertex type %d", uint64(vp), vt)
	}
	return p, nil
}

func (g *Graph) VertexValue(v grin.Vertex, vp grin.VertexProperty) (grin.Value, error) {
	p, err := g.checkVertexProp("vertex value", v, vp)
	if err != nil {
		return grin.NullValue, err
	}
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()

	var (
		iv sql.NullInt64
		uv any
		fv sql.NullFloat64
		sv sql.NullString
	)
	err = g.client.DB().QueryRowContext(ctx,
		`SELECT ival, uval, fval, sval FROM grin_vertex_values WHERE vid = ? AND slot = ?`,
		int64(v), int(vp.Slot())).Scan(&iv, &uv, &fv, &sv)
	switch {
	case isNoRows(err):
		return grin.ValueOf(p.Type, nil)
	case err != nil:
		return grin.NullValue, grin.Internal("vertex value", err)
	}
	return scanValue(p.Type, iv, uv, fv, sv)
}

func (g *Graph) VertexRow(v grin.Vertex) (*grin.Row, error) {
	vt, ok := g.typeOf(v)
	if !ok {
		return nil, grin.InvalidValuef("vertex row", "unknown vertex %d", uint64(v))
	}
	defs := g.Schema().VertexTypes[vt].Properties
	vals, err := g.readRow("vertex row", `SELECT slot, ival, uval, fval, sval FROM grin_vertex_values WHERE vid = ? ORDER BY slot`, int64(v), defs)
	if err != nil {
		return nil, err
	}
	return grin.NewRow(vals...), nil
}

// edgeType confirms e exists and returns its stored type.
func (g *Graph) edgeType(ctx context.Context, op string, e grin.Edge) (grin.EdgeType, error) {
	if e.IsNull() {
		return grin.NullEdgeType, grin.InvalidValuef(op, "null edge")
	}
	var ti int
	err := g.client.DB().QueryRowContext(ctx, `SELECT type_id FROM grin_edges WHERE eid = ?`, int64(e.ID)).Scan(&ti)
	switch {
	case isNoRows(err):
		return grin.NullEdgeType, grin.InvalidValuef(op, "unknown edge %d", e.ID)
	case err != nil:
		return grin.NullEdgeType, grin.Internal(op, err)
	}
	if grin.EdgeType(ti) != e.Type {
		return grin.NullEdgeType, grin.InvalidValuef(op, "edge %d has type %d, handle says %d", e.ID, ti, e.Type)
	}
	return e.Type, nil
}

func (g *Graph) EdgeValue(e grin.Edge, ep grin.EdgeProperty) (grin.Value, error) {
	p, ok := g.EdgeProp(ep)
	if !ok || ep.Type() != e.Type {
		return grin.NullValue, grin.InvalidValuef("edge value", "property %#x does not belong to edge type %d", uint64(ep), e.Type)
	}
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	if _, err := g.edgeType(ctx, "edge value", e); err != nil {
		return grin.NullValue, err
	}

	var (
		iv sql.NullInt64
		uv any
		fv sql.NullFloat64
		sv sql.NullString
	)
	err := g.client.DB().QueryRowContext(ctx,
		`SELECT ival, uval, fval, sval FROM grin_edge_values WHERE eid = ? AND slot = ?`,
		int64(e.ID), int(ep.Slot())).Scan(&iv, &uv, &fv, &sv)
	switch {
	case isNoRows(err):
		return grin.ValueOf(p.Type, nil)
	case err != nil:
		return grin.NullValue, grin.Internal("edge value", err)
	}
	return scanValue(p.Type, iv, uv, fv, sv)
}

func (g *Graph) EdgeRow(e grin.Edge) (*grin.Row, error) {
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	et, err := g.edgeType(ctx, "edge row", e)
	if err != nil {
		return nil, err
	}
	defs := g.Schema().EdgeTypes[et].Properties
	vals, err := g.readRow("edge row", `SELECT slot, ival, uval, fval, sval FROM grin_edge_values WHERE eid = ? ORDER BY slot`, int64(e.ID), defs)
	if err != nil {
		return nil, err
	}
	return grin.NewRow(vals...), nil
}

// readRow fills one value per def; slots without a stored row keep the
// zero value of their datatype.
func (g *Graph) readRow(op, query string, id int64, defs []catalog.PropDef) ([]grin.Value, error) {
	vals := make([]grin.Value, len(defs))
	for i, d := range defs {
		vals[i], _ = grin.ValueOf(d.Type, nil)
	}
	if len(defs) == 0 {
		return vals, nil
	}
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	rows, err := g.client.DB().QueryContext(ctx, query, id)
	if err != nil {
		return nil, grin.Internal(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			slot int
			iv   sql.NullInt64
			uv   any
			fv   sql.NullFloat64
			sv   sql.NullString
		)
		if err := rows.Scan(&slot, &iv, &uv, &fv, &sv); err != nil {
			return nil, grin.Internal(op, err)
		}
		if slot < 0 || slot >= len(defs) {
			continue
		}
		val, err := scanValue(defs[slot].Type, iv, uv, fv, sv)
		if err != nil {
			return nil, err
		}
		vals[slot] = val
	}
	if err := rows.Err(); err != nil {
		return nil, grin.Internal(op, err)
	}
	return vals, nil
}

// =============================================================================
// REFERENCES AND IDS
// =============================================================================

// The database holds a single partition, so a vertex ref is its vid and
// every vertex is a master on partition 0.

func (g *Graph) VertexRef(v grin.Vertex) (grin.VertexRef, error) {
	if _, ok := g.typeOf(v); !ok {
		return grin.NullVertexRef, grin.InvalidValuef("vertex ref", "unknown vertex %d", uint64(v))
	}
	return grin.VertexRef(v), nil
}

func (g *Graph) VertexFromRef(ref grin.VertexRef) (grin.Vertex, error) {
	if ref < 0 {
		return grin.NullVertex, grin.InvalidValuef("vertex from ref", "null vertex ref")
	}
	if _, ok := g.typeOf(grin.Vertex(ref)); !ok {
		return grin.NullVertex, nil
	}
	return grin.Vertex(ref), nil
}

func (g *Graph) MasterPartition(ref grin.VertexRef) (grin.Partition, error) {
	if ref < 0 {
		return grin.NullPartition, grin.InvalidValuef("master partition", "null vertex ref")
	}
	return 0, nil
}

func (g *Graph) SerializeRef(ref grin.VertexRef) (string, error) {
	if ref < 0 {
		return "", grin.InvalidValuef("serialize ref", "null vertex ref")
	}
	return strconv.FormatInt(int64(ref), 10), nil
}

func (g *Graph) DeserializeRef(s string) (grin.VertexRef, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return grin.NullVertexRef, grin.InvalidValuef("deserialize ref", "%q is not a vertex ref", s)
	}
	return grin.VertexRef(n), nil
}

func (g *Graph) RefToInt64(ref grin.VertexRef) int64 { return int64(ref) }
func (g *Graph) RefFromInt64(n int64) grin.VertexRef { return grin.VertexRef(n) }

func (g *Graph) IsMaster(v grin.Vertex) bool {
	_, ok := g.typeOf(v)
	return ok
}

func (g *Graph) IsMirror(grin.Vertex) bool { return false }

func (g *Graph) VertexOriginalIDDatatype() grin.Datatype { return grin.Int64 }

func (g *Graph) VertexOriginalID(v grin.Vertex) (grin.Value, error) {
	if _, ok := g.typeOf(v); !ok {
		return grin.NullValue, grin.InvalidValuef("original id", "unknown vertex %d", uint64(v))
	}
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	var oid int64
	if err := g.client.DB().QueryRowContext(ctx, `SELECT oid FROM grin_vertices WHERE vid = ?`, int64(v)).Scan(&oid); err != nil {
		return grin.NullValue, grin.Internal("original id", err)
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
	ctx, cancel := g.client.withTimeout(context.Background())
	defer cancel()
	var vid int64
	err = g.client.DB().QueryRowContext(ctx, `SELECT vid FROM grin_vertices WHERE type_id = ? AND oid = ?`, int(vt), id).Scan(&vid)
	switch {
	case isNoRows(err):
		return grin.NullVertex, nil
	case err != nil:
		return grin.NullVertex, grin.Internal("vertex by original id", err)
	}
	return grin.Vertex(vid), nil
}

// Internal ids are vids: type t owns [base_t, base_t + n_t).

// Internal ids are offsets within a type: vid minus the type's first vid.
func (g *Graph) VertexInternalID(vt grin.VertexType, v grin.Vertex) (int64, error) {
	got, ok := g.typeOf(v)
	if !ok || got != vt {
		return -1, grin.InvalidValuef("internal id", "vertex %d is not of type %d", uint64(v), vt)
	}
	return int64(v) - g.counts.VertexBase[vt], nil
}

func (g *Graph) VertexByInternalID(vt grin.VertexType, id int64) (grin.Vertex, error) {
	if !g.HasVertexType(vt) {
		return grin.NullVertex, grin.InvalidValuef("vertex by internal id", "unknown vertex type %d", vt)
	}
	if id < 0 || id >= g.InternalIDUpperBound(vt) {
		return grin.NullVertex, nil
	}
	return grin.Vertex(g.counts.VertexBase[vt] + id), nil
}

func (g *Graph) InternalIDLowerBound(grin.VertexType) int64 { return 0 }

func (g *Graph) InternalIDUpperBound(vt grin.VertexType) int64 {
	if !g.HasVertexType(vt) {
		return 0
	}
	return g.counts.VertexCount[vt]
}

// String describes the graph for logs.
func (g *Graph) String() string {
	return fmt.Sprintf("duckdb(%s, %d vertices, %d edges)", g.client.DSN(), g.nv, g.ne)
}
