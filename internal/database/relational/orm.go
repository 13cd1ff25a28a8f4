// Repo is a small ORM-ish layer that maps a catalog.Dataset onto grin_*
// tables and reads the schema back.
//
// Notes:
//   - Vertex ids (vid) are dense and grouped by type, so the vids of type t
//     form one contiguous range. That range doubles as the internal id.
//   - Edge ids (eid) follow dataset order; adjacency is read ORDER BY eid.
//   - Property values live in one long table per element kind with a typed
//     column per storage class.
//
// Driver: github.com/marcboeker/go-duckdb

package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// =============================================================================
// SCHEMA SQL
// =============================================================================

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS grin_vertex_types (
  type_id   INTEGER PRIMARY KEY,
  name      VARCHAR NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS grin_edge_types (
  type_id   INTEGER PRIMARY KEY,
  name      VARCHAR NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS grin_relations (
  edge_type_id INTEGER NOT NULL,
  rel_idx      INTEGER NOT NULL,
  src_type_id  INTEGER NOT NULL,
  dst_type_id  INTEGER NOT NULL,
  PRIMARY KEY(edge_type_id, rel_idx)
);

CREATE TABLE IF NOT EXISTS grin_properties (
  owner     VARCHAR NOT NULL,   -- 'V' or 'E'
  type_id   INTEGER NOT NULL,
  slot      INTEGER NOT NULL,
  name      VARCHAR NOT NULL,
  datatype  VARCHAR NOT NULL,
  PRIMARY KEY(owner, type_id, slot)
);

CREATE TABLE IF NOT EXISTS grin_vertices (
  vid       BIGINT PRIMARY KEY,
  type_id   INTEGER NOT NULL,
  oid       BIGINT NOT NULL,
  UNIQUE(type_id, oid)
);

CREATE TABLE IF NOT EXISTS grin_edges (
  eid       BIGINT PRIMARY KEY,
  type_id   INTEGER NOT NULL,
  src       BIGINT NOT NULL,
  dst       BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS grin_vertex_values (
  vid       BIGINT NOT NULL,
  slot      INTEGER NOT NULL,
  ival      BIGINT,
  uval      UBIGINT,
  fval      DOUBLE,
  sval      VARCHAR,
  PRIMARY KEY(vid, slot)
);

CREATE TABLE IF NOT EXISTS grin_edge_values (
  eid       BIGINT NOT NULL,
  slot      INTEGER NOT NULL,
  ival      BIGINT,
  uval      UBIGINT,
  fval      DOUBLE,
  sval      VARCHAR,
  PRIMARY KEY(eid, slot)
);

CREATE INDEX IF NOT EXISTS grin_edges_src ON grin_edges(src);
CREATE INDEX IF NOT EXISTS grin_edges_dst ON grin_edges(dst);
`

// =============================================================================
// REPO IMPLEMENTATION
// =============================================================================

type Repo struct {
	db  *sql.DB
	log *zap.Logger
}

func NewRepo(db *sql.DB, log *zap.Logger) *Repo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{db: db, log: log}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, SchemaSQL)
	return err
}

// ImportResult reports what Import wrote.
type ImportResult struct {
	Vertices int
	Edges    int
	Values   int
}

// Import replaces the stored graph with ds in one transaction.
func (r *Repo) Import(ctx context.Context, ds *catalog.Dataset) (ImportResult, error) {
	if err := ds.Validate(); err != nil {
		return ImportResult{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{
		"grin_edge_values", "grin_vertex_values", "grin_edges", "grin_vertices",
		"grin_properties", "grin_relations", "grin_edge_types", "grin_vertex_types",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return ImportResult{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := r.insertSchemaTx(ctx, tx, &ds.Schema); err != nil {
		return ImportResult{}, err
	}
	res, vids, err := r.insertVerticesTx(ctx, tx, ds)
	if err != nil {
		return ImportResult{}, err
	}
	n, vals, err := r.insertEdgesTx(ctx, tx, ds, vids)
	if err != nil {
		return ImportResult{}, err
	}
	res.Edges = n
	res.Values += vals

	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}
	r.log.Info("dataset imported",
		zap.Int("vertices", res.Vertices),
		zap.Int("edges", res.Edges),
		zap.Int("values", res.Values))
	return res, nil
}

func (r *Repo) insertSchemaTx(ctx context.Context, tx *sql.Tx, s *catalog.Schema) error {
	prop, err := tx.PrepareContext(ctx, `INSERT INTO grin_properties(owner, type_id, slot, name, datatype) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer prop.Close()

	for i, vt := range s.VertexTypes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO grin_vertex_types(type_id, name) VALUES(?,?)`, i, vt.Name); err != nil {
			return fmt.Errorf("insert vertex type %s: %w", vt.Name, err)
		}
		for j, p := range vt.Properties {
			if _, err := prop.ExecContext(ctx, "V", i, j, p.Name, p.Type.String()); err != nil {
				return err
			}
		}
	}
	for i, et := range s.EdgeTypes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO grin_edge_types(type_id, name) VALUES(?,?)`, i, et.Name); err != nil {
			return fmt.Errorf("insert edge type %s: %w", et.Name, err)
		}
		for j, rel := range et.Relations {
			if _, err := tx.ExecContext(ctx, `INSERT INTO grin_relations(edge_type_id, rel_idx, src_type_id, dst_type_id) VALUES(?,?,?,?)`,
				i, j, s.VertexTypeIndex(rel.Src), s.VertexTypeIndex(rel.Dst)); err != nil {
				return err
			}
		}
		for j, p := range et.Properties {
			if _, err := prop.ExecContext(ctx, "E", i, j, p.Name, p.Type.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// insertVerticesTx assigns vids type by type, keeping dataset order within
// a type.
func (r *Repo) insertVerticesTx(ctx context.Context, tx *sql.Tx, ds *catalog.Dataset) (ImportResult, map[catalog.VertexKey]int64, error) {
	order := make([]int, len(ds.Vertices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ds.Schema.VertexTypeIndex(ds.Vertices[order[a]].Label) < ds.Schema.VertexTypeIndex(ds.Vertices[order[b]].Label)
	})

	vstmt, err := tx.PrepareContext(ctx, `INSERT INTO grin_vertices(vid, type_id, oid) VALUES(?,?,?)`)
	if err != nil {
		return ImportResult{}, nil, err
	}
	defer vstmt.Close()
	pstmt, err := tx.PrepareContext(ctx, `INSERT INTO grin_vertex_values(vid, slot, ival, uval, fval, sval) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return ImportResult{}, nil, err
	}
	defer pstmt.Close()

	var res ImportResult
	vids := make(map[catalog.VertexKey]int64, len(ds.Vertices))
	for vid, i := range order {
		v := ds.Vertices[i]
		ti := ds.Schema.VertexTypeIndex(v.Label)
		if _, err := vstmt.ExecContext(ctx, vid, ti, v.ID); err != nil {
			return ImportResult{}, nil, fmt.Errorf("insert vertex %s/%d: %w", v.Label, v.ID, err)
		}
		vids[catalog.VertexKey{Label: v.Label, ID: v.ID}] = int64(vid)

		vals, err := catalog.Values(ds.Schema.VertexTypes[ti].Properties, v.Props)
		if err != nil {
			return ImportResult{}, nil, grin.InvalidValuef("import", "vertex %s/%d: %v", v.Label, v.ID, err)
		}
		for slot, val := range vals {
			iv, uv, fv, sv := storageArgs(val)
			if _, err := pstmt.ExecContext(ctx, vid, slot, iv, uv, fv, sv); err != nil {
				return ImportResult{}, nil, err
			}
			res.Values++
		}
		res.Vertices++
	}
	return res, vids, nil
}

func (r *Repo) insertEdgesTx(ctx context.Context, tx *sql.Tx, ds *catalog.Dataset, vids map[catalog.VertexKey]int64) (int, int, error) {
	estmt, err := tx.PrepareContext(ctx, `INSERT INTO grin_edges(eid, type_id, src, dst) VALUES(?,?,?,?)`)
	if err != nil {
		return 0, 0, err
	}
	defer estmt.Close()
	pstmt, err := tx.PrepareContext(ctx, `INSERT INTO grin_edge_values(eid, slot, ival, uval, fval, sval) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return 0, 0, err
	}
	defer pstmt.Close()

	values := 0
	for eid, e := range ds.Edges {
		ti := ds.Schema.EdgeTypeIndex(e.Label)
		src := vids[catalog.VertexKey{Label: e.SrcLabel, ID: e.Src}]
		dst := vids[catalog.VertexKey{Label: e.DstLabel, ID: e.Dst}]
		if _, err := estmt.ExecContext(ctx, eid, ti, src, dst); err != nil {
			return 0, 0, fmt.Errorf("insert edge %d: %w", eid, err)
		}
		vals, err := catalog.Values(ds.Schema.EdgeTypes[ti].Properties, e.Props)
		if err != nil {
			return 0, 0, grin.InvalidValuef("import", "edge %d (%s): %v", eid, e.Label, err)
		}
		for slot, val := range vals {
			iv, uv, fv, sv := storageArgs(val)
			if _, err := pstmt.ExecContext(ctx, eid, slot, iv, uv, fv, sv); err != nil {
				return 0, 0, err
			}
			values++
		}
	}
	return len(ds.Edges), values, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// storageColumn names the value column that holds datatype dt.
func storageColumn(dt grin.Datatype) string {
	switch dt {
	case grin.UInt64:
		return "uval"
	case grin.Float, grin.Double:
		return "fval"
	case grin.String:
		return "sval"
	default:
		return "ival"
	}
}

// storageArgs spreads a value over the (ival, uval, fval, sval) columns.
func storageArgs(v grin.Value) (iv sql.NullInt64, uv any, fv sql.NullFloat64, sv sql.NullString) {
	switch storageColumn(v.Type) {
	case "uval":
		u, _ := v.UInt64()
		uv = u
	case "fval":
		fv = nullFloat(v)
	case "sval":
		s, _ := v.Str()
		sv = sql.NullString{String: s, Valid: true}
	default:
		iv = nullInt(v)
	}
	return iv, uv, fv, sv
}

func nullFloat(v grin.Value) sql.NullFloat64 {
	var f float64
	if v.Type == grin.Float {
		f32, _ := v.Float()
		f = float64(f32)
	} else {
		f, _ = v.Double()
	}
	if math.IsNaN(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullInt(v grin.Value) sql.NullInt64 {
	switch x := v.Any().(type) {
	case int32:
		return sql.NullInt64{Int64: int64(x), Valid: true}
	case uint32:
		return sql.NullInt64{Int64: int64(x), Valid: true}
	case int64:
		return sql.NullInt64{Int64: x, Valid: true}
	}
	return sql.NullInt64{}
}

// scanValue converts the stored columns back into a value of dt. A row
// without a value yields the zero value of dt.
func scanValue(dt grin.Datatype, iv sql.NullInt64, uv any, fv sql.NullFloat64, sv sql.NullString) (grin.Value, error) {
	switch storageColumn(dt) {
	case "uval":
		return grin.ValueOf(dt, uv)
	case "fval":
		if !fv.Valid {
			return grin.ValueOf(dt, nil)
		}
		return grin.ValueOf(dt, fv.Float64)
	case "sval":
		return grin.StringValue(sv.String), nil
	default:
		if !iv.Valid {
			return grin.ValueOf(dt, nil)
		}
		return grin.ValueOf(dt, iv.Int64)
	}
}

var errNoRows = sql.ErrNoRows

func isNoRows(err error) bool { return errors.Is(err, errNoRows) }
