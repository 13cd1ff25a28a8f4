package relational

import (
	"context"
	"database/sql"
	"fmt"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// TypeCounts holds per-type sizes. VertexBase[t] is the first vid of type t.
type TypeCounts struct {
	VertexBase  []int64 `json:"vertex_base"`
	VertexCount []int64 `json:"vertex_count"`
	EdgeCount   []int64 `json:"edge_count"`
}

// LoadSchema rebuilds the catalog schema from the grin_* tables.
func (r *Repo) LoadSchema(ctx context.Context) (*catalog.Schema, error) {
	s := &catalog.Schema{}

	vnames, err := r.names(ctx, `SELECT name FROM grin_vertex_types ORDER BY type_id`)
	if err != nil {
		return nil, fmt.Errorf("load vertex types: %w", err)
	}
	for _, n := range vnames {
		s.VertexTypes = append(s.VertexTypes, catalog.VertexTypeDef{Name: n})
	}
	enames, err := r.names(ctx, `SELECT name FROM grin_edge_types ORDER BY type_id`)
	if err != nil {
		return nil, fmt.Errorf("load edge types: %w", err)
	}
	for _, n := range enames {
		s.EdgeTypes = append(s.EdgeTypes, catalog.EdgeTypeDef{Name: n})
	}

	rows, err := r.db.QueryContext(ctx, `SELECT edge_type_id, src_type_id, dst_type_id FROM grin_relations ORDER BY edge_type_id, rel_idx`)
	if err != nil {
		return nil, fmt.Errorf("load relations: %w", err)
	}
	for rows.Next() {
		var et, src, dst int
		if err := rows.Scan(&et, &src, &dst); err != nil {
			rows.Close()
			return nil, err
		}
		if et >= len(s.EdgeTypes) || src >= len(s.VertexTypes) || dst >= len(s.VertexTypes) {
			rows.Close()
			return nil, grin.InvalidValuef("load schema", "relation %d (%d->%d) references an unknown type", et, src, dst)
		}
		s.EdgeTypes[et].Relations = append(s.EdgeTypes[et].Relations, catalog.Relation{
			Src: s.VertexTypes[src].Name,
			Dst: s.VertexTypes[dst].Name,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT owner, type_id, name, datatype FROM grin_properties ORDER BY owner, type_id, slot`)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var owner, name, dts string
		var ti int
		if err := rows.Scan(&owner, &ti, &name, &dts); err != nil {
			return nil, err
		}
		dt, err := grin.ParseDatatype(dts)
		if err != nil {
			return nil, err
		}
		p := catalog.PropDef{Name: name, Type: dt}
		switch {
		case owner == "V" && ti < len(s.VertexTypes):
			s.VertexTypes[ti].Properties = append(s.VertexTypes[ti].Properties, p)
		case owner == "E" && ti < len(s.EdgeTypes):
			s.EdgeTypes[ti].Properties = append(s.EdgeTypes[ti].Properties, p)
		default:
			return nil, grin.InvalidValuef("load schema", "property %s has unknown owner %s/%d", name, owner, ti)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

func (r *Repo) names(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// TypeCounts reads vertex ranges and edge counts per type. Types with no
// rows get a zero count; their base continues after the previous type.
func (r *Repo) TypeCounts(ctx context.Context) (TypeCounts, error) {
	var nv, ne int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grin_vertex_types`).Scan(&nv); err != nil {
		return TypeCounts{}, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grin_edge_types`).Scan(&ne); err != nil {
		return TypeCounts{}, err
	}
	tc := TypeCounts{
		VertexBase:  make([]int64, nv),
		VertexCount: make([]int64, nv),
		EdgeCount:   make([]int64, ne),
	}

	mins := make([]sql.NullInt64, nv)
	rows, err := r.db.QueryContext(ctx, `SELECT type_id, MIN(vid), COUNT(*) FROM grin_vertices GROUP BY type_id`)
	if err != nil {
		return TypeCounts{}, err
	}
	for rows.Next() {
		var ti int
		var lo, n int64
		if err := rows.Scan(&ti, &lo, &n); err != nil {
			rows.Close()
			return TypeCounts{}, err
		}
		if ti < 0 || ti >= nv {
			rows.Close()
			return TypeCounts{}, grin.InvalidValuef("type counts", "vertices of unknown type %d", ti)
		}
		mins[ti] = sql.NullInt64{Int64: lo, Valid: true}
		tc.VertexCount[ti] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return TypeCounts{}, err
	}
	var next int64
	for ti := range mins {
		if mins[ti].Valid {
			if mins[ti].Int64 != next {
				return TypeCounts{}, grin.InvalidValuef("type counts", "vertex ids of type %d start at %d, want %d", ti, mins[ti].Int64, next)
			}
			tc.VertexBase[ti] = mins[ti].Int64
		} else {
			tc.VertexBase[ti] = next
		}
		next = tc.VertexBase[ti] + tc.VertexCount[ti]
	}

	rows, err = r.db.QueryContext(ctx, `SELECT type_id, COUNT(*) FROM grin_edges GROUP BY type_id`)
	if err != nil {
		return TypeCounts{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ti int
		var n int64
		if err := rows.Scan(&ti, &n); err != nil {
			return TypeCounts{}, err
		}
		if ti < 0 || ti >= ne {
			return TypeCounts{}, grin.InvalidValuef("type counts", "edges of unknown type %d", ti)
		}
		tc.EdgeCount[ti] = n
	}
	return tc, rows.Err()
}
