package graph

import (
	"strings"

	"grinkit/internal/grin"
)

// Reserved property keys. Node keys starting with "__" are never exposed as
// graph properties.
const (
	oidKey      = "__oid"
	seqKey      = "__seq"
	schemaLabel = "GrinSchema"
)

// quote backtick-quotes a label or relationship type. Names containing a
// backtick are rejected at import.
func quote(name string) string { return "`" + name + "`" }

func checkName(kind, name string) error {
	if name == "" || strings.ContainsRune(name, '`') || strings.HasPrefix(name, "__") || name == schemaLabel {
		return grin.InvalidValuef("neo4j", "%s name %q cannot be stored in neo4j", kind, name)
	}
	return nil
}

// =============================================================================
// WRITE STATEMENTS
// =============================================================================

func resetStmt() Statement {
	return Statement{Name: "reset", Cypher: `MATCH (n) DETACH DELETE n`}
}

func putSchemaStmt(doc string) Statement {
	return Statement{
		Name:   "put_schema",
		Cypher: `MERGE (s:` + schemaLabel + ` {key: 'schema'}) SET s.json = $json`,
		Params: map[string]any{"json": doc},
	}
}

func createIndexStmt(label string) Statement {
	return Statement{
		Name:   "create_index",
		Cypher: `CREATE INDEX IF NOT EXISTS FOR (n:` + quote(label) + `) ON (n.` + oidKey + `)`,
		Params: map[string]any{"label": label},
	}
}

func createVerticesStmt(label string, rows []map[string]any) Statement {
	return Statement{
		Name:   "create_vertices",
		Cypher: `UNWIND $rows AS row CREATE (n:` + quote(label) + `) SET n = row.props, n.` + oidKey + ` = row.oid`,
		Params: map[string]any{"label": label, "rows": rows},
	}
}

func createEdgesStmt(typ, srcLabel, dstLabel string, rows []map[string]any) Statement {
	return Statement{
		Name: "create_edges",
		Cypher: `UNWIND $rows AS row ` +
			`MATCH (a:` + quote(srcLabel) + ` {` + oidKey + `: row.src}), (b:` + quote(dstLabel) + ` {` + oidKey + `: row.dst}) ` +
			`CREATE (a)-[r:` + quote(typ) + `]->(b) SET r = row.props, r.` + seqKey + ` = row.seq`,
		Params: map[string]any{"type": typ, "src_label": srcLabel, "dst_label": dstLabel, "rows": rows},
	}
}

// =============================================================================
// READ STATEMENTS
// =============================================================================

func getSchemaStmt() Statement {
	return Statement{Name: "get_schema", Cypher: `MATCH (s:` + schemaLabel + ` {key: 'schema'}) RETURN s.json AS json`}
}

func labelsStmt() Statement {
	return Statement{Name: "labels", Cypher: `CALL db.labels() YIELD label RETURN label ORDER BY label`}
}

func relationshipTypesStmt() Statement {
	return Statement{Name: "relationship_types", Cypher: `CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType AS type ORDER BY type`}
}

func labelKeysStmt(label string) Statement {
	return Statement{
		Name: "label_keys",
		Cypher: `MATCH (n:` + quote(label) + `) WITH n LIMIT 100 UNWIND keys(n) AS key ` +
			`RETURN key, collect(n[key])[0] AS sample ORDER BY key`,
		Params: map[string]any{"label": label},
	}
}

func typeKeysStmt(typ string) Statement {
	return Statement{
		Name: "type_keys",
		Cypher: `MATCH ()-[r:` + quote(typ) + `]->() WITH r LIMIT 100 UNWIND keys(r) AS key ` +
			`RETURN key, collect(r[key])[0] AS sample ORDER BY key`,
		Params: map[string]any{"type": typ},
	}
}

func typeEndsStmt(typ string) Statement {
	return Statement{
		Name: "type_ends",
		Cypher: `MATCH (a)-[:` + quote(typ) + `]->(b) ` +
			`RETURN DISTINCT head(labels(a)) AS src, head(labels(b)) AS dst ORDER BY src, dst`,
		Params: map[string]any{"type": typ},
	}
}

func countVerticesStmt(label string) Statement {
	return Statement{
		Name:   "count_vertices",
		Cypher: `MATCH (n:` + quote(label) + `) RETURN count(n) AS count`,
		Params: map[string]any{"label": label},
	}
}

func countEdgesStmt(typ string) Statement {
	return Statement{
		Name:   "count_edges",
		Cypher: `MATCH ()-[r:` + quote(typ) + `]->() RETURN count(r) AS count`,
		Params: map[string]any{"type": typ},
	}
}

func verticesStmt(label string) Statement {
	return Statement{
		Name:   "vertices",
		Cypher: `MATCH (n:` + quote(label) + `) RETURN id(n) AS id ORDER BY n.` + oidKey + `, id(n)`,
		Params: map[string]any{"label": label},
	}
}

func vertexLabelsStmt(id int64) Statement {
	return Statement{
		Name:   "vertex_labels",
		Cypher: `MATCH (n) WHERE id(n) = $id RETURN labels(n) AS labels`,
		Params: map[string]any{"id": id},
	}
}

// adjacentStmt lists the out- or in-edges of a vertex in import order. An
// empty typ means every relationship type.
func adjacentStmt(dir grin.Direction, id int64, typ string) Statement {
	pattern, name := `(v)-[r]->(w)`, "out_edges"
	if dir == grin.In {
		pattern, name = `(w)-[r]->(v)`, "in_edges"
	}
	params := map[string]any{"id": id}
	where := `id(v) = $id`
	if typ != "" {
		where += ` AND type(r) = $type`
		params["type"] = typ
	}
	return Statement{
		Name:   name,
		Cypher: `MATCH ` + pattern + ` WHERE ` + where + ` RETURN id(r) AS eid, type(r) AS type, id(w) AS nbr ORDER BY r.` + seqKey + `, id(r)`,
		Params: params,
	}
}

func vertexPropertyStmt(id int64, key string) Statement {
	return Statement{
		Name:   "vertex_property",
		Cypher: `MATCH (n) WHERE id(n) = $id RETURN labels(n) AS labels, n[$key] AS value`,
		Params: map[string]any{"id": id, "key": key},
	}
}

func vertexPropertiesStmt(id int64) Statement {
	return Statement{
		Name:   "vertex_properties",
		Cypher: `MATCH (n) WHERE id(n) = $id RETURN labels(n) AS labels, properties(n) AS props`,
		Params: map[string]any{"id": id},
	}
}

func edgePropertyStmt(id int64, key string) Statement {
	return Statement{
		Name:   "edge_property",
		Cypher: `MATCH ()-[r]->() WHERE id(r) = $id RETURN type(r) AS type, r[$key] AS value`,
		Params: map[string]any{"id": id, "key": key},
	}
}

func edgePropertiesStmt(id int64) Statement {
	return Statement{
		Name:   "edge_properties",
		Cypher: `MATCH ()-[r]->() WHERE id(r) = $id RETURN type(r) AS type, properties(r) AS props`,
		Params: map[string]any{"id": id},
	}
}

func vertexByOIDStmt(label string, oid int64) Statement {
	return Statement{
		Name:   "vertex_by_oid",
		Cypher: `MATCH (n:` + quote(label) + ` {` + oidKey + `: $oid}) RETURN id(n) AS id`,
		Params: map[string]any{"label": label, "oid": oid},
	}
}

func vertexOIDStmt(id int64) Statement {
	return Statement{
		Name:   "vertex_oid",
		Cypher: `MATCH (n) WHERE id(n) = $id RETURN n.` + oidKey + ` AS oid`,
		Params: map[string]any{"id": id},
	}
}

// =============================================================================
// VALUE CONVERSION
// =============================================================================

// neoValue maps a value onto the types Bolt can carry: every integer becomes
// int64 and every float float64.
func neoValue(v grin.Value) any {
	switch x := v.Any().(type) {
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}

// asInt64 reads an integer column.
func asInt64(x any) (int64, bool) {
	switch n := x.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func asString(x any) string {
	s, _ := x.(string)
	return s
}

func asStrings(x any) []string {
	switch v := x.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
