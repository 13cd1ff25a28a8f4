package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage"
)

func openSocial(t *testing.T) (*Graph, *fakeRunner) {
	t.Helper()
	ctx := context.Background()
	r := newFakeRunner()
	res, err := Import(ctx, r, grintest.Social(), nil)
	require.NoError(t, err)
	if res.Vertices != grintest.VertexCount || res.Edges != grintest.EdgeCount {
		t.Fatalf("Expected %d vertices and %d edges, got %+v", grintest.VertexCount, grintest.EdgeCount, res)
	}
	g, err := Open(ctx, r)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g, r
}

func TestGraphConformance(t *testing.T) {
	g, _ := openSocial(t)
	assert.False(t, g.Discovered())
	grintest.Run(t, g)
}

func TestImportStatements(t *testing.T) {
	_, r := openSocial(t)
	// reset, schema, two indexes, two vertex batches, then one edge batch
	// per run of (type, src label, dst label).
	want := []string{
		"reset", "put_schema", "create_index", "create_index",
		"create_vertices", "create_vertices",
		"create_edges", "create_edges", "create_edges",
	}
	assert.Equal(t, want, r.seen[:len(want)])
}

func TestImportRejectsBadNames(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"backtick", "per`son"},
		{"reserved prefix", "__hidden"},
		{"schema label", schemaLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &catalog.Dataset{Schema: catalog.Schema{VertexTypes: []catalog.VertexTypeDef{{Name: tt.label}}}}
			_, err := Import(context.Background(), newFakeRunner(), ds, nil)
			if grin.CodeOf(err) != grin.InvalidValue {
				t.Errorf("Expected InvalidValue, got %v", err)
			}
		})
	}
}

func TestImportPropagatesWriteErrors(t *testing.T) {
	r := newFakeRunner()
	r.failOn = "create_edges"
	_, err := Import(context.Background(), r, grintest.Social(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_edges")
}

func TestOpenWrapsReadErrors(t *testing.T) {
	g, r := openSocial(t)
	r.failOn = "out_edges"
	alice := grintest.Find(t, g, "person", "alice")
	_, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: grin.NullEdgeType})
	assert.Equal(t, grin.UnknownError, grin.CodeOf(err))
}

func TestDiscoveredSchema(t *testing.T) {
	ctx := context.Background()
	r := newFakeRunner()
	_, err := Import(ctx, r, grintest.Social(), nil)
	require.NoError(t, err)
	r.dropSchema()

	g, err := Open(ctx, r)
	require.NoError(t, err)
	assert.True(t, g.Discovered())

	s := g.Schema()
	assert.Equal(t, []string{"person", "post"}, []string{s.VertexTypes[0].Name, s.VertexTypes[1].Name})
	require.Len(t, s.EdgeTypes, 3)
	assert.Equal(t, "created", s.EdgeTypes[0].Name)
	assert.Empty(t, s.EdgeTypes[0].Properties)

	person := grin.VertexTypeByName(g, "person")
	// Integers come back as int64 once the declared width is lost.
	age := grin.VertexPropertyByName(g, person, "age")
	assert.Equal(t, grin.Int64, g.VertexPropertyDatatype(age))
	assert.Equal(t, grin.Double, g.VertexPropertyDatatype(grin.VertexPropertyByName(g, person, "score")))
	assert.Equal(t, grin.NullVertexProperty, grin.VertexPropertyByName(g, person, oidKey))

	carol := grintest.Find(t, g, "person", "carol")
	n, err := grin.VertexInt64(g, carol, age)
	require.NoError(t, err)
	assert.Equal(t, int64(41), n)
	assert.Equal(t, grintest.VertexCount, g.VertexNum())
}

func TestUInt64SurvivesBolt(t *testing.T) {
	ds := grintest.Social()
	ds.Vertices[4].Props["views"] = uint64(1<<63 + 5)

	ctx := context.Background()
	r := newFakeRunner()
	_, err := Import(ctx, r, ds, nil)
	require.NoError(t, err)
	g, err := Open(ctx, r)
	require.NoError(t, err)

	hello := grintest.Find(t, g, "post", "hello")
	views, err := grin.VertexUInt64(g, hello, grin.VertexPropertyByName(g, grin.VertexTypeByName(g, "post"), "views"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63+5), views)
}

func TestEdgeHandleChecks(t *testing.T) {
	g, _ := openSocial(t)
	knows := grin.EdgeTypeByName(g, "knows")
	since := grin.EdgePropertyByName(g, knows, "since")

	_, err := g.EdgeValue(grin.Edge{Type: knows, ID: 9999}, since)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	alice := grintest.Find(t, g, "person", "alice")
	likes := grin.EdgeTypeByName(g, "likes")
	out, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: likes})
	require.NoError(t, err)
	wrong := out.Edge(0)
	wrong.Type = knows
	_, err = g.EdgeValue(wrong, since)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	_, err = g.EdgeRow(grin.NullEdge)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}

func TestMirrorScopeIsEmpty(t *testing.T) {
	g, _ := openSocial(t)
	l, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMirror})
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestExportRoundTrip(t *testing.T) {
	g, _ := openSocial(t)
	ds, err := Export(g)
	require.NoError(t, err)
	assert.Equal(t, grintest.SocialSchema(), ds.Schema)
	assert.Len(t, ds.Vertices, grintest.VertexCount)
	assert.Len(t, ds.Edges, grintest.EdgeCount)

	r := newFakeRunner()
	_, err = Import(context.Background(), r, ds, nil)
	require.NoError(t, err)
	copied, err := Open(context.Background(), r)
	require.NoError(t, err)
	grintest.Run(t, copied)
}

func TestOpenArgs(t *testing.T) {
	_, err := storage.Open(context.Background(), DriverName, "bolt://localhost:7687")
	if grin.CodeOf(err) != grin.InvalidValue {
		t.Errorf("Expected InvalidValue, got %v", err)
	}
}
