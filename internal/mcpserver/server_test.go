package mcpserver

import (
	"context"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/engine"
	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, grin.Graph) {
	t.Helper()
	g, err := memory.BuildGraph(grintest.Social())
	require.NoError(t, err)
	s, err := NewServer(Config{ServerName: "grinkit-test", ServerVersion: "0.0.1"}, g, nil)
	require.NoError(t, err)
	return s, g
}

func TestNewServerRequiresGraph(t *testing.T) {
	if _, err := NewServer(Config{}, nil, nil); err == nil {
		t.Fatal("Expected error for nil graph")
	}
}

func TestHandleDescribeSchema(t *testing.T) {
	s, _ := newTestServer(t)

	_, result, err := s.handleDescribeSchema(context.Background(), nil, DescribeSchemaArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.VertexTypes) != 2 || len(result.EdgeTypes) != 3 {
		t.Fatalf("Expected 2 vertex and 3 edge types, got %d and %d", len(result.VertexTypes), len(result.EdgeTypes))
	}
	person := result.VertexTypes[0]
	assert.Equal(t, "person", person.Name)
	assert.Equal(t, grintest.PersonCount, person.Count)
	assert.Equal(t, PropertyInfo{Name: "joined", Datatype: grin.Date32.String()}, person.Properties[3])
	assert.Equal(t, []string{"person->post"}, result.EdgeTypes[1].Relations)
	assert.Empty(t, result.EdgeTypes[2].Properties)
	assert.Contains(t, result.Capabilities, "vertex_ref")
	assert.Equal(t, grintest.EdgeCount, result.EdgeNum)
}

func TestHandleListVertices(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, result, err := s.handleListVertices(ctx, nil, ListVerticesArgs{Type: "person", Limit: 2, Offset: 1})
	require.NoError(t, err)
	if result.Total != grintest.PersonCount {
		t.Errorf("Expected total %d, got %d", grintest.PersonCount, result.Total)
	}
	require.Len(t, result.Vertices, 2)
	assert.Equal(t, "bob", result.Vertices[0].Properties["name"])
	assert.Equal(t, int64(2), result.Vertices[0].OriginalID)

	_, result, err = s.handleListVertices(ctx, nil, ListVerticesArgs{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, result.Vertices)

	_, result, err = s.handleListVertices(ctx, nil, ListVerticesArgs{Scope: "mirror"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	tests := []struct {
		name string
		args ListVerticesArgs
	}{
		{"unknown type", ListVerticesArgs{Type: "robot"}},
		{"bad scope", ListVerticesArgs{Scope: "remote"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.handleListVertices(ctx, nil, tt.args); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestHandleGetVertex(t *testing.T) {
	s, g := newTestServer(t)
	ctx := context.Background()

	_, info, err := s.handleGetVertex(ctx, nil, GetVertexArgs{Type: "post", OriginalID: 101})
	require.NoError(t, err)
	assert.Equal(t, "post", info.Type)
	assert.Equal(t, "graphs", info.Properties["title"])
	assert.Equal(t, uint64(42), info.Properties["views"])

	carol := grintest.Find(t, g, "person", "carol")
	_, info, err = s.handleGetVertex(ctx, nil, GetVertexArgs{Vertex: uint64(carol)})
	require.NoError(t, err)
	assert.Equal(t, int32(41), info.Properties["age"])

	_, _, err = s.handleGetVertex(ctx, nil, GetVertexArgs{Type: "post", OriginalID: 7})
	assert.Error(t, err)
	_, _, err = s.handleGetVertex(ctx, nil, GetVertexArgs{Type: "robot", OriginalID: 1})
	assert.Error(t, err)
	_, _, err = s.handleGetVertex(ctx, nil, GetVertexArgs{Vertex: uint64(grin.NullVertex)})
	assert.Error(t, err)
}

func TestHandleGetNeighbors(t *testing.T) {
	s, g := newTestServer(t)
	ctx := context.Background()
	alice := grintest.Find(t, g, "person", "alice")

	_, result, err := s.handleGetNeighbors(ctx, nil, GetNeighborsArgs{Vertex: uint64(alice), EdgeType: "likes"})
	require.NoError(t, err)
	require.Len(t, result.Neighbors, 1)
	n := result.Neighbors[0]
	assert.Equal(t, "post", n.NeighborType)
	assert.Equal(t, "out", n.Direction)
	assert.Equal(t, "nice", n.EdgeProperties["note"])

	_, result, err = s.handleGetNeighbors(ctx, nil, GetNeighborsArgs{Vertex: uint64(alice), Direction: "in", EdgeType: "knows"})
	require.NoError(t, err)
	var names []string
	for _, nb := range result.Neighbors {
		_, info, err := s.handleGetVertex(ctx, nil, GetVertexArgs{Vertex: nb.Neighbor})
		require.NoError(t, err)
		names = append(names, info.Properties["name"].(string))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"carol", "dave"}, names)

	_, result, err = s.handleGetNeighbors(ctx, nil, GetNeighborsArgs{Vertex: uint64(alice), Direction: "both", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, result.Neighbors, 1)
	assert.Greater(t, result.Total, 1)

	_, _, err = s.handleGetNeighbors(ctx, nil, GetNeighborsArgs{Vertex: uint64(alice), Direction: "sideways"})
	assert.Error(t, err)
	_, _, err = s.handleGetNeighbors(ctx, nil, GetNeighborsArgs{Vertex: uint64(alice), EdgeType: "follows"})
	assert.Error(t, err)
}

func TestHandleResolveRef(t *testing.T) {
	s, g := newTestServer(t)
	ctx := context.Background()
	bob := grintest.Find(t, g, "person", "bob")

	_, out, err := s.handleResolveRef(ctx, nil, ResolveRefArgs{Vertex: uint64(bob)})
	require.NoError(t, err)
	require.NotEmpty(t, out.Ref)
	assert.True(t, out.Found)
	assert.True(t, out.IsMaster)
	assert.Equal(t, uint64(bob), out.Vertex)

	_, back, err := s.handleResolveRef(ctx, nil, ResolveRefArgs{Ref: out.Ref})
	require.NoError(t, err)
	assert.Equal(t, out, back)

	_, _, err = s.handleResolveRef(ctx, nil, ResolveRefArgs{Ref: "not-a-ref"})
	assert.Error(t, err)
}

func TestHandleCheckGraph(t *testing.T) {
	s, _ := newTestServer(t)

	_, result, err := s.handleCheckGraph(context.Background(), nil, CheckGraphArgs{SampleLimit: 3})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusHealthy, result.Status)
	assert.NotEmpty(t, result.Results)
}

func TestSetGraph(t *testing.T) {
	s, g := newTestServer(t)
	ds := grintest.Social()
	ds.Edges = ds.Edges[:1]
	next, err := memory.BuildGraph(ds)
	require.NoError(t, err)

	prev := s.SetGraph(next)
	assert.Same(t, g, prev)

	_, result, err := s.handleDescribeSchema(context.Background(), nil, DescribeSchemaArgs{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgeNum)
	assert.NoError(t, s.Close())
}

func TestToolsOverTransport(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverT)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"check_graph", "describe_schema", "get_neighbors",
		"get_vertex", "list_vertices", "resolve_vertex_ref",
	}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "describe_schema", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
