package mcpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"grinkit/internal/engine"
	"grinkit/internal/grin"
	"grinkit/internal/output"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Server exposes one grin.Graph as MCP tools.
type Server struct {
	mcpServer *mcp.Server
	log       *zap.Logger

	mu    sync.RWMutex
	graph grin.Graph
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
}

// NewServer creates a new MCP server instance over g.
func NewServer(cfg Config, g grin.Graph, log *zap.Logger) (*Server, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	s := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		log:       log,
		graph:     g,
	}
	s.registerTools()
	return s, nil
}

// SetGraph swaps the served graph, as after an epoch reload. The previous
// graph is returned to the caller, who closes it.
func (s *Server) SetGraph(g grin.Graph) grin.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.graph
	s.graph = g
	s.log.Info("graph swapped", zap.Int("vertices", g.VertexNum()), zap.Int("edges", g.EdgeNum()))
	return prev
}

func (s *Server) current() grin.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// ============================================================================
// TOOL ARGUMENTS AND RESULTS
// ============================================================================

type DescribeSchemaArgs struct{}

type (
	PropertyInfo = output.PropertyView
	TypeInfo     = output.TypeView
	SchemaResult = output.SchemaView
)

type ListVerticesArgs struct {
	Type   string `json:"type,omitempty" jsonschema:"vertex type name; empty lists every type"`
	Scope  string `json:"scope,omitempty" jsonschema:"all, master or mirror"`
	Offset int    `json:"offset,omitempty" jsonschema:"index of the first vertex to return"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of vertices to return (max 100)"`
}

type VertexInfo = output.VertexView

type ListVerticesResult struct {
	Total    int          `json:"total"`
	Vertices []VertexInfo `json:"vertices"`
}

type GetVertexArgs struct {
	Vertex     uint64 `json:"vertex,omitempty" jsonschema:"vertex handle"`
	Type       string `json:"type,omitempty" jsonschema:"vertex type, to look up by original id"`
	OriginalID int64  `json:"original_id,omitempty" jsonschema:"original id within type"`
}

type GetNeighborsArgs struct {
	Vertex    uint64 `json:"vertex" jsonschema:"vertex handle"`
	Direction string `json:"direction,omitempty" jsonschema:"in, out or both (default out)"`
	EdgeType  string `json:"edge_type,omitempty" jsonschema:"edge type name; empty follows every type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of neighbors to return (max 100)"`
}

type NeighborInfo = output.NeighborView

type GetNeighborsResult struct {
	Total     int            `json:"total"`
	Neighbors []NeighborInfo `json:"neighbors"`
}

type ResolveRefArgs struct {
	Ref    string `json:"ref,omitempty" jsonschema:"serialized vertex ref to resolve"`
	Vertex uint64 `json:"vertex,omitempty" jsonschema:"vertex handle to serialize when ref is empty"`
}

type ResolveRefResult struct {
	Ref             string `json:"ref"`
	Vertex          uint64 `json:"vertex"`
	Found           bool   `json:"found"`
	MasterPartition uint32 `json:"master_partition"`
	IsMaster        bool   `json:"is_master"`
}

type CheckGraphArgs struct {
	SampleLimit int `json:"sample_limit,omitempty" jsonschema:"vertices to visit; 0 keeps the default"`
}

type CheckGraphResult struct {
	Status  string               `json:"status"`
	Results []engine.CheckResult `json:"results"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "describe_schema",
		Description: "Describe the graph schema: vertex and edge types with counts, properties and datatypes, edge relations and engine capabilities.",
	}, s.handleDescribeSchema)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_vertices",
		Description: "List vertices with their properties, optionally filtered by type and master/mirror scope. Supports offset and limit paging.",
	}, s.handleListVertices)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_vertex",
		Description: "Read one vertex by handle, or by type and original id.",
	}, s.handleGetVertex)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_neighbors",
		Description: "List the adjacent vertices of a vertex with edge types and edge properties.",
	}, s.handleGetNeighbors)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve_vertex_ref",
		Description: "Resolve a serialized vertex ref to a local vertex and its master partition, or serialize the ref of a vertex.",
	}, s.handleResolveRef)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_graph",
		Description: "Run the graph health checks (dangling edges, relation violations, ref round trips, raw values, empty types) and rate each OK, WARN or CRIT.",
	}, s.handleCheckGraph)
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func (s *Server) handleDescribeSchema(_ context.Context, _ *mcp.CallToolRequest, _ DescribeSchemaArgs) (*mcp.CallToolResult, SchemaResult, error) {
	return nil, output.DescribeSchema(s.current()), nil
}

func (s *Server) handleListVertices(_ context.Context, _ *mcp.CallToolRequest, args ListVerticesArgs) (*mcp.CallToolResult, ListVerticesResult, error) {
	g := s.current()
	q := grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeAll}
	if args.Type != "" {
		if q.Type = grin.VertexTypeByName(g, args.Type); q.Type == grin.NullVertexType {
			return nil, ListVerticesResult{}, fmt.Errorf("unknown vertex type %q", args.Type)
		}
	}
	switch args.Scope {
	case "", "all":
	case "master":
		q.Scope = grin.ScopeMaster
	case "mirror":
		q.Scope = grin.ScopeMirror
	default:
		return nil, ListVerticesResult{}, fmt.Errorf("invalid scope %q (must be all, master or mirror)", args.Scope)
	}

	l, err := g.Vertices(q)
	if err != nil {
		return nil, ListVerticesResult{}, fmt.Errorf("list vertices: %w", err)
	}
	res := ListVerticesResult{Total: l.Len(), Vertices: []VertexInfo{}}
	end := min(max(args.Offset, 0)+clampLimit(args.Limit), l.Len())
	for i := max(args.Offset, 0); i < end; i++ {
		info, err := output.DescribeVertex(g, l.At(i))
		if err != nil {
			return nil, ListVerticesResult{}, err
		}
		res.Vertices = append(res.Vertices, info)
	}
	return nil, res, nil
}

func (s *Server) handleGetVertex(_ context.Context, _ *mcp.CallToolRequest, args GetVertexArgs) (*mcp.CallToolResult, VertexInfo, error) {
	g := s.current()
	v := grin.Vertex(args.Vertex)
	if args.Type != "" {
		var err error
		if v, err = output.FindVertex(g, args.Type, args.OriginalID); err != nil {
			return nil, VertexInfo{}, err
		}
	}
	info, err := output.DescribeVertex(g, v)
	if err != nil {
		return nil, VertexInfo{}, err
	}
	return nil, info, nil
}

func (s *Server) handleGetNeighbors(_ context.Context, _ *mcp.CallToolRequest, args GetNeighborsArgs) (*mcp.CallToolResult, GetNeighborsResult, error) {
	g := s.current()
	dir := grin.Out
	if args.Direction != "" {
		var err error
		if dir, err = grin.ParseDirection(args.Direction); err != nil {
			return nil, GetNeighborsResult{}, err
		}
	}
	q := grin.AdjacentQuery{Vertex: grin.Vertex(args.Vertex), Dir: dir, EdgeType: grin.NullEdgeType}
	if args.EdgeType != "" {
		if q.EdgeType = grin.EdgeTypeByName(g, args.EdgeType); q.EdgeType == grin.NullEdgeType {
			return nil, GetNeighborsResult{}, fmt.Errorf("unknown edge type %q", args.EdgeType)
		}
	}
	total, nbrs, err := output.DescribeNeighbors(g, q, clampLimit(args.Limit))
	if err != nil {
		return nil, GetNeighborsResult{}, err
	}
	return nil, GetNeighborsResult{Total: total, Neighbors: nbrs}, nil
}

func (s *Server) handleResolveRef(_ context.Context, _ *mcp.CallToolRequest, args ResolveRefArgs) (*mcp.CallToolResult, ResolveRefResult, error) {
	g := s.current()
	r, err := grin.Referencer(g)
	if err != nil {
		return nil, ResolveRefResult{}, fmt.Errorf("vertex refs: %w", err)
	}
	if args.Ref == "" {
		ref, err := r.VertexRef(grin.Vertex(args.Vertex))
		if err != nil {
			return nil, ResolveRefResult{}, err
		}
		if args.Ref, err = r.SerializeRef(ref); err != nil {
			return nil, ResolveRefResult{}, err
		}
	}
	v, master, err := grin.ResolveRef(g, args.Ref)
	if err != nil {
		return nil, ResolveRefResult{}, err
	}
	res := ResolveRefResult{
		Ref:             args.Ref,
		Vertex:          uint64(v),
		Found:           v != grin.NullVertex,
		MasterPartition: uint32(master),
	}
	if res.Found {
		res.IsMaster = r.IsMaster(v)
	}
	return nil, res, nil
}

func (s *Server) handleCheckGraph(ctx context.Context, _ *mcp.CallToolRequest, args CheckGraphArgs) (*mcp.CallToolResult, CheckGraphResult, error) {
	var opts []engine.Option
	if args.SampleLimit > 0 {
		opts = append(opts, engine.WithSampleLimit(args.SampleLimit))
	}
	results, err := engine.Evaluate(ctx, s.current(), opts...)
	if err != nil {
		return nil, CheckGraphResult{}, fmt.Errorf("check graph: %w", err)
	}
	return nil, CheckGraphResult{Status: engine.Worst(results), Results: results}, nil
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting MCP server on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t; tests use in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// Close closes the served graph.
func (s *Server) Close() error {
	return s.current().Close()
}
