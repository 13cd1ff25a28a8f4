package grin

// ============================================================================
// CORE INTERFACES
// ============================================================================

// Graph is one local, non-partitioned property graph. Engines snapshot the
// schema and the counts when the graph is opened, so the schema methods
// cannot fail; unknown handles yield empty results.
//
// A Graph is safe for concurrent read-only use once opened. Lists and
// iterators derived from it belong to a single goroutine.
type Graph interface {
	// Capabilities reports the optional features this graph supports.
	Capabilities() Capabilities

	// Close releases the engine resources. Handles derived from the graph
	// are invalid afterwards.
	Close() error

	// VertexNum and EdgeNum count the whole graph (local partition).
	VertexNum() int
	EdgeNum() int
	VertexNumByType(vt VertexType) int
	EdgeNumByType(et EdgeType) int

	// VertexTypes lists every vertex type in natural id order.
	VertexTypes() []VertexType
	EdgeTypes() []EdgeType
	VertexTypeName(vt VertexType) string
	EdgeTypeName(et EdgeType) string

	// EdgeSrcTypes and EdgeDstTypes are parallel: relation i of et runs
	// from EdgeSrcTypes(et)[i] to EdgeDstTypes(et)[i].
	EdgeSrcTypes(et EdgeType) []VertexType
	EdgeDstTypes(et EdgeType) []VertexType

	// VertexProperties lists the properties of vt in slot order.
	VertexProperties(vt VertexType) []VertexProperty
	EdgeProperties(et EdgeType) []EdgeProperty
	VertexPropertyName(vp VertexProperty) string
	EdgePropertyName(ep EdgeProperty) string
	VertexPropertyDatatype(vp VertexProperty) Datatype
	EdgePropertyDatatype(ep EdgeProperty) Datatype

	// VertexTypeOf returns the type of v, or NullVertexType with an
	// InvalidValue error for a vertex this graph does not know.
	VertexTypeOf(v Vertex) (VertexType, error)

	// Vertices materializes the vertices matching q.
	Vertices(q VertexQuery) (*VertexList, error)

	// Adjacent materializes the adjacency of q.Vertex.
	Adjacent(q AdjacentQuery) (*AdjacentList, error)

	// VertexValue reads one property of v.
	VertexValue(v Vertex, vp VertexProperty) (Value, error)

	// EdgeValue reads one property of e.
	EdgeValue(e Edge, ep EdgeProperty) (Value, error)
}

// PartitionedGraph is a graph split across partitions, of which some are
// resident in this process.
type PartitionedGraph interface {
	TotalPartitions() int
	LocalPartitions() []Partition

	// LocalGraph returns the graph holding partition p's data. The caller
	// owns the result and closes it.
	LocalGraph(p Partition) (Graph, error)

	PartitionByID(id NaturalID) Partition
	PartitionID(p Partition) NaturalID

	Close() error
}

// Scope restricts a vertex list to master or mirror vertices.
type Scope uint8

const (
	ScopeAll Scope = iota
	ScopeMaster
	ScopeMirror
)

func (s Scope) String() string {
	switch s {
	case ScopeMaster:
		return "master"
	case ScopeMirror:
		return "mirror"
	default:
		return "all"
	}
}

// VertexQuery selects vertices. Type NullVertexType means every type.
type VertexQuery struct {
	Type  VertexType
	Scope Scope
}

// AllVertices selects every vertex of the graph.
var AllVertices = VertexQuery{Type: NullVertexType}

// AdjacentQuery selects the adjacency of Vertex. EdgeType NullEdgeType
// means every edge type.
type AdjacentQuery struct {
	Vertex   Vertex
	Dir      Direction
	EdgeType EdgeType
}
