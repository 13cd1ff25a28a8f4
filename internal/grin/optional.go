package grin

// Optional engine interfaces. An engine implements one of these only when
// it also declares the matching capability flag; callers discover them with
// a type assertion or through the helpers in ops.go.

// VertexReferencer moves vertex identity across partitions.
// Requires CapVertexRef.
type VertexReferencer interface {
	// VertexRef never fails for a vertex that is valid in this graph.
	VertexRef(v Vertex) (VertexRef, error)

	// VertexFromRef returns NullVertex with a nil error when ref names a
	// vertex this graph cannot resolve.
	VertexFromRef(ref VertexRef) (Vertex, error)

	// MasterPartition succeeds even when VertexFromRef returns NullVertex.
	MasterPartition(ref VertexRef) (Partition, error)

	SerializeRef(ref VertexRef) (string, error)
	DeserializeRef(s string) (VertexRef, error)

	IsMaster(v Vertex) bool
	IsMirror(v Vertex) bool
}

// FastVertexReferencer packs a ref into 64 bits. Requires CapFastVertexRef.
type FastVertexReferencer interface {
	RefToInt64(ref VertexRef) int64
	RefFromInt64(n int64) VertexRef
}

// MirrorPartitionLister reports which partitions replicate a master
// vertex. Requires CapMirrorPartitionList.
type MirrorPartitionLister interface {
	MirrorPartitions(v Vertex) ([]Partition, error)
}

// RawValueReader exposes the little-endian storage bytes of fixed-width
// values. String properties return an UnknownDatatype error.
// Requires CapConstValuePtr.
type RawValueReader interface {
	VertexValueBytes(v Vertex, vp VertexProperty) ([]byte, error)
	EdgeValueBytes(e Edge, ep EdgeProperty) ([]byte, error)
}

// RowReader reads all properties of a vertex or edge at once, ordered like
// VertexProperties / EdgeProperties. Requires CapRow.
type RowReader interface {
	VertexRow(v Vertex) (*Row, error)
	EdgeRow(e Edge) (*Row, error)
}

// OriginalIDIndex maps vertices to the ids they were loaded with.
// Requires CapOriginalID.
type OriginalIDIndex interface {
	VertexOriginalIDDatatype() Datatype
	VertexOriginalID(v Vertex) (Value, error)

	// VertexByOriginalID returns NullVertex with a nil error when no vertex
	// of type vt has that id.
	VertexByOriginalID(vt VertexType, oid Value) (Vertex, error)
}

// InternalIDIndex maps vertices of one type onto a dense id range
// [InternalIDLowerBound, InternalIDUpperBound). Requires CapInternalID.
type InternalIDIndex interface {
	VertexInternalID(vt VertexType, v Vertex) (int64, error)
	VertexByInternalID(vt VertexType, id int64) (Vertex, error)
	InternalIDUpperBound(vt VertexType) int64
	InternalIDLowerBound(vt VertexType) int64
}

// VertexComparer overrides handle equality for engines whose vertex
// handles are not canonical.
type VertexComparer interface {
	EqualVertex(a, b Vertex) bool
}
