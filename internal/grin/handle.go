// Package grin defines a handle-based navigation contract over property
// graphs. A storage engine implements Graph (and optionally
// PartitionedGraph plus the capability interfaces in optional.go); callers
// discover types, walk vertices and adjacency, read typed values and move
// vertex identity across partitions without knowing the engine.
//
// Handles are plain values scoped to the Graph that produced them. Every
// handle kind has a Null sentinel that signals absence.
package grin

import "fmt"

// Vertex identifies a vertex inside one Graph.
type Vertex uint64

// VertexType and EdgeType classify vertices and edges.
type (
	VertexType uint32
	EdgeType   uint32
)

// VertexProperty and EdgeProperty pack (type << 32 | slot).
type (
	VertexProperty uint64
	EdgeProperty   uint64
)

// Partition identifies one partition of a PartitionedGraph.
type Partition uint32

// VertexRef is a partition-transcending vertex identity.
type VertexRef int64

// NaturalID is a dense backend-assigned id for a type or property.
type NaturalID uint32

// Direction selects which adjacency of a vertex to traverse.
type Direction uint8

const (
	In Direction = iota
	Out
	Both
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection accepts "in", "out" and "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "in", "IN":
		return In, nil
	case "out", "OUT", "":
		return Out, nil
	case "both", "BOTH":
		return Both, nil
	}
	return Out, InvalidValuef("parse direction", "unknown direction %q", s)
}

// Null sentinels.
const (
	NullVertex         Vertex         = ^Vertex(0)
	NullVertexType     VertexType     = ^VertexType(0)
	NullEdgeType       EdgeType       = ^EdgeType(0)
	NullVertexProperty VertexProperty = ^VertexProperty(0)
	NullEdgeProperty   EdgeProperty   = ^EdgeProperty(0)
	NullPartition      Partition      = ^Partition(0)
	NullVertexRef      VertexRef      = -1
	NullNaturalID      NaturalID      = ^NaturalID(0)
)

// Edge identifies one edge as seen from an adjacency walk. ID is an
// engine-defined edge identity used for property reads.
type Edge struct {
	Src  Vertex
	Dst  Vertex
	Type EdgeType
	Dir  Direction
	ID   uint64
}

// NullEdge is the absent edge.
var NullEdge = Edge{Src: NullVertex, Dst: NullVertex, Type: NullEdgeType, ID: ^uint64(0)}

// IsNull reports whether e is the null edge.
func (e Edge) IsNull() bool { return e.Src == NullVertex }

// MakeVertexProperty packs a vertex type and slot into a property handle.
func MakeVertexProperty(vt VertexType, slot uint32) VertexProperty {
	return VertexProperty(uint64(vt)<<32 | uint64(slot))
}

// Type returns the owning vertex type.
func (p VertexProperty) Type() VertexType { return VertexType(p >> 32) }

// Slot returns the position of the property inside its type.
func (p VertexProperty) Slot() uint32 { return uint32(p) }

// MakeEdgeProperty packs an edge type and slot into a property handle.
func MakeEdgeProperty(et EdgeType, slot uint32) EdgeProperty {
	return EdgeProperty(uint64(et)<<32 | uint64(slot))
}

func (p EdgeProperty) Type() EdgeType { return EdgeType(p >> 32) }
func (p EdgeProperty) Slot() uint32   { return uint32(p) }
