package grin

import "strings"

// Capabilities is the set of optional features an engine declares at
// runtime. Callers check it before invoking the matching operation.
type Capabilities uint64

const (
	CapDirected Capabilities = 1 << iota
	CapMultigraph
	CapVertexList
	CapAdjacentList
	CapSchema
	CapVertexProperty
	CapEdgeProperty
	CapVertexTypeNaturalID
	CapEdgeTypeNaturalID
	CapPropertyNaturalID
	CapRow
	CapConstValuePtr
	CapPartition
	CapVertexRef
	CapFastVertexRef
	CapSelectMaster
	CapSelectType
	CapSelectEdgeType
	CapOriginalID
	CapInternalID
	CapMirrorPartitionList
)

var capNames = []struct {
	c    Capabilities
	name string
}{
	{CapDirected, "directed"},
	{CapMultigraph, "multigraph"},
	{CapVertexList, "vertex_list"},
	{CapAdjacentList, "adjacent_list"},
	{CapSchema, "schema"},
	{CapVertexProperty, "vertex_property"},
	{CapEdgeProperty, "edge_property"},
	{CapVertexTypeNaturalID, "vertex_type_natural_id"},
	{CapEdgeTypeNaturalID, "edge_type_natural_id"},
	{CapPropertyNaturalID, "property_natural_id"},
	{CapRow, "row"},
	{CapConstValuePtr, "const_value_ptr"},
	{CapPartition, "partition"},
	{CapVertexRef, "vertex_ref"},
	{CapFastVertexRef, "fast_vertex_ref"},
	{CapSelectMaster, "select_master"},
	{CapSelectType, "select_type"},
	{CapSelectEdgeType, "select_edge_type"},
	{CapOriginalID, "original_id"},
	{CapInternalID, "internal_id"},
	{CapMirrorPartitionList, "mirror_partition_list"},
}

// Has reports whether every flag in want is set.
func (c Capabilities) Has(want Capabilities) bool { return c&want == want }

// Names lists the set flags in declaration order.
func (c Capabilities) Names() []string {
	var out []string
	for _, n := range capNames {
		if c.Has(n.c) {
			out = append(out, n.name)
		}
	}
	return out
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}
