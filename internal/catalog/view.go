package catalog

import "grinkit/internal/grin"

// SchemaView answers the schema half of grin.Graph from a Schema. Engines
// that snapshot their schema at open time embed it.
type SchemaView struct {
	schema   Schema
	srcTypes [][]grin.VertexType
	dstTypes [][]grin.VertexType
}

// NewSchemaView indexes s. The schema must already be valid.
func NewSchemaView(s Schema) *SchemaView {
	v := &SchemaView{
		schema:   s,
		srcTypes: make([][]grin.VertexType, len(s.EdgeTypes)),
		dstTypes: make([][]grin.VertexType, len(s.EdgeTypes)),
	}
	for i, et := range s.EdgeTypes {
		for _, r := range et.Relations {
			v.srcTypes[i] = append(v.srcTypes[i], grin.VertexType(s.VertexTypeIndex(r.Src)))
			v.dstTypes[i] = append(v.dstTypes[i], grin.VertexType(s.VertexTypeIndex(r.Dst)))
		}
	}
	return v
}

// Schema returns the viewed schema.
func (v *SchemaView) Schema() *Schema { return &v.schema }

func (v *SchemaView) VertexTypes() []grin.VertexType {
	out := make([]grin.VertexType, len(v.schema.VertexTypes))
	for i := range out {
		out[i] = grin.VertexType(i)
	}
	return out
}

func (v *SchemaView) EdgeTypes() []grin.EdgeType {
	out := make([]grin.EdgeType, len(v.schema.EdgeTypes))
	for i := range out {
		out[i] = grin.EdgeType(i)
	}
	return out
}

// HasVertexType and HasEdgeType reject null and out-of-range handles.
func (v *SchemaView) HasVertexType(vt grin.VertexType) bool {
	return int(vt) < len(v.schema.VertexTypes)
}

func (v *SchemaView) HasEdgeType(et grin.EdgeType) bool {
	return int(et) < len(v.schema.EdgeTypes)
}

func (v *SchemaView) VertexTypeName(vt grin.VertexType) string {
	if !v.HasVertexType(vt) {
		return ""
	}
	return v.schema.VertexTypes[vt].Name
}

func (v *SchemaView) EdgeTypeName(et grin.EdgeType) string {
	if !v.HasEdgeType(et) {
		return ""
	}
	return v.schema.EdgeTypes[et].Name
}

func (v *SchemaView) EdgeSrcTypes(et grin.EdgeType) []grin.VertexType {
	if !v.HasEdgeType(et) {
		return nil
	}
	return append([]grin.VertexType(nil), v.srcTypes[et]...)
}

func (v *SchemaView) EdgeDstTypes(et grin.EdgeType) []grin.VertexType {
	if !v.HasEdgeType(et) {
		return nil
	}
	return append([]grin.VertexType(nil), v.dstTypes[et]...)
}

func (v *SchemaView) VertexProperties(vt grin.VertexType) []grin.VertexProperty {
	if !v.HasVertexType(vt) {
		return nil
	}
	out := make([]grin.VertexProperty, len(v.schema.VertexTypes[vt].Properties))
	for i := range out {
		out[i] = grin.MakeVertexProperty(vt, uint32(i))
	}
	return out
}

func (v *SchemaView) EdgeProperties(et grin.EdgeType) []grin.EdgeProperty {
	if !v.HasEdgeType(et) {
		return nil
	}
	out := make([]grin.EdgeProperty, len(v.schema.EdgeTypes[et].Properties))
	for i := range out {
		out[i] = grin.MakeEdgeProperty(et, uint32(i))
	}
	return out
}

// VertexProp resolves a property handle to its definition.
func (v *SchemaView) VertexProp(vp grin.VertexProperty) (*PropDef, bool) {
	if vp == grin.NullVertexProperty || !v.HasVertexType(vp.Type()) {
		return nil, false
	}
	props := v.schema.VertexTypes[vp.Type()].Properties
	if int(vp.Slot()) >= len(props) {
		return nil, false
	}
	return &props[vp.Slot()], true
}

// EdgeProp resolves a property handle to its definition.
func (v *SchemaView) EdgeProp(ep grin.EdgeProperty) (*PropDef, bool) {
	if ep == grin.NullEdgeProperty || !v.HasEdgeType(ep.Type()) {
		return nil, false
	}
	props := v.schema.EdgeTypes[ep.Type()].Properties
	if int(ep.Slot()) >= len(props) {
		return nil, false
	}
	return &props[ep.Slot()], true
}

func (v *SchemaView) VertexPropertyName(vp grin.VertexProperty) string {
	if p, ok := v.VertexProp(vp); ok {
		return p.Name
	}
	return ""
}

func (v *SchemaView) EdgePropertyName(ep grin.EdgeProperty) string {
	if p, ok := v.EdgeProp(ep); ok {
		return p.Name
	}
	return ""
}

func (v *SchemaView) VertexPropertyDatatype(vp grin.VertexProperty) grin.Datatype {
	if p, ok := v.VertexProp(vp); ok {
		return p.Type
	}
	return grin.Undefined
}

func (v *SchemaView) EdgePropertyDatatype(ep grin.EdgeProperty) grin.Datatype {
	if p, ok := v.EdgeProp(ep); ok {
		return p.Type
	}
	return grin.Undefined
}
