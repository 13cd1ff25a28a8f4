package memory

import (
	"encoding/binary"

	"grinkit/internal/grin"
)

// vertexCell resolves (v, vp) to the column and row holding the value.
// Mirror vertices carry no property data in this partition.
func (f *Fragment) vertexCell(op string, v grin.Vertex, vp grin.VertexProperty) (*column, int64, error) {
	ti, inner, off, ok := f.locate(v)
	if !ok {
		return nil, 0, grin.InvalidValuef(op, "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	if _, ok := f.vertexProp(vp); !ok || int(vp.Type()) != ti {
		return nil, 0, grin.InvalidValuef(op, "property %#x does not belong to vertex type %d", uint64(vp), ti)
	}
	if !inner {
		return nil, 0, grin.InvalidValuef(op, "vertex %#x is a mirror; read it on partition %d", uint64(v), f.parser.fid(f.vtables[ti].outerGids[off]))
	}
	return &f.vtables[ti].columns[vp.Slot()], off, nil
}

func (c *column) value(off int64) grin.Value {
	if c.dt == grin.String {
		return grin.StringValue(c.strs[off])
	}
	v, _ := grin.DecodeRaw(c.dt, c.raw(off))
	return v
}

// raw returns the stored bytes of row off, capped so callers cannot grow
// into the next value.
func (c *column) raw(off int64) []byte {
	w := int64(c.dt.Size())
	return c.fixed[off*w : off*w+w : off*w+w]
}

func (f *Fragment) VertexValue(v grin.Vertex, vp grin.VertexProperty) (grin.Value, error) {
	c, off, err := f.vertexCell("vertex value", v, vp)
	if err != nil {
		return grin.NullValue, err
	}
	return c.value(off), nil
}

// VertexValueBytes exposes the column storage of a fixed-width property.
// The returned slice aliases the fragment and must not be modified.
func (f *Fragment) VertexValueBytes(v grin.Vertex, vp grin.VertexProperty) ([]byte, error) {
	c, off, err := f.vertexCell("vertex value bytes", v, vp)
	if err != nil {
		return nil, err
	}
	if c.dt == grin.String {
		return nil, grin.UnknownDatatypef("vertex value bytes", "string properties have no raw form")
	}
	return c.raw(off), nil
}

func (f *Fragment) VertexRow(v grin.Vertex) (*grin.Row, error) {
	ti, inner, off, ok := f.locate(v)
	if !ok {
		return nil, grin.InvalidValuef("vertex row", "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	if !inner {
		return nil, grin.InvalidValuef("vertex row", "vertex %#x is a mirror", uint64(v))
	}
	row := grin.NewRow()
	for i := range f.vtables[ti].columns {
		row.InsertValue(f.vtables[ti].columns[i].value(off))
	}
	return row, nil
}

// edgeCell resolves (e, ep) to the record bytes of the property.
func (f *Fragment) edgeCell(op string, e grin.Edge, ep grin.EdgeProperty) (*edgeTable, []byte, grin.Datatype, error) {
	t, rec, err := f.edgeRecord(op, e)
	if err != nil {
		return nil, nil, grin.Undefined, err
	}
	p, ok := f.edgeProp(ep)
	if !ok || ep.Type() != e.Type {
		return nil, nil, grin.Undefined, grin.InvalidValuef(op, "property %#x does not belong to edge type %d", uint64(ep), e.Type)
	}
	at := t.propOffsets[ep.Slot()]
	n := packedSize(p.Type)
	return t, rec[at : at+n : at+n], p.Type, nil
}

func (f *Fragment) edgeRecord(op string, e grin.Edge) (*edgeTable, []byte, error) {
	if e.IsNull() || int(e.Type) >= len(f.etables) {
		return nil, nil, grin.InvalidValuef(op, "edge type %d is not in partition %d", e.Type, f.fid)
	}
	t := f.etables[e.Type]
	if e.ID >= uint64(len(t.src)) {
		return nil, nil, grin.InvalidValuef(op, "edge %d of type %d is not in partition %d", e.ID, e.Type, f.fid)
	}
	start := int(e.ID) * t.recSize
	return t, t.records[start : start+t.recSize], nil
}

func (f *Fragment) decodePacked(dt grin.Datatype, b []byte) grin.Value {
	if dt == grin.String {
		ref := binary.LittleEndian.Uint64(b)
		off, n := ref>>16, ref&0xffff
		return grin.StringValue(string(f.strbuf[off : off+n]))
	}
	v, _ := grin.DecodeRaw(dt, b)
	return v
}

func (f *Fragment) EdgeValue(e grin.Edge, ep grin.EdgeProperty) (grin.Value, error) {
	_, b, dt, err := f.edgeCell("edge value", e, ep)
	if err != nil {
		return grin.NullValue, err
	}
	return f.decodePacked(dt, b), nil
}

// EdgeValueBytes exposes the packed record bytes of a fixed-width property.
func (f *Fragment) EdgeValueBytes(e grin.Edge, ep grin.EdgeProperty) ([]byte, error) {
	_, b, dt, err := f.edgeCell("edge value bytes", e, ep)
	if err != nil {
		return nil, err
	}
	if dt == grin.String {
		return nil, grin.UnknownDatatypef("edge value bytes", "string properties have no raw form")
	}
	return b, nil
}

func (f *Fragment) EdgeRow(e grin.Edge) (*grin.Row, error) {
	t, rec, err := f.edgeRecord("edge row", e)
	if err != nil {
		return nil, err
	}
	row := grin.NewRow()
	for i, p := range t.def.Properties {
		at := t.propOffsets[i]
		row.InsertValue(f.decodePacked(p.Type, rec[at:at+packedSize(p.Type)]))
	}
	return row, nil
}
