// Package memory is an in-process storage engine. A graph is split into
// fragments, one per partition; each fragment holds its master vertices,
// mirror entries for the remote endpoints of its edges, columnar vertex
// properties, packed edge records and CSR adjacency in both directions.
//
// Fragments are immutable once built and safe for concurrent readers.
package memory

import (
	"encoding/binary"

	"github.com/google/btree"
	"go.uber.org/zap"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

const fragmentCaps = grin.CapDirected | grin.CapMultigraph |
	grin.CapVertexList | grin.CapAdjacentList | grin.CapSchema |
	grin.CapVertexProperty | grin.CapEdgeProperty |
	grin.CapVertexTypeNaturalID | grin.CapEdgeTypeNaturalID | grin.CapPropertyNaturalID |
	grin.CapRow | grin.CapConstValuePtr |
	grin.CapPartition | grin.CapVertexRef | grin.CapFastVertexRef |
	grin.CapSelectMaster | grin.CapSelectType | grin.CapSelectEdgeType |
	grin.CapOriginalID | grin.CapInternalID | grin.CapMirrorPartitionList

// maxEdgeString is the longest string a packed edge record can reference.
const maxEdgeString = 1<<16 - 1

// Fragment is the local graph of one partition.
type Fragment struct {
	log    *zap.Logger
	parser idParser
	fnum   int
	fid    int
	data   *FragmentData

	vtables []*vertexTable
	etables []*edgeTable
	base    []int // dense index of the first vertex of each type
	total   int
	edgeNum int

	ovg2l  map[uint64]grin.Vertex
	oids   *btree.BTree
	strbuf []byte
}

type vertexTable struct {
	def       *catalog.VertexTypeDef
	innerOIDs []int64
	outerOIDs []int64
	outerGids []uint64
	mirrors   [][]grin.Partition
	columns   []column
}

func (t *vertexTable) innerNum() int { return len(t.innerOIDs) }
func (t *vertexTable) outerNum() int { return len(t.outerOIDs) }

// column stores one vertex property: fixed-width values back to back in
// little-endian order, strings as Go strings.
type column struct {
	dt    grin.Datatype
	fixed []byte
	strs  []string
}

type edgeTable struct {
	def      *catalog.EdgeTypeDef
	srcTypes []grin.VertexType
	dstTypes []grin.VertexType

	propOffsets []int
	recSize     int
	src, dst    []grin.Vertex
	records     []byte

	out, in csr
}

// csr lists, for each dense vertex index, its neighbors and edge ids.
type csr struct {
	offsets []int32
	nbrs    []grin.Vertex
	eids    []uint32
}

// NewFragment builds a fragment from its portable form.
func NewFragment(d *FragmentData, opts ...Option) (*Fragment, error) {
	o := applyOptions(opts)
	if err := d.Schema.Validate(); err != nil {
		return nil, err
	}
	if d.Fnum <= 0 || d.Fid < 0 || d.Fid >= d.Fnum {
		return nil, grin.InvalidValuef("fragment", "partition %d outside [0,%d)", d.Fid, d.Fnum)
	}
	f := &Fragment{
		log:    o.log.With(zap.Int("fid", d.Fid)),
		parser: newIDParser(d.Fnum),
		fnum:   d.Fnum,
		fid:    d.Fid,
		data:   d,
		ovg2l:  make(map[uint64]grin.Vertex),
		oids:   btree.New(defaultBTreeDegree),
	}
	schema := &d.Schema
	f.vtables = make([]*vertexTable, len(schema.VertexTypes))
	for i := range schema.VertexTypes {
		def := &schema.VertexTypes[i]
		t := &vertexTable{def: def, columns: make([]column, len(def.Properties))}
		for j, p := range def.Properties {
			t.columns[j].dt = p.Type
		}
		f.vtables[i] = t
	}

	local := make(map[catalog.VertexKey]grin.Vertex, len(d.Inner)+len(d.Outer))
	if err := f.loadInner(d.Inner, local); err != nil {
		return nil, err
	}
	if err := f.loadOuter(d.Outer, local); err != nil {
		return nil, err
	}
	f.base = make([]int, len(f.vtables))
	for i, t := range f.vtables {
		f.base[i] = f.total
		f.total += t.innerNum() + t.outerNum()
	}
	if err := f.loadEdges(d.Edges, local); err != nil {
		return nil, err
	}
	f.log.Debug("fragment built",
		zap.Int("vertices", f.total),
		zap.Int("edges", f.edgeNum),
		zap.Int("string_buffer", len(f.strbuf)))
	return f, nil
}

func (f *Fragment) loadInner(inner []InnerVertex, local map[catalog.VertexKey]grin.Vertex) error {
	for _, rec := range inner {
		ti := f.data.Schema.VertexTypeIndex(rec.Label)
		if ti < 0 {
			return grin.InvalidValuef("fragment", "vertex %d has unknown type %q", rec.ID, rec.Label)
		}
		t := f.vtables[ti]
		key := catalog.VertexKey{Label: rec.Label, ID: rec.ID}
		if _, dup := local[key]; dup {
			return grin.InvalidValuef("fragment", "duplicate vertex %s/%d", rec.Label, rec.ID)
		}
		vals, err := catalog.Values(t.def.Properties, rec.Props)
		if err != nil {
			return grin.InvalidValuef("fragment", "vertex %s/%d: %v", rec.Label, rec.ID, err)
		}
		off := int64(t.innerNum())
		for j, v := range vals {
			t.columns[j].append(v)
		}
		var mirrors []grin.Partition
		for _, m := range rec.Mirrors {
			mirrors = append(mirrors, grin.Partition(m))
		}
		t.mirrors = append(t.mirrors, mirrors)
		t.innerOIDs = append(t.innerOIDs, rec.ID)

		v := grin.Vertex(f.parser.generate(f.fid, ti, off))
		local[key] = v
		f.oids.ReplaceOrInsert(oidItem{vt: grin.VertexType(ti), oid: rec.ID, v: v})
	}
	return nil
}

func (f *Fragment) loadOuter(outer []OuterVertex, local map[catalog.VertexKey]grin.Vertex) error {
	for _, o := range outer {
		ti := f.data.Schema.VertexTypeIndex(o.Label)
		if ti < 0 {
			return grin.InvalidValuef("fragment", "outer vertex %d has unknown type %q", o.ID, o.Label)
		}
		if o.Master == f.fid || o.Master < 0 || o.Master >= f.fnum {
			return grin.InvalidValuef("fragment", "outer vertex %s/%d has master %d", o.Label, o.ID, o.Master)
		}
		key := catalog.VertexKey{Label: o.Label, ID: o.ID}
		if _, dup := local[key]; dup {
			return grin.InvalidValuef("fragment", "vertex %s/%d is both inner and outer", o.Label, o.ID)
		}
		t := f.vtables[ti]
		k := int64(t.outerNum())
		gid := f.parser.generate(o.Master, ti, o.Offset)
		v := grin.Vertex(f.parser.generateOuter(f.fid, ti, k))
		t.outerOIDs = append(t.outerOIDs, o.ID)
		t.outerGids = append(t.outerGids, gid)
		f.ovg2l[gid] = v
		local[key] = v
		f.oids.ReplaceOrInsert(oidItem{vt: grin.VertexType(ti), oid: o.ID, v: v})
	}
	return nil
}

func (f *Fragment) loadEdges(edges []catalog.EdgeRecord, local map[catalog.VertexKey]grin.Vertex) error {
	schema := &f.data.Schema
	f.etables = make([]*edgeTable, len(schema.EdgeTypes))
	for i := range schema.EdgeTypes {
		def := &schema.EdgeTypes[i]
		t := &edgeTable{def: def, propOffsets: make([]int, len(def.Properties))}
		for _, r := range def.Relations {
			t.srcTypes = append(t.srcTypes, grin.VertexType(schema.VertexTypeIndex(r.Src)))
			t.dstTypes = append(t.dstTypes, grin.VertexType(schema.VertexTypeIndex(r.Dst)))
		}
		for j, p := range def.Properties {
			t.propOffsets[j] = t.recSize
			t.recSize += packedSize(p.Type)
		}
		f.etables[i] = t
	}

	for i, e := range edges {
		ti := schema.EdgeTypeIndex(e.Label)
		if ti < 0 {
			return grin.InvalidValuef("fragment", "edge %d has unknown type %q", i, e.Label)
		}
		t := f.etables[ti]
		src, ok := local[catalog.VertexKey{Label: e.SrcLabel, ID: e.Src}]
		if !ok {
			return grin.InvalidValuef("fragment", "edge %d: source %s/%d is not in the fragment", i, e.SrcLabel, e.Src)
		}
		dst, ok := local[catalog.VertexKey{Label: e.DstLabel, ID: e.Dst}]
		if !ok {
			return grin.InvalidValuef("fragment", "edge %d: destination %s/%d is not in the fragment", i, e.DstLabel, e.Dst)
		}
		vals, err := catalog.Values(t.def.Properties, e.Props)
		if err != nil {
			return grin.InvalidValuef("fragment", "edge %d (%s): %v", i, e.Label, err)
		}
		if err := f.appendRecord(t, vals); err != nil {
			return err
		}
		t.src = append(t.src, src)
		t.dst = append(t.dst, dst)
		f.edgeNum++
	}

	for _, t := range f.etables {
		t.out = f.buildCSR(t.src, t.dst)
		t.in = f.buildCSR(t.dst, t.src)
	}
	return nil
}

// buildCSR groups edges by their from endpoint, keeping edge order.
func (f *Fragment) buildCSR(from, to []grin.Vertex) csr {
	c := csr{
		offsets: make([]int32, f.total+1),
		nbrs:    make([]grin.Vertex, len(from)),
		eids:    make([]uint32, len(from)),
	}
	for _, v := range from {
		d, _ := f.dense(v)
		c.offsets[d+1]++
	}
	for i := 1; i <= f.total; i++ {
		c.offsets[i] += c.offsets[i-1]
	}
	next := make([]int32, f.total)
	copy(next, c.offsets[:f.total])
	for i, v := range from {
		d, _ := f.dense(v)
		pos := next[d]
		next[d]++
		c.nbrs[pos] = to[i]
		c.eids[pos] = uint32(i)
	}
	return c
}

func packedSize(dt grin.Datatype) int {
	if dt == grin.String {
		return 8
	}
	return dt.Size()
}

// appendRecord packs vals into one edge record. Strings are appended to the
// fragment string buffer and referenced as offset<<16 | length.
func (f *Fragment) appendRecord(t *edgeTable, vals []grin.Value) error {
	rec := make([]byte, t.recSize)
	for j, v := range vals {
		at := rec[t.propOffsets[j]:]
		if v.Type == grin.String {
			s, _ := v.Str()
			if len(s) > maxEdgeString {
				return grin.InvalidValuef("fragment", "edge string property %q is %d bytes, limit %d",
					t.def.Properties[j].Name, len(s), maxEdgeString)
			}
			ref := uint64(len(f.strbuf))<<16 | uint64(len(s))
			f.strbuf = append(f.strbuf, s...)
			binary.LittleEndian.PutUint64(at, ref)
			continue
		}
		raw, err := v.Raw()
		if err != nil {
			return err
		}
		copy(at, raw)
	}
	t.records = append(t.records, rec...)
	return nil
}

func (c *column) append(v grin.Value) {
	if c.dt == grin.String {
		s, _ := v.Str()
		c.strs = append(c.strs, s)
		return
	}
	raw, _ := v.Raw()
	c.fixed = append(c.fixed, raw...)
}

// ============================================================================
// HANDLE RESOLUTION
// ============================================================================

// locate validates a local vertex handle and splits it into type, inner
// flag and index (offset for inner vertices, k for outer ones).
func (f *Fragment) locate(v grin.Vertex) (ti int, inner bool, idx int64, ok bool) {
	id := uint64(v)
	if v == grin.NullVertex || f.parser.fid(id) != f.fid {
		return 0, false, 0, false
	}
	ti = f.parser.label(id)
	if ti >= len(f.vtables) {
		return 0, false, 0, false
	}
	t := f.vtables[ti]
	off := f.parser.offset(id)
	if off < int64(t.innerNum()) {
		return ti, true, off, true
	}
	k := f.parser.outerIndex(id)
	if k >= 0 && k < int64(t.outerNum()) {
		return ti, false, k, true
	}
	return 0, false, 0, false
}

func (f *Fragment) dense(v grin.Vertex) (int, bool) {
	ti, inner, idx, ok := f.locate(v)
	if !ok {
		return 0, false
	}
	if inner {
		return f.base[ti] + int(idx), true
	}
	return f.base[ti] + f.vtables[ti].innerNum() + int(idx), true
}

// ============================================================================
// SCHEMA
// ============================================================================

func (f *Fragment) Capabilities() grin.Capabilities { return fragmentCaps }

// Close is a no-op: fragments hold no external resources.
func (f *Fragment) Close() error { return nil }

// Fid returns the partition the fragment holds.
func (f *Fragment) Fid() grin.Partition { return grin.Partition(f.fid) }

func (f *Fragment) VertexNum() int { return f.total }
func (f *Fragment) EdgeNum() int   { return f.edgeNum }

func (f *Fragment) VertexNumByType(vt grin.VertexType) int {
	if int(vt) >= len(f.vtables) {
		return 0
	}
	t := f.vtables[vt]
	return t.innerNum() + t.outerNum()
}

func (f *Fragment) EdgeNumByType(et grin.EdgeType) int {
	if int(et) >= len(f.etables) {
		return 0
	}
	return len(f.etables[et].src)
}

func (f *Fragment) VertexTypes() []grin.VertexType {
	out := make([]grin.VertexType, len(f.vtables))
	for i := range out {
		out[i] = grin.VertexType(i)
	}
	return out
}

func (f *Fragment) EdgeTypes() []grin.EdgeType {
	out := make([]grin.EdgeType, len(f.etables))
	for i := range out {
		out[i] = grin.EdgeType(i)
	}
	return out
}

func (f *Fragment) VertexTypeName(vt grin.VertexType) string {
	if int(vt) >= len(f.vtables) {
		return ""
	}
	return f.vtables[vt].def.Name
}

func (f *Fragment) EdgeTypeName(et grin.EdgeType) string {
	if int(et) >= len(f.etables) {
		return ""
	}
	return f.etables[et].def.Name
}

func (f *Fragment) EdgeSrcTypes(et grin.EdgeType) []grin.VertexType {
	if int(et) >= len(f.etables) {
		return nil
	}
	return append([]grin.VertexType(nil), f.etables[et].srcTypes...)
}

func (f *Fragment) EdgeDstTypes(et grin.EdgeType) []grin.VertexType {
	if int(et) >= len(f.etables) {
		return nil
	}
	return append([]grin.VertexType(nil), f.etables[et].dstTypes...)
}

func (f *Fragment) VertexProperties(vt grin.VertexType) []grin.VertexProperty {
	if int(vt) >= len(f.vtables) {
		return nil
	}
	n := len(f.vtables[vt].columns)
	out := make([]grin.VertexProperty, n)
	for i := range out {
		out[i] = grin.MakeVertexProperty(vt, uint32(i))
	}
	return out
}

func (f *Fragment) EdgeProperties(et grin.EdgeType) []grin.EdgeProperty {
	if int(et) >= len(f.etables) {
		return nil
	}
	n := len(f.etables[et].def.Properties)
	out := make([]grin.EdgeProperty, n)
	for i := range out {
		out[i] = grin.MakeEdgeProperty(et, uint32(i))
	}
	return out
}

func (f *Fragment) vertexProp(vp grin.VertexProperty) (*catalog.PropDef, bool) {
	if vp == grin.NullVertexProperty || int(vp.Type()) >= len(f.vtables) {
		return nil, false
	}
	props := f.vtables[vp.Type()].def.Properties
	if int(vp.Slot()) >= len(props) {
		return nil, false
	}
	return &props[vp.Slot()], true
}

func (f *Fragment) edgeProp(ep grin.EdgeProperty) (*catalog.PropDef, bool) {
	if ep == grin.NullEdgeProperty || int(ep.Type()) >= len(f.etables) {
		return nil, false
	}
	props := f.etables[ep.Type()].def.Properties
	if int(ep.Slot()) >= len(props) {
		return nil, false
	}
	return &props[ep.Slot()], true
}

func (f *Fragment) VertexPropertyName(vp grin.VertexProperty) string {
	if p, ok := f.vertexProp(vp); ok {
		return p.Name
	}
	return ""
}

func (f *Fragment) EdgePropertyName(ep grin.EdgeProperty) string {
	if p, ok := f.edgeProp(ep); ok {
		return p.Name
	}
	return ""
}

func (f *Fragment) VertexPropertyDatatype(vp grin.VertexProperty) grin.Datatype {
	if p, ok := f.vertexProp(vp); ok {
		return p.Type
	}
	return grin.Undefined
}

func (f *Fragment) EdgePropertyDatatype(ep grin.EdgeProperty) grin.Datatype {
	if p, ok := f.edgeProp(ep); ok {
		return p.Type
	}
	return grin.Undefined
}
