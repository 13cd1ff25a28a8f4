package memory

import (
	"strconv"

	"github.com/google/btree"

	"grinkit/internal/grin"
)

// ============================================================================
// VERTEX REFERENCES
// ============================================================================

// A vertex ref is the global id of the vertex: the id it has in the
// partition that masters it. Master handles are their own global ids.

func (f *Fragment) VertexRef(v grin.Vertex) (grin.VertexRef, error) {
	ti, inner, idx, ok := f.locate(v)
	if !ok {
		return grin.NullVertexRef, grin.InvalidValuef("vertex ref", "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	if inner {
		return grin.VertexRef(v), nil
	}
	return grin.VertexRef(f.vtables[ti].outerGids[idx]), nil
}

func (f *Fragment) checkRef(op string, ref grin.VertexRef) (uint64, error) {
	if ref < 0 {
		return 0, grin.InvalidValuef(op, "null vertex ref")
	}
	gid := uint64(ref)
	if f.parser.fid(gid) >= f.fnum || f.parser.label(gid) >= len(f.vtables) {
		return 0, grin.InvalidValuef(op, "vertex ref %d is not from this graph", int64(ref))
	}
	return gid, nil
}

// VertexFromRef returns NullVertex when the vertex is neither mastered nor
// mirrored here.
func (f *Fragment) VertexFromRef(ref grin.VertexRef) (grin.Vertex, error) {
	gid, err := f.checkRef("vertex from ref", ref)
	if err != nil {
		return grin.NullVertex, err
	}
	if f.parser.fid(gid) == f.fid {
		if f.parser.offset(gid) < int64(f.vtables[f.parser.label(gid)].innerNum()) {
			return grin.Vertex(gid), nil
		}
		return grin.NullVertex, nil
	}
	if v, ok := f.ovg2l[gid]; ok {
		return v, nil
	}
	return grin.NullVertex, nil
}

// MasterPartition reads the partition out of the ref; no lookup is needed.
func (f *Fragment) MasterPartition(ref grin.VertexRef) (grin.Partition, error) {
	gid, err := f.checkRef("master partition", ref)
	if err != nil {
		return grin.NullPartition, err
	}
	return grin.Partition(f.parser.fid(gid)), nil
}

func (f *Fragment) SerializeRef(ref grin.VertexRef) (string, error) {
	if _, err := f.checkRef("serialize ref", ref); err != nil {
		return "", err
	}
	return strconv.FormatInt(int64(ref), 10), nil
}

func (f *Fragment) DeserializeRef(s string) (grin.VertexRef, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return grin.NullVertexRef, grin.InvalidValuef("deserialize ref", "%q is not a vertex ref", s)
	}
	if _, err := f.checkRef("deserialize ref", grin.VertexRef(n)); err != nil {
		return grin.NullVertexRef, err
	}
	return grin.VertexRef(n), nil
}

func (f *Fragment) RefToInt64(ref grin.VertexRef) int64 { return int64(ref) }
func (f *Fragment) RefFromInt64(n int64) grin.VertexRef { return grin.VertexRef(n) }

func (f *Fragment) IsMaster(v grin.Vertex) bool {
	_, inner, _, ok := f.locate(v)
	return ok && inner
}

func (f *Fragment) IsMirror(v grin.Vertex) bool {
	_, inner, _, ok := f.locate(v)
	return ok && !inner
}

// MirrorPartitions lists the partitions mirroring a master vertex. Mirrors
// themselves report none.
func (f *Fragment) MirrorPartitions(v grin.Vertex) ([]grin.Partition, error) {
	ti, inner, idx, ok := f.locate(v)
	if !ok {
		return nil, grin.InvalidValuef("mirror partitions", "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	if !inner {
		return nil, nil
	}
	return append([]grin.Partition(nil), f.vtables[ti].mirrors[idx]...), nil
}

// ============================================================================
// ORIGINAL AND INTERNAL IDS
// ============================================================================

const defaultBTreeDegree = 64

// oidItem orders vertices by (type, original id).
type oidItem struct {
	vt  grin.VertexType
	oid int64
	v   grin.Vertex
}

func (a oidItem) Less(than btree.Item) bool {
	b := than.(oidItem)
	if a.vt != b.vt {
		return a.vt < b.vt
	}
	return a.oid < b.oid
}

func (f *Fragment) VertexOriginalIDDatatype() grin.Datatype { return grin.Int64 }

func (f *Fragment) VertexOriginalID(v grin.Vertex) (grin.Value, error) {
	ti, inner, idx, ok := f.locate(v)
	if !ok {
		return grin.NullValue, grin.InvalidValuef("original id", "vertex %#x is not in partition %d", uint64(v), f.fid)
	}
	t := f.vtables[ti]
	if inner {
		return grin.Int64Value(t.innerOIDs[idx]), nil
	}
	return grin.Int64Value(t.outerOIDs[idx]), nil
}

func (f *Fragment) VertexByOriginalID(vt grin.VertexType, oid grin.Value) (grin.Vertex, error) {
	id, err := oid.Int64()
	if err != nil {
		return grin.NullVertex, err
	}
	if int(vt) >= len(f.vtables) {
		return grin.NullVertex, grin.InvalidValuef("vertex by original id", "unknown vertex type %d", vt)
	}
	item := f.oids.Get(oidItem{vt: vt, oid: id})
	if item == nil {
		return grin.NullVertex, nil
	}
	return item.(oidItem).v, nil
}

// OriginalIDRange lists the vertices of vt whose original ids fall in
// [from, to], in id order.
func (f *Fragment) OriginalIDRange(vt grin.VertexType, from, to int64) []grin.Vertex {
	var out []grin.Vertex
	f.oids.AscendGreaterOrEqual(oidItem{vt: vt, oid: from}, func(i btree.Item) bool {
		it := i.(oidItem)
		if it.vt != vt || it.oid > to {
			return false
		}
		out = append(out, it.v)
		return true
	})
	return out
}

// Internal ids are dense per type: master vertices take [0, inner) by
// offset and mirrors continue at inner + k.

func (f *Fragment) VertexInternalID(vt grin.VertexType, v grin.Vertex) (int64, error) {
	ti, inner, idx, ok := f.locate(v)
	if !ok || grin.VertexType(ti) != vt {
		return -1, grin.InvalidValuef("internal id", "vertex %#x is not of type %d", uint64(v), vt)
	}
	if inner {
		return idx, nil
	}
	return int64(f.vtables[ti].innerNum()) + idx, nil
}

func (f *Fragment) VertexByInternalID(vt grin.VertexType, id int64) (grin.Vertex, error) {
	if int(vt) >= len(f.vtables) {
		return grin.NullVertex, grin.InvalidValuef("vertex by internal id", "unknown vertex type %d", vt)
	}
	t := f.vtables[vt]
	switch {
	case id < 0 || id >= int64(t.innerNum()+t.outerNum()):
		return grin.NullVertex, nil
	case id < int64(t.innerNum()):
		return grin.Vertex(f.parser.generate(f.fid, int(vt), id)), nil
	default:
		return grin.Vertex(f.parser.generateOuter(f.fid, int(vt), id-int64(t.innerNum()))), nil
	}
}

func (f *Fragment) InternalIDUpperBound(vt grin.VertexType) int64 {
	return int64(f.VertexNumByType(vt))
}

func (f *Fragment) InternalIDLowerBound(vt grin.VertexType) int64 { return 0 }
