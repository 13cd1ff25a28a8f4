package memory

import (
	"encoding/binary"

	"github.com/google/btree"
	"github.com/zeebo/xxh3"

	"grinkit/internal/grin"
)

// Partitioner picks the master partition of a vertex.
type Partitioner interface {
	Partition(label string, oid int64, fnum int) int
}

// PartitionerFunc adapts a function to Partitioner.
type PartitionerFunc func(label string, oid int64, fnum int) int

func (f PartitionerFunc) Partition(label string, oid int64, fnum int) int {
	return f(label, oid, fnum)
}

// HashPartitioner spreads vertices by an xxh3 hash of (type, original id).
type HashPartitioner struct{}

func (HashPartitioner) Partition(label string, oid int64, fnum int) int {
	if fnum <= 1 {
		return 0
	}
	buf := make([]byte, len(label)+8)
	copy(buf, label)
	binary.LittleEndian.PutUint64(buf[len(label):], uint64(oid))
	return int(xxh3.Hash(buf) % uint64(fnum))
}

// RangePartitioner assigns contiguous original-id ranges to partitions,
// regardless of vertex type. Range i starts at starts[i]; ids below the
// first start belong to the first range.
type RangePartitioner struct {
	ranges *btree.BTree
}

type rangeItem struct {
	start int64
	fid   int
}

func (a rangeItem) Less(than btree.Item) bool {
	return a.start < than.(rangeItem).start
}

// NewRangePartitioner maps range i, beginning at starts[i], to partition i.
func NewRangePartitioner(starts ...int64) *RangePartitioner {
	t := btree.New(defaultBTreeDegree)
	for i, s := range starts {
		t.ReplaceOrInsert(rangeItem{start: s, fid: i})
	}
	return &RangePartitioner{ranges: t}
}

func (r *RangePartitioner) Partition(_ string, oid int64, fnum int) int {
	fid := -1
	r.ranges.DescendLessOrEqual(rangeItem{start: oid}, func(i btree.Item) bool {
		fid = i.(rangeItem).fid
		return false
	})
	if fid < 0 {
		if first := r.ranges.Min(); first != nil {
			fid = first.(rangeItem).fid
		} else {
			fid = 0
		}
	}
	if fnum <= 0 {
		return 0
	}
	return fid % fnum
}

// ============================================================================
// PARTITIONED GRAPH
// ============================================================================

// PartitionedGraph holds every fragment of a graph in process.
type PartitionedGraph struct {
	fragments []*Fragment
	local     []grin.Partition
}

// NewPartitionedGraph groups fragments that share one id layout. Fragment i
// must hold partition i.
func NewPartitionedGraph(fragments []*Fragment, local ...grin.Partition) (*PartitionedGraph, error) {
	for i, f := range fragments {
		if f.fid != i || f.fnum != len(fragments) {
			return nil, grin.InvalidValuef("partitioned graph", "fragment %d holds partition %d of %d", i, f.fid, f.fnum)
		}
	}
	if len(local) == 0 {
		for i := range fragments {
			local = append(local, grin.Partition(i))
		}
	}
	for _, p := range local {
		if int(p) >= len(fragments) {
			return nil, grin.InvalidValuef("partitioned graph", "local partition %d out of range", p)
		}
	}
	return &PartitionedGraph{fragments: fragments, local: local}, nil
}

func (g *PartitionedGraph) TotalPartitions() int { return len(g.fragments) }

func (g *PartitionedGraph) LocalPartitions() []grin.Partition {
	return append([]grin.Partition(nil), g.local...)
}

func (g *PartitionedGraph) isLocal(p grin.Partition) bool {
	for _, l := range g.local {
		if l == p {
			return true
		}
	}
	return false
}

// LocalGraph returns the fragment of a resident partition.
func (g *PartitionedGraph) LocalGraph(p grin.Partition) (grin.Graph, error) {
	f, err := g.Fragment(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Fragment is LocalGraph with the concrete type.
func (g *PartitionedGraph) Fragment(p grin.Partition) (*Fragment, error) {
	if !g.isLocal(p) {
		return nil, grin.InvalidValuef("local graph", "partition %d is not resident", p)
	}
	return g.fragments[p], nil
}

func (g *PartitionedGraph) PartitionByID(id grin.NaturalID) grin.Partition {
	if id == grin.NullNaturalID || int(id) >= len(g.fragments) {
		return grin.NullPartition
	}
	return grin.Partition(id)
}

func (g *PartitionedGraph) PartitionID(p grin.Partition) grin.NaturalID {
	if p == grin.NullPartition || int(p) >= len(g.fragments) {
		return grin.NullNaturalID
	}
	return grin.NaturalID(p)
}

func (g *PartitionedGraph) Close() error { return nil }

// Dumps returns the portable form of every fragment, indexed by partition.
func (g *PartitionedGraph) Dumps() []*FragmentData {
	out := make([]*FragmentData, len(g.fragments))
	for i, f := range g.fragments {
		out[i] = f.Dump()
	}
	return out
}
