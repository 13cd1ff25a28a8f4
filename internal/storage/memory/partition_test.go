package memory

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
)

func buildSocial(t *testing.T, opts ...Option) *PartitionedGraph {
	t.Helper()
	opts = append([]Option{WithPartitions(2), WithPartitioner(PartitionerFunc(grintest.SocialMaster))}, opts...)
	pg, err := Build(context.Background(), grintest.Social(), opts...)
	require.NoError(t, err)
	return pg
}

func TestBuildPartitions(t *testing.T) {
	pg := buildSocial(t)
	defer pg.Close()

	if pg.TotalPartitions() != 2 {
		t.Fatalf("Expected 2 partitions, got %d", pg.TotalPartitions())
	}
	assert.Equal(t, []grin.Partition{0, 1}, pg.LocalPartitions())
	assert.Equal(t, grin.Partition(1), pg.PartitionByID(pg.PartitionID(1)))
	assert.Equal(t, grin.NullPartition, pg.PartitionByID(2))
	assert.Equal(t, grin.NullNaturalID, pg.PartitionID(grin.NullPartition))

	tests := []struct {
		p               grin.Partition
		vertices, edges int
		masters         int
	}{
		{p: 0, vertices: 5, edges: 7, masters: 3},
		{p: 1, vertices: 5, edges: 5, masters: 3},
	}
	for _, tt := range tests {
		g, err := pg.LocalGraph(tt.p)
		require.NoError(t, err)
		assert.Equal(t, tt.vertices, g.VertexNum(), "partition %d vertices", tt.p)
		assert.Equal(t, tt.edges, g.EdgeNum(), "partition %d edges", tt.p)

		masters, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
		require.NoError(t, err)
		assert.Equal(t, tt.masters, masters.Len())
		mirrors, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMirror})
		require.NoError(t, err)
		assert.Equal(t, tt.vertices-tt.masters, mirrors.Len())
	}
}

func TestMirrorRefsAcrossPartitions(t *testing.T) {
	pg := buildSocial(t)
	g0, err := pg.Fragment(0)
	require.NoError(t, err)
	g1, err := pg.Fragment(1)
	require.NoError(t, err)

	alice := grintest.Find(t, g0, "person", "alice")
	require.True(t, g0.IsMaster(alice))

	ref, err := g0.VertexRef(alice)
	require.NoError(t, err)
	mirror, err := g1.VertexFromRef(ref)
	require.NoError(t, err)
	require.NotEqual(t, grin.NullVertex, mirror)
	assert.True(t, g1.IsMirror(mirror))
	assert.False(t, g1.IsMaster(mirror))

	master, err := g1.MasterPartition(ref)
	require.NoError(t, err)
	assert.Equal(t, grin.Partition(0), master)

	// the mirror's ref is the master's ref
	back, err := g1.VertexRef(mirror)
	require.NoError(t, err)
	assert.Equal(t, ref, back)

	s, err := g0.SerializeRef(ref)
	require.NoError(t, err)
	for _, p := range pg.LocalPartitions() {
		g, _ := pg.LocalGraph(p)
		v, m, err := grin.ResolveRef(g, s)
		require.NoError(t, err)
		assert.Equal(t, grin.Partition(0), m)
		assert.NotEqual(t, grin.NullVertex, v, "partition %d resolves alice", p)
	}
	assert.Equal(t, ref, g1.RefFromInt64(g0.RefToInt64(ref)))

	mps, err := g0.MirrorPartitions(alice)
	require.NoError(t, err)
	assert.Equal(t, []grin.Partition{1}, mps)
	mps, err = g1.MirrorPartitions(mirror)
	require.NoError(t, err)
	assert.Empty(t, mps)
}

func TestUnknownVertexInPartition(t *testing.T) {
	pg := buildSocial(t)
	g0, _ := pg.Fragment(0)
	g1, _ := pg.Fragment(1)

	hello := grintest.Find(t, g0, "post", "hello")
	ref, err := g0.VertexRef(hello)
	require.NoError(t, err)

	v, err := g1.VertexFromRef(ref)
	require.NoError(t, err)
	assert.Equal(t, grin.NullVertex, v, "post 100 has no edge into partition 1")
	master, err := g1.MasterPartition(ref)
	require.NoError(t, err)
	assert.Equal(t, grin.Partition(0), master)

	_, err = g1.VertexTypeOf(hello)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err), "handles do not cross partitions")
}

func TestMirrorHasNoProperties(t *testing.T) {
	pg := buildSocial(t)
	g0, _ := pg.Fragment(0)
	g1, _ := pg.Fragment(1)
	person := grin.VertexTypeByName(g1, "person")

	ref, err := g0.VertexRef(grintest.Find(t, g0, "person", "alice"))
	require.NoError(t, err)
	mirror, err := g1.VertexFromRef(ref)
	require.NoError(t, err)

	_, err = g1.VertexValue(mirror, grin.VertexPropertyByName(g1, person, "name"))
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	oid, err := g1.VertexOriginalID(mirror)
	require.NoError(t, err)
	assert.Equal(t, "1", oid.String(), "mirrors keep their original id")
	byOID, err := g1.VertexByOriginalID(person, oid)
	require.NoError(t, err)
	assert.Equal(t, mirror, byOID)

	// the mirror still has the local adjacency of partition 1
	in, err := g1.Adjacent(grin.AdjacentQuery{Vertex: mirror, Dir: grin.In, EdgeType: grin.EdgeTypeByName(g1, "knows")})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, grintest.Neighbors(t, g1, in))
	out, err := g1.Adjacent(grin.AdjacentQuery{Vertex: mirror, Dir: grin.Out, EdgeType: grin.NullEdgeType})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestMirrorInternalIDs(t *testing.T) {
	pg := buildSocial(t)
	g0, _ := pg.Fragment(0)
	person := grin.VertexTypeByName(g0, "person")

	assert.Equal(t, int64(0), g0.InternalIDLowerBound(person))
	assert.Equal(t, int64(4), g0.InternalIDUpperBound(person), "alice, bob and mirrors of carol, dave")

	mirrors, err := g0.Vertices(grin.VertexQuery{Type: person, Scope: grin.ScopeMirror})
	require.NoError(t, err)
	require.Equal(t, 2, mirrors.Len())
	id, err := g0.VertexInternalID(person, mirrors.At(0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id, "mirrors follow the masters")
}

func TestLocalPartitions(t *testing.T) {
	pg := buildSocial(t, WithLocalPartitions(1))
	assert.Equal(t, []grin.Partition{1}, pg.LocalPartitions())
	_, err := pg.LocalGraph(0)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
	_, err = pg.LocalGraph(1)
	assert.NoError(t, err)

	_, err = Build(context.Background(), grintest.Social(), WithPartitions(2), WithLocalPartitions(5))
	assert.Error(t, err)
}

func TestSplitRejectsBadPartitioner(t *testing.T) {
	_, err := Split(grintest.Social(), 2, PartitionerFunc(func(string, int64, int) int { return 2 }))
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
	_, err = Split(grintest.Social(), 0, nil)
	assert.Error(t, err)
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, grintest.Social(), WithPartitions(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashPartitioner(t *testing.T) {
	var p HashPartitioner
	counts := make([]int, 4)
	for oid := int64(0); oid < 4000; oid++ {
		fid := p.Partition("person", oid, 4)
		require.True(t, fid >= 0 && fid < 4)
		assert.Equal(t, fid, p.Partition("person", oid, 4), "stable")
		counts[fid]++
	}
	for i, c := range counts {
		if c < 800 {
			t.Errorf("Expected partition %d to get a fair share, got %d of 4000", i, c)
		}
	}
	assert.Equal(t, 0, p.Partition("person", 99, 1))
}

func TestRangePartitioner(t *testing.T) {
	p := NewRangePartitioner(0, 100, 1000)
	tests := []struct {
		oid  int64
		want int
	}{
		{-5, 0}, {0, 0}, {99, 0}, {100, 1}, {999, 1}, {1000, 2}, {1 << 40, 2},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatInt(tt.oid, 10), func(t *testing.T) {
			if got := p.Partition("any", tt.oid, 3); got != tt.want {
				t.Errorf("Expected partition %d, got %d", tt.want, got)
			}
		})
	}
	assert.Equal(t, 0, NewRangePartitioner().Partition("any", 7, 3))
}

func TestDumpAndLoad(t *testing.T) {
	pg := buildSocial(t)
	for i, d := range pg.Dumps() {
		b, err := MarshalFragment(d)
		require.NoError(t, err)
		f, err := LoadFragment(b)
		require.NoError(t, err)

		orig, _ := pg.Fragment(grin.Partition(i))
		assert.Equal(t, orig.VertexNum(), f.VertexNum())
		assert.Equal(t, orig.EdgeNum(), f.EdgeNum())

		all, err := orig.Vertices(grin.AllVertices)
		require.NoError(t, err)
		loaded, err := f.Vertices(grin.AllVertices)
		require.NoError(t, err)
		assert.Equal(t, all.Slice(), loaded.Slice(), "handles are reproducible")
	}

	data := pg.Dumps()[0]
	b, err := MarshalFragment(data)
	require.NoError(t, err)
	f, err := LoadFragment(b)
	require.NoError(t, err)
	person := grin.VertexTypeByName(f, "person")
	score, err := grin.VertexDouble(f, grintest.Find(t, f, "person", "bob"), grin.VertexPropertyByName(f, person, "score"))
	require.NoError(t, err)
	assert.Equal(t, 3.25, score)

	_, err = LoadFragment([]byte("{"))
	assert.Error(t, err)
}
