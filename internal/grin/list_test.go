package grin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexIterator(t *testing.T) {
	l := NewVertexList(AllVertices, []Vertex{3, 1, 2})
	var got []Vertex
	it := l.Iter()
	for ; !it.IsEnd(); it.Next() {
		got = append(got, it.Vertex())
	}
	assert.Equal(t, []Vertex{3, 1, 2}, got)

	for i := 0; i < 3; i++ {
		it.Next()
		if !it.IsEnd() {
			t.Fatalf("Expected iterator to stay at end after %d extra Next calls", i+1)
		}
	}
	assert.Equal(t, NullVertex, it.Vertex())
}

func TestVertexIteratorClose(t *testing.T) {
	it := NewVertexList(AllVertices, []Vertex{1, 2}).Iter()
	it.Close()
	it.Close()
	assert.True(t, it.IsEnd())
	assert.Equal(t, NullVertex, it.Vertex())
}

func TestNullLists(t *testing.T) {
	var vl *VertexList
	assert.Equal(t, 0, vl.Len())
	assert.Equal(t, NullVertex, vl.At(0))
	assert.Nil(t, vl.Slice())
	assert.True(t, vl.Iter().IsEnd())
	assert.Equal(t, NullVertexType, vl.Query().Type)

	var al *AdjacentList
	assert.Equal(t, 0, al.Len())
	assert.True(t, al.Edge(0).IsNull())
	assert.Equal(t, NullVertex, al.Neighbor(0))
	assert.True(t, al.Iter().IsEnd())
}

func TestVertexListSliceIsCopy(t *testing.T) {
	l := NewVertexList(AllVertices, []Vertex{1, 2})
	s := l.Slice()
	s[0] = 99
	assert.Equal(t, Vertex(1), l.At(0))
}

func TestAdjacentIterator(t *testing.T) {
	q := AdjacentQuery{Vertex: 1, Dir: Both, EdgeType: NullEdgeType}
	l := NewAdjacentList(q, []Adjacency{
		{Neighbor: 2, Edge: Edge{Src: 1, Dst: 2, Type: 0, Dir: Out, ID: 10}},
		{Neighbor: 3, Edge: Edge{Src: 3, Dst: 1, Type: 0, Dir: In, ID: 11}},
	})
	assert.Equal(t, q, l.Query())

	var ids []uint64
	it := l.Iter()
	for ; !it.IsEnd(); it.Next() {
		ids = append(ids, it.Edge().ID)
	}
	assert.Equal(t, []uint64{10, 11}, ids)
	assert.True(t, it.Edge().IsNull())
	assert.Equal(t, NullVertex, it.Neighbor())
	assert.Equal(t, Vertex(3), l.Neighbor(1))
}

func TestRow(t *testing.T) {
	r := NewRow()
	r.InsertInt32(42)
	r.InsertString("alice")
	r.InsertDouble(3.14)
	require.Equal(t, 3, r.Len())

	i, err := r.Int32At(0)
	require.NoError(t, err)
	if i != 42 {
		t.Errorf("Expected 42, got %d", i)
	}
	s, err := r.StringAt(1)
	require.NoError(t, err)
	assert.Equal(t, "alice", s)
	d, err := r.DoubleAt(2)
	require.NoError(t, err)
	assert.Equal(t, 3.14, d)

	// reads are repeatable
	again, err := r.Int32At(0)
	require.NoError(t, err)
	assert.Equal(t, i, again)

	_, err = r.Int64At(0)
	assert.Equal(t, UnknownDatatype, CodeOf(err))
	_, err = r.StringAt(3)
	assert.Equal(t, InvalidValue, CodeOf(err))

	raw, err := r.RawAt(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{42, 0, 0, 0}, raw)
	_, err = r.RawAt(1)
	assert.Equal(t, UnknownDatatype, CodeOf(err))
}

func TestRowInsertAll(t *testing.T) {
	r := NewRow(UInt32Value(1))
	r.InsertInt64(2)
	r.InsertUInt64(3)
	r.InsertFloat(4)
	r.InsertDate32(5)
	r.InsertTime32(6)
	r.InsertTimestamp64(7)
	require.Equal(t, 7, r.Len())

	u32, _ := r.UInt32At(0)
	i64, _ := r.Int64At(1)
	u64, _ := r.UInt64At(2)
	f, _ := r.FloatAt(3)
	d, _ := r.Date32At(4)
	tm, _ := r.Time32At(5)
	ts, _ := r.Timestamp64At(6)
	assert.Equal(t, []any{uint32(1), int64(2), uint64(3), float32(4), int32(5), int32(6), int64(7)},
		[]any{u32, i64, u64, f, d, tm, ts})
}
