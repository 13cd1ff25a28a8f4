package grintest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/grin"
)

// Find returns the vertex of type label whose key property equals want.
// Persons are keyed by name, posts by title.
func Find(t testing.TB, g grin.Graph, label, want string) grin.Vertex {
	t.Helper()
	vt := grin.VertexTypeByName(g, label)
	require.NotEqual(t, grin.NullVertexType, vt, "vertex type %s", label)
	key := "name"
	if label == "post" {
		key = "title"
	}
	vp := grin.VertexPropertyByName(g, vt, key)
	require.NotEqual(t, grin.NullVertexProperty, vp)

	list, err := g.Vertices(grin.VertexQuery{Type: vt})
	require.NoError(t, err)
	for _, v := range list.Slice() {
		s, err := grin.VertexString(g, v, vp)
		if err != nil {
			continue
		}
		if s == want {
			return v
		}
	}
	t.Fatalf("no %s with %s %q", label, key, want)
	return grin.NullVertex
}

// Neighbors returns the key property of every neighbor in l, in order.
func Neighbors(t testing.TB, g grin.Graph, l *grin.AdjacentList) []string {
	t.Helper()
	var out []string
	for it := l.Iter(); !it.IsEnd(); it.Next() {
		nbr := it.Neighbor()
		vt, err := g.VertexTypeOf(nbr)
		require.NoError(t, err)
		key := "name"
		if g.VertexTypeName(vt) == "post" {
			key = "title"
		}
		s, err := grin.VertexString(g, nbr, grin.VertexPropertyByName(g, vt, key))
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

// Run checks an unpartitioned graph loaded from Social against the whole
// navigation contract. Optional operations are checked when g declares
// their capability.
func Run(t *testing.T, g grin.Graph) {
	t.Run("schema", func(t *testing.T) { checkSchema(t, g) })
	t.Run("counts", func(t *testing.T) { checkCounts(t, g) })
	t.Run("vertex list", func(t *testing.T) { checkVertexList(t, g) })
	t.Run("adjacency", func(t *testing.T) { checkAdjacency(t, g) })
	t.Run("values", func(t *testing.T) { checkValues(t, g) })
	t.Run("rows", func(t *testing.T) { checkRows(t, g) })
	t.Run("errors", func(t *testing.T) { checkErrors(t, g) })

	caps := g.Capabilities()
	if caps.Has(grin.CapConstValuePtr) {
		t.Run("raw values", func(t *testing.T) { checkRawValues(t, g) })
	}
	if caps.Has(grin.CapVertexRef) {
		t.Run("vertex refs", func(t *testing.T) { checkRefs(t, g) })
	}
	if caps.Has(grin.CapOriginalID) {
		t.Run("original ids", func(t *testing.T) { checkOriginalIDs(t, g) })
	}
	if caps.Has(grin.CapInternalID) {
		t.Run("internal ids", func(t *testing.T) { checkInternalIDs(t, g) })
	}
}

func checkSchema(t *testing.T, g grin.Graph) {
	caps := g.Capabilities()
	assert.True(t, caps.Has(grin.CapSchema|grin.CapVertexList|grin.CapAdjacentList), "caps: %s", caps)

	var vnames, enames []string
	for _, vt := range g.VertexTypes() {
		vnames = append(vnames, g.VertexTypeName(vt))
	}
	for _, et := range g.EdgeTypes() {
		enames = append(enames, g.EdgeTypeName(et))
	}
	assert.Equal(t, []string{"person", "post"}, vnames)
	assert.Equal(t, []string{"knows", "likes", "created"}, enames)

	person := grin.VertexTypeByName(g, "person")
	post := grin.VertexTypeByName(g, "post")
	knows := grin.EdgeTypeByName(g, "knows")
	assert.Equal(t, grin.NullVertexType, grin.VertexTypeByName(g, "nobody"))
	assert.Equal(t, grin.NullEdgeType, grin.EdgeTypeByName(g, "hates"))

	assert.Equal(t, grin.NaturalID(1), grin.VertexTypeID(g, post))
	assert.Equal(t, post, grin.VertexTypeByID(g, 1))
	assert.Equal(t, grin.NullVertexType, grin.VertexTypeByID(g, 7))
	assert.Equal(t, knows, grin.EdgeTypeByID(g, grin.EdgeTypeID(g, knows)))

	assert.Equal(t, []grin.VertexType{person}, g.EdgeSrcTypes(knows))
	assert.Equal(t, []grin.VertexType{person}, g.EdgeDstTypes(knows))
	between := grin.EdgeTypesBetween(g, person, post)
	assert.Equal(t, []grin.EdgeType{grin.EdgeTypeByName(g, "likes"), grin.EdgeTypeByName(g, "created")}, between)
	assert.Empty(t, grin.EdgeTypesBetween(g, post, person))

	wantVertex := map[string]grin.Datatype{
		"name": grin.String, "age": grin.Int32, "score": grin.Double, "joined": grin.Date32, "rank": grin.UInt32,
	}
	vps := g.VertexProperties(person)
	require.Len(t, vps, len(wantVertex))
	for i, vp := range vps {
		name := g.VertexPropertyName(vp)
		assert.Equal(t, wantVertex[name], g.VertexPropertyDatatype(vp), name)
		assert.Equal(t, grin.NaturalID(i), grin.VertexPropertyID(g, person, vp))
		assert.Equal(t, vp, grin.VertexPropertyByID(g, person, grin.NaturalID(i)))
		assert.Equal(t, person, grin.VertexPropertyType(vp))
	}

	title := grin.VertexPropertyByName(g, post, "title")
	assert.NotEqual(t, grin.NullVertexProperty, title)
	assert.Equal(t, grin.NullVertexProperty, grin.VertexPropertyByName(g, person, "title"))
	assert.Equal(t, grin.NullNaturalID, grin.VertexPropertyID(g, person, title), "property of another type")
	assert.Len(t, grin.VertexPropertiesByName(g, "name"), 1)
	assert.Nil(t, grin.VertexPropertiesByName(g, "missing"))

	assert.Len(t, g.EdgeProperties(knows), 2)
	assert.Empty(t, g.EdgeProperties(grin.EdgeTypeByName(g, "created")))
	weight := grin.EdgePropertyByName(g, knows, "weight")
	assert.Equal(t, grin.Float, g.EdgePropertyDatatype(weight))
	assert.Equal(t, knows, grin.EdgePropertyType(weight))
	assert.Equal(t, grin.NaturalID(1), grin.EdgePropertyID(g, knows, weight))
	assert.Len(t, grin.EdgePropertiesByName(g, "note"), 1)
}

func checkCounts(t *testing.T, g grin.Graph) {
	if g.VertexNum() != VertexCount {
		t.Errorf("Expected %d vertices, got %d", VertexCount, g.VertexNum())
	}
	if g.EdgeNum() != EdgeCount {
		t.Errorf("Expected %d edges, got %d", EdgeCount, g.EdgeNum())
	}
	assert.Equal(t, PersonCount, g.VertexNumByType(grin.VertexTypeByName(g, "person")))
	assert.Equal(t, PostCount, g.VertexNumByType(grin.VertexTypeByName(g, "post")))
	assert.Equal(t, KnowsCount, g.EdgeNumByType(grin.EdgeTypeByName(g, "knows")))
	assert.Equal(t, LikesCount, g.EdgeNumByType(grin.EdgeTypeByName(g, "likes")))
	assert.Equal(t, CreateCount, g.EdgeNumByType(grin.EdgeTypeByName(g, "created")))
}

func checkVertexList(t *testing.T, g grin.Graph) {
	all, err := g.Vertices(grin.AllVertices)
	require.NoError(t, err)
	assert.Equal(t, VertexCount, all.Len())

	seen := map[grin.Vertex]bool{}
	it := all.Iter()
	for ; !it.IsEnd(); it.Next() {
		seen[it.Vertex()] = true
	}
	assert.Len(t, seen, VertexCount, "handles are distinct")
	assert.True(t, it.IsEnd())
	it.Next()
	assert.True(t, it.IsEnd(), "end is sticky")
	assert.Equal(t, grin.NullVertex, it.Vertex())
	it.Close()
	it.Close()

	person := grin.VertexTypeByName(g, "person")
	persons, err := g.Vertices(grin.VertexQuery{Type: person})
	require.NoError(t, err)
	assert.Equal(t, PersonCount, persons.Len())
	for _, v := range persons.Slice() {
		vt, err := g.VertexTypeOf(v)
		require.NoError(t, err)
		assert.Equal(t, person, vt)
	}
	assert.Equal(t, grin.NullVertex, persons.At(PersonCount))

	if g.Capabilities().Has(grin.CapSelectType) {
		posts, err := grin.SelectType(g, all, grin.VertexTypeByName(g, "post"))
		require.NoError(t, err)
		assert.Equal(t, PostCount, posts.Len())
	}
}

func checkAdjacency(t *testing.T, g grin.Graph) {
	alice := Find(t, g, "person", "alice")
	knows := grin.EdgeTypeByName(g, "knows")

	out, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: knows})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, Neighbors(t, g, out))
	e := out.Edge(0)
	assert.Equal(t, alice, e.Src)
	assert.Equal(t, out.Neighbor(0), e.Dst)
	assert.Equal(t, grin.Out, e.Dir)
	assert.Equal(t, knows, e.Type)

	in, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.In, EdgeType: knows})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, Neighbors(t, g, in))
	assert.Equal(t, alice, in.Edge(0).Dst)
	assert.Equal(t, grin.In, in.Edge(0).Dir)

	both, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Both, EdgeType: knows})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol", "dave"}, Neighbors(t, g, both))

	every, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: grin.NullEdgeType})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "hello", "hello"}, Neighbors(t, g, every))
	if g.Capabilities().Has(grin.CapSelectEdgeType) {
		likes := grin.EdgeTypeByName(g, "likes")
		narrowed, err := grin.SelectEdgeType(g, every, likes)
		require.NoError(t, err)
		require.Equal(t, 1, narrowed.Len())
		assert.Equal(t, likes, narrowed.Edge(0).Type)
	}

	hello := Find(t, g, "post", "hello")
	fans, err := g.Adjacent(grin.AdjacentQuery{Vertex: hello, Dir: grin.In, EdgeType: grin.EdgeTypeByName(g, "likes")})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, Neighbors(t, g, fans))

	none, err := g.Adjacent(grin.AdjacentQuery{Vertex: hello, Dir: grin.Out, EdgeType: grin.NullEdgeType})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	it := none.Iter()
	assert.True(t, it.IsEnd())
	assert.True(t, it.Edge().IsNull())
}

func checkValues(t *testing.T, g grin.Graph) {
	person := grin.VertexTypeByName(g, "person")
	post := grin.VertexTypeByName(g, "post")
	carol := Find(t, g, "person", "carol")
	graphs := Find(t, g, "post", "graphs")

	age, err := grin.VertexInt32(g, carol, grin.VertexPropertyByName(g, person, "age"))
	require.NoError(t, err)
	if age != 41 {
		t.Errorf("Expected age 41, got %d", age)
	}
	score, err := grin.VertexDouble(g, carol, grin.VertexPropertyByName(g, person, "score"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
	joined, err := grin.VertexDate32(g, carol, grin.VertexPropertyByName(g, person, "joined"))
	require.NoError(t, err)
	assert.Equal(t, int32(18200), joined)
	rank, err := grin.VertexUInt32(g, carol, grin.VertexPropertyByName(g, person, "rank"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), rank)

	views, err := grin.VertexUInt64(g, graphs, grin.VertexPropertyByName(g, post, "views"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), views)
	published, err := grin.VertexTimestamp64(g, graphs, grin.VertexPropertyByName(g, post, "published"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000500000), published)
	length, err := grin.VertexInt64(g, graphs, grin.VertexPropertyByName(g, post, "length"))
	require.NoError(t, err)
	assert.Equal(t, int64(2048), length)

	knows := grin.EdgeTypeByName(g, "knows")
	out, err := g.Adjacent(grin.AdjacentQuery{Vertex: carol, Dir: grin.Out, EdgeType: knows})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	since, err := grin.EdgeInt32(g, out.Edge(0), grin.EdgePropertyByName(g, knows, "since"))
	require.NoError(t, err)
	assert.Equal(t, int32(2018), since)
	weight, err := grin.EdgeFloat(g, out.Edge(0), grin.EdgePropertyByName(g, knows, "weight"))
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), weight)

	// The same edge seen from the other endpoint carries the same values.
	alice := Find(t, g, "person", "alice")
	in, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.In, EdgeType: knows})
	require.NoError(t, err)
	require.Equal(t, 2, in.Len())
	since, err = grin.EdgeInt32(g, in.Edge(0), grin.EdgePropertyByName(g, knows, "since"))
	require.NoError(t, err)
	assert.Equal(t, int32(2018), since)

	likes := grin.EdgeTypeByName(g, "likes")
	liked, err := g.Adjacent(grin.AdjacentQuery{Vertex: carol, Dir: grin.Out, EdgeType: likes})
	require.NoError(t, err)
	require.Equal(t, 1, liked.Len())
	note, err := grin.EdgeString(g, liked.Edge(0), grin.EdgePropertyByName(g, likes, "note"))
	require.NoError(t, err)
	assert.Equal(t, "+1", note)
	at, err := grin.EdgeTime32(g, liked.Edge(0), grin.EdgePropertyByName(g, likes, "at"))
	require.NoError(t, err)
	assert.Equal(t, int32(60000), at)

	bob := Find(t, g, "person", "bob")
	empty, err := g.Adjacent(grin.AdjacentQuery{Vertex: bob, Dir: grin.Out, EdgeType: likes})
	require.NoError(t, err)
	require.Equal(t, 1, empty.Len())
	note, err = grin.EdgeString(g, empty.Edge(0), grin.EdgePropertyByName(g, likes, "note"))
	require.NoError(t, err)
	assert.Equal(t, "", note, "empty strings survive storage")
}

func checkRows(t *testing.T, g grin.Graph) {
	alice := Find(t, g, "person", "alice")
	row, err := grin.VertexRow(g, alice)
	require.NoError(t, err)
	require.Equal(t, 5, row.Len())
	name, err := row.StringAt(0)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
	age, err := row.Int32At(1)
	require.NoError(t, err)
	assert.Equal(t, int32(30), age)
	_, err = row.Int64At(1)
	assert.Equal(t, grin.UnknownDatatype, grin.CodeOf(err))
	_, err = row.ValueAt(5)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	created := grin.EdgeTypeByName(g, "created")
	out, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: created})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	erow, err := grin.EdgeRow(g, out.Edge(0))
	require.NoError(t, err)
	assert.Equal(t, 0, erow.Len())
}

func checkErrors(t *testing.T, g grin.Graph) {
	person := grin.VertexTypeByName(g, "person")
	alice := Find(t, g, "person", "alice")

	_, err := grin.VertexInt64(g, alice, grin.VertexPropertyByName(g, person, "age"))
	assert.Equal(t, grin.UnknownDatatype, grin.CodeOf(err), "int64 accessor on an int32 property")

	_, err = g.VertexTypeOf(grin.NullVertex)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	_, err = g.VertexValue(alice, grin.VertexPropertyByName(g, grin.VertexTypeByName(g, "post"), "title"))
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err), "property of another type")

	_, err = g.Adjacent(grin.AdjacentQuery{Vertex: grin.NullVertex, Dir: grin.Out, EdgeType: grin.NullEdgeType})
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}

func checkRawValues(t *testing.T, g grin.Graph) {
	for _, vt := range g.VertexTypes() {
		list, err := g.Vertices(grin.VertexQuery{Type: vt})
		require.NoError(t, err)
		for _, v := range list.Slice() {
			for _, vp := range g.VertexProperties(vt) {
				dt := g.VertexPropertyDatatype(vp)
				raw, err := grin.VertexValueBytes(g, v, vp)
				if !dt.FixedWidth() {
					assert.Equal(t, grin.UnknownDatatype, grin.CodeOf(err))
					continue
				}
				require.NoError(t, err)
				decoded, err := grin.DecodeRaw(dt, raw)
				require.NoError(t, err)
				typed, err := g.VertexValue(v, vp)
				require.NoError(t, err)
				assert.True(t, decoded.Equal(typed), "%s: raw %v, typed %v", g.VertexPropertyName(vp), decoded, typed)
			}
		}
	}

	knows := grin.EdgeTypeByName(g, "knows")
	alice := Find(t, g, "person", "alice")
	out, err := g.Adjacent(grin.AdjacentQuery{Vertex: alice, Dir: grin.Out, EdgeType: knows})
	require.NoError(t, err)
	weight := grin.EdgePropertyByName(g, knows, "weight")
	raw, err := grin.EdgeValueBytes(g, out.Edge(0), weight)
	require.NoError(t, err)
	decoded, err := grin.DecodeRaw(grin.Float, raw)
	require.NoError(t, err)
	f, _ := decoded.Float()
	assert.Equal(t, float32(0.5), f)
}

func checkRefs(t *testing.T, g grin.Graph) {
	r, err := grin.Referencer(g)
	require.NoError(t, err)

	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		v := Find(t, g, "person", name)
		ref, err := r.VertexRef(v)
		require.NoError(t, err)
		back, err := r.VertexFromRef(ref)
		require.NoError(t, err)
		assert.True(t, grin.EqualVertex(g, v, back), name)
		assert.True(t, r.IsMaster(v))
		assert.False(t, r.IsMirror(v))

		s, err := r.SerializeRef(ref)
		require.NoError(t, err)
		resolved, master, err := grin.ResolveRef(g, s)
		require.NoError(t, err)
		assert.True(t, grin.EqualVertex(g, v, resolved))
		assert.Equal(t, grin.Partition(0), master)

		if fast, err := grin.FastReferencer(g); err == nil {
			assert.Equal(t, ref, fast.RefFromInt64(fast.RefToInt64(ref)))
		}
	}

	_, err = r.DeserializeRef("not a ref")
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}

func checkOriginalIDs(t *testing.T, g grin.Graph) {
	idx, ok := g.(grin.OriginalIDIndex)
	require.True(t, ok)
	person := grin.VertexTypeByName(g, "person")
	dave := Find(t, g, "person", "dave")

	oid, err := idx.VertexOriginalID(dave)
	require.NoError(t, err)
	assert.Equal(t, idx.VertexOriginalIDDatatype(), oid.Type)
	assert.Equal(t, "4", oid.String())

	v, err := idx.VertexByOriginalID(person, oid)
	require.NoError(t, err)
	assert.True(t, grin.EqualVertex(g, dave, v))

	missing, err := grin.ValueOf(idx.VertexOriginalIDDatatype(), int64(999))
	require.NoError(t, err)
	v, err = idx.VertexByOriginalID(person, missing)
	require.NoError(t, err)
	assert.Equal(t, grin.NullVertex, v)
}

func checkInternalIDs(t *testing.T, g grin.Graph) {
	idx, ok := g.(grin.InternalIDIndex)
	require.True(t, ok)
	for _, vt := range g.VertexTypes() {
		lo, hi := idx.InternalIDLowerBound(vt), idx.InternalIDUpperBound(vt)
		assert.Equal(t, int64(0), lo, "internal ids start at 0 in every type")
		assert.Equal(t, int64(g.VertexNumByType(vt)), hi-lo, g.VertexTypeName(vt))
		list, err := g.Vertices(grin.VertexQuery{Type: vt})
		require.NoError(t, err)
		for _, v := range list.Slice() {
			id, err := idx.VertexInternalID(vt, v)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, id, lo)
			assert.Less(t, id, hi)
			back, err := idx.VertexByInternalID(vt, id)
			require.NoError(t, err)
			assert.True(t, grin.EqualVertex(g, v, back))
		}
		v, err := idx.VertexByInternalID(vt, hi)
		require.NoError(t, err)
		assert.Equal(t, grin.NullVertex, v, "upper bound is exclusive")
	}
}
