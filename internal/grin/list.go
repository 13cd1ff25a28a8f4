package grin

// VertexList is a materialized, ordered vertex list. A nil *VertexList is
// the null list; its Len is 0.
type VertexList struct {
	query    VertexQuery
	vertices []Vertex
}

// NewVertexList wraps vs as the result of q. The list takes ownership of vs.
func NewVertexList(q VertexQuery, vs []Vertex) *VertexList {
	return &VertexList{query: q, vertices: vs}
}

// Query returns the selection that produced the list.
func (l *VertexList) Query() VertexQuery {
	if l == nil {
		return AllVertices
	}
	return l.query
}

func (l *VertexList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.vertices)
}

// At returns the i-th vertex, or NullVertex when i is out of range.
func (l *VertexList) At(i int) Vertex {
	if l == nil || i < 0 || i >= len(l.vertices) {
		return NullVertex
	}
	return l.vertices[i]
}

// Slice returns a copy of the vertices.
func (l *VertexList) Slice() []Vertex {
	if l == nil {
		return nil
	}
	return append([]Vertex(nil), l.vertices...)
}

// Iter begins a forward iteration over the list.
func (l *VertexList) Iter() *VertexIterator {
	return &VertexIterator{list: l}
}

// VertexIterator is a single-pass cursor over a VertexList. Once IsEnd
// reports true it stays true.
type VertexIterator struct {
	list   *VertexList
	pos    int
	closed bool
}

func (it *VertexIterator) IsEnd() bool {
	return it.closed || it.pos >= it.list.Len()
}

// Vertex returns the current vertex, or NullVertex at the end.
func (it *VertexIterator) Vertex() Vertex {
	if it.IsEnd() {
		return NullVertex
	}
	return it.list.vertices[it.pos]
}

// Next advances the cursor. It is a no-op at the end.
func (it *VertexIterator) Next() {
	if !it.IsEnd() {
		it.pos++
	}
}

// Close ends the iteration. It may be called more than once.
func (it *VertexIterator) Close() {
	it.closed = true
}

// Adjacency is one entry of an adjacency list.
type Adjacency struct {
	Neighbor Vertex
	Edge     Edge
}

// AdjacentList is the materialized adjacency of one vertex. A nil
// *AdjacentList is the null list.
type AdjacentList struct {
	query   AdjacentQuery
	entries []Adjacency
}

// NewAdjacentList wraps es as the result of q.
func NewAdjacentList(q AdjacentQuery, es []Adjacency) *AdjacentList {
	return &AdjacentList{query: q, entries: es}
}

func (l *AdjacentList) Query() AdjacentQuery {
	if l == nil {
		return AdjacentQuery{Vertex: NullVertex, EdgeType: NullEdgeType}
	}
	return l.query
}

func (l *AdjacentList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// At returns the i-th entry; out of range yields a null neighbor and edge.
func (l *AdjacentList) At(i int) Adjacency {
	if l == nil || i < 0 || i >= len(l.entries) {
		return Adjacency{Neighbor: NullVertex, Edge: NullEdge}
	}
	return l.entries[i]
}

// Neighbor and Edge are positional shorthands for At.
func (l *AdjacentList) Neighbor(i int) Vertex { return l.At(i).Neighbor }
func (l *AdjacentList) Edge(i int) Edge       { return l.At(i).Edge }

func (l *AdjacentList) Iter() *AdjacentIterator {
	return &AdjacentIterator{list: l}
}

// AdjacentIterator is a single-pass cursor over an AdjacentList.
type AdjacentIterator struct {
	list   *AdjacentList
	pos    int
	closed bool
}

func (it *AdjacentIterator) IsEnd() bool {
	return it.closed || it.pos >= it.list.Len()
}

func (it *AdjacentIterator) Neighbor() Vertex {
	if it.IsEnd() {
		return NullVertex
	}
	return it.list.entries[it.pos].Neighbor
}

func (it *AdjacentIterator) Edge() Edge {
	if it.IsEnd() {
		return NullEdge
	}
	return it.list.entries[it.pos].Edge
}

func (it *AdjacentIterator) Next() {
	if !it.IsEnd() {
		it.pos++
	}
}

func (it *AdjacentIterator) Close() {
	it.closed = true
}
