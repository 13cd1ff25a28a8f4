// Package grintest holds a shared social-network fixture and a conformance
// suite that every engine runs against it.
package grintest

import (
	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// Fixture sizes.
const (
	PersonCount = 4
	PostCount   = 2
	KnowsCount  = 4
	LikesCount  = 3
	CreateCount = 2
	VertexCount = PersonCount + PostCount
	EdgeCount   = KnowsCount + LikesCount + CreateCount
)

// SocialSchema covers every datatype: persons know persons, like posts and
// create posts.
func SocialSchema() catalog.Schema {
	return catalog.Schema{
		VertexTypes: []catalog.VertexTypeDef{
			{Name: "person", Properties: []catalog.PropDef{
				{Name: "name", Type: grin.String},
				{Name: "age", Type: grin.Int32},
				{Name: "score", Type: grin.Double},
				{Name: "joined", Type: grin.Date32},
				{Name: "rank", Type: grin.UInt32},
			}},
			{Name: "post", Properties: []catalog.PropDef{
				{Name: "title", Type: grin.String},
				{Name: "views", Type: grin.UInt64},
				{Name: "published", Type: grin.Timestamp64},
				{Name: "length", Type: grin.Int64},
			}},
		},
		EdgeTypes: []catalog.EdgeTypeDef{
			{Name: "knows", Properties: []catalog.PropDef{
				{Name: "since", Type: grin.Int32},
				{Name: "weight", Type: grin.Float},
			}, Relations: []catalog.Relation{{Src: "person", Dst: "person"}}},
			{Name: "likes", Properties: []catalog.PropDef{
				{Name: "at", Type: grin.Time32},
				{Name: "note", Type: grin.String},
			}, Relations: []catalog.Relation{{Src: "person", Dst: "post"}}},
			{Name: "created", Relations: []catalog.Relation{{Src: "person", Dst: "post"}}},
		},
	}
}

func person(id int64, name string, age int32, score float64, joined int32, rank uint32) catalog.VertexRecord {
	return catalog.VertexRecord{Label: "person", ID: id, Props: map[string]any{
		"name": name, "age": age, "score": score, "joined": joined, "rank": rank,
	}}
}

func post(id int64, title string, views uint64, published, length int64) catalog.VertexRecord {
	return catalog.VertexRecord{Label: "post", ID: id, Props: map[string]any{
		"title": title, "views": views, "published": published, "length": length,
	}}
}

func knows(src, dst int64, since int32, weight float32) catalog.EdgeRecord {
	return catalog.EdgeRecord{Label: "knows", SrcLabel: "person", Src: src, DstLabel: "person", Dst: dst,
		Props: map[string]any{"since": since, "weight": weight}}
}

func likes(src, dst int64, at int32, note string) catalog.EdgeRecord {
	return catalog.EdgeRecord{Label: "likes", SrcLabel: "person", Src: src, DstLabel: "post", Dst: dst,
		Props: map[string]any{"at": at, "note": note}}
}

func created(src, dst int64) catalog.EdgeRecord {
	return catalog.EdgeRecord{Label: "created", SrcLabel: "person", Src: src, DstLabel: "post", Dst: dst}
}

// Social returns a fresh copy of the fixture dataset.
func Social() *catalog.Dataset {
	return &catalog.Dataset{
		Schema: SocialSchema(),
		Vertices: []catalog.VertexRecord{
			person(1, "alice", 30, 4.5, 18000, 1),
			person(2, "bob", 25, 3.25, 18100, 2),
			person(3, "carol", 41, 5.0, 18200, 3),
			person(4, "dave", 19, 2.75, 18300, 4),
			post(100, "hello", 1000, 1700000000000, 120),
			post(101, "graphs", 42, 1700000500000, 2048),
		},
		Edges: []catalog.EdgeRecord{
			knows(1, 2, 2010, 0.5),
			knows(2, 3, 2015, 0.75),
			knows(3, 1, 2018, 1.0),
			knows(4, 1, 2020, 0.25),
			likes(1, 100, 3600000, "nice"),
			likes(2, 100, 7200000, ""),
			likes(3, 101, 60000, "+1"),
			created(1, 100),
			created(3, 101),
		},
	}
}

// SocialMaster places alice, bob and post 100 on partition 0 and carol,
// dave and post 101 on partition 1, so alice is mirrored on partition 1.
func SocialMaster(label string, oid int64, fnum int) int {
	if fnum < 2 {
		return 0
	}
	switch {
	case label == "person" && oid <= 2, label == "post" && oid == 100:
		return 0
	default:
		return 1
	}
}
