package memory

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"grinkit/internal/catalog"
)

// FragmentData is the portable form of one partition: its master vertices
// in offset order, the outer vertices it references and every edge with
// at least one master endpoint.
type FragmentData struct {
	Fnum   int                  `json:"fnum"`
	Fid    int                  `json:"fid"`
	Schema catalog.Schema       `json:"schema"`
	Inner  []InnerVertex        `json:"inner"`
	Outer  []OuterVertex        `json:"outer,omitempty"`
	Edges  []catalog.EdgeRecord `json:"edges"`
}

// InnerVertex is a vertex mastered by the fragment. Mirrors lists the
// partitions holding a mirror of it.
type InnerVertex struct {
	catalog.VertexRecord
	Mirrors []int `json:"mirrors,omitempty"`
}

// OuterVertex references a vertex mastered by partition Master at Offset.
type OuterVertex struct {
	Label  string `json:"label"`
	ID     int64  `json:"id"`
	Master int    `json:"master"`
	Offset int64  `json:"offset"`
}

// MarshalFragment encodes d as JSON.
func MarshalFragment(d *FragmentData) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return b, nil
}

// UnmarshalFragment decodes a fragment produced by MarshalFragment.
func UnmarshalFragment(b []byte) (*FragmentData, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var d FragmentData
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode fragment: %w", err)
	}
	return &d, nil
}

// LoadFragment builds a local graph from its portable form.
func LoadFragment(b []byte, opts ...Option) (*Fragment, error) {
	d, err := UnmarshalFragment(b)
	if err != nil {
		return nil, err
	}
	return NewFragment(d, opts...)
}

// Dump returns the portable form the fragment was built from.
func (f *Fragment) Dump() *FragmentData { return f.data }
