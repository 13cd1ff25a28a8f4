package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"grinkit/internal/grin"
)

// VertexRecord is one vertex as loaded from a dataset.
type VertexRecord struct {
	Label string         `json:"label"`
	ID    int64          `json:"id"`
	Props map[string]any `json:"props,omitempty"`
}

// EdgeRecord is one edge; endpoints are (label, original id) pairs.
type EdgeRecord struct {
	Label    string         `json:"label"`
	SrcLabel string         `json:"src_label"`
	Src      int64          `json:"src"`
	DstLabel string         `json:"dst_label"`
	Dst      int64          `json:"dst"`
	Props    map[string]any `json:"props,omitempty"`
}

// Dataset is a complete graph: schema plus records.
type Dataset struct {
	Schema   Schema         `json:"schema"`
	Vertices []VertexRecord `json:"vertices"`
	Edges    []EdgeRecord   `json:"edges"`
}

// VertexKey identifies a vertex by type and original id.
type VertexKey struct {
	Label string
	ID    int64
}

// Validate checks the schema, id uniqueness and edge endpoints.
func (d *Dataset) Validate() error {
	if err := d.Schema.Validate(); err != nil {
		return err
	}
	ids := make(map[VertexKey]bool, len(d.Vertices))
	for _, v := range d.Vertices {
		if d.Schema.VertexTypeIndex(v.Label) < 0 {
			return grin.InvalidValuef("dataset", "vertex %d has unknown type %q", v.ID, v.Label)
		}
		k := VertexKey{v.Label, v.ID}
		if ids[k] {
			return grin.InvalidValuef("dataset", "duplicate vertex %s/%d", v.Label, v.ID)
		}
		ids[k] = true
	}
	for i, e := range d.Edges {
		ei := d.Schema.EdgeTypeIndex(e.Label)
		if ei < 0 {
			return grin.InvalidValuef("dataset", "edge %d has unknown type %q", i, e.Label)
		}
		if !d.Schema.EdgeTypes[ei].Allows(e.SrcLabel, e.DstLabel) {
			return grin.InvalidValuef("dataset", "edge type %q does not relate %q -> %q", e.Label, e.SrcLabel, e.DstLabel)
		}
		if !ids[VertexKey{e.SrcLabel, e.Src}] || !ids[VertexKey{e.DstLabel, e.Dst}] {
			return grin.InvalidValuef("dataset", "edge %d (%s) has a missing endpoint", i, e.Label)
		}
	}
	return nil
}

// Allows reports whether et has a relation from src to dst.
func (et *EdgeTypeDef) Allows(src, dst string) bool {
	for _, r := range et.Relations {
		if r.Src == src && r.Dst == dst {
			return true
		}
	}
	return false
}

// DecodeDataset reads a JSON dataset. Numbers keep full int64 precision.
func DecodeDataset(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var d Dataset
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseDataset decodes a dataset held in memory.
func ParseDataset(b []byte) (*Dataset, error) {
	return DecodeDataset(bytes.NewReader(b))
}

// LoadDataset reads a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return DecodeDataset(f)
}

// Encode writes d as JSON.
func (d *Dataset) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(d)
}
