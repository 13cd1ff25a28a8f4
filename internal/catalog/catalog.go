// Package catalog describes graph schemas and the records loaded into the
// storage engines.
//
// Notes:
//   - Type and property order is significant: it defines natural ids and
//     slot numbers in every engine.
//   - Vertex ids (original ids) are int64 and unique per vertex type.
package catalog

import (
	"fmt"

	"grinkit/internal/grin"
)

// PropDef is one property of a vertex or edge type.
type PropDef struct {
	Name string        `json:"name"`
	Type grin.Datatype `json:"type"`
}

// Relation is one (source type, destination type) pair an edge type
// connects.
type Relation struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// VertexTypeDef declares a vertex type.
type VertexTypeDef struct {
	Name       string    `json:"name"`
	Properties []PropDef `json:"properties,omitempty"`
}

// EdgeTypeDef declares an edge type and the vertex type pairs it connects.
type EdgeTypeDef struct {
	Name       string     `json:"name"`
	Properties []PropDef  `json:"properties,omitempty"`
	Relations  []Relation `json:"relations"`
}

// Schema is the ordered set of vertex and edge types.
type Schema struct {
	VertexTypes []VertexTypeDef `json:"vertex_types"`
	EdgeTypes   []EdgeTypeDef   `json:"edge_types"`
}

// VertexTypeIndex returns the position of the vertex type called name, or -1.
func (s *Schema) VertexTypeIndex(name string) int {
	for i := range s.VertexTypes {
		if s.VertexTypes[i].Name == name {
			return i
		}
	}
	return -1
}

// EdgeTypeIndex returns the position of the edge type called name, or -1.
func (s *Schema) EdgeTypeIndex(name string) int {
	for i := range s.EdgeTypes {
		if s.EdgeTypes[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks names are unique and relations reference known types.
func (s *Schema) Validate() error {
	seen := make(map[string]bool)
	for _, vt := range s.VertexTypes {
		if vt.Name == "" {
			return grin.InvalidValuef("schema", "vertex type without a name")
		}
		if seen[vt.Name] {
			return grin.InvalidValuef("schema", "duplicate vertex type %q", vt.Name)
		}
		seen[vt.Name] = true
		if err := validateProps(vt.Name, vt.Properties); err != nil {
			return err
		}
	}
	if len(s.VertexTypes) > MaxVertexTypes {
		return grin.InvalidValuef("schema", "%d vertex types exceed the limit of %d", len(s.VertexTypes), MaxVertexTypes)
	}
	edges := make(map[string]bool)
	for _, et := range s.EdgeTypes {
		if et.Name == "" {
			return grin.InvalidValuef("schema", "edge type without a name")
		}
		if edges[et.Name] {
			return grin.InvalidValuef("schema", "duplicate edge type %q", et.Name)
		}
		edges[et.Name] = true
		if len(et.Relations) == 0 {
			return grin.InvalidValuef("schema", "edge type %q has no relations", et.Name)
		}
		for _, r := range et.Relations {
			if !seen[r.Src] || !seen[r.Dst] {
				return grin.InvalidValuef("schema", "edge type %q relates unknown types %q -> %q", et.Name, r.Src, r.Dst)
			}
		}
		if err := validateProps(et.Name, et.Properties); err != nil {
			return err
		}
	}
	return nil
}

// MaxVertexTypes is the number of vertex labels a 64-bit vertex id can
// address.
const MaxVertexTypes = 30

func validateProps(owner string, props []PropDef) error {
	names := make(map[string]bool, len(props))
	for _, p := range props {
		if p.Name == "" {
			return grin.InvalidValuef("schema", "type %q has a property without a name", owner)
		}
		if names[p.Name] {
			return grin.InvalidValuef("schema", "type %q repeats property %q", owner, p.Name)
		}
		names[p.Name] = true
		if p.Type == grin.Undefined || !p.Type.Valid() {
			return grin.UnknownDatatypef("schema", "property %s.%s has no datatype", owner, p.Name)
		}
	}
	return nil
}

// Values orders props by defs, converting each to its declared datatype.
// Missing properties become the zero value of their type.
func Values(defs []PropDef, props map[string]any) ([]grin.Value, error) {
	out := make([]grin.Value, len(defs))
	for i, d := range defs {
		v, err := grin.ValueOf(d.Type, props[d.Name])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", d.Name, err)
		}
		out[i] = v
	}
	return out, nil
}
