package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"grinkit/internal/grin"
)

// GART schema documents, as published under <prefix>gart_schema_p<p>.

type gartProp struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

type gartRelation struct {
	SrcVertexLabel string `json:"srcVertexLabel"`
	DstVertexLabel string `json:"dstVertexLabel"`
}

type gartType struct {
	Type             string         `json:"type"`
	ID               int            `json:"id"`
	Label            string         `json:"label"`
	PropertyDefList  []gartProp     `json:"propertyDefList"`
	RawRelationShips []gartRelation `json:"rawRelationShips,omitempty"`
}

type gartSchema struct {
	Types []gartType `json:"types"`
}

// gartDatatype follows the GART loader: dates and datetimes are kept as
// their string form.
func gartDatatype(s string) (grin.Datatype, error) {
	switch strings.ToUpper(s) {
	case "INT":
		return grin.Int32, nil
	case "LONG":
		return grin.Int64, nil
	case "FLOAT":
		return grin.Float, nil
	case "DOUBLE":
		return grin.Double, nil
	case "STRING", "TEXT", "LONGSTRING", "DATE", "DATETIME":
		return grin.String, nil
	}
	return grin.ParseDatatype(s)
}

func gartName(dt grin.Datatype) string {
	switch dt {
	case grin.Int32:
		return "INT"
	case grin.Int64:
		return "LONG"
	case grin.Float:
		return "FLOAT"
	case grin.Double:
		return "DOUBLE"
	case grin.String:
		return "STRING"
	default:
		return dt.String()
	}
}

// ParseGARTSchema reads a GART schema document. Types are ordered by id
// within their kind; each edge type keeps every raw relationship.
func ParseGARTSchema(b []byte) (*Schema, error) {
	var doc gartSchema
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode gart schema: %w", err)
	}
	var vertices, edges []gartType
	for _, t := range doc.Types {
		switch strings.ToUpper(t.Type) {
		case "VERTEX":
			vertices = append(vertices, t)
		case "EDGE":
			edges = append(edges, t)
		default:
			return nil, grin.InvalidValuef("gart schema", "type %q has unknown kind %q", t.Label, t.Type)
		}
	}
	sort.SliceStable(vertices, func(i, j int) bool { return vertices[i].ID < vertices[j].ID })
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	s := &Schema{}
	for _, t := range vertices {
		props, err := gartProps(t)
		if err != nil {
			return nil, err
		}
		s.VertexTypes = append(s.VertexTypes, VertexTypeDef{Name: t.Label, Properties: props})
	}
	for _, t := range edges {
		props, err := gartProps(t)
		if err != nil {
			return nil, err
		}
		et := EdgeTypeDef{Name: t.Label, Properties: props}
		for _, r := range t.RawRelationShips {
			et.Relations = append(et.Relations, Relation{Src: r.SrcVertexLabel, Dst: r.DstVertexLabel})
		}
		s.EdgeTypes = append(s.EdgeTypes, et)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func gartProps(t gartType) ([]PropDef, error) {
	var props []PropDef
	for _, p := range t.PropertyDefList {
		dt, err := gartDatatype(p.DataType)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Label, p.Name, err)
		}
		props = append(props, PropDef{Name: p.Name, Type: dt})
	}
	return props, nil
}

// MarshalGART renders s as a GART schema document. Vertex types take ids
// 0..n-1 and edge types continue from n.
func (s *Schema) MarshalGART() ([]byte, error) {
	doc := gartSchema{}
	for i, vt := range s.VertexTypes {
		doc.Types = append(doc.Types, gartType{
			Type:            "VERTEX",
			ID:              i,
			Label:           vt.Name,
			PropertyDefList: toGARTProps(vt.Properties),
		})
	}
	for i, et := range s.EdgeTypes {
		t := gartType{
			Type:            "EDGE",
			ID:              len(s.VertexTypes) + i,
			Label:           et.Name,
			PropertyDefList: toGARTProps(et.Properties),
		}
		for _, r := range et.Relations {
			t.RawRelationShips = append(t.RawRelationShips, gartRelation{SrcVertexLabel: r.Src, DstVertexLabel: r.Dst})
		}
		doc.Types = append(doc.Types, t)
	}
	return json.Marshal(doc)
}

func toGARTProps(props []PropDef) []gartProp {
	out := make([]gartProp, 0, len(props))
	for i, p := range props {
		out = append(out, gartProp{ID: i + 1, Name: p.Name, DataType: gartName(p.Type)})
	}
	return out
}
