package graph

import (
	"context"
	"strings"

	"github.com/goccy/go-json"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// LoadSchema returns the schema stored by Import. Databases filled by other
// tools have no schema node; their schema is discovered from labels,
// relationship types and sampled property values.
func LoadSchema(ctx context.Context, r Runner) (*catalog.Schema, bool, error) {
	recs, err := r.Read(ctx, getSchemaStmt())
	if err != nil {
		return nil, false, err
	}
	if len(recs) > 0 {
		var s catalog.Schema
		if err := json.Unmarshal([]byte(asString(recs[0]["json"])), &s); err != nil {
			return nil, false, grin.InvalidValuef("neo4j schema", "stored schema is not valid: %v", err)
		}
		return &s, false, s.Validate()
	}
	s, err := discoverSchema(ctx, r)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func discoverSchema(ctx context.Context, r Runner) (*catalog.Schema, error) {
	s := &catalog.Schema{}

	recs, err := r.Read(ctx, labelsStmt())
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		label := asString(rec["label"])
		if checkName("vertex type", label) != nil {
			continue
		}
		props, err := sampleProps(ctx, r, labelKeysStmt(label))
		if err != nil {
			return nil, err
		}
		s.VertexTypes = append(s.VertexTypes, catalog.VertexTypeDef{Name: label, Properties: props})
	}

	recs, err = r.Read(ctx, relationshipTypesStmt())
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		typ := asString(rec["type"])
		if checkName("edge type", typ) != nil {
			continue
		}
		ends, err := r.Read(ctx, typeEndsStmt(typ))
		if err != nil {
			return nil, err
		}
		et := catalog.EdgeTypeDef{Name: typ}
		for _, end := range ends {
			src, dst := asString(end["src"]), asString(end["dst"])
			if s.VertexTypeIndex(src) < 0 || s.VertexTypeIndex(dst) < 0 {
				continue
			}
			et.Relations = append(et.Relations, catalog.Relation{Src: src, Dst: dst})
		}
		if len(et.Relations) == 0 {
			continue
		}
		if et.Properties, err = sampleProps(ctx, r, typeKeysStmt(typ)); err != nil {
			return nil, err
		}
		s.EdgeTypes = append(s.EdgeTypes, et)
	}
	return s, s.Validate()
}

// sampleProps infers one property per key from a sampled value. Keys whose
// sample has no scalar datatype are skipped.
func sampleProps(ctx context.Context, r Runner, st Statement) ([]catalog.PropDef, error) {
	recs, err := r.Read(ctx, st)
	if err != nil {
		return nil, err
	}
	var props []catalog.PropDef
	for _, rec := range recs {
		key := asString(rec["key"])
		if key == "" || strings.HasPrefix(key, "__") {
			continue
		}
		dt := inferDatatype(rec["sample"])
		if dt == grin.Undefined {
			continue
		}
		props = append(props, catalog.PropDef{Name: key, Type: dt})
	}
	return props, nil
}

func inferDatatype(x any) grin.Datatype {
	switch x.(type) {
	case int64, int:
		return grin.Int64
	case float64:
		return grin.Double
	case string:
		return grin.String
	default:
		return grin.Undefined
	}
}
