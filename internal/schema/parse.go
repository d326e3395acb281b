package schema

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"contractcreator/internal/types"
	"contractcreator/internal/util/jsonutil"
)

// Parse reads contract JSON into document types, in source key order.
// On failure the returned error is a *ParseError.
func Parse(text string) ([]types.DocumentType, error) {
	v, err := jsonutil.DecodeOrdered([]byte(text))
	if err != nil {
		return nil, malformed("invalid JSON", err)
	}
	return ParseValue(v)
}

// ParseYAML accepts the same contract written as YAML.
func ParseYAML(text string) ([]types.DocumentType, error) {
	v, err := jsonutil.DecodeYAML([]byte(text))
	if err != nil {
		return nil, malformed("invalid YAML", err)
	}
	return ParseValue(v)
}

// ParseValue parses an already decoded ordered value.
func ParseValue(v any) ([]types.DocumentType, error) {
	root, ok := v.(*jsonutil.Object)
	if !ok {
		return nil, malformed("Root level must be an object", nil)
	}
	docs := make([]types.DocumentType, 0, root.Len())
	for _, name := range root.Keys() {
		raw, _ := root.Get(name)
		p := &docParser{doc: name}
		d, err := p.documentType(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

type docParser struct {
	doc string
}

func (p *docParser) fail(kind ErrorKind, prop string, detail string) *ParseError {
	return &ParseError{Kind: kind, DocumentType: p.doc, Property: prop, Index: -1, Detail: detail}
}

func (p *docParser) failIndex(kind ErrorKind, i int, detail string) *ParseError {
	return &ParseError{Kind: kind, DocumentType: p.doc, Index: i, Detail: detail}
}

func (p *docParser) documentType(raw any) (types.DocumentType, error) {
	obj, ok := raw.(*jsonutil.Object)
	if !ok {
		return types.DocumentType{}, p.fail(KindInvalidDocumentType, "", "definition must be an object")
	}
	d := types.DocumentType{Name: p.doc}

	if v, ok := obj.Get("properties"); ok {
		props, err := p.properties(v, "")
		if err != nil {
			return types.DocumentType{}, err
		}
		d.Properties = props
	}

	if v, ok := obj.Get("indices"); ok {
		list, ok := v.([]any)
		if !ok {
			return types.DocumentType{}, p.fail(KindInvalidIndex, "", "indices must be an array")
		}
		for i, raw := range list {
			ix, err := p.index(i, raw)
			if err != nil {
				return types.DocumentType{}, err
			}
			d.Indices = append(d.Indices, ix)
		}
	}

	if v, ok := obj.Get("required"); ok {
		req, err := p.stringList(v, "")
		if err != nil {
			return types.DocumentType{}, err
		}
		d.Required = req
	}

	if v, ok := obj.Get("additionalProperties"); ok {
		d.AdditionalProperties, _ = v.(bool)
	}
	d.Description = stringField(obj, "description")
	if v, ok := obj.Get("keywords"); ok {
		if list, ok := v.([]any); ok {
			kws := make([]string, 0, len(list))
			for _, e := range list {
				if s, ok := e.(string); ok {
					kws = append(kws, s)
				}
			}
			d.Keywords = strings.Join(kws, ", ")
		}
	}
	d.Comment = stringField(obj, "$comment")

	d.SyncRequired()
	return d, nil
}

// properties parses a "properties" map. Keys starting with "$" are system
// entries and skipped. The result is sorted by position.
func (p *docParser) properties(raw any, parent string) ([]types.Property, error) {
	obj, ok := raw.(*jsonutil.Object)
	if !ok {
		return nil, p.fail(KindInvalidProperty, parent, "properties must be an object")
	}
	out := make([]types.Property, 0, obj.Len())
	for _, name := range obj.Keys() {
		if strings.HasPrefix(name, "$") {
			continue
		}
		v, _ := obj.Get(name)
		prop, err := p.property(name, joinPath(parent, name), v, len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, prop)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (p *docParser) property(name, path string, raw any, declared int) (types.Property, error) {
	obj, ok := raw.(*jsonutil.Object)
	if !ok {
		return types.Property{}, p.fail(KindInvalidProperty, path, "definition must be an object")
	}
	prop := types.Property{Name: name, Position: declared}

	if v, ok := obj.Get("position"); ok {
		pos, ok := nonNegativeInt(v)
		if !ok {
			return types.Property{}, p.fail(KindInvalidProperty, path, "position must be a non-negative integer")
		}
		prop.Position = pos
	}

	// A property without a type is read as a string.
	ts := string(types.DataTypeString)
	if tv, ok := obj.Get("type"); ok {
		if ts, ok = tv.(string); !ok {
			return types.Property{}, p.fail(KindInvalidProperty, path, "type must be a string")
		}
	}
	dt, ok := types.ParseDataType(ts)
	if !ok {
		e := p.fail(KindUnknownType, path, ts)
		return types.Property{}, e
	}
	prop.DataType = dt
	prop.Description = stringField(obj, "description")
	prop.Comment = stringField(obj, "$comment")

	switch dt {
	case types.DataTypeString:
		prop.MinLength = intField(obj, "minLength")
		prop.MaxLength = intField(obj, "maxLength")
		prop.Pattern = stringField(obj, "pattern")
		prop.Format = stringField(obj, "format")
	case types.DataTypeInteger, types.DataTypeNumber:
		prop.Minimum = floatField(obj, "minimum")
		prop.Maximum = floatField(obj, "maximum")
	case types.DataTypeArray:
		prop.ByteArray = true
		prop.MinItems = intField(obj, "minItems")
		prop.MaxItems = intField(obj, "maxItems")
		prop.ContentMediaType = stringField(obj, "contentMediaType")
	case types.DataTypeObject:
		if v, ok := obj.Get("properties"); ok {
			nested, err := p.properties(v, path)
			if err != nil {
				return types.Property{}, err
			}
			prop.Properties = nested
		}
		prop.MinProperties = intField(obj, "minProperties")
		prop.MaxProperties = intField(obj, "maxProperties")
		if v, ok := obj.Get("required"); ok {
			req, err := p.stringList(v, path)
			if err != nil {
				return types.Property{}, err
			}
			prop.RecRequired = req
		}
		if v, ok := obj.Get("additionalProperties"); ok {
			if b, ok := v.(bool); ok {
				prop.AdditionalProperties = &b
			}
		}
	}
	return prop, nil
}

func (p *docParser) index(i int, raw any) (types.Index, error) {
	obj, ok := raw.(*jsonutil.Object)
	if !ok {
		return types.Index{}, p.failIndex(KindInvalidIndex, i, "index must be an object")
	}
	nv, ok := obj.Get("name")
	name, isStr := nv.(string)
	if !ok || !isStr {
		return types.Index{}, p.failIndex(KindInvalidIndex, i, "index name must be a string")
	}
	ix := types.Index{Name: name}
	if v, ok := obj.Get("unique"); ok {
		ix.Unique, _ = v.(bool)
	}
	if v, ok := obj.Get("properties"); ok {
		list, ok := v.([]any)
		if !ok {
			return types.Index{}, p.failIndex(KindInvalidIndex, i, "index properties must be an array")
		}
		for _, entry := range list {
			f, err := p.indexField(i, entry)
			if err != nil {
				return types.Index{}, err
			}
			ix.Fields = append(ix.Fields, f)
		}
	}
	return ix, nil
}

func (p *docParser) indexField(i int, raw any) (types.IndexField, error) {
	obj, ok := raw.(*jsonutil.Object)
	if !ok || obj.Len() != 1 {
		return types.IndexField{}, p.failIndex(KindInvalidIndexField, i, "index property must be an object with exactly one field")
	}
	field := obj.Keys()[0]
	v, _ := obj.Get(field)
	order, ok := v.(string)
	if !ok {
		return types.IndexField{}, p.failIndex(KindInvalidIndexField, i, "sort order of '"+field+"' must be a string")
	}
	f, err := types.NewIndexField(field, order)
	if err != nil {
		e := p.failIndex(KindInvalidIndexField, i, "sort order '"+order+"' of '"+field+"' is not supported")
		e.Err = types.ErrUnsupportedSortOrder
		return types.IndexField{}, e
	}
	return f, nil
}

func (p *docParser) stringList(raw any, prop string) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, p.fail(KindInvalidRequired, prop, "required must be an array")
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, p.fail(KindInvalidRequired, prop, "required entries must be strings")
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func stringField(obj *jsonutil.Object, key string) string {
	v, _ := obj.Get(key)
	s, _ := v.(string)
	return s
}

// intField reads an optional non-negative integer; anything else is ignored.
func intField(obj *jsonutil.Object, key string) *int {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	n, ok := nonNegativeInt(v)
	if !ok {
		return nil
	}
	return &n
}

func floatField(obj *jsonutil.Object, key string) *float64 {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func nonNegativeInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
