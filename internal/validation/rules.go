package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"contractcreator/internal/types"
	"contractcreator/internal/util/jsonutil"
)

// RulesValidator checks a contract locally: a dialect meta-schema for the
// overall shape, then the protocol rules the editor knows about. It covers a
// subset of what the protocol validator enforces.
type RulesValidator struct {
	meta *jsonschema.Resolved
}

func NewRulesValidator() (*RulesValidator, error) {
	resolved, err := dialectSchema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve dialect schema: %w", err)
	}
	return &RulesValidator{meta: resolved}, nil
}

func (v *RulesValidator) Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ordered, err := jsonutil.DecodeOrdered([]byte(contractJSON))
	if err != nil {
		return []types.StructuredError{{Message: "invalid JSON: " + err.Error(), Category: types.CategoryParse}}, nil
	}

	var findings []types.StructuredError
	var plain any
	if err := gojson.Unmarshal([]byte(contractJSON), &plain); err != nil {
		return nil, fmt.Errorf("decode contract: %w", err)
	}
	if err := v.meta.Validate(plain); err != nil {
		findings = append(findings, types.StructuredError{Message: err.Error(), Category: types.CategoryJSONSchema})
	}

	root, ok := ordered.(*jsonutil.Object)
	if !ok {
		return findings, nil
	}
	if root.Len() == 0 {
		findings = append(findings, EmptyContract)
	}
	for _, name := range root.Keys() {
		raw, _ := root.Get(name)
		if doc, ok := raw.(*jsonutil.Object); ok {
			findings = append(findings, checkDocumentType(name, doc)...)
		}
	}
	return findings, nil
}

func checkDocumentType(name string, doc *jsonutil.Object) []types.StructuredError {
	var out []types.StructuredError
	base := "/" + name
	add := func(category types.ErrorCategory, path, format string, args ...any) {
		out = append(out, types.StructuredError{Path: path, Message: fmt.Sprintf(format, args...), Category: category})
	}

	props, _ := get[*jsonutil.Object](doc, "properties")
	if props.Len() == 0 {
		add(types.CategoryProtocol, base, "document type must define at least one property")
	}
	if ap, ok := get[bool](doc, "additionalProperties"); !ok || ap {
		add(types.CategoryProtocol, base, `"additionalProperties" must be false`)
	}
	out = append(out, checkProperties(base+"/properties", props)...)

	if req, ok := get[[]any](doc, "required"); ok {
		for _, r := range req {
			s, _ := r.(string)
			if s == types.SystemCreatedAt || s == types.SystemUpdatedAt {
				continue
			}
			if _, ok := props.Get(s); !ok {
				add(types.CategoryProtocol, base+"/required", "required property %q is not defined", s)
			}
		}
	}

	indices, _ := get[[]any](doc, "indices")
	seen := map[string]bool{}
	for i, raw := range indices {
		path := base + "/indices/" + strconv.Itoa(i)
		ix, ok := raw.(*jsonutil.Object)
		if !ok {
			continue
		}
		ixName, _ := get[string](ix, "name")
		if ixName == "" {
			add(types.CategoryProtocol, path, "index name must not be empty")
		} else if seen[ixName] {
			add(types.CategoryProtocol, path, "duplicate index name %q", ixName)
		}
		seen[ixName] = true

		fields, _ := get[[]any](ix, "properties")
		if len(fields) == 0 {
			add(types.CategoryProtocol, path, "index must reference at least one property")
		}
		for _, f := range fields {
			fo, ok := f.(*jsonutil.Object)
			if !ok || fo.Len() != 1 {
				add(types.CategoryJSONSchema, path, "index property must have exactly one field")
				continue
			}
			field := fo.Keys()[0]
			if types.IsSystemProperty(field) {
				continue
			}
			def, ok := get[*jsonutil.Object](props, field)
			if !ok {
				add(types.CategoryProtocol, path, "indexed property %q is not defined", field)
				continue
			}
			out = append(out, checkIndexedProperty(path, field, def)...)
		}
	}
	return out
}

func checkIndexedProperty(path, field string, def *jsonutil.Object) []types.StructuredError {
	var out []types.StructuredError
	typ, _ := get[string](def, "type")
	switch typ {
	case string(types.DataTypeString):
		if n, ok := number(def, "maxLength"); !ok || n > types.MaxIndexedStringLength {
			out = append(out, types.StructuredError{
				Path:     path,
				Message:  fmt.Sprintf("indexed string property %q must set maxLength <= %d", field, types.MaxIndexedStringLength),
				Category: types.CategoryProtocol,
			})
		}
	case string(types.DataTypeArray):
		if n, ok := number(def, "maxItems"); !ok || n > types.MaxIndexedArrayItems {
			out = append(out, types.StructuredError{
				Path:     path,
				Message:  fmt.Sprintf("indexed array property %q must set maxItems <= %d", field, types.MaxIndexedArrayItems),
				Category: types.CategoryProtocol,
			})
		}
	case string(types.DataTypeObject):
		out = append(out, types.StructuredError{
			Path:     path,
			Message:  fmt.Sprintf("object property %q cannot be indexed", field),
			Category: types.CategoryProtocol,
		})
	}
	return out
}

var rangePairs = [][2]string{
	{"minLength", "maxLength"},
	{"minimum", "maximum"},
	{"minItems", "maxItems"},
	{"minProperties", "maxProperties"},
}

func checkProperties(base string, props *jsonutil.Object) []types.StructuredError {
	var out []types.StructuredError
	positions := map[float64][]string{}
	for _, name := range props.Keys() {
		raw, _ := props.Get(name)
		def, ok := raw.(*jsonutil.Object)
		if !ok {
			continue
		}
		path := base + "/" + name
		add := func(category types.ErrorCategory, format string, args ...any) {
			out = append(out, types.StructuredError{Path: path, Message: fmt.Sprintf(format, args...), Category: category})
		}
		if pos, ok := number(def, "position"); ok {
			positions[pos] = append(positions[pos], name)
		}
		for _, pair := range rangePairs {
			lo, okLo := number(def, pair[0])
			hi, okHi := number(def, pair[1])
			if okLo && okHi && lo > hi {
				add(types.CategoryProtocol, "%s must not be greater than %s", pair[0], pair[1])
			}
		}

		typ, _ := get[string](def, "type")
		switch typ {
		case string(types.DataTypeString):
			if f, ok := get[string](def, "format"); ok && !types.IsStringFormat(f) {
				add(types.CategoryProtocol, "unsupported string format %q", f)
			}
		case string(types.DataTypeArray):
			if b, _ := get[bool](def, "byteArray"); !b {
				if _, hasItems := def.Get("items"); !hasItems {
					add(types.CategoryJSONSchema, itemsRequiredFragment)
				}
			}
			if n, ok := number(def, "maxItems"); ok && n > types.MaxIndexedArrayItems {
				add(types.CategoryProtocol, "maxItems must not exceed %d", types.MaxIndexedArrayItems)
			}
		case string(types.DataTypeObject):
			nested, _ := get[*jsonutil.Object](def, "properties")
			if nested.Len() == 0 {
				add(types.CategoryProtocol, "object property must define at least one nested property")
			}
			out = append(out, checkProperties(path+"/properties", nested)...)
		}
	}

	dups := make([]float64, 0)
	for pos, names := range positions {
		if len(names) > 1 {
			dups = append(dups, pos)
		}
	}
	sort.Float64s(dups)
	for _, pos := range dups {
		out = append(out, types.StructuredError{
			Path:     base,
			Message:  fmt.Sprintf("position %s is used by %v", jsonutil.FormatFloat(pos), positions[pos]),
			Category: types.CategoryProtocol,
		})
	}
	return out
}

func get[T any](obj *jsonutil.Object, key string) (T, bool) {
	var zero T
	v, ok := obj.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func number(obj *jsonutil.Object, key string) (float64, bool) {
	n, ok := get[json.Number](obj, key)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func ptr[T any](v T) *T { return &v }

// dialectSchema describes the overall shape of a data contract.
func dialectSchema() *jsonschema.Schema {
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
	nonNegative := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "integer", Minimum: ptr(0.0)} }
	stringList := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "array", Items: str()} }
	propertyRef := func() *jsonschema.Schema { return &jsonschema.Schema{Ref: "#/$defs/property"} }

	typeEnum := make([]any, 0, len(types.DataTypes))
	for _, dt := range types.DataTypes {
		typeEnum = append(typeEnum, string(dt))
	}

	property := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"type"},
		Properties: map[string]*jsonschema.Schema{
			"type":                 {Type: "string", Enum: typeEnum},
			"position":             nonNegative(),
			"description":          str(),
			"minLength":            nonNegative(),
			"maxLength":            nonNegative(),
			"pattern":              str(),
			"format":               str(),
			"minimum":              {Type: "number"},
			"maximum":              {Type: "number"},
			"byteArray":            {Type: "boolean"},
			"minItems":             nonNegative(),
			"maxItems":             nonNegative(),
			"contentMediaType":     str(),
			"properties":           {Type: "object", AdditionalProperties: propertyRef()},
			"minProperties":        nonNegative(),
			"maxProperties":        nonNegative(),
			"required":             stringList(),
			"additionalProperties": {Type: "boolean"},
			"$comment":             str(),
		},
	}

	index := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "properties"},
		Properties: map[string]*jsonschema.Schema{
			"name": str(),
			"properties": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "object", AdditionalProperties: str()},
			},
			"unique": {Type: "boolean"},
		},
	}

	documentType := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"type", "properties"},
		Properties: map[string]*jsonschema.Schema{
			"type":                 {Type: "string", Enum: []any{"object"}},
			"properties":           {Type: "object", AdditionalProperties: propertyRef()},
			"indices":              {Type: "array", Items: index},
			"required":             stringList(),
			"additionalProperties": {Type: "boolean"},
			"description":          str(),
			"keywords":             stringList(),
			"$comment":             str(),
		},
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Defs:                 map[string]*jsonschema.Schema{"property": property},
		AdditionalProperties: documentType,
	}
}
