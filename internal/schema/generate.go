// Package schema converts between the contract object model and its
// canonical JSON Schema text.
package schema

import (
	"encoding/json"
	"strings"

	"contractcreator/internal/types"
	"contractcreator/internal/util/jsonutil"
)

// Generate builds the canonical contract object. Draft document types,
// properties and indices are skipped. The output depends only on the model.
func Generate(docs []types.DocumentType) *jsonutil.Object {
	root := jsonutil.NewObject()
	for i := range docs {
		d := &docs[i]
		if d.IsDraft() {
			continue
		}
		root.Set(d.Name, generateDocumentType(d))
	}
	return root
}

func generateDocumentType(d *types.DocumentType) *jsonutil.Object {
	out := jsonutil.NewObject().Set("type", "object")

	props := d.Ordered()
	if obj := generateProperties(props); obj.Len() > 0 {
		out.Set("properties", obj)
	}

	indices := make([]any, 0, len(d.Indices))
	for i := range d.Indices {
		if ix := &d.Indices[i]; !ix.IsDraft() {
			indices = append(indices, generateIndex(ix))
		}
	}
	if len(indices) > 0 {
		out.Set("indices", indices)
	}

	required := requiredNames(props)
	if d.CreatedAtRequired {
		required = append(required, types.SystemCreatedAt)
	}
	if d.UpdatedAtRequired {
		required = append(required, types.SystemUpdatedAt)
	}
	if len(required) > 0 {
		out.Set("required", required)
	}

	out.Set("additionalProperties", d.AdditionalProperties)

	if d.Description != "" {
		out.Set("description", d.Description)
	}
	if kw := SplitKeywords(d.Keywords); len(kw) > 0 {
		out.Set("keywords", kw)
	}
	if d.Comment != "" {
		out.Set("$comment", d.Comment)
	}
	return out
}

func generateIndex(ix *types.Index) *jsonutil.Object {
	fields := ix.NamedFields()
	list := make([]any, 0, len(fields))
	for _, f := range fields {
		list = append(list, jsonutil.NewObject().Set(f.Name, string(f.SortOrder)))
	}
	out := jsonutil.NewObject().
		Set("name", ix.Name).
		Set("properties", list)
	if ix.Unique {
		out.Set("unique", true)
	}
	return out
}

// generateProperties expects props already sorted by position.
func generateProperties(props []types.Property) *jsonutil.Object {
	out := jsonutil.NewObject()
	for i := range props {
		p := &props[i]
		if p.IsDraft() {
			continue
		}
		out.Set(p.Name, generateProperty(p))
	}
	return out
}

func generateProperty(p *types.Property) *jsonutil.Object {
	out := jsonutil.NewObject().
		Set("position", p.Position).
		Set("type", string(p.DataType))
	if p.Description != "" {
		out.Set("description", p.Description)
	}

	switch p.DataType {
	case types.DataTypeString:
		setInt(out, "minLength", p.MinLength)
		setInt(out, "maxLength", p.MaxLength)
		if p.Pattern != "" {
			out.Set("pattern", p.Pattern)
		}
		if p.Format != "" {
			out.Set("format", p.Format)
		}
	case types.DataTypeInteger, types.DataTypeNumber:
		setFloat(out, "minimum", p.Minimum)
		setFloat(out, "maximum", p.Maximum)
	case types.DataTypeArray:
		out.Set("byteArray", true)
		setInt(out, "minItems", p.MinItems)
		setInt(out, "maxItems", p.MaxItems)
		if p.ContentMediaType != "" {
			out.Set("contentMediaType", p.ContentMediaType)
		}
	case types.DataTypeObject:
		nested := p.Ordered()
		if obj := generateProperties(nested); obj.Len() > 0 {
			out.Set("properties", obj)
		}
		setInt(out, "minProperties", p.MinProperties)
		setInt(out, "maxProperties", p.MaxProperties)
		if req := requiredNames(nested); len(req) > 0 {
			out.Set("required", req)
		}
		if p.AdditionalProperties != nil {
			out.Set("additionalProperties", *p.AdditionalProperties)
		}
	}

	if p.Comment != "" {
		out.Set("$comment", p.Comment)
	}
	return out
}

func requiredNames(props []types.Property) []any {
	var out []any
	for i := range props {
		if p := &props[i]; p.Required && !p.IsDraft() {
			out = append(out, p.Name)
		}
	}
	return out
}

func setInt(o *jsonutil.Object, key string, v *int) {
	if v != nil {
		o.Set(key, *v)
	}
}

func setFloat(o *jsonutil.Object, key string, v *float64) {
	if v != nil {
		o.Set(key, json.Number(jsonutil.FormatFloat(*v)))
	}
}

// SplitKeywords splits a comma separated keyword list, trimming blanks and
// dropping empty entries.
func SplitKeywords(s string) []any {
	var out []any
	for _, part := range strings.Split(s, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
