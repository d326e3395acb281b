package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractcreator/internal/types"
)

func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }
func boolp(b bool) *bool        { return &b }

func canonical(t *testing.T, docs []types.DocumentType) string {
	t.Helper()
	out, err := Canonical(docs)
	require.NoError(t, err)
	return out
}

func TestGenerate_SingleRequiredProperty(t *testing.T) {
	d := types.DocumentType{Name: "note"}
	d.AddProperty()
	d.Properties[0].Name = "message"
	require.NoError(t, d.SetRequiredAt([]int{0}, true))

	assert.Equal(t,
		`{"note":{"type":"object","properties":{"message":{"position":0,"type":"string"}},"required":["message"],"additionalProperties":false}}`,
		canonical(t, []types.DocumentType{d}))
}

func TestGenerate_EmptyModel(t *testing.T) {
	assert.Equal(t, `{}`, canonical(t, nil))
	assert.Equal(t, `{}`, canonical(t, []types.DocumentType{types.NewDocumentType()}))
}

func TestGenerate_SkipsDrafts(t *testing.T) {
	d := types.DocumentType{Name: "doc"}
	d.AddProperty()
	d.AddIndex()
	d.Indices[0].Name = "noFields"
	d.AddIndex()
	d.Indices[1].AddField("")
	assert.Equal(t, `{"doc":{"type":"object","additionalProperties":false}}`,
		canonical(t, []types.DocumentType{d}))
}

func TestGenerate_FieldOrderAndTypes(t *testing.T) {
	d := types.DocumentType{
		Name:                 "profile",
		AdditionalProperties: false,
		Description:          "A profile",
		Keywords:             " social, ,profile ,",
		Comment:              "v1",
		CreatedAtRequired:    true,
		UpdatedAtRequired:    true,
		Properties: []types.Property{
			{Name: "tags", DataType: types.DataTypeArray, Position: 2, ByteArray: true, MaxItems: intp(32), ContentMediaType: "application/x.dash.dpp.identifier"},
			{Name: "name", DataType: types.DataTypeString, Position: 0, Required: true, MinLength: intp(1), MaxLength: intp(63), Pattern: "^[a-z]+$", Format: "email", Description: "display name"},
			{Name: "age", DataType: types.DataTypeInteger, Position: 1, Minimum: floatp(0), Maximum: floatp(150.5)},
			{Name: "meta", DataType: types.DataTypeObject, Position: 3, MinProperties: intp(1), AdditionalProperties: boolp(false), Comment: "nested",
				Properties: []types.Property{
					{Name: "b", DataType: types.DataTypeBoolean, Position: 1},
					{Name: "a", DataType: types.DataTypeNumber, Position: 0, Required: true},
				}},
		},
		Indices: []types.Index{
			{Name: "byName", Unique: true, Fields: []types.IndexField{{Name: "name", SortOrder: types.SortAsc}, {Name: ""}}},
			{Name: "byAge", Fields: []types.IndexField{{Name: "age", SortOrder: types.SortAsc}}},
		},
	}

	want := `{"profile":{"type":"object","properties":{` +
		`"name":{"position":0,"type":"string","description":"display name","minLength":1,"maxLength":63,"pattern":"^[a-z]+$","format":"email"},` +
		`"age":{"position":1,"type":"integer","minimum":0,"maximum":150.5},` +
		`"tags":{"position":2,"type":"array","byteArray":true,"maxItems":32,"contentMediaType":"application/x.dash.dpp.identifier"},` +
		`"meta":{"position":3,"type":"object","properties":{"a":{"position":0,"type":"number"},"b":{"position":1,"type":"boolean"}},"minProperties":1,"required":["a"],"additionalProperties":false,"$comment":"nested"}},` +
		`"indices":[{"name":"byName","properties":[{"name":"asc"}],"unique":true},{"name":"byAge","properties":[{"age":"asc"}]}],` +
		`"required":["name","$createdAt","$updatedAt"],"additionalProperties":false,` +
		`"description":"A profile","keywords":["social","profile"],"$comment":"v1"}}`
	assert.Equal(t, want, canonical(t, []types.DocumentType{d}))
}

func TestGenerate_ArrayAlwaysByteArray(t *testing.T) {
	d := types.DocumentType{Name: "d", Properties: []types.Property{{Name: "raw", DataType: types.DataTypeArray}}}
	assert.Contains(t, canonical(t, []types.DocumentType{d}), `"byteArray":true`)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	docs := []types.DocumentType{
		{Name: "b", Properties: []types.Property{{Name: "x", DataType: types.DataTypeString}}},
		{Name: "a"},
	}
	first := canonical(t, docs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, canonical(t, docs))
	}
	assert.Equal(t, `{"b":{"type":"object","properties":{"x":{"position":0,"type":"string"}},"additionalProperties":false},"a":{"type":"object","additionalProperties":false}}`, first)
}

func TestRender_Formats(t *testing.T) {
	docs := []types.DocumentType{{Name: "n", AdditionalProperties: true}}
	pretty, err := Render(docs, FormatPretty)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": {\n    \"type\": \"object\",\n    \"additionalProperties\": true\n  }\n}", pretty)

	compact, err := Render(docs, FormatCompact)
	require.NoError(t, err)
	assert.Equal(t, `{"n":{"type":"object","additionalProperties":true}}`, compact)

	y, err := Render(docs, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "n:\n    type: object\n    additionalProperties: true\n", y)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPretty, f)
	f, err = ParseFormat(" Compact ")
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	in := `{"profile":{"type":"object","properties":{` +
		`"name":{"position":0,"type":"string","description":"display name","minLength":1,"maxLength":63,"pattern":"^[a-z]+$","format":"email","$comment":"c"},` +
		`"age":{"position":1,"type":"integer","minimum":-5,"maximum":150.5},` +
		`"tags":{"position":2,"type":"array","byteArray":true,"maxItems":32},` +
		`"meta":{"position":3,"type":"object","properties":{"a":{"position":0,"type":"number"},"b":{"position":1,"type":"boolean"}},"minProperties":1,"required":["a"],"additionalProperties":false}},` +
		`"indices":[{"name":"byName","properties":[{"name":"asc"}],"unique":true}],` +
		`"required":["name","$createdAt"],"additionalProperties":false,` +
		`"description":"A profile","keywords":["social","profile"],"$comment":"v1"},` +
		`"other":{"type":"object","additionalProperties":true}}`

	docs, err := Parse(in)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "profile", docs[0].Name)
	assert.Equal(t, "other", docs[1].Name)

	d := docs[0]
	assert.True(t, d.CreatedAtRequired)
	assert.False(t, d.UpdatedAtRequired)
	assert.Equal(t, "social, profile", d.Keywords)
	assert.True(t, d.Properties[0].Required)
	assert.Equal(t, "c", d.Properties[0].Comment)
	assert.Equal(t, -5.0, *d.Properties[1].Minimum)
	assert.True(t, d.Properties[2].ByteArray)
	assert.True(t, d.Properties[3].Properties[0].Required)
	assert.False(t, d.Properties[3].Properties[1].Required)
	assert.Equal(t, []string{"a"}, d.Properties[3].RecRequired)
	require.NotNil(t, d.Properties[3].AdditionalProperties)
	assert.False(t, *d.Properties[3].AdditionalProperties)
	assert.Equal(t, []types.IndexField{{Name: "name", SortOrder: types.SortAsc}}, d.Indices[0].Fields)

	assert.Equal(t, in, canonical(t, docs))
}

func TestParse_GenerateIdempotent(t *testing.T) {
	in := `{
	  "b": {"type": "object", "properties": {"y": {"type": "array"},
	                                           "z": {"type": "integer", "position": 1, "minLength": 3}}, "required": ["z", "ghost"]},
	  "a": {"type": "object", "keywords": ["x", "", "y"]}
	}`
	docs, err := Parse(in)
	require.NoError(t, err)
	first := canonical(t, docs)

	again, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, first, canonical(t, again))
	assert.Equal(t,
		`{"b":{"type":"object","properties":{"y":{"position":0,"type":"array","byteArray":true},"z":{"position":1,"type":"integer"}},"required":["z"],"additionalProperties":false},"a":{"type":"object","additionalProperties":false,"keywords":["x","y"]}}`,
		first)
}

func TestParse_ModelRoundTrip(t *testing.T) {
	d := types.DocumentType{Name: "note", Description: "d"}
	d.AddProperty()
	d.Properties[0].Name = "body"
	d.Properties[0].MaxLength = intp(10)
	d.AddProperty()
	d.Properties[1].Name = "obj"
	d.Properties[1].SetDataType(types.DataTypeObject)
	_, err := d.AddPropertyAt([]int{1})
	require.NoError(t, err)
	d.Properties[1].Properties[0].Name = "x"
	require.NoError(t, d.SetRequiredAt([]int{1, 0}, true))
	require.NoError(t, d.SetRequiredAt([]int{0}, true))
	d.SetUpdatedAtRequired(true)

	docs, err := Parse(canonical(t, []types.DocumentType{d}))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, d, docs[0])
}

func TestParse_SkipsSystemKeys(t *testing.T) {
	docs, err := Parse(`{"d":{"type":"object","properties":{"$ownerId":{"type":"weird"},"a":{"type":"string"}}}}`)
	require.NoError(t, err)
	require.Len(t, docs[0].Properties, 1)
	assert.Equal(t, "a", docs[0].Properties[0].Name)
}

func TestParse_EmptyObject(t *testing.T) {
	docs, err := Parse(`{}`)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParse_YAML(t *testing.T) {
	docs, err := ParseYAML("note:\n  type: object\n  properties:\n    message:\n      type: string\n      position: 0\n  required: [message]\n")
	require.NoError(t, err)
	assert.Equal(t,
		`{"note":{"type":"object","properties":{"message":{"position":0,"type":"string"}},"required":["message"],"additionalProperties":false}}`,
		canonical(t, docs))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		kind  ErrorKind
		index int
		msg   string
	}{
		{"not json", `{"a":`, KindMalformed, -1, "invalid JSON"},
		{"root array", `[]`, KindMalformed, -1, "Root level must be an object"},
		{"doc not object", `{"a":1}`, KindInvalidDocumentType, -1, "document type 'a': definition must be an object"},
		{"properties not object", `{"a":{"properties":[]}}`, KindInvalidProperty, -1, "properties must be an object"},
		{"property not object", `{"a":{"properties":{"p":"x"}}}`, KindInvalidProperty, -1, "property 'p' in document type 'a': definition must be an object"},
		{"position not numeric", `{"a":{"properties":{"p":{"type":"string","position":"1"}}}}`, KindInvalidProperty, -1, "position must be a non-negative integer"},
		{"type not string", `{"a":{"properties":{"p":{"type":1}}}}`, KindInvalidProperty, -1, "type must be a string"},
		{"unknown type", `{"a":{"properties":{"p":{"type":"date"}}}}`, KindUnknownType, -1, "Unknown type 'date' for property 'p' in document type 'a'"},
		{"nested unknown type", `{"a":{"properties":{"o":{"type":"object","properties":{"q":{"type":"x"}}}}}}`, KindUnknownType, -1, "Unknown type 'x' for property 'o.q'"},
		{"indices not array", `{"a":{"indices":{}}}`, KindInvalidIndex, -1, "indices must be an array"},
		{"index not object", `{"a":{"indices":[{"name":"ok"},3]}}`, KindInvalidIndex, 1, "Error parsing index 1 of document type 'a': index must be an object"},
		{"index without name", `{"a":{"indices":[{"properties":[]}]}}`, KindInvalidIndex, 0, "index name must be a string"},
		{"index field two keys", `{"a":{"indices":[{"name":"i","properties":[{"x":"asc","y":"asc"}]}]}}`, KindInvalidIndexField, 0, "exactly one field"},
		{"index field value", `{"a":{"indices":[{"name":"i","properties":[{"x":1}]}]}}`, KindInvalidIndexField, 0, "must be a string"},
		{"index desc", `{"a":{"indices":[{"name":"i","properties":[{"x":"desc"}]}]}}`, KindInvalidIndexField, 0, "not supported"},
		{"required not array", `{"a":{"required":"x"}}`, KindInvalidRequired, -1, "required must be an array"},
		{"required not strings", `{"a":{"required":[1]}}`, KindInvalidRequired, -1, "required entries must be strings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := Parse(tt.in)
			require.Error(t, err)
			assert.Nil(t, docs)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.index, perr.Index)
			assert.Contains(t, perr.Error(), tt.msg)
		})
	}
}

func TestParse_DescSortOrderWrapsSentinel(t *testing.T) {
	_, err := Parse(`{"a":{"indices":[{"name":"i","properties":[{"x":"desc"}]}]}}`)
	assert.ErrorIs(t, err, types.ErrUnsupportedSortOrder)
}

func TestParse_MissingTypeDefaultsToString(t *testing.T) {
	docs, err := Parse(`{"note":{"type":"object","properties":{"message":{"position":0,"maxLength":63}},"additionalProperties":false}}`)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Properties, 1)
	p := docs[0].Properties[0]
	assert.Equal(t, "message", p.Name)
	assert.Equal(t, types.DataTypeString, p.DataType)
	require.NotNil(t, p.MaxLength)
	assert.Equal(t, 63, *p.MaxLength)

	_, err = Parse(`{"note":{"properties":{"message":{"type":"date"}}}}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindUnknownType, perr.Kind)
}
