package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape_KeepsOrderAndHTML(t *testing.T) {
	obj := NewObject().
		Set("z", "<b>&</b>").
		Set("a", []any{1, 2.5, json.Number("3"), true, nil}).
		Set("m", NewObject().Set("y", []string{"q"}))
	obj.Set("z", "again")

	b, err := MarshalNoEscape(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"again","a":[1,2.5,3,true,null],"m":{"y":["q"]}}`, string(b))

	obj.Set("z", "<b>")
	b, err = MarshalNoEscape(obj)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"<b>"`)
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	obj := NewObject().Set("b", 1).Set("a", NewObject().Set("c", "x"))
	b, err := MarshalNoEscapeIndent(obj, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": {\n    \"c\": \"x\"\n  }\n}", string(b))
}

func TestMarshalNoEscape_RejectsBadNumber(t *testing.T) {
	_, err := MarshalNoEscape(json.Number("1x"))
	assert.Error(t, err)
}

func TestDecodeOrdered(t *testing.T) {
	v, err := DecodeOrdered([]byte(`{"b":{"y":1,"x":[1.5,"s",false,null]},"a":2}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, obj.Keys())

	inner, _ := obj.Get("b")
	assert.Equal(t, []string{"y", "x"}, inner.(*Object).Keys())
	a, _ := obj.Get("a")
	assert.Equal(t, json.Number("2"), a)

	out, err := MarshalNoEscape(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":{"y":1,"x":[1.5,"s",false,null]},"a":2}`, string(out))
}

func TestDecodeOrdered_Errors(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":}`, `{} {}`, `[1,]`} {
		_, err := DecodeOrdered([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestToPlain(t *testing.T) {
	v, err := DecodeOrdered([]byte(`{"a":[{"b":true}]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{map[string]any{"b": true}}}, ToPlain(v))
}

func TestYAMLRoundTrip(t *testing.T) {
	obj := NewObject().
		Set("note", NewObject().
			Set("type", "object").
			Set("position", 0).
			Set("flag", "true").
			Set("min", json.Number("1.5")).
			Set("required", []any{"a"}))

	y, err := MarshalYAML(obj)
	require.NoError(t, err)

	back, err := DecodeYAML(y)
	require.NoError(t, err)

	want, err := MarshalNoEscape(obj)
	require.NoError(t, err)
	got, err := MarshalNoEscape(back)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestDecodeYAML_Empty(t *testing.T) {
	_, err := DecodeYAML([]byte(""))
	assert.ErrorIs(t, err, ErrYAMLShape)
}
