package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

var ErrTrailingData = errors.New("jsonutil: trailing data after JSON value")

// DecodeOrdered parses one JSON value, keeping object key order. Objects
// become *Object, arrays []any and numbers json.Number.
func DecodeOrdered(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, ErrTrailingData
		}
		return nil, err
	}
	return v, nil
}

func readValue(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *gojson.Decoder, tok any) (any, error) {
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		default:
			return nil, fmt.Errorf("jsonutil: unexpected delimiter %q", rune(v))
		}
	case gojson.Number:
		return toStdNumber(v), nil
	case float64:
		return v, nil
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("jsonutil: unexpected token %T", tok)
	}
}

func readObject(dec *gojson.Decoder) (*Object, error) {
	obj := NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonutil: object key must be a string, got %T", tok)
		}
		val, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
}

func readArray(dec *gojson.Decoder) ([]any, error) {
	out := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if d, ok := tok.(gojson.Delim); ok && d == ']' {
			return out, nil
		}
		val, err := valueFromToken(dec, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
}

// ToPlain converts an ordered value into map[string]any form for libraries
// that do not understand *Object.
func ToPlain(v any) any {
	switch x := v.(type) {
	case *Object:
		m := make(map[string]any, x.Len())
		for _, k := range x.keys {
			m[k] = ToPlain(x.values[k])
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = ToPlain(x[i])
		}
		return out
	default:
		return v
	}
}

func toStdNumber(n gojson.Number) json.Number {
	return json.Number(string(n))
}
