package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"contractcreator/internal/types"
)

// Envelope is the wire form of a Command:
//
//	{"op": "setPropertyMaxLength", "doc": 0, "path": [1], "value": 63}
//
// Which of doc, path, index, field and value matter depends on op. Numeric
// values may be sent as numbers or as form strings; null or "" clears.
type Envelope struct {
	Op    string          `json:"op"`
	Doc   int             `json:"doc"`
	Path  []int           `json:"path,omitempty"`
	Index int             `json:"index"`
	Field int             `json:"field"`
	Value json.RawMessage `json:"value,omitempty"`
}

type decoder func(env Envelope) (Command, error)

var decoders = map[string]decoder{
	"addDocumentType": func(env Envelope) (Command, error) { return AddDocumentType{}, nil },
	"removeDocumentType": func(env Envelope) (Command, error) {
		return RemoveDocumentType{Doc: env.Doc}, nil
	},
	"setDocumentTypeName": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetDocumentTypeName{Doc: env.Doc, Name: s}, err
	},
	"setDocumentTypeDescription": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetDocumentTypeDescription{Doc: env.Doc, Description: s}, err
	},
	"setDocumentTypeComment": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetDocumentTypeComment{Doc: env.Doc, Comment: s}, err
	},
	"setDocumentTypeKeywords": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetDocumentTypeKeywords{Doc: env.Doc, Keywords: s}, err
	},
	"setCreatedAtRequired": func(env Envelope) (Command, error) {
		b, err := env.boolean()
		return SetCreatedAtRequired{Doc: env.Doc, Required: b}, err
	},
	"setUpdatedAtRequired": func(env Envelope) (Command, error) {
		b, err := env.boolean()
		return SetUpdatedAtRequired{Doc: env.Doc, Required: b}, err
	},
	"setDocumentTypeAdditionalProperties": func(env Envelope) (Command, error) {
		b, err := env.boolean()
		return SetDocumentTypeAdditionalProperties{Doc: env.Doc, Allowed: b}, err
	},

	"addProperty": func(env Envelope) (Command, error) {
		return AddProperty{Doc: env.Doc, Parent: env.Path}, nil
	},
	"removeProperty": func(env Envelope) (Command, error) {
		return RemoveProperty{env.ref()}, nil
	},
	"setPropertyName": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyName{PropertyRef: env.ref(), Name: s}, err
	},
	"setPropertyType": func(env Envelope) (Command, error) {
		s, err := env.str()
		if err != nil {
			return nil, err
		}
		dt, ok := types.ParseDataType(s)
		if !ok {
			return nil, fmt.Errorf("property type %q: %w", s, ErrInvalidValue)
		}
		return SetPropertyType{PropertyRef: env.ref(), Type: dt}, nil
	},
	"setPropertyRequired": func(env Envelope) (Command, error) {
		b, err := env.boolean()
		return SetPropertyRequired{PropertyRef: env.ref(), Required: b}, err
	},
	"setPropertyDescription": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyDescription{PropertyRef: env.ref(), Description: s}, err
	},
	"setPropertyComment": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyComment{PropertyRef: env.ref(), Comment: s}, err
	},
	"setPropertyMinLength": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMinLength{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyMaxLength": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMaxLength{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyPattern": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyPattern{PropertyRef: env.ref(), Pattern: s}, err
	},
	"setPropertyFormat": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyFormat{PropertyRef: env.ref(), Format: s}, err
	},
	"setPropertyMinimum": func(env Envelope) (Command, error) {
		v, err := env.optFloat()
		return SetPropertyMinimum{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyMaximum": func(env Envelope) (Command, error) {
		v, err := env.optFloat()
		return SetPropertyMaximum{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyMinItems": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMinItems{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyMaxItems": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMaxItems{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyContentMediaType": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetPropertyContentMediaType{PropertyRef: env.ref(), ContentMediaType: s}, err
	},
	"setPropertyMinProperties": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMinProperties{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyMaxProperties": func(env Envelope) (Command, error) {
		v, err := env.optInt()
		return SetPropertyMaxProperties{PropertyRef: env.ref(), Value: v}, err
	},
	"setPropertyAdditionalProperties": func(env Envelope) (Command, error) {
		v, err := env.optBool()
		return SetPropertyAdditionalProperties{PropertyRef: env.ref(), Value: v}, err
	},

	"addIndex": func(env Envelope) (Command, error) { return AddIndex{Doc: env.Doc}, nil },
	"removeIndex": func(env Envelope) (Command, error) {
		return RemoveIndex{Doc: env.Doc, Index: env.Index}, nil
	},
	"setIndexName": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetIndexName{Doc: env.Doc, Index: env.Index, Name: s}, err
	},
	"setIndexUnique": func(env Envelope) (Command, error) {
		b, err := env.boolean()
		return SetIndexUnique{Doc: env.Doc, Index: env.Index, Unique: b}, err
	},
	"addIndexField": func(env Envelope) (Command, error) {
		s, err := env.str()
		return AddIndexField{Doc: env.Doc, Index: env.Index, Name: s}, err
	},
	"removeIndexField": func(env Envelope) (Command, error) {
		return RemoveIndexField{Doc: env.Doc, Index: env.Index, Field: env.Field}, nil
	},
	"setIndexFieldName": func(env Envelope) (Command, error) {
		s, err := env.str()
		return SetIndexFieldName{Doc: env.Doc, Index: env.Index, Field: env.Field, Name: s}, err
	},
}

// DecodeCommand parses one command envelope.
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := gojson.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return env.Command()
}

// Command turns the envelope into its Command.
func (env Envelope) Command() (Command, error) {
	dec, ok := decoders[env.Op]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, env.Op)
	}
	cmd, err := dec(env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", env.Op, err)
	}
	return cmd, nil
}

// Ops lists every command name DecodeCommand understands, sorted.
func Ops() []string {
	out := make([]string, 0, len(decoders))
	for op := range decoders {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

func (env Envelope) ref() PropertyRef {
	return PropertyRef{Doc: env.Doc, Path: env.Path}
}

func (env Envelope) isNull() bool {
	v := bytes.TrimSpace(env.Value)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func (env Envelope) str() (string, error) {
	if env.isNull() {
		return "", nil
	}
	var s string
	if err := gojson.Unmarshal(env.Value, &s); err != nil {
		return "", fmt.Errorf("want string: %w", ErrInvalidValue)
	}
	return s, nil
}

func (env Envelope) boolean() (bool, error) {
	if env.isNull() {
		return false, nil
	}
	var b bool
	if err := gojson.Unmarshal(env.Value, &b); err != nil {
		return false, fmt.Errorf("want boolean: %w", ErrInvalidValue)
	}
	return b, nil
}

func (env Envelope) optBool() (*bool, error) {
	if env.isNull() {
		return nil, nil
	}
	b, err := env.boolean()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// optFloat accepts a JSON number or a numeric string.
func (env Envelope) optFloat() (*float64, error) {
	if env.isNull() {
		return nil, nil
	}
	var raw any
	if err := gojson.Unmarshal(env.Value, &raw); err != nil {
		return nil, fmt.Errorf("want number: %w", ErrInvalidValue)
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", v, ErrInvalidValue)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("want number: %w", ErrInvalidValue)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("want finite number: %w", ErrInvalidValue)
	}
	return &f, nil
}

// optInt is optFloat restricted to non-negative integers.
func (env Envelope) optInt() (*int, error) {
	f, err := env.optFloat()
	if err != nil || f == nil {
		return nil, err
	}
	if *f < 0 || *f != math.Trunc(*f) || *f > math.MaxInt32 {
		return nil, fmt.Errorf("%v is not a non-negative integer: %w", *f, ErrInvalidValue)
	}
	n := int(*f)
	return &n, nil
}
