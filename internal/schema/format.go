package schema

import (
	"fmt"
	"strings"

	"contractcreator/internal/types"
	"contractcreator/internal/util/jsonutil"
)

// Format selects how a contract is rendered as text.
type Format string

const (
	FormatPretty  Format = "pretty"
	FormatCompact Format = "compact"
	FormatYAML    Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatCompact, FormatYAML:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Canonical returns the compact JSON text used for change detection and
// validation.
func Canonical(docs []types.DocumentType) (string, error) {
	b, err := jsonutil.MarshalNoEscape(Generate(docs))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Render generates the contract and encodes it in the requested format.
func Render(docs []types.DocumentType, f Format) (string, error) {
	return Encode(Generate(docs), f)
}

// Encode renders an already generated contract object.
func Encode(obj *jsonutil.Object, f Format) (string, error) {
	var (
		b   []byte
		err error
	)
	switch f {
	case FormatCompact:
		b, err = jsonutil.MarshalNoEscape(obj)
	case FormatYAML:
		b, err = jsonutil.MarshalYAML(obj)
	default:
		b, err = jsonutil.MarshalNoEscapeIndent(obj, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("encode contract: %w", err)
	}
	return string(b), nil
}
