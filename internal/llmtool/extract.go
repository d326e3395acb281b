package llmtool

import (
	"errors"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

var (
	ErrNoJSONFound = errors.New("llmtool: no JSON found in model response")
	ErrInvalidJSON = errors.New("llmtool: extracted text is not valid JSON")
)

// ExtractJSON returns the span from the first '{' to the last '}' of a
// model reply, provided that span is valid JSON. Surrounding prose and code
// fences are dropped.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSONFound
	}
	candidate := text[start : end+1]
	var scratch any
	if err := gojson.Unmarshal([]byte(candidate), &scratch); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return candidate, nil
}
