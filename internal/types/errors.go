package types

import "errors"

var (
	ErrOutOfRange           = errors.New("types: index out of range")
	ErrNotObject            = errors.New("types: property is not an object")
	ErrEmptyPath            = errors.New("types: empty property path")
	ErrUnsupportedSortOrder = errors.New("types: unsupported sort order")
)

// ErrorCategory classifies a validation finding.
type ErrorCategory string

const (
	CategoryJSONSchema ErrorCategory = "JsonSchemaError"
	CategoryProtocol   ErrorCategory = "ProtocolError"
	CategoryParse      ErrorCategory = "ParseError"
	CategoryService    ErrorCategory = "ServiceError"
)

// StructuredError is a single validator finding. Findings are data, not Go errors.
type StructuredError struct {
	Path     string        `json:"path,omitempty"`
	Message  string        `json:"message"`
	Category ErrorCategory `json:"category"`
}

// DisplayMessage renders "path: message", or just the message when the path is empty.
func (e StructuredError) DisplayMessage() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}
