package schema

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	KindMalformed ErrorKind = iota + 1
	KindInvalidDocumentType
	KindInvalidProperty
	KindUnknownType
	KindInvalidIndex
	KindInvalidIndexField
	KindInvalidRequired
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindInvalidDocumentType:
		return "invalid_document_type"
	case KindInvalidProperty:
		return "invalid_property"
	case KindUnknownType:
		return "unknown_type"
	case KindInvalidIndex:
		return "invalid_index"
	case KindInvalidIndexField:
		return "invalid_index_field"
	case KindInvalidRequired:
		return "invalid_required"
	default:
		return "unknown"
	}
}

// ParseError reports why a contract text could not be imported. The
// object model is never touched when parsing fails.
type ParseError struct {
	Kind         ErrorKind
	DocumentType string
	// Property is the dotted path of property names, if any.
	Property string
	// Index is the zero-based position in the indices list, or -1.
	Index  int
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	switch {
	case e.Kind == KindUnknownType:
		fmt.Fprintf(&b, "Unknown type '%s' for property '%s'", e.Detail, e.Property)
		if e.DocumentType != "" {
			fmt.Fprintf(&b, " in document type '%s'", e.DocumentType)
		}
		return b.String()
	case e.Index >= 0:
		fmt.Fprintf(&b, "Error parsing index %d", e.Index)
		if e.DocumentType != "" {
			fmt.Fprintf(&b, " of document type '%s'", e.DocumentType)
		}
		b.WriteString(": ")
	case e.Property != "":
		fmt.Fprintf(&b, "property '%s'", e.Property)
		if e.DocumentType != "" {
			fmt.Fprintf(&b, " in document type '%s'", e.DocumentType)
		}
		b.WriteString(": ")
	case e.DocumentType != "":
		fmt.Fprintf(&b, "document type '%s': ", e.DocumentType)
	}
	b.WriteString(e.Detail)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func malformed(detail string, err error) *ParseError {
	return &ParseError{Kind: KindMalformed, Index: -1, Detail: detail, Err: err}
}
