package types

import "fmt"

// SortOrder of an index field. The protocol only supports ascending order.
type SortOrder string

const SortAsc SortOrder = "asc"

var SortOrders = []SortOrder{SortAsc}

// IndexField is one (field name, sort order) pair of an index.
type IndexField struct {
	Name      string    `json:"name"`
	SortOrder SortOrder `json:"sortOrder"`
}

// NewIndexField validates the sort order and builds the pair.
func NewIndexField(name, order string) (IndexField, error) {
	if SortOrder(order) != SortAsc {
		return IndexField{}, fmt.Errorf("index field %q order %q: %w", name, order, ErrUnsupportedSortOrder)
	}
	return IndexField{Name: name, SortOrder: SortAsc}, nil
}

// Index is a secondary index over a document type's properties.
type Index struct {
	Name   string       `json:"name"`
	Unique bool         `json:"unique,omitempty"`
	Fields []IndexField `json:"fields,omitempty"`
}

// AddField appends a field reference and returns its position.
func (ix *Index) AddField(name string) int {
	ix.Fields = append(ix.Fields, IndexField{Name: name, SortOrder: SortAsc})
	return len(ix.Fields) - 1
}

func (ix *Index) RemoveField(i int) error {
	if i < 0 || i >= len(ix.Fields) {
		return fmt.Errorf("remove index field %d: %w", i, ErrOutOfRange)
	}
	ix.Fields = append(ix.Fields[:i], ix.Fields[i+1:]...)
	return nil
}

func (ix *Index) SetFieldName(i int, name string) error {
	if i < 0 || i >= len(ix.Fields) {
		return fmt.Errorf("set index field %d: %w", i, ErrOutOfRange)
	}
	ix.Fields[i].Name = name
	return nil
}

// NamedFields returns the fields that reference a property. Unnamed rows are drafts.
func (ix *Index) NamedFields() []IndexField {
	out := make([]IndexField, 0, len(ix.Fields))
	for _, f := range ix.Fields {
		if f.Name != "" {
			out = append(out, f)
		}
	}
	return out
}

// IsDraft reports whether the index lacks a name or any named field.
func (ix *Index) IsDraft() bool {
	return ix.Name == "" || len(ix.NamedFields()) == 0
}

func (ix Index) Clone() Index {
	out := ix
	out.Fields = append([]IndexField(nil), ix.Fields...)
	return out
}
