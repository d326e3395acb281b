package types

import "fmt"

// DocumentType is a named record schema within a data contract.
//
// Required mirrors the required flags of the top-level properties plus the
// system timestamps. Mutators keep both in step; renames deliberately do
// not rewrite Required or index field references.
type DocumentType struct {
	Name                 string     `json:"name"`
	Properties           []Property `json:"properties,omitempty"`
	Indices              []Index    `json:"indices,omitempty"`
	Required             []string   `json:"required,omitempty"`
	CreatedAtRequired    bool       `json:"createdAtRequired,omitempty"`
	UpdatedAtRequired    bool       `json:"updatedAtRequired,omitempty"`
	AdditionalProperties bool       `json:"additionalProperties"`
	Description          string     `json:"description,omitempty"`
	Keywords             string     `json:"keywords,omitempty"`
	Comment              string     `json:"comment,omitempty"`
}

// NewDocumentType returns an empty draft.
func NewDocumentType() DocumentType { return DocumentType{} }

func (d *DocumentType) IsDraft() bool { return d.Name == "" }

// PropertyAt resolves a path of indices: path[0] selects a top-level
// property, each further element a nested child of the previous one.
func (d *DocumentType) PropertyAt(path []int) (*Property, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	props := d.Properties
	var cur *Property
	for depth, i := range path {
		if i < 0 || i >= len(props) {
			return nil, fmt.Errorf("property path %v at depth %d: %w", path, depth, ErrOutOfRange)
		}
		cur = &props[i]
		props = cur.Properties
	}
	return cur, nil
}

// AddProperty appends an empty top-level property and returns its index.
func (d *DocumentType) AddProperty() int {
	d.Properties = append(d.Properties, NewProperty(len(d.Properties)))
	return len(d.Properties) - 1
}

// AddPropertyAt appends a property under parent (nil for top level) and
// returns the new property's path.
func (d *DocumentType) AddPropertyAt(parent []int) ([]int, error) {
	if len(parent) == 0 {
		return []int{d.AddProperty()}, nil
	}
	p, err := d.PropertyAt(parent)
	if err != nil {
		return nil, err
	}
	i, err := p.AddProperty()
	if err != nil {
		return nil, err
	}
	return append(append([]int(nil), parent...), i), nil
}

// RemoveProperty removes a top-level property, renumbers positions and
// prunes Required.
func (d *DocumentType) RemoveProperty(i int) error {
	if i < 0 || i >= len(d.Properties) {
		return fmt.Errorf("remove property %d: %w", i, ErrOutOfRange)
	}
	d.Properties = append(d.Properties[:i], d.Properties[i+1:]...)
	renumber(d.Properties)
	d.PruneRequired()
	return nil
}

func (d *DocumentType) RemovePropertyAt(path []int) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if len(path) == 1 {
		return d.RemoveProperty(path[0])
	}
	parent, err := d.PropertyAt(path[:len(path)-1])
	if err != nil {
		return err
	}
	return parent.RemoveProperty(path[len(path)-1])
}

// SetRequiredAt toggles a property's required flag and the owning list:
// Required for top-level properties, the parent's RecRequired otherwise.
func (d *DocumentType) SetRequiredAt(path []int, required bool) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if len(path) > 1 {
		parent, err := d.PropertyAt(path[:len(path)-1])
		if err != nil {
			return err
		}
		return parent.SetChildRequired(path[len(path)-1], required)
	}
	p, err := d.PropertyAt(path)
	if err != nil {
		return err
	}
	p.Required = required
	if p.Name == "" {
		return nil
	}
	if required {
		d.Required = addString(d.Required, p.Name)
	} else {
		d.Required = removeString(d.Required, p.Name)
	}
	return nil
}

func (d *DocumentType) SetCreatedAtRequired(required bool) {
	d.CreatedAtRequired = required
	d.Required = toggleString(d.Required, SystemCreatedAt, required)
}

func (d *DocumentType) SetUpdatedAtRequired(required bool) {
	d.UpdatedAtRequired = required
	d.Required = toggleString(d.Required, SystemUpdatedAt, required)
}

// PruneRequired drops entries of Required that no longer name a property
// or a flagged system timestamp.
func (d *DocumentType) PruneRequired() {
	out := d.Required[:0]
	for _, name := range d.Required {
		switch {
		case name == SystemCreatedAt && d.CreatedAtRequired,
			name == SystemUpdatedAt && d.UpdatedAtRequired,
			name != "" && hasName(d.Properties, name):
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	d.Required = out
}

// SyncRequired derives every required flag from the required lists.
func (d *DocumentType) SyncRequired() {
	for i := range d.Properties {
		p := &d.Properties[i]
		p.Required = p.Name != "" && containsString(d.Required, p.Name)
		p.SyncRequired()
	}
	d.CreatedAtRequired = containsString(d.Required, SystemCreatedAt)
	d.UpdatedAtRequired = containsString(d.Required, SystemUpdatedAt)
}

// Ordered returns the top-level properties sorted by position.
func (d *DocumentType) Ordered() []Property {
	return ordered(d.Properties)
}

// AddIndex appends an empty index and returns its position.
func (d *DocumentType) AddIndex() int {
	d.Indices = append(d.Indices, Index{})
	return len(d.Indices) - 1
}

func (d *DocumentType) RemoveIndex(i int) error {
	if i < 0 || i >= len(d.Indices) {
		return fmt.Errorf("remove index %d: %w", i, ErrOutOfRange)
	}
	d.Indices = append(d.Indices[:i], d.Indices[i+1:]...)
	return nil
}

func (d *DocumentType) IndexAt(i int) (*Index, error) {
	if i < 0 || i >= len(d.Indices) {
		return nil, fmt.Errorf("index %d: %w", i, ErrOutOfRange)
	}
	return &d.Indices[i], nil
}

// IndexFieldChoices lists what an index field may reference: the named
// top-level properties in position order, then the system properties.
func (d *DocumentType) IndexFieldChoices() []string {
	out := make([]string, 0, len(d.Properties)+len(SystemProperties))
	for _, p := range d.Ordered() {
		if p.Name != "" {
			out = append(out, p.Name)
		}
	}
	return append(out, SystemProperties...)
}

func (d DocumentType) Clone() DocumentType {
	out := d
	out.Properties = cloneProperties(d.Properties)
	out.Required = append([]string(nil), d.Required...)
	if d.Indices != nil {
		out.Indices = make([]Index, len(d.Indices))
		for i := range d.Indices {
			out.Indices[i] = d.Indices[i].Clone()
		}
	}
	return out
}

// CloneAll deep-copies a list of document types.
func CloneAll(docs []DocumentType) []DocumentType {
	out := make([]DocumentType, len(docs))
	for i := range docs {
		out[i] = docs[i].Clone()
	}
	return out
}

func toggleString(list []string, s string, on bool) []string {
	if on {
		return addString(list, s)
	}
	return removeString(list, s)
}
