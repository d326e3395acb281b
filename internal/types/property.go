package types

import (
	"fmt"
	"sort"
)

// Property is one field of a document type. Type-conditional fields are
// pointers so that nil means "unset"; which of them are meaningful depends
// on DataType.
type Property struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Position    int      `json:"position"`
	Description string   `json:"description,omitempty"`
	Comment     string   `json:"comment,omitempty"`

	// string
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"`

	// integer / number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// array
	ByteArray        bool   `json:"byteArray,omitempty"`
	MinItems         *int   `json:"minItems,omitempty"`
	MaxItems         *int   `json:"maxItems,omitempty"`
	ContentMediaType string `json:"contentMediaType,omitempty"`

	// object
	Properties           []Property `json:"properties,omitempty"`
	MinProperties        *int       `json:"minProperties,omitempty"`
	MaxProperties        *int       `json:"maxProperties,omitempty"`
	RecRequired          []string   `json:"recRequired,omitempty"`
	AdditionalProperties *bool      `json:"additionalProperties,omitempty"`
}

// NewProperty returns an unnamed string property at the given position.
func NewProperty(position int) Property {
	return Property{DataType: DataTypeString, Position: position}
}

// IsDraft reports whether the property has no name yet. Drafts are never emitted.
func (p *Property) IsDraft() bool { return p.Name == "" }

// SetDataType switches the type and drops every field that does not apply
// to the new one.
func (p *Property) SetDataType(dt DataType) {
	p.DataType = dt
	p.ClearInvalidFields()
}

// ClearInvalidFields resets the type-conditional fields that DataType does not use.
func (p *Property) ClearInvalidFields() {
	if p.DataType != DataTypeString {
		p.MinLength, p.MaxLength = nil, nil
		p.Pattern, p.Format = "", ""
	}
	if !p.DataType.Numeric() {
		p.Minimum, p.Maximum = nil, nil
	}
	if p.DataType == DataTypeArray {
		p.ByteArray = true
	} else {
		p.ByteArray = false
		p.MinItems, p.MaxItems = nil, nil
		p.ContentMediaType = ""
	}
	if p.DataType != DataTypeObject {
		p.Properties = nil
		p.MinProperties, p.MaxProperties = nil, nil
		p.RecRequired = nil
		p.AdditionalProperties = nil
	}
}

// AddProperty appends an empty nested property and returns its index.
func (p *Property) AddProperty() (int, error) {
	if p.DataType != DataTypeObject {
		return 0, fmt.Errorf("add nested property to %q: %w", p.Name, ErrNotObject)
	}
	p.Properties = append(p.Properties, NewProperty(len(p.Properties)))
	return len(p.Properties) - 1, nil
}

// RemoveProperty removes the i-th nested property, renumbers positions and
// drops the removed name from RecRequired.
func (p *Property) RemoveProperty(i int) error {
	if i < 0 || i >= len(p.Properties) {
		return fmt.Errorf("remove nested property %d: %w", i, ErrOutOfRange)
	}
	name := p.Properties[i].Name
	p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
	renumber(p.Properties)
	if name != "" && !hasName(p.Properties, name) {
		p.RecRequired = removeString(p.RecRequired, name)
	}
	return nil
}

// SetChildRequired toggles the required flag of the i-th nested property and
// keeps RecRequired in step.
func (p *Property) SetChildRequired(i int, required bool) error {
	if i < 0 || i >= len(p.Properties) {
		return fmt.Errorf("set nested required %d: %w", i, ErrOutOfRange)
	}
	child := &p.Properties[i]
	child.Required = required
	if child.Name == "" {
		return nil
	}
	if required {
		p.RecRequired = addString(p.RecRequired, child.Name)
	} else {
		p.RecRequired = removeString(p.RecRequired, child.Name)
	}
	return nil
}

// SyncRequired sets the nested required flags from RecRequired, recursively.
func (p *Property) SyncRequired() {
	for i := range p.Properties {
		child := &p.Properties[i]
		child.Required = child.Name != "" && containsString(p.RecRequired, child.Name)
		child.SyncRequired()
	}
}

// Ordered returns the nested properties sorted by position. Ties keep slice order.
func (p *Property) Ordered() []Property {
	return ordered(p.Properties)
}

// Clone returns a deep copy.
func (p Property) Clone() Property {
	out := p
	out.MinLength = cloneInt(p.MinLength)
	out.MaxLength = cloneInt(p.MaxLength)
	out.Minimum = cloneFloat(p.Minimum)
	out.Maximum = cloneFloat(p.Maximum)
	out.MinItems = cloneInt(p.MinItems)
	out.MaxItems = cloneInt(p.MaxItems)
	out.MinProperties = cloneInt(p.MinProperties)
	out.MaxProperties = cloneInt(p.MaxProperties)
	if p.AdditionalProperties != nil {
		v := *p.AdditionalProperties
		out.AdditionalProperties = &v
	}
	out.RecRequired = append([]string(nil), p.RecRequired...)
	out.Properties = cloneProperties(p.Properties)
	return out
}

func cloneProperties(in []Property) []Property {
	if in == nil {
		return nil
	}
	out := make([]Property, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func ordered(props []Property) []Property {
	out := make([]Property, len(props))
	copy(out, props)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func renumber(props []Property) {
	for i := range props {
		props[i].Position = i
	}
}

func hasName(props []Property, name string) bool {
	for i := range props {
		if props[i].Name == name {
			return true
		}
	}
	return false
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func addString(list []string, s string) []string {
	if containsString(list, s) {
		return list
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
