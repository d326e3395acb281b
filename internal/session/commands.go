package session

import (
	"fmt"

	"contractcreator/internal/types"
)

// Command is one edit of the object model. The set is closed: every
// variant lives in this file and is dispatched through Editor.Apply.
type Command interface {
	Op() string
	apply(e *Editor) error
}

// PropertyRef addresses a property: Path[0] is the top-level property,
// further elements walk into nested object properties.
type PropertyRef struct {
	Doc  int   `json:"doc"`
	Path []int `json:"path"`
}

// ---- document types ----

type AddDocumentType struct{}

func (AddDocumentType) Op() string { return "addDocumentType" }
func (AddDocumentType) apply(e *Editor) error {
	e.docs = append(e.docs, types.NewDocumentType())
	return nil
}

type RemoveDocumentType struct{ Doc int }

func (RemoveDocumentType) Op() string { return "removeDocumentType" }
func (c RemoveDocumentType) apply(e *Editor) error {
	if _, err := e.doc(c.Doc); err != nil {
		return err
	}
	if len(e.docs) == 1 {
		return ErrLastDocumentType
	}
	e.docs = append(e.docs[:c.Doc], e.docs[c.Doc+1:]...)
	return nil
}

type SetDocumentTypeName struct {
	Doc  int
	Name string
}

func (SetDocumentTypeName) Op() string { return "setDocumentTypeName" }
func (c SetDocumentTypeName) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.Name = c.Name
	return nil
}

type SetDocumentTypeDescription struct {
	Doc         int
	Description string
}

func (SetDocumentTypeDescription) Op() string { return "setDocumentTypeDescription" }
func (c SetDocumentTypeDescription) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.Description = c.Description
	return nil
}

type SetDocumentTypeComment struct {
	Doc     int
	Comment string
}

func (SetDocumentTypeComment) Op() string { return "setDocumentTypeComment" }
func (c SetDocumentTypeComment) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.Comment = c.Comment
	return nil
}

// SetDocumentTypeKeywords takes the comma separated form.
type SetDocumentTypeKeywords struct {
	Doc      int
	Keywords string
}

func (SetDocumentTypeKeywords) Op() string { return "setDocumentTypeKeywords" }
func (c SetDocumentTypeKeywords) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.Keywords = c.Keywords
	return nil
}

type SetCreatedAtRequired struct {
	Doc      int
	Required bool
}

func (SetCreatedAtRequired) Op() string { return "setCreatedAtRequired" }
func (c SetCreatedAtRequired) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.SetCreatedAtRequired(c.Required)
	return nil
}

type SetUpdatedAtRequired struct {
	Doc      int
	Required bool
}

func (SetUpdatedAtRequired) Op() string { return "setUpdatedAtRequired" }
func (c SetUpdatedAtRequired) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.SetUpdatedAtRequired(c.Required)
	return nil
}

type SetDocumentTypeAdditionalProperties struct {
	Doc     int
	Allowed bool
}

func (SetDocumentTypeAdditionalProperties) Op() string {
	return "setDocumentTypeAdditionalProperties"
}
func (c SetDocumentTypeAdditionalProperties) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.AdditionalProperties = c.Allowed
	return nil
}

// ---- properties ----

// AddProperty appends an empty property to a document type, or to the
// object property at Parent when Parent is set.
type AddProperty struct {
	Doc    int
	Parent []int
}

func (AddProperty) Op() string { return "addProperty" }
func (c AddProperty) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	if len(c.Parent)+1 > e.maxDepth {
		return fmt.Errorf("add property under %v: %w", c.Parent, ErrMaxDepth)
	}
	_, err = d.AddPropertyAt(c.Parent)
	return err
}

type RemoveProperty struct{ PropertyRef }

func (RemoveProperty) Op() string { return "removeProperty" }
func (c RemoveProperty) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	return d.RemovePropertyAt(c.Path)
}

// SetPropertyName renames a property. Required lists and index fields keep
// referring to the old name.
type SetPropertyName struct {
	PropertyRef
	Name string
}

func (SetPropertyName) Op() string { return "setPropertyName" }
func (c SetPropertyName) apply(e *Editor) error {
	p, err := e.property(c.PropertyRef)
	if err != nil {
		return err
	}
	p.Name = c.Name
	return nil
}

type SetPropertyType struct {
	PropertyRef
	Type types.DataType
}

func (SetPropertyType) Op() string { return "setPropertyType" }
func (c SetPropertyType) apply(e *Editor) error {
	if !c.Type.Valid() {
		return fmt.Errorf("property type %q: %w", c.Type, ErrInvalidValue)
	}
	p, err := e.property(c.PropertyRef)
	if err != nil {
		return err
	}
	p.SetDataType(c.Type)
	return nil
}

type SetPropertyRequired struct {
	PropertyRef
	Required bool
}

func (SetPropertyRequired) Op() string { return "setPropertyRequired" }
func (c SetPropertyRequired) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	return d.SetRequiredAt(c.Path, c.Required)
}

type SetPropertyDescription struct {
	PropertyRef
	Description string
}

func (SetPropertyDescription) Op() string { return "setPropertyDescription" }
func (c SetPropertyDescription) apply(e *Editor) error {
	p, err := e.property(c.PropertyRef)
	if err != nil {
		return err
	}
	p.Description = c.Description
	return nil
}

type SetPropertyComment struct {
	PropertyRef
	Comment string
}

func (SetPropertyComment) Op() string { return "setPropertyComment" }
func (c SetPropertyComment) apply(e *Editor) error {
	p, err := e.property(c.PropertyRef)
	if err != nil {
		return err
	}
	p.Comment = c.Comment
	return nil
}

// typed resolves the property and checks that the field being set applies
// to its type.
func typed(e *Editor, ref PropertyRef, op string, allowed ...types.DataType) (*types.Property, error) {
	p, err := e.property(ref)
	if err != nil {
		return nil, err
	}
	for _, dt := range allowed {
		if p.DataType == dt {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s on %s property: %w", op, p.DataType, ErrNotApplicable)
}

// Optional numeric fields use nil to clear the value.

type SetPropertyMinLength struct {
	PropertyRef
	Value *int
}

func (SetPropertyMinLength) Op() string { return "setPropertyMinLength" }
func (c SetPropertyMinLength) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeString)
	if err != nil {
		return err
	}
	p.MinLength = c.Value
	return nil
}

type SetPropertyMaxLength struct {
	PropertyRef
	Value *int
}

func (SetPropertyMaxLength) Op() string { return "setPropertyMaxLength" }
func (c SetPropertyMaxLength) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeString)
	if err != nil {
		return err
	}
	p.MaxLength = c.Value
	return nil
}

type SetPropertyPattern struct {
	PropertyRef
	Pattern string
}

func (SetPropertyPattern) Op() string { return "setPropertyPattern" }
func (c SetPropertyPattern) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeString)
	if err != nil {
		return err
	}
	p.Pattern = c.Pattern
	return nil
}

// SetPropertyFormat accepts one of types.StringFormats, or "" to clear.
type SetPropertyFormat struct {
	PropertyRef
	Format string
}

func (SetPropertyFormat) Op() string { return "setPropertyFormat" }
func (c SetPropertyFormat) apply(e *Editor) error {
	if c.Format != "" && !types.IsStringFormat(c.Format) {
		return fmt.Errorf("string format %q: %w", c.Format, ErrInvalidValue)
	}
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeString)
	if err != nil {
		return err
	}
	p.Format = c.Format
	return nil
}

type SetPropertyMinimum struct {
	PropertyRef
	Value *float64
}

func (SetPropertyMinimum) Op() string { return "setPropertyMinimum" }
func (c SetPropertyMinimum) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeInteger, types.DataTypeNumber)
	if err != nil {
		return err
	}
	p.Minimum = c.Value
	return nil
}

type SetPropertyMaximum struct {
	PropertyRef
	Value *float64
}

func (SetPropertyMaximum) Op() string { return "setPropertyMaximum" }
func (c SetPropertyMaximum) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeInteger, types.DataTypeNumber)
	if err != nil {
		return err
	}
	p.Maximum = c.Value
	return nil
}

type SetPropertyMinItems struct {
	PropertyRef
	Value *int
}

func (SetPropertyMinItems) Op() string { return "setPropertyMinItems" }
func (c SetPropertyMinItems) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeArray)
	if err != nil {
		return err
	}
	p.MinItems = c.Value
	return nil
}

type SetPropertyMaxItems struct {
	PropertyRef
	Value *int
}

func (SetPropertyMaxItems) Op() string { return "setPropertyMaxItems" }
func (c SetPropertyMaxItems) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeArray)
	if err != nil {
		return err
	}
	p.MaxItems = c.Value
	return nil
}

type SetPropertyContentMediaType struct {
	PropertyRef
	ContentMediaType string
}

func (SetPropertyContentMediaType) Op() string { return "setPropertyContentMediaType" }
func (c SetPropertyContentMediaType) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeArray)
	if err != nil {
		return err
	}
	p.ContentMediaType = c.ContentMediaType
	return nil
}

type SetPropertyMinProperties struct {
	PropertyRef
	Value *int
}

func (SetPropertyMinProperties) Op() string { return "setPropertyMinProperties" }
func (c SetPropertyMinProperties) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeObject)
	if err != nil {
		return err
	}
	p.MinProperties = c.Value
	return nil
}

type SetPropertyMaxProperties struct {
	PropertyRef
	Value *int
}

func (SetPropertyMaxProperties) Op() string { return "setPropertyMaxProperties" }
func (c SetPropertyMaxProperties) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeObject)
	if err != nil {
		return err
	}
	p.MaxProperties = c.Value
	return nil
}

type SetPropertyAdditionalProperties struct {
	PropertyRef
	Value *bool
}

func (SetPropertyAdditionalProperties) Op() string { return "setPropertyAdditionalProperties" }
func (c SetPropertyAdditionalProperties) apply(e *Editor) error {
	p, err := typed(e, c.PropertyRef, c.Op(), types.DataTypeObject)
	if err != nil {
		return err
	}
	p.AdditionalProperties = c.Value
	return nil
}

// ---- indices ----

type AddIndex struct{ Doc int }

func (AddIndex) Op() string { return "addIndex" }
func (c AddIndex) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	d.AddIndex()
	return nil
}

type RemoveIndex struct{ Doc, Index int }

func (RemoveIndex) Op() string { return "removeIndex" }
func (c RemoveIndex) apply(e *Editor) error {
	d, err := e.doc(c.Doc)
	if err != nil {
		return err
	}
	return d.RemoveIndex(c.Index)
}

type SetIndexName struct {
	Doc, Index int
	Name       string
}

func (SetIndexName) Op() string { return "setIndexName" }
func (c SetIndexName) apply(e *Editor) error {
	ix, err := e.index(c.Doc, c.Index)
	if err != nil {
		return err
	}
	ix.Name = c.Name
	return nil
}

type SetIndexUnique struct {
	Doc, Index int
	Unique     bool
}

func (SetIndexUnique) Op() string { return "setIndexUnique" }
func (c SetIndexUnique) apply(e *Editor) error {
	ix, err := e.index(c.Doc, c.Index)
	if err != nil {
		return err
	}
	ix.Unique = c.Unique
	return nil
}

// AddIndexField appends a field row; Name may be empty (a draft row).
type AddIndexField struct {
	Doc, Index int
	Name       string
}

func (AddIndexField) Op() string { return "addIndexField" }
func (c AddIndexField) apply(e *Editor) error {
	ix, err := e.index(c.Doc, c.Index)
	if err != nil {
		return err
	}
	ix.AddField(c.Name)
	return nil
}

type RemoveIndexField struct{ Doc, Index, Field int }

func (RemoveIndexField) Op() string { return "removeIndexField" }
func (c RemoveIndexField) apply(e *Editor) error {
	ix, err := e.index(c.Doc, c.Index)
	if err != nil {
		return err
	}
	return ix.RemoveField(c.Field)
}

type SetIndexFieldName struct {
	Doc, Index, Field int
	Name              string
}

func (SetIndexFieldName) Op() string { return "setIndexFieldName" }
func (c SetIndexFieldName) apply(e *Editor) error {
	ix, err := e.index(c.Doc, c.Index)
	if err != nil {
		return err
	}
	return ix.SetFieldName(c.Field, c.Name)
}
