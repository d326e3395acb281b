package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractcreator/internal/schema"
	"contractcreator/internal/types"
	"contractcreator/internal/validation"
)

const noteContract = `{"note":{"type":"object","properties":{"message":{"position":0,"type":"string","maxLength":63}},` +
	`"indices":[{"name":"byMessage","properties":[{"message":"asc"}]}],"required":["message"],"additionalProperties":false}}`

func ptr[T any](v T) *T { return &v }

func ref(doc int, path ...int) PropertyRef { return PropertyRef{Doc: doc, Path: path} }

func buildNote(t *testing.T, e *Editor) {
	t.Helper()
	for _, cmd := range []Command{
		SetDocumentTypeName{Doc: 0, Name: "note"},
		AddProperty{Doc: 0},
		SetPropertyName{PropertyRef: ref(0, 0), Name: "message"},
		SetPropertyRequired{PropertyRef: ref(0, 0), Required: true},
		SetPropertyMaxLength{PropertyRef: ref(0, 0), Value: ptr(63)},
		AddIndex{Doc: 0},
		SetIndexName{Doc: 0, Index: 0, Name: "byMessage"},
		AddIndexField{Doc: 0, Index: 0, Name: "message"},
	} {
		require.NoError(t, e.Apply(cmd), cmd.Op())
	}
}

func TestEditor_StartsWithOneDraft(t *testing.T) {
	e := NewEditor()
	docs := e.Documents()
	require.Len(t, docs, 1)
	assert.True(t, docs[0].IsDraft())
	assert.Equal(t, "{}", e.Canonical())
	assert.Equal(t, "{}", e.Output())
	assert.False(t, e.HasContent())
	assert.Equal(t, validation.StatusUnvalidated, e.ValidationState().Status)
}

func TestEditor_CommandsBuildContract(t *testing.T) {
	e := NewEditor(WithFormat(schema.FormatCompact))
	buildNote(t, e)
	assert.Equal(t, noteContract, e.Canonical())
	assert.Equal(t, noteContract, e.Output())
	assert.Equal(t, [][]string{{"message", "$ownerId", "$createdAt", "$updatedAt"}}, e.FieldChoices())
	assert.Equal(t, uint64(8), e.Epoch())
}

func TestEditor_InvalidationFollowsGeneratedText(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	require.True(t, e.CompleteValidation(e.Canonical(), nil))
	require.True(t, e.ValidationState().Passed())

	// Re-applying the same value leaves the text, and the result, intact.
	require.NoError(t, e.Apply(SetPropertyRequired{PropertyRef: ref(0, 0), Required: true}))
	assert.True(t, e.ValidationState().Passed())

	// Format changes never touch validation.
	e.SetFormat(schema.FormatYAML)
	assert.True(t, e.ValidationState().Passed())
	assert.Contains(t, e.Output(), "note:")

	// Descriptions are part of the contract.
	require.NoError(t, e.Apply(SetPropertyDescription{PropertyRef: ref(0, 0), Description: "body"}))
	assert.Equal(t, validation.StatusUnvalidated, e.ValidationState().Status)
}

func TestEditor_ToggleAndRevertStaysUnvalidated(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	original := e.Canonical()
	require.True(t, e.CompleteValidation(original, nil))

	require.NoError(t, e.Apply(SetPropertyRequired{PropertyRef: ref(0, 0), Required: false}))
	assert.Equal(t, validation.StatusUnvalidated, e.ValidationState().Status)

	// Back to the validated text, but the earlier result is gone.
	require.NoError(t, e.Apply(SetPropertyRequired{PropertyRef: ref(0, 0), Required: true}))
	assert.Equal(t, original, e.Canonical())
	assert.Equal(t, validation.StatusUnvalidated, e.ValidationState().Status)
}

func TestEditor_StaleValidationIsDiscarded(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	sent := e.Canonical()
	require.NoError(t, e.Apply(SetDocumentTypeName{Doc: 0, Name: "memo"}))
	assert.False(t, e.CompleteValidation(sent, nil))
	assert.Equal(t, validation.StatusUnvalidated, e.ValidationState().Status)
}

func TestEditor_TypeChangeClearsFields(t *testing.T) {
	e := NewEditor(WithFormat(schema.FormatCompact))
	require.NoError(t, e.Apply(SetDocumentTypeName{Doc: 0, Name: "d"}))
	require.NoError(t, e.Apply(AddProperty{Doc: 0}))
	p := ref(0, 0)
	require.NoError(t, e.Apply(SetPropertyName{PropertyRef: p, Name: "f"}))
	require.NoError(t, e.Apply(SetPropertyPattern{PropertyRef: p, Pattern: "^a"}))
	require.NoError(t, e.Apply(SetPropertyFormat{PropertyRef: p, Format: "email"}))
	require.NoError(t, e.Apply(SetPropertyType{PropertyRef: p, Type: types.DataTypeArray}))

	assert.Equal(t, `{"d":{"type":"object","properties":{"f":{"position":0,"type":"array","byteArray":true}},"additionalProperties":false}}`, e.Canonical())

	err := e.Apply(SetPropertyPattern{PropertyRef: p, Pattern: "x"})
	assert.ErrorIs(t, err, ErrNotApplicable)
	err = e.Apply(SetPropertyFormat{PropertyRef: p, Format: "color"})
	assert.ErrorIs(t, err, ErrInvalidValue)
	err = e.Apply(SetPropertyType{PropertyRef: p, Type: "date"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEditor_NestingDepth(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.Apply(AddProperty{Doc: 0}))
	require.NoError(t, e.Apply(SetPropertyType{PropertyRef: ref(0, 0), Type: types.DataTypeObject}))
	require.NoError(t, e.Apply(AddProperty{Doc: 0, Parent: []int{0}}))
	require.NoError(t, e.Apply(SetPropertyType{PropertyRef: ref(0, 0, 0), Type: types.DataTypeObject}))
	require.NoError(t, e.Apply(AddProperty{Doc: 0, Parent: []int{0, 0}}))
	require.NoError(t, e.Apply(SetPropertyType{PropertyRef: ref(0, 0, 0, 0), Type: types.DataTypeObject}))

	epoch := e.Epoch()
	err := e.Apply(AddProperty{Doc: 0, Parent: []int{0, 0, 0}})
	assert.ErrorIs(t, err, ErrMaxDepth)
	assert.Equal(t, epoch, e.Epoch())

	deep := NewEditor(WithMaxNestingDepth(4))
	require.NoError(t, deep.Apply(AddProperty{Doc: 0}))
	require.NoError(t, deep.Apply(SetPropertyType{PropertyRef: ref(0, 0), Type: types.DataTypeString}))
	err = deep.Apply(AddProperty{Doc: 0, Parent: []int{0}})
	assert.ErrorIs(t, err, types.ErrNotObject)
}

func TestEditor_OutOfRange(t *testing.T) {
	e := NewEditor()
	for _, cmd := range []Command{
		SetDocumentTypeName{Doc: 3, Name: "x"},
		RemoveProperty{ref(0, 0)},
		SetPropertyName{PropertyRef: ref(0, 2), Name: "x"},
		RemoveIndex{Doc: 0, Index: 0},
		SetIndexFieldName{Doc: 0, Index: 0, Field: 0, Name: "x"},
	} {
		assert.ErrorIs(t, e.Apply(cmd), ErrOutOfRange, cmd.Op())
	}
	assert.ErrorIs(t, e.Apply(RemoveDocumentType{Doc: 0}), ErrLastDocumentType)
	assert.ErrorIs(t, e.DismissMessage(0), ErrOutOfRange)
}

func TestEditor_RemovePropertyPrunesRequired(t *testing.T) {
	e := NewEditor(WithFormat(schema.FormatCompact))
	buildNote(t, e)
	require.NoError(t, e.Apply(AddProperty{Doc: 0}))
	require.NoError(t, e.Apply(SetPropertyName{PropertyRef: ref(0, 1), Name: "tag"}))
	require.NoError(t, e.Apply(RemoveProperty{ref(0, 0)}))

	docs := e.Documents()
	assert.Empty(t, docs[0].Required)
	assert.Equal(t, 0, docs[0].Properties[0].Position)
	assert.NotContains(t, e.Canonical(), `"required"`)
}

func TestEditor_RenameKeepsReferences(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	require.NoError(t, e.Apply(SetPropertyName{PropertyRef: ref(0, 0), Name: "body"}))
	doc := e.Documents()[0]
	assert.Equal(t, []string{"message"}, doc.Required)
	assert.Equal(t, "message", doc.Indices[0].Fields[0].Name)
}

func TestEditor_ImportIsAtomic(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	before := e.Canonical()
	epoch := e.Epoch()

	err := e.Import(`{"note":{"type":"object","properties":{"a":{"type":"date"}}}}`)
	var perr *schema.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, schema.KindUnknownType, perr.Kind)
	assert.Equal(t, before, e.Canonical())
	assert.Equal(t, epoch, e.Epoch())
	require.Len(t, e.Messages(), 1)
	assert.Equal(t, "Import failed: Unknown type 'date' for property 'a' in document type 'note'", e.Messages()[0])

	assert.ErrorIs(t, e.Import("   "), ErrEmptyImport)

	require.NoError(t, e.Import(`{}`))
	docs := e.Documents()
	require.Len(t, docs, 1)
	assert.True(t, docs[0].IsDraft())

	require.NoError(t, e.Import(noteContract))
	assert.Equal(t, noteContract, e.Canonical())

	require.NoError(t, e.DismissMessage(-1))
	assert.Empty(t, e.Messages())
}

func TestEditor_ClearResets(t *testing.T) {
	e := NewEditor()
	buildNote(t, e)
	require.True(t, e.CompleteValidation(e.Canonical(), []types.StructuredError{{Message: "x"}}))

	e.Clear()
	assert.Equal(t, "{}", e.Canonical())
	assert.Equal(t, validation.State{}, e.ValidationState())
	require.Len(t, e.Documents(), 1)
}

func TestEditor_AcceptGeneratedWithoutPropertyType(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AcceptGenerated(`{"note":{"type":"object","properties":{"message":{"position":0}},"additionalProperties":false}}`))
	assert.Equal(t, `{"note":{"type":"object","properties":{"message":{"position":0,"type":"string"}},"additionalProperties":false}}`, e.Canonical())
	assert.Empty(t, e.Messages())
}
