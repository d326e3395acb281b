// Package session holds the editor state of one user: the object model,
// the generated contract text, validation state and the async LLM and
// validator round trips that feed into it.
package session

import (
	"errors"
	"fmt"
	"strings"

	"contractcreator/internal/logging"
	"contractcreator/internal/schema"
	"contractcreator/internal/types"
	"contractcreator/internal/validation"
)

const DefaultMaxNestingDepth = 3

var (
	// ErrOutOfRange is returned for command addresses that do not exist.
	ErrOutOfRange = types.ErrOutOfRange

	ErrMaxDepth          = errors.New("session: maximum nesting depth reached")
	ErrNotApplicable     = errors.New("session: field does not apply to the property type")
	ErrInvalidValue      = errors.New("session: invalid value")
	ErrLastDocumentType  = errors.New("session: cannot remove the last document type")
	ErrEmptyImport       = errors.New("session: nothing to import")
	ErrUnknownCommand    = errors.New("session: unknown command")
	ErrMalformedEnvelope = errors.New("session: malformed command")
)

// Editor is the synchronous core of a session. Every change to the model
// goes through refresh, which regenerates the contract text and lets the
// validation controller decide whether the last result still holds.
//
// Editor is not safe for concurrent use.
type Editor struct {
	docs       []types.DocumentType
	controller *validation.Controller
	format     schema.Format
	maxDepth   int

	canonical string
	output    string
	epoch     uint64

	prompts  []string
	messages []string

	logger logging.Logger
}

type EditorOption func(*Editor)

func WithMaxNestingDepth(n int) EditorOption {
	return func(e *Editor) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func WithFormat(f schema.Format) EditorOption {
	return func(e *Editor) { e.format = f }
}

func WithEditorLogger(l logging.Logger) EditorOption {
	return func(e *Editor) { e.logger = l }
}

// NewEditor starts with a single empty draft document type.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{
		controller: validation.NewController(),
		format:     schema.FormatPretty,
		maxDepth:   DefaultMaxNestingDepth,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.docs = []types.DocumentType{types.NewDocumentType()}
	e.refresh()
	return e
}

// Apply runs one edit command.
func (e *Editor) Apply(cmd Command) error {
	if err := cmd.apply(e); err != nil {
		return err
	}
	e.epoch++
	e.refresh()
	return nil
}

// Import replaces the model with parsed contract text. On failure the model
// is left as it was and the cause is added to the message list.
func (e *Editor) Import(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyImport
	}
	docs, err := schema.Parse(text)
	if err != nil {
		e.AddMessage("Import failed: " + err.Error())
		return err
	}
	e.replace(docs)
	return nil
}

// AcceptGenerated replaces the model with contract text produced by the LLM.
func (e *Editor) AcceptGenerated(text string) error {
	docs, err := schema.Parse(text)
	if err != nil {
		e.AddMessage("Failed to parse generated schema: " + err.Error())
		return err
	}
	e.replace(docs)
	return nil
}

// Load replaces the model with document types from elsewhere, such as a
// stored snapshot.
func (e *Editor) Load(docs []types.DocumentType) {
	e.replace(types.CloneAll(docs))
}

func (e *Editor) replace(docs []types.DocumentType) {
	if len(docs) == 0 {
		docs = []types.DocumentType{types.NewDocumentType()}
	}
	e.docs = docs
	e.epoch++
	e.refresh()
}

// Clear resets the model to one empty draft and forgets validation state.
func (e *Editor) Clear() {
	e.docs = []types.DocumentType{types.NewDocumentType()}
	e.controller.Reset()
	e.epoch++
	e.refresh()
}

// SetFormat changes how Output renders. Validation state is unaffected.
func (e *Editor) SetFormat(f schema.Format) {
	e.format = f
	e.render()
}

func (e *Editor) refresh() {
	text, err := schema.Canonical(e.docs)
	if err != nil {
		// Generation only fails on a broken model.
		e.logger.Errorf("generate contract: %v", err)
		e.AddMessage("Failed to generate contract: " + err.Error())
		return
	}
	e.canonical = text
	if e.controller.Observe(text) {
		e.logger.Debugf("contract changed, validation state dropped")
	}
	e.render()
}

func (e *Editor) render() {
	out, err := schema.Render(e.docs, e.format)
	if err != nil {
		e.logger.Errorf("render contract: %v", err)
		return
	}
	e.output = out
}

// CompleteValidation hands a validator result to the controller. It reports
// false when text is no longer the current contract.
func (e *Editor) CompleteValidation(text string, errs []types.StructuredError) bool {
	return e.controller.Complete(text, errs)
}

// Canonical is the compact contract text validators see.
func (e *Editor) Canonical() string { return e.canonical }

// Output is the contract rendered in the current format.
func (e *Editor) Output() string { return e.output }

func (e *Editor) Format() schema.Format { return e.format }

// Epoch increases with every change to the model.
func (e *Editor) Epoch() uint64 { return e.epoch }

func (e *Editor) ValidationState() validation.State { return e.controller.State() }

// Documents returns a deep copy of the model.
func (e *Editor) Documents() []types.DocumentType { return types.CloneAll(e.docs) }

// HasContent reports whether any document type would be emitted.
func (e *Editor) HasContent() bool {
	for i := range e.docs {
		if !e.docs[i].IsDraft() {
			return true
		}
	}
	return false
}

func (e *Editor) RecordPrompt(prompt string) { e.prompts = append(e.prompts, prompt) }

func (e *Editor) PromptHistory() []string { return append([]string(nil), e.prompts...) }

func (e *Editor) AddMessage(msg string) { e.messages = append(e.messages, msg) }

func (e *Editor) Messages() []string { return append([]string(nil), e.messages...) }

// DismissMessage removes one message; a negative index removes all.
func (e *Editor) DismissMessage(i int) error {
	if i < 0 {
		e.messages = nil
		return nil
	}
	if i >= len(e.messages) {
		return fmt.Errorf("dismiss message %d: %w", i, ErrOutOfRange)
	}
	e.messages = append(e.messages[:i], e.messages[i+1:]...)
	return nil
}

// FieldChoices lists, per document type, the names an index field may use.
func (e *Editor) FieldChoices() [][]string {
	out := make([][]string, len(e.docs))
	for i := range e.docs {
		out[i] = e.docs[i].IndexFieldChoices()
	}
	return out
}

func (e *Editor) doc(i int) (*types.DocumentType, error) {
	if i < 0 || i >= len(e.docs) {
		return nil, fmt.Errorf("document type %d: %w", i, ErrOutOfRange)
	}
	return &e.docs[i], nil
}

func (e *Editor) property(ref PropertyRef) (*types.Property, error) {
	d, err := e.doc(ref.Doc)
	if err != nil {
		return nil, err
	}
	return d.PropertyAt(ref.Path)
}

func (e *Editor) index(doc, i int) (*types.Index, error) {
	d, err := e.doc(doc)
	if err != nil {
		return nil, err
	}
	return d.IndexAt(i)
}
