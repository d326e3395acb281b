package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
	"contractcreator/internal/schema"
	"contractcreator/internal/types"
	"contractcreator/internal/validation"
)

var (
	ErrClosed      = errors.New("session: closed")
	ErrEmptyPrompt = errors.New("session: prompt is empty")
	ErrNoGenerator = errors.New("session: no contract generator configured")
)

// ContractGenerator produces contract JSON from a natural-language prompt.
// existing is empty when a new contract is requested.
type ContractGenerator interface {
	GenerateContract(ctx context.Context, prompt, existing string) (string, error)
}

// Config holds per-session policy.
type Config struct {
	MaxNestingDepth int
	Format          schema.Format
	// DiscardStaleAI drops an AI response when the model changed after the
	// request was sent. Off by default: the response replaces the model.
	DiscardStaleAI bool
}

// Deps are the collaborators a session calls out to.
type Deps struct {
	Generator ContractGenerator
	Validator validation.Validator
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

// Snapshot is the client-visible state of a session after an event.
// Contract is the compact canonical text; Output is rendered in Format.
type Snapshot struct {
	ID            string               `json:"id"`
	Documents     []types.DocumentType `json:"documents"`
	Contract      string               `json:"contract"`
	Output        string               `json:"output"`
	Format        schema.Format        `json:"format"`
	Validation    validation.State     `json:"validation"`
	Generating    bool                 `json:"generating"`
	Validating    bool                 `json:"validating"`
	PromptHistory []string             `json:"promptHistory"`
	Messages      []string             `json:"messages"`
	FieldChoices  [][]string           `json:"fieldChoices"`
	Epoch         uint64               `json:"epoch"`
}

// Session serializes every event touching one Editor on a single goroutine.
// LLM and validator calls run on their own goroutines and hand their result
// back to the loop as an event.
type Session struct {
	id     string
	cfg    Config
	deps   Deps
	editor *Editor

	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	tasks  sync.WaitGroup

	// loop-owned
	generating        bool
	validating        bool
	revalidatePending bool

	subMu       sync.Mutex
	subscribers map[int]chan Snapshot
	nextSub     int
	subsClosed  bool
}

// New starts a session. Close releases it.
func New(id string, cfg Config, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = logging.New("session", "id", id)
	}
	if cfg.Format == "" {
		cfg.Format = schema.FormatPretty
	}
	editor := NewEditor(
		WithMaxNestingDepth(cfg.MaxNestingDepth),
		WithFormat(cfg.Format),
		WithEditorLogger(deps.Logger),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          id,
		cfg:         cfg,
		deps:        deps,
		editor:      editor,
		events:      make(chan func()),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		subscribers: make(map[int]chan Snapshot),
	}
	go s.loop()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case ev := <-s.events:
			ev()
			s.publish()
		case <-s.ctx.Done():
			s.subMu.Lock()
			for id, ch := range s.subscribers {
				close(ch)
				delete(s.subscribers, id)
			}
			s.subsClosed = true
			s.subMu.Unlock()
			return
		}
	}
}

// Close stops the loop and waits for outstanding LLM and validator calls,
// whose context is canceled.
func (s *Session) Close() {
	s.cancel()
	<-s.done
	s.tasks.Wait()
}

// call runs fn on the loop and returns the snapshot taken right after it.
func (s *Session) call(ctx context.Context, fn func() error) (Snapshot, error) {
	type result struct {
		snap Snapshot
		err  error
	}
	reply := make(chan result, 1)
	ev := func() {
		err := fn()
		reply <- result{snap: s.snapshot(), err: err}
	}
	select {
	case s.events <- ev:
	case <-s.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// post hands a task result back to the loop. It is dropped once the session
// is closed.
func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

func (s *Session) spawn(fn func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn()
	}()
}

// Snapshot returns the current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.call(ctx, func() error { return nil })
}

// Apply runs one edit command.
func (s *Session) Apply(ctx context.Context, cmd Command) (Snapshot, error) {
	return s.call(ctx, func() error {
		if err := s.editor.Apply(cmd); err != nil {
			return err
		}
		s.deps.Metrics.AddCommand(cmd.Op())
		return nil
	})
}

// Import replaces the model with contract text and, on success, starts a
// validation run.
func (s *Session) Import(ctx context.Context, text string) (Snapshot, error) {
	return s.call(ctx, func() error {
		if err := s.editor.Import(text); err != nil {
			s.deps.Metrics.AddImport(metrics.ResultError)
			return err
		}
		s.deps.Metrics.AddImport(metrics.ResultOK)
		s.startValidation()
		return nil
	})
}

// Load replaces the model with stored document types and validates them.
func (s *Session) Load(ctx context.Context, docs []types.DocumentType) (Snapshot, error) {
	return s.call(ctx, func() error {
		s.editor.Load(docs)
		s.startValidation()
		return nil
	})
}

// Clear resets the model and validation state.
func (s *Session) Clear(ctx context.Context) (Snapshot, error) {
	return s.call(ctx, func() error {
		s.editor.Clear()
		return nil
	})
}

func (s *Session) SetFormat(ctx context.Context, f schema.Format) (Snapshot, error) {
	return s.call(ctx, func() error {
		s.editor.SetFormat(f)
		return nil
	})
}

// DismissMessage removes one message, or all of them when i is negative.
func (s *Session) DismissMessage(ctx context.Context, i int) (Snapshot, error) {
	return s.call(ctx, func() error { return s.editor.DismissMessage(i) })
}

// Generate asks the LLM for a contract. It returns once the request is
// issued; the result arrives as a later snapshot. A second call while one
// is outstanding does nothing.
func (s *Session) Generate(ctx context.Context, prompt string) (Snapshot, error) {
	return s.call(ctx, func() error {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			return ErrEmptyPrompt
		}
		if s.deps.Generator == nil {
			return ErrNoGenerator
		}
		if s.generating {
			s.deps.Logger.Debugf("generate ignored, request already in flight")
			return nil
		}
		s.generating = true
		_ = s.editor.DismissMessage(-1)

		existing := ""
		if s.editor.HasContent() {
			existing = s.editor.Canonical()
		}
		epoch := s.editor.Epoch()
		gen := s.deps.Generator
		s.spawn(func() {
			text, err := gen.GenerateContract(s.ctx, prompt, existing)
			s.post(func() { s.onGenerated(prompt, epoch, text, err) })
		})
		return nil
	})
}

func (s *Session) onGenerated(prompt string, epoch uint64, text string, err error) {
	s.generating = false
	if err != nil {
		s.deps.Logger.Warnf("contract generation failed: %v", err)
		s.editor.AddMessage(err.Error())
		return
	}
	if s.cfg.DiscardStaleAI && epoch != s.editor.Epoch() {
		s.deps.Logger.Infof("discarding AI response for epoch %d, model is at %d", epoch, s.editor.Epoch())
		s.editor.AddMessage("Discarded the generated contract because the model was edited while it was being generated.")
		return
	}
	s.editor.RecordPrompt(prompt)
	if err := s.editor.AcceptGenerated(text); err != nil {
		return
	}
	s.startValidation()
}

// Validate sends the current contract to the validator. A second call while
// one is outstanding does nothing.
func (s *Session) Validate(ctx context.Context) (Snapshot, error) {
	return s.call(ctx, func() error {
		if s.validating {
			s.deps.Logger.Debugf("validate ignored, request already in flight")
			return nil
		}
		s.startValidation()
		return nil
	})
}

// startValidation runs on the loop. If a run is outstanding, another one
// follows it so the model that triggered this call gets validated.
func (s *Session) startValidation() {
	if s.deps.Validator == nil {
		s.editor.AddMessage(validation.ErrValidatorUnavailable.Error())
		return
	}
	if s.validating {
		s.revalidatePending = true
		return
	}
	s.validating = true
	text := s.editor.Canonical()
	v := s.deps.Validator
	s.spawn(func() {
		errs, err := v.Validate(s.ctx, text)
		s.post(func() { s.onValidated(text, errs, err) })
	})
}

func (s *Session) onValidated(text string, errs []types.StructuredError, err error) {
	s.validating = false
	switch {
	case err != nil:
		s.deps.Logger.Warnf("validation failed: %v", err)
		s.editor.AddMessage("Validation failed: " + err.Error())
	case !s.editor.CompleteValidation(text, errs):
		s.deps.Logger.Debugf("discarding validation result for stale contract")
		s.deps.Metrics.AddValidation(metrics.ResultDiscarded, 0)
	}
	if s.revalidatePending {
		s.revalidatePending = false
		if text != s.editor.Canonical() {
			s.startValidation()
		}
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// event. Slow readers only see the newest one. The channel is closed when
// the session closes or cancel is called.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	if s.subsClosed {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
}

func (s *Session) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshot()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:            s.id,
		Documents:     s.editor.Documents(),
		Contract:      s.editor.Canonical(),
		Output:        s.editor.Output(),
		Format:        s.editor.Format(),
		Validation:    s.editor.ValidationState(),
		Generating:    s.generating,
		Validating:    s.validating,
		PromptHistory: s.editor.PromptHistory(),
		Messages:      s.editor.Messages(),
		FieldChoices:  s.editor.FieldChoices(),
		Epoch:         s.editor.Epoch(),
	}
}
