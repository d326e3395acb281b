package validation

import (
	"encoding/json"

	"contractcreator/internal/types"
)

// Status of the last validation relative to the current contract text.
type Status int

const (
	StatusUnvalidated Status = iota
	StatusValidated
)

func (s Status) String() string {
	if s == StatusValidated {
		return "validated"
	}
	return "unvalidated"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// State is what clients see: either Unvalidated, or Validated with the
// findings (empty findings mean the contract passed).
type State struct {
	Status Status                  `json:"status"`
	Errors []types.StructuredError `json:"errors,omitempty"`
}

// Passed reports a validated contract without findings.
func (s State) Passed() bool {
	return s.Status == StatusValidated && len(s.Errors) == 0
}

// Controller tracks whether the latest validation result still describes
// the current contract text. It is not safe for concurrent use; the editor
// session owns it.
type Controller struct {
	current  string
	observed bool
	state    State
}

func NewController() *Controller {
	return &Controller{}
}

// Observe records freshly generated contract text. Any difference from the
// previous text drops a prior result; identical text leaves it intact.
// It reports whether the state was invalidated.
func (c *Controller) Observe(text string) bool {
	if c.observed && text == c.current {
		return false
	}
	c.current = text
	c.observed = true
	c.state = State{}
	return true
}

// Complete stores a validator result for text. Results for text that is no
// longer current are discarded and Complete returns false.
func (c *Controller) Complete(text string, errs []types.StructuredError) bool {
	if !c.observed || text != c.current {
		return false
	}
	c.state = State{
		Status: StatusValidated,
		Errors: append([]types.StructuredError(nil), errs...),
	}
	return true
}

// Reset forgets both the result and the last observed text.
func (c *Controller) Reset() {
	*c = Controller{}
}

func (c *Controller) State() State {
	return State{
		Status: c.state.Status,
		Errors: append([]types.StructuredError(nil), c.state.Errors...),
	}
}

// Current returns the last observed contract text.
func (c *Controller) Current() string { return c.current }
