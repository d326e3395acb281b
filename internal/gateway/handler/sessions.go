package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"contractcreator/internal/schema"
	"contractcreator/internal/session"
)

// sessionCall runs op against the session named in the path and writes the
// resulting snapshot.
func (h *Handler) sessionCall(w http.ResponseWriter, r *http.Request, op func(context.Context, *session.Session) (session.Snapshot, error)) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := op(r.Context(), s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Snapshot(ctx)
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCommand takes one command envelope, e.g.
// {"op":"setPropertyName","doc":0,"path":[0],"value":"title"}.
func (h *Handler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd, err := session.DecodeCommand(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Apply(ctx, cmd)
	})
}

func (h *Handler) ListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ops": session.Ops()})
}

type importRequest struct {
	Text string `json:"text"`
	// Format is "json" (default) or "yaml".
	Format string `json:"format,omitempty"`
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var in importRequest
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	text := in.Text
	if strings.EqualFold(in.Format, "yaml") && strings.TrimSpace(text) != "" {
		// YAML is converted up front so the session only ever sees JSON.
		docs, err := schema.ParseYAML(text)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if text, err = schema.Canonical(docs); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Import(ctx, text)
	})
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Clear(ctx)
	})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Validate(ctx)
	})
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate returns immediately with generating set; the result arrives on
// the event stream or a later GET.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Generate(ctx, in.Prompt)
	})
}

type formatRequest struct {
	Format string `json:"format"`
}

func (h *Handler) SetFormat(w http.ResponseWriter, r *http.Request) {
	var in formatRequest
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := schema.ParseFormat(in.Format)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.SetFormat(ctx, f)
	})
}

// DismissMessages removes the message at ?index=N, or all of them.
func (h *Handler) DismissMessages(w http.ResponseWriter, r *http.Request) {
	i := -1
	if raw := strings.TrimSpace(r.URL.Query().Get("index")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("%w: index must be a non-negative integer", errBadRequest))
			return
		}
		i = n
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.DismissMessage(ctx, i)
	})
}
