// Package handler exposes editor sessions and saved snapshots over JSON
// HTTP and a websocket event stream.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"contractcreator/internal/gateway/registry"
	"contractcreator/internal/gateway/repository/snapshot"
	"contractcreator/internal/logging"
	"contractcreator/internal/schema"
	"contractcreator/internal/session"
	"contractcreator/internal/types"
)

const maxBodyBytes = 4 << 20

var errBadRequest = errors.New("bad request")

type Handler struct {
	sessions  *registry.Registry
	snapshots snapshot.Store
	logger    logging.Logger
}

func New(sessions *registry.Registry, snapshots snapshot.Store, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.New("handler")
	}
	if snapshots == nil {
		snapshots = snapshot.NewMemoryStore()
	}
	return &Handler{sessions: sessions, snapshots: snapshots, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	// Kind is set for contract parse failures.
	Kind string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	resp := errorResponse{Error: err.Error()}
	var perr *schema.ParseError
	if errors.As(err, &perr) {
		resp.Kind = perr.Kind.String()
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var perr *schema.ParseError
	switch {
	case errors.Is(err, registry.ErrSessionNotFound),
		errors.Is(err, snapshot.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrMalformedEnvelope),
		errors.Is(err, session.ErrUnknownCommand),
		errors.Is(err, session.ErrInvalidValue),
		errors.Is(err, session.ErrEmptyImport),
		errors.Is(err, session.ErrEmptyPrompt),
		errors.Is(err, snapshot.ErrInvalid):
		return http.StatusBadRequest
	case errors.As(err, &perr),
		errors.Is(err, session.ErrNotApplicable),
		errors.Is(err, session.ErrMaxDepth),
		errors.Is(err, session.ErrLastDocumentType),
		errors.Is(err, session.ErrOutOfRange),
		errors.Is(err, types.ErrNotObject),
		errors.Is(err, types.ErrEmptyPath):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoGenerator),
		errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	return body, nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := gojson.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) session(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(r.PathValue("id"))
}
