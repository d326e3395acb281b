package handler

import (
	"context"
	"net/http"

	"contractcreator/internal/gateway/repository/snapshot"
	"contractcreator/internal/schema"
	"contractcreator/internal/session"
)

type saveSnapshotRequest struct {
	Name string `json:"name"`
}

// SaveSnapshot stores the session's current canonical contract.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var in saveSnapshotRequest
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	current, err := s.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap := snapshot.New(s.ID(), in.Name, current.Contract)
	if err := h.snapshots.Put(r.Context(), snap); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Infow("snapshot saved", "session", s.ID(), "snapshot", snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.snapshots.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Get(r.Context(), r.PathValue("snapshotID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Delete(r.Context(), r.PathValue("snapshotID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadSnapshot replaces the session's model with a stored contract and
// starts validating it.
func (h *Handler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	stored, err := h.snapshots.Get(r.Context(), r.PathValue("snapshotID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	docs, err := schema.Parse(stored.Contract)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sessionCall(w, r, func(ctx context.Context, s *session.Session) (session.Snapshot, error) {
		return s.Load(ctx, docs)
	})
}
