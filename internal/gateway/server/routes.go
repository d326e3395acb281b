package server

import (
	"net/http"

	"contractcreator/internal/gateway/handler"
	"contractcreator/internal/gateway/middleware"
	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
)

// NewMux registers the API routes. allowedOrigins feeds the CORS
// middleware; empty means any origin.
func NewMux(h *handler.Handler, m *metrics.Metrics, logger logging.Logger, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", h.CreateSession)
	mux.HandleFunc("GET /sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /sessions/{id}/commands", h.ApplyCommand)
	mux.HandleFunc("POST /sessions/{id}/import", h.Import)
	mux.HandleFunc("POST /sessions/{id}/clear", h.Clear)
	mux.HandleFunc("POST /sessions/{id}/validate", h.Validate)
	mux.HandleFunc("POST /sessions/{id}/generate", h.Generate)
	mux.HandleFunc("POST /sessions/{id}/format", h.SetFormat)
	mux.HandleFunc("DELETE /sessions/{id}/errors", h.DismissMessages)
	mux.HandleFunc("GET /sessions/{id}/events", h.Events)

	mux.HandleFunc("POST /sessions/{id}/snapshots", h.SaveSnapshot)
	mux.HandleFunc("POST /sessions/{id}/snapshots/{snapshotID}/load", h.LoadSnapshot)
	mux.HandleFunc("GET /snapshots", h.ListSnapshots)
	mux.HandleFunc("GET /snapshots/{snapshotID}", h.GetSnapshot)
	mux.HandleFunc("DELETE /snapshots/{snapshotID}", h.DeleteSnapshot)

	mux.HandleFunc("GET /commands", h.ListCommands)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", m.Handler())

	return middleware.CORS(allowedOrigins)(middleware.AccessLog(logger)(mux))
}
