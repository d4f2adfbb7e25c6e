// Package handler serves the CV builder API: session REST endpoints
// and the websocket chat stream.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"cvarchitect/internal/conversation"
	"cvarchitect/internal/repository/export"
	"cvarchitect/internal/repository/sessionstore"
	"cvarchitect/internal/transport"
)

type Handler struct {
	mgr       *conversation.Manager
	store     *sessionstore.Store
	exports   export.Store
	extractor transport.DocumentExtractor
}

func New(mgr *conversation.Manager, store *sessionstore.Store, exports export.Store, extractor transport.DocumentExtractor) *Handler {
	return &Handler{mgr: mgr, store: store, exports: exports, extractor: extractor}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the {id} path value or writes a 404.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*conversation.Session, bool) {
	id := r.PathValue("id")
	s, ok := h.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
