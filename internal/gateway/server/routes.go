package server

import (
	"net/http"

	"cvarchitect/internal/gateway/handler"
	"cvarchitect/internal/gateway/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("POST /v1/sessions", h.CreateSession)
	mux.HandleFunc("GET /v1/sessions", h.ListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("GET /v1/sessions/{id}/document", h.GetDocument)
	mux.HandleFunc("GET /v1/sessions/{id}/preview", h.Preview)
	mux.HandleFunc("GET /v1/sessions/{id}/chat", h.Chat)

	mux.HandleFunc("POST /v1/sessions/{id}/accept", h.Accept)
	mux.HandleFunc("POST /v1/sessions/{id}/deny", h.Deny)
	mux.HandleFunc("POST /v1/sessions/{id}/undo", h.Undo)
	mux.HandleFunc("POST /v1/sessions/{id}/redo", h.Redo)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", h.Reset)
	mux.HandleFunc("POST /v1/sessions/{id}/job", h.SetJob)
	mux.HandleFunc("POST /v1/sessions/{id}/notifications/{nid}/dismiss", h.DismissNotification)
	mux.HandleFunc("POST /v1/sessions/{id}/import", h.Import)
	mux.HandleFunc("POST /v1/sessions/{id}/finalize", h.Finalize)

	mux.HandleFunc("GET /v1/sessions/{id}/exports", h.ListExports)
	mux.HandleFunc("GET /v1/sessions/{id}/exports/{name}", h.GetExport)

	return middleware.CORS(mux)
}
