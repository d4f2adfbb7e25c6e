package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cvarchitect/internal/approval"
	"cvarchitect/internal/importer"
	"cvarchitect/internal/render"
	"cvarchitect/internal/repository/export"
)

// maxImportBytes bounds one uploaded file.
const maxImportBytes = 10 << 20

// CreateSession starts a new builder session. A body naming a
// persisted sessionId restores that session from the store instead.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if r.Body != nil {
		// An empty body means a fresh session; only a malformed
		// non-empty one is an error.
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}

	if id := strings.TrimSpace(body.SessionID); id != "" {
		if s, ok := h.mgr.Get(id); ok {
			writeJSON(w, http.StatusOK, s.Snapshot())
			return
		}
		rec, ok := h.store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s := h.mgr.Create(rec.SessionOptions()...)
		writeJSON(w, http.StatusOK, s.Snapshot())
		return
	}

	s := h.mgr.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// ListSessions lists persisted sessions, most recently updated first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		SessionID string    `json:"sessionId"`
		FullName  string    `json:"fullName,omitempty"`
		Phase     string    `json:"phase"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	recs := h.store.List()
	out := make([]summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summary{
			SessionID: rec.SessionID,
			FullName:  rec.Document.PersonalInfo.FullName,
			Phase:     rec.Phase,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// DeleteSession drops a session, live state and persisted record both.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mgr.Remove(id)
	h.store.Delete(id)
	h.store.Flush()
	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the full session state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// GetDocument returns the canonical document alone.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Document())
}

// Accept applies the pending update.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doc, err := s.Accept()
	if err != nil {
		if errors.Is(err, approval.ErrNoPending) {
			writeError(w, http.StatusConflict, "no pending update")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Deny discards the pending update.
func (h *Handler) Deny(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Deny(); err != nil {
		if errors.Is(err, approval.ErrNoPending) {
			writeError(w, http.StatusConflict, "no pending update")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Document())
}

// DismissNotification removes one notification banner from the session.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.DismissNotification(r.PathValue("nid"))
	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.Snapshot().Notifications})
}

// Undo steps the document back one snapshot.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doc, moved := s.Undo()
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "document": doc})
}

// Redo steps the document forward one snapshot.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doc, moved := s.Redo()
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "document": doc})
}

// Reset restarts the conversation. The document and its history are
// kept; pass clear_document=true to drop them too.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.mgr.Reset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if v := r.URL.Query().Get("clear_document"); strings.EqualFold(v, "true") {
		s.ResetDocument()
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SetJob stores the job description used as model context.
func (h *Handler) SetJob(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		JobDescription string `json:"jobDescription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.SetJobDescription(body.JobDescription)
	writeJSON(w, http.StatusOK, map[string]string{"jobDescription": body.JobDescription})
}

// Import seeds the document from uploaded files. A single JSON file is
// decoded directly; PDF, DOCX and text uploads go through text
// extraction and a one-shot model pass.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	var files []importer.File
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s: %v", fh.Filename, err))
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, maxImportBytes))
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
				return
			}
			files = append(files, importer.File{Name: fh.Filename, Data: data})
		}
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	if len(files) == 1 && strings.EqualFold(filepath.Ext(files[0].Name), ".json") {
		doc, err := importer.DocumentFromJSON(files[0].Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.Seed(doc))
		return
	}

	text, err := importer.CombineText(files)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := h.extractor.ExtractDocument(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Seed(doc))
}

// Preview renders the current document to HTML.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	html, err := render.Render(s.Document())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

// Finalize validates the document, renders it and stores the artifacts.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doc, err := s.Finalize()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	html, err := render.Render(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := s.ID()
	if err := h.exports.Put(r.Context(), id, "cv.html", html); err != nil {
		log.Printf("store cv.html for %s failed: %v", id, err)
	}
	if err := h.exports.Put(r.Context(), id, "cv.json", docJSON); err != nil {
		log.Printf("store cv.json for %s failed: %v", id, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document":  doc,
		"artifacts": []string{"cv.html", "cv.json"},
	})
}

// ListExports lists stored artifacts for a session, with a direct
// download link when the backend can mint one.
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	names, err := h.exports.List(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	type artifact struct {
		Name string `json:"name"`
		URL  string `json:"url,omitempty"`
	}
	out := make([]artifact, 0, len(names))
	for _, name := range names {
		a := artifact{Name: name}
		if url, err := h.exports.GetURL(r.Context(), id, name); err == nil {
			a.URL = url
		} else {
			log.Printf("presign %s/%s failed: %v", id, name, err)
		}
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": out})
}

// GetExport serves one stored artifact.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, err := h.exports.Get(r.Context(), r.PathValue("id"), name)
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			writeError(w, http.StatusNotFound, "artifact not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.HasSuffix(name, ".html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else if strings.HasSuffix(name, ".json") {
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write(data)
}
