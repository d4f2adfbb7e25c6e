package sessionstore

import (
	"encoding/json"
	"strings"
	"time"

	"cvarchitect/internal/conversation"
	"cvarchitect/internal/cv"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS cv_sessions (
  session_id TEXT PRIMARY KEY,
  document JSONB NOT NULL DEFAULT '{}'::jsonb,
  transcript JSONB NOT NULL DEFAULT '[]'::jsonb,
  phase TEXT NOT NULL DEFAULT 'welcome',
  job_description TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_cv_sessions_updated_at ON cv_sessions (updated_at);
`)
	})
	return s.schemaErr
}

func scanRecordDB(row rowScanner) (Record, bool) {
	var (
		rec           Record
		docJSON       []byte
		transcriptRaw []byte
	)
	err := row.Scan(&rec.SessionID, &docJSON, &transcriptRaw, &rec.Phase, &rec.JobDescription, &rec.UpdatedAt)
	if err != nil {
		return Record{}, false
	}
	if err := json.Unmarshal(docJSON, &rec.Document); err != nil {
		rec.Document = cv.NewDocument()
	}
	if err := json.Unmarshal(transcriptRaw, &rec.Transcript); err != nil {
		rec.Transcript = nil
	}
	return normalizeRecord(rec), true
}

func (s *Store) getDB(sessionID string) (Record, bool) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Record{}, false
	}
	row := s.db.QueryRow(`SELECT session_id, document, transcript, phase, job_description, updated_at
FROM cv_sessions WHERE session_id = $1`, id)
	return scanRecordDB(row)
}

func (s *Store) putDB(rec Record) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	n := normalizeRecord(rec)
	if n.SessionID == "" {
		return
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	docJSON, err := json.Marshal(n.Document)
	if err != nil {
		return
	}
	transcript := n.Transcript
	if transcript == nil {
		transcript = []conversation.Message{}
	}
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(`
INSERT INTO cv_sessions (session_id, document, transcript, phase, job_description, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id)
DO UPDATE SET document=EXCLUDED.document,
  transcript=EXCLUDED.transcript,
  phase=EXCLUDED.phase,
  job_description=EXCLUDED.job_description,
  updated_at=EXCLUDED.updated_at`,
		n.SessionID, docJSON, transcriptJSON, n.Phase, n.JobDescription, n.UpdatedAt)
}

func (s *Store) deleteDB(sessionID string) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return
	}
	_, _ = s.db.Exec(`DELETE FROM cv_sessions WHERE session_id = $1`, id)
}

func (s *Store) listDB() []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT session_id, document, transcript, phase, job_description, updated_at
FROM cv_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		if rec, ok := scanRecordDB(rows); ok {
			out = append(out, rec)
		}
	}
	return out
}
