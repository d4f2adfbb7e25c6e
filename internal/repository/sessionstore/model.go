package sessionstore

import (
	"strings"
	"time"

	"cvarchitect/internal/conversation"
	"cvarchitect/internal/cv"
)

// Record is one persisted session: the canonical document plus enough
// conversation state to restore the builder after a reload.
type Record struct {
	SessionID      string                 `json:"session_id"`
	Document       cv.Document            `json:"document"`
	Transcript     []conversation.Message `json:"transcript,omitempty"`
	Phase          string                 `json:"phase,omitempty"`
	JobDescription string                 `json:"job_description,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func normalizeRecord(r Record) Record {
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	if strings.TrimSpace(r.Phase) == "" {
		r.Phase = string(conversation.PhaseWelcome)
	}
	return r
}

// SessionOptions converts a persisted record into the options that
// rebuild a live session from it.
func (r Record) SessionOptions() []conversation.Option {
	return []conversation.Option{
		conversation.WithID(r.SessionID),
		conversation.WithDocument(r.Document),
		conversation.WithTranscript(r.Transcript),
		conversation.WithPhase(conversation.Phase(r.Phase)),
		conversation.WithJobDescription(r.JobDescription),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}
