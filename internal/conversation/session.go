// Package conversation owns the canonical document, the chat
// transcript, the conversation phase and the streaming state. It is the
// single writer of all of them.
package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cvarchitect/internal/approval"
	"cvarchitect/internal/cv"
	"cvarchitect/internal/history"
	"cvarchitect/internal/transport"
)

const welcomeText = "I'm here to build your next big career move. What role are we targeting today, " +
	"and do you have a job description or a few keywords for the dream position?"

// historyTail bounds how many transcript messages ride along as model context.
const historyTail = 10

var (
	// ErrStreaming rejects a Send while a stream is already in flight.
	ErrStreaming = errors.New("conversation: a response is already streaming")
	// ErrEmptyMessage rejects blank input.
	ErrEmptyMessage = errors.New("conversation: message is empty")
	// ErrNotFinalizable is returned when the document misses the
	// minimum contact fields.
	ErrNotFinalizable = errors.New("conversation: document needs at least a full name and an email")
)

// SessionCloser is implemented by transports that keep per-session
// model handles; Reset tears the handle down.
type SessionCloser interface {
	CloseSession(sessionID string)
}

// Frame is a UI-facing progress event emitted while a Send is consumed.
type Frame struct {
	Type         string         `json:"type"`
	MessageID    string         `json:"messageId,omitempty"`
	Text         string         `json:"text,omitempty"`
	Phase        Phase          `json:"phase,omitempty"`
	Document     *cv.Document   `json:"document,omitempty"`
	Pending      *cv.Update     `json:"pending,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Frame types emitted during a Send.
const (
	FrameMessage  = "message"
	FrameDelta    = "delta"
	FramePhase    = "phase"
	FrameDocument = "document"
	FramePending  = "pending"
	FrameComplete = "complete"
	FrameError    = "error"
)

// State is a read snapshot of a session, served to clients.
type State struct {
	SessionID      string         `json:"sessionId"`
	Phase          Phase          `json:"phase"`
	Streaming      bool           `json:"streaming"`
	JobDescription string         `json:"jobDescription,omitempty"`
	Transcript     []Message      `json:"transcript"`
	Notifications  []Notification `json:"notifications"`
	Document       cv.Document    `json:"document"`
	Pending        *cv.Update     `json:"pending,omitempty"`
	CanUndo        bool           `json:"canUndo"`
	CanRedo        bool           `json:"canRedo"`
}

// Session is the conversation state machine. Streaming and the approval
// gate are independent: further input, accept/deny and undo/redo stay
// available while a decision or a stream is outstanding.
type Session struct {
	id     string
	opener transport.Opener

	hist *history.Store[cv.Document]
	gate *approval.Gate

	mu             sync.Mutex
	transcript     []Message
	notifications  []Notification
	phase          Phase
	streaming      bool
	cancel         context.CancelFunc
	jobDescription string
	current        int // index of the in-progress assistant message, -1 when none

	onChange func(cv.Document)
}

// Option configures a Session.
type Option func(*Session)

// WithOnChange registers a hook invoked after every document change
// (merge, undo, redo, seed). Used for autosave.
func WithOnChange(fn func(cv.Document)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithDocument seeds the starting document, e.g. from an import or a
// restored autosave.
func WithDocument(doc cv.Document) Option {
	return func(s *Session) { s.hist.Reset(doc) }
}

// WithID restores a persisted session identifier instead of minting a
// fresh one.
func WithID(id string) Option {
	return func(s *Session) {
		if id = strings.TrimSpace(id); id != "" {
			s.id = id
		}
	}
}

// WithTranscript restores a persisted transcript. Empty input keeps
// the welcome message.
func WithTranscript(msgs []Message) Option {
	return func(s *Session) {
		if len(msgs) > 0 {
			s.transcript = append([]Message(nil), msgs...)
		}
	}
}

// WithPhase restores a persisted phase; unknown values are ignored.
func WithPhase(p Phase) Option {
	return func(s *Session) {
		if _, ok := phaseRank[p]; ok {
			s.phase = p
		}
	}
}

// WithJobDescription restores the persisted job context.
func WithJobDescription(text string) Option {
	return func(s *Session) { s.jobDescription = strings.TrimSpace(text) }
}

// NewSession creates a session with an empty document and the welcome
// transcript.
func NewSession(opener transport.Opener, opts ...Option) *Session {
	hist := history.New(cv.NewDocument())
	s := &Session{
		id:         uuid.NewString(),
		opener:     opener,
		hist:       hist,
		gate:       approval.New(hist),
		transcript: []Message{newMessage(RoleAssistant, welcomeText)},
		phase:      PhaseWelcome,
		current:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier. It changes on Reset.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Document returns the current canonical document.
func (s *Session) Document() cv.Document {
	return s.hist.Current()
}

// Snapshot returns the full session state for clients.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		SessionID:      s.id,
		Phase:          s.phase,
		Streaming:      s.streaming,
		JobDescription: s.jobDescription,
		Transcript:     append([]Message(nil), s.transcript...),
		Notifications:  append([]Notification(nil), s.notifications...),
		Document:       s.hist.Current(),
		CanUndo:        s.hist.CanUndo(),
		CanRedo:        s.hist.CanRedo(),
	}
	if pending, ok := s.gate.Pending(); ok {
		st.Pending = &pending
	}
	return st
}

// Send appends a user message and consumes one model response stream.
// It returns ErrStreaming, without touching the transcript, when a
// stream is already in flight. emit, when non-nil, receives progress
// frames as events are applied; Send returns when the stream has
// terminated.
func (s *Session) Send(ctx context.Context, text string, emit func(Frame)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrStreaming
	}
	streamCtx, cancel := context.WithCancel(ctx)
	s.streaming = true
	s.cancel = cancel
	s.current = -1
	userMsg := newMessage(RoleUser, text)
	s.transcript = append(s.transcript, userMsg)
	req := transport.Request{
		SessionID:      s.id,
		Message:        text,
		Phase:          string(s.phase),
		JobDescription: s.jobDescription,
		Document:       s.hist.Current(),
		History:        s.historyTailLocked(),
	}
	s.mu.Unlock()

	send(emit, Frame{Type: FrameMessage, MessageID: userMsg.ID, Text: userMsg.Text})

	stream, err := s.opener.Open(streamCtx, req)
	if err != nil {
		s.endStream(func() {
			n := newNotification(NotificationError, "Could not reach the assistant: "+err.Error())
			s.notifications = append(s.notifications, n)
			send(emit, Frame{Type: FrameError, Error: err.Error(), Notification: &n})
		})
		return err
	}
	defer stream.Close()

	for {
		ev, err := stream.Recv(streamCtx)
		if err != nil {
			s.endStream(func() {
				if errors.Is(err, context.Canceled) {
					s.markCurrentLocked(func(m *Message) { m.Cancelled = true })
					return
				}
				s.markCurrentLocked(func(m *Message) { m.Failed = true })
				if !errors.Is(err, io.EOF) {
					n := newNotification(NotificationError, "The response stream broke off: "+err.Error())
					s.notifications = append(s.notifications, n)
					send(emit, Frame{Type: FrameError, Error: err.Error(), Notification: &n})
				}
			})
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if terminal := s.apply(ev, emit); terminal {
			return nil
		}
	}
}

// apply dispatches one stream event; it reports whether the event was
// terminal.
func (s *Session) apply(ev transport.Event, emit func(Frame)) bool {
	switch ev.Type {
	case transport.EventDelta:
		s.mu.Lock()
		if s.current < 0 {
			msg := newMessage(RoleAssistant, "")
			msg.Streaming = true
			s.transcript = append(s.transcript, msg)
			s.current = len(s.transcript) - 1
		}
		s.transcript[s.current].Text += ev.Text
		id := s.transcript[s.current].ID
		s.mu.Unlock()
		send(emit, Frame{Type: FrameDelta, MessageID: id, Text: ev.Text})

	case transport.EventExtraction:
		if ev.Update == nil {
			return false
		}
		// The gate classifies for itself; the transport's AutoApply
		// hint is advisory and may never promote content past review.
		upd := *ev.Update
		switch s.gate.Offer(upd) {
		case cv.Auto:
			doc := s.hist.Current()
			s.changed(doc)
			send(emit, Frame{Type: FrameDocument, Document: &doc})
		case cv.Gated:
			s.mu.Lock()
			s.dropNotificationsLocked(NotificationPending)
			n := newNotification(NotificationPending, "The assistant proposed changes to your CV. Review and accept or deny them.")
			s.notifications = append(s.notifications, n)
			s.mu.Unlock()
			send(emit, Frame{Type: FramePending, Pending: &upd, Notification: &n})
		}

	case transport.EventPhase:
		s.mu.Lock()
		s.phase = advancePhase(s.phase, ev.Phase)
		phase := s.phase
		s.mu.Unlock()
		send(emit, Frame{Type: FramePhase, Phase: phase})

	case transport.EventComplete:
		var id string
		s.endStream(func() {
			if s.current >= 0 {
				id = s.transcript[s.current].ID
			}
		})
		send(emit, Frame{Type: FrameComplete, MessageID: id})
		return true

	case transport.EventError:
		s.endStream(func() {
			s.markCurrentLocked(func(m *Message) { m.Failed = true })
			n := newNotification(NotificationError, "The assistant ran into a problem: "+ev.Err)
			s.notifications = append(s.notifications, n)
			send(emit, Frame{Type: FrameError, Error: ev.Err, Notification: &n})
		})
		return true
	}
	return false
}

// Cancel aborts an in-flight stream. The partial assistant message is
// kept and marked cancelled. No-op when idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Accept merges the pending update into the document and dismisses the
// review notification.
func (s *Session) Accept() (cv.Document, error) {
	doc, err := s.gate.Accept()
	if err != nil {
		return doc, err
	}
	s.mu.Lock()
	s.dropNotificationsLocked(NotificationPending)
	s.mu.Unlock()
	s.changed(doc)
	return doc, nil
}

// Deny discards the pending update and dismisses the review notification.
func (s *Session) Deny() error {
	if err := s.gate.Deny(); err != nil {
		return err
	}
	s.mu.Lock()
	s.dropNotificationsLocked(NotificationPending)
	s.mu.Unlock()
	return nil
}

// DismissNotification removes one notification by ID.
func (s *Session) DismissNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
}

// Undo steps the document back one snapshot.
func (s *Session) Undo() (cv.Document, bool) {
	doc, ok := s.hist.Undo()
	if ok {
		s.changed(doc)
	}
	return doc, ok
}

// Redo steps the document forward one snapshot.
func (s *Session) Redo() (cv.Document, bool) {
	doc, ok := s.hist.Redo()
	if ok {
		s.changed(doc)
	}
	return doc, ok
}

// SetJobDescription stores the job context used by subsequent requests.
// It does not touch the document.
func (s *Session) SetJobDescription(text string) {
	s.mu.Lock()
	s.jobDescription = strings.TrimSpace(text)
	s.mu.Unlock()
}

// Seed replaces the document wholesale, e.g. from a file import. The
// previous document stays one undo step away.
func (s *Session) Seed(doc cv.Document) cv.Document {
	cv.EnsureIDs(&doc)
	s.hist.Set(doc)
	current := s.hist.Current()
	s.changed(current)
	return current
}

// Reset reinitializes the conversation: fresh session ID, welcome
// transcript, initial phase, pending update discarded, model session
// dropped. The document and its undo history are deliberately kept;
// clearing them is a separate, explicit call (ResetDocument).
func (s *Session) Reset() {
	s.Cancel()
	s.gate.Discard()

	s.mu.Lock()
	old := s.id
	s.id = uuid.NewString()
	s.transcript = []Message{newMessage(RoleAssistant, welcomeText)}
	s.notifications = nil
	s.phase = PhaseWelcome
	s.jobDescription = ""
	s.current = -1
	s.mu.Unlock()

	if closer, ok := s.opener.(SessionCloser); ok {
		closer.CloseSession(old)
	}
}

// ResetDocument clears the document and the undo history.
func (s *Session) ResetDocument() {
	s.hist.Reset(cv.NewDocument())
	s.changed(s.hist.Current())
}

// Finalize validates and hands off the canonical document.
func (s *Session) Finalize() (cv.Document, error) {
	doc := s.hist.Current()
	if strings.TrimSpace(doc.PersonalInfo.FullName) == "" || strings.TrimSpace(doc.PersonalInfo.Email) == "" {
		return doc, ErrNotFinalizable
	}
	return doc, nil
}

// endStream closes the streaming state and runs fn under the session
// lock before the in-progress message is frozen.
func (s *Session) endStream(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn()
	}
	if s.current >= 0 {
		s.transcript[s.current].Streaming = false
	}
	s.current = -1
	s.streaming = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) markCurrentLocked(fn func(*Message)) {
	if s.current >= 0 {
		fn(&s.transcript[s.current])
	}
}

func (s *Session) dropNotificationsLocked(kind NotificationKind) {
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.Kind != kind {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
}

func (s *Session) historyTailLocked() []transport.HistoryMessage {
	start := len(s.transcript) - historyTail
	if start < 0 {
		start = 0
	}
	out := make([]transport.HistoryMessage, 0, len(s.transcript)-start)
	for _, m := range s.transcript[start:] {
		out = append(out, transport.HistoryMessage{Role: string(m.Role), Text: m.Text})
	}
	return out
}

func (s *Session) changed(doc cv.Document) {
	if s.onChange != nil {
		s.onChange(doc)
	}
}

func send(emit func(Frame), f Frame) {
	if emit != nil {
		emit(f)
	}
}
