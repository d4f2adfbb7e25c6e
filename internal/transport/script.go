package transport

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"cvarchitect/internal/cv"
)

// Script replays a fixed event sequence per request. It backs offline
// runs when no model API key is configured, and tests.
type Script struct {
	mu    sync.Mutex
	calls int
	// Program decides the events for the nth request (0-based). When
	// nil, a canned echo conversation is used.
	Program func(n int, req Request) []Event
}

// NewScript returns a Script producing events from program. A nil
// program echoes the user message with a canned extraction.
func NewScript(program func(n int, req Request) []Event) *Script {
	return &Script{Program: program}
}

func (s *Script) Open(_ context.Context, req Request) (Stream, error) {
	s.mu.Lock()
	n := s.calls
	s.calls++
	program := s.Program
	s.mu.Unlock()

	var events []Event
	if program != nil {
		events = program(n, req)
	} else {
		events = defaultProgram(req)
	}
	return &scriptStream{events: events}, nil
}

func defaultProgram(req Request) []Event {
	return []Event{
		{Type: EventDelta, Text: "Noted: "},
		{Type: EventDelta, Text: req.Message},
		{Type: EventExtraction, Update: &cv.Update{
			Interests: []string{fmt.Sprintf("mentioned in session %s", req.SessionID)},
		}},
		{Type: EventComplete},
	}
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9 ()\-]{6,}[0-9]`)
)

// ExtractDocument is a deterministic offline stand-in for model-side
// extraction: it picks out contact details and treats the first line as
// the name.
func (s *Script) ExtractDocument(_ context.Context, text string) (cv.Document, error) {
	doc := cv.NewDocument()
	if email := emailPattern.FindString(text); email != "" {
		doc.PersonalInfo.Email = email
	}
	if phone := phonePattern.FindString(text); phone != "" {
		doc.PersonalInfo.Phone = strings.TrimSpace(phone)
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--- FILE:") {
			continue
		}
		doc.PersonalInfo.FullName = line
		break
	}
	return doc, nil
}

type scriptStream struct {
	mu     sync.Mutex
	events []Event
	pos    int
	closed bool
}

func (st *scriptStream) Recv(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed || st.pos >= len(st.events) {
		return Event{}, io.EOF
	}
	ev := st.events[st.pos]
	st.pos++
	return ev, nil
}

func (st *scriptStream) Close() error {
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
	return nil
}
