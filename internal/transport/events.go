// Package transport defines the event stream a conversation consumes
// and the adapters that produce it from a remote model.
package transport

import (
	"context"

	"cvarchitect/internal/cv"
)

// EventType tags a streamed event.
type EventType string

const (
	// EventDelta appends a text fragment to the in-progress assistant message.
	EventDelta EventType = "delta"
	// EventExtraction carries a partial document update to classify and route.
	EventExtraction EventType = "extraction"
	// EventPhase advances the conversation phase.
	EventPhase EventType = "phase"
	// EventComplete terminates the stream successfully.
	EventComplete EventType = "complete"
	// EventError terminates the stream with a failure.
	EventError EventType = "error"
)

// Event is one element of a model response stream. Exactly one terminal
// event (Complete or Error) ends every stream; the other kinds may
// occur any number of times in any interleaving before it.
type Event struct {
	Type      EventType
	Text      string
	Update    *cv.Update
	AutoApply bool
	Phase     string
	Err       string
}

// Request is the context handed to the adapter when a stream is opened.
type Request struct {
	SessionID      string
	Message        string
	Phase          string
	JobDescription string
	Document       cv.Document
	History        []HistoryMessage
}

// HistoryMessage is a prior transcript entry included for model context.
type HistoryMessage struct {
	Role string
	Text string
}

// Stream yields events for one request. Recv blocks until the next
// event or ctx is done; after the terminal event it returns io.EOF.
type Stream interface {
	Recv(ctx context.Context) (Event, error)
	Close() error
}

// Opener opens one stream per request against the remote model.
type Opener interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// DocumentExtractor performs a one-shot structured extraction from raw
// text, used for file imports.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, text string) (cv.Document, error)
}
