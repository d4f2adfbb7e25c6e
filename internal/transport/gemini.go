package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	genai "google.golang.org/genai"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/util/jsonutil"
)

const systemInstruction = `You are a senior career coach and CV designer holding a natural
conversation to build a professional CV. Ask one or two targeted questions at a time, never
a form-style list. Rewrite raw notes into high-impact, ATS-friendly wording.

Tool usage:
- call update_cv_draft whenever new CV content is extracted from the conversation
- call update_visual_identity when discussing templates, colors or typography
- call advance_conversation_phase when the conversation moves to a later stage

Never invent facts the user did not state.`

const (
	toolUpdateDraft  = "update_cv_draft"
	toolUpdateVisual = "update_visual_identity"
	toolAdvancePhase = "advance_conversation_phase"
)

// Gemini streams model responses through the genai chat API. One chat
// handle is kept per conversation session and torn down on reset.
type Gemini struct {
	cli   *genai.Client
	model string

	mu    sync.Mutex
	chats map[string]*genai.Chat
}

// NewGemini creates an adapter bound to one model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: init gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model, chats: make(map[string]*genai.Chat)}, nil
}

// CloseSession drops the chat handle for a session. The next Open
// starts a fresh conversation with the model.
func (g *Gemini) CloseSession(sessionID string) {
	g.mu.Lock()
	delete(g.chats, strings.TrimSpace(sessionID))
	g.mu.Unlock()
}

func (g *Gemini) chatFor(ctx context.Context, sessionID string) (*genai.Chat, error) {
	sessionID = strings.TrimSpace(sessionID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if chat, ok := g.chats[sessionID]; ok {
		return chat, nil
	}
	chat, err := g.cli.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Tools:             []*genai.Tool{{FunctionDeclarations: toolDeclarations()}},
		Temperature:       genai.Ptr[float32](0.7),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: create chat: %w", err)
	}
	g.chats[sessionID] = chat
	return chat, nil
}

// Open starts one streamed exchange. Text parts surface as deltas,
// update_cv_draft calls as gated extractions, update_visual_identity
// calls as auto-applied extractions, advance_conversation_phase calls
// as phase events. Tool calls are answered and the exchange continues
// until the model stops calling tools.
func (g *Gemini) Open(ctx context.Context, req Request) (Stream, error) {
	chat, err := g.chatFor(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	st := &chanStream{ch: make(chan Event, 16), cancel: cancel}
	go g.run(streamCtx, chat, req, st.ch)
	return st, nil
}

func (g *Gemini) run(ctx context.Context, chat *genai.Chat, req Request, out chan<- Event) {
	defer close(out)
	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	parts := []genai.Part{{Text: composeMessage(req)}}
	for {
		var responses []genai.Part
		for resp, err := range chat.SendMessageStream(ctx, parts...) {
			if err != nil {
				emit(Event{Type: EventError, Err: err.Error()})
				return
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				if part == nil {
					continue
				}
				if part.Text != "" {
					if !emit(Event{Type: EventDelta, Text: part.Text}) {
						return
					}
				}
				if fc := part.FunctionCall; fc != nil {
					ev, resPart := g.handleCall(fc)
					if ev != nil && !emit(*ev) {
						return
					}
					responses = append(responses, resPart)
				}
			}
		}
		if len(responses) == 0 {
			emit(Event{Type: EventComplete})
			return
		}
		parts = responses
	}
}

// handleCall maps one function call to a stream event and builds the
// tool response the model expects back.
func (g *Gemini) handleCall(fc *genai.FunctionCall) (*Event, genai.Part) {
	ok := genai.Part{FunctionResponse: &genai.FunctionResponse{
		ID:       fc.ID,
		Name:     fc.Name,
		Response: map[string]any{"result": "applied"},
	}}
	failed := func(reason string) genai.Part {
		return genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: map[string]any{"error": reason},
		}}
	}

	switch fc.Name {
	case toolUpdateDraft:
		var upd cv.Update
		if err := decodeArgs(fc.Args, &upd); err != nil {
			return nil, failed("malformed draft payload")
		}
		return &Event{Type: EventExtraction, Update: &upd}, ok
	case toolUpdateVisual:
		var cfg cv.TemplateConfig
		if err := decodeArgs(fc.Args, &cfg); err != nil {
			return nil, failed("malformed visual payload")
		}
		return &Event{Type: EventExtraction, Update: &cv.Update{Config: &cfg}, AutoApply: true}, ok
	case toolAdvancePhase:
		var args struct {
			Phase string `json:"phase"`
		}
		if err := decodeArgs(fc.Args, &args); err != nil || strings.TrimSpace(args.Phase) == "" {
			return nil, failed("missing phase")
		}
		return &Event{Type: EventPhase, Phase: args.Phase}, ok
	default:
		return nil, failed("unknown tool")
	}
}

const extractInstruction = `Extract every piece of CV-relevant information from the supplied
text into the JSON document schema. Copy facts verbatim where possible, normalize dates to
YYYY-MM, and leave out anything the text does not state. Respond with the JSON document only.`

// ExtractDocument runs a one-shot structured extraction over raw text,
// used when files are imported as the starting document.
func (g *Gemini) ExtractDocument(ctx context.Context, text string) (cv.Document, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: extractInstruction}}},
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return cv.Document{}, fmt.Errorf("transport: extract document: %w", err)
	}
	var doc cv.Document
	if err := json.Unmarshal([]byte(resp.Text()), &doc); err != nil {
		return cv.Document{}, fmt.Errorf("transport: decode extracted document: %w", err)
	}
	cv.EnsureIDs(&doc)
	return doc, nil
}

func decodeArgs(args map[string]any, v any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// composeMessage prefixes the user message with conversation context:
// the current document, the targeted job and the phase.
func composeMessage(req Request) string {
	var b strings.Builder
	if doc, err := jsonutil.MarshalNoEscape(req.Document); err == nil {
		b.WriteString("[CURRENT CV JSON]\n")
		b.Write(doc)
		b.WriteString("\n\n")
	}
	if jd := strings.TrimSpace(req.JobDescription); jd != "" {
		b.WriteString("[TARGET JOB]\n")
		b.WriteString(jd)
		b.WriteString("\n\n")
	}
	if phase := strings.TrimSpace(req.Phase); phase != "" {
		b.WriteString("[PHASE] ")
		b.WriteString(phase)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Message)
	return b.String()
}

type chanStream struct {
	ch     chan Event
	cancel context.CancelFunc
}

func (st *chanStream) Recv(ctx context.Context) (Event, error) {
	select {
	case ev, open := <-st.ch:
		if !open {
			return Event{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (st *chanStream) Close() error {
	st.cancel()
	return nil
}
