package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/transport"
)

func program(events ...[]transport.Event) *transport.Script {
	return transport.NewScript(func(n int, _ transport.Request) []transport.Event {
		if n >= len(events) {
			return []transport.Event{{Type: transport.EventComplete}}
		}
		return events[n]
	})
}

func TestSendAppendsMessagesAndAccumulatesDeltas(t *testing.T) {
	s := NewSession(program([]transport.Event{
		{Type: transport.EventDelta, Text: "Hello "},
		{Type: transport.EventDelta, Text: "there."},
		{Type: transport.EventComplete},
	}))

	require.NoError(t, s.Send(context.Background(), "hi", nil))

	st := s.Snapshot()
	require.Len(t, st.Transcript, 3) // welcome, user, assistant
	assert.Equal(t, RoleUser, st.Transcript[1].Role)
	assert.Equal(t, "hi", st.Transcript[1].Text)
	assert.Equal(t, RoleAssistant, st.Transcript[2].Role)
	assert.Equal(t, "Hello there.", st.Transcript[2].Text)
	assert.False(t, st.Transcript[2].Streaming)
	assert.False(t, st.Streaming)
}

func TestSendWhileStreamingRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := transport.NewScript(nil)
	s := NewSession(openerFunc(func(ctx context.Context, req transport.Request) (transport.Stream, error) {
		close(entered)
		<-release
		return blocking.Open(ctx, req)
	}))

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "first", nil) }()

	// The streaming slot is taken before the opener runs.
	<-entered
	err := s.Send(context.Background(), "second", nil)
	assert.ErrorIs(t, err, ErrStreaming)

	// The rejected Send must not have touched the transcript.
	assert.Len(t, s.Snapshot().Transcript, 2)

	close(release)
	require.NoError(t, <-done)
}

func TestErrorEventKeepsPartialTextMarkedFailed(t *testing.T) {
	s := NewSession(program([]transport.Event{
		{Type: transport.EventDelta, Text: "I was saying "},
		{Type: transport.EventDelta, Text: "something"},
		{Type: transport.EventError, Err: "model unavailable"},
	}))

	require.NoError(t, s.Send(context.Background(), "go on", nil))

	st := s.Snapshot()
	last := st.Transcript[len(st.Transcript)-1]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "I was saying something", last.Text)
	assert.True(t, last.Failed)
	assert.False(t, last.Streaming)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, NotificationError, st.Notifications[0].Kind)
	assert.False(t, st.Streaming)
}

func TestGatedExtractionWaitsForAccept(t *testing.T) {
	upd := cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "Ada Lovelace"}}
	s := NewSession(program([]transport.Event{
		{Type: transport.EventDelta, Text: "Adding your name."},
		{Type: transport.EventExtraction, Update: &upd},
		{Type: transport.EventComplete},
	}))

	var frames []Frame
	require.NoError(t, s.Send(context.Background(), "my name is Ada Lovelace", func(f Frame) {
		frames = append(frames, f)
	}))

	// Not applied yet.
	assert.Empty(t, s.Document().PersonalInfo.FullName)
	st := s.Snapshot()
	require.NotNil(t, st.Pending)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, NotificationPending, st.Notifications[0].Kind)

	var sawPending bool
	for _, f := range frames {
		if f.Type == FramePending {
			sawPending = true
		}
	}
	assert.True(t, sawPending)

	doc, err := s.Accept()
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", doc.PersonalInfo.FullName)
	st = s.Snapshot()
	assert.Nil(t, st.Pending)
	assert.Empty(t, st.Notifications)
	assert.True(t, st.CanUndo)
}

func TestDenyDiscardsPending(t *testing.T) {
	upd := cv.Update{PersonalInfo: &cv.PersonalInfo{Summary: "Visionary leader"}}
	s := NewSession(program([]transport.Event{
		{Type: transport.EventExtraction, Update: &upd},
		{Type: transport.EventComplete},
	}))

	require.NoError(t, s.Send(context.Background(), "write a summary", nil))
	require.NoError(t, s.Deny())

	st := s.Snapshot()
	assert.Nil(t, st.Pending)
	assert.Empty(t, st.Notifications)
	assert.Empty(t, s.Document().PersonalInfo.Summary)
	assert.False(t, st.CanUndo)
}

func TestCosmeticExtractionAppliesImmediately(t *testing.T) {
	upd := cv.Update{Config: &cv.TemplateConfig{TemplateID: "harvard"}}
	s := NewSession(program([]transport.Event{
		{Type: transport.EventExtraction, Update: &upd, AutoApply: true},
		{Type: transport.EventComplete},
	}))

	var changed []cv.Document
	require.NoError(t, s.Send(context.Background(), "use the harvard template", func(f Frame) {
		if f.Type == FrameDocument {
			changed = append(changed, *f.Document)
		}
	}))

	assert.Equal(t, "harvard", s.Document().Config.TemplateID)
	assert.Nil(t, s.Snapshot().Pending)
	require.Len(t, changed, 1)
	assert.Equal(t, "harvard", changed[0].Config.TemplateID)
}

func TestPhaseAdvancesMonotonically(t *testing.T) {
	s := NewSession(program(
		[]transport.Event{
			{Type: transport.EventPhase, Phase: "refining"},
			{Type: transport.EventComplete},
		},
		[]transport.Event{
			{Type: transport.EventPhase, Phase: "gathering"}, // backwards, ignored
			{Type: transport.EventComplete},
		},
	))

	require.NoError(t, s.Send(context.Background(), "one", nil))
	assert.Equal(t, PhaseRefining, s.Snapshot().Phase)

	require.NoError(t, s.Send(context.Background(), "two", nil))
	assert.Equal(t, PhaseRefining, s.Snapshot().Phase)
}

func TestResetKeepsDocumentAndHistory(t *testing.T) {
	upd := cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "Grace Hopper"}}
	s := NewSession(program([]transport.Event{
		{Type: transport.EventExtraction, Update: &upd},
		{Type: transport.EventComplete},
	}))

	require.NoError(t, s.Send(context.Background(), "I'm Grace Hopper", nil))
	_, err := s.Accept()
	require.NoError(t, err)

	oldID := s.ID()
	s.Reset()

	st := s.Snapshot()
	assert.NotEqual(t, oldID, st.SessionID)
	assert.Equal(t, PhaseWelcome, st.Phase)
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, RoleAssistant, st.Transcript[0].Role)
	assert.Empty(t, st.Notifications)
	assert.Nil(t, st.Pending)
	// Document and undo history survive a conversation reset.
	assert.Equal(t, "Grace Hopper", st.Document.PersonalInfo.FullName)
	assert.True(t, st.CanUndo)
}

func TestResetDocumentClearsHistory(t *testing.T) {
	s := NewSession(transport.NewScript(nil))
	s.Seed(cv.Document{PersonalInfo: cv.PersonalInfo{FullName: "Someone"}})
	require.True(t, s.Snapshot().CanUndo)

	s.ResetDocument()
	st := s.Snapshot()
	assert.Empty(t, st.Document.PersonalInfo.FullName)
	assert.False(t, st.CanUndo)
}

func TestSeedAssignsIDsAndSupportsUndo(t *testing.T) {
	var saved []cv.Document
	s := NewSession(transport.NewScript(nil), WithOnChange(func(d cv.Document) {
		saved = append(saved, d)
	}))

	doc := s.Seed(cv.Document{
		PersonalInfo: cv.PersonalInfo{FullName: "Imported"},
		Experience:   []cv.Experience{{Company: "Acme"}},
	})

	require.Len(t, doc.Experience, 1)
	assert.NotEmpty(t, doc.Experience[0].ID)
	require.Len(t, saved, 1)

	prev, ok := s.Undo()
	require.True(t, ok)
	assert.Empty(t, prev.PersonalInfo.FullName)
}

func TestFinalizeRequiresNameAndEmail(t *testing.T) {
	s := NewSession(transport.NewScript(nil))

	_, err := s.Finalize()
	assert.ErrorIs(t, err, ErrNotFinalizable)

	s.Seed(cv.Document{PersonalInfo: cv.PersonalInfo{FullName: "Ada", Email: "ada@example.com"}})
	doc, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.PersonalInfo.FullName)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	s := NewSession(transport.NewScript(nil))
	assert.ErrorIs(t, s.Send(context.Background(), "   ", nil), ErrEmptyMessage)
	assert.Len(t, s.Snapshot().Transcript, 1)
}

func TestCancelKeepsPartialMessageMarkedCancelled(t *testing.T) {
	delivered := make(chan struct{})
	var calls int
	s := NewSession(openerFunc(func(ctx context.Context, req transport.Request) (transport.Stream, error) {
		calls++
		if calls == 1 {
			return &trickleStream{delivered: delivered}, nil
		}
		return transport.NewScript(nil).Open(ctx, req)
	}))

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "tell me everything", nil) }()

	<-delivered
	s.Cancel()
	require.NoError(t, <-done)

	st := s.Snapshot()
	last := st.Transcript[len(st.Transcript)-1]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "Half a thought", last.Text)
	assert.True(t, last.Cancelled)
	assert.False(t, last.Failed)
	assert.False(t, last.Streaming)
	assert.False(t, st.Streaming)
	// A cancel is not a failure.
	assert.Empty(t, st.Notifications)

	// The slot is free again.
	require.NoError(t, s.Send(context.Background(), "carry on", nil))
}

func TestRestoreOptionsRebuildSessionState(t *testing.T) {
	msgs := []Message{
		{ID: "m1", Role: RoleAssistant, Text: "Welcome back."},
		{ID: "m2", Role: RoleUser, Text: "Where were we?"},
	}
	doc := cv.Document{PersonalInfo: cv.PersonalInfo{FullName: "Ada"}}
	s := NewSession(transport.NewScript(nil),
		WithID("persisted-7"),
		WithDocument(doc),
		WithTranscript(msgs),
		WithPhase(PhaseRefining),
		WithJobDescription("  Staff engineer  "),
	)

	st := s.Snapshot()
	assert.Equal(t, "persisted-7", st.SessionID)
	assert.Equal(t, PhaseRefining, st.Phase)
	assert.Equal(t, "Ada", st.Document.PersonalInfo.FullName)
	assert.Equal(t, "Staff engineer", st.JobDescription)
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, "Where were we?", st.Transcript[1].Text)
	// A restored document is a starting point, not an undo step.
	assert.False(t, st.CanUndo)

	// Unknown phases and blank IDs fall back to the defaults.
	s2 := NewSession(transport.NewScript(nil), WithID("  "), WithPhase(Phase("later")), WithTranscript(nil))
	st2 := s2.Snapshot()
	assert.NotEmpty(t, st2.SessionID)
	assert.Equal(t, PhaseWelcome, st2.Phase)
	require.Len(t, st2.Transcript, 1)
}

// trickleStream yields one delta, then holds the stream open until the
// context is cancelled.
type trickleStream struct {
	delivered chan struct{}
	sent      bool
}

func (st *trickleStream) Recv(ctx context.Context) (transport.Event, error) {
	if !st.sent {
		st.sent = true
		defer close(st.delivered)
		return transport.Event{Type: transport.EventDelta, Text: "Half a thought"}, nil
	}
	<-ctx.Done()
	return transport.Event{}, ctx.Err()
}

func (st *trickleStream) Close() error { return nil }

// openerFunc adapts a function to the transport.Opener interface.
type openerFunc func(ctx context.Context, req transport.Request) (transport.Stream, error)

func (f openerFunc) Open(ctx context.Context, req transport.Request) (transport.Stream, error) {
	return f(ctx, req)
}
