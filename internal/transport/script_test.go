package transport

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvarchitect/internal/cv"
)

func drain(t *testing.T, st Stream) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := st.Recv(context.Background())
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestScriptDefaultProgram(t *testing.T) {
	s := NewScript(nil)
	st, err := s.Open(context.Background(), Request{SessionID: "s1", Message: "hello"})
	require.NoError(t, err)
	defer st.Close()

	events := drain(t, st)
	require.Len(t, events, 4)
	assert.Equal(t, EventDelta, events[0].Type)
	assert.Equal(t, EventExtraction, events[2].Type)
	assert.Equal(t, EventComplete, events[3].Type)
}

func TestScriptProgramSeesRequestAndCallIndex(t *testing.T) {
	var seen []int
	s := NewScript(func(n int, req Request) []Event {
		seen = append(seen, n)
		return []Event{
			{Type: EventDelta, Text: req.Message},
			{Type: EventComplete},
		}
	})

	for i := 0; i < 2; i++ {
		st, err := s.Open(context.Background(), Request{Message: "m"})
		require.NoError(t, err)
		events := drain(t, st)
		st.Close()
		require.Len(t, events, 2)
		assert.Equal(t, "m", events[0].Text)
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestScriptStreamHonorsContext(t *testing.T) {
	s := NewScript(nil)
	st, err := s.Open(context.Background(), Request{})
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScriptStreamEOFAfterClose(t *testing.T) {
	s := NewScript(nil)
	st, err := s.Open(context.Background(), Request{})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.Recv(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestScriptExtractDocument(t *testing.T) {
	s := NewScript(nil)
	doc, err := s.ExtractDocument(context.Background(), `--- FILE: cv.txt ---
Jane Doe
Engineer at Acme
jane.doe@example.com
+1 (555) 123-4567`)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.FullName)
	assert.Equal(t, "jane.doe@example.com", doc.PersonalInfo.Email)
	assert.NotEmpty(t, doc.PersonalInfo.Phone)
}

func TestToolDeclarationsCoverAllTools(t *testing.T) {
	decls := toolDeclarations()
	require.Len(t, decls, 3)
	names := map[string]bool{}
	for _, d := range decls {
		names[d.Name] = true
	}
	assert.True(t, names[toolUpdateDraft])
	assert.True(t, names[toolUpdateVisual])
	assert.True(t, names[toolAdvancePhase])
}

func TestComposeMessageIncludesContext(t *testing.T) {
	got := composeMessage(Request{
		Message:        "add my last job",
		Phase:          "gathering",
		JobDescription: "Backend engineer",
		Document:       cv.Document{PersonalInfo: cv.PersonalInfo{FullName: "Jane"}},
	})
	assert.Contains(t, got, "[CURRENT CV JSON]")
	assert.Contains(t, got, `"Jane"`)
	assert.Contains(t, got, "[TARGET JOB]\nBackend engineer")
	assert.Contains(t, got, "[PHASE] gathering")
	assert.Contains(t, got, "add my last job")
}
