package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/transport"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(transport.NewScript(nil), nil)
	s := m.Create()

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get("unknown")
	assert.False(t, ok)
}

func TestManagerResetRekeys(t *testing.T) {
	m := NewManager(transport.NewScript(nil), nil)
	s := m.Create()
	oldID := s.ID()

	reset, err := m.Reset(oldID)
	require.NoError(t, err)
	assert.Same(t, s, reset)
	assert.NotEqual(t, oldID, reset.ID())

	_, ok := m.Get(oldID)
	assert.False(t, ok)
	_, ok = m.Get(reset.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestManagerResetUnknown(t *testing.T) {
	m := NewManager(transport.NewScript(nil), nil)
	_, err := m.Reset("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(transport.NewScript(nil), nil)
	s := m.Create()
	m.Remove(s.ID())
	_, ok := m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManagerOnChangeFiresPerDocumentChange(t *testing.T) {
	var changed []*Session
	m := NewManager(transport.NewScript(nil), func(s *Session) {
		changed = append(changed, s)
	})
	s := m.Create()
	s.Seed(cv.Document{PersonalInfo: cv.PersonalInfo{FullName: "Jane"}})

	require.Len(t, changed, 1)
	assert.Same(t, s, changed[0])
}

func TestAdvancePhase(t *testing.T) {
	assert.Equal(t, PhaseGathering, advancePhase(PhaseWelcome, "gathering"))
	assert.Equal(t, PhaseReady, advancePhase(PhaseRefining, " READY "))
	assert.Equal(t, PhaseRefining, advancePhase(PhaseRefining, "welcome"), "never moves backward")
	assert.Equal(t, PhaseGathering, advancePhase(PhaseGathering, "bogus"), "unknown phases ignored")
}

func TestSessionCloserInvokedOnReset(t *testing.T) {
	op := &closableOpener{Script: transport.NewScript(nil)}
	m := NewManager(op, nil)
	s := m.Create()
	oldID := s.ID()

	_, err := m.Reset(oldID)
	require.NoError(t, err)
	assert.Equal(t, []string{oldID}, op.closed)
}

type closableOpener struct {
	*transport.Script
	closed []string
}

func (c *closableOpener) CloseSession(id string) {
	c.closed = append(c.closed, id)
}

var _ transport.Opener = (*closableOpener)(nil)
