package approval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/history"
)

func newGate() (*Gate, *history.Store[cv.Document]) {
	hist := history.New(cv.NewDocument())
	return New(hist), hist
}

func TestAutoUpdateAppliesWithoutApproval(t *testing.T) {
	g, hist := newGate()

	kind := g.Offer(cv.Update{Config: &cv.TemplateConfig{Colors: &cv.Colors{Primary: "#fff"}}})

	require.Equal(t, cv.Auto, kind)
	require.Equal(t, Idle, g.State())
	_, waiting := g.Pending()
	require.False(t, waiting)
	require.Equal(t, "#fff", hist.Current().Config.Colors.Primary)
	require.Equal(t, 1, hist.Depth())
}

func TestGatedUpdateWaitsForAccept(t *testing.T) {
	g, hist := newGate()

	kind := g.Offer(cv.Update{Experience: []cv.ExperienceUpdate{{Company: "Acme", Position: "Eng"}}})

	require.Equal(t, cv.Gated, kind)
	require.Equal(t, Pending, g.State())
	require.Empty(t, hist.Current().Experience)
	require.Equal(t, 0, hist.Depth())

	doc, err := g.Accept()
	require.NoError(t, err)
	require.Len(t, doc.Experience, 1)
	require.NotEmpty(t, doc.Experience[0].ID)
	require.Equal(t, "Acme", doc.Experience[0].Company)
	require.Equal(t, "Eng", doc.Experience[0].Position)
	require.Equal(t, 1, hist.Depth())
	require.Equal(t, Idle, g.State())

	// Undo reverts the accepted merge.
	reverted, ok := hist.Undo()
	require.True(t, ok)
	require.Empty(t, reverted.Experience)
}

func TestDenyDiscardsWithoutMerge(t *testing.T) {
	g, hist := newGate()
	g.Offer(cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "Ada"}})

	require.NoError(t, g.Deny())
	require.Equal(t, Idle, g.State())
	require.Empty(t, hist.Current().PersonalInfo.FullName)
	require.Equal(t, 0, hist.Depth())
}

func TestAcceptWithoutPending(t *testing.T) {
	g, _ := newGate()

	_, err := g.Accept()
	require.ErrorIs(t, err, ErrNoPending)
	require.ErrorIs(t, g.Deny(), ErrNoPending)
}

func TestSecondGatedUpdateReplacesPending(t *testing.T) {
	g, _ := newGate()
	g.Offer(cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "First"}})
	g.Offer(cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "Second"}})

	pending, ok := g.Pending()
	require.True(t, ok)
	require.Equal(t, "Second", pending.PersonalInfo.FullName)

	doc, err := g.Accept()
	require.NoError(t, err)
	require.Equal(t, "Second", doc.PersonalInfo.FullName)
}

func TestEmptyUpdateIgnored(t *testing.T) {
	g, hist := newGate()

	kind := g.Offer(cv.Update{})

	require.Equal(t, cv.Empty, kind)
	require.Equal(t, Idle, g.State())
	_, waiting := g.Pending()
	require.False(t, waiting)
	require.Equal(t, 0, hist.Depth())
}

func TestAutoUpdateWhilePendingKeepsSlot(t *testing.T) {
	g, hist := newGate()
	g.Offer(cv.Update{PersonalInfo: &cv.PersonalInfo{FullName: "Ada"}})
	g.Offer(cv.Update{Config: &cv.TemplateConfig{TemplateID: "terminal"}})

	require.Equal(t, Pending, g.State())
	require.Equal(t, "terminal", hist.Current().Config.TemplateID)

	pending, ok := g.Pending()
	require.True(t, ok)
	require.Equal(t, "Ada", pending.PersonalInfo.FullName)
}
