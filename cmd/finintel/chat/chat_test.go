package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finintel/cmd/finintel/ui"
	"finintel/internal/apperr"
	"finintel/internal/intel"
	"finintel/internal/mode"
	"finintel/internal/prompt"
	"finintel/internal/session"
	"finintel/internal/store"
)

type fakeAsker struct {
	reply string
	err   error
	calls int
}

func (f *fakeAsker) AskFinIntel(ctx context.Context, in prompt.Input) (*intel.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &intel.Result{Mode: string(in.Mode), Text: f.reply, Usage: intel.Usage{Total: 42}}, nil
}

func (f *fakeAsker) Summarize(ctx context.Context, in prompt.Input) (*intel.Result, error) {
	f.calls++
	return &intel.Result{Mode: string(in.Mode), Text: "Brief."}, nil
}

func newModel(t *testing.T, asker session.Asker) Model {
	t.Helper()
	kv := store.NewMemoryKV()
	conv, err := store.OpenConversations(kv)
	require.NoError(t, err)
	searches, err := store.OpenRecentSearches(kv)
	require.NoError(t, err)

	ctrl := session.New(asker, conv, searches, session.DefaultOptions())
	m := New(context.Background(), Config{Controller: ctrl, Styles: ui.DefaultStyles(), Username: "trader"})
	return step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

// step applies msg and runs any command that produces a reply.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	out := next.(Model)
	if cmd != nil && out.loading {
		next, _ = out.Update(cmd())
		out = next.(Model)
	}
	return out
}

func typeLine(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.textarea.SetValue(line)
	return step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_SendRoundTrip(t *testing.T) {
	asker := &fakeAsker{reply: "BIAS: BULLISH\nSUPPORT: 64,000"}
	m := newModel(t, asker)

	m = typeLine(t, m, "Analyze BTC")
	assert.False(t, m.loading)
	assert.Equal(t, 1, asker.calls)
	assert.Len(t, m.ctrl.Transcript(), 2)
	assert.Equal(t, "42 tokens", m.status)
	assert.Empty(t, m.textarea.Value())

	view := m.View()
	assert.Contains(t, view, "INTEL")
	assert.Contains(t, view, "trader")
}

func TestModel_EmptyEnterDoesNothing(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	m := typeLine(t, newModel(t, asker), "   ")
	assert.Zero(t, asker.calls)
	assert.Empty(t, m.ctrl.Transcript())
}

func TestModel_FailureSurfacesInStatus(t *testing.T) {
	asker := &fakeAsker{err: apperr.Network("Intelligence node unreachable.", errors.New("dial"))}
	m := typeLine(t, newModel(t, asker), "Analyze BTC")

	require.NotNil(t, m.ctrl.LastError())
	assert.Equal(t, apperr.CategoryNetwork, m.ctrl.LastError().Category)
	assert.Contains(t, m.View(), "NETWORK")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.ctrl.LastError())
}

func TestModel_RetryAfterFailure(t *testing.T) {
	asker := &fakeAsker{err: apperr.API("Provider fault: boom", nil)}
	m := typeLine(t, newModel(t, asker), "Analyze ETH")
	require.NotNil(t, m.ctrl.LastError())

	asker.err = nil
	asker.reply = "Recovered."
	m = typeLine(t, m, "/retry")
	assert.Nil(t, m.ctrl.LastError())
	assert.Len(t, m.ctrl.Transcript(), 2)
	assert.Equal(t, 2, asker.calls)
}

func TestModel_ModeCommands(t *testing.T) {
	m := newModel(t, &fakeAsker{reply: "ok"})
	start := m.ctrl.Mode()

	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, mode.Next(start), m.ctrl.Mode())

	m = typeLine(t, m, "/mode portfolio")
	assert.Equal(t, mode.Portfolio, m.ctrl.Mode())

	m = typeLine(t, m, "/mode nonsense")
	assert.Equal(t, mode.Portfolio, m.ctrl.Mode())
	assert.NotEmpty(t, m.status)
}

func TestModel_ModifierCommands(t *testing.T) {
	m := newModel(t, &fakeAsker{reply: "ok"})

	m = typeLine(t, m, "/expertise pro")
	assert.Equal(t, mode.Pro, m.ctrl.Expertise())

	m = typeLine(t, m, "/goal income")
	assert.Equal(t, mode.Income, m.ctrl.Goal())

	m = typeLine(t, m, "/goal")
	assert.Equal(t, mode.Income.Next(), m.ctrl.Goal())
}

func TestModel_ViewsAndUnknownCommand(t *testing.T) {
	m := newModel(t, &fakeAsker{reply: "ok"})

	m = typeLine(t, m, "/help")
	assert.Equal(t, HelpView, m.view)
	assert.Contains(t, m.View(), "/retry")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ChatView, m.view)

	m = typeLine(t, m, "/bogus")
	assert.Contains(t, m.status, "Unknown command /bogus")
}

func TestModel_ClearAndSearch(t *testing.T) {
	m := newModel(t, &fakeAsker{reply: "Gold looks heavy."})
	m = typeLine(t, m, "Analyze gold")
	m = typeLine(t, m, "Analyze silver")
	require.Len(t, m.ctrl.Transcript(), 4)

	m = typeLine(t, m, "/search silver")
	assert.Equal(t, "silver", m.filter)
	assert.Contains(t, m.ctrl.RecentSearches(), "silver")

	m = typeLine(t, m, "/clear")
	assert.Empty(t, m.ctrl.Transcript())
	assert.Contains(t, m.status, "Cleared 4 turns")
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, &fakeAsker{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}
