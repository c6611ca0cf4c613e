package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"finintel/internal/apperr"
	"finintel/internal/attachments"
	"finintel/internal/intel"
	"finintel/internal/mode"
	"finintel/internal/prompt"
	"finintel/internal/store"
	"finintel/internal/types"
)

// TestMain ensures no goroutines leak from in-flight sends. The opencensus
// worker is started at init by the genai dependency.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeAsker struct {
	mu      sync.Mutex
	inputs  []prompt.Input
	summary []prompt.Input
	reply   string
	sources []types.Source
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAsker) AskFinIntel(ctx context.Context, in prompt.Input) (*intel.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &intel.Result{Mode: string(in.Mode), Text: f.reply, Sources: f.sources, Usage: intel.Usage{Total: 3}}, nil
}

func (f *fakeAsker) Summarize(ctx context.Context, in prompt.Input) (*intel.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = append(f.summary, in)
	if f.err != nil {
		return nil, f.err
	}
	return &intel.Result{Mode: string(in.Mode), Text: "BRIEF"}, nil
}

func (f *fakeAsker) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func newController(t *testing.T, asker Asker) (*Controller, *store.Conversations) {
	t.Helper()
	kv := store.NewMemoryKV()
	conv, err := store.OpenConversations(kv)
	require.NoError(t, err)
	searches, err := store.OpenRecentSearches(kv)
	require.NoError(t, err)
	return New(asker, conv, searches, DefaultOptions()), conv
}

func TestSend_AnalyzeBTCSuccess(t *testing.T) {
	asker := &fakeAsker{reply: "BIAS: BULLISH\nRESISTANCE: 70,000 & 72,500\nSUPPORT: 64,000"}
	c, conv := newController(t, asker)

	turn, err := c.Send(context.Background(), "Analyze BTC")
	require.NoError(t, err)

	all := conv.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.RoleUser, all[0].Role)
	assert.Equal(t, "Analyze BTC", all[0].Content)
	assert.Equal(t, types.RoleAssistant, all[1].Role)
	assert.Equal(t, string(mode.Trading), all[0].Mode)
	assert.Equal(t, string(mode.Trading), all[1].Mode)

	require.NotNil(t, turn.Reply)
	require.NotNil(t, turn.Analysis.Technical)
	assert.Equal(t, "BULLISH", string(turn.Analysis.Technical.Bias))
	assert.Nil(t, c.LastError())

	require.Len(t, asker.inputs, 1)
	assert.Empty(t, asker.inputs[0].History)
	assert.Equal(t, mode.Intermediate, asker.inputs[0].Expertise)
}

func TestSend_AnalyzeBTCFailure(t *testing.T) {
	asker := &fakeAsker{err: apperr.RateLimited(errors.New("429"))}
	c, conv := newController(t, asker)

	turn, err := c.Send(context.Background(), "Analyze BTC")
	require.Error(t, err)
	require.NotNil(t, turn)
	assert.Nil(t, turn.Reply)

	all := conv.All()
	require.Len(t, all, 1)
	assert.Equal(t, types.RoleUser, all[0].Role)

	last := c.LastError()
	require.NotNil(t, last)
	assert.Equal(t, apperr.CategoryAPI, last.Category)
	assert.True(t, last.RateLimited)
}

func TestSend_WrapsForeignErrors(t *testing.T) {
	c, _ := newController(t, &fakeAsker{err: errors.New("boom")})

	_, err := c.Send(context.Background(), "Analyze BTC")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryAPI, ae.Category)
	assert.Same(t, ae, c.LastError())
}

func TestSend_EmptyPrompt(t *testing.T) {
	asker := &fakeAsker{reply: "x"}
	c, conv := newController(t, asker)

	_, err := c.Send(context.Background(), "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 0, conv.Len())
	assert.Empty(t, asker.inputs)
	require.NotNil(t, c.LastError())
}

func TestSend_HistoryIsPriorTurnsOfActiveMode(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	c, _ := newController(t, asker)
	ctx := context.Background()

	_, err := c.Send(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, c.SwitchMode(mode.Analyst))
	_, err = c.Send(ctx, "analyst question")
	require.NoError(t, err)
	require.NoError(t, c.SwitchMode(mode.Trading))
	_, err = c.Send(ctx, "second")
	require.NoError(t, err)

	require.Len(t, asker.inputs, 3)
	assert.Empty(t, asker.inputs[1].History)
	hist := asker.inputs[2].History
	require.Len(t, hist, 2)
	assert.Equal(t, "first", hist[0].Content)
	assert.Equal(t, "ok", hist[1].Content)
	assert.Len(t, c.Transcript(), 4)
}

func TestSend_RejectsWhileInFlight(t *testing.T) {
	asker := &fakeAsker{reply: "ok", gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, conv := newController(t, asker)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "Analyze BTC")
		done <- err
	}()
	<-asker.entered
	assert.True(t, c.Busy())

	_, err := c.Send(context.Background(), "again")
	require.Error(t, err)
	ae, _ := apperr.As(err)
	assert.Equal(t, MsgBusy, ae.Message)

	close(asker.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, 2, conv.Len())
}

func TestRetry_ReplaysWithoutDuplicateUserTurn(t *testing.T) {
	asker := &fakeAsker{err: apperr.API("down", nil)}
	c, conv := newController(t, asker)
	ctx := context.Background()

	_, err := c.Send(ctx, "Analyze BTC")
	require.Error(t, err)

	asker.setErr(nil)
	asker.reply = "BIAS: BEARISH"
	turn, err := c.Retry(ctx)
	require.NoError(t, err)
	require.NotNil(t, turn.Reply)
	assert.Nil(t, c.LastError())

	all := conv.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.RoleUser, all[0].Role)
	assert.Equal(t, types.RoleAssistant, all[1].Role)

	require.Len(t, asker.inputs, 2)
	assert.Equal(t, asker.inputs[0].Prompt, asker.inputs[1].Prompt)
	assert.Empty(t, asker.inputs[1].History)

	_, err = c.Retry(ctx)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestRetry_KeepsAttachments(t *testing.T) {
	asker := &fakeAsker{err: apperr.API("down", nil)}
	c, _ := newController(t, asker)

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, pngBytes(), 0o600))
	_, err := c.AttachFile(path)
	require.NoError(t, err)
	require.Len(t, c.PendingAttachments(), 1)

	_, err = c.Send(context.Background(), "Read this chart")
	require.Error(t, err)
	assert.Empty(t, c.PendingAttachments())

	asker.setErr(nil)
	_, err = c.Retry(context.Background())
	require.NoError(t, err)
	require.Len(t, asker.inputs, 2)
	assert.Len(t, asker.inputs[1].Attachments, 1)
	assert.Equal(t, "image/png", asker.inputs[1].Attachments[0].MIMEType)
}

func TestSummarize(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	c, conv := newController(t, asker)
	ctx := context.Background()

	_, err := c.Summarize(ctx)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = c.Send(ctx, "Analyze BTC")
	require.NoError(t, err)
	turn, err := c.Summarize(ctx)
	require.NoError(t, err)
	assert.Nil(t, turn.User)
	assert.Equal(t, "BRIEF", turn.Reply.Content)
	require.Len(t, asker.summary, 1)
	assert.Len(t, asker.summary[0].History, 2)
	assert.Equal(t, 3, conv.Len())
}

func TestClearHistory_ActiveModeOnly(t *testing.T) {
	c, conv := newController(t, &fakeAsker{reply: "ok"})
	ctx := context.Background()

	_, err := c.Send(ctx, "trading")
	require.NoError(t, err)
	require.NoError(t, c.SwitchMode(mode.Mentor))
	_, err = c.Send(ctx, "mentor")
	require.NoError(t, err)

	n, err := c.ClearHistory()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, c.Transcript())
	assert.Equal(t, 2, conv.Len())

	require.NoError(t, c.ClearAll())
	assert.Equal(t, 0, conv.Len())
}

func TestModifiersAndModeValidation(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	c, _ := newController(t, asker)

	require.NoError(t, c.SetExpertise(mode.Pro))
	require.NoError(t, c.SetGoal(mode.Income))
	assert.Error(t, c.SetExpertise("GURU"))
	assert.Error(t, c.SetGoal("LOTTERY"))
	assert.Error(t, c.SwitchMode("ASTROLOGY"))
	assert.Equal(t, mode.Trading, c.Mode())

	_, err := c.Send(context.Background(), "Analyze BTC")
	require.NoError(t, err)
	assert.Equal(t, mode.Pro, asker.inputs[0].Expertise)
	assert.Equal(t, mode.Income, asker.inputs[0].Goal)
}

func TestSwitchMode_DismissesError(t *testing.T) {
	c, _ := newController(t, &fakeAsker{err: apperr.API("down", nil)})
	_, _ = c.Send(context.Background(), "Analyze BTC")
	require.NotNil(t, c.LastError())

	require.NoError(t, c.SwitchMode(mode.Portfolio))
	assert.Nil(t, c.LastError())
}

func TestAttachments(t *testing.T) {
	c, _ := newController(t, &fakeAsker{reply: "ok"})

	big := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(big, make([]byte, attachments.MaxSize+1), 0o600))
	_, err := c.AttachFile(big)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Empty(t, c.PendingAttachments())

	_, err = c.AttachCapture(context.Background(), deniedCapturer{})
	assert.True(t, errors.Is(err, apperr.ErrPermissions))
	c.DismissError()
	assert.Nil(t, c.LastError())

	path := filepath.Join(t.TempDir(), "one.png")
	require.NoError(t, os.WriteFile(path, pngBytes(), 0o600))
	_, err = c.AttachCapture(context.Background(), attachments.FileCapturer{Path: path})
	require.NoError(t, err)
	_, err = c.AttachFile(path)
	require.NoError(t, err)
	require.Len(t, c.PendingAttachments(), 2)

	assert.Error(t, c.RemoveAttachment(5))
	require.NoError(t, c.RemoveAttachment(0))
	assert.Len(t, c.PendingAttachments(), 1)
}

func TestSend_AttachmentOnly(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	c, conv := newController(t, asker)

	path := filepath.Join(t.TempDir(), "one.png")
	require.NoError(t, os.WriteFile(path, pngBytes(), 0o600))
	_, err := c.AttachFile(path)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "")
	require.NoError(t, err)
	all := conv.All()
	require.Len(t, all, 2)
	assert.Len(t, all[0].Attachments, 1)
}

func TestSearch_RemembersTerms(t *testing.T) {
	c, _ := newController(t, &fakeAsker{reply: "BIAS: BULLISH"})
	_, err := c.Send(context.Background(), "Analyze BTC")
	require.NoError(t, err)

	hits := c.Search("btc")
	require.Len(t, hits, 1)
	assert.Equal(t, "Analyze BTC", hits[0].Content)

	assert.Len(t, c.Search(""), 2)
	assert.Equal(t, []string{"btc"}, c.RecentSearches())
}

type deniedCapturer struct{}

func (deniedCapturer) Capture(context.Context) (string, []byte, error) {
	return "", nil, attachments.ErrPermissionDenied
}

// pngBytes is a minimal PNG header sufficient for MIME sniffing.
func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}
}
