package intel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"finintel/internal/apperr"
	"finintel/internal/config"
	"finintel/internal/mode"
	"finintel/internal/prompt"
	"finintel/internal/types"
	"finintel/internal/usage"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	model   string
	config  *genai.GenerateContentConfig
	content []*genai.Content
	resp    *genai.GenerateContentResponse
	err     error
	block   bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.model = model
	f.config = cfg
	f.content = contents
	resp, err, block := f.resp, f.err, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return resp, err
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type offline struct{}

func (offline) Online(context.Context) bool { return false }

type captureRecorder struct {
	events []usage.Event
}

func (c *captureRecorder) Record(_ context.Context, ev usage.Event) {
	c.events = append(c.events, ev)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func tradingInput(p string) prompt.Input {
	return prompt.Input{
		Prompt:    p,
		Mode:      mode.Trading,
		Expertise: mode.Intermediate,
		Goal:      mode.Accumulation,
	}
}

func newTestClient(gen Generator) *Client {
	return New(gen, config.StaticCredential("test-key"), DefaultOptions())
}

func TestAskFinIntel_NoCredentialNeverDispatches(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := New(gen, config.StaticCredential(""), DefaultOptions())

	_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAuth))
	ae, _ := apperr.As(err)
	assert.False(t, ae.Retryable)
	assert.Equal(t, 0, gen.Calls())
}

func TestAskFinIntel_OfflineNeverDispatches(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := newTestClient(gen).WithConnectivity(offline{})

	_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryNetwork, ae.Category)
	assert.True(t, ae.Retryable)
	assert.Equal(t, 0, gen.Calls())
}

func TestAskFinIntel_Success(t *testing.T) {
	resp := textResponse("BIAS: BULLISH\nRESISTANCE: 70,000")
	resp.Candidates[0].Content.Parts = append([]*genai.Part{{Text: "thinking...", Thought: true}}, resp.Candidates[0].Content.Parts...)
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://c.example", Title: "C"}},
			{},
		},
	}
	resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount: 100, CandidatesTokenCount: 20, ThoughtsTokenCount: 30, TotalTokenCount: 150,
	}

	gen := &fakeGenerator{resp: resp}
	rec := &captureRecorder{}
	c := newTestClient(gen).WithRecorder(rec)

	res, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.NoError(t, err)
	assert.Equal(t, "BIAS: BULLISH\nRESISTANCE: 70,000", res.Text)
	assert.Equal(t, string(mode.Trading), res.Mode)
	if diff := cmp.Diff([]types.Source{
		{Title: "A", URI: "https://a.example"},
		{Title: "C", URI: "https://c.example"},
	}, res.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Usage{Prompt: 100, Output: 20, Thoughts: 30, Total: 150}, res.Usage)

	require.Len(t, rec.events, 1)
	assert.Equal(t, usage.OperationAsk, rec.events[0].Operation)
	assert.Equal(t, usage.OutcomeOK, rec.events[0].Outcome)
	assert.Equal(t, 100, rec.events[0].InputTokens)
}

func TestAskFinIntel_DispatchConfig(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := newTestClient(gen)

	_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-3-pro-preview", gen.model)
	require.NotNil(t, gen.config.Temperature)
	assert.Equal(t, float32(0.5), *gen.config.Temperature)
	require.NotNil(t, gen.config.ThinkingConfig)
	assert.Equal(t, int32(4000), *gen.config.ThinkingConfig.ThinkingBudget)
	require.Len(t, gen.config.Tools, 1)
	assert.NotNil(t, gen.config.Tools[0].GoogleSearch)
	require.NotNil(t, gen.config.SystemInstruction)
	assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, mode.ConfigFor(mode.Trading).SystemPrompt)
	require.Len(t, gen.content, 1)
	assert.Equal(t, "Analyze BTC", gen.content[0].Parts[0].Text)
}

func TestAskFinIntel_SearchGroundingDisabled(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	opts := DefaultOptions()
	opts.SearchGrounding = false
	opts.ThinkingBudget = 0
	c := New(gen, config.StaticCredential("k"), opts)

	_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.NoError(t, err)
	assert.Empty(t, gen.config.Tools)
	assert.Nil(t, gen.config.ThinkingConfig)
}

func TestAskFinIntel_ResponseFailures(t *testing.T) {
	blocked := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"},
	}
	safetyFinish := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	onlyThoughts := textResponse("internal")
	onlyThoughts.Candidates[0].Content.Parts[0].Thought = true

	tests := []struct {
		name      string
		resp      *genai.GenerateContentResponse
		category  apperr.Category
		retryable bool
	}{
		{"prompt blocked", blocked, apperr.CategorySafety, false},
		{"safety finish", safetyFinish, apperr.CategorySafety, false},
		{"no candidates", &genai.GenerateContentResponse{}, apperr.CategoryAPI, true},
		{"empty text", textResponse("   "), apperr.CategoryAPI, true},
		{"thoughts only", onlyThoughts, apperr.CategoryAPI, true},
		{"nil response", nil, apperr.CategoryAPI, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captureRecorder{}
			c := newTestClient(&fakeGenerator{resp: tt.resp}).WithRecorder(rec)
			_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
			require.Error(t, err)
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.category, ae.Category)
			assert.Equal(t, tt.retryable, ae.Retryable)
			require.Len(t, rec.events, 1)
			assert.Equal(t, string(tt.category), rec.events[0].Outcome)
		})
	}
}

func TestAskFinIntel_TransportErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		category    apperr.Category
		rateLimited bool
	}{
		{"api 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, apperr.CategoryAPI, true},
		{"api 429 pointer", &genai.APIError{Code: 429}, apperr.CategoryAPI, true},
		{"api 401", genai.APIError{Code: 401, Status: "UNAUTHENTICATED"}, apperr.CategoryAuth, false},
		{"api bad key", genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, apperr.CategoryAuth, false},
		{"api 500", genai.APIError{Code: 500, Message: "internal"}, apperr.CategoryAPI, false},
		{"wrapped api", fmt.Errorf("call: %w", genai.APIError{Code: 429}), apperr.CategoryAPI, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "generativelanguage.googleapis.com"}, apperr.CategoryNetwork, false},
		{"sniff quota", errors.New("quota exceeded for project"), apperr.CategoryAPI, true},
		{"sniff safety", errors.New("candidate blocked for safety"), apperr.CategorySafety, false},
		{"sniff key", errors.New("missing api key"), apperr.CategoryAuth, false},
		{"unknown", errors.New("boom"), apperr.CategoryAPI, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeGenerator{err: tt.err})
			_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
			require.Error(t, err)
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.category, ae.Category)
			assert.Equal(t, tt.rateLimited, ae.RateLimited)
			if tt.rateLimited {
				assert.Equal(t, apperr.RateLimitMessage, ae.Message)
				assert.True(t, ae.Retryable)
			}
		})
	}
}

func TestAskFinIntel_Timeout(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	c := New(&fakeGenerator{block: true}, config.StaticCredential("k"), opts)

	_, err := c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryAPI, ae.Category)
	assert.True(t, ae.Retryable)
	assert.Contains(t, ae.Message, "timed out")
}

func TestAskFinIntel_ValidationBeforeDispatch(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := newTestClient(gen)

	_, err := c.AskFinIntel(context.Background(), tradingInput("  "))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 0, gen.Calls())
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("brief")}
	rec := &captureRecorder{}
	c := newTestClient(gen).WithRecorder(rec)

	in := tradingInput("")
	in.History = []types.ChatMessage{
		types.NewUserMessage(string(mode.Trading), "Analyze BTC", nil),
		types.NewAssistantMessage(string(mode.Trading), "BIAS: BULLISH", nil),
	}
	res, err := c.Summarize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "brief", res.Text)
	assert.Len(t, gen.content, 3)
	require.Len(t, rec.events, 1)
	assert.Equal(t, usage.OperationSummarize, rec.events[0].Operation)
}

func TestRecorderFromContext(t *testing.T) {
	rec := &captureRecorder{}
	c := newTestClient(&fakeGenerator{resp: textResponse("ok")})

	ctx := usage.NewContext(context.Background(), rec)
	_, err := c.AskFinIntel(ctx, tradingInput("Analyze BTC"))
	require.NoError(t, err)
	assert.Len(t, rec.events, 1)
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	assert.True(t, DialProbe{Addr: addr, Timeout: time.Second}.Online(context.Background()))
	require.NoError(t, ln.Close())
	assert.False(t, DialProbe{Addr: addr, Timeout: time.Second}.Online(context.Background()))

	_, ok := NewDialProbe("").(AlwaysOnline)
	assert.True(t, ok)
}

func TestNewClient_MissingCredential(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = ""
	c, err := NewClient(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = c.AskFinIntel(context.Background(), tradingInput("Analyze BTC"))
	assert.True(t, errors.Is(err, apperr.ErrAuth))
}
