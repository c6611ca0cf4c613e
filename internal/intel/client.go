// Package intel dispatches assembled prompts to Gemini and converts every
// outcome into a Result or exactly one categorized AppError.
package intel

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"finintel/internal/apperr"
	"finintel/internal/config"
	"finintel/internal/logging"
	"finintel/internal/prompt"
	"finintel/internal/types"
	"finintel/internal/usage"
)

// Options tunes the dispatch configuration.
type Options struct {
	Model           string
	Temperature     float32
	ThinkingBudget  int32
	SearchGrounding bool
	Timeout         time.Duration
	HistoryWindow   int
}

// DefaultOptions returns the dispatch defaults.
func DefaultOptions() Options {
	return Options{
		Model:           "gemini-3-pro-preview",
		Temperature:     0.5,
		ThinkingBudget:  4000,
		SearchGrounding: true,
		Timeout:         45 * time.Second,
		HistoryWindow:   prompt.DefaultWindow,
	}
}

// OptionsFromConfig maps the llm and conversation sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		ThinkingBudget:  cfg.LLM.ThinkingBudget,
		SearchGrounding: cfg.LLM.SearchGrounding,
		Timeout:         cfg.GetLLMTimeout(),
		HistoryWindow:   cfg.Conversation.HistoryWindow,
	}
}

// Result is a successful analysis.
type Result struct {
	Mode     string
	Text     string
	Sources  []types.Source
	Usage    Usage
	Duration time.Duration
}

// Client is the intelligence client.
type Client struct {
	gen       Generator
	apiKey    string
	opts      Options
	assembler *prompt.Assembler
	conn      Connectivity
	recorder  usage.Recorder
}

// New creates a client over gen. The credential is read once.
func New(gen Generator, creds config.CredentialProvider, opts Options) *Client {
	def := DefaultOptions()
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	key := ""
	if creds != nil {
		key = creds.APIKey()
	}
	return &Client{
		gen:       gen,
		apiKey:    key,
		opts:      opts,
		assembler: prompt.NewAssembler(opts.HistoryWindow),
		conn:      AlwaysOnline{},
	}
}

// NewClient wires the Gemini transport from configuration. A missing
// credential is not an error here; every call then fails as AUTH.
func NewClient(ctx context.Context, cfg *config.Config, creds config.CredentialProvider) (*Client, error) {
	if creds == nil {
		creds = cfg.Credential()
	}
	key := creds.APIKey()

	var gen Generator
	if key != "" {
		g, err := NewGenerator(ctx, key)
		if err != nil {
			return nil, err
		}
		gen = g
	}

	c := New(gen, config.StaticCredential(key), OptionsFromConfig(cfg))
	c.conn = NewDialProbe(cfg.LLM.ConnectivityHost)
	logging.Boot("intel client ready: model=%s grounding=%v credential=%v",
		c.opts.Model, c.opts.SearchGrounding, key != "")
	return c, nil
}

// WithConnectivity replaces the connectivity probe.
func (c *Client) WithConnectivity(conn Connectivity) *Client {
	if conn == nil {
		conn = AlwaysOnline{}
	}
	c.conn = conn
	return c
}

// WithRecorder sets the usage recorder notified after every dispatch.
func (c *Client) WithRecorder(r usage.Recorder) *Client {
	c.recorder = r
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.opts.Model }

// AskFinIntel assembles and dispatches one user turn.
func (c *Client) AskFinIntel(ctx context.Context, in prompt.Input) (*Result, error) {
	if err := c.preflight(ctx); err != nil {
		return nil, err
	}
	req, err := c.assembler.Assemble(in)
	if err != nil {
		return nil, err
	}
	return c.dispatch(ctx, req, usage.OperationAsk)
}

// Summarize condenses the in-mode history into a brief.
func (c *Client) Summarize(ctx context.Context, in prompt.Input) (*Result, error) {
	if err := c.preflight(ctx); err != nil {
		return nil, err
	}
	req, err := c.assembler.Summary(in)
	if err != nil {
		return nil, err
	}
	return c.dispatch(ctx, req, usage.OperationSummarize)
}

// Dispatch sends an already assembled request.
func (c *Client) Dispatch(ctx context.Context, req *prompt.Request) (*Result, error) {
	if err := c.preflight(ctx); err != nil {
		return nil, err
	}
	return c.dispatch(ctx, req, usage.OperationAsk)
}

// preflight checks the credential and the link before any request is sent.
func (c *Client) preflight(ctx context.Context) error {
	if c.apiKey == "" || c.gen == nil {
		logging.APIWarn("dispatch refused: no credential configured")
		return apperr.Auth(msgMissingKey, nil)
	}
	if !c.conn.Online(ctx) {
		logging.APIWarn("dispatch refused: connectivity probe failed")
		return apperr.Network(msgOffline, nil)
	}
	return nil
}

func (c *Client) generateConfig(req *prompt.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(c.opts.Temperature),
	}
	if c.opts.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.opts.ThinkingBudget)}
	}
	if c.opts.SearchGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func (c *Client) dispatch(ctx context.Context, req *prompt.Request, op string) (*Result, error) {
	if req == nil {
		return nil, apperr.Validation("Nothing to send.")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryAPI, fmt.Sprintf("GenerateContent mode=%s op=%s", req.Mode, op))
	logging.APIDebug("dispatch: mode=%s op=%s history=%d vision=%v system_len=%d",
		req.Mode, op, req.HistoryTurns, req.Vision, len(req.SystemInstruction))

	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, c.opts.Model, req.Contents, c.generateConfig(req))
	elapsed := time.Since(start)
	timer.StopWithThreshold(10 * time.Second)

	var (
		text string
		srcs []types.Source
		u    Usage
		ae   *apperr.AppError
	)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		ae = classify(err)
	} else {
		text, srcs, u, ae = readResponse(resp)
	}

	c.record(ctx, req, op, u, elapsed, ae)

	if ae != nil {
		logging.APIError("dispatch failed: mode=%s op=%s category=%s retryable=%v: %v",
			req.Mode, op, ae.Category, ae.Retryable, ae)
		return nil, ae
	}

	logging.API("dispatch ok: mode=%s op=%s in %v text_len=%d sources=%d tokens=%d",
		req.Mode, op, elapsed, len(text), len(srcs), u.Total)
	return &Result{
		Mode:     string(req.Mode),
		Text:     text,
		Sources:  srcs,
		Usage:    u,
		Duration: elapsed,
	}, nil
}

func (c *Client) record(ctx context.Context, req *prompt.Request, op string, u Usage, d time.Duration, ae *apperr.AppError) {
	r := c.recorder
	if r == nil {
		r = usage.FromContext(ctx)
	}
	if r == nil {
		return
	}
	outcome := usage.OutcomeOK
	if ae != nil {
		outcome = string(ae.Category)
	}
	r.Record(ctx, usage.Event{
		Timestamp:      time.Now(),
		Model:          c.opts.Model,
		Mode:           string(req.Mode),
		Operation:      op,
		Outcome:        outcome,
		InputTokens:    u.Prompt,
		OutputTokens:   u.Output,
		ThoughtsTokens: u.Thoughts,
		Duration:       d,
	})
}
