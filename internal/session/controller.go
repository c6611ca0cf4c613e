// Package session implements the send-handler boundary: it owns the active
// mode and modifiers, the pending attachments and the last surfaced error,
// and turns every intelligence call into transcript appends or one AppError.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"finintel/internal/apperr"
	"finintel/internal/attachments"
	"finintel/internal/intel"
	"finintel/internal/interpret"
	"finintel/internal/logging"
	"finintel/internal/mode"
	"finintel/internal/prompt"
	"finintel/internal/store"
	"finintel/internal/types"
)

// MsgBusy is returned when a send is attempted while one is in flight.
const MsgBusy = "A request is already in progress. Wait for the current analysis to finish."

// Asker is the intelligence client as seen by the controller.
type Asker interface {
	AskFinIntel(ctx context.Context, in prompt.Input) (*intel.Result, error)
	Summarize(ctx context.Context, in prompt.Input) (*intel.Result, error)
}

// Options seeds the controller state.
type Options struct {
	Mode      mode.Mode
	Expertise mode.ExpertiseLevel
	Goal      mode.FinancialGoal
}

// DefaultOptions returns TRADING / INTERMEDIATE / ACCUMULATION.
func DefaultOptions() Options {
	return Options{Mode: mode.Trading, Expertise: mode.Intermediate, Goal: mode.Accumulation}
}

// Turn is the outcome of one exchange.
type Turn struct {
	User     *types.ChatMessage
	Reply    *types.ChatMessage
	Analysis interpret.Analysis
	Usage    intel.Usage
}

// Controller runs one chat session.
type Controller struct {
	asker    Asker
	conv     *store.Conversations
	searches *store.RecentSearches
	cache    *interpret.Cache

	inflight *semaphore.Weighted
	busy     atomic.Bool

	mu        sync.Mutex
	mode      mode.Mode
	expertise mode.ExpertiseLevel
	goal      mode.FinancialGoal
	pending   []types.Attachment
	lastErr   *apperr.AppError
}

// New creates a controller. searches may be nil.
func New(asker Asker, conv *store.Conversations, searches *store.RecentSearches, opts Options) *Controller {
	def := DefaultOptions()
	if !opts.Mode.Valid() {
		opts.Mode = def.Mode
	}
	if opts.Expertise == "" {
		opts.Expertise = def.Expertise
	}
	if opts.Goal == "" {
		opts.Goal = def.Goal
	}
	cache, _ := interpret.NewCache(interpret.DefaultCacheSize)
	return &Controller{
		asker:     asker,
		conv:      conv,
		searches:  searches,
		cache:     cache,
		inflight:  semaphore.NewWeighted(1),
		mode:      opts.Mode,
		expertise: opts.Expertise,
		goal:      opts.Goal,
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() mode.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Expertise returns the active expertise level.
func (c *Controller) Expertise() mode.ExpertiseLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expertise
}

// Goal returns the active financial goal.
func (c *Controller) Goal() mode.FinancialGoal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goal
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

func (c *Controller) acquire() error {
	if !c.inflight.TryAcquire(1) {
		logging.SessionWarn("send rejected: request in flight")
		return apperr.Validation(MsgBusy)
	}
	c.busy.Store(true)
	return nil
}

func (c *Controller) release() {
	c.busy.Store(false)
	c.inflight.Release(1)
}

// fail records ae as the surfaced error and returns it.
func (c *Controller) fail(ae *apperr.AppError) *apperr.AppError {
	c.mu.Lock()
	c.lastErr = ae
	c.mu.Unlock()
	logging.SessionWarn("surfaced %s error (retryable=%v): %s", ae.Category, ae.Retryable, ae.Message)
	return ae
}

func (c *Controller) input(m mode.Mode, text string, history []types.ChatMessage, atts []types.Attachment) prompt.Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	return prompt.Input{
		Prompt:      text,
		Mode:        m,
		Expertise:   c.expertise,
		Goal:        c.goal,
		History:     history,
		Attachments: atts,
	}
}

// Send appends one user turn with the pending attachments, asks the
// intelligence client and appends one assistant turn on success. A failed
// call keeps the user turn so Retry can replay it.
func (c *Controller) Send(ctx context.Context, text string) (*Turn, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	c.mu.Lock()
	m := c.mode
	atts := c.pending
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" && len(atts) == 0 {
		return nil, c.fail(apperr.Validation("Enter a prompt or attach a file before sending."))
	}
	c.DismissError()

	history := c.conv.ForMode(string(m))
	user := types.NewUserMessage(string(m), text, atts)
	if err := c.conv.Append(user); err != nil {
		return nil, c.fail(apperr.API("Failed to record the request.", err))
	}

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	logging.Session("send: mode=%s history=%d attachments=%d", m, len(history), len(atts))
	return c.exchange(ctx, &user, c.input(m, text, history, atts), false)
}

// Retry replays the last user turn of the active mode verbatim. It is only
// valid while that turn has no reply.
func (c *Controller) Retry(ctx context.Context) (*Turn, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	m := c.Mode()
	transcript := c.conv.ForMode(string(m))
	if len(transcript) == 0 || transcript[len(transcript)-1].Role != types.RoleUser {
		return nil, c.fail(apperr.Validation("Nothing to retry."))
	}
	c.DismissError()

	last := transcript[len(transcript)-1]
	history := transcript[:len(transcript)-1]
	logging.Session("retry: mode=%s history=%d", m, len(history))
	return c.exchange(ctx, &last, c.input(m, last.Content, history, last.Attachments), false)
}

// Summarize condenses the full in-mode history into a brief appended as an
// assistant turn.
func (c *Controller) Summarize(ctx context.Context) (*Turn, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	m := c.Mode()
	history := c.conv.ForMode(string(m))
	if len(history) == 0 {
		return nil, c.fail(apperr.Validation("Nothing to summarize in this mode yet."))
	}
	c.DismissError()

	logging.Session("summarize: mode=%s history=%d", m, len(history))
	return c.exchange(ctx, nil, c.input(m, "", history, nil), true)
}

func (c *Controller) exchange(ctx context.Context, user *types.ChatMessage, in prompt.Input, summary bool) (*Turn, error) {
	turn := &Turn{User: user}

	var (
		res *intel.Result
		err error
	)
	if summary {
		res, err = c.asker.Summarize(ctx, in)
	} else {
		res, err = c.asker.AskFinIntel(ctx, in)
	}
	if err != nil {
		return turn, c.fail(apperr.Wrap(err))
	}

	reply := types.NewAssistantMessage(string(in.Mode), res.Text, res.Sources)
	if err := c.conv.Append(reply); err != nil {
		return turn, c.fail(apperr.API("Failed to record the analysis.", err))
	}

	turn.Reply = &reply
	turn.Usage = res.Usage
	turn.Analysis = c.Analyze(in.Mode, res.Text)
	logging.SessionDebug("reply appended: mode=%s len=%d sources=%d", in.Mode, len(res.Text), len(res.Sources))
	return turn, nil
}

// Analyze runs the memoized interpreter over a reply.
func (c *Controller) Analyze(m mode.Mode, text string) interpret.Analysis {
	if c.cache == nil {
		return interpret.Analyze(m, text)
	}
	return c.cache.Analyze(m, text)
}

// ClearHistory clears the active mode and returns how many turns were removed.
func (c *Controller) ClearHistory() (int, error) {
	m := c.Mode()
	n, err := c.conv.ClearMode(string(m))
	if err != nil {
		return 0, c.fail(apperr.API("Failed to clear history.", err))
	}
	return n, nil
}

// ClearAll clears every mode.
func (c *Controller) ClearAll() error {
	if err := c.conv.ClearAll(); err != nil {
		return c.fail(apperr.API("Failed to clear history.", err))
	}
	return nil
}

// SwitchMode changes the active mode. The surfaced error belongs to the
// previous mode and is dismissed.
func (c *Controller) SwitchMode(m mode.Mode) error {
	if !m.Valid() {
		return c.fail(apperr.Validationf("Unknown mode %q.", string(m)))
	}
	c.mu.Lock()
	prev := c.mode
	c.mode = m
	c.lastErr = nil
	c.mu.Unlock()
	logging.Session("mode switched: %s -> %s", prev, m)
	return nil
}

// SetExpertise changes the expertise modifier.
func (c *Controller) SetExpertise(level mode.ExpertiseLevel) error {
	if _, err := mode.ParseExpertise(string(level)); err != nil {
		return c.fail(apperr.Validationf("Unknown expertise level %q.", string(level)))
	}
	c.mu.Lock()
	c.expertise = level
	c.mu.Unlock()
	return nil
}

// SetGoal changes the goal modifier.
func (c *Controller) SetGoal(goal mode.FinancialGoal) error {
	if _, err := mode.ParseGoal(string(goal)); err != nil {
		return c.fail(apperr.Validationf("Unknown financial goal %q.", string(goal)))
	}
	c.mu.Lock()
	c.goal = goal
	c.mu.Unlock()
	return nil
}

// AttachFile ingests a file into the pending attachments.
func (c *Controller) AttachFile(path string) (types.Attachment, error) {
	att, err := attachments.LoadFile(path)
	if err != nil {
		return types.Attachment{}, c.fail(apperr.Wrap(err))
	}
	c.addPending(att)
	return att, nil
}

// AttachCapture takes a capture from capturer into the pending attachments.
func (c *Controller) AttachCapture(ctx context.Context, capturer attachments.Capturer) (types.Attachment, error) {
	att, err := attachments.Capture(ctx, capturer)
	if err != nil {
		return types.Attachment{}, c.fail(apperr.Wrap(err))
	}
	c.addPending(att)
	return att, nil
}

func (c *Controller) addPending(att types.Attachment) {
	c.mu.Lock()
	c.pending = append(c.pending, att)
	n := len(c.pending)
	c.mu.Unlock()
	logging.Attachments("attached %s (%s, %d bytes), pending=%d", att.Name, att.MIMEType, att.Size(), n)
}

// RemoveAttachment drops the pending attachment at index i.
func (c *Controller) RemoveAttachment(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.pending) {
		return apperr.Validationf("No pending attachment at position %d.", i+1)
	}
	next := make([]types.Attachment, 0, len(c.pending)-1)
	next = append(next, c.pending[:i]...)
	c.pending = append(next, c.pending[i+1:]...)
	return nil
}

// PendingAttachments returns a copy of the pending attachments.
func (c *Controller) PendingAttachments() []types.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Attachment(nil), c.pending...)
}

// LastError returns the surfaced error, or nil.
func (c *Controller) LastError() *apperr.AppError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// DismissError clears the surfaced error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// Transcript returns the active mode's turns in send order.
func (c *Controller) Transcript() []types.ChatMessage {
	return c.conv.ForMode(string(c.Mode()))
}

// Search filters the active transcript and remembers the term.
func (c *Controller) Search(term string) []types.ChatMessage {
	if c.searches != nil && strings.TrimSpace(term) != "" {
		if err := c.searches.Remember(term); err != nil {
			logging.SessionWarn("failed to remember search %q: %v", term, err)
		}
	}
	return store.Search(c.Transcript(), term)
}

// RecentSearches returns remembered search terms, newest first.
func (c *Controller) RecentSearches() []string {
	if c.searches == nil {
		return nil
	}
	return c.searches.Terms()
}
