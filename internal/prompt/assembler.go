// Package prompt builds the exact model request for one turn: the layered
// system instruction plus the windowed, mode-isolated conversation history.
//
// Assembly is a pure transformation. The only failure is a malformed
// attachment encoding, surfaced as a VALIDATION error.
package prompt

import (
	"strings"

	"google.golang.org/genai"

	"finintel/internal/apperr"
	"finintel/internal/logging"
	"finintel/internal/mode"
	"finintel/internal/types"
)

// DefaultWindow is the number of in-mode history turns kept per request.
const DefaultWindow = 8

// Input is everything needed to assemble one request.
type Input struct {
	Prompt      string
	Mode        mode.Mode
	Expertise   mode.ExpertiseLevel
	Goal        mode.FinancialGoal
	History     []types.ChatMessage
	Attachments []types.Attachment
}

// Request is the assembled payload handed to the intelligence client.
type Request struct {
	Mode              mode.Mode
	SystemInstruction string
	Contents          []*genai.Content
	// Vision is set when any turn in Contents carries inline binary parts.
	Vision bool
	// HistoryTurns counts the history turns that survived windowing.
	HistoryTurns int
}

// Assembler turns an Input into a Request.
type Assembler struct {
	// Window bounds the history turns per request. Zero or less means DefaultWindow.
	Window int
}

// NewAssembler creates an assembler with the given window.
func NewAssembler(window int) *Assembler {
	return &Assembler{Window: window}
}

func (a *Assembler) window() int {
	if a == nil || a.Window <= 0 {
		return DefaultWindow
	}
	return a.Window
}

// Assemble builds the request for a regular turn.
func (a *Assembler) Assemble(in Input) (*Request, error) {
	history := WindowHistory(types.FilterByMode(in.History, string(in.Mode)), a.window())
	return build(in, history)
}

// Summary builds a summarize request: fixed prompt, full in-mode history.
func (a *Assembler) Summary(in Input) (*Request, error) {
	in.Prompt = SummaryPrompt
	in.Attachments = nil
	return build(in, types.FilterByMode(in.History, string(in.Mode)))
}

// WindowHistory keeps the most recent k messages of history.
func WindowHistory(history []types.ChatMessage, k int) []types.ChatMessage {
	if k <= 0 || len(history) <= k {
		return history
	}
	return history[len(history)-k:]
}

func build(in Input, history []types.ChatMessage) (*Request, error) {
	if strings.TrimSpace(in.Prompt) == "" && len(in.Attachments) == 0 {
		return nil, apperr.Validation("Enter a prompt or attach a file before sending.")
	}

	vision := len(in.Attachments) > 0
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		c, err := toContent(roleFor(msg.Role), msg.Content, msg.Attachments)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if len(msg.Attachments) > 0 {
			vision = true
		}
		contents = append(contents, c)
	}

	turn, err := toContent(genai.RoleUser, in.Prompt, in.Attachments)
	if err != nil {
		return nil, err
	}
	contents = append(contents, turn)

	req := &Request{
		Mode:              in.Mode,
		SystemInstruction: SystemInstruction(in.Mode, in.Expertise, in.Goal, vision),
		Contents:          contents,
		Vision:            vision,
		HistoryTurns:      len(contents) - 1,
	}
	logging.PromptDebug("assembled request: mode=%s history=%d vision=%v system_len=%d",
		in.Mode, req.HistoryTurns, vision, len(req.SystemInstruction))
	return req, nil
}

// SystemInstruction layers persona, ethics, expertise, goal and capability
// directives in that fixed order.
func SystemInstruction(m mode.Mode, level mode.ExpertiseLevel, goal mode.FinancialGoal, vision bool) string {
	sections := []string{
		mode.ConfigFor(m).SystemPrompt,
		EthicsDirective,
		mode.ExpertiseModifier(level),
		mode.GoalModifier(goal),
		CapabilityDirective,
	}
	if vision {
		sections = append(sections, VisionDirective)
	}
	return strings.Join(sections, "\n\n")
}

func roleFor(r types.Role) genai.Role {
	if r == types.RoleUser {
		return genai.RoleUser
	}
	return genai.RoleModel
}

func toContent(role genai.Role, text string, attachments []types.Attachment) (*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(attachments)+1)
	if text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}
	for _, att := range attachments {
		raw, err := att.Decode()
		if err != nil {
			return nil, apperr.Validationf("Attachment %q could not be decoded.", att.Name)
		}
		parts = append(parts, genai.NewPartFromBytes(raw, att.MIMEType))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return genai.NewContentFromParts(parts, role), nil
}
