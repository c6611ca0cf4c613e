package intel

import (
	"strings"

	"google.golang.org/genai"

	"finintel/internal/apperr"
	"finintel/internal/types"
)

// Usage is the token accounting reported for one call.
type Usage struct {
	Prompt   int
	Output   int
	Thoughts int
	Total    int
}

var safetyFinish = map[genai.FinishReason]bool{
	"SAFETY":             true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
	"IMAGE_SAFETY":       true,
}

// readResponse extracts answer text, sources and usage, or the failure the
// response itself signals.
func readResponse(resp *genai.GenerateContentResponse) (string, []types.Source, Usage, *apperr.AppError) {
	if resp == nil {
		return "", nil, Usage{}, apperr.API(msgNoCandidates, nil)
	}
	u := readUsage(resp.UsageMetadata)

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != "BLOCKED_REASON_UNSPECIFIED" {
		return "", nil, u, apperr.Safety(msgSafety, nil)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", nil, u, apperr.API(msgNoCandidates, nil)
	}

	cand := resp.Candidates[0]
	if safetyFinish[cand.FinishReason] {
		return "", nil, u, apperr.Safety(msgSafety, nil)
	}

	text := candidateText(cand)
	if strings.TrimSpace(text) == "" {
		return "", nil, u, apperr.API(msgEmptyText, nil)
	}
	return text, sources(cand.GroundingMetadata), u, nil
}

// candidateText joins text parts, skipping thoughts.
func candidateText(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// sources returns grounding web chunks carrying both a title and a URI,
// de-duplicated by URI in first-seen order. nil when there are none.
func sources(gm *genai.GroundingMetadata) []types.Source {
	if gm == nil {
		return nil
	}
	var out []types.Source
	seen := make(map[string]bool)
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.URI == "" || chunk.Web.Title == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, types.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}

func readUsage(m *genai.GenerateContentResponseUsageMetadata) Usage {
	if m == nil {
		return Usage{}
	}
	return Usage{
		Prompt:   int(m.PromptTokenCount),
		Output:   int(m.CandidatesTokenCount),
		Thoughts: int(m.ThoughtsTokenCount),
		Total:    int(m.TotalTokenCount),
	}
}
