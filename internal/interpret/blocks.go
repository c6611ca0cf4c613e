package interpret

import "strings"

// BlockKind classifies one line of a response for callout rendering.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockRiskHeader
	BlockDiscovery
	BlockQuote
	BlockAction
	BlockHeading
	BlockBullet
)

func (k BlockKind) String() string {
	switch k {
	case BlockRiskHeader:
		return "risk"
	case BlockDiscovery:
		return "discovery"
	case BlockQuote:
		return "quote"
	case BlockAction:
		return "action"
	case BlockHeading:
		return "heading"
	case BlockBullet:
		return "bullet"
	default:
		return "text"
	}
}

// Block is one classified line.
type Block struct {
	Kind BlockKind
	Text string
}

// Blocks splits text into lines and tags the ones that get callout styling.
// Precedence follows the order of checks below.
func Blocks(text string) []Block {
	lines := strings.Split(text, "\n")
	out := make([]Block, 0, len(lines))
	for _, line := range lines {
		out = append(out, Block{Kind: classify(line), Text: line})
	}
	return out
}

func classify(line string) BlockKind {
	lower := strings.ToLower(line)
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.Contains(lower, "risk guidance & caution") &&
		(strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**")):
		return BlockRiskHeader
	case strings.Contains(lower, "discovery session"):
		return BlockDiscovery
	case strings.HasPrefix(line, "> "):
		return BlockQuote
	case strings.Contains(lower, "micro-win") ||
		strings.Contains(lower, "action step") ||
		strings.Contains(lower, "blueprint"):
		return BlockAction
	case strings.HasPrefix(line, "#"):
		return BlockHeading
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		return BlockBullet
	default:
		return BlockText
	}
}
