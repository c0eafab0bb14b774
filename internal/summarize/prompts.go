package summarize

import "strings"

// Mode selects the system instruction sent to the backends.
type Mode string

const (
	// ModeFix proofreads and smooths the transcript without changing meaning.
	ModeFix Mode = "fix"
	// ModeSummarize produces the structured summary/tags/title result.
	ModeSummarize Mode = "summarize"
	// ModeHighlights extracts decisions and action items.
	ModeHighlights Mode = "extract_highlights"
)

// promptTextLimit caps how much transcript is sent to a backend. Long
// recordings carry most of their signal early, and small local models slow
// down sharply on huge prompts.
const promptTextLimit = 3000

const structuredInstruction = `You are a professional meeting secretary. Analyze the transcript and answer with ONLY a JSON object in this exact shape:
{
  "summary": "the key points in at most three sentences",
  "tags": "#keyword1 #keyword2 #keyword3",
  "title": "a short descriptive title"
}`

const highlightsInstruction = `You are a professional meeting secretary. Extract only the decisions made and the action items from the transcript. Answer with ONLY a JSON object in this exact shape:
{
  "summary": "bullet list of decisions and action items",
  "tags": "#keyword1 #keyword2",
  "title": "a short descriptive title"
}`

const fixInstruction = `You are a professional editor. Fix typos and awkward phrasing in the text below without changing its meaning. Answer with the corrected text only.`

func systemInstruction(mode Mode) string {
	switch mode {
	case ModeFix:
		return fixInstruction
	case ModeHighlights:
		return highlightsInstruction
	default:
		return structuredInstruction
	}
}

// structured reports whether the mode expects a JSON object response.
func (m Mode) structured() bool {
	return m != ModeFix
}

// ParseMode maps a user-supplied mode name onto a Mode.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "summarize", "summary":
		return ModeSummarize, true
	case "fix", "refine":
		return ModeFix, true
	case "highlights", "extract_highlights", "action_items":
		return ModeHighlights, true
	default:
		return "", false
	}
}

// buildPrompt assembles the single-prompt form used by the local backend.
func buildPrompt(mode Mode, text string) string {
	var builder strings.Builder
	builder.WriteString(systemInstruction(mode))
	builder.WriteString("\n\n[Transcript]\n")
	builder.WriteString(truncateRunes(text, promptTextLimit))
	return builder.String()
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
