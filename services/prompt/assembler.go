package prompt

import (
	"strings"

	"github.com/upb/shopping-assistant/internal/rag"
)

const (
	// NoContextText stands in for retrieved context when the index returns nothing.
	NoContextText = "No relevant product information found."

	// MatchSeparator separates retrieved snippets inside the context block.
	MatchSeparator = "\n---\n"
)

// ForbiddenPhrases are the hedging openers the model is told never to use.
var ForbiddenPhrases = []string{
	"Based on the information",
	"According to the product details",
	"Context suggests",
	"It seems that",
	"From what I understand",
}

// SystemInstruction is sent as the system prompt on every generation call.
var SystemInstruction = buildSystemInstruction()

func buildSystemInstruction() string {
	var sb strings.Builder
	sb.WriteString("You are a smart shopping assistant. Answer questions clearly and confidently.\n\n")
	sb.WriteString("NEVER say:\n")
	for _, phrase := range ForbiddenPhrases {
		sb.WriteString(`- "`)
		sb.WriteString(phrase)
		sb.WriteString("\"\n")
	}
	sb.WriteString("\nGive direct, helpful, confident answers. Do not reference the question or context. Do not explain your reasoning.")
	return sb.String()
}

// Assemble builds the prompt for one request from the retrieved matches,
// the prior conversation turns and the current question.
func Assemble(matches []rag.Match, history []rag.ChatMessage, question string) rag.AssembledPrompt {
	return rag.AssembledPrompt{
		SystemInstruction:   SystemInstruction,
		ContextText:         ContextText(matches),
		ConversationHistory: RenderHistory(history),
		Question:            question,
	}
}

// ContextText joins match contents, or returns NoContextText when there are none.
func ContextText(matches []rag.Match) string {
	if len(matches) == 0 {
		return NoContextText
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Content
	}
	return strings.Join(parts, MatchSeparator)
}

// RenderHistory renders prior turns as "User: ..." / "Assistant: ..." lines.
// Any sender other than user is rendered as the assistant.
func RenderHistory(history []rag.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, len(history))
	for i, m := range history {
		speaker := "Assistant"
		if m.Sender == rag.SenderUser {
			speaker = "User"
		}
		lines[i] = speaker + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
