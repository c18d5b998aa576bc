package generation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/prompt"
	"github.com/upb/shopping-assistant/services/providers"
)

const (
	// DefaultModelID is the chat model that writes assistant answers.
	DefaultModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 1024
	temperature      = 0.5
	topP             = 0.9
)

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	System           string    `json:"system"`
	Messages         []message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
}

type claudeResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// ClaudeGenerator writes answers with Claude on Bedrock and applies the hedging filter.
type ClaudeGenerator struct {
	invoker providers.ModelInvoker
	modelID string
	system  string
	logger  *zap.Logger
}

// NewClaudeGenerator creates a generator. An empty modelID selects DefaultModelID.
func NewClaudeGenerator(invoker providers.ModelInvoker, modelID string, logger *zap.Logger) *ClaudeGenerator {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &ClaudeGenerator{
		invoker: invoker,
		modelID: modelID,
		system:  prompt.SystemInstruction,
		logger:  logger,
	}
}

// UserTurn renders the single user message sent to the model.
func UserTurn(promptContext, question string) string {
	return promptContext + "\n\nQ: " + question + "\nA:"
}

// Generate asks the model to answer question using promptContext and
// returns the filtered answer.
func (g *ClaudeGenerator) Generate(ctx context.Context, promptContext, question string) (string, error) {
	req := claudeRequest{
		AnthropicVersion: anthropicVersion,
		System:           g.system,
		Messages: []message{
			{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: UserTurn(promptContext, question)}},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	var resp claudeResponse
	if err := g.invoker.InvokeJSON(ctx, g.modelID, req, &resp); err != nil {
		return "", services.NewUpstreamError(g.invoker.Name(), "generation request failed", err).
			WithDetail("model", g.modelID)
	}

	answer := extractAnswer(resp)
	filtered := FilterAnswer(answer)
	if filtered != answer {
		g.logger.Debug("hedging answer replaced",
			zap.String("model", g.modelID),
			zap.String("original", answer))
	}

	return filtered, nil
}

func extractAnswer(resp claudeResponse) string {
	if len(resp.Content) == 0 {
		return NoResponseText
	}
	answer := strings.TrimSpace(resp.Content[0].Text)
	if answer == "" {
		return NoResponseText
	}
	return answer
}
