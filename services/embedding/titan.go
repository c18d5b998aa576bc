package embedding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/shopping-assistant/internal/rag"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/providers"
)

// DefaultModelID is the Titan text embedding model used for product search.
const DefaultModelID = "amazon.titan-embed-text-v2:0"

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding []float32 `json:"embedding"`
}

// TitanEmbedder turns text into vectors with Amazon Titan on Bedrock.
// Every call goes upstream; results are never cached.
type TitanEmbedder struct {
	invoker providers.ModelInvoker
	modelID string
	logger  *zap.Logger
}

// NewTitanEmbedder creates an embedder. An empty modelID selects DefaultModelID.
func NewTitanEmbedder(invoker providers.ModelInvoker, modelID string, logger *zap.Logger) *TitanEmbedder {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &TitanEmbedder{
		invoker: invoker,
		modelID: modelID,
		logger:  logger,
	}
}

// Embed returns the embedding vector for text.
func (e *TitanEmbedder) Embed(ctx context.Context, text string) (rag.Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.ErrEmptyText
	}

	var resp titanResponse
	if err := e.invoker.InvokeJSON(ctx, e.modelID, titanRequest{InputText: text}, &resp); err != nil {
		return nil, services.NewUpstreamError(e.invoker.Name(), "embedding request failed", err).
			WithDetail("model", e.modelID)
	}
	if len(resp.Embedding) == 0 {
		return nil, services.NewUpstreamError(e.invoker.Name(), "embedding response had no vector", nil).
			WithDetail("model", e.modelID)
	}

	e.logger.Debug("text embedded",
		zap.String("model", e.modelID),
		zap.Int("dimensions", len(resp.Embedding)))

	return rag.Embedding(resp.Embedding), nil
}
