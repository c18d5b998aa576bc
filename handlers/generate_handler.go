package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/upb/shopping-assistant/internal/observability"
	"github.com/upb/shopping-assistant/middleware"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/services/assistant"
	"github.com/upb/shopping-assistant/utils"
	"go.uber.org/zap"
)

// GenerateHandler serves the question answering endpoint for every
// deployment adapter.
type GenerateHandler struct {
	assistant Assistant
	logger    *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(svc Assistant, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		assistant: svc,
		logger:    logger,
	}
}

// Process decodes body, runs the assistant and returns the status code and
// JSON payload to send back.
func (h *GenerateHandler) Process(ctx context.Context, requestID string, body []byte) (int, interface{}) {
	resp, err := h.answer(ctx, requestID, body)
	if err != nil {
		status, message := ErrorStatus(err)
		return status, utils.ErrorResponse{Error: message}
	}
	return http.StatusOK, assistant.GenerateResponse{Answer: resp.Answer}
}

// HandleGenerate handles POST /generate
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())
	logger := observability.WithRequestID(h.logger, requestID)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		HandleServiceError(w, services.ErrInvalidBody, logger)
		return
	}

	resp, err := h.answer(r.Context(), requestID, body)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteOK(w, assistant.GenerateResponse{Answer: resp.Answer}); err != nil {
		logger.Error("failed to write generate response", zap.Error(err))
	}
}

func (h *GenerateHandler) answer(ctx context.Context, requestID string, body []byte) (*assistant.Response, error) {
	req, err := assistant.DecodeRequest(body)
	if err != nil {
		observability.WithRequestID(h.logger, requestID).
			Debug("invalid generate body", zap.Int("body_bytes", len(body)))
		return nil, err
	}

	return h.assistant.Handle(ctx, assistant.Request{
		RequestID: requestID,
		Messages:  req.Messages,
	})
}

// HandleMethodNotAllowed answers non-POST requests on /generate
func (h *GenerateHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMethodNotAllowed(w, services.MsgMethodNotAllowed, http.MethodPost)
}
