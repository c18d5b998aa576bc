package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/upb/shopping-assistant/middleware"
	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/utils"
	"go.uber.org/zap"
)

// LambdaHandler adapts GenerateHandler to API Gateway HTTP API events.
type LambdaHandler struct {
	generate      *GenerateHandler
	allowedOrigin string
	logger        *zap.Logger
}

// NewLambdaHandler creates a new LambdaHandler
func NewLambdaHandler(generate *GenerateHandler, allowedOrigin string, logger *zap.Logger) *LambdaHandler {
	return &LambdaHandler{
		generate:      generate,
		allowedOrigin: allowedOrigin,
		logger:        logger,
	}
}

// Handle answers one invocation. Only POST is accepted.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	requestID := requestIDFromEvent(req)

	if !strings.EqualFold(req.RequestContext.HTTP.Method, http.MethodPost) {
		resp := h.respond(http.StatusMethodNotAllowed, utils.ErrorResponse{Error: services.MsgMethodNotAllowed}, requestID)
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return h.respond(http.StatusBadRequest, utils.ErrorResponse{Error: services.MsgInvalidBody}, requestID), nil
		}
		body = decoded
	}

	status, payload := h.generate.Process(ctx, requestID, body)
	return h.respond(status, payload, requestID), nil
}

func (h *LambdaHandler) respond(status int, payload interface{}, requestID string) events.APIGatewayV2HTTPResponse {
	headers := map[string]string{
		"Content-Type":             "application/json",
		middleware.RequestIDHeader: requestID,
	}
	if h.allowedOrigin != "" {
		headers["Access-Control-Allow-Origin"] = h.allowedOrigin
		headers["Access-Control-Allow-Credentials"] = "true"
		headers["Vary"] = "Origin"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode lambda response",
			zap.String("request_id", requestID),
			zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + services.MsgGenerationFailed + `"}`)
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}

// requestIDFromEvent prefers the caller's X-Request-ID, then the gateway's
// request ID.
func requestIDFromEvent(req events.APIGatewayV2HTTPRequest) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, middleware.RequestIDHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if req.RequestContext.RequestID != "" {
		return req.RequestContext.RequestID
	}
	return uuid.NewString()
}
