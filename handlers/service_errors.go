package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/shopping-assistant/services"
	"github.com/upb/shopping-assistant/utils"
	"go.uber.org/zap"
)

// ErrorStatus maps a domain error to the HTTP status and public message.
// Upstream detail never leaves the process.
func ErrorStatus(err error) (int, string) {
	switch {
	case services.IsValidationError(err):
		var domainErr *services.DomainError
		if errors.As(err, &domainErr) {
			return http.StatusBadRequest, domainErr.Message
		}
		return http.StatusBadRequest, services.MsgInvalidBody

	case services.IsTimeoutError(err):
		return http.StatusGatewayTimeout, services.MsgUpstreamTimeout

	default:
		return http.StatusInternalServerError, services.MsgGenerationFailed
	}
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status, message := ErrorStatus(err)

	// pipeline failures carry their stage detail in the assistant's own log
	logger.Debug("generate request failed",
		zap.Int("status", status),
		zap.String("error_type", string(services.GetErrorType(err))),
		zap.Any("details", services.GetErrorDetails(err)))

	var writeErr error
	switch status {
	case http.StatusBadRequest:
		writeErr = utils.WriteBadRequest(w, message)
	case http.StatusGatewayTimeout:
		writeErr = utils.WriteGatewayTimeout(w, message)
	default:
		writeErr = utils.WriteInternalServerError(w, message)
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}
