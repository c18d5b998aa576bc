package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/shopping-assistant/services/audit"
	"github.com/upb/shopping-assistant/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Audit     *AuditStatus      `json:"audit,omitempty"`
}

// AuditStatus reports the interaction audit queue
type AuditStatus struct {
	Pending     int `json:"pending"`
	Dropped     int `json:"dropped"`
	BufferSize  int `json:"buffer_size"`
	WorkerCount int `json:"worker_count"`
}

// AuditStatsProvider is satisfied by the interaction audit service
type AuditStatsProvider interface {
	GetStats() audit.Stats
}

// DatabaseChecker is satisfied by the audit database pool
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db        DatabaseChecker
	audit     AuditStatsProvider
	assistant Assistant
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// interaction audit is disabled.
func NewHealthHandler(db DatabaseChecker, svc Assistant, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		assistant: svc,
		logger:    logger,
	}
}

// WithAudit adds the audit queue to readiness reports
func (h *HealthHandler) WithAudit(a AuditStatsProvider) *HealthHandler {
	h.audit = a
	return h
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.assistant == nil {
		checks["pipeline"] = "not_initialized"
		allHealthy = false
	} else {
		checks["pipeline"] = "ready"
	}

	if h.db == nil {
		checks["database"] = "disabled"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	var auditStatus *AuditStatus
	if h.audit != nil {
		stats := h.audit.GetStats()
		if stats.Started {
			checks["audit"] = "running"
		} else {
			checks["audit"] = "stopped"
			allHealthy = false
		}
		auditStatus = &AuditStatus{
			Pending:     stats.Pending,
			Dropped:     stats.Dropped,
			BufferSize:  stats.BufferSize,
			WorkerCount: stats.WorkerCount,
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Audit:     auditStatus,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
