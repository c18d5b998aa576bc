// Package observability provides structured logging and metrics
// for the shopping assistant.
//
// This package implements:
//   - zap loggers configured from LOG_LEVEL and LOG_FORMAT
//   - Request ID scoped loggers
//   - Prometheus collectors for the answer pipeline
package observability
