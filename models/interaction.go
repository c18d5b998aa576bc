package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionOutcome records how a generate request ended.
type InteractionOutcome string

const (
	InteractionOutcomeAnswered InteractionOutcome = "answered"
	InteractionOutcomeFallback InteractionOutcome = "fallback"
	InteractionOutcomeFailed   InteractionOutcome = "failed"
	InteractionOutcomeTimeout  InteractionOutcome = "timeout"
)

// Interaction is one question/answer exchange with the chat widget
type Interaction struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	RequestID    string             `json:"request_id" db:"request_id"`
	Question     string             `json:"question" db:"question"`
	Answer       *string            `json:"answer,omitempty" db:"answer"`
	Outcome      InteractionOutcome `json:"outcome" db:"outcome"`
	HistoryTurns int                `json:"history_turns" db:"history_turns"`
	MatchCount   int                `json:"match_count" db:"match_count"`
	LatencyMs    int                `json:"latency_ms" db:"latency_ms"`
	ErrorMessage *string            `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Interaction model
func (Interaction) TableName() string {
	return "assistant_interactions"
}

// NewInteraction creates a new Interaction for a request
func NewInteraction(requestID, question string, historyTurns int) *Interaction {
	return &Interaction{
		ID:           uuid.New(),
		RequestID:    requestID,
		Question:     question,
		HistoryTurns: historyTurns,
		CreatedAt:    time.Now().UTC(),
	}
}

// MarkAnswered records a successful answer. Fallback answers are tagged separately.
func (i *Interaction) MarkAnswered(answer string, fallback bool, matchCount, latencyMs int) {
	i.Answer = &answer
	i.MatchCount = matchCount
	i.LatencyMs = latencyMs
	i.Outcome = InteractionOutcomeAnswered
	if fallback {
		i.Outcome = InteractionOutcomeFallback
	}
}

// MarkFailed records a failed request.
func (i *Interaction) MarkFailed(outcome InteractionOutcome, errMsg string, matchCount, latencyMs int) {
	i.Outcome = outcome
	i.ErrorMessage = &errMsg
	i.MatchCount = matchCount
	i.LatencyMs = latencyMs
}

// IsSuccessful returns true when the request produced an answer
func (i *Interaction) IsSuccessful() bool {
	return i.Outcome == InteractionOutcomeAnswered || i.Outcome == InteractionOutcomeFallback
}
