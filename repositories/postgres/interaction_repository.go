package postgres

import (
	"context"
	"fmt"

	"github.com/upb/shopping-assistant/models"
	"github.com/upb/shopping-assistant/repositories"
	"go.uber.org/zap"
)

// InteractionRepository implements the repositories.InteractionRepository interface
type InteractionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *DB, logger *zap.Logger) repositories.InteractionRepository {
	return &InteractionRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new interaction
func (r *InteractionRepository) Insert(ctx context.Context, i *models.Interaction) error {
	query := `
		INSERT INTO assistant_interactions (
			id, request_id, question, answer, outcome, history_turns,
			match_count, latency_ms, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		i.ID,
		i.RequestID,
		i.Question,
		i.Answer,
		i.Outcome,
		i.HistoryTurns,
		i.MatchCount,
		i.LatencyMs,
		i.ErrorMessage,
		i.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	r.logger.Debug("interaction inserted",
		zap.String("id", i.ID.String()),
		zap.String("outcome", string(i.Outcome)))
	return nil
}
