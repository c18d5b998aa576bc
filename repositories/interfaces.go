package repositories

import (
	"context"

	"github.com/upb/shopping-assistant/models"
)

// InteractionRepository stores chat widget question/answer records
type InteractionRepository interface {
	// Insert stores a new interaction
	Insert(ctx context.Context, interaction *models.Interaction) error
}
