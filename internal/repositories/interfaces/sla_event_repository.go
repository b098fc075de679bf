package interfaces

import (
	"context"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SLAEventRepository is append-only. Rows are written once and never
// updated or removed.
type SLAEventRepository interface {
	Append(ctx context.Context, event *models.SLAEvent) error
	GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.SLAEvent, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.SLAEvent, int64, error)
}
