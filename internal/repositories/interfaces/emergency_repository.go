package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, emergency *models.Emergency) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Status operations
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmergencyStatus) error
	GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error)

	// LockForAcceptance flips the emergency to accepted only if it is still
	// pending or dispatching, as a single conditional write. It returns
	// false when another caller won the race.
	LockForAcceptance(ctx context.Context, id primitive.ObjectID) (bool, error)

	// Completion
	MarkCompleted(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error

	// SLA scanning
	GetOverdue(ctx context.Context, now time.Time) ([]*models.Emergency, error)
}
