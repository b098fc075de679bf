package interfaces

import (
	"context"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, responder *models.Responder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Responder, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Responder, int64, error)

	// Availability
	GetAvailable(ctx context.Context) ([]*models.Responder, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ResponderStatus) error
	SetDuty(ctx context.Context, id primitive.ObjectID, onDuty bool) error

	// Location pings
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error

	// Schedule
	UpsertShift(ctx context.Context, id primitive.ObjectID, window models.ShiftWindow) error

	// Stats
	IncrementRescues(ctx context.Context, id primitive.ObjectID) error
}
