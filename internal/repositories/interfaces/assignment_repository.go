package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error

	// Active lookups; "active" means status=active and no completion time.
	GetActiveByEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Assignment, error)
	GetActiveByResponder(ctx context.Context, responderID primitive.ObjectID) (*models.Assignment, error)

	// UpdateProgress refreshes the live distance/ETA snapshot.
	UpdateProgress(ctx context.Context, id primitive.ObjectID, distanceKM float64, etaMinutes int) error

	// Release marks the assignment abandoned; rows are never deleted.
	Release(ctx context.Context, id primitive.ObjectID, reason models.ReassignmentReason, at time.Time) error
	Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// History
	GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Assignment, error)
}
