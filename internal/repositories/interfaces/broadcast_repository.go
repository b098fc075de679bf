package interfaces

import (
	"context"
	"time"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastRepository interface {
	// CreateMany inserts one offer row per selected responder. Offers for a
	// re-dispatch round carry a fresh round number; the (emergency,
	// responder, round) triple is unique.
	CreateMany(ctx context.Context, broadcasts []*models.Broadcast) error

	// Lookups
	GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error)
	GetPendingByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error)
	GetPendingByResponder(ctx context.Context, responderID primitive.ObjectID) ([]*models.Broadcast, error)
	LatestRound(ctx context.Context, emergencyID primitive.ObjectID) (int, error)

	// Response transitions; all are terminal for the touched rows.
	MarkAccepted(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error
	MarkRejected(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error
	ExpireOtherPending(ctx context.Context, emergencyID, acceptedResponderID primitive.ObjectID) error
	ExpirePending(ctx context.Context, emergencyID primitive.ObjectID) error
}
