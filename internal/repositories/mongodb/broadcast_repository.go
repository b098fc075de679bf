package mongodb

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type broadcastRepository struct {
	collection *mongo.Collection
}

func NewBroadcastRepository(db *mongo.Database) interfaces.BroadcastRepository {
	return &broadcastRepository{
		collection: db.Collection("dispatch_broadcasts"),
	}
}

func (r *broadcastRepository) CreateMany(ctx context.Context, broadcasts []*models.Broadcast) error {
	if len(broadcasts) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(broadcasts))
	now := time.Now()
	for _, broadcast := range broadcasts {
		broadcast.ID = primitive.NewObjectID()
		broadcast.BroadcastAt = now
		if broadcast.ResponseStatus == "" {
			broadcast.ResponseStatus = models.BroadcastStatusPending
		}
		docs = append(docs, broadcast)
	}

	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create broadcasts: %w", err)
	}

	return nil
}

func (r *broadcastRepository) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error) {
	return r.findBroadcasts(ctx, bson.M{"emergency_id": emergencyID})
}

func (r *broadcastRepository) GetPendingByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Broadcast, error) {
	return r.findBroadcasts(ctx, bson.M{
		"emergency_id":    emergencyID,
		"response_status": models.BroadcastStatusPending,
	})
}

func (r *broadcastRepository) GetPendingByResponder(ctx context.Context, responderID primitive.ObjectID) ([]*models.Broadcast, error) {
	return r.findBroadcasts(ctx, bson.M{
		"responder_id":    responderID,
		"response_status": models.BroadcastStatusPending,
	})
}

func (r *broadcastRepository) LatestRound(ctx context.Context, emergencyID primitive.ObjectID) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "round", Value: -1}})

	var broadcast models.Broadcast
	err := r.collection.FindOne(ctx, bson.M{"emergency_id": emergencyID}, opts).Decode(&broadcast)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get latest broadcast round: %w", err)
	}

	return broadcast.Round, nil
}

func (r *broadcastRepository) MarkAccepted(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"emergency_id":    emergencyID,
			"responder_id":    responderID,
			"response_status": models.BroadcastStatusPending,
		},
		bson.M{"$set": bson.M{
			"response_status": models.BroadcastStatusAccepted,
			"responded_at":    at,
			"locked_at":       at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark broadcast accepted: %w", err)
	}

	return nil
}

func (r *broadcastRepository) MarkRejected(ctx context.Context, emergencyID, responderID primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"emergency_id":    emergencyID,
			"responder_id":    responderID,
			"response_status": models.BroadcastStatusPending,
		},
		bson.M{"$set": bson.M{
			"response_status": models.BroadcastStatusRejected,
			"responded_at":    at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark broadcast rejected: %w", err)
	}

	return nil
}

func (r *broadcastRepository) ExpireOtherPending(ctx context.Context, emergencyID, acceptedResponderID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"emergency_id":    emergencyID,
			"responder_id":    bson.M{"$ne": acceptedResponderID},
			"response_status": models.BroadcastStatusPending,
		},
		bson.M{"$set": bson.M{"response_status": models.BroadcastStatusExpired}},
	)
	if err != nil {
		return fmt.Errorf("failed to expire sibling broadcasts: %w", err)
	}

	return nil
}

func (r *broadcastRepository) ExpirePending(ctx context.Context, emergencyID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"emergency_id":    emergencyID,
			"response_status": models.BroadcastStatusPending,
		},
		bson.M{"$set": bson.M{"response_status": models.BroadcastStatusExpired}},
	)
	if err != nil {
		return fmt.Errorf("failed to expire pending broadcasts: %w", err)
	}

	return nil
}

func (r *broadcastRepository) findBroadcasts(ctx context.Context, filter bson.M) ([]*models.Broadcast, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "broadcast_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find broadcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var broadcasts []*models.Broadcast
	for cursor.Next(ctx) {
		var broadcast models.Broadcast
		if err := cursor.Decode(&broadcast); err != nil {
			return nil, fmt.Errorf("failed to decode broadcast: %w", err)
		}
		broadcasts = append(broadcasts, &broadcast)
	}

	return broadcasts, nil
}
