package mongodb

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type slaEventRepository struct {
	collection *mongo.Collection
}

func NewSLAEventRepository(db *mongo.Database) interfaces.SLAEventRepository {
	return &slaEventRepository{
		collection: db.Collection("sla_events"),
	}
}

func (r *slaEventRepository) Append(ctx context.Context, event *models.SLAEvent) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to append sla event: %w", err)
	}

	return nil
}

func (r *slaEventRepository) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.SLAEvent, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{"emergency_id": emergencyID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find sla events: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSLAEvents(ctx, cursor)
}

func (r *slaEventRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.SLAEvent, int64, error) {
	filter := bson.M{}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sla events: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find sla events: %w", err)
	}
	defer cursor.Close(ctx)

	events, err := decodeSLAEvents(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func decodeSLAEvents(ctx context.Context, cursor *mongo.Cursor) ([]*models.SLAEvent, error) {
	var events []*models.SLAEvent
	for cursor.Next(ctx) {
		var event models.SLAEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode sla event: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}
