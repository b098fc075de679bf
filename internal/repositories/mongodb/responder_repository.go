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

type responderRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewResponderRepository(db *mongo.Database, cache CacheService) interfaces.ResponderRepository {
	return &responderRepository{
		collection: db.Collection("responders"),
		cache:      cache,
	}
}

func (r *responderRepository) Create(ctx context.Context, responder *models.Responder) error {
	responder.ID = primitive.NewObjectID()
	responder.CreatedAt = time.Now()
	responder.UpdatedAt = time.Now()
	if responder.Status == "" {
		responder.Status = models.ResponderStatusOffline
	}
	if responder.Rating == 0 {
		responder.Rating = utils.DefaultResponderRating
	}

	_, err := r.collection.InsertOne(ctx, responder)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	return nil
}

func (r *responderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Responder, error) {
	var responder models.Responder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&responder)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("responder not found")
		}
		return nil, fmt.Errorf("failed to get responder: %w", err)
	}

	return &responder, nil
}

func (r *responderRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update responder: %w", err)
	}

	r.invalidateResponderCache(ctx, id.Hex())

	return nil
}

func (r *responderRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Responder, int64, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter = params.GetSearchFilter([]string{"name", "phone"})
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count responders: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find responders: %w", err)
	}
	defer cursor.Close(ctx)

	responders, err := decodeResponders(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return responders, total, nil
}

func (r *responderRepository) GetAvailable(ctx context.Context) ([]*models.Responder, error) {
	filter := bson.M{
		"status":     models.ResponderStatusAvailable,
		"is_on_duty": true,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "rating", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find available responders: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeResponders(ctx, cursor)
}

func (r *responderRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ResponderStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *responderRepository) SetDuty(ctx context.Context, id primitive.ObjectID, onDuty bool) error {
	updates := map[string]interface{}{
		"is_on_duty": onDuty,
	}
	if onDuty {
		updates["duty_started_at"] = time.Now()
		updates["status"] = models.ResponderStatusAvailable
	} else {
		updates["duty_started_at"] = nil
		updates["status"] = models.ResponderStatusOffline
	}

	return r.Update(ctx, id, updates)
}

func (r *responderRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	now := time.Now()
	err := r.Update(ctx, id, map[string]interface{}{
		"current_location":     location,
		"last_location_update": now,
	})
	if err != nil {
		return err
	}

	if r.cache != nil {
		r.cache.Set(ctx, utils.CacheLocationPrefix+id.Hex(), location, utils.ResponderLocationCacheTTL)
	}

	return nil
}

func (r *responderRepository) UpsertShift(ctx context.Context, id primitive.ObjectID, window models.ShiftWindow) error {
	// Replace the slot for that weekday, then push the new one.
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"schedule": bson.M{"day_of_week": window.DayOfWeek}}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear shift window: %w", err)
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"schedule": window},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upsert shift window: %w", err)
	}

	return nil
}

func (r *responderRepository) IncrementRescues(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"total_rescues": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment rescues: %w", err)
	}

	return nil
}

func (r *responderRepository) invalidateResponderCache(ctx context.Context, responderID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheResponderPrefix+responderID)
	}
}

func decodeResponders(ctx context.Context, cursor *mongo.Cursor) ([]*models.Responder, error) {
	var responders []*models.Responder
	for cursor.Next(ctx) {
		var responder models.Responder
		if err := cursor.Decode(&responder); err != nil {
			return nil, fmt.Errorf("failed to decode responder: %w", err)
		}
		responders = append(responders, &responder)
	}

	return responders, nil
}
