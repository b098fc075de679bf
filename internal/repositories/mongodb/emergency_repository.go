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

type emergencyRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewEmergencyRepository(db *mongo.Database, cache CacheService) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection("emergencies"),
		cache:      cache,
	}
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, emergency)
	if err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}

	r.cacheEmergency(ctx, emergency)

	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	if emergency := r.getEmergencyFromCache(ctx, id.Hex()); emergency != nil {
		return emergency, nil
	}

	var emergency models.Emergency
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("emergency not found")
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}

	r.cacheEmergency(ctx, &emergency)

	return &emergency, nil
}

func (r *emergencyRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency: %w", err)
	}

	r.invalidateEmergencyCache(ctx, id.Hex())

	return nil
}

func (r *emergencyRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmergencyStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *emergencyRepository) GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	filter := bson.M{"status": status}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergencies: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "created_at" || params.Sort == "" {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	for cursor.Next(ctx) {
		var emergency models.Emergency
		if err := cursor.Decode(&emergency); err != nil {
			return nil, 0, fmt.Errorf("failed to decode emergency: %w", err)
		}
		emergencies = append(emergencies, &emergency)
	}

	return emergencies, total, nil
}

// LockForAcceptance is the single arbitration point for concurrent accepts.
// The status filter and the update run as one conditional write on the
// stored row; whoever matches first wins and every later caller matches
// zero documents.
func (r *emergencyRepository) LockForAcceptance(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": []models.EmergencyStatus{models.EmergencyStatusPending, models.EmergencyStatusDispatching}},
		},
		bson.M{"$set": bson.M{
			"status":     models.EmergencyStatusAccepted,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to lock emergency: %w", err)
	}

	r.invalidateEmergencyCache(ctx, id.Hex())

	return result.ModifiedCount == 1, nil
}

func (r *emergencyRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":       models.EmergencyStatusCompleted,
		"completed_at": completedAt,
	})
}

func (r *emergencyRepository) GetOverdue(ctx context.Context, now time.Time) ([]*models.Emergency, error) {
	filter := bson.M{
		"status": bson.M{"$in": []models.EmergencyStatus{
			models.EmergencyStatusPending,
			models.EmergencyStatusDispatching,
			models.EmergencyStatusAccepted,
			models.EmergencyStatusInProgress,
		}},
		"sla_deadline": bson.M{"$lt": now},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sla_deadline", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	for cursor.Next(ctx) {
		var emergency models.Emergency
		if err := cursor.Decode(&emergency); err != nil {
			return nil, fmt.Errorf("failed to decode emergency: %w", err)
		}
		emergencies = append(emergencies, &emergency)
	}

	return emergencies, nil
}

// Cache operations
func (r *emergencyRepository) cacheEmergency(ctx context.Context, emergency *models.Emergency) {
	if r.cache != nil && emergency.IsOpen() {
		cacheKey := utils.CacheEmergencyPrefix + emergency.ID.Hex()
		r.cache.Set(ctx, cacheKey, emergency, utils.EmergencyCacheTTL)
	}
}

func (r *emergencyRepository) getEmergencyFromCache(ctx context.Context, emergencyID string) *models.Emergency {
	if r.cache == nil {
		return nil
	}

	var emergency models.Emergency
	if err := r.cache.Get(ctx, utils.CacheEmergencyPrefix+emergencyID, &emergency); err != nil {
		return nil
	}

	return &emergency
}

func (r *emergencyRepository) invalidateEmergencyCache(ctx context.Context, emergencyID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheEmergencyPrefix+emergencyID)
	}
}
