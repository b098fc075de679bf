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

type assignmentRepository struct {
	collection *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) interfaces.AssignmentRepository {
	return &assignmentRepository{
		collection: db.Collection("assignments"),
	}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = primitive.NewObjectID()
	assignment.AssignedAt = time.Now()
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusActive
	}

	_, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) GetActiveByEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Assignment, error) {
	return r.findActive(ctx, bson.M{"emergency_id": emergencyID})
}

func (r *assignmentRepository) GetActiveByResponder(ctx context.Context, responderID primitive.ObjectID) (*models.Assignment, error) {
	return r.findActive(ctx, bson.M{"responder_id": responderID})
}

func (r *assignmentRepository) UpdateProgress(ctx context.Context, id primitive.ObjectID, distanceKM float64, etaMinutes int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.AssignmentStatusActive},
		bson.M{"$set": bson.M{
			"current_distance_km": distanceKM,
			"eta_minutes":         etaMinutes,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment progress: %w", err)
	}

	return nil
}

func (r *assignmentRepository) Release(ctx context.Context, id primitive.ObjectID, reason models.ReassignmentReason, at time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.AssignmentStatusActive},
		bson.M{"$set": bson.M{
			"status":         models.AssignmentStatusAbandoned,
			"released_at":    at,
			"release_reason": reason,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to release assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.AssignmentStatusActive},
		bson.M{"$set": bson.M{
			"status":       models.AssignmentStatusCompleted,
			"completed_at": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) GetByEmergency(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.Assignment, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{"emergency_id": emergencyID},
		options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer cursor.Close(ctx)

	var assignments []*models.Assignment
	for cursor.Next(ctx) {
		var assignment models.Assignment
		if err := cursor.Decode(&assignment); err != nil {
			return nil, fmt.Errorf("failed to decode assignment: %w", err)
		}
		assignments = append(assignments, &assignment)
	}

	return assignments, nil
}

func (r *assignmentRepository) findActive(ctx context.Context, filter bson.M) (*models.Assignment, error) {
	filter["status"] = models.AssignmentStatusActive

	var assignment models.Assignment
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}

	return &assignment, nil
}
