package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the dispatch queries depend on. It is
// idempotent and runs at startup.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"emergencies": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "sla_deadline", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "patient_location", Value: "2dsphere"}},
				Options: options.Index().SetName("patient_location_2dsphere"),
			},
		},
		"responders": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "is_on_duty", Value: 1}}},
			{
				Keys:    bson.D{{Key: "current_location", Value: "2dsphere"}},
				Options: options.Index().SetName("current_location_2dsphere"),
			},
		},
		"dispatch_broadcasts": {
			{Keys: bson.D{{Key: "emergency_id", Value: 1}, {Key: "response_status", Value: 1}}},
			{Keys: bson.D{{Key: "responder_id", Value: 1}, {Key: "response_status", Value: 1}}},
			{
				Keys:    bson.D{{Key: "emergency_id", Value: 1}, {Key: "responder_id", Value: 1}, {Key: "round", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_offer_per_round"),
			},
		},
		"assignments": {
			{Keys: bson.D{{Key: "responder_id", Value: 1}, {Key: "status", Value: 1}}},
			// At most one active assignment per emergency.
			{
				Keys: bson.D{{Key: "emergency_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "active"}).
					SetName("unique_active_assignment"),
			},
		},
		"sla_events": {
			{Keys: bson.D{{Key: "emergency_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := m.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
