package technicianRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for the candidate query and lookups.
func (r *MongoTechnicianRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Partial index: only technicians that can currently receive offers.
	offerableIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "specializations", Value: 1}, {Key: "rating", Value: -1}},
		Options: options.Index().SetName("offerable_specializations_idx").SetPartialFilterExpression(bson.M{
			"isAvailable": true,
			"status":      bson.M{"$in": bson.A{"active", "online"}},
		}),
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		// sparse: technicians without coordinates are allowed
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetSparse(true)},
		offerableIdx,
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
