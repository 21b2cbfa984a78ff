package technicianRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairhub/database"
	"repairhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoTechnicianRepo) MarkBusy(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": models.OfferableStatuses}}
	update := bson.M{"$set": bson.M{"status": models.TechnicianBusy, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark technician %s busy: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("technician %s cannot take a job: %w", id, database.ErrConflict)
	}
	return nil
}

// Release uses a pipeline update so a technician who is no longer busy keeps
// whatever status an operator gave them.
func (r *MongoTechnicianRepo) Release(ctx context.Context, id string, completed bool) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	inc := 0
	if completed {
		inc = 1
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.TechnicianBusy}},
				models.TechnicianActive,
				"$status",
			}},
			"completedJobs": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$completedJobs", 0}}, inc}},
			"updatedAt":     time.Now(),
		}}},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to release technician %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to release technician %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *MongoTechnicianRepo) SetAvailability(ctx context.Context, id string, current bool) (*models.Technician, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.TechnicianActive, "isAvailable": current}
	update := bson.M{"$set": bson.M{"isAvailable": !current, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var technician models.Technician
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&technician)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("technician %s availability changed concurrently: %w", id, database.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle availability for technician %s: %w", id, err)
	}
	return &technician, nil
}

func (r *MongoTechnicianRepo) ApplyRating(ctx context.Context, id string, score int) (*models.Technician, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"ratingCount": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$ratingCount", 0}}, 1}},
			"ratingTotal": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$ratingTotal", 0}}, score}},
			"updatedAt":   time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"rating": bson.M{"$round": bson.A{bson.M{"$divide": bson.A{"$ratingTotal", "$ratingCount"}}, 2}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var technician models.Technician
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, pipeline, opts).Decode(&technician); err != nil {
		return nil, fmt.Errorf("failed to rate technician %s: %w", id, database.Translate(err))
	}
	return &technician, nil
}
