package jobOfferRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairhub/database"
	"repairhub/models"
	"repairhub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoJobOfferRepo struct {
	coll *mongo.Collection
}

// NewMongoJobOfferRepo creates a JobOfferRepository backed by the job_offers collection.
func NewMongoJobOfferRepo(db *mongo.Database) JobOfferRepository {
	repo := &mongoJobOfferRepo{coll: db.Collection("job_offers")}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create job offer indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoJobOfferRepo) Create(ctx context.Context, offer *models.JobOffer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, offer); err != nil {
		return fmt.Errorf("failed to create job offer for booking %s: %w", offer.BookingID, database.Translate(err))
	}
	return nil
}

func (r *mongoJobOfferRepo) GetByID(ctx context.Context, id string) (*models.JobOffer, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoJobOfferRepo) Resolve(ctx context.Context, id, status, reason string, now time.Time) (*models.JobOffer, error) {
	filter := bson.M{
		"id":        id,
		"status":    models.OfferStatusPending,
		"expiresAt": bson.M{"$gte": now},
	}
	set := bson.M{"status": status, "respondedAt": now}
	if reason != "" {
		set["rejectReason"] = reason
	}
	return r.transition(ctx, filter, bson.M{"$set": set})
}

func (r *mongoJobOfferRepo) Expire(ctx context.Context, id string, now time.Time) (*models.JobOffer, error) {
	filter := bson.M{
		"id":        id,
		"status":    models.OfferStatusPending,
		"expiresAt": bson.M{"$lt": now},
	}
	return r.transition(ctx, filter, bson.M{"$set": bson.M{"status": models.OfferStatusExpired}})
}

func (r *mongoJobOfferRepo) transition(ctx context.Context, filter, update bson.M) (*models.JobOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var offer models.JobOffer
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&offer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update job offer: %w", err)
	}
	return &offer, nil
}
