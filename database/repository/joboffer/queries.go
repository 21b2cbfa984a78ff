package jobOfferRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"repairhub/database"
	"repairhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoJobOfferRepo) findOne(ctx context.Context, filter bson.M) (*models.JobOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var offer models.JobOffer
	if err := r.coll.FindOne(ctx, filter).Decode(&offer); err != nil {
		return nil, fmt.Errorf("failed to fetch job offer: %w", database.Translate(err))
	}
	return &offer, nil
}

func (r *mongoJobOfferRepo) FindPendingByBooking(ctx context.Context, bookingID string) (*models.JobOffer, error) {
	return r.findOne(ctx, bson.M{"bookingId": bookingID, "status": models.OfferStatusPending})
}

func (r *mongoJobOfferRepo) FindPendingForTechnician(ctx context.Context, offerID, technicianID string) (*models.JobOffer, error) {
	return r.findOne(ctx, bson.M{
		"id":           offerID,
		"technicianId": technicianID,
		"status":       models.OfferStatusPending,
	})
}

func (r *mongoJobOfferRepo) ListPendingForTechnician(ctx context.Context, technicianID string, now time.Time) ([]models.JobOffer, error) {
	filter := bson.M{
		"technicianId": technicianID,
		"status":       models.OfferStatusPending,
		"expiresAt":    bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})
	return r.list(ctx, filter, opts)
}

func (r *mongoJobOfferRepo) ListOverdue(ctx context.Context, now time.Time, limit int64) ([]models.JobOffer, error) {
	filter := bson.M{
		"status":    models.OfferStatusPending,
		"expiresAt": bson.M{"$lt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.list(ctx, filter, opts)
}

func (r *mongoJobOfferRepo) ListDeclinedTechnicians(ctx context.Context, bookingID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"bookingId": bookingID,
		"status":    bson.M{"$in": []string{models.OfferStatusRejected, models.OfferStatusExpired}},
	}
	values, err := r.coll.Distinct(ctx, "technicianId", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list declined technicians: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *mongoJobOfferRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.JobOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list job offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []models.JobOffer
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode job offers: %w", err)
	}
	return offers, nil
}
