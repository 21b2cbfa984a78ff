package technicianRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"repairhub/models"

	"go.mongodb.org/mongo-driver/bson"
)

// FindCandidates returns offerable technicians whose specializations match the
// service type. Ordering is left to the caller.
func (r *MongoTechnicianRepo) FindCandidates(ctx context.Context, criteria CandidateCriteria) ([]models.Technician, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":      bson.M{"$in": models.OfferableStatuses},
		"isAvailable": true,
	}
	if criteria.ServiceType != "" {
		filter["specializations"] = bson.M{"$regex": regexp.QuoteMeta(criteria.ServiceType), "$options": "i"}
	}
	if len(criteria.ExcludeIDs) > 0 {
		filter["id"] = bson.M{"$nin": criteria.ExcludeIDs}
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find technicians for service %s: %w", criteria.ServiceType, err)
	}
	defer cursor.Close(ctx)

	var technicians []models.Technician
	if err := cursor.All(ctx, &technicians); err != nil {
		return nil, fmt.Errorf("failed to decode technicians: %w", err)
	}
	return technicians, nil
}
