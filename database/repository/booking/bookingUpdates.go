package bookingRepo

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

var dispatchStatuses = []string{models.BookingStatusPending, models.BookingStatusConfirmed}

// unassigned matches bookings with no technician recorded.
var unassigned = bson.M{"$in": bson.A{nil, ""}}

// transition applies update only when filter still matches and returns the
// updated document. A miss is reported as database.ErrConflict.
func (r *MongoBookingRepo) transition(ctx context.Context, filter, update bson.M) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ClaimDispatch moves an idle or exhausted dispatchable booking into searching.
func (r *MongoBookingRepo) ClaimDispatch(ctx context.Context, id string, now time.Time) (*models.Booking, error) {
	filter := bson.M{
		"id":            id,
		"status":        bson.M{"$in": dispatchStatuses},
		"technicianId":  unassigned,
		"dispatchState": bson.M{"$in": bson.A{nil, "", models.DispatchIdle, models.DispatchExhausted}},
	}
	update := bson.M{"$set": bson.M{
		"dispatchState": models.DispatchSearching,
		"updatedAt":     now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to claim dispatch for booking %s: %w", id, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) ResumeDispatch(ctx context.Context, id, offerID string, now time.Time) (*models.Booking, error) {
	filter := bson.M{
		"id":             id,
		"status":         bson.M{"$in": dispatchStatuses},
		"technicianId":   unassigned,
		"dispatchState":  models.DispatchOfferPending,
		"currentOfferId": offerID,
	}
	update := bson.M{"$set": bson.M{
		"dispatchState": models.DispatchSearching,
		"updatedAt":     now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to resume dispatch for booking %s: %w", id, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) SetOfferPending(ctx context.Context, id, offerID string, now time.Time) error {
	filter := bson.M{"id": id, "dispatchState": models.DispatchSearching}
	update := bson.M{
		"$set": bson.M{
			"dispatchState":         models.DispatchOfferPending,
			"currentOfferId":        offerID,
			"noTechnicianAvailable": false,
			"updatedAt":             now,
		},
		"$inc": bson.M{"dispatchAttempts": 1},
	}
	if _, err := r.transition(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to record offer %s on booking %s: %w", offerID, id, err)
	}
	return nil
}

// MarkExhausted leaves the booking pending and flags that no technician was found.
func (r *MongoBookingRepo) MarkExhausted(ctx context.Context, id string, now time.Time) error {
	filter := bson.M{"id": id, "dispatchState": models.DispatchSearching}
	update := bson.M{"$set": bson.M{
		"status":                models.BookingStatusPending,
		"noTechnicianAvailable": true,
		"dispatchState":         models.DispatchExhausted,
		"currentOfferId":        "",
		"updatedAt":             now,
	}}
	if _, err := r.transition(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark booking %s exhausted: %w", id, err)
	}
	return nil
}

// ReleaseDispatch returns a searching booking to idle after a failed attempt.
func (r *MongoBookingRepo) ReleaseDispatch(ctx context.Context, id string, now time.Time) error {
	filter := bson.M{"id": id, "dispatchState": models.DispatchSearching}
	update := bson.M{"$set": bson.M{
		"dispatchState": models.DispatchIdle,
		"updatedAt":     now,
	}}
	if _, err := r.transition(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release dispatch for booking %s: %w", id, err)
	}
	return nil
}

func (r *MongoBookingRepo) Assign(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error) {
	filter := bson.M{
		"id":           id,
		"status":       bson.M{"$in": dispatchStatuses},
		"technicianId": unassigned,
	}
	update := bson.M{"$set": bson.M{
		"status":                models.BookingStatusAssigned,
		"technicianId":          technicianID,
		"assignedAt":            now,
		"dispatchState":         models.DispatchAssigned,
		"noTechnicianAvailable": false,
		"updatedAt":             now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to assign booking %s: %w", id, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) Start(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error) {
	filter := bson.M{"id": id, "technicianId": technicianID, "status": models.BookingStatusAssigned}
	update := bson.M{"$set": bson.M{
		"status":    models.BookingStatusInProgress,
		"startedAt": now,
		"updatedAt": now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to start booking %s: %w", id, err)
	}
	return b, nil
}

var activeJobStatuses = []string{models.BookingStatusAssigned, models.BookingStatusInProgress}

func (r *MongoBookingRepo) Complete(ctx context.Context, id, technicianID, notes string, earnings *models.EarningsSnapshot, now time.Time) (*models.Booking, error) {
	filter := bson.M{"id": id, "technicianId": technicianID, "status": bson.M{"$in": activeJobStatuses}}
	update := bson.M{"$set": bson.M{
		"status":          models.BookingStatusCompleted,
		"completedAt":     now,
		"completionNotes": notes,
		"earnings":        earnings,
		"updatedAt":       now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to complete booking %s: %w", id, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) Cancel(ctx context.Context, id, technicianID, reason string, now time.Time) (*models.Booking, error) {
	filter := bson.M{"id": id, "technicianId": technicianID, "status": bson.M{"$in": activeJobStatuses}}
	update := bson.M{"$set": bson.M{
		"status":       models.BookingStatusCancelled,
		"cancelledAt":  now,
		"cancelReason": reason,
		"updatedAt":    now,
	}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}
	return b, nil
}

// Rate records the customer's rating once on a completed booking.
func (r *MongoBookingRepo) Rate(ctx context.Context, id, customerID string, rating models.BookingRating) (*models.Booking, error) {
	filter := bson.M{
		"id":         id,
		"customerId": customerID,
		"status":     models.BookingStatusCompleted,
		"rating":     bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"rating": rating, "updatedAt": rating.CreatedAt}}
	b, err := r.transition(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to rate booking %s: %w", id, err)
	}
	return b, nil
}
