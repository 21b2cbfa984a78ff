package jobOfferRepo

import (
	"context"
	"time"

	"repairhub/models"
)

// JobOfferRepository persists job offers. Conditional transitions return
// database.ErrConflict when the offer is no longer in the expected state.
type JobOfferRepository interface {
	// Create returns database.ErrDuplicate when the booking already has a pending offer.
	Create(ctx context.Context, offer *models.JobOffer) error
	GetByID(ctx context.Context, id string) (*models.JobOffer, error)
	FindPendingByBooking(ctx context.Context, bookingID string) (*models.JobOffer, error)
	FindPendingForTechnician(ctx context.Context, offerID, technicianID string) (*models.JobOffer, error)
	ListPendingForTechnician(ctx context.Context, technicianID string, now time.Time) ([]models.JobOffer, error)
	ListOverdue(ctx context.Context, now time.Time, limit int64) ([]models.JobOffer, error)
	// ListDeclinedTechnicians returns the distinct technicians whose offer for
	// the booking was rejected or expired.
	ListDeclinedTechnicians(ctx context.Context, bookingID string) ([]string, error)

	// Resolve moves a pending offer whose window is still open to accepted or rejected.
	Resolve(ctx context.Context, id, status, reason string, now time.Time) (*models.JobOffer, error)
	// Expire moves a pending offer whose window has closed to expired.
	Expire(ctx context.Context, id string, now time.Time) (*models.JobOffer, error)
}
