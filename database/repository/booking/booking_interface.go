package bookingRepo

import (
	"context"
	"time"

	"repairhub/models"
)

// BookingRepository defines the persistence operations for bookings.
// Conditional transitions return database.ErrConflict when the booking is
// not in the expected state.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	NextReference(ctx context.Context) (string, error)

	// Dispatch bookkeeping.
	ClaimDispatch(ctx context.Context, id string, now time.Time) (*models.Booking, error)
	// ResumeDispatch reclaims a booking whose current offer ended without acceptance.
	ResumeDispatch(ctx context.Context, id, offerID string, now time.Time) (*models.Booking, error)
	SetOfferPending(ctx context.Context, id, offerID string, now time.Time) error
	MarkExhausted(ctx context.Context, id string, now time.Time) error
	ReleaseDispatch(ctx context.Context, id string, now time.Time) error

	// Lifecycle transitions.
	Assign(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error)
	Start(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error)
	Complete(ctx context.Context, id, technicianID, notes string, earnings *models.EarningsSnapshot, now time.Time) (*models.Booking, error)
	Cancel(ctx context.Context, id, technicianID, reason string, now time.Time) (*models.Booking, error)
	Rate(ctx context.Context, id, customerID string, rating models.BookingRating) (*models.Booking, error)
}
