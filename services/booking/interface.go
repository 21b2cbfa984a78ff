package booking

import (
	"context"
	"net/http"
	"time"

	bookingRepo "repairhub/database/repository/booking"
	"repairhub/models"
	"repairhub/services/dispatch"
	"repairhub/utils"

	"go.uber.org/zap"
)

var ErrRequestInProgress = utils.NewAppError("requestInProgress", "A booking with this Idempotency-Key is still being created", http.StatusConflict)

// BookingService creates bookings and hands them to dispatch.
type BookingService interface {
	CreateBooking(ctx context.Context, customer models.Identity, req models.BookingRequest, idempotencyKey string) (*CreateResult, error)
	GetBooking(ctx context.Context, caller models.Identity, bookingID string) (*models.Booking, error)
	Redispatch(ctx context.Context, bookingID string) (*dispatch.Outcome, error)
}

// CreateResult is the saved booking plus the first dispatch step.
type CreateResult struct {
	Booking  *models.Booking   `json:"booking"`
	Dispatch *dispatch.Outcome `json:"dispatch,omitempty"`
	// Replayed is set when the idempotency key matched an earlier request.
	Replayed bool `json:"replayed,omitempty"`
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo        bookingRepo.BookingRepository
	Dispatcher  dispatch.DispatchEngine
	Idempotency IdempotencyStore
	Logger      *zap.Logger
	Now         func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
