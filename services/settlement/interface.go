package settlement

import (
	"context"
	"time"

	"repairhub/database"
	bookingRepo "repairhub/database/repository/booking"
	earningsRepo "repairhub/database/repository/earnings"
	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
	"repairhub/services/commission"
	"repairhub/services/metrics"
	"repairhub/services/notification"

	"go.uber.org/zap"
)

// SettlementService owns every booking transition after an offer is accepted.
type SettlementService interface {
	// ApplyAssignment writes the booking and technician changes for an accepted
	// offer. It joins a transaction already carried by ctx.
	ApplyAssignment(ctx context.Context, offer *models.JobOffer) (*models.Booking, error)
	// AnnounceAssignment tells the customer and admins; call it after commit.
	AnnounceAssignment(ctx context.Context, booking *models.Booking)
	AssignOnAccept(ctx context.Context, offer *models.JobOffer) (*models.Booking, error)

	StartJob(ctx context.Context, bookingID, technicianID string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, technicianID, notes string) (*models.Earnings, error)
	CancelAssigned(ctx context.Context, bookingID, technicianID, reason string) (*models.Booking, error)
	RateBooking(ctx context.Context, bookingID, customerID string, score int, comment string) (*models.Booking, error)
	EarningsForTechnician(ctx context.Context, technicianID string) ([]models.Earnings, error)
}

type DefaultSettlementService struct {
	Bookings    bookingRepo.BookingRepository
	Technicians technicianRepo.TechnicianRepository
	Earnings    earningsRepo.EarningsRepository
	Commission  commission.CommissionService
	Notifier    notification.NotificationService
	Tx          database.TxRunner
	Metrics     *metrics.DispatchMetrics
	Logger      *zap.Logger
	Now         func() time.Time
}

func (s *DefaultSettlementService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultSettlementService) notify(ctx context.Context, n models.Notification) {
	notification.Deliver(ctx, s.Notifier, s.Logger, n)
}
