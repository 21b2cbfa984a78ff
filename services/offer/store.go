package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairhub/database"
	jobOfferRepo "repairhub/database/repository/joboffer"
	"repairhub/models"
	"repairhub/services/commission"

	"github.com/google/uuid"
)

// DefaultWindow is how long a technician has to answer an offer.
const DefaultWindow = 10 * time.Minute

const sweepBatch = 500

// OfferStore manages the lifecycle of job offers.
type OfferStore interface {
	CreateOffer(ctx context.Context, booking *models.Booking, technician *models.Technician, previousDeclines []string) (*models.JobOffer, error)
	Respond(ctx context.Context, offerID, technicianID string, decision models.Decision, reason string) (*models.JobOffer, error)
	// Overdue lists pending offers whose window has closed, oldest first.
	Overdue(ctx context.Context) ([]models.JobOffer, error)
	// Expire closes one overdue offer. It returns ErrAlreadyProcessed when the
	// offer is no longer pending.
	Expire(ctx context.Context, offerID string) (*models.JobOffer, error)
	// Declined lists every technician who rejected or let an offer for the booking expire.
	Declined(ctx context.Context, bookingID string) ([]string, error)
	PendingForTechnician(ctx context.Context, technicianID string) ([]models.JobOffer, error)
}

type DefaultOfferStore struct {
	Repo       jobOfferRepo.JobOfferRepository
	Commission commission.CommissionService
	Window     time.Duration
	Now        func() time.Time
}

func (s *DefaultOfferStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultOfferStore) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultWindow
}

// CreateOffer snapshots the commission split and opens the response window.
// The unique pending index backs the pre-check when two dispatches race.
func (s *DefaultOfferStore) CreateOffer(ctx context.Context, booking *models.Booking, technician *models.Technician, previousDeclines []string) (*models.JobOffer, error) {
	_, err := s.Repo.FindPendingByBooking(ctx, booking.ID)
	if err == nil {
		return nil, ErrDuplicatePendingOffer
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	split, err := s.Commission.Resolve(ctx, booking.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	declines := append([]string{}, previousDeclines...)
	offer := &models.JobOffer{
		ID:                   uuid.New().String(),
		BookingID:            booking.ID,
		TechnicianID:         technician.ID,
		TotalAmount:          split.TotalAmount,
		TechnicianEarnings:   split.TechnicianEarnings,
		AdminCommission:      split.AdminCommission,
		CommissionPercentage: split.PercentageUsed,
		Status:               models.OfferStatusPending,
		PreviousDeclines:     declines,
		CreatedAt:            now,
		ExpiresAt:            now.Add(s.window()),
	}
	if err := s.Repo.Create(ctx, offer); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicatePendingOffer
		}
		return nil, err
	}
	return offer, nil
}

// Respond applies a technician's decision. A response after the window closes
// expires the offer and fails with ErrOfferExpired; the offer is returned
// alongside that error only when this call performed the expiry.
func (s *DefaultOfferStore) Respond(ctx context.Context, offerID, technicianID string, decision models.Decision, reason string) (*models.JobOffer, error) {
	var status string
	switch decision {
	case models.DecisionAccept:
		status = models.OfferStatusAccepted
		reason = ""
	case models.DecisionReject:
		status = models.OfferStatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	current, err := s.Repo.FindPendingForTechnician(ctx, offerID, technicianID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if current.Expired(now) {
		expired, err := s.Repo.Expire(ctx, offerID, now)
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrOfferExpired
		}
		if err != nil {
			return nil, err
		}
		return expired, ErrOfferExpired
	}

	resolved, err := s.Repo.Resolve(ctx, offerID, status, reason, now)
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *DefaultOfferStore) Overdue(ctx context.Context) ([]models.JobOffer, error) {
	overdue, err := s.Repo.ListOverdue(ctx, s.now(), sweepBatch)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return overdue, nil
}

func (s *DefaultOfferStore) Expire(ctx context.Context, offerID string) (*models.JobOffer, error) {
	expired, err := s.Repo.Expire(ctx, offerID, s.now())
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		return nil, fmt.Errorf("expire offer %s: %w", offerID, err)
	}
	return expired, nil
}

func (s *DefaultOfferStore) Declined(ctx context.Context, bookingID string) ([]string, error) {
	ids, err := s.Repo.ListDeclinedTechnicians(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("declined technicians for booking %s: %w", bookingID, err)
	}
	return ids, nil
}

func (s *DefaultOfferStore) PendingForTechnician(ctx context.Context, technicianID string) ([]models.JobOffer, error) {
	return s.Repo.ListPendingForTechnician(ctx, technicianID, s.now())
}
