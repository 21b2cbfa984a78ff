package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"

	"repairhub/database"
	"repairhub/models"
	"repairhub/services/commission"
	"repairhub/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// assignedBooking loads a booking and checks that technicianID holds it in one of the allowed statuses.
func (s *DefaultSettlementService) assignedBooking(ctx context.Context, bookingID, technicianID string, allowed ...string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.TechnicianID != technicianID {
		return nil, ErrNotAssignedToYou
	}
	for _, st := range allowed {
		if b.Status == st {
			return b, nil
		}
	}
	return nil, ErrInvalidState
}

func (s *DefaultSettlementService) StartJob(ctx context.Context, bookingID, technicianID string) (*models.Booking, error) {
	if _, err := s.assignedBooking(ctx, bookingID, technicianID, models.BookingStatusAssigned); err != nil {
		return nil, err
	}
	b, err := s.Bookings.Start(ctx, bookingID, technicianID, s.now())
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}

	s.Metrics.Settlement("started")
	s.notify(ctx, models.Notification{
		RecipientID:   b.CustomerID,
		RecipientRole: notification.RoleCustomer,
		Type:          models.NotifyJobStarted,
		Title:         "Work has started",
		Message:       fmt.Sprintf("Your technician has started work on booking %s.", b.Reference),
		Data:          map[string]string{"bookingId": b.ID},
	})
	return b, nil
}

// CompleteBooking settles a finished job. Every precondition is checked before
// the first write; the earnings record is written last in the transaction.
func (s *DefaultSettlementService) CompleteBooking(ctx context.Context, bookingID, technicianID, notes string) (*models.Earnings, error) {
	b, err := s.assignedBooking(ctx, bookingID, technicianID, models.BookingStatusAssigned, models.BookingStatusInProgress)
	if err != nil {
		return nil, err
	}
	if b.Amount <= 0 || math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
		return nil, commission.ErrInvalidAmount
	}
	split, err := s.Commission.Resolve(ctx, b.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.Earnings{
		ID:                   uuid.New().String(),
		BookingID:            b.ID,
		TechnicianID:         technicianID,
		TotalAmount:          split.TotalAmount,
		CommissionPercentage: split.PercentageUsed,
		TechnicianEarnings:   split.TechnicianEarnings,
		AdminCommission:      split.AdminCommission,
		PayoutStatus:         models.PayoutStatusPending,
		CreatedAt:            now,
	}

	var completed *models.Booking
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.Bookings.Complete(ctx, b.ID, technicianID, notes, record.Snapshot(), now)
		if errors.Is(err, database.ErrConflict) {
			return ErrInvalidState
		}
		if err != nil {
			return err
		}
		if err := s.Technicians.Release(ctx, technicianID, true); err != nil {
			return err
		}
		if err := s.Earnings.Create(ctx, record); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return ErrInvalidState
			}
			return err
		}
		completed = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("Booking completed",
			zap.String("bookingID", completed.ID),
			zap.String("technicianID", technicianID),
			zap.Float64("technicianEarnings", record.TechnicianEarnings),
			zap.Float64("adminCommission", record.AdminCommission))
	}
	s.Metrics.Settlement("completed")
	s.Metrics.CommissionSettled(record.AdminCommission)
	s.announceCompletion(ctx, completed, record)
	return record, nil
}

func (s *DefaultSettlementService) announceCompletion(ctx context.Context, b *models.Booking, e *models.Earnings) {
	data := map[string]string{"bookingId": b.ID}
	s.notify(ctx, models.Notification{
		RecipientID:   b.CustomerID,
		RecipientRole: notification.RoleCustomer,
		Type:          models.NotifyRateService,
		Title:         "How did it go?",
		Message:       fmt.Sprintf("Your %s job %s is complete. Please rate your technician.", b.ServiceType, b.Reference),
		Data:          data,
	})
	s.notify(ctx, models.Notification{
		RecipientRole: notification.RoleAdmin,
		Type:          models.NotifyJobCompleted,
		Title:         "Job completed",
		Message:       fmt.Sprintf("Booking %s completed. Commission %.2f %s.", b.Reference, e.AdminCommission, b.Currency),
		Data:          data,
	})
	s.notify(ctx, models.Notification{
		RecipientID:   e.TechnicianID,
		RecipientRole: notification.RoleTechnician,
		Type:          models.NotifyEarningsCredited,
		Title:         "Earnings recorded",
		Message:       fmt.Sprintf("You earned %.2f %s for booking %s.", e.TechnicianEarnings, b.Currency, b.Reference),
		Data:          data,
	})
}

// CancelAssigned cancels a job held by technicianID. The booking is not re-dispatched.
func (s *DefaultSettlementService) CancelAssigned(ctx context.Context, bookingID, technicianID, reason string) (*models.Booking, error) {
	b, err := s.assignedBooking(ctx, bookingID, technicianID, models.BookingStatusAssigned, models.BookingStatusInProgress)
	if err != nil {
		return nil, err
	}

	var cancelled *models.Booking
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.Bookings.Cancel(ctx, b.ID, technicianID, reason, s.now())
		if errors.Is(err, database.ErrConflict) {
			return ErrInvalidState
		}
		if err != nil {
			return err
		}
		if err := s.Technicians.Release(ctx, technicianID, false); err != nil {
			return err
		}
		cancelled = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Settlement("cancelled")
	data := map[string]string{"bookingId": cancelled.ID}
	s.notify(ctx, models.Notification{
		RecipientID:   cancelled.CustomerID,
		RecipientRole: notification.RoleCustomer,
		Type:          models.NotifyJobCancelled,
		Title:         "Booking cancelled",
		Message:       fmt.Sprintf("Your booking %s was cancelled by the technician.", cancelled.Reference),
		Data:          data,
	})
	s.notify(ctx, models.Notification{
		RecipientRole: notification.RoleAdmin,
		Type:          models.NotifyJobCancelled,
		Title:         "Job cancelled",
		Message:       fmt.Sprintf("Technician %s cancelled booking %s: %s", technicianID, cancelled.Reference, reason),
		Data:          data,
	})
	return cancelled, nil
}

// RateBooking stores the customer's one rating and refreshes the technician aggregate.
func (s *DefaultSettlementService) RateBooking(ctx context.Context, bookingID, customerID string, score int, comment string) (*models.Booking, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidRating
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrNotYourBooking
	}
	if b.Status != models.BookingStatusCompleted {
		return nil, ErrInvalidState
	}
	if b.Rating != nil {
		return nil, ErrAlreadyRated
	}

	rating := models.BookingRating{Score: score, Comment: comment, CreatedAt: s.now()}
	var rated *models.Booking
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.Bookings.Rate(ctx, b.ID, customerID, rating)
		if errors.Is(err, database.ErrConflict) {
			return ErrAlreadyRated
		}
		if err != nil {
			return err
		}
		if _, err := s.Technicians.ApplyRating(ctx, b.TechnicianID, score); err != nil {
			return err
		}
		rated = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Settlement("rated")
	return rated, nil
}

func (s *DefaultSettlementService) EarningsForTechnician(ctx context.Context, technicianID string) ([]models.Earnings, error) {
	return s.Earnings.ListByTechnician(ctx, technicianID)
}
