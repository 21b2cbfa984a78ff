package settlement

import (
	"context"
	"errors"
	"fmt"

	"repairhub/database"
	"repairhub/models"
	"repairhub/services/notification"

	"go.uber.org/zap"
)

func (s *DefaultSettlementService) ApplyAssignment(ctx context.Context, offer *models.JobOffer) (*models.Booking, error) {
	booking, err := s.Bookings.Assign(ctx, offer.BookingID, offer.TechnicianID, s.now())
	if errors.Is(err, database.ErrConflict) {
		return nil, s.diagnose(ctx, offer.BookingID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Technicians.MarkBusy(ctx, offer.TechnicianID); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrTechnicianUnavailable
		}
		return nil, err
	}
	return booking, nil
}

// diagnose explains why a conditional booking update matched nothing.
func (s *DefaultSettlementService) diagnose(ctx context.Context, bookingID string) error {
	_, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidState
}

func (s *DefaultSettlementService) AnnounceAssignment(ctx context.Context, booking *models.Booking) {
	s.Metrics.Settlement("assigned")
	data := map[string]string{"bookingId": booking.ID, "technicianId": booking.TechnicianID}

	s.notify(ctx, models.Notification{
		RecipientID:   booking.CustomerID,
		RecipientRole: notification.RoleCustomer,
		Type:          models.NotifyJobAssigned,
		Title:         "Technician assigned",
		Message:       fmt.Sprintf("A technician has been assigned to your %s booking %s.", booking.ServiceType, booking.Reference),
		Data:          data,
	})
	s.notify(ctx, models.Notification{
		RecipientRole: notification.RoleAdmin,
		Type:          models.NotifyJobAssigned,
		Title:         "Job assigned",
		Message:       fmt.Sprintf("Booking %s was accepted by technician %s.", booking.Reference, booking.TechnicianID),
		Data:          data,
	})
}

// AssignOnAccept applies the assignment in its own transaction and announces it.
func (s *DefaultSettlementService) AssignOnAccept(ctx context.Context, offer *models.JobOffer) (*models.Booking, error) {
	var booking *models.Booking
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.ApplyAssignment(ctx, offer)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("Booking assigned",
			zap.String("bookingID", booking.ID), zap.String("technicianID", booking.TechnicianID))
	}
	s.AnnounceAssignment(ctx, booking)
	return booking, nil
}
