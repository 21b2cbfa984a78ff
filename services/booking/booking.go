package booking

import (
	"context"
	"errors"
	"math"
	"strings"

	"repairhub/database"
	"repairhub/models"
	"repairhub/services/commission"
	"repairhub/services/dispatch"
	"repairhub/services/settlement"
	"repairhub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func validateRequest(req models.BookingRequest) error {
	if strings.TrimSpace(req.ServiceType) == "" {
		return utils.InvalidInput("serviceType is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return utils.InvalidInput("address is required")
	}
	if req.ScheduledAt.IsZero() {
		return utils.InvalidInput("scheduledAt is required")
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return commission.ErrInvalidAmount
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return utils.InvalidInput("latitude and longitude must be given together")
	}
	if req.Latitude != nil && (math.Abs(*req.Latitude) > 90 || math.Abs(*req.Longitude) > 180) {
		return utils.InvalidInput("coordinates out of range")
	}
	return nil
}

// CreateBooking saves a pending booking and runs the first dispatch step.
// A repeated idempotency key returns the booking created the first time.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, customer models.Identity, req models.BookingRequest, idempotencyKey string) (*CreateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if idempotencyKey != "" && s.Idempotency != nil {
		existingID, fresh, err := s.Idempotency.Reserve(ctx, customer.UserID+":"+idempotencyKey, id)
		if err != nil {
			return nil, err
		}
		if !fresh {
			b, err := s.Repo.GetByID(ctx, existingID)
			if errors.Is(err, database.ErrNotFound) {
				// The first request holds the key but has not saved its booking yet.
				return nil, ErrRequestInProgress
			}
			if err != nil {
				return nil, err
			}
			return &CreateResult{Booking: b, Replayed: true}, nil
		}
	}

	ref, err := s.Repo.NextReference(ctx)
	if err != nil {
		s.forget(ctx, customer.UserID, idempotencyKey)
		return nil, err
	}

	now := s.now()
	b := &models.Booking{
		ID:            id,
		Reference:     ref,
		CustomerID:    customer.UserID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ServiceType:   strings.TrimSpace(req.ServiceType),
		ScheduledAt:   req.ScheduledAt,
		Address:       req.Address,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        models.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.Currency == "" {
		b.Currency = "KES"
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = "cash"
	}
	if req.Latitude != nil {
		b.Location = models.NewGeoPoint(*req.Latitude, *req.Longitude)
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		s.forget(ctx, customer.UserID, idempotencyKey)
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("Booking created",
			zap.String("bookingID", b.ID), zap.String("reference", b.Reference), zap.String("serviceType", b.ServiceType))
	}

	outcome, err := s.Dispatcher.Dispatch(ctx, b.ID)
	if err != nil {
		// The booking exists; dispatch can be retried by an admin.
		if s.Logger != nil {
			s.Logger.Error("Initial dispatch failed", zap.String("bookingID", b.ID), zap.Error(err))
		}
		return &CreateResult{Booking: b}, nil
	}

	if fresh, err := s.Repo.GetByID(ctx, b.ID); err == nil {
		b = fresh
	}
	return &CreateResult{Booking: b, Dispatch: outcome}, nil
}

func (s *DefaultBookingService) forget(ctx context.Context, customerID, key string) {
	if key == "" || s.Idempotency == nil {
		return
	}
	if err := s.Idempotency.Forget(ctx, customerID+":"+key); err != nil && s.Logger != nil {
		s.Logger.Warn("Failed to clear idempotency key", zap.Error(err))
	}
}

// GetBooking returns a booking to its customer, its technician or an admin.
func (s *DefaultBookingService) GetBooking(ctx context.Context, caller models.Identity, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, settlement.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case utils.RoleAdmin:
	case utils.RoleCustomer:
		if b.CustomerID != caller.UserID {
			return nil, settlement.ErrNotYourBooking
		}
	case utils.RoleTechnician:
		if b.TechnicianID != caller.UserID {
			return nil, settlement.ErrNotAssignedToYou
		}
	default:
		return nil, settlement.ErrNotYourBooking
	}
	return b, nil
}

func (s *DefaultBookingService) Redispatch(ctx context.Context, bookingID string) (*dispatch.Outcome, error) {
	return s.Dispatcher.Dispatch(ctx, bookingID)
}
