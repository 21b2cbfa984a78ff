package commission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"repairhub/database"
	settingsRepo "repairhub/database/repository/settings"
	"repairhub/models"
	"repairhub/utils"

	"go.uber.org/zap"
)

// DefaultPercentage applies whenever the configured percentage is unset or out of range.
const DefaultPercentage = 30.0

var (
	ErrInvalidAmount     = utils.NewAppError("invalidAmount", "Booking amount must be a non-negative number", http.StatusBadRequest)
	ErrInvalidPercentage = utils.NewAppError("invalidPercentage", "Commission percentage must be between 0 and 100", http.StatusBadRequest)
)

// Breakdown is the split of one total between technician and platform.
type Breakdown struct {
	TotalAmount        float64 `json:"totalAmount"`
	TechnicianEarnings float64 `json:"technicianEarnings"`
	AdminCommission    float64 `json:"adminCommission"`
	PercentageUsed     float64 `json:"commissionPercentage"`
}

// ValidPercentage reports whether pct is a usable commission percentage.
func ValidPercentage(pct float64) bool {
	return !math.IsNaN(pct) && pct >= 0 && pct <= 100
}

// Split divides total using pct. The technician share is derived by
// subtraction after rounding, so the two shares always add up to total.
func Split(total, pct float64) (Breakdown, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	if !ValidPercentage(pct) {
		pct = DefaultPercentage
	}
	admin := math.Round(total * pct / 100)
	return Breakdown{
		TotalAmount:        total,
		TechnicianEarnings: total - admin,
		AdminCommission:    admin,
		PercentageUsed:     pct,
	}, nil
}

// CommissionService resolves the current platform commission.
type CommissionService interface {
	Resolve(ctx context.Context, total float64) (Breakdown, error)
	Current(ctx context.Context) (*models.CommissionSettings, error)
	Update(ctx context.Context, percentage float64, adminID string) (*models.CommissionSettings, error)
}

type DefaultCommissionService struct {
	Repo settingsRepo.SettingsRepository
	// Fallback replaces DefaultPercentage when set to a valid percentage. Zero is valid.
	Fallback *float64
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *DefaultCommissionService) fallback() float64 {
	if s.Fallback != nil && ValidPercentage(*s.Fallback) {
		return *s.Fallback
	}
	return DefaultPercentage
}

func (s *DefaultCommissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultCommissionService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// percentage reads the configured value. A missing document is not an error.
func (s *DefaultCommissionService) percentage(ctx context.Context) (float64, error) {
	settings, err := s.Repo.GetCommission(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return s.fallback(), nil
	}
	if err != nil {
		return 0, fmt.Errorf("read commission: %w", err)
	}
	if !ValidPercentage(settings.Percentage) {
		s.logger().Warn("Stored commission percentage out of range, using default",
			zap.Float64("stored", settings.Percentage), zap.Float64("default", s.fallback()))
		return s.fallback(), nil
	}
	return settings.Percentage, nil
}

// Resolve splits total with the percentage in effect right now.
func (s *DefaultCommissionService) Resolve(ctx context.Context, total float64) (Breakdown, error) {
	if _, err := Split(total, DefaultPercentage); err != nil {
		return Breakdown{}, err
	}
	pct, err := s.percentage(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return Split(total, pct)
}

func (s *DefaultCommissionService) Current(ctx context.Context) (*models.CommissionSettings, error) {
	settings, err := s.Repo.GetCommission(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return &models.CommissionSettings{
			Key:        models.CommissionSettingsKey,
			Percentage: s.fallback(),
			History:    []models.CommissionHistory{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commission: %w", err)
	}
	if !ValidPercentage(settings.Percentage) {
		settings.Percentage = s.fallback()
	}
	return settings, nil
}

func (s *DefaultCommissionService) Update(ctx context.Context, percentage float64, adminID string) (*models.CommissionSettings, error) {
	if !ValidPercentage(percentage) || math.IsInf(percentage, 0) {
		return nil, ErrInvalidPercentage
	}
	settings, err := s.Repo.SaveCommission(ctx, percentage, adminID, s.now())
	if err != nil {
		return nil, fmt.Errorf("update commission: %w", err)
	}
	s.logger().Info("Commission percentage updated",
		zap.Float64("percentage", percentage), zap.String("adminID", adminID))
	return settings, nil
}
