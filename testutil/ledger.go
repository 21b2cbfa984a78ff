package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"repairhub/database"
	earningsRepo "repairhub/database/repository/earnings"
	notificationRepo "repairhub/database/repository/notification"
	settingsRepo "repairhub/database/repository/settings"
	"repairhub/models"
)

// EarningsStore is an in-memory earningsRepo.EarningsRepository keyed by booking.
type EarningsStore struct {
	faults
	mu   sync.Mutex
	data map[string]models.Earnings
}

var _ earningsRepo.EarningsRepository = (*EarningsStore)(nil)

func NewEarningsStore() *EarningsStore {
	return &EarningsStore{data: make(map[string]models.Earnings)}
}

func (r *EarningsStore) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]models.Earnings, len(r.data))
	for k, v := range r.data {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		r.data = saved
		r.mu.Unlock()
	}
}

func (r *EarningsStore) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

func (r *EarningsStore) Create(ctx context.Context, e *models.Earnings) error {
	if err := r.take("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[e.BookingID]; ok {
		return fmt.Errorf("failed to record earnings: %w", database.ErrDuplicate)
	}
	r.data[e.BookingID] = *e
	return nil
}

func (r *EarningsStore) GetByBooking(ctx context.Context, bookingID string) (*models.Earnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[bookingID]
	if !ok {
		return nil, fmt.Errorf("failed to fetch earnings for booking %s: %w", bookingID, database.ErrNotFound)
	}
	return &e, nil
}

func (r *EarningsStore) ListByTechnician(ctx context.Context, technicianID string) ([]models.Earnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Earnings
	for _, e := range r.data {
		if e.TechnicianID == technicianID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Settings is an in-memory settingsRepo.SettingsRepository.
type Settings struct {
	faults
	mu         sync.Mutex
	commission *models.CommissionSettings
}

var _ settingsRepo.SettingsRepository = (*Settings)(nil)

func NewSettings() *Settings {
	return &Settings{}
}

func (r *Settings) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := r.commission
	return func() {
		r.mu.Lock()
		r.commission = saved
		r.mu.Unlock()
	}
}

// SetPercentage stores a raw percentage without validation.
func (r *Settings) SetPercentage(pct float64) {
	r.mu.Lock()
	r.commission = &models.CommissionSettings{Key: models.CommissionSettingsKey, Percentage: pct}
	r.mu.Unlock()
}

func (r *Settings) GetCommission(ctx context.Context) (*models.CommissionSettings, error) {
	if err := r.take("GetCommission"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commission == nil {
		return nil, fmt.Errorf("failed to read commission settings: %w", database.ErrNotFound)
	}
	out := *r.commission
	out.History = append([]models.CommissionHistory(nil), r.commission.History...)
	return &out, nil
}

func (r *Settings) SaveCommission(ctx context.Context, pct float64, changedBy string, now time.Time) (*models.CommissionSettings, error) {
	if err := r.take("SaveCommission"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := models.CommissionSettings{Key: models.CommissionSettingsKey}
	if r.commission != nil {
		next.History = append([]models.CommissionHistory(nil), r.commission.History...)
	}
	next.Percentage = pct
	next.UpdatedAt = now
	next.UpdatedBy = changedBy
	next.History = append(next.History, models.CommissionHistory{Percentage: pct, ChangedAt: now, ChangedBy: changedBy})
	r.commission = &next
	out := next
	return &out, nil
}

// Notifications is an in-memory notificationRepo.NotificationRepository.
type Notifications struct {
	faults
	mu   sync.Mutex
	data []models.Notification
}

var _ notificationRepo.NotificationRepository = (*Notifications)(nil)

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (r *Notifications) Insert(ctx context.Context, n *models.Notification) error {
	if err := r.take("Insert"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, *n)
	return nil
}

func (r *Notifications) ListForRecipient(ctx context.Context, recipientID string, limit int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for i := len(r.data) - 1; i >= 0; i-- {
		if r.data[i].RecipientID == recipientID {
			out = append(out, r.data[i])
			if limit > 0 && int64(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

// Types returns the notification types sent to recipientID, oldest first.
func (r *Notifications) Types(recipientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.data {
		if n.RecipientID == recipientID {
			out = append(out, n.Type)
		}
	}
	return out
}

// All returns every stored notification, oldest first.
func (r *Notifications) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.data...)
}
