package testutil

import (
	"context"
	"sync"
	"time"

	"repairhub/models"
	"repairhub/services/booking"
	"repairhub/services/commission"
	"repairhub/services/dispatch"
	"repairhub/services/metrics"
	"repairhub/services/notification"
	"repairhub/services/offer"
	"repairhub/services/settlement"
	"repairhub/services/technician"

	"firebase.google.com/go/v4/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Epoch is the default start time of a Harness clock.
var Epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Harness wires the real services over a fresh in-memory Store.
type Harness struct {
	*Store
	Clock       *Clock
	Messenger   *Messenger
	Idempotency *MemoryIdempotency
	Registry    *prometheus.Registry
	Metrics     *metrics.DispatchMetrics

	Commission *commission.DefaultCommissionService
	Directory  *technician.DefaultDirectoryService
	OfferStore *offer.DefaultOfferStore
	Notifier   *notification.DefaultNotificationService
	Settlement *settlement.DefaultSettlementService
	Engine     *dispatch.DefaultDispatchEngine
	Booking    *booking.DefaultBookingService
}

func NewHarness() *Harness {
	store := NewStore()
	clock := NewClock(Epoch)
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	m, err := metrics.NewDispatchMetrics(reg)
	if err != nil {
		panic(err)
	}

	h := &Harness{
		Store:       store,
		Clock:       clock,
		Messenger:   &Messenger{},
		Idempotency: NewMemoryIdempotency(),
		Registry:    reg,
		Metrics:     m,
	}
	h.Commission = &commission.DefaultCommissionService{Repo: store.Settings, Logger: logger, Now: clock.Now}
	h.Directory = &technician.DefaultDirectoryService{Repo: store.Technicians, Logger: logger}
	h.OfferStore = &offer.DefaultOfferStore{
		Repo:       store.Offers,
		Commission: h.Commission,
		Window:     offer.DefaultWindow,
		Now:        clock.Now,
	}
	h.Notifier = &notification.DefaultNotificationService{
		Repo:        store.Notifications,
		Technicians: store.Technicians,
		Messenger:   h.Messenger,
		AdminTopic:  "admins",
		Metrics:     m,
		Logger:      logger,
	}
	h.Settlement = &settlement.DefaultSettlementService{
		Bookings:    store.Bookings,
		Technicians: store.Technicians,
		Earnings:    store.Earnings,
		Commission:  h.Commission,
		Notifier:    h.Notifier,
		Tx:          store.Tx,
		Metrics:     m,
		Logger:      logger,
		Now:         clock.Now,
	}
	h.Engine = &dispatch.DefaultDispatchEngine{
		Bookings:   store.Bookings,
		Directory:  h.Directory,
		Offers:     h.OfferStore,
		Settlement: h.Settlement,
		Notifier:   h.Notifier,
		Tx:         store.Tx,
		Metrics:    m,
		Logger:     logger,
		Now:        clock.Now,
	}
	h.Booking = &booking.DefaultBookingService{
		Repo:        store.Bookings,
		Dispatcher:  h.Engine,
		Idempotency: h.Idempotency,
		Logger:      logger,
		Now:         clock.Now,
	}
	return h
}

// AddTechnician stores an active, available technician.
func (h *Harness) AddTechnician(id string, rating float64, specializations ...string) models.Technician {
	t := models.Technician{
		ID:              id,
		Name:            "Technician " + id,
		Email:           id + "@repairhub.test",
		Specializations: specializations,
		IsAvailable:     true,
		Status:          models.TechnicianActive,
		Rating:          rating,
		FCMToken:        "token-" + id,
		CreatedAt:       h.Clock.Now(),
		UpdatedAt:       h.Clock.Now(),
	}
	h.Technicians.Put(t)
	return t
}

// AddBooking stores a pending booking that has never been dispatched.
func (h *Harness) AddBooking(id, customerID, serviceType string, amount float64) models.Booking {
	b := models.Booking{
		ID:            id,
		Reference:     "BK-" + id,
		CustomerID:    customerID,
		CustomerName:  "Customer " + customerID,
		ServiceType:   serviceType,
		ScheduledAt:   h.Clock.Now().Add(24 * time.Hour),
		Address:       "Moi Avenue, Nairobi",
		Amount:        amount,
		Currency:      "KES",
		PaymentMethod: "cash",
		Status:        models.BookingStatusPending,
		CreatedAt:     h.Clock.Now(),
		UpdatedAt:     h.Clock.Now(),
	}
	h.Bookings.Put(b)
	return b
}

// Messenger records push messages instead of sending them.
type Messenger struct {
	mu   sync.Mutex
	sent []*messaging.Message
	Err  error
}

func (m *Messenger) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.sent = append(m.sent, msg)
	return "projects/repairhub/messages/1", nil
}

func (m *Messenger) Sent() []*messaging.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*messaging.Message(nil), m.sent...)
}

// MemoryIdempotency is an in-memory booking.IdempotencyStore.
type MemoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

var _ booking.IdempotencyStore = (*MemoryIdempotency)(nil)

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{keys: make(map[string]string)}
}

func (s *MemoryIdempotency) Reserve(ctx context.Context, key, bookingID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.keys[key]; ok {
		return existing, false, nil
	}
	s.keys[key] = bookingID
	return bookingID, true, nil
}

func (s *MemoryIdempotency) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}
