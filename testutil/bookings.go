package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"repairhub/database"
	bookingRepo "repairhub/database/repository/booking"
	"repairhub/models"
)

// Bookings is an in-memory bookingRepo.BookingRepository.
type Bookings struct {
	faults
	mu   sync.Mutex
	data map[string]models.Booking
	seq  int64
}

var _ bookingRepo.BookingRepository = (*Bookings)(nil)

func NewBookings() *Bookings {
	return &Bookings{data: make(map[string]models.Booking)}
}

func (r *Bookings) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]models.Booking, len(r.data))
	for k, v := range r.data {
		saved[k] = v
	}
	seq := r.seq
	return func() {
		r.mu.Lock()
		r.data, r.seq = saved, seq
		r.mu.Unlock()
	}
}

// Put stores b as is, replacing any booking with the same id.
func (r *Bookings) Put(b models.Booking) {
	r.mu.Lock()
	r.data[b.ID] = b
	r.mu.Unlock()
}

// Get returns a copy of the stored booking.
func (r *Bookings) Get(id string) (models.Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	return b, ok
}

func (r *Bookings) Create(ctx context.Context, b *models.Booking) error {
	if err := r.take("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[b.ID]; ok {
		return fmt.Errorf("failed to create booking: %w", database.ErrDuplicate)
	}
	r.data[b.ID] = *b
	return nil
}

func (r *Bookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if err := r.take("GetByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, database.ErrNotFound)
	}
	return &b, nil
}

func (r *Bookings) NextReference(ctx context.Context) (string, error) {
	if err := r.take("NextReference"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return bookingRepo.FormatReference(r.seq), nil
}

// update applies mutate when match holds, mirroring a FindOneAndUpdate miss as ErrConflict.
func (r *Bookings) update(method, id string, match func(b *models.Booking) bool, mutate func(b *models.Booking)) (*models.Booking, error) {
	if err := r.take(method); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok || !match(&b) {
		return nil, fmt.Errorf("%s booking %s: %w", method, id, database.ErrConflict)
	}
	mutate(&b)
	r.data[id] = b
	out := b
	return &out, nil
}

func dispatchable(b *models.Booking) bool {
	return (b.Status == models.BookingStatusPending || b.Status == models.BookingStatusConfirmed) && b.TechnicianID == ""
}

func activeJob(b *models.Booking, technicianID string) bool {
	return b.TechnicianID == technicianID &&
		(b.Status == models.BookingStatusAssigned || b.Status == models.BookingStatusInProgress)
}

func (r *Bookings) ClaimDispatch(ctx context.Context, id string, now time.Time) (*models.Booking, error) {
	return r.update("ClaimDispatch", id, func(b *models.Booking) bool {
		switch b.DispatchState {
		case "", models.DispatchIdle, models.DispatchExhausted:
			return dispatchable(b)
		}
		return false
	}, func(b *models.Booking) {
		b.DispatchState = models.DispatchSearching
		b.UpdatedAt = now
	})
}

func (r *Bookings) ResumeDispatch(ctx context.Context, id, offerID string, now time.Time) (*models.Booking, error) {
	return r.update("ResumeDispatch", id, func(b *models.Booking) bool {
		return dispatchable(b) && b.DispatchState == models.DispatchOfferPending && b.CurrentOfferID == offerID
	}, func(b *models.Booking) {
		b.DispatchState = models.DispatchSearching
		b.UpdatedAt = now
	})
}

func (r *Bookings) SetOfferPending(ctx context.Context, id, offerID string, now time.Time) error {
	_, err := r.update("SetOfferPending", id, func(b *models.Booking) bool {
		return b.DispatchState == models.DispatchSearching
	}, func(b *models.Booking) {
		b.DispatchState = models.DispatchOfferPending
		b.CurrentOfferID = offerID
		b.NoTechnicianAvailable = false
		b.DispatchAttempts++
		b.UpdatedAt = now
	})
	return err
}

func (r *Bookings) MarkExhausted(ctx context.Context, id string, now time.Time) error {
	_, err := r.update("MarkExhausted", id, func(b *models.Booking) bool {
		return b.DispatchState == models.DispatchSearching
	}, func(b *models.Booking) {
		b.Status = models.BookingStatusPending
		b.NoTechnicianAvailable = true
		b.DispatchState = models.DispatchExhausted
		b.CurrentOfferID = ""
		b.UpdatedAt = now
	})
	return err
}

func (r *Bookings) ReleaseDispatch(ctx context.Context, id string, now time.Time) error {
	_, err := r.update("ReleaseDispatch", id, func(b *models.Booking) bool {
		return b.DispatchState == models.DispatchSearching
	}, func(b *models.Booking) {
		b.DispatchState = models.DispatchIdle
		b.UpdatedAt = now
	})
	return err
}

func (r *Bookings) Assign(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error) {
	return r.update("Assign", id, dispatchable, func(b *models.Booking) {
		b.Status = models.BookingStatusAssigned
		b.TechnicianID = technicianID
		b.AssignedAt = &now
		b.DispatchState = models.DispatchAssigned
		b.NoTechnicianAvailable = false
		b.UpdatedAt = now
	})
}

func (r *Bookings) Start(ctx context.Context, id, technicianID string, now time.Time) (*models.Booking, error) {
	return r.update("Start", id, func(b *models.Booking) bool {
		return b.TechnicianID == technicianID && b.Status == models.BookingStatusAssigned
	}, func(b *models.Booking) {
		b.Status = models.BookingStatusInProgress
		b.StartedAt = &now
		b.UpdatedAt = now
	})
}

func (r *Bookings) Complete(ctx context.Context, id, technicianID, notes string, earnings *models.EarningsSnapshot, now time.Time) (*models.Booking, error) {
	return r.update("Complete", id, func(b *models.Booking) bool {
		return activeJob(b, technicianID)
	}, func(b *models.Booking) {
		snap := *earnings
		b.Status = models.BookingStatusCompleted
		b.CompletedAt = &now
		b.CompletionNotes = notes
		b.Earnings = &snap
		b.UpdatedAt = now
	})
}

func (r *Bookings) Cancel(ctx context.Context, id, technicianID, reason string, now time.Time) (*models.Booking, error) {
	return r.update("Cancel", id, func(b *models.Booking) bool {
		return activeJob(b, technicianID)
	}, func(b *models.Booking) {
		b.Status = models.BookingStatusCancelled
		b.CancelledAt = &now
		b.CancelReason = reason
		b.UpdatedAt = now
	})
}

func (r *Bookings) Rate(ctx context.Context, id, customerID string, rating models.BookingRating) (*models.Booking, error) {
	return r.update("Rate", id, func(b *models.Booking) bool {
		return b.CustomerID == customerID && b.Status == models.BookingStatusCompleted && b.Rating == nil
	}, func(b *models.Booking) {
		rt := rating
		b.Rating = &rt
		b.UpdatedAt = rating.CreatedAt
	})
}
