package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"repairhub/database"
	jobOfferRepo "repairhub/database/repository/joboffer"
	"repairhub/models"
)

// Offers is an in-memory jobOfferRepo.JobOfferRepository. Create enforces
// at most one pending offer per booking like the partial unique index.
type Offers struct {
	faults
	mu   sync.Mutex
	data map[string]models.JobOffer
}

var _ jobOfferRepo.JobOfferRepository = (*Offers)(nil)

func NewOffers() *Offers {
	return &Offers{data: make(map[string]models.JobOffer)}
}

func (r *Offers) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]models.JobOffer, len(r.data))
	for k, v := range r.data {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		r.data = saved
		r.mu.Unlock()
	}
}

func (r *Offers) Put(o models.JobOffer) {
	r.mu.Lock()
	r.data[o.ID] = o
	r.mu.Unlock()
}

func (r *Offers) Get(id string) (models.JobOffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	return o, ok
}

// ForBooking returns every offer made for a booking, oldest first.
func (r *Offers) ForBooking(bookingID string) []models.JobOffer {
	return r.filter(func(o *models.JobOffer) bool { return o.BookingID == bookingID }, "createdAt")
}

func (r *Offers) filter(match func(o *models.JobOffer) bool, order string) []models.JobOffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobOffer
	for _, o := range r.data {
		if match(&o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == "createdAt" && !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if order == "expiresAt" && !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Offers) Create(ctx context.Context, o *models.JobOffer) error {
	if err := r.take("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[o.ID]; ok {
		return fmt.Errorf("failed to create job offer: %w", database.ErrDuplicate)
	}
	if o.Status == models.OfferStatusPending {
		for _, existing := range r.data {
			if existing.BookingID == o.BookingID && existing.Status == models.OfferStatusPending {
				return fmt.Errorf("failed to create job offer: %w", database.ErrDuplicate)
			}
		}
	}
	r.data[o.ID] = *o
	return nil
}

func (r *Offers) findOne(method string, match func(o *models.JobOffer) bool) (*models.JobOffer, error) {
	if err := r.take(method); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.data {
		if match(&o) {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("failed to fetch job offer: %w", database.ErrNotFound)
}

func (r *Offers) GetByID(ctx context.Context, id string) (*models.JobOffer, error) {
	return r.findOne("GetByID", func(o *models.JobOffer) bool { return o.ID == id })
}

func (r *Offers) FindPendingByBooking(ctx context.Context, bookingID string) (*models.JobOffer, error) {
	return r.findOne("FindPendingByBooking", func(o *models.JobOffer) bool {
		return o.BookingID == bookingID && o.Status == models.OfferStatusPending
	})
}

func (r *Offers) FindPendingForTechnician(ctx context.Context, offerID, technicianID string) (*models.JobOffer, error) {
	return r.findOne("FindPendingForTechnician", func(o *models.JobOffer) bool {
		return o.ID == offerID && o.TechnicianID == technicianID && o.Status == models.OfferStatusPending
	})
}

func (r *Offers) ListPendingForTechnician(ctx context.Context, technicianID string, now time.Time) ([]models.JobOffer, error) {
	if err := r.take("ListPendingForTechnician"); err != nil {
		return nil, err
	}
	return r.filter(func(o *models.JobOffer) bool {
		return o.TechnicianID == technicianID && o.Status == models.OfferStatusPending && !o.ExpiresAt.Before(now)
	}, "expiresAt"), nil
}

func (r *Offers) ListOverdue(ctx context.Context, now time.Time, limit int64) ([]models.JobOffer, error) {
	if err := r.take("ListOverdue"); err != nil {
		return nil, err
	}
	out := r.filter(func(o *models.JobOffer) bool {
		return o.Status == models.OfferStatusPending && o.ExpiresAt.Before(now)
	}, "expiresAt")
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Offers) ListDeclinedTechnicians(ctx context.Context, bookingID string) ([]string, error) {
	if err := r.take("ListDeclinedTechnicians"); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	ids := []string{}
	for _, o := range r.filter(func(o *models.JobOffer) bool {
		return o.BookingID == bookingID && (o.Status == models.OfferStatusRejected || o.Status == models.OfferStatusExpired)
	}, "createdAt") {
		if !seen[o.TechnicianID] {
			seen[o.TechnicianID] = true
			ids = append(ids, o.TechnicianID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Offers) transition(method, id string, match func(o *models.JobOffer) bool, mutate func(o *models.JobOffer)) (*models.JobOffer, error) {
	if err := r.take(method); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok || !match(&o) {
		return nil, database.ErrConflict
	}
	mutate(&o)
	r.data[id] = o
	out := o
	return &out, nil
}

func (r *Offers) Resolve(ctx context.Context, id, status, reason string, now time.Time) (*models.JobOffer, error) {
	return r.transition("Resolve", id, func(o *models.JobOffer) bool {
		return o.Status == models.OfferStatusPending && !o.ExpiresAt.Before(now)
	}, func(o *models.JobOffer) {
		o.Status = status
		o.RespondedAt = &now
		if reason != "" {
			o.RejectReason = reason
		}
	})
}

func (r *Offers) Expire(ctx context.Context, id string, now time.Time) (*models.JobOffer, error) {
	return r.transition("Expire", id, func(o *models.JobOffer) bool {
		return o.Status == models.OfferStatusPending && o.ExpiresAt.Before(now)
	}, func(o *models.JobOffer) {
		o.Status = models.OfferStatusExpired
	})
}
