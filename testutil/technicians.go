package testutil

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"repairhub/database"
	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
)

// Technicians is an in-memory technicianRepo.TechnicianRepository.
type Technicians struct {
	faults
	mu   sync.Mutex
	data map[string]models.Technician
}

var _ technicianRepo.TechnicianRepository = (*Technicians)(nil)

func NewTechnicians() *Technicians {
	return &Technicians{data: make(map[string]models.Technician)}
}

func (r *Technicians) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]models.Technician, len(r.data))
	for k, v := range r.data {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		r.data = saved
		r.mu.Unlock()
	}
}

func (r *Technicians) Put(t models.Technician) {
	r.mu.Lock()
	r.data[t.ID] = t
	r.mu.Unlock()
}

func (r *Technicians) Get(id string) (models.Technician, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	return t, ok
}

func (r *Technicians) Create(ctx context.Context, t *models.Technician) error {
	if err := r.take("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[t.ID]; ok {
		return fmt.Errorf("failed to create technician: %w", database.ErrDuplicate)
	}
	r.data[t.ID] = *t
	return nil
}

func (r *Technicians) GetByID(ctx context.Context, id string) (*models.Technician, error) {
	if err := r.take("GetByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("failed to fetch technician with id %s: %w", id, database.ErrNotFound)
	}
	return &t, nil
}

// FindCandidates returns matches sorted by id; the directory applies the real ordering.
func (r *Technicians) FindCandidates(ctx context.Context, criteria technicianRepo.CandidateCriteria) ([]models.Technician, error) {
	if err := r.take("FindCandidates"); err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(criteria.ExcludeIDs))
	for _, id := range criteria.ExcludeIDs {
		excluded[id] = true
	}
	want := strings.ToLower(criteria.ServiceType)

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Technician
	for _, t := range r.data {
		if excluded[t.ID] || !t.Offerable() {
			continue
		}
		if want != "" && !specializes(t.Specializations, want) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func specializes(specializations []string, want string) bool {
	for _, s := range specializations {
		if strings.Contains(strings.ToLower(s), want) {
			return true
		}
	}
	return false
}

func (r *Technicians) MarkBusy(ctx context.Context, id string) error {
	if err := r.take("MarkBusy"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok || (t.Status != models.TechnicianActive && t.Status != models.TechnicianOnline) {
		return fmt.Errorf("technician %s cannot take a job: %w", id, database.ErrConflict)
	}
	t.Status = models.TechnicianBusy
	t.UpdatedAt = time.Now()
	r.data[id] = t
	return nil
}

func (r *Technicians) Release(ctx context.Context, id string, completed bool) error {
	if err := r.take("Release"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return fmt.Errorf("failed to release technician %s: %w", id, database.ErrNotFound)
	}
	if t.Status == models.TechnicianBusy {
		t.Status = models.TechnicianActive
	}
	if completed {
		t.CompletedJobs++
	}
	t.UpdatedAt = time.Now()
	r.data[id] = t
	return nil
}

func (r *Technicians) SetAvailability(ctx context.Context, id string, current bool) (*models.Technician, error) {
	if err := r.take("SetAvailability"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok || t.Status != models.TechnicianActive || t.IsAvailable != current {
		return nil, fmt.Errorf("technician %s availability changed concurrently: %w", id, database.ErrConflict)
	}
	t.IsAvailable = !current
	t.UpdatedAt = time.Now()
	r.data[id] = t
	return &t, nil
}

func (r *Technicians) ApplyRating(ctx context.Context, id string, score int) (*models.Technician, error) {
	if err := r.take("ApplyRating"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("failed to rate technician %s: %w", id, database.ErrNotFound)
	}
	t.RatingCount++
	t.RatingTotal += score
	t.Rating = math.Round(float64(t.RatingTotal)/float64(t.RatingCount)*100) / 100
	t.UpdatedAt = time.Now()
	r.data[id] = t
	return &t, nil
}
