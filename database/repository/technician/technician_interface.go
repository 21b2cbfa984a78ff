package technicianRepo

import (
	"context"

	"repairhub/models"
)

// CandidateCriteria narrows the technician pool for a job.
type CandidateCriteria struct {
	ServiceType string
	ExcludeIDs  []string
}

// TechnicianRepository defines persistence operations for technicians.
type TechnicianRepository interface {
	Create(ctx context.Context, technician *models.Technician) error
	GetByID(ctx context.Context, id string) (*models.Technician, error)
	FindCandidates(ctx context.Context, criteria CandidateCriteria) ([]models.Technician, error)

	// MarkBusy moves an active or online technician to busy.
	MarkBusy(ctx context.Context, id string) error
	// Release returns a busy technician to active, counting a finished job when completed is set.
	Release(ctx context.Context, id string, completed bool) error
	// SetAvailability flips isAvailable from current to !current for an active technician.
	SetAvailability(ctx context.Context, id string, current bool) (*models.Technician, error)
	// ApplyRating folds one score into the rating aggregate.
	ApplyRating(ctx context.Context, id string, score int) (*models.Technician, error)
}
