package technician

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"repairhub/database"
	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
	"repairhub/utils"

	"go.uber.org/zap"
)

var (
	ErrNotActive            = utils.NewAppError("notActive", "Only active technicians can change availability", http.StatusConflict)
	ErrTechnicianNotFound   = utils.NewAppError("technicianNotFound", "Technician not found", http.StatusNotFound)
	ErrAvailabilityConflict = utils.NewAppError("availabilityConflict", "Availability changed while updating, please retry", http.StatusConflict)
)

// DirectoryService finds and manages technicians that can take jobs.
type DirectoryService interface {
	FindCandidates(ctx context.Context, serviceType string, excludeIDs []string, location *models.GeoPoint) ([]models.Technician, error)
	GetTechnician(ctx context.Context, id string) (*models.Technician, error)
	ToggleAvailability(ctx context.Context, technicianID string) (*models.Technician, error)
}

type DefaultDirectoryService struct {
	Repo   technicianRepo.TechnicianRepository
	Logger *zap.Logger
}

// FindCandidates returns offerable technicians in deterministic order.
// An empty result means nobody is available and is not an error.
func (s *DefaultDirectoryService) FindCandidates(ctx context.Context, serviceType string, excludeIDs []string, location *models.GeoPoint) ([]models.Technician, error) {
	technicians, err := s.Repo.FindCandidates(ctx, technicianRepo.CandidateCriteria{
		ServiceType: serviceType,
		ExcludeIDs:  excludeIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("directory query failed: %w", err)
	}
	Rank(technicians, location)
	return technicians, nil
}

// Rank orders technicians by distance from location when one is given, then
// by rating descending and id ascending. Technicians without coordinates go last.
func Rank(technicians []models.Technician, location *models.GeoPoint) {
	type ranked struct {
		dist float64
		ok   bool
	}
	keys := make(map[string]ranked, len(technicians))
	if location.Valid() {
		for _, t := range technicians {
			d, ok := DistanceKm(location, t.Location)
			keys[t.ID] = ranked{dist: d, ok: ok}
		}
	}

	sort.SliceStable(technicians, func(i, j int) bool {
		a, b := technicians[i], technicians[j]
		if location.Valid() {
			ka, kb := keys[a.ID], keys[b.ID]
			if ka.ok != kb.ok {
				return ka.ok
			}
			if ka.ok && ka.dist != kb.dist {
				return ka.dist < kb.dist
			}
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
}

func (s *DefaultDirectoryService) GetTechnician(ctx context.Context, id string) (*models.Technician, error) {
	t, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrTechnicianNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ToggleAvailability flips isAvailable for an active technician.
func (s *DefaultDirectoryService) ToggleAvailability(ctx context.Context, technicianID string) (*models.Technician, error) {
	t, err := s.GetTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TechnicianActive {
		return nil, ErrNotActive
	}

	updated, err := s.Repo.SetAvailability(ctx, technicianID, t.IsAvailable)
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrAvailabilityConflict
	}
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("Technician availability toggled",
			zap.String("technicianID", technicianID), zap.Bool("isAvailable", updated.IsAvailable))
	}
	return updated, nil
}
