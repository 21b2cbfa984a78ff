// File: repairhub/seed/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairhub/config"
	"repairhub/database"
	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
	"repairhub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type seedTechnician struct {
	name            string
	email           string
	specializations []string
	lat, lng        float64
}

var technicians = []seedTechnician{
	{"Amina Wanjiru", "amina@repairhub.test", []string{"Plumbing", "Water Heater Repair"}, -1.2921, 36.8219},
	{"Brian Otieno", "brian@repairhub.test", []string{"Electrical", "Appliance Repair"}, -1.3000, 36.8000},
	{"Cynthia Njeri", "cynthia@repairhub.test", []string{"Plumbing", "Electrical"}, -1.2650, 36.8050},
}

// Seeds a few technicians and prints demo tokens for every role.
func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	database.InitDB()

	repo := technicianRepo.NewMongoTechnicianRepo(database.DB())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	for _, s := range technicians {
		t := &models.Technician{
			ID:              uuid.New().String(),
			Name:            s.name,
			Email:           s.email,
			Specializations: s.specializations,
			Location:        models.NewGeoPoint(s.lat, s.lng),
			IsAvailable:     true,
			Status:          models.TechnicianActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.Create(ctx, t); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				logger.Info("seed: technician already present", zap.String("email", s.email))
				continue
			}
			logger.Sugar().Fatalf("seed: failed to create technician %s: %v", s.email, err)
		}
		token, err := utils.GenerateToken(t.ID, utils.RoleTechnician, 30*24*time.Hour)
		if err != nil {
			logger.Sugar().Fatalf("seed: failed to sign token: %v", err)
		}
		fmt.Printf("technician %s (%s)\n  token: %s\n", t.Name, t.ID, token)
	}

	for _, role := range []string{utils.RoleCustomer, utils.RoleAdmin} {
		id := role + "-" + uuid.New().String()[:8]
		token, err := utils.GenerateToken(id, role, 30*24*time.Hour)
		if err != nil {
			logger.Sugar().Fatalf("seed: failed to sign token: %v", err)
		}
		fmt.Printf("%s %s\n  token: %s\n", role, id, token)
	}
}
