package technicianRepo

import (
	"context"
	"fmt"
	"time"

	"repairhub/database"
	"repairhub/models"
	"repairhub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoTechnicianRepo implements TechnicianRepository using MongoDB.
type MongoTechnicianRepo struct {
	coll *mongo.Collection
}

// NewMongoTechnicianRepo creates a new instance of TechnicianRepository using MongoDB.
func NewMongoTechnicianRepo(db *mongo.Database) TechnicianRepository {
	repo := &MongoTechnicianRepo{coll: db.Collection("technicians")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create technician indexes", zap.Error(err))
	}
	return repo
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (r *MongoTechnicianRepo) Create(ctx context.Context, technician *models.Technician) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, technician); err != nil {
		return fmt.Errorf("failed to create technician: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoTechnicianRepo) GetByID(ctx context.Context, id string) (*models.Technician, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var technician models.Technician
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&technician); err != nil {
		return nil, fmt.Errorf("failed to fetch technician with id %s: %w", id, database.Translate(err))
	}
	return &technician, nil
}
