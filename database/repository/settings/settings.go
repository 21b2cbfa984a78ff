package settingsRepo

import (
	"context"
	"fmt"
	"time"

	"repairhub/database"
	"repairhub/models"
	"repairhub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SettingsRepository reads and writes platform settings documents.
type SettingsRepository interface {
	// GetCommission returns database.ErrNotFound when commission was never configured.
	GetCommission(ctx context.Context) (*models.CommissionSettings, error)
	SaveCommission(ctx context.Context, percentage float64, changedBy string, now time.Time) (*models.CommissionSettings, error)
}

type mongoSettingsRepo struct {
	coll *mongo.Collection
}

func NewMongoSettingsRepo(db *mongo.Database) SettingsRepository {
	repo := &mongoSettingsRepo{coll: db.Collection("settings")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_key"),
	})
	if err != nil {
		utils.GetLogger().Error("failed to create settings indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoSettingsRepo) GetCommission(ctx context.Context) (*models.CommissionSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var settings models.CommissionSettings
	if err := r.coll.FindOne(ctx, bson.M{"key": models.CommissionSettingsKey}).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to read commission settings: %w", database.Translate(err))
	}
	return &settings, nil
}

// SaveCommission upserts the percentage and appends the change to the history.
func (r *mongoSettingsRepo) SaveCommission(ctx context.Context, percentage float64, changedBy string, now time.Time) (*models.CommissionSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"percentage": percentage,
			"updatedAt":  now,
			"updatedBy":  changedBy,
		},
		"$push": bson.M{"history": models.CommissionHistory{
			Percentage: percentage,
			ChangedAt:  now,
			ChangedBy:  changedBy,
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var settings models.CommissionSettings
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"key": models.CommissionSettingsKey}, update, opts).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to save commission settings: %w", err)
	}
	return &settings, nil
}
