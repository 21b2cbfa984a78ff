package earningsRepo

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

// EarningsRepository stores settlement records. Records are insert-only.
type EarningsRepository interface {
	// Create returns database.ErrDuplicate when the booking was already settled.
	Create(ctx context.Context, earnings *models.Earnings) error
	GetByBooking(ctx context.Context, bookingID string) (*models.Earnings, error)
	ListByTechnician(ctx context.Context, technicianID string) ([]models.Earnings, error)
}

type mongoEarningsRepo struct {
	coll *mongo.Collection
}

func NewMongoEarningsRepo(db *mongo.Database) EarningsRepository {
	repo := &mongoEarningsRepo{coll: db.Collection("earnings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create earnings indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoEarningsRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_booking")},
		{Keys: bson.D{{Key: "technicianId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("technician_created_idx")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *mongoEarningsRepo) Create(ctx context.Context, earnings *models.Earnings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, earnings); err != nil {
		return fmt.Errorf("failed to record earnings for booking %s: %w", earnings.BookingID, database.Translate(err))
	}
	return nil
}

func (r *mongoEarningsRepo) GetByBooking(ctx context.Context, bookingID string) (*models.Earnings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var earnings models.Earnings
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&earnings); err != nil {
		return nil, fmt.Errorf("failed to fetch earnings for booking %s: %w", bookingID, database.Translate(err))
	}
	return &earnings, nil
}

func (r *mongoEarningsRepo) ListByTechnician(ctx context.Context, technicianID string) ([]models.Earnings, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"technicianId": technicianID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings for technician %s: %w", technicianID, err)
	}
	defer cursor.Close(ctx)

	var records []models.Earnings
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode earnings: %w", err)
	}
	return records, nil
}
