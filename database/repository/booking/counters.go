package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingCounterKey = "booking_reference"

// NextReference allocates the next human-readable booking code (BK-000001).
func (r *MongoBookingRepo) NextReference(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingCounterKey},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", fmt.Errorf("failed to allocate booking reference: %w", err)
	}
	return FormatReference(counter.Seq), nil
}

func FormatReference(seq int64) string {
	return fmt.Sprintf("BK-%06d", seq)
}
