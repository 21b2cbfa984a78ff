package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"repairhub/models"

	"github.com/hibiken/asynq"
)

const (
	// TypeOfferSweep expires every overdue pending offer.
	TypeOfferSweep = "offers:sweep"
	// TypeOfferExpiry checks one offer once its window has closed.
	TypeOfferExpiry = "offers:expiry"
)

// OfferExpiryPayload identifies the offer a delayed expiry check is for.
type OfferExpiryPayload struct {
	OfferID   string    `json:"offerId"`
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewOfferSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOfferSweep, nil, asynq.MaxRetry(0), asynq.Timeout(time.Minute))
}

// NewOfferExpiryTask builds a task that fires just after the offer's window closes.
func NewOfferExpiryTask(offer *models.JobOffer) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(OfferExpiryPayload{
		OfferID:   offer.ID,
		BookingID: offer.BookingID,
		ExpiresAt: offer.ExpiresAt,
	})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOfferExpiry, b)
	opts := []asynq.Option{
		asynq.ProcessAt(offer.ExpiresAt.Add(time.Second)),
		asynq.TaskID("expiry:" + offer.ID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// ExpiryScheduler enqueues a delayed expiry check for each new offer.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, offer *models.JobOffer) error
}

// AsynqExpiryScheduler implements ExpiryScheduler on an asynq client.
type AsynqExpiryScheduler struct {
	Client *asynq.Client
}

func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, offer *models.JobOffer) error {
	task, opts, err := NewOfferExpiryTask(offer)
	if err != nil {
		return fmt.Errorf("build expiry task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue expiry task for offer %s: %w", offer.ID, err)
	}
	return nil
}
