package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"repairhub/models"
	"repairhub/services/offer"
	"repairhub/services/tasks"
	"repairhub/testutil"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleExpiryTask_ForwardsOverdueOffer(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(context.Background(), "b1")
	require.NoError(t, err)

	task, _, err := tasks.NewOfferExpiryTask(outcome.Offer)
	require.NoError(t, err)

	h.Clock.Advance(offer.DefaultWindow + time.Second)
	require.NoError(t, HandleExpiryTask(h.Engine, zap.NewNop())(context.Background(), task))

	first, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusExpired, first.Status)
	b, _ := h.Bookings.Get("b1")
	assert.NotEqual(t, outcome.Offer.ID, b.CurrentOfferID)
	assert.Equal(t, models.DispatchOfferPending, b.DispatchState)
}

func TestHandleExpiryTask_BadPayloadIsDropped(t *testing.T) {
	h := testutil.NewHarness()
	task := asynq.NewTask(tasks.TypeOfferExpiry, []byte("{"))
	assert.NoError(t, HandleExpiryTask(h.Engine, zap.NewNop())(context.Background(), task))
}

func TestHandleSweepTask_NothingOverdue(t *testing.T) {
	h := testutil.NewHarness()
	payload, _ := json.Marshal(map[string]string{})
	err := HandleSweepTask(h.Engine, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeOfferSweep, payload))
	assert.NoError(t, err)
}
