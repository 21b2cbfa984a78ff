package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"repairhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOfferExpiryTask(t *testing.T) {
	expires := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)
	task, opts, err := NewOfferExpiryTask(&models.JobOffer{ID: "o1", BookingID: "b1", ExpiresAt: expires})
	require.NoError(t, err)

	assert.Equal(t, TypeOfferExpiry, task.Type())
	assert.Len(t, opts, 3)

	var p OfferExpiryPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "o1", p.OfferID)
	assert.Equal(t, "b1", p.BookingID)
	assert.True(t, expires.Equal(p.ExpiresAt))
}

func TestNewOfferSweepTask(t *testing.T) {
	task := NewOfferSweepTask()
	assert.Equal(t, TypeOfferSweep, task.Type())
	assert.Empty(t, task.Payload())
}
