package models

import "time"

// Notification types.
const (
	NotifyJobOffer          = "job_offer"
	NotifyNoTechnician      = "no_technician_available"
	NotifyJobAssigned       = "job_assigned"
	NotifyJobStarted        = "job_started"
	NotifyJobCompleted      = "job_completed"
	NotifyRateService       = "rate_service"
	NotifyEarningsCredited  = "earnings_credited"
	NotifyJobCancelled      = "job_cancelled"
	NotifyOfferExpired      = "offer_expired"
	NotifyCommissionChanged = "commission_changed"
)

type Notification struct {
	ID            string            `bson:"id" json:"id"`
	RecipientID   string            `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	RecipientRole string            `bson:"recipientRole" json:"recipientRole"`
	Type          string            `bson:"type" json:"type"`
	Title         string            `bson:"title" json:"title"`
	Message       string            `bson:"message" json:"message"`
	Data          map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Read          bool              `bson:"read" json:"read"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
}
