package models

import "time"

const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
	OfferStatusExpired  = "expired"
)

// Decision is a technician's answer to a job offer.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// JobOffer is a time-boxed proposal of one booking to one technician.
type JobOffer struct {
	ID                   string     `bson:"id" json:"id"`
	BookingID            string     `bson:"bookingId" json:"bookingId"`
	TechnicianID         string     `bson:"technicianId" json:"technicianId"`
	TotalAmount          float64    `bson:"totalAmount" json:"totalAmount"`
	TechnicianEarnings   float64    `bson:"technicianEarnings" json:"technicianEarnings"`
	AdminCommission      float64    `bson:"adminCommission" json:"adminCommission"`
	CommissionPercentage float64    `bson:"commissionPercentage" json:"commissionPercentage"`
	Status               string     `bson:"status" json:"status"`
	RejectReason         string     `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	PreviousDeclines     []string   `bson:"previousDeclines" json:"previousDeclines"`
	CreatedAt            time.Time  `bson:"createdAt" json:"createdAt"`
	ExpiresAt            time.Time  `bson:"expiresAt" json:"expiresAt"`
	RespondedAt          *time.Time `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// Expired reports whether the response window has closed at now.
func (o *JobOffer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// AvailableJob is a pending offer joined with its booking for the technician poll view.
type AvailableJob struct {
	OfferID            string         `json:"offerId"`
	ExpiresAt          time.Time      `json:"expiresAt"`
	TechnicianEarnings float64        `json:"technicianEarnings"`
	Booking            BookingSummary `json:"booking"`
}

// RespondResult is what a technician sees after answering an offer.
type RespondResult struct {
	Offer                     *JobOffer `json:"job"`
	ForwardedToNextTechnician bool      `json:"forwardedToNextTechnician"`
}
