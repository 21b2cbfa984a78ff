package models

import "time"

// Booking lifecycle statuses.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusAssigned   = "assigned"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// Dispatch bookkeeping states. An empty state means no dispatch has run yet.
const (
	DispatchIdle         = "idle"
	DispatchSearching    = "searching"
	DispatchOfferPending = "offer_pending"
	DispatchAssigned     = "assigned"
	DispatchExhausted    = "exhausted"
)

type Booking struct {
	ID            string    `bson:"id" json:"id"`
	Reference     string    `bson:"reference" json:"reference"`
	CustomerID    string    `bson:"customerId" json:"customerId"`
	CustomerName  string    `bson:"customerName" json:"customerName"`
	CustomerPhone string    `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	ServiceType   string    `bson:"serviceType" json:"serviceType"`
	ScheduledAt   time.Time `bson:"scheduledAt" json:"scheduledAt"`
	Address       string    `bson:"address" json:"address"`
	Location      *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	Amount        float64   `bson:"amount" json:"amount"`
	Currency      string    `bson:"currency" json:"currency"`
	PaymentMethod string    `bson:"paymentMethod" json:"paymentMethod"`
	Status        string    `bson:"status" json:"status"`

	NoTechnicianAvailable bool   `bson:"noTechnicianAvailable" json:"noTechnicianAvailable"`
	DispatchState         string `bson:"dispatchState" json:"dispatchState"`
	CurrentOfferID        string `bson:"currentOfferId,omitempty" json:"currentOfferId,omitempty"`
	DispatchAttempts      int    `bson:"dispatchAttempts" json:"dispatchAttempts"`

	TechnicianID    string            `bson:"technicianId,omitempty" json:"technicianId,omitempty"`
	AssignedAt      *time.Time        `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	StartedAt       *time.Time        `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt     *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt     *time.Time        `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelReason    string            `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CompletionNotes string            `bson:"completionNotes,omitempty" json:"completionNotes,omitempty"`
	Earnings        *EarningsSnapshot `bson:"earnings,omitempty" json:"earnings,omitempty"`
	Rating          *BookingRating    `bson:"rating,omitempty" json:"rating,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EarningsSnapshot is the commission split frozen onto a completed booking.
type EarningsSnapshot struct {
	TotalAmount          float64 `bson:"totalAmount" json:"totalAmount"`
	CommissionPercentage float64 `bson:"commissionPercentage" json:"commissionPercentage"`
	TechnicianEarnings   float64 `bson:"technicianEarnings" json:"technicianEarnings"`
	AdminCommission      float64 `bson:"adminCommission" json:"adminCommission"`
}

type BookingRating struct {
	Score     int       `bson:"score" json:"score"` // 1..5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Dispatchable reports whether the booking may enter the dispatch workflow.
func (b *Booking) Dispatchable() bool {
	return (b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed) && b.TechnicianID == ""
}

// BookingRequest is the input for creating a booking.
type BookingRequest struct {
	CustomerName  string    `json:"customerName" binding:"required"`
	CustomerPhone string    `json:"customerPhone"`
	ServiceType   string    `json:"serviceType" binding:"required"`
	ScheduledAt   time.Time `json:"scheduledAt" binding:"required"`
	Address       string    `json:"address" binding:"required"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	Amount        float64   `json:"amount" binding:"required"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"paymentMethod"`
}

// BookingSummary is the customer-facing part of a booking shown to technicians.
type BookingSummary struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	ServiceType   string    `json:"serviceType"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	Address       string    `json:"address"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
}

func (b *Booking) Summary() BookingSummary {
	return BookingSummary{
		ID:            b.ID,
		Reference:     b.Reference,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		ServiceType:   b.ServiceType,
		ScheduledAt:   b.ScheduledAt,
		Address:       b.Address,
		Amount:        b.Amount,
		PaymentMethod: b.PaymentMethod,
	}
}
