package models

import "time"

const PayoutStatusPending = "pending"

// Earnings is the immutable settlement record written when a booking completes.
type Earnings struct {
	ID                   string    `bson:"id" json:"id"`
	BookingID            string    `bson:"bookingId" json:"bookingId"`
	TechnicianID         string    `bson:"technicianId" json:"technicianId"`
	TotalAmount          float64   `bson:"totalAmount" json:"totalAmount"`
	CommissionPercentage float64   `bson:"commissionPercentage" json:"commissionPercentage"`
	TechnicianEarnings   float64   `bson:"technicianEarnings" json:"technicianEarnings"`
	AdminCommission      float64   `bson:"adminCommission" json:"adminCommission"`
	PayoutStatus         string    `bson:"payoutStatus" json:"payoutStatus"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
}

func (e *Earnings) Snapshot() *EarningsSnapshot {
	return &EarningsSnapshot{
		TotalAmount:          e.TotalAmount,
		CommissionPercentage: e.CommissionPercentage,
		TechnicianEarnings:   e.TechnicianEarnings,
		AdminCommission:      e.AdminCommission,
	}
}
