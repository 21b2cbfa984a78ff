package models

import "time"

const (
	TechnicianActive    = "active"
	TechnicianOnline    = "online"
	TechnicianBusy      = "busy"
	TechnicianOffline   = "offline"
	TechnicianSuspended = "suspended"
)

// OfferableStatuses are the technician statuses that may receive new offers.
var OfferableStatuses = []string{TechnicianActive, TechnicianOnline}

type Technician struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Email           string    `bson:"email" json:"email"`
	Phone           string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Specializations []string  `bson:"specializations" json:"specializations"`
	Location        *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	IsAvailable     bool      `bson:"isAvailable" json:"isAvailable"`
	Status          string    `bson:"status" json:"status"`
	Rating          float64   `bson:"rating" json:"rating"`
	RatingCount     int       `bson:"ratingCount" json:"ratingCount"`
	RatingTotal     int       `bson:"ratingTotal" json:"-"`
	CompletedJobs   int       `bson:"completedJobs" json:"completedJobs"`
	FCMToken        string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Offerable reports whether the technician can be offered a job right now.
func (t *Technician) Offerable() bool {
	return (t.Status == TechnicianActive || t.Status == TechnicianOnline) && t.IsAvailable
}
