package models

import "time"

const CommissionSettingsKey = "commission"

// CommissionSettings is the platform commission configuration document.
type CommissionSettings struct {
	Key        string              `bson:"key" json:"-"`
	Percentage float64             `bson:"percentage" json:"percentage"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy  string              `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	History    []CommissionHistory `bson:"history" json:"history"`
}

type CommissionHistory struct {
	Percentage float64   `bson:"percentage" json:"percentage"`
	ChangedAt  time.Time `bson:"changedAt" json:"changedAt"`
	ChangedBy  string    `bson:"changedBy" json:"changedBy"`
}
