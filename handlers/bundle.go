// File: repairhub/handlers/bundle.go
package handlers

import (
	technicianRepo "repairhub/database/repository/technician"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// HandlerBundle groups all your endpoint handlers into one struct.
type HandlerBundle struct {
	TechnicianRepo technicianRepo.TechnicianRepository
	AuthCache      *redis.Client

	// Job offer endpoints
	AcceptJobHandler gin.HandlerFunc
	RejectJobHandler gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler   gin.HandlerFunc
	GetBookingHandler      gin.HandlerFunc
	DispatchBookingHandler gin.HandlerFunc
	StartJobHandler        gin.HandlerFunc
	CompleteBookingHandler gin.HandlerFunc
	CancelBookingHandler   gin.HandlerFunc
	RateBookingHandler     gin.HandlerFunc

	// Technician endpoints
	AvailableJobsHandler      gin.HandlerFunc
	ToggleAvailabilityHandler gin.HandlerFunc
	EarningsHandler           gin.HandlerFunc

	// Notification endpoints
	ListNotificationsHandler gin.HandlerFunc

	// Admin endpoints
	GetCommissionHandler    gin.HandlerFunc
	UpdateCommissionHandler gin.HandlerFunc
	SweepOffersHandler      gin.HandlerFunc

	// Ops endpoints
	MetricsHandler gin.HandlerFunc
}
