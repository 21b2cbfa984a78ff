package repository

import (
	bookingRepo "repairhub/database/repository/booking"
	earningsRepo "repairhub/database/repository/earnings"
	jobOfferRepo "repairhub/database/repository/joboffer"
	notificationRepo "repairhub/database/repository/notification"
	settingsRepo "repairhub/database/repository/settings"
	technicianRepo "repairhub/database/repository/technician"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type (
	BookingRepository      = bookingRepo.BookingRepository
	TechnicianRepository   = technicianRepo.TechnicianRepository
	JobOfferRepository     = jobOfferRepo.JobOfferRepository
	EarningsRepository     = earningsRepo.EarningsRepository
	SettingsRepository     = settingsRepo.SettingsRepository
	NotificationRepository = notificationRepo.NotificationRepository
)

// Repositories bundles every Mongo-backed repository the service wires together.
type Repositories struct {
	Bookings      BookingRepository
	Technicians   TechnicianRepository
	Offers        JobOfferRepository
	Earnings      EarningsRepository
	Settings      SettingsRepository
	Notifications NotificationRepository
}

// NewMongoRepositories builds all repositories over one database, creating indexes as it goes.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Bookings:      bookingRepo.NewMongoBookingRepo(db),
		Technicians:   technicianRepo.NewMongoTechnicianRepo(db),
		Offers:        jobOfferRepo.NewMongoJobOfferRepo(db),
		Earnings:      earningsRepo.NewMongoEarningsRepo(db),
		Settings:      settingsRepo.NewMongoSettingsRepo(db),
		Notifications: notificationRepo.NewMongoNotificationRepo(db),
	}
}
