package settlement

import (
	"net/http"

	"repairhub/utils"
)

var (
	ErrBookingNotFound       = utils.NewAppError("bookingNotFound", "Booking not found", http.StatusNotFound)
	ErrNotAssignedToYou      = utils.NewAppError("notAssignedToYou", "This job is not assigned to you", http.StatusForbidden)
	ErrNotYourBooking        = utils.NewAppError("notYourBooking", "This booking belongs to another customer", http.StatusForbidden)
	ErrInvalidState          = utils.NewAppError("invalidState", "Booking is not in a state that allows this action", http.StatusConflict)
	ErrTechnicianUnavailable = utils.NewAppError("technicianUnavailable", "You are not available to take this job", http.StatusConflict)
	ErrAlreadyRated          = utils.NewAppError("alreadyRated", "This booking has already been rated", http.StatusConflict)
	ErrInvalidRating         = utils.NewAppError("invalidRating", "Rating must be a whole number from 1 to 5", http.StatusBadRequest)
)
