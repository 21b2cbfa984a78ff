package offer

import (
	"net/http"

	"repairhub/utils"
)

var (
	ErrOfferNotFound         = utils.NewAppError("offerNotFound", "Job offer not found", http.StatusNotFound)
	ErrAlreadyProcessed      = utils.NewAppError("alreadyProcessed", "Job offer has already been processed", http.StatusNotFound)
	ErrOfferExpired          = utils.NewAppError("offerExpired", "Job offer has expired", http.StatusBadRequest)
	ErrDuplicatePendingOffer = utils.NewAppError("duplicatePendingOffer", "Booking already has a pending job offer", http.StatusConflict)
	ErrInvalidDecision       = utils.NewAppError("invalidDecision", "Decision must be accept or reject", http.StatusBadRequest)
)
