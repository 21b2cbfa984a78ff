package handlers

import (
	"net/http"

	"repairhub/middleware"
	"repairhub/models"
	"repairhub/services/booking"
	"repairhub/services/settlement"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves booking intake and the technician-driven lifecycle.
type BookingHandler struct {
	Bookings   booking.BookingService
	Settlement settlement.SettlementService
}

func NewBookingHandler(bookings booking.BookingService, settlementSvc settlement.SettlementService) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Settlement: settlementSvc}
}

type notesInput struct {
	Notes string `json:"notes"`
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

// CreateBookingHandler handles POST /api/bookings.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	res, err := h.Bookings.CreateBooking(c.Request.Context(), id, req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	b, err := h.Bookings.GetBooking(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DispatchBookingHandler handles POST /api/bookings/:id/dispatch.
func (h *BookingHandler) DispatchBookingHandler(c *gin.Context) {
	outcome, err := h.Bookings.Redispatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// StartJobHandler handles POST /api/bookings/:id/start.
func (h *BookingHandler) StartJobHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	b, err := h.Settlement.StartJob(c.Request.Context(), c.Param("id"), id.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// CompleteBookingHandler handles POST /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var input notesInput
	if !bindOptional(c, &input) {
		return
	}

	earnings, err := h.Settlement.CompleteBooking(c.Request.Context(), c.Param("id"), id.UserID, input.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "earnings": earnings})
}

// CancelBookingHandler handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var input notesInput
	if !bindOptional(c, &input) {
		return
	}

	b, err := h.Settlement.CancelAssigned(c.Request.Context(), c.Param("id"), id.UserID, input.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// RateBookingHandler handles POST /api/bookings/:id/rate.
func (h *BookingHandler) RateBookingHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var input struct {
		Score   int    `json:"score" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid rating", err.Error())
		return
	}

	b, err := h.Settlement.RateBooking(c.Request.Context(), c.Param("id"), id.UserID, input.Score, input.Comment)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}
