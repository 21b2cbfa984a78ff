package handlers

import (
	"net/http"

	"repairhub/middleware"
	"repairhub/models"
	"repairhub/services/dispatch"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobsHandler serves technician responses to job offers.
type JobsHandler struct {
	Engine dispatch.DispatchEngine
}

func NewJobsHandler(engine dispatch.DispatchEngine) *JobsHandler {
	return &JobsHandler{Engine: engine}
}

type jobView struct {
	ID        string         `json:"id"`
	BookingID string         `json:"bookingId"`
	Status    string         `json:"status"`
	Earnings  map[string]any `json:"earnings,omitempty"`
}

func viewOf(o *models.JobOffer) jobView {
	return jobView{
		ID:        o.ID,
		BookingID: o.BookingID,
		Status:    o.Status,
		Earnings: map[string]any{
			"totalAmount":          o.TotalAmount,
			"technicianEarnings":   o.TechnicianEarnings,
			"adminCommission":      o.AdminCommission,
			"commissionPercentage": o.CommissionPercentage,
		},
	}
}

// AcceptJobHandler handles POST /api/jobs/:offerId/accept.
func (h *JobsHandler) AcceptJobHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	offerID := c.Param("offerId")

	res, err := h.Engine.Respond(c.Request.Context(), id, offerID, models.DecisionAccept, "")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Job accepted", zap.String("offerID", offerID), zap.String("technicianID", id.UserID))
	c.JSON(http.StatusOK, gin.H{"success": true, "job": viewOf(res.Offer)})
}

// RejectJobHandler handles POST /api/jobs/:offerId/reject.
func (h *JobsHandler) RejectJobHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	offerID := c.Param("offerId")

	var input struct {
		Reason string `json:"reason"`
	}
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	res, err := h.Engine.Respond(c.Request.Context(), id, offerID, models.DecisionReject, input.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"forwardedToNextTechnician": res.ForwardedToNextTechnician,
	})
}
