package handlers

import (
	"net/http"

	"repairhub/middleware"
	"repairhub/services/dispatch"
	"repairhub/services/settlement"
	"repairhub/services/technician"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
)

// TechnicianHandler serves the technician's own views and settings.
type TechnicianHandler struct {
	Engine     dispatch.DispatchEngine
	Directory  technician.DirectoryService
	Settlement settlement.SettlementService
}

func NewTechnicianHandler(engine dispatch.DispatchEngine, directory technician.DirectoryService, settlementSvc settlement.SettlementService) *TechnicianHandler {
	return &TechnicianHandler{Engine: engine, Directory: directory, Settlement: settlementSvc}
}

// AvailableJobsHandler handles GET /api/technicians/available-jobs.
func (h *TechnicianHandler) AvailableJobsHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	jobs, err := h.Engine.AvailableJobs(c.Request.Context(), id.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// ToggleAvailabilityHandler handles POST /api/technicians/availability/toggle.
func (h *TechnicianHandler) ToggleAvailabilityHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	t, err := h.Directory.ToggleAvailability(c.Request.Context(), id.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isAvailable": t.IsAvailable})
}

// EarningsHandler handles GET /api/technicians/earnings.
func (h *TechnicianHandler) EarningsHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	records, err := h.Settlement.EarningsForTechnician(c.Request.Context(), id.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var total float64
	for _, r := range records {
		total += r.TechnicianEarnings
	}
	c.JSON(http.StatusOK, gin.H{"earnings": records, "totalEarnings": total})
}
