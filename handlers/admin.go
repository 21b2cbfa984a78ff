// File: repairhub/handlers/admin.go
package handlers

import (
	"net/http"

	"repairhub/middleware"
	"repairhub/services/commission"
	"repairhub/services/dispatch"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Commission commission.CommissionService
	Engine     dispatch.DispatchEngine
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cs commission.CommissionService, engine dispatch.DispatchEngine) *AdminHandler {
	return &AdminHandler{Commission: cs, Engine: engine}
}

// GetCommissionHandler returns the commission percentage in effect and its history.
func (ah *AdminHandler) GetCommissionHandler(c *gin.Context) {
	settings, err := ah.Commission.Current(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateCommissionHandler sets a new commission percentage.
func (ah *AdminHandler) UpdateCommissionHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var input struct {
		Percentage *float64 `json:"percentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid commission update", err.Error())
		return
	}

	settings, err := ah.Commission.Update(c.Request.Context(), *input.Percentage, id.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SweepOffersHandler runs the offer expiry sweep immediately.
func (ah *AdminHandler) SweepOffersHandler(c *gin.Context) {
	report, err := ah.Engine.SweepExpired(c.Request.Context())
	if err != nil {
		zap.L().Error("Manual offer sweep failed", zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
