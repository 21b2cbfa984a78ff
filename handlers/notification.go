package handlers

import (
	"net/http"
	"strconv"

	"repairhub/middleware"
	"repairhub/services/notification"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Notifier notification.NotificationService
}

func NewNotificationHandler(n notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifier: n}
}

// ListNotificationsHandler handles GET /api/notifications?limit=N for the caller.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > 200 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid limit", "limit must be between 1 and 200")
		return
	}

	list, err := h.Notifier.ListForRecipient(c.Request.Context(), id.UserID, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}
