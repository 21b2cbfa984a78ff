package routes

import (
	"net/http"
	"time"

	"repairhub/handlers"
	"repairhub/middleware"
	"repairhub/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers booking intake and lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	api.Use(middleware.JWTAuthMiddleware(hb.TechnicianRepo, hb.AuthCache))
	{
		api.POST("", middleware.RequireRole(utils.RoleCustomer), hb.CreateBookingHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.POST("/:id/dispatch", middleware.RequireRole(utils.RoleAdmin), hb.DispatchBookingHandler)
		api.POST("/:id/rate", middleware.RequireRole(utils.RoleCustomer), hb.RateBookingHandler)

		technician := api.Group("")
		technician.Use(middleware.RequireRole(utils.RoleTechnician))
		technician.POST("/:id/start", hb.StartJobHandler)
		technician.POST("/:id/complete", hb.CompleteBookingHandler)
		technician.POST("/:id/cancel", hb.CancelBookingHandler)
	}
}

// RegisterJobRoutes registers offer response endpoints.
func RegisterJobRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/jobs")
	api.Use(middleware.JWTAuthMiddleware(hb.TechnicianRepo, hb.AuthCache), middleware.RequireRole(utils.RoleTechnician))
	{
		api.POST("/:offerId/accept", hb.AcceptJobHandler)
		api.POST("/:offerId/reject", hb.RejectJobHandler)
	}
}

// RegisterTechnicianRoutes registers the technician self-service endpoints.
func RegisterTechnicianRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/technicians")
	api.Use(middleware.JWTAuthMiddleware(hb.TechnicianRepo, hb.AuthCache), middleware.RequireRole(utils.RoleTechnician))
	{
		api.GET("/available-jobs", hb.AvailableJobsHandler)
		api.POST("/availability/toggle", hb.ToggleAvailabilityHandler)
		api.GET("/earnings", hb.EarningsHandler)
	}
}

// RegisterNotificationRoutes registers the notification inbox.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	api.Use(middleware.JWTAuthMiddleware(hb.TechnicianRepo, hb.AuthCache))
	api.GET("", hb.ListNotificationsHandler)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthMiddleware(hb.TechnicianRepo, hb.AuthCache), middleware.RequireRole(utils.RoleAdmin))
		adminGroup.GET("/settings/commission", hb.GetCommissionHandler)
		adminGroup.PUT("/settings/commission", hb.UpdateCommissionHandler)
		adminGroup.POST("/offers/sweep", hb.SweepOffersHandler)
	}
}

// RegisterHealthRoute registers health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		healthy := status.Mongo
		for _, ok := range status.Redis {
			healthy = healthy && ok
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": healthy, "checks": status})
	})
	if hb.MetricsHandler != nil {
		r.GET("/metrics", hb.MetricsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterJobRoutes(r, hb)
	RegisterTechnicianRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
