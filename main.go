// File: repairhub/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairhub/config"
	"repairhub/cron"
	"repairhub/database"
	"repairhub/database/repository"
	"repairhub/handlers"
	"repairhub/middleware"
	"repairhub/routes"
	"repairhub/services/booking"
	"repairhub/services/commission"
	"repairhub/services/dispatch"
	"repairhub/services/metrics"
	"repairhub/services/notification"
	"repairhub/services/offer"
	"repairhub/services/settlement"
	"repairhub/services/tasks"
	"repairhub/services/technician"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAuthCache()
	utils.InitCache()
	if err := utils.FirebaseInit(); err != nil {
		logger.Warn("main: push notifications disabled", zap.Error(err))
	}

	dispatchMetrics, err := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to register metrics: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// repositories.
	repos := repository.NewMongoRepositories(database.DB())
	tx := database.NewMongoTxRunner(database.MongoClient)

	// services.
	fallbackPct := config.AppConfig.DefaultCommissionPercent
	commissionService := &commission.DefaultCommissionService{
		Repo:     repos.Settings,
		Fallback: &fallbackPct,
		Logger:   logger,
	}

	notificationService := &notification.DefaultNotificationService{
		Repo:        repos.Notifications,
		Technicians: repos.Technicians,
		AdminTopic:  config.AppConfig.AdminNotificationTopic,
		Metrics:     dispatchMetrics,
		Logger:      logger,
	}
	if utils.FCMClient != nil {
		notificationService.Messenger = utils.FCMClient
	}

	directoryService := &technician.DefaultDirectoryService{
		Repo:   repos.Technicians,
		Logger: logger,
	}

	offerStore := &offer.DefaultOfferStore{
		Repo:       repos.Offers,
		Commission: commissionService,
		Window:     config.AppConfig.OfferWindow,
	}

	settlementService := &settlement.DefaultSettlementService{
		Bookings:    repos.Bookings,
		Technicians: repos.Technicians,
		Earnings:    repos.Earnings,
		Commission:  commissionService,
		Notifier:    notificationService,
		Tx:          tx,
		Metrics:     dispatchMetrics,
		Logger:      logger,
	}

	queueClient := asynq.NewClient(cron.RedisOpt())
	defer queueClient.Close()

	dispatchEngine := &dispatch.DefaultDispatchEngine{
		Bookings:   repos.Bookings,
		Directory:  directoryService,
		Offers:     offerStore,
		Settlement: settlementService,
		Notifier:   notificationService,
		Expiry:     &tasks.AsynqExpiryScheduler{Client: queueClient},
		Tx:         tx,
		Metrics:    dispatchMetrics,
		Logger:     logger,
	}

	bookingService := &booking.DefaultBookingService{
		Repo:        repos.Bookings,
		Dispatcher:  dispatchEngine,
		Idempotency: booking.NewRedisIdempotencyStore(utils.GetCacheClient()),
		Logger:      logger,
	}

	worker, err := cron.NewOfferWorker(dispatchEngine, config.AppConfig.OfferSweepInterval, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create offer worker: %v", err)
	}
	worker.Start()

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, []*redis.Client{utils.GetAuthCacheClient(), utils.GetCacheClient()}, database.MongoClient)

	bookingHandler := handlers.NewBookingHandler(bookingService, settlementService)
	jobsHandler := handlers.NewJobsHandler(dispatchEngine)
	technicianHandler := handlers.NewTechnicianHandler(dispatchEngine, directoryService, settlementService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(commissionService, dispatchEngine)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		TechnicianRepo: repos.Technicians,
		AuthCache:      utils.GetAuthCacheClient(),

		// Job offer endpoints.
		AcceptJobHandler: jobsHandler.AcceptJobHandler,
		RejectJobHandler: jobsHandler.RejectJobHandler,

		// Booking endpoints.
		CreateBookingHandler:   bookingHandler.CreateBookingHandler,
		GetBookingHandler:      bookingHandler.GetBookingHandler,
		DispatchBookingHandler: bookingHandler.DispatchBookingHandler,
		StartJobHandler:        bookingHandler.StartJobHandler,
		CompleteBookingHandler: bookingHandler.CompleteBookingHandler,
		CancelBookingHandler:   bookingHandler.CancelBookingHandler,
		RateBookingHandler:     bookingHandler.RateBookingHandler,

		// Technician endpoints.
		AvailableJobsHandler:      technicianHandler.AvailableJobsHandler,
		ToggleAvailabilityHandler: technicianHandler.ToggleAvailabilityHandler,
		EarningsHandler:           technicianHandler.EarningsHandler,

		ListNotificationsHandler: notificationHandler.ListNotificationsHandler,

		// Admin endpoints.
		GetCommissionHandler:    adminHandler.GetCommissionHandler,
		UpdateCommissionHandler: adminHandler.UpdateCommissionHandler,
		SweepOffersHandler:      adminHandler.SweepOffersHandler,

		MetricsHandler: metrics.Handler(prometheus.DefaultGatherer),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
