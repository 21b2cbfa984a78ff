package cron

import (
	"context"
	"encoding/json"
	"time"

	"repairhub/config"
	"repairhub/services/dispatch"
	"repairhub/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt returns the asynq connection for the queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// OfferWorker runs the periodic sweep scheduler and the task server.
type OfferWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewOfferWorker wires the offer task handlers to engine.
func NewOfferWorker(engine dispatch.DispatchEngine, interval time.Duration, logger *zap.Logger) (*OfferWorker, error) {
	opt := RedisOpt()
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeOfferSweep, HandleSweepTask(engine, logger))
	mux.HandleFunc(tasks.TypeOfferExpiry, HandleExpiryTask(engine, logger))

	scheduler := asynq.NewScheduler(opt, nil)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if _, err := scheduler.Register("@every "+interval.String(), tasks.NewOfferSweepTask()); err != nil {
		return nil, err
	}
	return &OfferWorker{server: srv, scheduler: scheduler, mux: mux, logger: logger}, nil
}

// Start runs the worker in background, retrying startup with backoff.
func (w *OfferWorker) Start() {
	go func() {
		w.logger.Info("[OfferWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := w.server.Start(w.mux); err != nil {
				w.logger.Warn("[OfferWorker] Failed to start worker",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
				if attempts == maxAttempts {
					w.logger.Error("[OfferWorker] Max retry attempts reached, offers will only expire on access")
					return
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
				continue
			}
			break
		}
		if err := w.scheduler.Start(); err != nil {
			w.logger.Error("[OfferWorker] Failed to start sweep scheduler", zap.Error(err))
		}
	}()
}

func (w *OfferWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// HandleSweepTask runs one expiry sweep.
func HandleSweepTask(engine dispatch.DispatchEngine, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		report, err := engine.SweepExpired(ctx)
		if err != nil {
			logger.Error("[OfferSweep] Sweep failed", zap.Error(err))
			return err
		}
		if report.Expired > 0 {
			logger.Info("[OfferSweep] Expired offers processed",
				zap.Int("expired", report.Expired),
				zap.Int("forwarded", report.Forwarded),
				zap.Int("exhausted", report.Exhausted))
		}
		return nil
	}
}

// HandleExpiryTask fires after a single offer's window; a sweep covers it and any stragglers.
func HandleExpiryTask(engine dispatch.DispatchEngine, logger *zap.Logger) asynq.HandlerFunc {
	sweep := HandleSweepTask(engine, logger)
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.OfferExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Warn("[OfferExpiry] Invalid payload", zap.Error(err))
			return nil
		}
		logger.Debug("[OfferExpiry] Checking offer", zap.String("offerID", p.OfferID), zap.String("bookingID", p.BookingID))
		return sweep(ctx, task)
	}
}
