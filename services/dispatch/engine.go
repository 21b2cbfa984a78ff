package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"repairhub/database"
	bookingRepo "repairhub/database/repository/booking"
	"repairhub/models"
	"repairhub/services/metrics"
	"repairhub/services/notification"
	"repairhub/services/offer"
	"repairhub/services/settlement"
	"repairhub/services/tasks"
	"repairhub/services/technician"
	"repairhub/utils"

	"go.uber.org/zap"
)

var ErrDispatchAlreadyInProgress = utils.NewAppError("dispatchAlreadyInProgress", "Booking is already being dispatched", http.StatusConflict)

// Outcome describes where one dispatch step left a booking.
type Outcome struct {
	BookingID string           `json:"bookingId"`
	Offer     *models.JobOffer `json:"offer,omitempty"`
	Exhausted bool             `json:"noTechnicianAvailable"`
}

// SweepReport summarises one expiry sweep.
type SweepReport struct {
	Expired   int `json:"expired"`
	Forwarded int `json:"forwarded"`
	Exhausted int `json:"exhausted"`
}

// DispatchEngine drives a booking from its first offer to assignment or exhaustion.
type DispatchEngine interface {
	Dispatch(ctx context.Context, bookingID string) (*Outcome, error)
	Respond(ctx context.Context, caller models.Identity, offerID string, decision models.Decision, reason string) (*models.RespondResult, error)
	SweepExpired(ctx context.Context) (*SweepReport, error)
	AvailableJobs(ctx context.Context, technicianID string) ([]models.AvailableJob, error)
}

type DefaultDispatchEngine struct {
	Bookings   bookingRepo.BookingRepository
	Directory  technician.DirectoryService
	Offers     offer.OfferStore
	Settlement settlement.SettlementService
	Notifier   notification.NotificationService
	// Expiry is optional; without it offers expire on access or by periodic sweep.
	Expiry     tasks.ExpiryScheduler
	Tx         database.TxRunner
	Metrics    *metrics.DispatchMetrics
	Logger     *zap.Logger
	Now        func() time.Time
}

func (e *DefaultDispatchEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *DefaultDispatchEngine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return utils.GetLogger()
}

// Dispatch starts offering a pending booking to technicians.
func (e *DefaultDispatchEngine) Dispatch(ctx context.Context, bookingID string) (*Outcome, error) {
	b, err := e.Bookings.ClaimDispatch(ctx, bookingID, e.now())
	if errors.Is(err, database.ErrConflict) {
		return nil, e.diagnoseClaim(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}
	// Everyone who declined this booking before stays excluded, even when an
	// earlier cascade handed the claim back.
	declines, err := e.Offers.Declined(ctx, b.ID)
	if err != nil {
		e.release(ctx, b.ID)
		return nil, err
	}
	return e.offerNext(ctx, b, declines)
}

func (e *DefaultDispatchEngine) diagnoseClaim(ctx context.Context, bookingID string) error {
	b, err := e.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return settlement.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if !b.Dispatchable() {
		return settlement.ErrInvalidState
	}
	return ErrDispatchAlreadyInProgress
}

// offerNext runs one step on a booking already claimed for searching.
// Any dependency failure hands the claim back before returning.
func (e *DefaultDispatchEngine) offerNext(ctx context.Context, b *models.Booking, declines []string) (*Outcome, error) {
	log := e.logger().With(zap.String("bookingID", b.ID))

	candidates, err := e.Directory.FindCandidates(ctx, b.ServiceType, declines, b.Location)
	if err != nil {
		e.release(ctx, b.ID)
		return nil, err
	}

	if len(candidates) == 0 {
		if err := e.Bookings.MarkExhausted(ctx, b.ID, e.now()); err != nil {
			e.release(ctx, b.ID)
			return nil, err
		}
		log.Info("No technician available", zap.Int("declines", len(declines)))
		e.Metrics.Exhausted()
		notification.Deliver(ctx, e.Notifier, log, models.Notification{
			RecipientID:   b.CustomerID,
			RecipientRole: notification.RoleCustomer,
			Type:          models.NotifyNoTechnician,
			Title:         "Still looking for a technician",
			Message:       "No technician is available for your booking " + b.Reference + " right now. We will keep you updated.",
			Data:          map[string]string{"bookingId": b.ID},
		})
		return &Outcome{BookingID: b.ID, Exhausted: true}, nil
	}

	chosen := candidates[0]
	var created *models.JobOffer
	err = e.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		created = nil
		o, err := e.Offers.CreateOffer(ctx, b, &chosen, declines)
		if err != nil {
			return err
		}
		if err := e.Bookings.SetOfferPending(ctx, b.ID, o.ID, e.now()); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		e.release(ctx, b.ID)
		return nil, err
	}

	log.Info("Job offer created",
		zap.String("offerID", created.ID),
		zap.String("technicianID", chosen.ID),
		zap.Time("expiresAt", created.ExpiresAt))
	e.Metrics.OfferOutcome(metrics.OutcomeCreated)
	if e.Expiry != nil {
		if err := e.Expiry.ScheduleExpiry(ctx, created); err != nil {
			log.Warn("Failed to schedule offer expiry check", zap.Error(err))
		}
	}
	notification.Deliver(ctx, e.Notifier, log, offerNotification(b, created))
	return &Outcome{BookingID: b.ID, Offer: created}, nil
}

func (e *DefaultDispatchEngine) release(ctx context.Context, bookingID string) {
	if err := e.Bookings.ReleaseDispatch(context.WithoutCancel(ctx), bookingID, e.now()); err != nil {
		e.logger().Error("Failed to release dispatch claim", zap.String("bookingID", bookingID), zap.Error(err))
	}
}

// resume returns a booking waiting on ended to searching. It returns nil
// when the booking has already moved on through another path.
func (e *DefaultDispatchEngine) resume(ctx context.Context, ended *models.JobOffer) (*models.Booking, error) {
	b, err := e.Bookings.ResumeDispatch(ctx, ended.BookingID, ended.ID, e.now())
	if errors.Is(err, database.ErrConflict) {
		return nil, nil
	}
	return b, err
}

// endOffer commits an offer's end and the booking's return to searching in
// one transaction. end may return a nil offer when there is nothing to close.
func (e *DefaultDispatchEngine) endOffer(ctx context.Context, end func(ctx context.Context) (*models.JobOffer, error)) (ended *models.JobOffer, resumed *models.Booking, err error) {
	err = e.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		ended, resumed = nil, nil
		o, err := end(ctx)
		if err != nil || o == nil {
			return err
		}
		b, err := e.resume(ctx, o)
		if err != nil {
			return err
		}
		ended, resumed = o, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ended, resumed, nil
}

// moveOn offers a resumed booking to the next technician.
func (e *DefaultDispatchEngine) moveOn(ctx context.Context, ended *models.JobOffer, resumed *models.Booking) (*Outcome, error) {
	if resumed == nil {
		e.logger().Info("Booking no longer waiting on offer, skipping cascade",
			zap.String("bookingID", ended.BookingID), zap.String("offerID", ended.ID))
		return nil, nil
	}
	return e.offerNext(ctx, resumed, Declines(ended))
}

// Declines is the exclusion list for the offer after ended.
func Declines(ended *models.JobOffer) []string {
	out := make([]string, 0, len(ended.PreviousDeclines)+1)
	seen := make(map[string]bool, len(ended.PreviousDeclines)+1)
	for _, id := range append(append([]string{}, ended.PreviousDeclines...), ended.TechnicianID) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func offerNotification(b *models.Booking, o *models.JobOffer) models.Notification {
	return models.Notification{
		RecipientID:   o.TechnicianID,
		RecipientRole: notification.RoleTechnician,
		Type:          models.NotifyJobOffer,
		Title:         "New job offer",
		Message:       b.ServiceType + " job at " + b.Address + ". Respond before " + o.ExpiresAt.Format(time.Kitchen) + ".",
		Data: map[string]string{
			"offerId":   o.ID,
			"bookingId": b.ID,
			"expiresAt": o.ExpiresAt.Format(time.RFC3339),
		},
	}
}
