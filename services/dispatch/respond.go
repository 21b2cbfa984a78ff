package dispatch

import (
	"context"
	"errors"

	"repairhub/database"
	"repairhub/models"
	"repairhub/services/metrics"
	"repairhub/services/notification"
	"repairhub/services/offer"

	"go.uber.org/zap"
)

// Respond applies a technician's answer to an offer.
func (e *DefaultDispatchEngine) Respond(ctx context.Context, caller models.Identity, offerID string, decision models.Decision, reason string) (*models.RespondResult, error) {
	switch decision {
	case models.DecisionAccept:
		return e.accept(ctx, caller.UserID, offerID)
	case models.DecisionReject:
		return e.reject(ctx, caller.UserID, offerID, reason)
	default:
		return nil, offer.ErrInvalidDecision
	}
}

// accept commits the offer transition and the assignment together. When the
// window has closed the expiry is committed instead and ErrOfferExpired returned.
func (e *DefaultDispatchEngine) accept(ctx context.Context, technicianID, offerID string) (*models.RespondResult, error) {
	var (
		accepted *models.JobOffer
		expired  *models.JobOffer
		resumed  *models.Booking
		booking  *models.Booking
	)
	err := e.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		accepted, expired, resumed, booking = nil, nil, nil, nil

		o, err := e.Offers.Respond(ctx, offerID, technicianID, models.DecisionAccept, "")
		if errors.Is(err, offer.ErrOfferExpired) && o != nil {
			b, err := e.resume(ctx, o)
			if err != nil {
				return err
			}
			expired, resumed = o, b
			return nil
		}
		if err != nil {
			return err
		}
		b, err := e.Settlement.ApplyAssignment(ctx, o)
		if err != nil {
			return err
		}
		accepted, booking = o, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if accepted == nil {
		if expired != nil {
			e.afterExpiry(ctx, expired, resumed)
		}
		return nil, offer.ErrOfferExpired
	}

	e.logger().Info("Job offer accepted",
		zap.String("offerID", accepted.ID),
		zap.String("bookingID", accepted.BookingID),
		zap.String("technicianID", technicianID))
	e.Metrics.OfferOutcome(metrics.OutcomeAccepted)
	e.Settlement.AnnounceAssignment(ctx, booking)
	return &models.RespondResult{Offer: accepted}, nil
}

// reject commits the rejection together with the booking's return to
// searching, then offers the booking to the next technician.
func (e *DefaultDispatchEngine) reject(ctx context.Context, technicianID, offerID, reason string) (*models.RespondResult, error) {
	var expiredNow bool
	o, resumed, err := e.endOffer(ctx, func(ctx context.Context) (*models.JobOffer, error) {
		expiredNow = false
		o, err := e.Offers.Respond(ctx, offerID, technicianID, models.DecisionReject, reason)
		if errors.Is(err, offer.ErrOfferExpired) && o != nil {
			expiredNow = true
			return o, nil
		}
		return o, err
	})
	if err != nil {
		return nil, err
	}
	if expiredNow {
		e.afterExpiry(ctx, o, resumed)
		return nil, offer.ErrOfferExpired
	}

	e.logger().Info("Job offer rejected",
		zap.String("offerID", o.ID),
		zap.String("bookingID", o.BookingID),
		zap.String("technicianID", technicianID),
		zap.String("reason", reason))
	e.Metrics.OfferOutcome(metrics.OutcomeRejected)

	outcome, err := e.moveOn(ctx, o, resumed)
	if err != nil {
		return nil, err
	}
	return &models.RespondResult{
		Offer:                     o,
		ForwardedToNextTechnician: outcome != nil && outcome.Offer != nil,
	}, nil
}

// afterExpiry tells the technician and moves the booking on. Failures are
// logged: the expiry itself is already committed, and a failed step leaves
// the booking idle for redispatch.
func (e *DefaultDispatchEngine) afterExpiry(ctx context.Context, o *models.JobOffer, resumed *models.Booking) *Outcome {
	log := e.logger().With(zap.String("offerID", o.ID), zap.String("bookingID", o.BookingID))
	log.Info("Job offer expired", zap.String("technicianID", o.TechnicianID))
	e.Metrics.OfferOutcome(metrics.OutcomeExpired)

	notification.Deliver(ctx, e.Notifier, log, models.Notification{
		RecipientID:   o.TechnicianID,
		RecipientRole: notification.RoleTechnician,
		Type:          models.NotifyOfferExpired,
		Title:         "Job offer expired",
		Message:       "The job offer has expired and was passed to another technician.",
		Data:          map[string]string{"offerId": o.ID, "bookingId": o.BookingID},
	})

	outcome, err := e.moveOn(ctx, o, resumed)
	if err != nil {
		log.Error("Cascade after expiry failed", zap.Error(err))
		return nil
	}
	return outcome
}

// SweepExpired expires overdue offers one at a time and moves each affected
// booking on. An offer that cannot be closed stays pending for the next sweep.
func (e *DefaultDispatchEngine) SweepExpired(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}
	overdue, err := e.Offers.Overdue(ctx)
	if err != nil {
		return report, err
	}

	var firstErr error
	for i := range overdue {
		id := overdue[i].ID
		ended, resumed, err := e.endOffer(ctx, func(ctx context.Context) (*models.JobOffer, error) {
			o, err := e.Offers.Expire(ctx, id)
			if errors.Is(err, offer.ErrAlreadyProcessed) {
				return nil, nil
			}
			return o, err
		})
		if err != nil {
			e.logger().Error("Failed to expire offer", zap.String("offerID", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ended == nil {
			continue
		}

		report.Expired++
		outcome := e.afterExpiry(ctx, ended, resumed)
		if outcome == nil {
			continue
		}
		if outcome.Offer != nil {
			report.Forwarded++
		}
		if outcome.Exhausted {
			report.Exhausted++
		}
	}
	return report, firstErr
}

// AvailableJobs lists the caller's open offers with booking details.
func (e *DefaultDispatchEngine) AvailableJobs(ctx context.Context, technicianID string) ([]models.AvailableJob, error) {
	offers, err := e.Offers.PendingForTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	jobs := make([]models.AvailableJob, 0, len(offers))
	for _, o := range offers {
		b, err := e.Bookings.GetByID(ctx, o.BookingID)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, models.AvailableJob{
			OfferID:            o.ID,
			ExpiresAt:          o.ExpiresAt,
			TechnicianEarnings: o.TechnicianEarnings,
			Booking:            b.Summary(),
		})
	}
	return jobs, nil
}
