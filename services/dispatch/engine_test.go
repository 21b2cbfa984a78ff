package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"repairhub/models"
	"repairhub/services/dispatch"
	"repairhub/services/offer"
	"repairhub/services/settlement"
	"repairhub/services/technician"
	"repairhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func techID(id string) models.Identity {
	return models.Identity{UserID: id, Role: "technician"}
}

// recordingDirectory keeps the exclusion list of every candidate query.
type recordingDirectory struct {
	technician.DirectoryService
	mu       sync.Mutex
	excludes [][]string
}

func (d *recordingDirectory) FindCandidates(ctx context.Context, serviceType string, excludeIDs []string, location *models.GeoPoint) ([]models.Technician, error) {
	d.mu.Lock()
	d.excludes = append(d.excludes, append([]string(nil), excludeIDs...))
	d.mu.Unlock()
	return d.DirectoryService.FindCandidates(ctx, serviceType, excludeIDs, location)
}

type recordingExpiry struct {
	mu      sync.Mutex
	offered []string
}

func (r *recordingExpiry) ScheduleExpiry(ctx context.Context, o *models.JobOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offered = append(r.offered, o.ID)
	return nil
}

func pendingOffer(t *testing.T, h *testutil.Harness, bookingID string) models.JobOffer {
	t.Helper()
	for _, o := range h.Offers.ForBooking(bookingID) {
		if o.Status == models.OfferStatusPending {
			return o
		}
	}
	t.Fatalf("booking %s has no pending offer", bookingID)
	return models.JobOffer{}
}

func TestScenario_AcceptAndComplete(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 4.5, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Offer)
	assert.False(t, outcome.Exhausted)
	assert.Equal(t, "t1", outcome.Offer.TechnicianID)
	assert.Equal(t, 300.0, outcome.Offer.AdminCommission)
	assert.Equal(t, 700.0, outcome.Offer.TechnicianEarnings)

	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchOfferPending, b.DispatchState)
	assert.Equal(t, outcome.Offer.ID, b.CurrentOfferID)
	assert.Equal(t, 1, b.DispatchAttempts)
	assert.Contains(t, h.Notifications.Types("t1"), models.NotifyJobOffer)

	res, err := h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, res.Offer.Status)
	assert.False(t, res.ForwardedToNextTechnician)

	b, _ = h.Bookings.Get("b1")
	assert.Equal(t, models.BookingStatusAssigned, b.Status)
	assert.Equal(t, "t1", b.TechnicianID)
	assert.Equal(t, models.DispatchAssigned, b.DispatchState)
	require.NotNil(t, b.AssignedAt)
	tech, _ := h.Technicians.Get("t1")
	assert.Equal(t, models.TechnicianBusy, tech.Status)
	assert.Contains(t, h.Notifications.Types("c1"), models.NotifyJobAssigned)

	earnings, err := h.Settlement.CompleteBooking(ctx, "b1", "t1", "replaced valve")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, earnings.TotalAmount)
	assert.Equal(t, 300.0, earnings.AdminCommission)
	assert.Equal(t, 700.0, earnings.TechnicianEarnings)
	assert.Equal(t, models.PayoutStatusPending, earnings.PayoutStatus)

	b, _ = h.Bookings.Get("b1")
	assert.Equal(t, models.BookingStatusCompleted, b.Status)
	require.NotNil(t, b.Earnings)
	assert.Equal(t, 700.0, b.Earnings.TechnicianEarnings)
	tech, _ = h.Technicians.Get("t1")
	assert.Equal(t, models.TechnicianActive, tech.Status)
	assert.Equal(t, 1, tech.CompletedJobs)
}

func TestScenario_RejectThenExpiryThenAccept(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")
	h.AddTechnician("t3", 3, "Plumbing")

	first, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "t1", first.Offer.TechnicianID)

	res, err := h.Engine.Respond(ctx, techID("t1"), first.Offer.ID, models.DecisionReject, "too far")
	require.NoError(t, err)
	assert.True(t, res.ForwardedToNextTechnician)
	assert.Equal(t, "too far", res.Offer.RejectReason)

	second := pendingOffer(t, h, "b1")
	assert.Equal(t, "t2", second.TechnicianID)
	assert.Equal(t, []string{"t1"}, second.PreviousDeclines)

	h.Clock.Advance(offer.DefaultWindow + time.Second)
	report, err := h.Engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.SweepReport{Expired: 1, Forwarded: 1}, *report)

	expired, _ := h.Offers.Get(second.ID)
	assert.Equal(t, models.OfferStatusExpired, expired.Status)
	assert.Contains(t, h.Notifications.Types("t2"), models.NotifyOfferExpired)

	third := pendingOffer(t, h, "b1")
	assert.Equal(t, "t3", third.TechnicianID)
	assert.ElementsMatch(t, []string{"t1", "t2"}, third.PreviousDeclines)

	_, err = h.Engine.Respond(ctx, techID("t3"), third.ID, models.DecisionAccept, "")
	require.NoError(t, err)
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, "t3", b.TechnicianID)
	assert.Equal(t, models.BookingStatusAssigned, b.Status)
}

func TestScenario_NoMatchingTechnician(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Roofing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, outcome.Exhausted)
	assert.Nil(t, outcome.Offer)

	b, _ := h.Bookings.Get("b1")
	assert.True(t, b.NoTechnicianAvailable)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.DispatchExhausted, b.DispatchState)
	assert.Empty(t, h.Offers.ForBooking("b1"))
	assert.Contains(t, h.Notifications.Types("c1"), models.NotifyNoTechnician)

	// An exhausted booking can be dispatched again once someone qualifies.
	h.AddTechnician("t2", 4, "Roofing")
	outcome, err = h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Offer)
	b, _ = h.Bookings.Get("b1")
	assert.False(t, b.NoTechnicianAvailable)
}

func TestScenario_CancelDoesNotRedispatch(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	require.NoError(t, err)

	cancelled, err := h.Settlement.CancelAssigned(ctx, "b1", "t1", "customer unreachable")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "customer unreachable", cancelled.CancelReason)

	tech, _ := h.Technicians.Get("t1")
	assert.Equal(t, models.TechnicianActive, tech.Status)
	assert.Equal(t, 0, tech.CompletedJobs)
	assert.Len(t, h.Offers.ForBooking("b1"), 1)

	_, err = h.Engine.Dispatch(ctx, "b1")
	assert.ErrorIs(t, err, settlement.ErrInvalidState)
}

func TestDeclinersNeverReoffered(t *testing.T) {
	h := testutil.NewHarness()
	rec := &recordingDirectory{DirectoryService: h.Directory}
	h.Engine.Directory = rec

	const n = 4
	h.AddBooking("b1", "c1", "Electrical", 2000)
	for i, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		h.AddTechnician(id, float64(5-i), "Electrical")
	}

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	current := *outcome.Offer
	declined := map[string]bool{}

	for i := 1; i <= n; i++ {
		res, err := h.Engine.Respond(ctx, techID(current.TechnicianID), current.ID, models.DecisionReject, "busy")
		require.NoError(t, err)
		require.True(t, res.ForwardedToNextTechnician)
		declined[current.TechnicianID] = true

		latest := rec.excludes[len(rec.excludes)-1]
		assert.Len(t, latest, i)
		current = pendingOffer(t, h, "b1")
		assert.False(t, declined[current.TechnicianID], "offer %d went to decliner %s", i, current.TechnicianID)
	}
	assert.Equal(t, "t5", current.TechnicianID)
	assert.Len(t, h.Offers.ForBooking("b1"), n+1)
}

func TestLastDeclineExhaustsBooking(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionReject, "")
	require.NoError(t, err)

	second := pendingOffer(t, h, "b1")
	res, err := h.Engine.Respond(ctx, techID("t2"), second.ID, models.DecisionReject, "")
	require.NoError(t, err)
	assert.False(t, res.ForwardedToNextTechnician)

	b, _ := h.Bookings.Get("b1")
	assert.True(t, b.NoTechnicianAvailable)
	assert.Equal(t, models.DispatchExhausted, b.DispatchState)
	assert.Len(t, h.Offers.ForBooking("b1"), 2)
	for _, o := range h.Offers.ForBooking("b1") {
		assert.Equal(t, models.OfferStatusRejected, o.Status)
	}
}

func TestConcurrentAcceptsAssignOnce(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t, errors.Is(err, offer.ErrOfferNotFound) || errors.Is(err, offer.ErrAlreadyProcessed), "unexpected error %v", err)
	}
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, "t1", b.TechnicianID)
	assert.Equal(t, models.BookingStatusAssigned, b.Status)
}

func TestConcurrentDispatchCreatesOneOffer(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Engine.Dispatch(ctx, "b1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, dispatch.ErrDispatchAlreadyInProgress)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, h.Offers.ForBooking("b1"), 1)
}

func TestAccept_TechnicianNoLongerAvailable(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	tech := h.AddTechnician("t1", 5, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	tech.Status = models.TechnicianBusy
	h.Technicians.Put(tech)

	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	assert.ErrorIs(t, err, settlement.ErrTechnicianUnavailable)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusPending, stored.Status)
	b, _ := h.Bookings.Get("b1")
	assert.Empty(t, b.TechnicianID)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, 1, h.Tx.Rollbacks)
}

func TestAccept_ExpiredOfferMovesOn(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	h.Clock.Advance(offer.DefaultWindow + time.Millisecond)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	assert.ErrorIs(t, err, offer.ErrOfferExpired)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusExpired, stored.Status)
	next := pendingOffer(t, h, "b1")
	assert.Equal(t, "t2", next.TechnicianID)
	b, _ := h.Bookings.Get("b1")
	assert.Empty(t, b.TechnicianID)
}

func TestDispatch_Preconditions(t *testing.T) {
	h := testutil.NewHarness()
	h.AddTechnician("t1", 5, "Plumbing")

	_, err := h.Engine.Dispatch(ctx, "missing")
	assert.ErrorIs(t, err, settlement.ErrBookingNotFound)

	h.AddBooking("b1", "c1", "Plumbing", 1000)
	_, err = h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	_, err = h.Engine.Dispatch(ctx, "b1")
	assert.ErrorIs(t, err, dispatch.ErrDispatchAlreadyInProgress)

	done := h.AddBooking("b2", "c1", "Plumbing", 1000)
	done.Status = models.BookingStatusCompleted
	h.Bookings.Put(done)
	_, err = h.Engine.Dispatch(ctx, "b2")
	assert.ErrorIs(t, err, settlement.ErrInvalidState)
}

func TestDispatch_DirectoryFailureReleasesClaim(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")

	boom := errors.New("directory unavailable")
	h.Technicians.FailNext("FindCandidates", boom)
	_, err := h.Engine.Dispatch(ctx, "b1")
	assert.ErrorIs(t, err, boom)

	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchIdle, b.DispatchState)
	assert.False(t, b.NoTechnicianAvailable)
	assert.Empty(t, h.Offers.ForBooking("b1"))

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	assert.NotNil(t, outcome.Offer)
}

func TestDispatch_OfferWriteFailureRollsBack(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")

	boom := errors.New("write timeout")
	h.Bookings.FailNext("SetOfferPending", boom)
	_, err := h.Engine.Dispatch(ctx, "b1")
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, h.Offers.ForBooking("b1"))
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchIdle, b.DispatchState)
}

func TestNotificationFailureDoesNotBlockAccept(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	h.Messenger.Err = errors.New("fcm unavailable")
	h.Notifications.FailNext("Insert", errors.New("insert failed"))

	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	require.NoError(t, err)
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.BookingStatusAssigned, b.Status)
}

func TestAvailableJobs(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	jobs, err := h.Engine.AvailableJobs(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, outcome.Offer.ID, jobs[0].OfferID)
	assert.Equal(t, 700.0, jobs[0].TechnicianEarnings)
	assert.Equal(t, "b1", jobs[0].Booking.ID)
	assert.Equal(t, "Moi Avenue, Nairobi", jobs[0].Booking.Address)

	jobs, err = h.Engine.AvailableJobs(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, jobs)

	h.Clock.Advance(offer.DefaultWindow + time.Second)
	jobs, err = h.Engine.AvailableJobs(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestExpirySchedulerReceivesEveryOffer(t *testing.T) {
	h := testutil.NewHarness()
	rec := &recordingExpiry{}
	h.Engine.Expiry = rec
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionReject, "")
	require.NoError(t, err)

	assert.Len(t, rec.offered, 2)
	assert.Equal(t, outcome.Offer.ID, rec.offered[0])
}

func TestRespond_InvalidDecision(t *testing.T) {
	h := testutil.NewHarness()
	_, err := h.Engine.Respond(ctx, techID("t1"), "o1", models.Decision("later"), "")
	assert.ErrorIs(t, err, offer.ErrInvalidDecision)
}

func TestDeclines(t *testing.T) {
	got := dispatch.Declines(&models.JobOffer{TechnicianID: "t2", PreviousDeclines: []string{"t1", "t2", "t1"}})
	assert.Equal(t, []string{"t1", "t2"}, got)

	got = dispatch.Declines(&models.JobOffer{TechnicianID: "t1"})
	assert.Equal(t, []string{"t1"}, got)
}

func TestReject_ResumeFailureKeepsOfferPending(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	boom := errors.New("mongo down")
	h.Bookings.FailNext("ResumeDispatch", boom)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionReject, "")
	assert.ErrorIs(t, err, boom)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusPending, stored.Status)
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchOfferPending, b.DispatchState)
	assert.Equal(t, outcome.Offer.ID, b.CurrentOfferID)

	res, err := h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionReject, "")
	require.NoError(t, err)
	assert.True(t, res.ForwardedToNextTechnician)
	assert.Equal(t, "t2", pendingOffer(t, h, "b1").TechnicianID)
}

func TestReject_DirectoryFailureKeepsDeclines(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)

	boom := errors.New("directory query failed")
	h.Technicians.FailNext("FindCandidates", boom)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionReject, "")
	assert.ErrorIs(t, err, boom)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusRejected, stored.Status)
	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchIdle, b.DispatchState)

	again, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, again.Offer)
	assert.Equal(t, "t2", again.Offer.TechnicianID)
	assert.Equal(t, []string{"t1"}, again.Offer.PreviousDeclines)
}

func TestSweep_ResumeFailureRetriesOnNextSweep(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	h.Clock.Advance(offer.DefaultWindow + time.Second)

	boom := errors.New("mongo down")
	h.Bookings.FailNext("ResumeDispatch", boom)
	report, err := h.Engine.SweepExpired(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, dispatch.SweepReport{}, *report)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusPending, stored.Status)

	report, err = h.Engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.SweepReport{Expired: 1, Forwarded: 1}, *report)
	assert.Equal(t, "t2", pendingOffer(t, h, "b1").TechnicianID)
}

func TestSweep_DirectoryFailureLeavesBookingRedispatchable(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")
	h.AddTechnician("t2", 4, "Plumbing")

	_, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	h.Clock.Advance(offer.DefaultWindow + time.Second)

	h.Technicians.FailNext("FindCandidates", errors.New("directory query failed"))
	report, err := h.Engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.SweepReport{Expired: 1}, *report)

	b, _ := h.Bookings.Get("b1")
	assert.Equal(t, models.DispatchIdle, b.DispatchState)

	again, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, again.Offer)
	assert.Equal(t, "t2", again.Offer.TechnicianID)
}

func TestAccept_ExpiredResumeFailureKeepsOfferPending(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)
	h.AddTechnician("t1", 5, "Plumbing")

	outcome, err := h.Engine.Dispatch(ctx, "b1")
	require.NoError(t, err)
	h.Clock.Advance(offer.DefaultWindow + time.Second)

	boom := errors.New("mongo down")
	h.Bookings.FailNext("ResumeDispatch", boom)
	_, err = h.Engine.Respond(ctx, techID("t1"), outcome.Offer.ID, models.DecisionAccept, "")
	assert.ErrorIs(t, err, boom)

	stored, _ := h.Offers.Get(outcome.Offer.ID)
	assert.Equal(t, models.OfferStatusPending, stored.Status)

	report, err := h.Engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.SweepReport{Expired: 1, Exhausted: 1}, *report)
}
