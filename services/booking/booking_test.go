package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"repairhub/models"
	"repairhub/services/booking"
	"repairhub/services/commission"
	"repairhub/services/settlement"
	"repairhub/testutil"
	"repairhub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ctx      = context.Background()
	customer = models.Identity{UserID: "c1", Role: utils.RoleCustomer}
)

func request() models.BookingRequest {
	lat, lng := -1.2921, 36.8219
	return models.BookingRequest{
		CustomerName: "Wanjiku",
		ServiceType:  " Plumbing ",
		ScheduledAt:  testutil.Epoch.Add(48 * time.Hour),
		Address:      "Kenyatta Avenue",
		Latitude:     &lat,
		Longitude:    &lng,
		Amount:       1500,
	}
}

func TestCreateBooking_DispatchesImmediately(t *testing.T) {
	h := testutil.NewHarness()
	h.AddTechnician("t1", 4, "plumbing")

	res, err := h.Booking.CreateBooking(ctx, customer, request(), "")
	require.NoError(t, err)
	require.NotNil(t, res.Dispatch)
	require.NotNil(t, res.Dispatch.Offer)
	assert.False(t, res.Replayed)

	b := res.Booking
	assert.Equal(t, "BK-000001", b.Reference)
	assert.Equal(t, "Plumbing", b.ServiceType)
	assert.Equal(t, "KES", b.Currency)
	assert.Equal(t, "cash", b.PaymentMethod)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.DispatchOfferPending, b.DispatchState)
	require.True(t, b.Location.Valid())
	assert.Equal(t, 36.8219, b.Location.Lng())
	assert.Equal(t, "t1", res.Dispatch.Offer.TechnicianID)
}

func TestCreateBooking_NoTechnicianStillCreates(t *testing.T) {
	h := testutil.NewHarness()
	res, err := h.Booking.CreateBooking(ctx, customer, request(), "")
	require.NoError(t, err)
	assert.True(t, res.Dispatch.Exhausted)
	assert.True(t, res.Booking.NoTechnicianAvailable)
}

func TestCreateBooking_DispatchFailureKeepsBooking(t *testing.T) {
	h := testutil.NewHarness()
	h.Technicians.FailNext("FindCandidates", errors.New("timeout"))

	res, err := h.Booking.CreateBooking(ctx, customer, request(), "")
	require.NoError(t, err)
	assert.Nil(t, res.Dispatch)
	_, ok := h.Bookings.Get(res.Booking.ID)
	assert.True(t, ok)
}

func TestCreateBooking_Validation(t *testing.T) {
	h := testutil.NewHarness()

	req := request()
	req.Amount = 0
	_, err := h.Booking.CreateBooking(ctx, customer, req, "")
	assert.ErrorIs(t, err, commission.ErrInvalidAmount)

	req = request()
	req.Longitude = nil
	_, err = h.Booking.CreateBooking(ctx, customer, req, "")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	req = request()
	bad := 91.0
	req.Latitude = &bad
	_, err = h.Booking.CreateBooking(ctx, customer, req, "")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	req = request()
	req.ServiceType = "   "
	_, err = h.Booking.CreateBooking(ctx, customer, req, "")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestCreateBooking_IdempotencyKey(t *testing.T) {
	h := testutil.NewHarness()
	h.AddTechnician("t1", 4, "Plumbing")

	first, err := h.Booking.CreateBooking(ctx, customer, request(), "key-1")
	require.NoError(t, err)
	second, err := h.Booking.CreateBooking(ctx, customer, request(), "key-1")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Nil(t, second.Dispatch)
	assert.Len(t, h.Offers.ForBooking(first.Booking.ID), 1)

	other := models.Identity{UserID: "c2", Role: utils.RoleCustomer}
	third, err := h.Booking.CreateBooking(ctx, other, request(), "key-1")
	require.NoError(t, err)
	assert.False(t, third.Replayed)
	assert.NotEqual(t, first.Booking.ID, third.Booking.ID)
}

func TestCreateBooking_FailedCreateFreesKey(t *testing.T) {
	h := testutil.NewHarness()
	h.Bookings.FailNext("Create", errors.New("disk full"))

	_, err := h.Booking.CreateBooking(ctx, customer, request(), "key-1")
	require.Error(t, err)

	res, err := h.Booking.CreateBooking(ctx, customer, request(), "key-1")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

func TestGetBooking_Access(t *testing.T) {
	h := testutil.NewHarness()
	b := h.AddBooking("b1", "c1", "Plumbing", 1000)
	b.TechnicianID = "t1"
	h.Bookings.Put(b)

	cases := []struct {
		caller models.Identity
		err    error
	}{
		{models.Identity{UserID: "c1", Role: utils.RoleCustomer}, nil},
		{models.Identity{UserID: "c2", Role: utils.RoleCustomer}, settlement.ErrNotYourBooking},
		{models.Identity{UserID: "t1", Role: utils.RoleTechnician}, nil},
		{models.Identity{UserID: "t2", Role: utils.RoleTechnician}, settlement.ErrNotAssignedToYou},
		{models.Identity{UserID: "a1", Role: utils.RoleAdmin}, nil},
		{models.Identity{UserID: "x", Role: "guest"}, settlement.ErrNotYourBooking},
	}
	for _, tc := range cases {
		got, err := h.Booking.GetBooking(ctx, tc.caller, "b1")
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "caller %+v", tc.caller)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, "b1", got.ID)
	}

	_, err := h.Booking.GetBooking(ctx, customer, "missing")
	assert.ErrorIs(t, err, settlement.ErrBookingNotFound)
}

func TestRedispatch(t *testing.T) {
	h := testutil.NewHarness()
	h.AddBooking("b1", "c1", "Plumbing", 1000)

	out, err := h.Booking.Redispatch(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, out.Exhausted)

	h.AddTechnician("t1", 4, "Plumbing")
	out, err = h.Booking.Redispatch(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, out.Offer)
}

func TestCreateBooking_ReplayWhileFirstRequestInFlight(t *testing.T) {
	h := testutil.NewHarness()
	// The first request has reserved the key but not yet inserted its booking.
	_, fresh, err := h.Idempotency.Reserve(ctx, "c1:key-1", "b-in-flight")
	require.NoError(t, err)
	require.True(t, fresh)

	_, err = h.Booking.CreateBooking(ctx, customer, request(), "key-1")
	assert.ErrorIs(t, err, booking.ErrRequestInProgress)
	_, ok := h.Bookings.Get("b-in-flight")
	assert.False(t, ok)
}
