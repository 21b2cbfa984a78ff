package commission_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"repairhub/services/commission"
	"repairhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SharesAlwaysAddUpToTotal(t *testing.T) {
	totals := []float64{0, 1, 3, 99, 333, 1000, 1001, 2499.5, 123457}
	for _, total := range totals {
		for pct := 0.0; pct <= 100; pct += 2.5 {
			b, err := commission.Split(total, pct)
			require.NoError(t, err)
			assert.Equal(t, total, b.TechnicianEarnings+b.AdminCommission, "total=%v pct=%v", total, pct)
			assert.Equal(t, pct, b.PercentageUsed)
			assert.Equal(t, math.Round(b.AdminCommission), b.AdminCommission)
		}
	}
}

func TestSplit_ThirtyPercentOfThousand(t *testing.T) {
	b, err := commission.Split(1000, 30)
	require.NoError(t, err)
	assert.Equal(t, 300.0, b.AdminCommission)
	assert.Equal(t, 700.0, b.TechnicianEarnings)
	assert.Equal(t, 1000.0, b.TotalAmount)
}

func TestSplit_RejectsBadTotals(t *testing.T) {
	for _, total := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := commission.Split(total, 30)
		assert.ErrorIs(t, err, commission.ErrInvalidAmount)
	}
}

func TestSplit_OutOfRangePercentageUsesDefault(t *testing.T) {
	b, err := commission.Split(1000, 140)
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultPercentage, b.PercentageUsed)
	assert.Equal(t, 300.0, b.AdminCommission)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfigured uses default", func(t *testing.T) {
		h := testutil.NewHarness()
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, 30.0, b.PercentageUsed)
	})

	t.Run("unconfigured uses configured fallback", func(t *testing.T) {
		h := testutil.NewHarness()
		pct := 20.0
		h.Commission.Fallback = &pct
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, 200.0, b.AdminCommission)
	})

	t.Run("zero fallback is honoured", func(t *testing.T) {
		h := testutil.NewHarness()
		zero := 0.0
		h.Commission.Fallback = &zero
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.PercentageUsed)
		assert.Equal(t, 1000.0, b.TechnicianEarnings)
	})

	t.Run("invalid fallback uses default", func(t *testing.T) {
		h := testutil.NewHarness()
		bad := 140.0
		h.Commission.Fallback = &bad
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, commission.DefaultPercentage, b.PercentageUsed)
	})

	t.Run("stored percentage", func(t *testing.T) {
		h := testutil.NewHarness()
		h.Settings.SetPercentage(15)
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, 150.0, b.AdminCommission)
		assert.Equal(t, 850.0, b.TechnicianEarnings)
	})

	t.Run("stored percentage out of range", func(t *testing.T) {
		h := testutil.NewHarness()
		h.Settings.SetPercentage(-4)
		b, err := h.Commission.Resolve(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, 30.0, b.PercentageUsed)
	})

	t.Run("settings store failure surfaces", func(t *testing.T) {
		h := testutil.NewHarness()
		boom := errors.New("connection refused")
		h.Settings.FailNext("GetCommission", boom)
		_, err := h.Commission.Resolve(ctx, 1000)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("negative total rejected before reading settings", func(t *testing.T) {
		h := testutil.NewHarness()
		h.Settings.FailNext("GetCommission", errors.New("should not be called"))
		_, err := h.Commission.Resolve(ctx, -10)
		assert.ErrorIs(t, err, commission.ErrInvalidAmount)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness()

	for _, pct := range []float64{-0.5, 100.5, math.NaN(), math.Inf(1)} {
		_, err := h.Commission.Update(ctx, pct, "admin-1")
		assert.ErrorIs(t, err, commission.ErrInvalidPercentage)
	}

	_, err := h.Commission.Update(ctx, 25, "admin-1")
	require.NoError(t, err)
	settings, err := h.Commission.Update(ctx, 35, "admin-2")
	require.NoError(t, err)

	assert.Equal(t, 35.0, settings.Percentage)
	assert.Equal(t, "admin-2", settings.UpdatedBy)
	require.Len(t, settings.History, 2)
	assert.Equal(t, 25.0, settings.History[0].Percentage)

	current, err := h.Commission.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 35.0, current.Percentage)
}

func TestCurrent_Unconfigured(t *testing.T) {
	h := testutil.NewHarness()
	settings, err := h.Commission.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultPercentage, settings.Percentage)
	assert.Empty(t, settings.History)
}
