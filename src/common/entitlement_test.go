package common

import (
	"ets/src/models"
	"ets/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEntitlementGuest(t *testing.T) {
	// Guests never qualify, and the guest path touches no storage.
	event := &models.Event{ID: 1, UnitPrice: 199, DateTime: time.Now().Add(time.Hour)}
	res, err := ComputeEntitlement(nil, event, 3, time.Now())
	require.NoError(t, err)
	assert.False(t, res.FullyFree)
	assert.Equal(t, float64(597), res.Total)
}

func TestComputeEntitlementSubscriber(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 50)
	user := seedUser(t, d, "subscriber@example.com")
	now := time.Now()

	sub := models.Subscription{
		UserID:   user.ID,
		Plan:     "monthly",
		StartsAt: now.AddDate(0, -1, 0),
		EndsAt:   now.AddDate(0, 2, 0),
		Status:   types.SUBSCRIPTION_ACTIVE,
	}
	require.NoError(t, d.Create(&sub).Error)

	t.Run("single unit is fully free", func(t *testing.T) {
		res, err := ComputeEntitlement(&user.ID, event, 1, now)
		require.NoError(t, err)
		assert.True(t, res.FullyFree)
		assert.Equal(t, float64(0), res.Total)
	})

	t.Run("extra units are charged", func(t *testing.T) {
		res, err := ComputeEntitlement(&user.ID, event, 3, now)
		require.NoError(t, err)
		assert.False(t, res.FullyFree)
		assert.Equal(t, float64(200), res.Total)
	})

	t.Run("entitlement is consumed once per month", func(t *testing.T) {
		free := models.Booking{
			UserID:     &user.ID,
			EventID:    event.ID,
			Qty:        1,
			TotalPrice: 0,
			Status:     types.BOOKING_CONFIRMED,
		}
		require.NoError(t, d.Create(&free).Error)

		res, err := ComputeEntitlement(&user.ID, event, 1, now)
		require.NoError(t, err)
		assert.False(t, res.FullyFree)
		assert.Equal(t, float64(100), res.Total)
	})
}

func TestComputeEntitlementSubscriptionMustCoverEventDate(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 50)
	user := seedUser(t, d, "lapsing@example.com")
	now := time.Now()

	// Active today but ending before the event date a month out.
	sub := models.Subscription{
		UserID:   user.ID,
		Plan:     "monthly",
		StartsAt: now.AddDate(0, -1, 0),
		EndsAt:   now.AddDate(0, 0, 7),
		Status:   types.SUBSCRIPTION_ACTIVE,
	}
	require.NoError(t, d.Create(&sub).Error)

	res, err := ComputeEntitlement(&user.ID, event, 1, now)
	require.NoError(t, err)
	assert.False(t, res.FullyFree)
	assert.Equal(t, float64(100), res.Total)
}

func TestSubscriptionCovers(t *testing.T) {
	now := time.Now()
	sub := models.Subscription{
		StartsAt: now,
		EndsAt:   now.AddDate(0, 1, 0),
		Status:   types.SUBSCRIPTION_ACTIVE,
	}
	assert.True(t, sub.Covers(now.AddDate(0, 0, 15)))
	assert.False(t, sub.Covers(now.AddDate(0, 2, 0)))
	assert.False(t, sub.Covers(now.AddDate(0, 0, -1)))

	sub.Status = types.SUBSCRIPTION_CANCELED
	assert.False(t, sub.Covers(now.AddDate(0, 0, 15)))
}
