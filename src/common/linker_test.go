package common

import (
	"ets/src/models"
	"ets/src/types"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCreatesConfirmedBooking(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 199, 100)

	res, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_create_1",
		OrderID: "order_1",
		Amount:  398,
		EventID: event.ID,
		Name:    "Alice",
		Email:   "alice@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, uint(2), res.Qty)

	var booking models.Booking
	require.NoError(t, d.Where("id = ?", res.BookingID).First(&booking).Error)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
	assert.Equal(t, uint(2), booking.Qty)
	require.NotNil(t, booking.UserID)

	var user models.User
	require.NoError(t, d.Where("id = ?", *booking.UserID).First(&user).Error)
	require.NotNil(t, user.Email)
	assert.Equal(t, "alice@example.com", *user.Email)

	assert.Equal(t, uint(2), reloadEvent(t, d, event.ID).SoldUnits)
}

func TestReconcileIsIdempotent(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 199, 100)

	in := &ReconcileInput{
		TxnID:   "txn_dup_1",
		OrderID: "order_dup",
		Amount:  199,
		EventID: event.ID,
		Email:   "bob@example.com",
	}
	first, err := Reconcile(in)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := Reconcile(in)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.BookingID, second.BookingID)

	var bookings int64
	require.NoError(t, d.Model(&models.Booking{}).Where("event_id = ?", event.ID).Count(&bookings).Error)
	assert.Equal(t, int64(1), bookings)
	assert.Equal(t, uint(1), reloadEvent(t, d, event.ID).SoldUnits)
}

func TestReconcileConcurrentSameTxn(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 50)

	in := &ReconcileInput{
		TxnID:   "txn_race_1",
		OrderID: "order_race",
		Amount:  300,
		EventID: event.ID,
		Email:   "carol@example.com",
	}

	const callers = 4
	results := make([]*ReconcileResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Reconcile(in)
		}(i)
	}
	wg.Wait()

	var winner uint
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if winner == 0 {
			winner = results[i].BookingID
		}
		assert.Equal(t, winner, results[i].BookingID)
	}

	var bookings int64
	require.NoError(t, d.Model(&models.Booking{}).Where("event_id = ?", event.ID).Count(&bookings).Error)
	assert.Equal(t, int64(1), bookings)
	var payments int64
	require.NoError(t, d.Model(&models.Payment{}).Where("gateway_txn_id = ?", in.TxnID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
	assert.Equal(t, uint(3), reloadEvent(t, d, event.ID).SoldUnits)
}

func TestReconcileConcurrentCapacityRace(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 1)

	inputs := []*ReconcileInput{
		{TxnID: "txn_last_a", OrderID: "order_last_a", Amount: 100, EventID: event.ID, Email: "gail@example.com"},
		{TxnID: "txn_last_b", OrderID: "order_last_b", Amount: 100, EventID: event.ID, Email: "hank@example.com"},
	}
	results := make([]*ReconcileResult, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Reconcile(inputs[i])
		}(i)
	}
	wg.Wait()

	// One unit left, two captured payments: exactly one wins it, the other
	// fails final and lands in the review queue.
	var won, lost int
	for i := range inputs {
		if errs[i] == nil {
			won++
			require.NotNil(t, results[i])
			assert.NotZero(t, results[i].BookingID)
		} else {
			lost++
			require.ErrorIs(t, errs[i], ErrCapacityExceeded)
			assert.Nil(t, results[i])
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	var bookings int64
	require.NoError(t, d.Model(&models.Booking{}).Where("event_id = ?", event.ID).Count(&bookings).Error)
	assert.Equal(t, int64(1), bookings)

	var flagged int64
	require.NoError(t, d.
		Model(&models.Payment{}).
		Where("status = ? AND booking_id IS NULL", types.PAYMENT_FLAGGED).
		Count(&flagged).
		Error)
	assert.Equal(t, int64(1), flagged)

	assert.Equal(t, event.Capacity, reloadEvent(t, d, event.ID).SoldUnits)
}

func TestReconcileAttachesOrphanBooking(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 150, 100)
	user := seedUser(t, d, "dave@example.com")

	orphan := models.Booking{
		UserID:     &user.ID,
		EventID:    event.ID,
		Qty:        2,
		TotalPrice: 300,
		Status:     types.BOOKING_PENDING,
	}
	require.NoError(t, d.Create(&orphan).Error)

	res, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_orphan_1",
		OrderID: "order_orphan",
		Amount:  300,
		EventID: event.ID,
		Email:   "dave@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Attached)
	assert.Equal(t, orphan.ID, res.BookingID)

	var reloaded models.Booking
	require.NoError(t, d.Where("id = ?", orphan.ID).First(&reloaded).Error)
	assert.Equal(t, types.BOOKING_CONFIRMED, reloaded.Status)

	var bookings int64
	require.NoError(t, d.Model(&models.Booking{}).Where("event_id = ?", event.ID).Count(&bookings).Error)
	assert.Equal(t, int64(1), bookings)
}

func TestReconcileCapacityExceeded(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 1)

	_, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_cap_1",
		OrderID: "order_cap",
		Amount:  200,
		EventID: event.ID,
		Email:   "erin@example.com",
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// The captured money is never dropped: the payment lands flagged and
	// unlinked, with a review flag for the operator.
	var payment models.Payment
	require.NoError(t, d.Where("gateway_txn_id = ?", "txn_cap_1").First(&payment).Error)
	assert.Equal(t, types.PAYMENT_FLAGGED, payment.Status)
	assert.Nil(t, payment.BookingID)

	var flags int64
	require.NoError(t, d.
		Model(&models.ReviewFlag{}).
		Where("kind = ?", types.FLAG_CAPACITY_EXCEEDED).
		Count(&flags).
		Error)
	assert.Equal(t, int64(1), flags)

	assert.Equal(t, uint(0), reloadEvent(t, d, event.ID).SoldUnits)
}

func TestReconcileAmbiguousAmount(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 199, 100)

	_, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_amb_1",
		Amount:  100,
		EventID: event.ID,
		Email:   "frank@example.com",
	})
	require.ErrorIs(t, err, ErrAmbiguousAmount)

	var payments int64
	require.NoError(t, d.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(0), payments)
}

func TestReconcileGuestKeepsContactOnBooking(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 10)

	res, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_guest_1",
		Amount:  100,
		EventID: event.ID,
		Name:    "Walk In",
		Email:   "walkin@example.com",
		Guest:   true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.UserID)

	var booking models.Booking
	require.NoError(t, d.Where("id = ?", res.BookingID).First(&booking).Error)
	assert.Nil(t, booking.UserID)
	require.NotNil(t, booking.GuestEmail)
	assert.Equal(t, "walkin@example.com", *booking.GuestEmail)

	var users int64
	require.NoError(t, d.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(0), users)
}

func TestReconcileIdentityMissing(t *testing.T) {
	d := testDB(t)
	event := seedEvent(t, d, 100, 10)

	_, err := Reconcile(&ReconcileInput{
		TxnID:   "txn_noid_1",
		Amount:  100,
		EventID: event.ID,
	})
	require.ErrorIs(t, err, ErrIdentityMissing)
	assert.True(t, Retryable(err))

	var d2 int64
	require.NoError(t, d.Model(&models.Payment{}).Count(&d2).Error)
	assert.Equal(t, int64(0), d2)
}
