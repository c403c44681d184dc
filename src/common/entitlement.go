package common

import (
	"errors"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"time"

	"gorm.io/gorm"
)

type EntitlementResult struct {
	FullyFree bool    `json:"fully_free"`
	Total     float64 `json:"total"`
}

// ComputeEntitlement prices a booking request against the requester's
// subscription state. Guests never qualify. A subscription only counts when
// its end date covers the event date itself, and the free unit is granted at
// most once per event per calendar month.
func ComputeEntitlement(userID *uint, event *models.Event, qty uint, now time.Time) (*EntitlementResult, error) {
	full := &EntitlementResult{FullyFree: false, Total: float64(qty) * event.UnitPrice}
	if userID == nil || qty < 1 {
		return full, nil
	}

	d := db.GetDb()
	var sub models.Subscription
	err := d.
		Model(&models.Subscription{}).
		Where(&models.Subscription{UserID: *userID, Status: types.SUBSCRIPTION_ACTIVE}).
		Where("starts_at <= ? AND ends_at >= ?", event.DateTime, event.DateTime).
		Order("ends_at desc").
		First(&sub).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return full, nil
		}
		return nil, err
	}

	// One free unit per event per calendar month: a surviving zero-price
	// booking created this month means the entitlement is already consumed.
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var consumed int64
	err = d.
		Model(&models.Booking{}).
		Where("user_id = ? AND event_id = ?", *userID, event.ID).
		Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
		Where("total_price = 0").
		Where("created_at >= ?", monthStart).
		Count(&consumed).
		Error
	if err != nil {
		return nil, err
	}
	if consumed > 0 {
		return full, nil
	}

	total := float64(qty-1) * event.UnitPrice
	return &EntitlementResult{FullyFree: qty == 1, Total: total}, nil
}
