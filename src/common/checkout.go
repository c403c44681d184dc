package common

import (
	"errors"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckoutInput struct {
	EventID uint
	Qty     uint
	UserID  *uint
	Guest   *types.GuestContact
}

type CheckoutResult struct {
	BookingID uint    `json:"booking_id"`
	Total     float64 `json:"total"`
	FullyFree bool    `json:"fully_free"`
	Confirmed bool    `json:"confirmed"`
	Existing  bool    `json:"existing"`
}

// Checkout is the synchronous pre-payment step: it prices the request
// through the entitlement calculator and records the booking intent. A
// fully free entitled booking confirms immediately since no payment will ever
// arrive for it. A paid intent stays pending until the gateway confirms and
// the linker picks it up.
func Checkout(in *CheckoutInput, now time.Time) (*CheckoutResult, error) {
	d := db.GetDb()

	var event models.Event
	if err := d.Where(&models.Event{ID: in.EventID}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, ErrEventNotPublished
	}
	// Past-dated events are rejected before pricing, independent of any
	// entitlement the requester may hold.
	if event.DateTime.Before(now) {
		return nil, ErrEventExpired
	}

	ent, err := ComputeEntitlement(in.UserID, &event, in.Qty, now)
	if err != nil {
		return nil, err
	}

	res := &CheckoutResult{Total: ent.Total, FullyFree: ent.FullyFree}
	err = d.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", event.ID).
			First(&event).
			Error; err != nil {
			return err
		}
		// Re-submitting the same intent returns the same pending booking
		// instead of stacking duplicates for the repair job to clean up. This
		// runs before the capacity check so a recorded intent stays
		// retrievable even after the event fills up.
		if in.UserID != nil {
			var existing models.Booking
			err := tx.
				Model(&models.Booking{}).
				Where("user_id = ? AND event_id = ? AND qty = ? AND status = ?",
					*in.UserID, event.ID, in.Qty, types.BOOKING_PENDING).
				Where("ABS(total_price - ?) < 0.01", ent.Total).
				First(&existing).
				Error
			if err == nil {
				res.BookingID = existing.ID
				res.Existing = true
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if event.Remaining() < in.Qty {
			return ErrCapacityExceeded
		}

		booking := models.Booking{
			UserID:     in.UserID,
			EventID:    event.ID,
			Qty:        in.Qty,
			TotalPrice: ent.Total,
			Status:     types.BOOKING_PENDING,
		}
		if in.UserID == nil && in.Guest != nil {
			if in.Guest.Name != "" {
				booking.GuestName = &in.Guest.Name
			}
			if in.Guest.Email != "" {
				booking.GuestEmail = &in.Guest.Email
			}
			if in.Guest.Phone != "" {
				booking.GuestPhone = &in.Guest.Phone
			}
		}
		if ent.FullyFree {
			// Zero-price entitlement: confirmed on the spot, counted once.
			booking.Status = types.BOOKING_CONFIRMED
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		if ent.FullyFree {
			if err := tx.
				Model(&models.Event{}).
				Where("id = ?", event.ID).
				UpdateColumn("sold_units", gorm.Expr("sold_units + ?", in.Qty)).
				Error; err != nil {
				return err
			}
			res.Confirmed = true
		}
		res.BookingID = booking.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Confirmed {
		log.Printf("[Checkout] entitled booking=%d event=%d qty=%d\n", res.BookingID, event.ID, in.Qty)
		go NotifyConfirmed(&ReconcileResult{
			BookingID: res.BookingID,
			UserID:    in.UserID,
			EventID:   event.ID,
			Qty:       in.Qty,
		})
	}
	return res, nil
}
