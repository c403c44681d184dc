package common

import (
	"errors"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReconcileInput struct {
	TxnID   string
	OrderID string
	Amount  float64
	EventID uint
	Name    string
	Email   string
	Phone   string
	Guest   bool
}

type ReconcileResult struct {
	BookingID uint    `json:"booking_id"`
	PaymentID uint    `json:"payment_id"`
	UserID    *uint   `json:"user_id,omitempty"`
	EventID   uint    `json:"event_id"`
	Qty       uint    `json:"qty"`
	Total     float64 `json:"total"`
	Duplicate bool    `json:"duplicate"`
	Attached  bool    `json:"attached"`
	Created   bool    `json:"created"`
}

// Reconcile turns a captured gateway payment into exactly one confirmed
// booking, no matter how many adapters deliver it or how often. The payment
// table's unique index on the txn id is the real guarantee; everything else
// here is about degrading gracefully when a concurrent caller wins.
func Reconcile(in *ReconcileInput) (*ReconcileResult, error) {
	if in.TxnID == "" {
		return nil, fmt.Errorf("missing gateway transaction id")
	}
	d := db.GetDb()

	// Duplicate gate first: redelivery and double-submission must short
	// circuit before anything would create records.
	if res, err := findLinked(d, in.TxnID); err != nil {
		return nil, err
	} else if res != nil {
		log.Printf("[Reconcile] duplicate txn=%s booking=%d\n", in.TxnID, res.BookingID)
		return res, nil
	}

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

	qty, err := InferQuantity(in.Amount, event.UnitPrice)
	if err != nil {
		return nil, err
	}

	// Identity resolution stays outside the booking transaction: recovering
	// from a concurrent user insert needs a read after ErrDuplicatedKey, and
	// postgres aborts the surrounding transaction on the violation. A user
	// row created here survives a later capacity abort and is reused.
	user, err := resolveIdentity(d, in)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{EventID: event.ID, Qty: qty, Total: in.Amount}
	if user != nil {
		res.UserID = &user.ID
	}
	err = d.Transaction(func(tx *gorm.DB) error {
		// Serialize capacity accounting on the event row.
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", event.ID).
			First(&event).
			Error; err != nil {
			return err
		}

		orphan, err := findOrphanBooking(tx, user, in, event.ID, qty)
		if err != nil {
			return err
		}

		if event.Remaining() < qty {
			return ErrCapacityExceeded
		}

		payment := models.Payment{
			GatewayTxnID:   in.TxnID,
			GatewayOrderID: in.OrderID,
			Amount:         in.Amount,
			Status:         types.PAYMENT_LINKED,
			Contact:        firstNonEmpty(in.Email, in.Phone),
		}
		if orphan != nil {
			// A synchronous checkout already recorded the intent; attach
			// instead of creating a second booking for one purchase.
			payment.BookingID = &orphan.ID
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			if err := tx.
				Model(&models.Booking{}).
				Where("id = ?", orphan.ID).
				Update("status", types.BOOKING_CONFIRMED).
				Error; err != nil {
				return err
			}
			res.BookingID = orphan.ID
			res.Attached = true
		} else {
			booking := models.Booking{
				EventID:    event.ID,
				Qty:        qty,
				TotalPrice: in.Amount,
				Status:     types.BOOKING_CONFIRMED,
			}
			applyIdentity(&booking, user, in)
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
			payment.BookingID = &booking.ID
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			res.BookingID = booking.ID
			res.Created = true
		}

		if err := tx.
			Model(&models.Event{}).
			Where("id = ?", event.ID).
			UpdateColumn("sold_units", gorm.Expr("sold_units + ?", qty)).
			Error; err != nil {
			return err
		}
		res.PaymentID = payment.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race: the constraint did its job. Degrade to a
			// read of the winning row.
			winner, ferr := findLinked(d, in.TxnID)
			if ferr != nil {
				return nil, ferr
			}
			if winner == nil {
				return nil, fmt.Errorf("txn %s hit the unique index but has no row", in.TxnID)
			}
			log.Printf("[Reconcile] lost insert race for txn=%s, returning booking=%d\n", in.TxnID, winner.BookingID)
			return winner, nil
		}
		if errors.Is(err, ErrCapacityExceeded) {
			flagUnlinkedPayment(d, in, event.ID, qty)
			return nil, err
		}
		return nil, err
	}

	// Best effort from here: the booking is committed and must survive any
	// notification or QR trouble.
	go NotifyConfirmed(res)

	return res, nil
}

func findLinked(d *gorm.DB, txnID string) (*ReconcileResult, error) {
	var payment models.Payment
	err := d.
		Model(&models.Payment{}).
		Where(&models.Payment{GatewayTxnID: txnID}).
		Preload("Booking").
		First(&payment).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	res := &ReconcileResult{
		PaymentID: payment.ID,
		Duplicate: true,
		Total:     payment.Amount,
	}
	if payment.BookingID != nil {
		res.BookingID = *payment.BookingID
	}
	if payment.Booking != nil {
		res.EventID = payment.Booking.EventID
		res.Qty = payment.Booking.Qty
		res.UserID = payment.Booking.UserID
	}
	return res, nil
}

// resolveIdentity finds or creates the owning user. Guests keep their
// contact on the booking row and never get a user row.
func resolveIdentity(d *gorm.DB, in *ReconcileInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return nil, ErrIdentityMissing
	}
	if in.Guest {
		return nil, nil
	}

	var user models.User
	q := d.Model(&models.User{})
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("phone = ?", phone)
	}
	err := q.First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{Name: in.Name}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}
	if err := d.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && email != "" {
			// Another adapter created the same user first.
			if err := d.Where("email = ?", email).First(&user).Error; err != nil {
				return nil, err
			}
			return &user, nil
		}
		return nil, err
	}
	return &user, nil
}

func applyIdentity(booking *models.Booking, user *models.User, in *ReconcileInput) {
	if user != nil {
		booking.UserID = &user.ID
		return
	}
	if in.Name != "" {
		booking.GuestName = &in.Name
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		booking.GuestEmail = &email
	}
	if in.Phone != "" {
		booking.GuestPhone = &in.Phone
	}
}

// findOrphanBooking looks for the artifact of a synchronous checkout: a
// pending booking with matching quantity and amount that no payment ever
// attached to.
func findOrphanBooking(tx *gorm.DB, user *models.User, in *ReconcileInput, eventID uint, qty uint) (*models.Booking, error) {
	var orphan models.Booking
	q := tx.
		Model(&models.Booking{}).
		Where("event_id = ? AND status = ? AND qty = ?", eventID, types.BOOKING_PENDING, qty).
		Where("ABS(total_price - ?) < 0.01", in.Amount).
		Where("NOT EXISTS (SELECT 1 FROM payments WHERE payments.booking_id = bookings.id AND payments.deleted_at IS NULL)")
	if user != nil {
		q = q.Where("user_id = ?", user.ID)
	} else if in.Email != "" {
		q = q.Where("user_id IS NULL AND guest_email = ?", strings.ToLower(strings.TrimSpace(in.Email)))
	} else {
		q = q.Where("user_id IS NULL AND guest_phone = ?", strings.TrimSpace(in.Phone))
	}
	err := q.Order("created_at asc").First(&orphan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &orphan, nil
}

// flagUnlinkedPayment persists a captured payment that could not be linked
// because the event sold out, plus a review flag. Capacity failures are never
// downgraded to partial fulfilment; an operator resolves these by hand.
func flagUnlinkedPayment(d *gorm.DB, in *ReconcileInput, eventID uint, qty uint) {
	err := d.Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			GatewayTxnID:   in.TxnID,
			GatewayOrderID: in.OrderID,
			Amount:         in.Amount,
			Status:         types.PAYMENT_FLAGGED,
			Contact:        firstNonEmpty(in.Email, in.Phone),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		flag := models.ReviewFlag{
			Kind:      types.FLAG_CAPACITY_EXCEEDED,
			PaymentID: &payment.ID,
			EventID:   &eventID,
			Details: types.JSONB{
				"txn_id":   in.TxnID,
				"order_id": in.OrderID,
				"amount":   in.Amount,
				"qty":      qty,
			},
		}
		return tx.Create(&flag).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent caller already recorded this txn; nothing to do.
			return
		}
		log.Printf("[Reconcile] could not flag unlinked payment txn=%s: %s\n", in.TxnID, err.Error())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
