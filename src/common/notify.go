package common

import (
	"ets/src/db"
	"ets/src/lib"
	"ets/src/models"
	"ets/src/utils"
	"log"
)

// NotifyConfirmed runs the post-confirmation side effects: persist a
// redemption QR payload and enqueue the confirmation notification. The booking
// has already committed, so failures below are logged and swallowed.
func NotifyConfirmed(res *ReconcileResult) {
	d := db.GetDb()
	var booking models.Booking
	if err := d.
		Model(&models.Booking{}).
		Where("id = ?", res.BookingID).
		Preload("Event").
		Preload("User").
		First(&booking).
		Error; err != nil {
		log.Printf("[Notify] could not load booking=%d: %s\n", res.BookingID, err.Error())
		return
	}

	var userID uint
	if booking.UserID != nil {
		userID = *booking.UserID
	}
	if _, err := utils.GenerateBookingCode(booking.ID, userID, booking.EventID, booking.Qty); err != nil {
		log.Printf("[Notify] redemption code for booking=%d failed: %s\n", booking.ID, err.Error())
	}

	email := ""
	name := ""
	if booking.User != nil && booking.User.Email != nil {
		email = *booking.User.Email
		name = booking.User.Name
	} else if booking.GuestEmail != nil {
		email = *booking.GuestEmail
		if booking.GuestName != nil {
			name = *booking.GuestName
		}
	}
	if email == "" {
		log.Printf("[Notify] booking=%d has no email, skipping notification\n", booking.ID)
		return
	}

	payload := map[string]any{
		"booking_id": booking.ID,
		"event_id":   booking.EventID,
		"qty":        booking.Qty,
		"total":      booking.TotalPrice,
		"email":      email,
		"name":       name,
	}
	if booking.Event != nil {
		payload["event_title"] = booking.Event.Title
		payload["event_date"] = booking.Event.DateTime
	}
	if err := lib.NotificationsPublish("booking.confirmed", payload); err != nil {
		log.Printf("[Notify] enqueue for booking=%d failed: %s\n", booking.ID, err.Error())
	}
}
