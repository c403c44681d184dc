package models

import (
	"ets/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID uint `gorm:"primarykey" json:"id"`
	// RefID is the opaque identifier handed to clients and printed on
	// tickets. Internal numeric ids stay out of anything user facing.
	RefID      string              `gorm:"uniqueIndex" json:"ref_id,omitempty"`
	UserID     *uint               `json:"user_id,omitempty"`
	EventID    uint                `json:"event_id,omitempty"`
	Qty        uint                `json:"qty,omitempty"`
	TotalPrice float64             `json:"total_price"`
	Status     types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`

	// Guest bookings carry contact details here and have no user row.
	GuestName  *string `json:"guest_name,omitempty"`
	GuestEmail *string `json:"guest_email,omitempty"`
	GuestPhone *string `json:"guest_phone,omitempty"`

	Event    *Event    `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User     *User     `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Payments []Payment `gorm:"foreignKey:booking_id" json:"payments,omitempty"`

	types.Timestamps
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.RefID == "" {
		b.RefID = uuid.NewString()
	}
	return nil
}
