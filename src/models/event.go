package models

import (
	"ets/src/types"
	"time"
)

type Event struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Title       string            `json:"title,omitempty"`
	Slug        string            `gorm:"index" json:"slug,omitempty"`
	Description *string           `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	DateTime    time.Time         `json:"date_time,omitempty"`
	UnitPrice   float64           `json:"unit_price"`
	Capacity    uint              `json:"capacity"`
	// SoldUnits mirrors the sum of pending/confirmed booking quantities. It
	// is updated in the same transaction as the rows it counts; the repair
	// job corrects any drift.
	SoldUnits uint              `json:"sold_units"`
	Status    types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`

	Bookings []Booking `gorm:"foreignKey:event_id" json:"bookings,omitempty"`

	types.Timestamps
}

func (e *Event) Remaining() uint {
	if e.SoldUnits >= e.Capacity {
		return 0
	}
	return e.Capacity - e.SoldUnits
}
