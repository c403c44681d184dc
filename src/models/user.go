package models

import (
	"ets/src/types"
)

type User struct {
	ID    uint    `gorm:"primarykey" json:"id"`
	Name  string  `json:"name,omitempty"`
	Email *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone *string `gorm:"index" json:"phone,omitempty"`
	Role  string  `gorm:"default:'customer'" json:"role,omitempty"`

	Bookings      []Booking      `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:user_id" json:"subscriptions,omitempty"`

	types.Timestamps
}
