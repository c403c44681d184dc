package models

import (
	"ets/src/types"
	"time"
)

type Subscription struct {
	ID       uint                     `gorm:"primarykey" json:"id"`
	UserID   uint                     `json:"user_id,omitempty"`
	Plan     string                   `json:"plan,omitempty"`
	StartsAt time.Time                `json:"starts_at,omitempty"`
	EndsAt   time.Time                `json:"ends_at,omitempty"`
	Status   types.SubscriptionStatus `gorm:"default:'active'" json:"status,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}

// Covers reports whether the subscription entitles the holder for an event
// on the given date. The end date must cover the event itself, not merely
// extend past today.
func (s *Subscription) Covers(eventDate time.Time) bool {
	if s.Status != types.SUBSCRIPTION_ACTIVE {
		return false
	}
	return !eventDate.Before(s.StartsAt) && !s.EndsAt.Before(eventDate)
}
