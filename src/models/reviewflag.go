package models

import "ets/src/types"

// ReviewFlag is the manual-review queue. Nothing in the system resolves a
// flag automatically; operators do, through the admin surface.
type ReviewFlag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Kind      types.FlagKind `gorm:"index" json:"kind"`
	PaymentID *uint          `json:"payment_id,omitempty"`
	EventID   *uint          `gorm:"index" json:"event_id,omitempty"`
	UserID    *uint          `json:"user_id,omitempty"`
	Details   types.JSONB    `gorm:"type:jsonb" json:"details,omitempty"`
	Resolved  bool           `gorm:"default:false;index" json:"resolved"`

	types.Timestamps
}
