package models

import "ets/src/types"

type Payment struct {
	ID uint `gorm:"primarykey" json:"id"`

	// GatewayTxnID is the processor's id for a captured payment and the
	// system's idempotency key. The unique index is the only coordination
	// point between the uncoordinated entry points.
	GatewayTxnID   string              `gorm:"uniqueIndex" json:"gateway_txn_id"`
	GatewayOrderID string              `gorm:"index" json:"gateway_order_id,omitempty"`
	BookingID      *uint               `json:"booking_id,omitempty"`
	Amount         float64             `json:"amount"`
	Status         types.PaymentStatus `gorm:"default:'captured'" json:"status,omitempty"`
	Method         string              `json:"method,omitempty"`
	Contact        string              `json:"contact,omitempty"`
	Notes          types.JSONB         `gorm:"type:jsonb" json:"notes,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
