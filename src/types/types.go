package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_ARCHIVED  EventStatus = "archived"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_CAPTURED PaymentStatus = "captured"
	PAYMENT_LINKED   PaymentStatus = "linked"
	PAYMENT_FLAGGED  PaymentStatus = "flagged"
)

type SubscriptionStatus string

const (
	SUBSCRIPTION_ACTIVE   SubscriptionStatus = "active"
	SUBSCRIPTION_CANCELED SubscriptionStatus = "cancelled"
	SUBSCRIPTION_EXPIRED  SubscriptionStatus = "expired"
)

type FlagKind string

const (
	FLAG_DUPLICATE_PAID    FlagKind = "duplicate_paid"
	FLAG_CAPACITY_EXCEEDED FlagKind = "capacity_exceeded"
	FLAG_UNMATCHED_PAYMENT FlagKind = "unmatched_payment"
	FLAG_AMBIGUOUS_AMOUNT  FlagKind = "ambiguous_amount"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateEventRequestBody struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	DateTime    string  `json:"date_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
	Capacity    uint    `json:"capacity" binding:"required,gt=0"`
	Publish     bool    `json:"publish,omitempty"`
}

type GuestContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CheckoutRequestBody struct {
	EventID uint          `json:"event_id" binding:"required"`
	Qty     uint          `json:"qty" binding:"required,gte=1"`
	Guest   *GuestContact `json:"guest,omitempty"`
}

type BookingIntent struct {
	EventID     uint          `json:"event_id" binding:"required"`
	Qty         uint          `json:"qty,omitempty"`
	TotalAmount float64       `json:"total_amount" binding:"required,gt=0"`
	Requester   *GuestContact `json:"requester,omitempty"`
}

type ConfirmPaymentRequestBody struct {
	OrderID   string        `json:"order_id" binding:"required"`
	PaymentID string        `json:"payment_id" binding:"required"`
	Signature string        `json:"signature" binding:"required"`
	Intent    BookingIntent `json:"intent" binding:"required"`
}

type BackfillRequestBody struct {
	TxnID   string  `json:"txn_id" binding:"required"`
	OrderID string  `json:"order_id,omitempty"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	EventID uint    `json:"event_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
}

type CreateSubscriptionRequestBody struct {
	Plan   string `json:"plan" binding:"required"`
	Months uint   `json:"months" binding:"required,gte=1,lte=12"`
}

type RegisterUserRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// GatewayWebhookEvent is the inbound webhook envelope. Notes is kept raw and
// probed with gjson since the gateway serializes it inconsistently.
type GatewayWebhookEvent struct {
	EventType string `json:"event_type"`
	Payment   struct {
		ID      string  `json:"id"`
		Amount  float64 `json:"amount"`
		Status  string  `json:"status"`
		Method  string  `json:"method"`
		Contact string  `json:"contact"`
	} `json:"payment"`
	Order struct {
		ID    string          `json:"id"`
		Notes json.RawMessage `json:"notes"`
	} `json:"order"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
