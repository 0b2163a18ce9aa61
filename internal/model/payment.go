package model

import "time"

// PaymentStatus is the closed set of escrow payment states.
type PaymentStatus string

const (
	PaymentHeld     PaymentStatus = "held"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment holds the escrowed funds for exactly one order. Its status must
// track the order status inside the same transaction: Released iff the order
// is Completed, Refunded iff the order is Refunded, Held otherwise.
type Payment struct {
	ID               string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID          string        `json:"order_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Amount           int64         `json:"amount" gorm:"not null"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(16);not null"`
	GatewayReference string        `json:"gateway_reference" gorm:"type:varchar(128)"`
	CapturedAt       time.Time     `json:"captured_at"`
	ReleasedAt       *time.Time    `json:"released_at,omitempty"`
}
