package model

import "time"

// DeliveryStatus is the closed set of delivery states.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAccepted  DeliveryStatus = "accepted"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// Delivery tracks the shipment for exactly one order. It is created when the
// funds are confirmed held and updated as the courier progresses.
type Delivery struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string         `json:"order_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	CourierID   string         `json:"courier_id" gorm:"type:varchar(36);index"` // empty until accepted
	Status      DeliveryStatus `json:"status" gorm:"type:varchar(16);not null"`
	AssignedAt  *time.Time     `json:"assigned_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}
