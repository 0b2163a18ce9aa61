package model

import (
	"time"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	OrderAwaitingPayment OrderStatus = "awaiting_payment"
	OrderFundsHeld       OrderStatus = "funds_held"
	OrderInDelivery      OrderStatus = "in_delivery"
	OrderDelivered       OrderStatus = "delivered"
	OrderDisputed        OrderStatus = "disputed"
	OrderCompleted       OrderStatus = "completed"
	OrderRefunded        OrderStatus = "refunded"
)

// Terminal reports whether no transition may ever leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderRefunded
}

// OrderEvent is a trigger that may advance an order along the transition table.
type OrderEvent string

const (
	EventPaymentCaptured  OrderEvent = "payment_captured"
	EventCourierAccepted  OrderEvent = "courier_accepted"
	EventCourierDelivered OrderEvent = "courier_delivered"
	EventGateReleased     OrderEvent = "gate_released"
	EventDisputeOpened    OrderEvent = "dispute_opened"
	EventDisputeReleased  OrderEvent = "dispute_released"
	EventDisputeRefunded  OrderEvent = "dispute_refunded"
)

// orderTransitions is the authoritative edge set of the settlement state
// machine. Any (status, event) pair not listed here is rejected.
var orderTransitions = map[OrderStatus]map[OrderEvent]OrderStatus{
	OrderAwaitingPayment: {
		EventPaymentCaptured: OrderFundsHeld,
	},
	OrderFundsHeld: {
		EventCourierAccepted: OrderInDelivery,
	},
	OrderInDelivery: {
		EventCourierDelivered: OrderDelivered,
	},
	OrderDelivered: {
		EventGateReleased:  OrderCompleted,
		EventDisputeOpened: OrderDisputed,
	},
	OrderDisputed: {
		EventDisputeReleased: OrderCompleted,
		EventDisputeRefunded: OrderRefunded,
	},
}

// NextStatus returns the status reached from current via event, and whether
// that edge exists in the transition table.
func NextStatus(current OrderStatus, event OrderEvent) (OrderStatus, bool) {
	next, ok := orderTransitions[current][event]
	return next, ok
}

// Order represents a single purchase intent. Amount is expressed in minor
// currency units. Status is mutated exclusively by the settlement coordinator
// and the dispute resolver; Version backs the optimistic concurrency check.
type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID   string      `json:"buyer_id" gorm:"type:varchar(36);not null;index"`
	SellerID  string      `json:"seller_id" gorm:"type:varchar(36);not null;index"`
	ProductID string      `json:"product_id" gorm:"type:varchar(36);not null;index"`
	CourierID string      `json:"courier_id" gorm:"type:varchar(36)"` // empty until a courier accepts
	Quantity  int         `json:"quantity" gorm:"not null"`
	Amount    int64       `json:"amount" gorm:"not null"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	Version   int64       `json:"version" gorm:"not null;default:0"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateOrderRequest is the payload for buyer checkout.
type CreateOrderRequest struct {
	SellerID  string `json:"seller_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Amount    int64  `json:"amount" binding:"required,min=1"`
}
