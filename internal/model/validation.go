package model

import "time"

// Validation is the state of the conjunctive release gate for one order.
// Each flag, once set, is never reset by normal flow; only a dispute verdict
// or a refund may short-circuit the gate regardless of these flags.
type Validation struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID          string    `json:"order_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	BuyerConfirmed   bool      `json:"buyer_confirmed" gorm:"not null;default:false"`
	SellerConfirmed  bool      `json:"seller_confirmed" gorm:"not null;default:false"`
	CourierConfirmed bool      `json:"courier_confirmed" gorm:"not null;default:false"`
	UpdatedAt        time.Time `json:"updated_at"`
}
