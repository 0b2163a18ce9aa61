package model

import "time"

// Notification is an append-only audit record of a message delivered to a
// user. It is not authoritative state; settlement never depends on it.
type Notification struct {
	ID      string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID  string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	OrderID string    `json:"order_id" gorm:"type:varchar(36);not null;index"`
	Message string    `json:"message" gorm:"type:text;not null"`
	SentAt  time.Time `json:"sent_at"`
}

// DisputeResolution is the audit record of an administrator verdict on a
// disputed order.
type DisputeResolution struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string    `json:"order_id" gorm:"type:varchar(36);not null;index"`
	Verdict    string    `json:"verdict" gorm:"type:varchar(16);not null"`
	ResolvedBy string    `json:"resolved_by" gorm:"type:varchar(36);not null"`
	Rationale  string    `json:"rationale" gorm:"type:text"`
	ResolvedAt time.Time `json:"resolved_at"`
}
