package model

import "time"

// Product is a catalog entry offered by a seller. The settlement engine only
// references products by ID; catalog browsing itself is a thin read surface.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SellerID    string    `json:"seller_id" gorm:"type:varchar(36);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	UnitPrice   int64     `json:"unit_price" gorm:"not null"` // minor currency units
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductRequest is the payload for creating a catalog entry.
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price" binding:"required,min=1"`
}
