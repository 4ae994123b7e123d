package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand stock for a single product.
type InventoryItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product" json:"product_id"`
	AvailableQty int       `gorm:"not null;default:0;check:available_qty >= 0" json:"available_qty"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName overrides the default GORM table name.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// InStock reports whether the requested quantity can be fulfilled.
func (i *InventoryItem) InStock(qty int) bool {
	return i.AvailableQty >= qty
}
