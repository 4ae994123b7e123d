package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line item snapshot taken at checkout. Name, image and unit
// price are copied from the product so later catalog edits never alter placed
// orders.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_order" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	ImageURL  string          `gorm:"type:text" json:"image_url"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

// TableName overrides the default GORM table name.
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is unit price multiplied by quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
