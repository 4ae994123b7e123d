package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	"github.com/mateovidal/storelane-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Order is a placed order with immutable line item snapshots and a price
// breakdown fixed at checkout time.
type Order struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;index:idx_orders_user" json:"user_id"`
	Status          enums.OrderStatus   `gorm:"type:text;not null;default:'created'" json:"status"`
	PaymentMethod   enums.PaymentMethod `gorm:"type:text;not null" json:"payment_method"`
	ShippingAddress types.Address       `gorm:"type:jsonb;not null" json:"shipping_address"`

	ItemsPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"items_price"`
	TaxPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_price"`
	ShippingPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_price"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`

	IsPaid      bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsDelivered bool       `gorm:"not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_orders_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// TableName overrides the default GORM table name.
func (Order) TableName() string {
	return "orders"
}
