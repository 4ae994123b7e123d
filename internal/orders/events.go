package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted when checkout commits.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	UserID     uuid.UUID       `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// OrderPaidEvent is emitted when a payment capture commits.
type OrderPaidEvent struct {
	OrderID          uuid.UUID       `json:"order_id"`
	UserID           uuid.UUID       `json:"user_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// OrderDeliveredEvent is emitted when an admin confirms delivery.
type OrderDeliveredEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
