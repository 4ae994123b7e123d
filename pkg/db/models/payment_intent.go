package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	"github.com/mateovidal/storelane-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// PaymentIntent tracks a gateway payment attempt for one order. The gateway
// payment identifier is stored so capture can re-validate amount and status
// against the gateway record instead of trusting the client.
type PaymentIntent struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID          uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_payment_intents_order" json:"order_id"`
	GatewayPaymentID string               `gorm:"type:text" json:"gateway_payment_id"`
	Amount           decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string               `gorm:"type:text;not null;default:'USD'" json:"currency"`
	Status           enums.PaymentStatus  `gorm:"type:text;not null;default:'pending'" json:"status"`
	Result           *types.PaymentResult `gorm:"type:jsonb" json:"result,omitempty"`
	FailureReason    string               `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt        time.Time            `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time            `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName overrides the default GORM table name.
func (PaymentIntent) TableName() string {
	return "payment_intents"
}
