package orders

import (
	"time"

	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
)

// Event is a lifecycle transition applied to an order. Each event carries its
// own data; Apply validates the transition against the order's current flags
// and mutates the order in memory. Persistence runs a guarded UPDATE with the
// same precondition, so a transition that passed Apply but lost a concurrent
// race still fails at the database.
type Event interface {
	eventTag()
}

// PaymentCaptured marks the order paid after the gateway confirms capture.
type PaymentCaptured struct {
	At               time.Time
	GatewayPaymentID string
}

// Delivered marks the order delivered by an admin.
type Delivered struct {
	At time.Time
}

func (PaymentCaptured) eventTag() {}
func (Delivered) eventTag()       {}

// Apply transitions the order, enforcing the created -> paid -> delivered
// progression. It returns a state conflict when the event is not allowed in
// the order's current state.
func Apply(order *models.Order, event Event) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}

	switch e := event.(type) {
	case PaymentCaptured:
		if order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
		}
		at := e.At
		order.IsPaid = true
		order.PaidAt = &at
		order.Status = enums.OrderStatusPaid
		return nil

	case Delivered:
		if !order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
		}
		if order.IsDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already delivered")
		}
		at := e.At
		order.IsDelivered = true
		order.DeliveredAt = &at
		order.Status = enums.OrderStatusDelivered
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "unknown lifecycle event")
	}
}
