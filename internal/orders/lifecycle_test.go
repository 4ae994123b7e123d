package orders

import (
	"testing"
	"time"

	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
)

func assertStateConflict(t *testing.T, err error) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApplyPaymentCaptured(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusCreated}
	at := time.Now().UTC()

	if err := Apply(order, PaymentCaptured{At: at, GatewayPaymentID: "pay-1"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !order.IsPaid || order.PaidAt == nil || !order.PaidAt.Equal(at) {
		t.Fatalf("paid flags not set: %+v", order)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", order.Status)
	}
}

func TestApplyPaymentCapturedTwice(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusCreated}
	if err := Apply(order, PaymentCaptured{At: time.Now()}); err != nil {
		t.Fatalf("first capture: %v", err)
	}
	assertStateConflict(t, Apply(order, PaymentCaptured{At: time.Now()}))
}

func TestApplyDeliveredRequiresPayment(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusCreated}
	assertStateConflict(t, Apply(order, Delivered{At: time.Now()}))
	if order.IsDelivered {
		t.Fatal("rejected event must not mutate the order")
	}
}

func TestApplyDelivered(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusCreated}
	if err := Apply(order, PaymentCaptured{At: time.Now()}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	at := time.Now().UTC()
	if err := Apply(order, Delivered{At: at}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !order.IsDelivered || order.DeliveredAt == nil || !order.DeliveredAt.Equal(at) {
		t.Fatalf("delivered flags not set: %+v", order)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered status, got %s", order.Status)
	}
}

func TestApplyDeliveredTwice(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusCreated}
	if err := Apply(order, PaymentCaptured{At: time.Now()}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := Apply(order, Delivered{At: time.Now()}); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	assertStateConflict(t, Apply(order, Delivered{At: time.Now()}))
}
