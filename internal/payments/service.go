package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/mateovidal/storelane-backend/internal/orders"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/outbox"
	"github.com/mateovidal/storelane-backend/pkg/square"
	"github.com/mateovidal/storelane-backend/pkg/types"
)

const defaultCurrency = "USD"

// Square reports an authorized, not yet captured payment as APPROVED.
const (
	gatewayStatusApproved  = "APPROVED"
	gatewayStatusCompleted = "COMPLETED"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InitiateInput starts a payment for an order.
type InitiateInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	SourceID    string
}

// CaptureInput completes a previously authorized payment.
type CaptureInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// Service defines the payment operations for orders.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*models.PaymentIntent, error)
	Capture(ctx context.Context, input CaptureInput) (*models.Order, error)
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	tx        txRunner
	outbox    outboxPublisher
	gateway   square.Gateway
}

// ServiceParams bundles the dependencies required to build a payments service.
type ServiceParams struct {
	Repo      Repository
	OrderRepo orders.Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Gateway   square.Gateway
}

// NewService builds a payments service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		repo:      params.Repo,
		orderRepo: params.OrderRepo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		gateway:   params.Gateway,
	}, nil
}

// Initiate authorizes the order total against the gateway and records the
// intent. Re-initiating an already authorized order returns the existing
// intent instead of authorizing twice.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*models.PaymentIntent, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source required")
	}

	order, err := s.loadOwnedOrder(ctx, input.OrderID, input.ActorUserID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodCard {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order payment method does not support online payment")
	}
	if order.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	existing, err := s.repo.FindByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	if existing != nil && existing.Status == enums.PaymentStatusAuthorized && existing.GatewayPaymentID != "" {
		return existing, nil
	}

	payment, err := s.gateway.AuthorizePayment(ctx, square.PaymentAuthorizeParams{
		AmountCents:    amountCents(order),
		Currency:       defaultCurrency,
		SourceID:       input.SourceID,
		IdempotencyKey: fmt.Sprintf("order-%s", order.ID),
		ReferenceID:    order.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	gatewayID := stringValue(payment.GetID())
	if existing != nil {
		existing.GatewayPaymentID = gatewayID
		existing.Status = enums.PaymentStatusAuthorized
		existing.FailureReason = ""
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment intent")
		}
		return existing, nil
	}

	intent := &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: gatewayID,
		Amount:           order.TotalPrice,
		Currency:         defaultCurrency,
		Status:           enums.PaymentStatusAuthorized,
	}
	if _, err := s.repo.Create(ctx, intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	return intent, nil
}

// Capture re-reads the payment from the gateway, verifies amount and status
// against the order, completes the charge, and flips the order to paid. The
// gateway record is authoritative; nothing from the client request decides
// the amount.
func (s *service) Capture(ctx context.Context, input CaptureInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadOrderForActor(ctx, input.OrderID, input.ActorUserID, input.ActorRole)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	intent, err := s.repo.FindByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not initiated")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	if intent.GatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not initiated")
	}

	payment, err := s.gateway.GetPayment(ctx, intent.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyGatewayPayment(order, payment); err != nil {
		return nil, err
	}

	latest := payment
	if stringValue(payment.GetStatus()) != gatewayStatusCompleted {
		captured, err := s.gateway.CapturePayment(ctx, intent.GatewayPaymentID)
		if err != nil {
			return nil, err
		}
		if captured != nil {
			latest = captured
		}
	}

	now := time.Now().UTC()
	result := &types.PaymentResult{
		ID:         intent.GatewayPaymentID,
		Status:     stringValue(latest.GetStatus()),
		UpdateTime: stringValue(latest.GetUpdatedAt()),
		PayerEmail: stringValue(latest.GetBuyerEmailAddress()),
	}
	if result.Status == "" {
		result.Status = gatewayStatusCompleted
	}
	if result.UpdateTime == "" {
		result.UpdateTime = now.Format(time.RFC3339)
	}
	if result.PayerEmail == "" {
		result.PayerEmail = stringValue(payment.GetBuyerEmailAddress())
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		intentRepo := s.repo.WithTx(tx)

		if err := orders.Apply(order, orders.PaymentCaptured{At: now, GatewayPaymentID: intent.GatewayPaymentID}); err != nil {
			return err
		}

		ok, err := orderRepo.MarkPaid(ctx, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark paid")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
		}

		intent.Status = enums.PaymentStatusCompleted
		intent.Result = result
		if err := intentRepo.Update(ctx, intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment intent")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)},
			Data: orders.OrderPaidEvent{
				OrderID:          order.ID,
				UserID:           order.UserID,
				GatewayPaymentID: intent.GatewayPaymentID,
				TotalPrice:       order.TotalPrice,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// loadOwnedOrder fetches the order and requires the actor to own it,
// regardless of role.
func (s *service) loadOwnedOrder(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	return s.loadOrderForActor(ctx, orderID, actorID, enums.UserRoleCustomer)
}

// loadOrderForActor fetches the order and enforces ownership. Admins may act
// on any order.
func (s *service) loadOrderForActor(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actorID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) verifyGatewayPayment(order *models.Order, payment *sq.Payment) error {
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no payment")
	}

	status := stringValue(payment.GetStatus())
	if status != gatewayStatusApproved && status != gatewayStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not capturable").
			WithDetails(map[string]any{"gateway_status": status})
	}

	money := payment.GetAmountMoney()
	if money == nil || money.Amount == nil || *money.Amount != amountCents(order) {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment amount does not match order total")
	}
	return nil
}

func amountCents(order *models.Order) int64 {
	return order.TotalPrice.Shift(2).IntPart()
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
