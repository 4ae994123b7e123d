package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/internal/cart"
	"github.com/mateovidal/storelane-backend/internal/inventory"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/outbox"
	"github.com/mateovidal/storelane-backend/pkg/pagination"
	"github.com/mateovidal/storelane-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockReserver interface {
	ValidateForCheckout(ctx context.Context, lines []inventory.Line) error
	Reserve(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

type cartReader interface {
	Load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CheckoutInput carries everything needed to place an order.
type CheckoutInput struct {
	UserID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.Address
}

// DeliverInput identifies the order and the admin confirming delivery.
type DeliverInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// Service defines the order lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorRole enums.UserRole) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	Deliver(ctx context.Context, input DeliverInput) (*models.Order, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	stock      stockReserver
	cart       cartReader
	pricingCfg config.PricingConfig
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Outbox        outboxPublisher
	Stock         stockReserver
	Cart          cartReader
	PricingConfig config.PricingConfig
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		stock:      params.Stock,
		cart:       params.Cart,
		pricingCfg: params.PricingConfig,
	}, nil
}

// Checkout validates the cart against stock, reserves every line, snapshots
// the items and prices, and writes the order plus its created event in one
// transaction.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}

	userCart, err := s.cart.Load(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if userCart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]inventory.Line, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := s.stock.ValidateForCheckout(ctx, lines); err != nil {
		return nil, err
	}

	quote := PriceCart(userCart.Items, s.pricingCfg)

	order := &models.Order{
		UserID:          input.UserID,
		Status:          enums.OrderStatusCreated,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		TotalPrice:      quote.TotalPrice,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.stock.Reserve(ctx, tx, lines); err != nil {
			return err
		}

		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(userCart.Items))
		for _, item := range userCart.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				ImageURL:  item.ImageURL,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.UserRoleCustomer)},
			Data: OrderCreatedEvent{
				OrderID:    order.ID,
				UserID:     input.UserID,
				TotalPrice: order.TotalPrice,
				ItemCount:  len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// Cart clear is best-effort; a stale cart cannot alter the placed order.
	_ = s.cart.Clear(ctx, input.UserID)

	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorRole enums.UserRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.UserID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return paginate(rows, limit)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return paginate(rows, limit)
}

// Deliver confirms delivery on a paid order. The repository update re-checks
// the paid/undelivered precondition, so a concurrent deliver resolves to one
// winner and the loser gets a state conflict.
func (s *service) Deliver(ctx context.Context, input DeliverInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	var delivered *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := time.Now().UTC()
		if err := Apply(order, Delivered{At: now}); err != nil {
			return err
		}

		ok, err := repo.MarkDelivered(ctx, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark delivered")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already delivered")
		}

		delivered = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDelivered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)},
			Data: OrderDeliveredEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return delivered, nil
}

func paginate(rows []models.Order, limit int) ([]models.Order, string, error) {
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
