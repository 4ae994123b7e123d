package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/internal/inventory"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"gorm.io/gorm"
)

type cartStorage interface {
	Load(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, userID uuid.UUID, cart *Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockChecker interface {
	ValidateForCheckout(ctx context.Context, lines []inventory.Line) error
}

// Service exposes cart operations for the storefront.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	store    cartStorage
	products productLoader
	stock    stockChecker
}

// NewService builds a cart service backed by the provided stack.
func NewService(store cartStorage, products productLoader, stock stockChecker) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	return &service{store: store, products: products, stock: stock}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddItem merges the product into the cart after checking the prospective
// quantity against current stock. The stock read here is advisory; checkout
// re-validates and reserves under a transaction.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	prospective := cart.Quantity(productID) + qty
	if err := s.stock.ValidateForCheckout(ctx, []inventory.Line{
		{ProductID: productID, Quantity: prospective},
	}); err != nil {
		return nil, err
	}

	onHand := 0
	if product.Inventory != nil {
		onHand = product.Inventory.AvailableQty
	}
	cart.Add(Item{
		ProductID:   product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		ImageURL:    product.ImageURL,
		UnitPrice:   product.Price,
		Quantity:    qty,
		StockOnHand: onHand,
	})

	if err := s.store.Save(ctx, userID, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return cart, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !cart.Remove(productID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	if err := s.store.Save(ctx, userID, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return cart, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.store.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
