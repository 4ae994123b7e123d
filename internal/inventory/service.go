package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"gorm.io/gorm"
)

// Line is a product/quantity pair to validate or reserve.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service defines stock operations used by checkout.
type Service interface {
	ValidateForCheckout(ctx context.Context, lines []Line) error
	Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error
}

type service struct {
	repo Repository
}

// NewService builds an inventory service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

// ValidateForCheckout checks every requested line against current stock and
// fails on the first shortage, in line order.
func (s *service) ValidateForCheckout(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		ids = append(ids, line.ProductID)
	}

	items, err := s.repo.FindByProductIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	available := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		available[item.ProductID] = item.AvailableQty
	}

	for _, line := range lines {
		qty, tracked := available[line.ProductID]
		if !tracked || qty < line.Quantity {
			return outOfStock(line.ProductID)
		}
	}
	return nil
}

// Reserve decrements stock for every line inside the caller's transaction.
// The first shortage aborts and rolls back all prior decrements.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error {
	repo := s.repo.WithTx(tx)
	for _, line := range lines {
		ok, err := repo.Decrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return outOfStock(line.ProductID)
		}
	}
	return nil
}

func outOfStock(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "product out of stock").
		WithDetails(map[string]any{"product_id": productID.String()})
}
