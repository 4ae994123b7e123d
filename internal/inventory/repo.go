package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes stock reads and the guarded decrement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.InventoryItem, error)
	Decrement(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.InventoryItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Decrement reserves stock with a single guarded UPDATE. The available_qty
// check inside the WHERE clause makes concurrent checkouts serialize at the
// row level, so two buyers can never both take the last unit.
func (r *repository) Decrement(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND available_qty >= ?", productID, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty - ?", qty),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
