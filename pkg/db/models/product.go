package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry shoppers can browse and order.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Slug        string          `gorm:"type:text;not null;uniqueIndex:idx_products_slug" json:"slug"`
	Category    string          `gorm:"type:text;not null" json:"category"`
	Brand       string          `gorm:"type:text" json:"brand"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"type:text" json:"image_url"`
	ExtraImages pq.StringArray  `gorm:"type:text[]" json:"extra_images,omitempty"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Rating      decimal.Decimal `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	NumReviews  int             `gorm:"not null;default:0" json:"num_reviews"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updated_at"`

	Inventory *InventoryItem `gorm:"foreignKey:ProductID" json:"inventory,omitempty"`
}

// TableName overrides the default GORM table name.
func (Product) TableName() string {
	return "products"
}
