package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a single product line held in a shopper's cart. StockOnHand is the
// available quantity observed when the line was last touched; it is a display
// hint, not a reservation.
type Item struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	ImageURL    string          `json:"image_url"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	StockOnHand int             `json:"stock_on_hand"`
}

// Cart holds the ordered list of items a shopper intends to buy. Item order is
// insertion order; re-adding a product merges quantities in place.
type Cart struct {
	Items []Item `json:"items"`
}

// Add merges the item into the cart. An existing line for the same product
// absorbs the quantity and refreshes the snapshot fields.
func (c *Cart) Add(item Item) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			item.Quantity += c.Items[i].Quantity
			c.Items[i] = item
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove drops the line for the given product, if present.
func (c *Cart) Remove(productID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Quantity returns the quantity currently held for the product.
func (c *Cart) Quantity(productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// TotalQuantity sums the quantities over all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal sums unit price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
