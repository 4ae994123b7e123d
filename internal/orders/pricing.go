package orders

import (
	"github.com/mateovidal/storelane-backend/internal/cart"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// Quote is the price breakdown fixed at checkout time.
type Quote struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// PriceCart computes the order totals from the cart snapshot. Each component
// is rounded to cents before summing, so total always equals the sum of the
// displayed components.
func PriceCart(items []cart.Item, cfg config.PricingConfig) Quote {
	itemsPrice := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsPrice = itemsPrice.Add(line)
	}
	itemsPrice = itemsPrice.Round(2)

	taxPrice := itemsPrice.Mul(cfg.TaxRate).Round(2)

	shippingPrice := cfg.FlatShippingRate
	if itemsPrice.GreaterThan(cfg.FreeShippingThreshold) {
		shippingPrice = decimal.Zero
	}
	shippingPrice = shippingPrice.Round(2)

	return Quote{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice.Add(taxPrice).Add(shippingPrice).Round(2),
	}
}
