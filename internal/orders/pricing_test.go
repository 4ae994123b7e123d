package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/internal/cart"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/shopspring/decimal"
)

func pricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.15"),
		FreeShippingThreshold: decimal.RequireFromString("200"),
		FlatShippingRate:      decimal.RequireFromString("15"),
	}
}

func item(price string, qty int) cart.Item {
	return cart.Item{
		ProductID: uuid.New(),
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func assertMoney(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got)
	}
}

func TestPriceCartFlatShippingUnderThreshold(t *testing.T) {
	quote := PriceCart([]cart.Item{item("90.00", 1)}, pricingConfig())

	assertMoney(t, "items", quote.ItemsPrice, "90.00")
	assertMoney(t, "tax", quote.TaxPrice, "13.50")
	assertMoney(t, "shipping", quote.ShippingPrice, "15.00")
	assertMoney(t, "total", quote.TotalPrice, "118.50")
}

func TestPriceCartFreeShippingOverThreshold(t *testing.T) {
	quote := PriceCart([]cart.Item{item("70.00", 3)}, pricingConfig())

	assertMoney(t, "items", quote.ItemsPrice, "210.00")
	assertMoney(t, "tax", quote.TaxPrice, "31.50")
	assertMoney(t, "shipping", quote.ShippingPrice, "0.00")
	assertMoney(t, "total", quote.TotalPrice, "241.50")
}

func TestPriceCartExactlyAtThresholdPaysShipping(t *testing.T) {
	quote := PriceCart([]cart.Item{item("100.00", 2)}, pricingConfig())

	assertMoney(t, "shipping", quote.ShippingPrice, "15.00")
	assertMoney(t, "total", quote.TotalPrice, "245.00")
}

func TestPriceCartRoundsComponentsBeforeSumming(t *testing.T) {
	// 3 x 33.33 = 99.99; tax 14.9985 rounds to 15.00.
	quote := PriceCart([]cart.Item{item("33.33", 3)}, pricingConfig())

	assertMoney(t, "items", quote.ItemsPrice, "99.99")
	assertMoney(t, "tax", quote.TaxPrice, "15.00")
	assertMoney(t, "total", quote.TotalPrice, "129.99")

	sum := quote.ItemsPrice.Add(quote.TaxPrice).Add(quote.ShippingPrice)
	if !quote.TotalPrice.Equal(sum) {
		t.Fatalf("total %s does not equal component sum %s", quote.TotalPrice, sum)
	}
}

func TestPriceCartMultipleLines(t *testing.T) {
	quote := PriceCart([]cart.Item{item("90.00", 1), item("75.00", 2)}, pricingConfig())

	assertMoney(t, "items", quote.ItemsPrice, "240.00")
	assertMoney(t, "shipping", quote.ShippingPrice, "0.00")
	assertMoney(t, "tax", quote.TaxPrice, "36.00")
	assertMoney(t, "total", quote.TotalPrice, "276.00")
}
