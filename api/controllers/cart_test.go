package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/api/middleware"
	cartsvc "github.com/mateovidal/storelane-backend/internal/cart"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type stubCartService struct {
	cart *cartsvc.Cart
	err  error
}

func (s stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.err
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.New().String()))
}

func TestGetCartSuccess(t *testing.T) {
	stored := &cartsvc.Cart{Items: []cartsvc.Item{
		{
			ProductID: uuid.New(),
			Name:      "Airframe Headphones",
			UnitPrice: decimal.RequireFromString("89.99"),
			Quantity:  2,
		},
		{
			ProductID: uuid.New(),
			Name:      "Slim Shirt",
			UnitPrice: decimal.RequireFromString("90.00"),
			Quantity:  3,
		},
	}}
	handler := GetCart(stubCartService{cart: stored}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 2 || envelope.Data.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart payload: %+v", envelope.Data)
	}
	if envelope.Data.TotalQuantity != 5 {
		t.Fatalf("expected total quantity 5, got %d", envelope.Data.TotalQuantity)
	}
	if !envelope.Data.Subtotal.Equal(decimal.RequireFromString("449.98")) {
		t.Fatalf("unexpected subtotal %s", envelope.Data.Subtotal)
	}
}

func TestGetCartMissingUserContext(t *testing.T) {
	handler := GetCart(stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAddCartItemRejectsBadQuantity(t *testing.T) {
	handler := AddCartItem(stubCartService{}, nil)

	body := `{"product_id":"` + uuid.New().String() + `","quantity":0}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddCartItemRejectsBadProductID(t *testing.T) {
	handler := AddCartItem(stubCartService{}, nil)

	body := `{"product_id":"not-a-uuid","quantity":1}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddCartItemOutOfStock(t *testing.T) {
	handler := AddCartItem(stubCartService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}, nil)

	body := `{"product_id":"` + uuid.New().String() + `","quantity":3}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
