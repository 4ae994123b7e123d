package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/api/middleware"
	ordersvc "github.com/mateovidal/storelane-backend/internal/orders"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type stubOrdersService struct {
	order *models.Order
	list  []models.Order
	next  string
	err   error

	checkoutInput ordersvc.CheckoutInput
	deliverInput  ordersvc.DeliverInput
}

func (s *stubOrdersService) Checkout(ctx context.Context, input ordersvc.CheckoutInput) (*models.Order, error) {
	s.checkoutInput = input
	return s.order, s.err
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorRole enums.UserRole) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return s.list, s.next, s.err
}

func (s *stubOrdersService) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return s.list, s.next, s.err
}

func (s *stubOrdersService) Deliver(ctx context.Context, input ordersvc.DeliverInput) (*models.Order, error) {
	s.deliverInput = input
	return s.order, s.err
}

func placedOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     enums.OrderStatusCreated,
		TotalPrice: decimal.RequireFromString("118.50"),
	}
}

func TestCheckoutCreated(t *testing.T) {
	svc := &stubOrdersService{order: placedOrder(uuid.New())}
	handler := Checkout(svc, nil)

	body := `{
		"payment_method": "card",
		"shipping_address": {
			"full_name": "Test Buyer",
			"line1": "123 Test Ave",
			"city": "Norman",
			"postal_code": "73072",
			"country": "US"
		}
	}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.checkoutInput.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("unexpected payment method: %s", svc.checkoutInput.PaymentMethod)
	}
	if svc.checkoutInput.ShippingAddress.City != "Norman" {
		t.Fatalf("address not forwarded: %+v", svc.checkoutInput.ShippingAddress)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != svc.order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.ID)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	handler := Checkout(&stubOrdersService{}, nil)

	body := `{"payment_method":"barter","shipping_address":{"full_name":"B","line1":"1","city":"C","postal_code":"0","country":"US"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutEmptyCartConflict(t *testing.T) {
	handler := Checkout(&stubOrdersService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}, nil)

	body := `{"payment_method":"card","shipping_address":{"full_name":"B","line1":"1","city":"C","postal_code":"0","country":"US"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "cart is empty" {
		t.Fatalf("unexpected error message: %q", envelope.Error.Message)
	}
}

func TestGetOrderInvalidID(t *testing.T) {
	handler := GetOrder(&stubOrdersService{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", "")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminDeliverForwardsActor(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: placedOrder(uuid.New())}
	handler := AdminDeliverOrder(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/deliver", "")
	req = req.WithContext(middleware.WithRole(req.Context(), "admin"))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.deliverInput.OrderID != orderID {
		t.Fatalf("unexpected order id: %s", svc.deliverInput.OrderID)
	}
	if svc.deliverInput.ActorRole != enums.UserRoleAdmin {
		t.Fatalf("unexpected actor role: %s", svc.deliverInput.ActorRole)
	}
}

func TestListMyOrdersBadLimit(t *testing.T) {
	handler := ListMyOrders(&stubOrdersService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?limit=abc", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
