package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/mateovidal/storelane-backend/internal/orders"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/outbox"
	"github.com/mateovidal/storelane-backend/pkg/pagination"
	"github.com/mateovidal/storelane-backend/pkg/square"
	"github.com/mateovidal/storelane-backend/pkg/types"
)

type stubIntentRepo struct {
	byOrder map[uuid.UUID]*models.PaymentIntent
}

func newStubIntentRepo() *stubIntentRepo {
	return &stubIntentRepo{byOrder: make(map[uuid.UUID]*models.PaymentIntent)}
}

func (r *stubIntentRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	intent.ID = uuid.New()
	r.byOrder[intent.OrderID] = intent
	return intent, nil
}

func (r *stubIntentRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentIntent, error) {
	intent, ok := r.byOrder[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return intent, nil
}

func (r *stubIntentRepo) Update(ctx context.Context, intent *models.PaymentIntent) error {
	r.byOrder[intent.OrderID] = intent
	return nil
}

type stubOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (r *stubOrderStore) WithTx(tx *gorm.DB) orders.Repository { return r }

func (r *stubOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *stubOrderStore) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (r *stubOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *stubOrderStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderStore) ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderStore) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	order, ok := r.orders[id]
	if !ok || order.IsPaid {
		return false, nil
	}
	order.IsPaid = true
	order.PaidAt = &at
	order.Status = enums.OrderStatusPaid
	return true, nil
}

func (r *stubOrderStore) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return false, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubGateway struct {
	authorizeResult *sq.Payment
	authorizeErr    error
	authorizeCalls  int
	getResult       *sq.Payment
	getErr          error
	captureResult   *sq.Payment
	captureErr      error
	captureCalls    int
}

func (g *stubGateway) AuthorizePayment(ctx context.Context, params square.PaymentAuthorizeParams) (*sq.Payment, error) {
	g.authorizeCalls++
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	return g.authorizeResult, nil
}

func (g *stubGateway) CapturePayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	g.captureCalls++
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	return g.captureResult, nil
}

func (g *stubGateway) GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.getResult, nil
}

func gatewayPayment(id, status string, cents int64) *sq.Payment {
	currency := sq.Currency("USD")
	return &sq.Payment{
		ID:     &id,
		Status: &status,
		AmountMoney: &sq.Money{
			Amount:   &cents,
			Currency: &currency,
		},
	}
}

type paymentFixture struct {
	svc     Service
	intents *stubIntentRepo
	orders  *stubOrderStore
	outbox  *stubOutbox
	gateway *stubGateway
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		intents: newStubIntentRepo(),
		orders:  newStubOrderStore(),
		outbox:  &stubOutbox{},
		gateway: &stubGateway{},
	}
	svc, err := NewService(ServiceParams{
		Repo:      f.intents,
		OrderRepo: f.orders,
		Tx:        stubTx{},
		Outbox:    f.outbox,
		Gateway:   f.gateway,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *paymentFixture) seedOrder(t *testing.T, userID uuid.UUID, total string) *models.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), &models.Order{
		UserID:        userID,
		Status:        enums.OrderStatusCreated,
		PaymentMethod: enums.PaymentMethodCard,
		TotalPrice:    decimal.RequireFromString(total),
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestInitiateAuthorizesOrderTotal(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "118.50")
	f.gateway.authorizeResult = gatewayPayment("pay-1", "APPROVED", 11850)

	intent, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		SourceID:    "cnon:card-nonce",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if intent.GatewayPaymentID != "pay-1" {
		t.Fatalf("expected gateway payment id recorded, got %q", intent.GatewayPaymentID)
	}
	if intent.Status != enums.PaymentStatusAuthorized {
		t.Fatalf("expected authorized intent, got %s", intent.Status)
	}
	if !intent.Amount.Equal(order.TotalPrice) {
		t.Fatalf("intent amount %s does not match order total %s", intent.Amount, order.TotalPrice)
	}
}

func TestInitiateIsIdempotent(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	f.gateway.authorizeResult = gatewayPayment("pay-1", "APPROVED", 5000)

	input := InitiateInput{OrderID: order.ID, ActorUserID: userID, SourceID: "cnon:card-nonce"}
	first, err := f.svc.Initiate(context.Background(), input)
	if err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	second, err := f.svc.Initiate(context.Background(), input)
	if err != nil {
		t.Fatalf("second initiate: %v", err)
	}

	if first.ID != second.ID || second.GatewayPaymentID != "pay-1" {
		t.Fatalf("expected the existing intent back, got %+v", second)
	}
	if f.gateway.authorizeCalls != 1 {
		t.Fatalf("expected a single authorize call, got %d", f.gateway.authorizeCalls)
	}
}

func TestInitiateRejectsNonCardOrder(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	order.PaymentMethod = enums.PaymentMethodCash

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		SourceID:    "cnon:card-nonce",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestInitiateRejectsForeignOrder(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.seedOrder(t, uuid.New(), "50.00")

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		SourceID:    "cnon:card-nonce",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestInitiatePaidOrder(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	order.IsPaid = true

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		SourceID:    "cnon:card-nonce",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCaptureCompletesPayment(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "118.50")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		ID:               uuid.New(),
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "APPROVED", 11850)
	f.gateway.captureResult = gatewayPayment("pay-1", "COMPLETED", 11850)
	updated := "2026-08-30T12:00:00Z"
	email := "shopper@example.com"
	f.gateway.captureResult.UpdatedAt = &updated
	f.gateway.captureResult.BuyerEmailAddress = &email

	paid, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
		ActorRole:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if !paid.IsPaid || paid.PaidAt == nil {
		t.Fatalf("paid flags not set: %+v", paid)
	}
	if f.gateway.captureCalls != 1 {
		t.Fatalf("expected one capture call, got %d", f.gateway.captureCalls)
	}
	if f.intents.byOrder[order.ID].Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed intent, got %s", f.intents.byOrder[order.ID].Status)
	}
	result := f.intents.byOrder[order.ID].Result
	if result == nil || result.ID != "pay-1" || result.Status != "COMPLETED" {
		t.Fatalf("expected capture result on intent, got %+v", result)
	}
	if result.UpdateTime != updated || result.PayerEmail != email {
		t.Fatalf("expected gateway-reported result fields, got %+v", result)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderPaid {
		t.Fatalf("expected order paid event, got %+v", f.outbox.events)
	}
}

func TestCaptureSkipsGatewayCompleteWhenAlreadyCompleted(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "COMPLETED", 5000)

	if _, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if f.gateway.captureCalls != 0 {
		t.Fatalf("expected no capture call for a completed payment, got %d", f.gateway.captureCalls)
	}
}

func TestCaptureAlreadyPaid(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	paidAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.Status = enums.OrderStatusPaid
	storedResult := &types.PaymentResult{ID: "pay-1", Status: "COMPLETED", UpdateTime: "2026-08-01T10:00:00Z"}
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusCompleted,
		Result:           storedResult,
	}

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	got := f.orders.orders[order.ID]
	if got.PaidAt == nil || !got.PaidAt.Equal(paidAt) {
		t.Fatalf("paid_at must be untouched by a rejected repeat capture, got %v", got.PaidAt)
	}
	intent := f.intents.byOrder[order.ID]
	if intent.Result != storedResult || intent.Result.UpdateTime != "2026-08-01T10:00:00Z" {
		t.Fatalf("stored payment result must be untouched, got %+v", intent.Result)
	}
	if f.gateway.captureCalls != 0 {
		t.Fatalf("rejected repeat capture must not reach the gateway, got %d calls", f.gateway.captureCalls)
	}
}

func TestCaptureAdminCanCaptureForeignOrder(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.seedOrder(t, uuid.New(), "50.00")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "APPROVED", 5000)
	f.gateway.captureResult = gatewayPayment("pay-1", "COMPLETED", 5000)

	paid, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("admin capture: %v", err)
	}
	if !paid.IsPaid {
		t.Fatalf("expected paid order, got %+v", paid)
	}
}

func TestCaptureWithoutInitiation(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCaptureAmountMismatch(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "118.50")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "APPROVED", 100)

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	})
	assertCode(t, err, pkgerrors.CodeConflict)

	if f.orders.orders[order.ID].IsPaid {
		t.Fatal("order must stay unpaid on amount mismatch")
	}
	if f.gateway.captureCalls != 0 {
		t.Fatal("mismatched payment must not be captured")
	}
}

func TestCaptureUncapturableStatus(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "FAILED", 5000)

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCaptureGatewayFailureLeavesOrderUnpaid(t *testing.T) {
	userID := uuid.New()
	f := newPaymentFixture(t)
	order := f.seedOrder(t, userID, "50.00")
	f.intents.byOrder[order.ID] = &models.PaymentIntent{
		OrderID:          order.ID,
		GatewayPaymentID: "pay-1",
		Amount:           order.TotalPrice,
		Status:           enums.PaymentStatusAuthorized,
	}
	f.gateway.getResult = gatewayPayment("pay-1", "APPROVED", 5000)
	f.gateway.captureErr = pkgerrors.New(pkgerrors.CodeDependency, "gateway timeout")

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: userID,
	})
	assertCode(t, err, pkgerrors.CodeDependency)

	if f.orders.orders[order.ID].IsPaid {
		t.Fatal("order must stay unpaid when the gateway call fails")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event must be emitted when the gateway call fails")
	}
}

func TestCaptureForeignOrder(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.seedOrder(t, uuid.New(), "50.00")

	_, err := f.svc.Capture(context.Background(), CaptureInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleCustomer,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}
