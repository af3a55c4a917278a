package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/internal/pricing"
	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
	"github.com/massanostra/pizzeria-backend/pkg/ordernum"
)

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderRepo struct {
	nextID     int64
	orders     map[int64]*models.Order
	history    []models.OrderStatusHistory
	transition func(id int64, from, to enums.OrderStatus) (bool, error)
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{nextID: 100, orders: map[int64]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = time.Now().UTC()
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) SetOrderNumber(_ context.Context, id int64, orderNumber string) error {
	if o, ok := s.orders[id]; ok {
		o.OrderNumber = orderNumber
	}
	return nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id int64) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, _, _ int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) List(_ context.Context, filter ListFilter) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrderRepo) TransitionStatus(_ context.Context, id int64, from, to enums.OrderStatus, at time.Time) (bool, error) {
	if s.transition != nil {
		return s.transition(id, from, to)
	}
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *stubOrderRepo) AppendHistory(_ context.Context, entry *models.OrderStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubOrderRepo) SoftDelete(_ context.Context, id int64, at time.Time) error {
	if o, ok := s.orders[id]; ok {
		o.DeletedAt = &at
	}
	return nil
}

type stubDirectory struct {
	customers map[uuid.UUID]*models.Customer
	addresses map[uuid.UUID]*models.Address
}

func (s *stubDirectory) FindCustomer(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubDirectory) FindAddress(_ context.Context, id uuid.UUID) (*models.Address, error) {
	if a, ok := s.addresses[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPricer struct {
	quote *pricing.Quote
	err   error
}

func (s *stubPricer) Price(context.Context, []pricing.ItemSelection) (*pricing.Quote, error) {
	return s.quote, s.err
}

type stubNotifier struct {
	adminOrders   []int64
	statusChanges []enums.OrderStatus
	alertErr      error
}

func (s *stubNotifier) NewOrderForAdmin(_ context.Context, order *models.Order) {
	s.adminOrders = append(s.adminOrders, order.ID)
}

func (s *stubNotifier) OrderStatusChanged(_ context.Context, order *models.Order) {
	s.statusChanges = append(s.statusChanges, order.Status)
}

func (s *stubNotifier) SendAdminAlert(context.Context, *models.Order) error {
	return s.alertErr
}

type stubLimiter struct {
	allowed bool
	count   int64
	err     error
	scopes  []string
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	s.scopes = append(s.scopes, scope)
	return s.allowed, s.count, s.err
}

func (s *stubLimiter) DeliveryTokenKey(orderID int64) string {
	return "delivery_token"
}

type stubReceipts struct {
	orders []*models.Order
	err    error
}

func (s *stubReceipts) Generate(_ context.Context, order *models.Order, _ *models.Customer) (*models.Receipt, error) {
	s.orders = append(s.orders, order)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Receipt{OrderID: order.ID}, nil
}

type ordersFixture struct {
	service    Service
	repo       *stubOrderRepo
	directory  *stubDirectory
	pricer     *stubPricer
	notifier   *stubNotifier
	limiter    *stubLimiter
	receipts   *stubReceipts
	customerID uuid.UUID
	addressID  uuid.UUID
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	customerID := uuid.New()
	addressID := uuid.New()
	fx := &ordersFixture{
		repo: newStubOrderRepo(),
		directory: &stubDirectory{
			customers: map[uuid.UUID]*models.Customer{
				customerID: {ID: customerID, Name: "Giovanna Rossi"},
			},
			addresses: map[uuid.UUID]*models.Address{
				addressID: {ID: addressID, CustomerID: customerID},
			},
		},
		pricer: &stubPricer{quote: &pricing.Quote{
			Items: []models.OrderItem{{
				VariantID:   uuid.New(),
				ProductName: "Margherita",
				VariantName: "Grande",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("49.90"),
				LineTotal:   decimal.RequireFromString("99.80"),
			}},
			Subtotal: decimal.RequireFromString("99.80"),
		}},
		notifier:   &stubNotifier{},
		limiter:    &stubLimiter{allowed: true},
		receipts:   &stubReceipts{},
		customerID: customerID,
		addressID:  addressID,
	}

	logg := logger.New(logger.Options{ServiceName: "orders-test"})
	svc, err := NewService(
		stubTx{}, fx.repo, fx.directory, fx.pricer, fx.notifier, fx.limiter,
		fx.receipts, nil,
		config.OrdersConfig{DeliveryFee: "5.00", EstimatedTimeMinutes: 45},
		config.TokenLimitConfig{Window: time.Minute, Attempts: 5},
		logg,
	)
	require.NoError(t, err)
	fx.service = svc
	return fx
}

func (fx *ordersFixture) createOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := fx.service.Create(context.Background(), CreateOrderInput{
		CustomerID:    fx.customerID,
		AddressID:     fx.addressID,
		PaymentMethod: enums.PaymentMethodPix,
		Items:         []pricing.ItemSelection{{VariantID: uuid.New(), Quantity: 2}},
	})
	require.NoError(t, err)
	return order
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, code, coded.Code())
}

func TestCreateOrder(t *testing.T) {
	fx := newOrdersFixture(t)

	order := fx.createOrder(t)

	assert.True(t, ordernum.Valid(order.OrderNumber), "order number %q", order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "104.80", order.Total.StringFixed(2))
	assert.Equal(t, "5.00", order.DeliveryFee.StringFixed(2))
	assert.True(t, order.Discount.IsZero())
	assert.Equal(t, 45, order.EstimatedTime)
	assert.Len(t, order.DeliveryToken, 6)

	require.Len(t, fx.repo.history, 1)
	assert.Equal(t, enums.OrderStatusPending, fx.repo.history[0].Status)
	assert.Nil(t, fx.repo.history[0].Previous)

	assert.Equal(t, []int64{order.ID}, fx.notifier.adminOrders)
}

func TestCreateOrderGuards(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()
	items := []pricing.ItemSelection{{VariantID: uuid.New(), Quantity: 1}}

	t.Run("missing customer identity", func(t *testing.T) {
		_, err := fx.service.Create(ctx, CreateOrderInput{
			AddressID: fx.addressID, PaymentMethod: enums.PaymentMethodPix, Items: items,
		})
		assertCode(t, err, pkgerrors.CodeUnauthorized)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := fx.service.Create(ctx, CreateOrderInput{
			CustomerID: uuid.New(), AddressID: fx.addressID,
			PaymentMethod: enums.PaymentMethodPix, Items: items,
		})
		assertCode(t, err, pkgerrors.CodeNotFound)
	})

	t.Run("invalid payment method", func(t *testing.T) {
		_, err := fx.service.Create(ctx, CreateOrderInput{
			CustomerID: fx.customerID, AddressID: fx.addressID,
			PaymentMethod: enums.PaymentMethod("check"), Items: items,
		})
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("foreign address", func(t *testing.T) {
		otherAddr := uuid.New()
		fx.directory.addresses[otherAddr] = &models.Address{ID: otherAddr, CustomerID: uuid.New()}
		_, err := fx.service.Create(ctx, CreateOrderInput{
			CustomerID: fx.customerID, AddressID: otherAddr,
			PaymentMethod: enums.PaymentMethodPix, Items: items,
		})
		assertCode(t, err, pkgerrors.CodeForbidden)
	})
}

func TestTransitionStatus(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()
	order := fx.createOrder(t)

	confirmed, err := fx.service.ConfirmPending(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	preparing, err := fx.service.TransitionStatus(ctx, TransitionInput{
		OrderID: order.ID, To: enums.OrderStatusPreparing,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, preparing.Status)
	require.NotNil(t, preparing.StartedPreparingAt)

	// pending creation + confirm + preparing
	require.Len(t, fx.repo.history, 3)
	assert.Equal(t, enums.OrderStatusConfirmed, *fx.repo.history[2].Previous)

	// confirmed and preparing both push realtime events
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}, fx.notifier.statusChanges)

	// only the confirmation produced a receipt
	require.Len(t, fx.receipts.orders, 1)
	assert.Equal(t, order.ID, fx.receipts.orders[0].ID)
}

func TestTransitionStatusReceiptFailureTolerated(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()
	order := fx.createOrder(t)

	fx.receipts.err = errors.New("printer on fire")

	confirmed, err := fx.service.ConfirmPending(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)
	require.Len(t, fx.repo.history, 2)
	require.Len(t, fx.receipts.orders, 1)
}

func TestTransitionStatusRejections(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()
	order := fx.createOrder(t)

	t.Run("skipping a step", func(t *testing.T) {
		_, err := fx.service.TransitionStatus(ctx, TransitionInput{
			OrderID: order.ID, To: enums.OrderStatusPreparing,
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})

	t.Run("same status", func(t *testing.T) {
		_, err := fx.service.TransitionStatus(ctx, TransitionInput{
			OrderID: order.ID, To: enums.OrderStatusPending,
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := fx.service.TransitionStatus(ctx, TransitionInput{
			OrderID: order.ID, To: enums.OrderStatus("returned"),
		})
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("concurrent swap loses", func(t *testing.T) {
		fx.repo.transition = func(int64, enums.OrderStatus, enums.OrderStatus) (bool, error) {
			return false, nil
		}
		defer func() { fx.repo.transition = nil }()
		_, err := fx.service.TransitionStatus(ctx, TransitionInput{
			OrderID: order.ID, To: enums.OrderStatusConfirmed,
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})
}

func TestCancel(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	t.Run("pending order cancels", func(t *testing.T) {
		order := fx.createOrder(t)
		cancelled, err := fx.service.Cancel(ctx, order.ID, fx.customerID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("confirmed order refuses customer cancel", func(t *testing.T) {
		order := fx.createOrder(t)
		_, err := fx.service.ConfirmPending(ctx, order.ID, nil)
		require.NoError(t, err)
		_, err = fx.service.Cancel(ctx, order.ID, fx.customerID)
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})

	t.Run("foreign order refuses cancel", func(t *testing.T) {
		order := fx.createOrder(t)
		_, err := fx.service.Cancel(ctx, order.ID, uuid.New())
		assertCode(t, err, pkgerrors.CodeForbidden)
	})
}

func outForDelivery(t *testing.T, fx *ordersFixture) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := fx.createOrder(t)
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusConfirmed, enums.OrderStatusPreparing, enums.OrderStatusOnDelivery,
	} {
		_, err := fx.service.TransitionStatus(ctx, TransitionInput{OrderID: order.ID, To: status})
		require.NoError(t, err)
	}
	return fx.repo.orders[order.ID]
}

func TestValidateDeliveryToken(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token delivers", func(t *testing.T) {
		fx := newOrdersFixture(t)
		order := outForDelivery(t, fx)
		delivered, err := fx.service.ValidateDeliveryToken(ctx, ValidateTokenInput{
			OrderID: order.ID, Token: order.DeliveryToken,
		})
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
		require.NotNil(t, delivered.DeliveredAt)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		fx := newOrdersFixture(t)
		order := outForDelivery(t, fx)
		_, err := fx.service.ValidateDeliveryToken(ctx, ValidateTokenInput{
			OrderID: order.ID, Token: "000000",
		})
		assert.ErrorIs(t, err, ErrTokenMismatch)
		assert.Equal(t, enums.OrderStatusOnDelivery, fx.repo.orders[order.ID].Status)
	})

	t.Run("order not out for delivery", func(t *testing.T) {
		fx := newOrdersFixture(t)
		order := fx.createOrder(t)
		_, err := fx.service.ValidateDeliveryToken(ctx, ValidateTokenInput{
			OrderID: order.ID, Token: order.DeliveryToken,
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	})

	t.Run("throttled after repeated attempts", func(t *testing.T) {
		fx := newOrdersFixture(t)
		order := outForDelivery(t, fx)
		fx.limiter.allowed = false
		fx.limiter.count = 6
		_, err := fx.service.ValidateDeliveryToken(ctx, ValidateTokenInput{
			OrderID: order.ID, Token: order.DeliveryToken,
		})
		assertCode(t, err, pkgerrors.CodeRateLimit)
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		fx := newOrdersFixture(t)
		order := outForDelivery(t, fx)
		fx.limiter.err = errors.New("redis down")
		delivered, err := fx.service.ValidateDeliveryToken(ctx, ValidateTokenInput{
			OrderID: order.ID, Token: order.DeliveryToken,
		})
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	})
}
