package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/internal/pricing"
	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
	"github.com/massanostra/pizzeria-backend/pkg/metrics"
	"github.com/massanostra/pizzeria-backend/pkg/ordernum"
	"github.com/massanostra/pizzeria-backend/pkg/token"
)

// ErrTokenMismatch reports a delivery token that does not equal the stored
// one. It is a sentinel so the HTTP layer can answer with a plain negative
// instead of an error envelope.
var ErrTokenMismatch = pkgerrors.New(pkgerrors.CodeValidation, "delivery token does not match")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type directory interface {
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

type pricer interface {
	Price(ctx context.Context, selections []pricing.ItemSelection) (*pricing.Quote, error)
}

type notifier interface {
	NewOrderForAdmin(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order)
	SendAdminAlert(ctx context.Context, order *models.Order) error
}

type tokenLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	DeliveryTokenKey(orderID int64) string
}

type receiptWriter interface {
	Generate(ctx context.Context, order *models.Order, customer *models.Customer) (*models.Receipt, error)
}

// Service owns the order lifecycle from creation to delivery.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID int64) (*models.Order, error)
	GetForCustomer(ctx context.Context, orderID int64, customerID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error)
	TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error)
	ConfirmPending(ctx context.Context, orderID int64, actorID *string) (*models.Order, error)
	Cancel(ctx context.Context, orderID int64, customerID uuid.UUID) (*models.Order, error)
	ValidateDeliveryToken(ctx context.Context, input ValidateTokenInput) (*models.Order, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	directory   directory
	pricer      pricer
	notifier    notifier
	limiter     tokenLimiter
	receipts    receiptWriter
	metrics     *metrics.OrderMetrics
	logger      *logger.Logger
	deliveryFee decimal.Decimal
	estimated   int
	tokenLimit  config.TokenLimitConfig
}

// NewService builds an orders service. The limiter may be nil, in which
// case delivery-token checks run unthrottled; a nil receipt writer skips
// receipt generation on confirmation.
func NewService(
	tx txRunner,
	repo Repository,
	dir directory,
	pricer pricer,
	notifier notifier,
	limiter tokenLimiter,
	receipts receiptWriter,
	orderMetrics *metrics.OrderMetrics,
	cfg config.OrdersConfig,
	tokenLimit config.TokenLimitConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dir == nil {
		return nil, fmt.Errorf("customer directory required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	fee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("parsing delivery fee %q: %w", cfg.DeliveryFee, err)
	}
	return &service{
		tx:          tx,
		repo:        repo,
		directory:   dir,
		pricer:      pricer,
		notifier:    notifier,
		limiter:     limiter,
		receipts:    receipts,
		metrics:     orderMetrics,
		logger:      logg,
		deliveryFee: fee,
		estimated:   cfg.EstimatedTimeMinutes,
		tokenLimit:  tokenLimit,
	}, nil
}

// Create prices the requested items and opens a pending order. The order
// number is derived from the row id, so the insert and the number patch run
// in one transaction.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": string(input.PaymentMethod)})
	}

	if _, err := s.directory.FindCustomer(ctx, input.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	address, err := s.directory.FindAddress(ctx, input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to customer")
	}

	quote, err := s.pricer.Price(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	deliveryToken, err := token.NewDeliveryToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery token")
	}

	discount := decimal.Zero
	order := &models.Order{
		CustomerID:    input.CustomerID,
		AddressID:     input.AddressID,
		Status:        enums.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		Subtotal:      quote.Subtotal,
		DeliveryFee:   s.deliveryFee,
		Discount:      discount,
		Total:         quote.Subtotal.Add(s.deliveryFee).Sub(discount).Round(2),
		EstimatedTime: s.estimated,
		DeliveryToken: deliveryToken,
		Notes:         input.Notes,
		Items:         quote.Items,
	}

	actor := input.CustomerID.String()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		order.OrderNumber = ordernum.Format(order.CreatedAt, order.ID)
		if err := repo.SetOrderNumber(ctx, order.ID, order.OrderNumber); err != nil {
			return fmt.Errorf("assign order number: %w", err)
		}
		entry := &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  enums.OrderStatusPending,
			ActorID: &actor,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.IncOrderCreated(order.PaymentMethod.String())
	s.notifier.NewOrderForAdmin(ctx, order)
	if alertErr := s.notifier.SendAdminAlert(ctx, order); alertErr != nil {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"order_id": order.ID,
			"error":    alertErr.Error(),
		}), "admin alert failed")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	}), "order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// GetForCustomer loads an order and enforces ownership.
func (s *service) GetForCustomer(ctx context.Context, orderID int64, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.repo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// TransitionStatus moves an order one step along its lifecycle. The swap is
// conditional on the status the caller observed, so two racing updates can
// apply at most one.
func (s *service) TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status").
			WithDetails(map[string]any{"status": string(input.To)})
	}

	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if from == input.To {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already in requested status").
			WithDetails(map[string]any{"status": string(from)})
	}
	if !enums.CanTransition(from, input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]any{"from": string(from), "to": string(input.To)})
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.TransitionStatus(ctx, order.ID, from, input.To, now)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		entry := &models.OrderStatusHistory{
			OrderID:  order.ID,
			Status:   input.To,
			Previous: &from,
			Note:     input.Note,
			ActorID:  input.ActorID,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
		return nil
	})
	if err != nil {
		var coded *pkgerrors.Error
		if errors.As(err, &coded) {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order status")
	}

	order.Status = input.To
	stampTransition(order, input.To, now)

	// The conditional swap above ran exactly once, so a receipt for this
	// confirmation cannot be produced twice. Failure never undoes the
	// transition.
	if input.To == enums.OrderStatusConfirmed && s.receipts != nil {
		if _, rcptErr := s.receipts.Generate(ctx, order, order.Customer); rcptErr != nil {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"order_id": order.ID,
				"error":    rcptErr.Error(),
			}), "receipt generation failed")
		}
	}

	s.metrics.IncTransition(from.String(), input.To.String())
	s.notifier.OrderStatusChanged(ctx, order)

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"from":     from.String(),
		"to":       input.To.String(),
	}), "order status changed")
	return order, nil
}

// stampTransition mirrors the timestamp the repository wrote so callers see
// a consistent row without a reload.
func stampTransition(order *models.Order, to enums.OrderStatus, at time.Time) {
	switch to {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &at
	case enums.OrderStatusPreparing:
		order.StartedPreparingAt = &at
	case enums.OrderStatusOnDelivery:
		order.OutForDeliveryAt = &at
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &at
	case enums.OrderStatusCancelled:
		order.CancelledAt = &at
	}
}

// ConfirmPending confirms a pending order on behalf of the payment
// reconciler.
func (s *service) ConfirmPending(ctx context.Context, orderID int64, actorID *string) (*models.Order, error) {
	return s.TransitionStatus(ctx, TransitionInput{
		OrderID: orderID,
		To:      enums.OrderStatusConfirmed,
		ActorID: actorID,
	})
}

// Cancel lets a customer abandon an order that has not been confirmed yet.
// Staff cancellations of later stages go through TransitionStatus.
func (s *service) Cancel(ctx context.Context, orderID int64, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForCustomer(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled by the customer").
			WithDetails(map[string]any{"status": string(order.Status)})
	}
	actor := customerID.String()
	return s.TransitionStatus(ctx, TransitionInput{
		OrderID: orderID,
		To:      enums.OrderStatusCancelled,
		ActorID: &actor,
	})
}

// ValidateDeliveryToken checks the handed-over token for an order that is
// out for delivery and, on a match, marks the order delivered. Attempts are
// throttled per order; a broken limiter never blocks a delivery.
func (s *service) ValidateDeliveryToken(ctx context.Context, input ValidateTokenInput) (*models.Order, error) {
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery token required")
	}

	if s.limiter != nil {
		scope := s.limiter.DeliveryTokenKey(input.OrderID)
		allowed, count, err := s.limiter.FixedWindowAllow(ctx, scope, int64(s.tokenLimit.Attempts), s.tokenLimit.Window)
		switch {
		case err != nil:
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"order_id": input.OrderID,
				"error":    err.Error(),
			}), "delivery token throttle unavailable")
		case !allowed:
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many delivery token attempts").
				WithDetails(map[string]any{"attempts": count})
		}
	}

	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusOnDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not out for delivery").
			WithDetails(map[string]any{"status": string(order.Status)})
	}
	if !token.Matches(order.DeliveryToken, input.Token) {
		return nil, ErrTokenMismatch
	}

	return s.TransitionStatus(ctx, TransitionInput{
		OrderID: input.OrderID,
		To:      enums.OrderStatusDelivered,
		ActorID: input.ActorID,
	})
}
