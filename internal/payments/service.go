package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/pixgateway"
)

type orderReader interface {
	FindByID(ctx context.Context, id int64) (*models.Order, error)
}

type gateway interface {
	CreateCharge(ctx context.Context, params pixgateway.ChargeParams) (*pixgateway.Charge, error)
	GetCharge(ctx context.Context, providerPaymentID string) (*pixgateway.Charge, error)
	Offline() bool
}

// Service drives the PIX payment flow.
type Service interface {
	GeneratePixCharge(ctx context.Context, input GeneratePixInput) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID, customerID uuid.UUID) (*models.Payment, error)
}

// GeneratePixInput identifies the order being paid. AmountCents and
// PayerEmail come from the client and are optional; the order remains the
// source of truth for the charged value.
type GeneratePixInput struct {
	OrderID     int64
	CustomerID  uuid.UUID
	AmountCents int64
	PayerEmail  string
}

type service struct {
	repo    Repository
	orders  orderReader
	gateway gateway
}

// NewService builds a payments service.
func NewService(repo Repository, orders orderReader, gw gateway) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if gw == nil {
		return nil, fmt.Errorf("pix gateway required")
	}
	return &service{repo: repo, orders: orders, gateway: gw}, nil
}

// GeneratePixCharge opens a PIX charge for a pending order. Calling it again
// for the same order returns the existing charge while it is still usable.
func (s *service) GeneratePixCharge(ctx context.Context, input GeneratePixInput) (*models.Payment, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	if order.PaymentMethod != enums.PaymentMethodPix {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable via pix")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	existing, err := s.repo.FindByOrderID(ctx, order.ID)
	switch {
	case err == nil:
		if existing.Status == enums.PaymentStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
		}
		if existing.Status == enums.PaymentStatusPending && !chargeExpired(existing) {
			return existing, nil
		}
		// expired or failed charge: fall through and mint a new one is not
		// possible with the unique order constraint, surface the state
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "existing charge can no longer be paid").
			WithDetails(map[string]any{"payment_status": existing.Status})
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first charge for this order
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	if input.AmountCents > 0 {
		claimed := decimal.New(input.AmountCents, -2)
		if !claimed.Equal(order.Total) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match order total").
				WithDetails(map[string]any{
					"amount":      claimed.StringFixed(2),
					"order_total": order.Total.StringFixed(2),
				})
		}
	}

	payerEmail := input.PayerEmail
	if payerEmail == "" && order.Customer != nil && order.Customer.Email != nil {
		payerEmail = *order.Customer.Email
	}

	charge, err := s.gateway.CreateCharge(ctx, pixgateway.ChargeParams{
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Description: fmt.Sprintf("Pedido %s", order.OrderNumber),
		PayerEmail:  payerEmail,
	})
	if err != nil {
		return nil, err
	}

	expiresAt := charge.ExpiresAt
	payment := &models.Payment{
		OrderID:           order.ID,
		ProviderPaymentID: charge.ProviderPaymentID,
		Status:            enums.FromProviderStatus(charge.Status),
		Amount:            order.Total,
		QRCode:            charge.QRCode,
		QRCodeBase64:      charge.QRCodeBase64,
	}
	if !expiresAt.IsZero() {
		payment.ExpiresAt = &expiresAt
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment")
	}
	return payment, nil
}

// GetPayment returns a payment owned by the customer. Pending charges are
// refreshed against the provider when credentials are configured.
func (s *service) GetPayment(ctx context.Context, paymentID, customerID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to customer")
	}

	if payment.Status == enums.PaymentStatusPending && !s.gateway.Offline() {
		if charge, err := s.gateway.GetCharge(ctx, payment.ProviderPaymentID); err == nil {
			refreshed := enums.FromProviderStatus(charge.Status)
			// approval is reserved for the webhook reconciler so its side
			// effects run exactly once
			if refreshed != payment.Status && refreshed != enums.PaymentStatusApproved {
				if err := s.repo.UpdateStatus(ctx, payment.ID, refreshed); err == nil {
					payment.Status = refreshed
				}
			}
		}
	}
	return payment, nil
}

func chargeExpired(payment *models.Payment) bool {
	return payment.ExpiresAt != nil && payment.ExpiresAt.Before(time.Now())
}
