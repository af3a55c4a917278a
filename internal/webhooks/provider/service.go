package providerwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/massanostra/pizzeria-backend/internal/orders"
	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
	"github.com/massanostra/pizzeria-backend/pkg/metrics"
	"github.com/massanostra/pizzeria-backend/pkg/pixgateway"
)

const (
	providerName = "pix"

	eventTypePayment = "payment"

	webhookActor = "payment-webhook"
	approvalNote = "approved via webhook"

	dedupeTTL = 24 * time.Hour
)

type paymentRepository interface {
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	// MarkApproved flips the payment to approved only if it is not there
	// yet and reports whether this call won the transition.
	MarkApproved(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type orderService interface {
	TransitionStatus(ctx context.Context, input orders.TransitionInput) (*models.Order, error)
	Get(ctx context.Context, orderID int64) (*models.Order, error)
}

type notifier interface {
	PaymentApproved(ctx context.Context, order *models.Order)
	NewOrderForAdmin(ctx context.Context, order *models.Order)
	SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error
	SendAdminAlert(ctx context.Context, order *models.Order) error
}

type deliveryTracker interface {
	MarkWebhookSeen(ctx context.Context, provider, eventID string, ttl time.Duration) (bool, error)
}

// Input is one inbound provider notification with its advisory headers.
type Input struct {
	Signature   string
	RequestID   string
	DataIDQuery string
	Body        []byte
}

// Result is what the webhook endpoint reports back to the provider. It is
// always delivered with an HTTP success status so the provider does not
// retry deliveries this system has already absorbed.
type Result struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	OrderID       *int64 `json:"order_id,omitempty"`
	OrderNumber   string `json:"order_number,omitempty"`
}

// flexibleID absorbs the provider's habit of sending the payment id as a
// JSON number in some events and a string in others.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexibleID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexibleID(asNumber.String())
		return nil
	}
	return nil
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID     flexibleID `json:"id"`
		Status string     `json:"status"`
	} `json:"data"`
}

type ServiceParams struct {
	Payments   paymentRepository
	Orders     orderService
	Notifier   notifier
	Deliveries deliveryTracker
	Metrics    *metrics.OrderMetrics
	Logger     *logger.Logger
	PixConfig  config.PixConfig
}

// Service reconciles asynchronous payment notifications against local
// payment and order state.
type Service struct {
	payments   paymentRepository
	orders     orderService
	notifier   notifier
	deliveries deliveryTracker
	metrics    *metrics.OrderMetrics
	logger     *logger.Logger
	secret     string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		payments:   params.Payments,
		orders:     params.Orders,
		notifier:   params.Notifier,
		deliveries: params.Deliveries,
		metrics:    params.Metrics,
		logger:     params.Logger,
		secret:     params.PixConfig.WebhookSecret,
	}, nil
}

// Handle processes one provider notification. It never fails the caller:
// every outcome, including internal errors, comes back as a Result the
// endpoint serves with HTTP 200.
func (s *Service) Handle(ctx context.Context, input Input) Result {
	if input.RequestID != "" {
		ctx = s.logger.WithRequestID(ctx, input.RequestID)
	}

	// Advisory only. The payment lookup below is the real authority check.
	if input.Signature != "" && !pixgateway.ValidateSignature(s.secret, string(input.Body), input.Signature) {
		s.logger.Warn(ctx, "webhook signature mismatch, processing anyway")
	}

	var event webhookEvent
	if len(input.Body) > 0 {
		if err := json.Unmarshal(input.Body, &event); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "webhook body is not valid json")
		}
	}

	if event.Type != "" && event.Type != eventTypePayment {
		s.outcome("ignored")
		return Result{OK: true, Message: fmt.Sprintf("event type %q ignored", event.Type)}
	}

	providerPaymentID := string(event.Data.ID)
	if providerPaymentID == "" {
		providerPaymentID = input.DataIDQuery
	}
	if providerPaymentID == "" {
		s.outcome("bad_input")
		return Result{OK: false, Error: "no payment id in body or query"}
	}

	ctx = s.logger.WithField(ctx, "provider_payment_id", providerPaymentID)

	if s.deliveries != nil && input.RequestID != "" {
		first, err := s.deliveries.MarkWebhookSeen(ctx, providerName, input.RequestID, dedupeTTL)
		if err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "webhook dedupe tracker unavailable")
		} else if !first {
			// Processing continues: the conditional approval write is the
			// real duplicate gate. The flag only enriches the log line.
			s.logger.Warn(ctx, "duplicate webhook delivery")
		}
	}

	mapped := enums.FromProviderStatus(event.Data.Status)

	payment, err := s.payments.FindByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		s.outcome("payment_missing")
		s.logger.Warn(ctx, "webhook for unknown payment")
		return Result{OK: true, Message: "payment not found", PaymentStatus: mapped.String()}
	}

	if mapped != enums.PaymentStatusApproved {
		if payment.Status == enums.PaymentStatusApproved {
			s.outcome("stale")
			return Result{OK: true, Message: "payment already approved, ignoring regression", PaymentStatus: enums.PaymentStatusApproved.String()}
		}
		if err := s.payments.UpdateStatus(ctx, payment.ID, mapped); err != nil {
			s.outcome("error")
			s.logger.Error(ctx, "webhook payment status update failed", err)
			return Result{OK: false, Error: "payment status update failed", PaymentStatus: mapped.String()}
		}
		s.outcome("updated")
		return Result{OK: true, Message: "payment status updated", PaymentStatus: mapped.String()}
	}

	won, err := s.payments.MarkApproved(ctx, payment.ID, time.Now().UTC())
	if err != nil {
		s.outcome("error")
		s.logger.Error(ctx, "webhook payment approval failed", err)
		return Result{OK: false, Error: "payment approval failed", PaymentStatus: mapped.String()}
	}
	if !won {
		s.outcome("duplicate")
		return Result{OK: true, Message: "payment already approved", PaymentStatus: mapped.String()}
	}

	s.outcome("approved")

	if payment.OrderID <= 0 {
		s.logger.Warn(ctx, "approved payment has no linked order")
		return Result{OK: true, Message: "payment approved, no linked order", PaymentStatus: mapped.String()}
	}

	order := s.confirmOrder(ctx, payment.OrderID)
	result := Result{OK: true, Message: "payment approved", PaymentStatus: mapped.String()}
	if order != nil {
		result.OrderID = &order.ID
		result.OrderNumber = order.OrderNumber
		s.fanOut(ctx, order)
	}
	return result
}

// confirmOrder moves the paid order to confirmed. When the transition is
// refused (say the order was cancelled while the charge settled) the order
// is still returned so notifications can describe its actual state.
func (s *Service) confirmOrder(ctx context.Context, orderID int64) *models.Order {
	note := approvalNote
	actor := webhookActor
	order, err := s.orders.TransitionStatus(ctx, orders.TransitionInput{
		OrderID: orderID,
		To:      enums.OrderStatusConfirmed,
		ActorID: &actor,
		Note:    &note,
	})
	if err == nil {
		return order
	}

	s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
		"order_id": orderID,
		"error":    err.Error(),
	}), "order confirmation failed after payment approval")

	current, getErr := s.orders.Get(ctx, orderID)
	if getErr != nil {
		s.logger.Error(ctx, "load order after failed confirmation", getErr)
		return nil
	}
	return current
}

// fanOut runs the post-approval side effects. The receipt is produced by
// the order confirmation itself; what remains here is isolated per step so
// a failing mailer never blocks the rest, with errors collected into a
// single warning.
func (s *Service) fanOut(ctx context.Context, order *models.Order) {
	var errs error

	if err := s.notifier.SendOrderConfirmation(ctx, order, order.Customer); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("customer confirmation email: %w", err))
	}
	if err := s.notifier.SendAdminAlert(ctx, order); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("admin alert email: %w", err))
	}
	s.notifier.PaymentApproved(ctx, order)
	s.notifier.NewOrderForAdmin(ctx, order)

	if errs != nil {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"order_id": order.ID,
			"error":    errs.Error(),
		}), "post-approval side effects partially failed")
	}
}

func (s *Service) outcome(name string) {
	s.metrics.IncWebhookOutcome(name)
}
