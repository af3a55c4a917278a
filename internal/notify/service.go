package notify

import (
	"context"
	"fmt"

	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

// SSE event names consumed by the web and dashboard clients.
const (
	EventPaymentApproved = "paymentApproved"
	EventNewOrderAdmin   = "newOrderForAdmin"
	EventOrderPreparing  = "orderPreparing"
	EventOrderOnDelivery = "orderOnDelivery"
	EventOrderDelivered  = "orderDelivered"
	EventOrderCancelled  = "orderCancelled"
)

// OrderEvent is the wire payload published for order events.
type OrderEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
}

// Service pushes realtime events and transactional email for order activity.
type Service struct {
	hub    *Hub
	mailer Mailer
	cfg    config.EmailConfig
	logger *logger.Logger
}

// NewService builds a notify service.
func NewService(hub *Hub, mailer Mailer, cfg config.EmailConfig, logg *logger.Logger) (*Service, error) {
	if hub == nil {
		return nil, fmt.Errorf("notify hub required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &Service{hub: hub, mailer: mailer, cfg: cfg, logger: logg}, nil
}

// Hub exposes the underlying hub for SSE handlers.
func (s *Service) Hub() *Hub {
	return s.hub
}

func orderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Total:       order.Total.StringFixed(2),
	}
}

// PaymentApproved tells the customer their PIX payment cleared.
func (s *Service) PaymentApproved(ctx context.Context, order *models.Order) {
	s.hub.PublishToCustomer(order.CustomerID.String(), Event{
		Name: EventPaymentApproved,
		Data: orderEvent(order),
	})
}

// NewOrderForAdmin announces a paid order on the staff dashboard.
func (s *Service) NewOrderForAdmin(ctx context.Context, order *models.Order) {
	s.hub.PublishToAdmins(Event{
		Name: EventNewOrderAdmin,
		Data: orderEvent(order),
	})
}

var eventByStatus = map[enums.OrderStatus]string{
	enums.OrderStatusPreparing:  EventOrderPreparing,
	enums.OrderStatusOnDelivery: EventOrderOnDelivery,
	enums.OrderStatusDelivered:  EventOrderDelivered,
	enums.OrderStatusCancelled:  EventOrderCancelled,
}

// OrderStatusChanged pushes a lifecycle event to the customer and the staff
// dashboard. Statuses without a client-facing event are silently skipped.
func (s *Service) OrderStatusChanged(ctx context.Context, order *models.Order) {
	name, ok := eventByStatus[order.Status]
	if !ok {
		return
	}
	event := Event{Name: name, Data: orderEvent(order)}
	s.hub.PublishToCustomer(order.CustomerID.String(), event)
	s.hub.PublishToAdmins(event)
}

// SendOrderConfirmation emails the customer once their payment is approved.
// Customers without an email address are skipped.
func (s *Service) SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error {
	if customer == nil || customer.Email == nil || *customer.Email == "" {
		if s.logger != nil {
			s.logger.Info(s.logger.WithField(ctx, "order_number", order.OrderNumber),
				"confirmation email skipped: customer has no address")
		}
		return nil
	}
	subject := fmt.Sprintf("Pedido %s confirmado", order.OrderNumber)
	body := fmt.Sprintf(
		"Ola %s,\n\nRecebemos o pagamento do pedido %s no valor de R$ %s.\nTempo estimado de entrega: %d minutos.\n\nMassa Nostra",
		customer.Name, order.OrderNumber, order.Total.StringFixed(2), order.EstimatedTime,
	)
	return s.mailer.Send(ctx, *customer.Email, subject, body)
}

// SendAdminAlert emails the configured staff inbox about a paid order.
func (s *Service) SendAdminAlert(ctx context.Context, order *models.Order) error {
	if s.cfg.AdminTo == "" {
		return nil
	}
	subject := fmt.Sprintf("Novo pedido pago: %s", order.OrderNumber)
	body := fmt.Sprintf("Pedido %s aprovado. Total R$ %s.", order.OrderNumber, order.Total.StringFixed(2))
	return s.mailer.Send(ctx, s.cfg.AdminTo, subject, body)
}
