package orders

import (
	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/internal/pricing"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
)

// CreateOrderInput is everything needed to open a new order.
type CreateOrderInput struct {
	CustomerID    uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	Items         []pricing.ItemSelection
	Notes         *string
}

// TransitionInput moves an order along its lifecycle.
type TransitionInput struct {
	OrderID int64
	To      enums.OrderStatus
	ActorID *string
	Note    *string
}

// ValidateTokenInput checks a delivery token against an order out for
// delivery.
type ValidateTokenInput struct {
	OrderID int64
	Token   string
	ActorID *string
}
