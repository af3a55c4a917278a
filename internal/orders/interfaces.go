package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	"github.com/massanostra/pizzeria-backend/pkg/enums"
)

// ListFilter narrows staff order listings.
type ListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Offset int
}

// Repository persists orders and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	SetOrderNumber(ctx context.Context, id int64, orderNumber string) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	// TransitionStatus performs a compare-and-swap on the order status and
	// stamps the lifecycle timestamp column, reporting whether the row moved.
	TransitionStatus(ctx context.Context, id int64, from, to enums.OrderStatus, at time.Time) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}
