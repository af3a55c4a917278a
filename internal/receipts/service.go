// Package receipts renders and stores the proof of purchase generated when a
// payment is approved.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

// Repository persists receipts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByOrderID(ctx context.Context, orderID int64) (*models.Receipt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a receipts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID int64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Service generates receipts for approved orders.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService builds a receipts service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipts repository required")
	}
	return &Service{repo: repo, logger: logg}, nil
}

// Generate writes the receipt for an order. It first tries to attach the
// customer email; if that insert fails for any reason other than the receipt
// already existing, it retries once without the email so a malformed address
// never blocks the paper trail.
func (s *Service) Generate(ctx context.Context, order *models.Order, customer *models.Customer) (*models.Receipt, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	if existing, err := s.repo.FindByOrderID(ctx, order.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}

	receipt := &models.Receipt{
		OrderID:       order.ID,
		ReceiptNumber: receiptNumber(order.OrderNumber),
		Total:         order.Total,
		Body:          renderBody(order, customer),
	}
	if customer != nil && customer.Email != nil && *customer.Email != "" {
		email := *customer.Email
		receipt.CustomerEmail = &email
	}

	if err := s.repo.Create(ctx, receipt); err != nil {
		if receipt.CustomerEmail == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store receipt")
		}
		if s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "order_number", order.OrderNumber),
				"receipt insert with email failed, retrying without email")
		}
		receipt.CustomerEmail = nil
		receipt.ID = uuid.Nil
		if err := s.repo.Create(ctx, receipt); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store receipt")
		}
	}
	return receipt, nil
}

func receiptNumber(orderNumber string) string {
	return "RCP" + strings.TrimPrefix(orderNumber, "ORD")
}

func renderBody(order *models.Order, customer *models.Customer) string {
	var b strings.Builder
	b.WriteString("MASSA NOSTRA PIZZERIA\n")
	fmt.Fprintf(&b, "Recibo %s\n", receiptNumber(order.OrderNumber))
	fmt.Fprintf(&b, "Pedido %s\n", order.OrderNumber)
	if customer != nil {
		fmt.Fprintf(&b, "Cliente: %s\n", customer.Name)
	}
	b.WriteString("\n")
	for _, item := range order.Items {
		label := item.ProductName
		if item.VariantName != "" {
			label = fmt.Sprintf("%s (%s)", label, item.VariantName)
		}
		fmt.Fprintf(&b, "%dx %s  R$ %s\n", item.Quantity, label, item.LineTotal.StringFixed(2))
		if item.CrustName != nil {
			fmt.Fprintf(&b, "   Borda: %s\n", *item.CrustName)
		}
		if item.FillingName != nil {
			fmt.Fprintf(&b, "   Recheio: %s\n", *item.FillingName)
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: R$ %s\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Entrega:  R$ %s\n", order.DeliveryFee.StringFixed(2))
	if !order.Discount.IsZero() {
		fmt.Fprintf(&b, "Desconto: R$ %s\n", order.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total:    R$ %s\n", order.Total.StringFixed(2))
	return b.String()
}
