package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/massanostra/pizzeria-backend/pkg/enums"
)

// Payment tracks a single PIX charge against an order. ProviderPaymentID is
// the identifier the gateway echoes back in webhooks.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           int64               `gorm:"column:order_id;not null;uniqueIndex"`
	ProviderPaymentID string              `gorm:"column:provider_payment_id;uniqueIndex"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	QRCode            string              `gorm:"column:qr_code"`
	QRCodeBase64      string              `gorm:"column:qr_code_base64"`
	ExpiresAt         *time.Time          `gorm:"column:expires_at"`
	ApprovedAt        *time.Time          `gorm:"column:approved_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string { return "payments" }

// Receipt is the rendered proof of purchase generated once a payment is
// approved.
type Receipt struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       int64           `gorm:"column:order_id;not null;uniqueIndex"`
	ReceiptNumber string          `gorm:"column:receipt_number;not null;uniqueIndex"`
	CustomerEmail *string         `gorm:"column:customer_email"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Body          string          `gorm:"column:body;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Receipt) TableName() string { return "receipts" }
