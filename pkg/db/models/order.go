package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/massanostra/pizzeria-backend/pkg/enums"
)

// Order is the aggregate root of the checkout flow. The order number is
// derived from the row id after insert, which is why it is nullable at the
// schema level even though every committed order carries one.
type Order struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber   string              `gorm:"column:order_number;uniqueIndex"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	AddressID     uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Discount      decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	EstimatedTime int                 `gorm:"column:estimated_time;not null"`
	DeliveryToken string              `gorm:"column:delivery_token;not null"`
	Notes         *string             `gorm:"column:notes"`

	ConfirmedAt        *time.Time `gorm:"column:confirmed_at"`
	StartedPreparingAt *time.Time `gorm:"column:started_preparing_at"`
	OutForDeliveryAt   *time.Time `gorm:"column:out_for_delivery_at"`
	DeliveredAt        *time.Time `gorm:"column:delivered_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`

	Customer *Customer            `gorm:"foreignKey:CustomerID"`
	Address  *Address             `gorm:"foreignKey:AddressID"`
	Items    []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History  []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment  *Payment             `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is a line of an order. Prices are copied from the catalog at
// order time so later menu edits never rewrite history.
type OrderItem struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      int64           `gorm:"column:order_id;not null;index"`
	VariantID    uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	VariantName  string          `gorm:"column:variant_name;not null"`
	CrustID      *uuid.UUID      `gorm:"column:crust_id;type:uuid"`
	CrustName    *string         `gorm:"column:crust_name"`
	FillingID    *uuid.UUID      `gorm:"column:filling_id;type:uuid"`
	FillingName  *string         `gorm:"column:filling_name"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	CrustPrice   decimal.Decimal `gorm:"column:crust_price;type:numeric(10,2);not null"`
	FillingPrice decimal.Decimal `gorm:"column:filling_price;type:numeric(10,2);not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	Notes        *string         `gorm:"column:notes"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusHistory is an append-only audit trail of status changes.
type OrderStatusHistory struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64              `gorm:"column:order_id;not null;index"`
	Status    enums.OrderStatus  `gorm:"column:status;type:text;not null"`
	Previous  *enums.OrderStatus `gorm:"column:previous;type:text"`
	Note      *string            `gorm:"column:note"`
	ActorID   *string            `gorm:"column:actor_id"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
