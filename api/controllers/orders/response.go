package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
)

type orderItemView struct {
	ID           int64      `json:"id"`
	VariantID    uuid.UUID  `json:"variant_id"`
	ProductName  string     `json:"product_name"`
	VariantName  string     `json:"variant_name"`
	CrustName    *string    `json:"crust_name,omitempty"`
	FillingName  *string    `json:"filling_name,omitempty"`
	Quantity     int        `json:"quantity"`
	UnitPrice    string     `json:"unit_price"`
	CrustPrice   string     `json:"crust_price"`
	FillingPrice string     `json:"filling_price"`
	LineTotal    string     `json:"line_total"`
	Notes        *string    `json:"notes,omitempty"`
}

type addressView struct {
	Street   string  `json:"street"`
	Number   string  `json:"number"`
	District string  `json:"district"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	ZipCode  string  `json:"zip_code"`
	Extra    *string `json:"complement,omitempty"`
}

type orderView struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      string          `json:"subtotal"`
	DeliveryFee   string          `json:"delivery_fee"`
	Discount      string          `json:"discount"`
	Total         string          `json:"total"`
	EstimatedTime int             `json:"estimated_time_minutes"`
	DeliveryToken string          `json:"delivery_token,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Items         []orderItemView `json:"items"`
	Address       *addressView    `json:"address,omitempty"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// The delivery token goes only to the order's owner; staff listings must
// not leak it.
func newOrderView(order *models.Order, includeToken bool) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ID:           item.ID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantName:  item.VariantName,
			CrustName:    item.CrustName,
			FillingName:  item.FillingName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			CrustPrice:   item.CrustPrice.StringFixed(2),
			FillingPrice: item.FillingPrice.StringFixed(2),
			LineTotal:    item.LineTotal.StringFixed(2),
			Notes:        item.Notes,
		})
	}

	view := orderView{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status.String(),
		PaymentMethod: order.PaymentMethod.String(),
		Subtotal:      order.Subtotal.StringFixed(2),
		DeliveryFee:   order.DeliveryFee.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		EstimatedTime: order.EstimatedTime,
		Notes:         order.Notes,
		Items:         items,
		ConfirmedAt:   order.ConfirmedAt,
		DeliveredAt:   order.DeliveredAt,
		CancelledAt:   order.CancelledAt,
		CreatedAt:     order.CreatedAt,
	}
	if includeToken {
		view.DeliveryToken = order.DeliveryToken
	}
	if order.Address != nil {
		view.Address = &addressView{
			Street:   order.Address.Street,
			Number:   order.Address.Number,
			District: order.Address.District,
			City:     order.Address.City,
			State:    order.Address.State,
			ZipCode:  order.Address.ZipCode,
			Extra:    order.Address.Complement,
		}
	}
	return view
}

func newOrderViews(orders []models.Order, includeToken bool) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i], includeToken))
	}
	return views
}
