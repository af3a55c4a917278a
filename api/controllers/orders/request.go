package orders

import (
	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/internal/pricing"
)

type createItemRequest struct {
	VariantID uuid.UUID  `json:"variant_id" validate:"required"`
	CrustID   *uuid.UUID `json:"crust_id"`
	FillingID *uuid.UUID `json:"filling_id"`
	Quantity  int        `json:"quantity" validate:"required,min=1,max=50"`
	Notes     *string    `json:"notes" validate:"omitempty,max=280"`
}

type createOrderRequest struct {
	AddressID     uuid.UUID           `json:"address_id" validate:"required"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	Items         []createItemRequest `json:"items" validate:"required,min=1,max=30,dive"`
	Notes         *string             `json:"notes" validate:"omitempty,max=500"`
}

type transitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note" validate:"omitempty,max=280"`
}

type validateTokenRequest struct {
	Token string `json:"token" validate:"required,len=6,numeric"`
}

func toSelections(items []createItemRequest) []pricing.ItemSelection {
	selections := make([]pricing.ItemSelection, 0, len(items))
	for _, item := range items {
		selections = append(selections, pricing.ItemSelection{
			VariantID: item.VariantID,
			CrustID:   item.CrustID,
			FillingID: item.FillingID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}
	return selections
}
