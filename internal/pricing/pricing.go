// Package pricing turns a raw item selection into priced order lines.
// Catalog prices are copied at quote time so the order is immune to later
// menu edits.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
)

// Catalog is the menu lookup surface the calculator needs.
type Catalog interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindCrust(ctx context.Context, id uuid.UUID) (*models.PizzaCrust, error)
	FindFilling(ctx context.Context, id uuid.UUID) (*models.CrustFilling, error)
}

// ItemSelection is one requested line before pricing.
type ItemSelection struct {
	VariantID uuid.UUID
	CrustID   *uuid.UUID
	FillingID *uuid.UUID
	Quantity  int
	Notes     *string
}

// Quote is the result of pricing a selection.
type Quote struct {
	Items    []models.OrderItem
	Subtotal decimal.Decimal
}

// Calculator prices selections against the catalog.
type Calculator struct {
	catalog Catalog
}

// NewCalculator builds a Calculator.
func NewCalculator(catalog Catalog) (*Calculator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("pricing catalog required")
	}
	return &Calculator{catalog: catalog}, nil
}

// Price resolves every selection against the catalog. A missing or inactive
// variant fails the whole quote; a missing crust or filling is tolerated and
// priced at zero so a menu cleanup cannot strand in-flight carts.
func (c *Calculator) Price(ctx context.Context, selections []ItemSelection) (*Quote, error) {
	if len(selections) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	quote := &Quote{Subtotal: decimal.Zero}
	for i, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"index": i})
		}

		variant, err := c.catalog.FindVariant(ctx, sel.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
					WithDetails(map[string]any{"variant_id": sel.VariantID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
		}
		if !variant.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product variant is not available").
				WithDetails(map[string]any{"variant_id": sel.VariantID})
		}

		item := models.OrderItem{
			VariantID:    variant.ID,
			VariantName:  variant.Name,
			Quantity:     sel.Quantity,
			UnitPrice:    variant.Price,
			CrustPrice:   decimal.Zero,
			FillingPrice: decimal.Zero,
			Notes:        sel.Notes,
		}
		if variant.Product != nil {
			item.ProductName = variant.Product.Name
		}

		if sel.CrustID != nil {
			item.CrustID = sel.CrustID
			crust, err := c.catalog.FindCrust(ctx, *sel.CrustID)
			switch {
			case err == nil:
				name := crust.Name
				item.CrustName = &name
				item.CrustPrice = crust.Price
			case errors.Is(err, gorm.ErrRecordNotFound):
				// tolerated: priced at zero
			default:
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pizza crust")
			}
		}

		if sel.FillingID != nil {
			item.FillingID = sel.FillingID
			filling, err := c.catalog.FindFilling(ctx, *sel.FillingID)
			switch {
			case err == nil:
				name := filling.Name
				item.FillingName = &name
				item.FillingPrice = filling.Price
			case errors.Is(err, gorm.ErrRecordNotFound):
				// tolerated: priced at zero
			default:
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load crust filling")
			}
		}

		unit := item.UnitPrice.Add(item.CrustPrice).Add(item.FillingPrice)
		item.LineTotal = unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		quote.Subtotal = quote.Subtotal.Add(item.LineTotal)
		quote.Items = append(quote.Items, item)
	}

	quote.Subtotal = quote.Subtotal.Round(2)
	return quote, nil
}
