package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
)

type stubCatalog struct {
	variants map[uuid.UUID]*models.ProductVariant
	crusts   map[uuid.UUID]*models.PizzaCrust
	fillings map[uuid.UUID]*models.CrustFilling
}

func (s *stubCatalog) FindVariant(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if v, ok := s.variants[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindCrust(_ context.Context, id uuid.UUID) (*models.PizzaCrust, error) {
	if c, ok := s.crusts[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindFilling(_ context.Context, id uuid.UUID) (*models.CrustFilling, error) {
	if f, ok := s.fillings[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newCatalogFixture() (*stubCatalog, uuid.UUID, uuid.UUID, uuid.UUID) {
	variantID := uuid.New()
	crustID := uuid.New()
	fillingID := uuid.New()
	catalog := &stubCatalog{
		variants: map[uuid.UUID]*models.ProductVariant{
			variantID: {
				ID:      variantID,
				Name:    "Grande",
				Price:   money("49.90"),
				Active:  true,
				Product: &models.Product{Name: "Margherita"},
			},
		},
		crusts: map[uuid.UUID]*models.PizzaCrust{
			crustID: {ID: crustID, Name: "Borda Recheada", Price: money("8.00"), Active: true},
		},
		fillings: map[uuid.UUID]*models.CrustFilling{
			fillingID: {ID: fillingID, Name: "Catupiry", Price: money("4.50"), Active: true},
		},
	}
	return catalog, variantID, crustID, fillingID
}

func TestPriceSimpleItem(t *testing.T) {
	catalog, variantID, _, _ := newCatalogFixture()
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	quote, err := calc.Price(context.Background(), []ItemSelection{
		{VariantID: variantID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, quote.Items, 1)

	item := quote.Items[0]
	assert.Equal(t, "Margherita", item.ProductName)
	assert.Equal(t, "Grande", item.VariantName)
	assert.True(t, item.LineTotal.Equal(money("99.80")), "line total %s", item.LineTotal)
	assert.True(t, quote.Subtotal.Equal(money("99.80")), "subtotal %s", quote.Subtotal)
}

func TestPriceWithCrustAndFilling(t *testing.T) {
	catalog, variantID, crustID, fillingID := newCatalogFixture()
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	quote, err := calc.Price(context.Background(), []ItemSelection{
		{VariantID: variantID, CrustID: &crustID, FillingID: &fillingID, Quantity: 1},
	})
	require.NoError(t, err)

	item := quote.Items[0]
	require.NotNil(t, item.CrustName)
	assert.Equal(t, "Borda Recheada", *item.CrustName)
	require.NotNil(t, item.FillingName)
	assert.Equal(t, "Catupiry", *item.FillingName)
	// 49.90 + 8.00 + 4.50
	assert.True(t, quote.Subtotal.Equal(money("62.40")), "subtotal %s", quote.Subtotal)
}

func TestPriceMissingVariantFails(t *testing.T) {
	catalog, _, _, _ := newCatalogFixture()
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	_, err = calc.Price(context.Background(), []ItemSelection{
		{VariantID: uuid.New(), Quantity: 1},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPriceInactiveVariantFails(t *testing.T) {
	catalog, variantID, _, _ := newCatalogFixture()
	catalog.variants[variantID].Active = false
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	_, err = calc.Price(context.Background(), []ItemSelection{
		{VariantID: variantID, Quantity: 1},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestPriceMissingCrustIsFree(t *testing.T) {
	catalog, variantID, _, _ := newCatalogFixture()
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	ghostCrust := uuid.New()
	quote, err := calc.Price(context.Background(), []ItemSelection{
		{VariantID: variantID, CrustID: &ghostCrust, Quantity: 1},
	})
	require.NoError(t, err)

	item := quote.Items[0]
	assert.Nil(t, item.CrustName)
	assert.True(t, item.CrustPrice.IsZero())
	assert.True(t, quote.Subtotal.Equal(money("49.90")), "subtotal %s", quote.Subtotal)
}

func TestPriceRejectsEmptyAndNonPositive(t *testing.T) {
	catalog, variantID, _, _ := newCatalogFixture()
	calc, err := NewCalculator(catalog)
	require.NoError(t, err)

	_, err = calc.Price(context.Background(), nil)
	require.Error(t, err)

	_, err = calc.Price(context.Background(), []ItemSelection{
		{VariantID: variantID, Quantity: 0},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
