package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/massanostra/pizzeria-backend/pkg/db/models"
)

// Repository exposes read access to the menu and customer records used when
// pricing and addressing an order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindCrust(ctx context.Context, id uuid.UUID) (*models.PizzaCrust, error)
	FindFilling(ctx context.Context, id uuid.UUID) (*models.CrustFilling, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", id).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindCrust(ctx context.Context, id uuid.UUID) (*models.PizzaCrust, error) {
	var crust models.PizzaCrust
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&crust).Error
	if err != nil {
		return nil, err
	}
	return &crust, nil
}

func (r *repository) FindFilling(ctx context.Context, id uuid.UUID) (*models.CrustFilling, error) {
	var filling models.CrustFilling
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&filling).Error
	if err != nil {
		return nil, err
	}
	return &filling, nil
}

func (r *repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Variants", "active = ?", true).
		Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var products []models.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
