package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRepository is the read-mostly catalog boundary. The only mutation
// exposed is the price propagation used by purchase-order receiving.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)

	// UpdatePricesTx overwrites cost_price and, when overwriteSale is set,
	// sale_price. Called inside a receiving transaction.
	UpdatePricesTx(tx *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error

	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND active = true", barcode).First(&p).Error
	return &p, err
}

func (r *productRepo) UpdatePricesTx(tx *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error {
	updates := map[string]interface{}{"cost_price": cost}
	if overwriteSale {
		updates["sale_price"] = sale
	}
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(updates).Error
}
