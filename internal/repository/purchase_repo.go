package repository

import (
	"context"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	CreateTx(tx *gorm.DB, o *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	SaveTx(tx *gorm.DB, o *model.PurchaseOrder) error
	SaveDetailTx(tx *gorm.DB, d *model.PurchaseOrderDetail) error
	NextNumber(tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error)
	DB() *gorm.DB
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) DB() *gorm.DB { return r.db }

func (r *purchaseRepo) CreateTx(tx *gorm.DB, o *model.PurchaseOrder) error {
	return tx.Create(o).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var o model.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Details.Product").First(&o, id).Error
	return &o, err
}

func (r *purchaseRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var o model.PurchaseOrder
	err := tx.Preload("Details").First(&o, id).Error
	return &o, err
}

func (r *purchaseRepo) SaveTx(tx *gorm.DB, o *model.PurchaseOrder) error {
	return tx.Omit("Details").Save(o).Error
}

func (r *purchaseRepo) SaveDetailTx(tx *gorm.DB, d *model.PurchaseOrderDetail) error {
	return tx.Omit("Product").Save(d).Error
}

func (r *purchaseRepo) NextNumber(tx *gorm.DB) (int, error) {
	var num int
	err := tx.Raw(`
		INSERT INTO document_counters (name, last_number) VALUES ('PO', 1)
		ON CONFLICT (name) DO UPDATE SET last_number = document_counters.last_number + 1
		RETURNING last_number`).Scan(&num).Error
	return num, err
}

func (r *purchaseRepo) List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Details.Product").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}
