package repository

import (
	"context"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	SaveTx(tx *gorm.DB, s *model.Sale) error
	// ReplaceDetailsTx swaps the detail set of a sale in place. Only valid
	// while the sale is still editable; the service owns that guard.
	ReplaceDetailsTx(tx *gorm.DB, saleID uuid.UUID, details []model.SaleDetail) error
	// NextNumber atomically advances the per-series counter.
	NextNumber(tx *gorm.DB, series string) (int, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Details.Product").Preload("Payments").
		First(&s, id).Error
	return &s, err
}

// FindByIDTx locks the sale row for the rest of the transaction so that
// concurrent process/annul/edit calls serialize on it.
func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").Preload("Payments").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) SaveTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit("Details", "Payments").Save(s).Error
}

func (r *saleRepo) ReplaceDetailsTx(tx *gorm.DB, saleID uuid.UUID, details []model.SaleDetail) error {
	if err := tx.Where("sale_id = ?", saleID).Delete(&model.SaleDetail{}).Error; err != nil {
		return err
	}
	for i := range details {
		details[i].SaleID = saleID
	}
	return tx.Create(&details).Error
}

func (r *saleRepo) NextNumber(tx *gorm.DB, series string) (int, error) {
	// Upsert on the counter row; RETURNING makes the increment atomic under
	// concurrent sales on the same series.
	var num int
	err := tx.Raw(`
		INSERT INTO document_counters (name, last_number) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET last_number = document_counters.last_number + 1
		RETURNING last_number`, series).Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if filter.PaymentType != "" {
		q = q.Where("payment_type = ?", filter.PaymentType)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Details.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}
