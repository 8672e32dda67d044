package repository

import (
	"context"
	"time"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateBatchTx(tx *gorm.DB, payments []model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Payment, error)
	SaveTx(tx *gorm.DB, p *model.Payment) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error)
	ListBySaleTx(tx *gorm.DB, saleID uuid.UUID) ([]model.Payment, error)
	// DeleteBySaleTx drops a sale's installment schedule so it can be
	// rebuilt. Only valid while no money has been applied to any of them;
	// the service owns that guard.
	DeleteBySaleTx(tx *gorm.DB, saleID uuid.UUID) error
	ListDueSoon(ctx context.Context, from, to time.Time) ([]model.Payment, error)
	// MarkOverdue flips pending installments past their due date to overdue
	// in one statement; safe to re-run.
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) DB() *gorm.DB { return r.db }

func (r *paymentRepo) CreateBatchTx(tx *gorm.DB, payments []model.Payment) error {
	return tx.Create(&payments).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Preload("Sale").First(&p, id).Error
	return &p, err
}

func (r *paymentRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := tx.Preload("Sale").First(&p, id).Error
	return &p, err
}

func (r *paymentRepo) SaveTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Omit("Sale").Save(p).Error
}

func (r *paymentRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error) {
	var rows []model.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).Order("number ASC").
		Find(&rows).Error
	return rows, err
}

func (r *paymentRepo) ListBySaleTx(tx *gorm.DB, saleID uuid.UUID) ([]model.Payment, error) {
	var rows []model.Payment
	err := tx.Where("sale_id = ?", saleID).Order("number ASC").Find(&rows).Error
	return rows, err
}

func (r *paymentRepo) DeleteBySaleTx(tx *gorm.DB, saleID uuid.UUID) error {
	return tx.Where("sale_id = ?", saleID).Delete(&model.Payment{}).Error
}

func (r *paymentRepo) ListDueSoon(ctx context.Context, from, to time.Time) ([]model.Payment, error) {
	var rows []model.Payment
	err := r.db.WithContext(ctx).Preload("Sale").
		Where("status = ? AND due_date >= ? AND due_date <= ?", model.PaymentStatusPending, from, to).
		Order("due_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *paymentRepo) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("status = ? AND due_date < ?", model.PaymentStatusPending, before).
		Update("status", model.PaymentStatusOverdue)
	return res.RowsAffected, res.Error
}
