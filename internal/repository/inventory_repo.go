package repository

import (
	"context"
	"time"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository is the data access layer under the inventory ledger.
// Stock mutations go through FindForUpdateTx + UpdateStockTx inside the
// caller's transaction so that sufficiency checks hold under concurrency.
type InventoryRepository interface {
	// FindForUpdateTx loads the (product, branch) row with a FOR UPDATE lock,
	// serializing concurrent deductions on the same row.
	FindForUpdateTx(tx *gorm.DB, productID, branchID uuid.UUID) (*model.Inventory, error)
	CreateTx(tx *gorm.DB, inv *model.Inventory) error
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, newStock int, at time.Time) error
	UpdatePricesTx(tx *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error

	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error

	FindByProductBranch(ctx context.Context, productID, branchID uuid.UUID) (*model.Inventory, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]model.Inventory, error)
	ListLowStock(ctx context.Context, branchID uuid.UUID) ([]model.Inventory, error)
	ListLowStockByProducts(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]model.Inventory, error)
	ListMovements(ctx context.Context, productID, branchID uuid.UUID, limit int) ([]model.StockMovement, error)

	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

func (r *inventoryRepo) FindForUpdateTx(tx *gorm.DB, productID, branchID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&inv).Error
	return &inv, err
}

func (r *inventoryRepo) CreateTx(tx *gorm.DB, inv *model.Inventory) error {
	return tx.Create(inv).Error
}

func (r *inventoryRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, newStock int, at time.Time) error {
	return tx.Model(&model.Inventory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_stock":    newStock,
		"last_movement_at": at,
	}).Error
}

func (r *inventoryRepo) UpdatePricesTx(tx *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error {
	updates := map[string]interface{}{"cost_price": cost}
	if overwriteSale {
		updates["sale_price"] = sale
	}
	return tx.Model(&model.Inventory{}).Where("id = ?", id).Updates(updates).Error
}

func (r *inventoryRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *inventoryRepo) FindByProductBranch(ctx context.Context, productID, branchID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&inv).Error
	return &inv, err
}

func (r *inventoryRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ?", branchID).
		Order("last_movement_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *inventoryRepo) ListLowStock(ctx context.Context, branchID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ? AND current_stock <= min_stock", branchID).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryRepo) ListLowStockByProducts(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ? AND product_id IN ? AND current_stock <= min_stock", branchID, productIDs).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryRepo) ListMovements(ctx context.Context, productID, branchID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if productID != uuid.Nil {
		q = q.Where("product_id = ?", productID)
	}
	if branchID != uuid.Nil {
		q = q.Where("branch_id = ?", branchID)
	}
	var rows []model.StockMovement
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
