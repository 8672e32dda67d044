package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService owns the per (product, branch) stock counters. Every
// mutation runs inside the caller's transaction against a row locked FOR
// UPDATE, and appends an immutable StockMovement entry, so current_stock is
// always the sum of recorded deltas.
type InventoryService interface {
	// DeductTx removes qty from stock, failing with ErrInsufficientStock or
	// ErrNoInventoryRecord unless negative stock is enabled.
	DeductTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID) error
	// RestoreTx adds qty back; creates the inventory row if missing.
	RestoreTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID) error
	// ReceiveTx adds qty from a goods receipt, overwriting cost_price and —
	// only when salePrice is positive — sale_price.
	ReceiveTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, costPrice, salePrice decimal.Decimal, refID *uuid.UUID) error
	// ReverseReceiptTx subtracts previously received quantity when an order
	// is cancelled. Unlike DeductTx it never fails on sufficiency: the goods
	// are leaving regardless, stock may legitimately go negative here.
	ReverseReceiptTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, reason string, refID *uuid.UUID) error

	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]dto.InventoryResponse, error)
	ListAlerts(ctx context.Context, branchID uuid.UUID) ([]dto.InventoryResponse, error)
	ListMovements(ctx context.Context, productID, branchID uuid.UUID, limit int) ([]dto.StockMovementResponse, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	// allowNegativeStock comes from configuration, never from a global.
	allowNegativeStock bool
}

func NewInventoryService(repo repository.InventoryRepository, allowNegativeStock bool) InventoryService {
	return &inventoryService{repo: repo, allowNegativeStock: allowNegativeStock}
}

func (s *inventoryService) DeductTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID) error {
	inv, err := s.repo.FindForUpdateTx(tx, productID, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNoInventoryRecord, productID)
		}
		return err
	}

	// Sufficiency is re-validated here, under the row lock, not only at any
	// earlier pre-check: two concurrent sales of the last unit serialize on
	// the lock and the second one fails.
	if inv.CurrentStock < qty && !s.allowNegativeStock {
		return fmt.Errorf("%w: product %s has %d, requested %d",
			ErrInsufficientStock, productID, inv.CurrentStock, qty)
	}

	return s.applyTx(tx, inv, -qty, movType, reason, refID)
}

func (s *inventoryService) RestoreTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, movType, reason string, refID *uuid.UUID) error {
	inv, err := s.repo.FindForUpdateTx(tx, productID, branchID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		inv = &model.Inventory{
			ProductID:      productID,
			BranchID:       branchID,
			CurrentStock:   0,
			LastMovementAt: time.Now(),
		}
		if err := s.repo.CreateTx(tx, inv); err != nil {
			return err
		}
	}
	return s.applyTx(tx, inv, qty, movType, reason, refID)
}

func (s *inventoryService) ReceiveTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, costPrice, salePrice decimal.Decimal, refID *uuid.UUID) error {
	inv, err := s.repo.FindForUpdateTx(tx, productID, branchID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		inv = &model.Inventory{
			ProductID:      productID,
			BranchID:       branchID,
			CurrentStock:   0,
			LastMovementAt: time.Now(),
		}
		if err := s.repo.CreateTx(tx, inv); err != nil {
			return err
		}
	}

	overwriteSale := salePrice.IsPositive()
	if err := s.repo.UpdatePricesTx(tx, inv.ID, costPrice, salePrice, overwriteSale); err != nil {
		return err
	}
	return s.applyTx(tx, inv, qty, "receipt", "goods receipt", refID)
}

func (s *inventoryService) ReverseReceiptTx(tx *gorm.DB, productID, branchID uuid.UUID, qty int, reason string, refID *uuid.UUID) error {
	inv, err := s.repo.FindForUpdateTx(tx, productID, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNoInventoryRecord, productID)
		}
		return err
	}
	return s.applyTx(tx, inv, -qty, "receipt_reversal", reason, refID)
}

// applyTx writes the new stock level and the matching ledger entry.
func (s *inventoryService) applyTx(tx *gorm.DB, inv *model.Inventory, delta int, movType, reason string, refID *uuid.UUID) error {
	before := inv.CurrentStock
	after := before + delta
	now := time.Now()

	if err := s.repo.UpdateStockTx(tx, inv.ID, after, now); err != nil {
		return err
	}
	inv.CurrentStock = after

	return s.repo.CreateMovementTx(tx, &model.StockMovement{
		ProductID:   inv.ProductID,
		BranchID:    inv.BranchID,
		Type:        movType,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  after,
		Reason:      reason,
		ReferenceID: refID,
	})
}

// ── Read side ────────────────────────────────────────────────────────────────

func (s *inventoryService) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]dto.InventoryResponse, error) {
	rows, err := s.repo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return toInventoryResponses(rows), nil
}

func (s *inventoryService) ListAlerts(ctx context.Context, branchID uuid.UUID) ([]dto.InventoryResponse, error) {
	rows, err := s.repo.ListLowStock(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return toInventoryResponses(rows), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID, branchID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	movs, err := s.repo.ListMovements(ctx, productID, branchID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		var ref *string
		if m.ReferenceID != nil {
			r := m.ReferenceID.String()
			ref = &r
		}
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			BranchID:    m.BranchID.String(),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			ReferenceID: ref,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func toInventoryResponses(rows []model.Inventory) []dto.InventoryResponse {
	out := make([]dto.InventoryResponse, 0, len(rows))
	for _, inv := range rows {
		name := ""
		if inv.Product != nil {
			name = inv.Product.Name
		}
		out = append(out, dto.InventoryResponse{
			ProductID:      inv.ProductID.String(),
			Product:        name,
			BranchID:       inv.BranchID.String(),
			CurrentStock:   inv.CurrentStock,
			MinStock:       inv.MinStock,
			MaxStock:       inv.MaxStock,
			CostPrice:      inv.CostPrice,
			SalePrice:      inv.SalePrice,
			LastMovementAt: inv.LastMovementAt.Format(time.RFC3339),
		})
	}
	return out
}
