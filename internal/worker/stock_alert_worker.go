package worker

// stock_alert_worker.go
// Consumes stock_alert jobs enqueued after a sale commits, checks the sold
// products against their minimum stock, and logs an alert per product that
// fell at or below it. Alerting stays out of the sale transaction so a slow
// check never delays a checkout.

import (
	"context"
	"encoding/json"
	"fmt"

	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StockAlertHandler resolves low-stock products for a processed sale.
type StockAlertHandler struct {
	inventoryRepo repository.InventoryRepository
}

func NewStockAlertHandler(inventoryRepo repository.InventoryRepository) *StockAlertHandler {
	return &StockAlertHandler{inventoryRepo: inventoryRepo}
}

func (h *StockAlertHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload StockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode stock alert payload: %w", err)
	}
	branchID, err := uuid.Parse(payload.BranchID)
	if err != nil {
		return fmt.Errorf("invalid branch_id %q: %w", payload.BranchID, err)
	}

	productIDs := make([]uuid.UUID, 0, len(payload.ProductIDs))
	for _, s := range payload.ProductIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid product_id %q: %w", s, err)
		}
		productIDs = append(productIDs, id)
	}
	if len(productIDs) == 0 {
		return nil
	}

	low, err := h.inventoryRepo.ListLowStockByProducts(ctx, branchID, productIDs)
	if err != nil {
		return fmt.Errorf("low stock query: %w", err)
	}
	for i := range low {
		inv := &low[i]
		log.Warn().
			Str("product_id", inv.ProductID.String()).
			Str("branch_id", inv.BranchID.String()).
			Int("current_stock", inv.CurrentStock).
			Int("min_stock", inv.MinStock).
			Str("sale_id", payload.SaleID).
			Msg("stock alert: product at or below minimum")
	}
	return nil
}
