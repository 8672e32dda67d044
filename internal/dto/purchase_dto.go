package dto

import "github.com/shopspring/decimal"

// ─── Filter ──────────────────────────────────────────────────────────────────

type PurchaseOrderFilter struct {
	Status     string `form:"status"` // pending | partial | received | cancelled | all
	SupplierID string `form:"supplier_id" validate:"omitempty,uuid"`
	BranchID   string `form:"branch_id"   validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PurchaseOrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required,gt=0"`
	// SalePrice, when positive, replaces the catalog sale price on receipt.
	SalePrice decimal.Decimal `json:"sale_price" validate:"min=0"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID string                     `json:"supplier_id" validate:"required,uuid"`
	BranchID   string                     `json:"branch_id"   validate:"required,uuid"`
	Lines      []PurchaseOrderLineRequest `json:"lines"       validate:"required,min=1,dive"`
	Notes      *string                    `json:"notes"`
}

// ReceivePartialRequest maps detail line ids to the quantity received now.
type ReceivePartialRequest struct {
	Quantities map[string]int `json:"quantities" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseOrderLineResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Product          string          `json:"product"`
	QuantityOrdered  int             `json:"quantity_ordered"`
	QuantityReceived int             `json:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	SalePrice        decimal.Decimal `json:"sale_price"`
}

type PurchaseOrderResponse struct {
	ID         string                      `json:"id"`
	Number     int                         `json:"number"`
	SupplierID string                      `json:"supplier_id"`
	BranchID   string                      `json:"branch_id"`
	Status     string                      `json:"status"`
	Total      decimal.Decimal             `json:"total"`
	Lines      []PurchaseOrderLineResponse `json:"lines"`
	ReceivedAt *string                     `json:"received_at"`
	CreatedAt  string                      `json:"created_at"`
}

type PurchaseOrderListResponse struct {
	Data  []PurchaseOrderResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
