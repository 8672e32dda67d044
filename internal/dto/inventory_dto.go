package dto

import "github.com/shopspring/decimal"

type InventoryResponse struct {
	ProductID      string          `json:"product_id"`
	Product        string          `json:"product"`
	BranchID       string          `json:"branch_id"`
	CurrentStock   int             `json:"current_stock"`
	MinStock       int             `json:"min_stock"`
	MaxStock       int             `json:"max_stock"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	LastMovementAt string          `json:"last_movement_at"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	BranchID    string  `json:"branch_id"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Reason      string  `json:"reason"`
	ReferenceID *string `json:"reference_id"`
	CreatedAt   string  `json:"created_at"`
}

// PriceCheckResponse is the payload of the public barcode price endpoint.
type PriceCheckResponse struct {
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Unit      string          `json:"unit"`
}
