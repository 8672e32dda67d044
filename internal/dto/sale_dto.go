package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date        string `form:"date"`   // YYYY-MM-DD; empty = no date filter
	Status      string `form:"status"` // pending | paid | annulled | all
	BranchID    string `form:"branch_id"    validate:"omitempty,uuid"`
	PaymentType string `form:"payment_type" validate:"omitempty,oneof=cash credit"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleDetailRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	// UnitPrice overrides the catalog sale price when positive.
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

type CreateSaleRequest struct {
	DocumentType string              `json:"document_type" validate:"omitempty,oneof=ticket boleta factura"`
	PaymentType  string              `json:"payment_type"  validate:"required,oneof=cash credit"`
	Method       string              `json:"method"        validate:"omitempty,oneof=cash card transfer yape"`
	Details      []SaleDetailRequest `json:"details"       validate:"required,min=1,dive"`
	Discount     decimal.Decimal     `json:"discount"      validate:"min=0"`
	CustomerID   *string             `json:"customer_id"   validate:"omitempty,uuid"`
	CustomerName *string             `json:"customer_name"`

	// Cash sales
	AmountPaid decimal.Decimal `json:"amount_paid" validate:"min=0"`

	// Credit sales
	InitialPayment decimal.Decimal `json:"initial_payment" validate:"min=0"`
	Installments   int             `json:"installments"    validate:"min=0,max=60"`
	CreditDays     int             `json:"credit_days"     validate:"min=0,max=720"`

	// Draft leaves the sale pending without touching inventory; it can be
	// edited and processed later.
	Draft bool `json:"draft"`
}

type UpdateSaleRequest struct {
	Details  []SaleDetailRequest `json:"details"  validate:"required,min=1,dive"`
	Discount decimal.Decimal     `json:"discount" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleDetailResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Base      decimal.Decimal `json:"base"`
	Tax       decimal.Decimal `json:"tax"`
}

type SaleResponse struct {
	ID           string               `json:"id"`
	SaleNumber   string               `json:"sale_number"`
	DocumentType string               `json:"document_type"`
	PaymentType  string               `json:"payment_type"`
	Status       string               `json:"status"`
	Details      []SaleDetailResponse `json:"details"`
	Subtotal     decimal.Decimal      `json:"subtotal"`
	Tax          decimal.Decimal      `json:"tax"`
	Discount     decimal.Decimal      `json:"discount"`
	Total        decimal.Decimal      `json:"total"`
	AmountPaid   decimal.Decimal      `json:"amount_paid"`
	ChangeAmount decimal.Decimal      `json:"change_amount"`

	InitialPayment   decimal.Decimal `json:"initial_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`

	CreatedAt string `json:"created_at"`
}
