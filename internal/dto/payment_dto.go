package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PayInstallmentRequest struct {
	Method     string          `json:"method"      validate:"required,oneof=cash card transfer yape"`
	PaidAmount decimal.Decimal `json:"paid_amount" validate:"required,gt=0"`
	// ReceivedAmount is the physical cash handed over; change is derived.
	ReceivedAmount *decimal.Decimal `json:"received_amount" validate:"omitempty,gt=0"`
	Reference      *string          `json:"reference"`
	Notes          *string          `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PaymentResponse struct {
	ID              string          `json:"id"`
	SaleID          string          `json:"sale_id"`
	SaleNumber      string          `json:"sale_number,omitempty"`
	Number          int             `json:"number"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         string          `json:"due_date"`
	Status          string          `json:"status"`
	Method          *string         `json:"method"`
	Reference       *string         `json:"reference"`
	PaidAt          *string         `json:"paid_at"`
}

type PayInstallmentResponse struct {
	Payment PaymentResponse `json:"payment"`
	// SaleRemainingBalance is the owning sale's balance after this payment.
	SaleRemainingBalance decimal.Decimal `json:"sale_remaining_balance"`
	SaleStatus           string          `json:"sale_status"`
	ChangeAmount         decimal.Decimal `json:"change_amount"`
}

type SweepResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}
