package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterID     string          `json:"register_id"     validate:"required,uuid"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type CloseSessionRequest struct {
	ActualBalance decimal.Decimal `json:"actual_balance" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type ReopenSessionRequest struct {
	Notes *string `json:"notes"`
}

type ManualMovementRequest struct {
	Type        string          `json:"type"        validate:"required,oneof=manual_income manual_egress expense"`
	Method      string          `json:"method"      validate:"required,oneof=cash card transfer yape"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
	Notes       *string         `json:"notes"`
}

type CreateTransferRequest struct {
	FromRegisterID string          `json:"from_register_id" validate:"required,uuid"`
	ToRegisterID   string          `json:"to_register_id"   validate:"required,uuid,necsfield=FromRegisterID"`
	Amount         decimal.Decimal `json:"amount"           validate:"required,gt=0"`
	Description    string          `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ReferenceID *string         `json:"reference_id"`
	CreatedAt   string          `json:"created_at"`
}

type SessionReportResponse struct {
	SessionID       string             `json:"session_id"`
	RegisterID      string             `json:"register_id"`
	UserID          string             `json:"user_id"`
	Status          string             `json:"status"`
	OpeningBalance  decimal.Decimal    `json:"opening_balance"`
	ExpectedBalance decimal.Decimal    `json:"expected_balance"`
	ActualBalance   *decimal.Decimal   `json:"actual_balance"`
	Difference      *decimal.Decimal   `json:"difference"`
	Movements       []MovementResponse `json:"movements"`
	Notes           *string            `json:"notes"`
	OpenedAt        string             `json:"opened_at"`
	ClosedAt        *string            `json:"closed_at"`
}

type CloseSessionResponse struct {
	SessionID       string          `json:"session_id"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ActualBalance   decimal.Decimal `json:"actual_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Status          string          `json:"status"`
}

type SessionHistoryResponse struct {
	Data  []SessionReportResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type TransferResponse struct {
	ID             string          `json:"id"`
	FromRegisterID string          `json:"from_register_id"`
	ToRegisterID   string          `json:"to_register_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at"`
}
