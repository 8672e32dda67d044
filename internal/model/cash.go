package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session statuses.
const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// Movement types. Ingress types add to the expected cash balance, egress
// types subtract from it; only cash-method movements count either way.
const (
	MovementSale          = "sale"
	MovementManualIncome  = "manual_income"
	MovementManualEgress  = "manual_egress"
	MovementCreditPayment = "credit_payment"
	MovementExpense       = "expense"
	MovementPurchase      = "purchase"
	MovementTransferIn    = "transfer_in"
	MovementTransferOut   = "transfer_out"
)

// Transfer statuses.
const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

// CashRegister is a physical till. It owns a sequence of non-overlapping
// sessions: at most one may be open at any time.
type CashRegister struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"not null"`
	Active   bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CashRegister) TableName() string { return "cash_registers" }

// CashSession is one open-to-close cycle of a register, the unit of cash
// reconciliation. ExpectedBalance is frozen at close from the movement
// ledger, never cached while open.
type CashSession struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status     string          `gorm:"type:varchar(10);not null;default:'open'"`
	OpeningBalance  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ActualBalance   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Difference = actual − expected; positive = surplus, negative = shortage.
	Difference *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes      *string
	OpenedAt   time.Time
	ClosedAt   *time.Time

	Register  *CashRegister  `gorm:"foreignKey:RegisterID"`
	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

func (CashSession) TableName() string { return "cash_sessions" }

// CashMovement is an immutable entry in the session's money ledger. It is
// the audit trail the expected balance is derived from — rows are never
// updated or deleted, reversals append inverse entries.
type CashMovement struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type      string          `gorm:"type:varchar(20);not null"`
	Method    string          `gorm:"type:varchar(20);not null;default:'cash'"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string        `gorm:"not null"`
	// ReferenceID links back to the originating sale, payment or transfer.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (CashMovement) TableName() string { return "cash_movements" }

// Ingress reports whether this movement adds to the register's cash drawer.
func (m *CashMovement) Ingress() bool {
	switch m.Type {
	case MovementSale, MovementManualIncome, MovementCreditPayment, MovementTransferIn:
		return true
	}
	return false
}

// CountsForBalance reports whether the movement participates in the expected
// balance: non-cash movements are audit-only.
func (m *CashMovement) CountsForBalance() bool { return m.Method == MethodCash }

// CashTransfer moves money between two registers. Completing it emits a
// matched transfer_out/transfer_in movement pair against each register's
// open session atomically.
type CashTransfer struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FromRegisterID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ToRegisterID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         string          `gorm:"type:varchar(10);not null;default:'pending'"`
	Description    string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (CashTransfer) TableName() string { return "cash_transfers" }
