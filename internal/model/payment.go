package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// Payment methods shared by installments and cash movements.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodYape     = "yape"
)

// Payment is one scheduled installment of a credit sale's financed balance.
// The sum of Amount across a sale's installments equals total − initial
// payment; RemainingAmount is Amount − PaidAmount clamped at zero.
type Payment struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Number is the installment sequence within the sale, starting at 1.
	Number          int             `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate         time.Time       `gorm:"not null;index"`
	Status          string          `gorm:"type:varchar(10);not null;default:'pending';index"`
	Method          *string         `gorm:"type:varchar(20)"`
	Reference       *string
	Notes           *string
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Sale *Sale `gorm:"foreignKey:SaleID"`
}

func (Payment) TableName() string { return "payments" }

// IsOverdue reports a pending installment past its due date.
func (p *Payment) IsOverdue(today time.Time) bool {
	return p.Status == PaymentStatusPending && p.DueDate.Before(truncateDay(today))
}

// IsDueSoon reports a pending installment due within the next `days` days,
// inclusive of today and the last day.
func (p *Payment) IsDueSoon(today time.Time, days int) bool {
	if p.Status != PaymentStatusPending {
		return false
	}
	d := truncateDay(today)
	due := truncateDay(p.DueDate)
	return !due.Before(d) && !due.After(d.AddDate(0, 0, days))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
