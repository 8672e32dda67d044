package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale statuses.
const (
	SaleStatusPending  = "pending"
	SaleStatusPaid     = "paid"
	SaleStatusAnnulled = "annulled"
)

// Payment types.
const (
	PaymentTypeCash   = "cash"
	PaymentTypeCredit = "credit"
)

// Document types.
const (
	DocumentTicket  = "ticket"
	DocumentBoleta  = "boleta"
	DocumentFactura = "factura"
)

// Sale is the immutable source transaction every money and quantity movement
// derives from. Series+Number is the business identifier and never changes.
//
// Lifecycle: pending → (process) → paid, or pending → annulled. Credit sales
// stay pending after processing until the installment engine settles their
// balance; ProcessedAt records whether inventory has been deducted, which is
// what cancellation reverses against.
type Sale struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Series       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sale_number"`
	Number       int       `gorm:"not null;uniqueIndex:idx_sale_number"`
	DocumentType string    `gorm:"type:varchar(20);not null;default:'ticket'"`
	BranchID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName *string

	PaymentType string `gorm:"type:varchar(10);not null;default:'cash'"`
	// PaymentMethod is how the money was (or will be) settled; only cash
	// settlements count toward register reconciliation.
	PaymentMethod string `gorm:"type:varchar(20);not null;default:'cash'"`
	Status        string `gorm:"type:varchar(10);not null;default:'pending';index"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Cash sales
	AmountPaid   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ChangeAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// Credit sales
	InitialPayment   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Installments     int             `gorm:"not null;default:0"`
	CreditDays       int             `gorm:"not null;default:0"`

	ProcessedAt *time.Time
	AnnulledAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Details  []SaleDetail `gorm:"foreignKey:SaleID"`
	Payments []Payment    `gorm:"foreignKey:SaleID"`
}

func (Sale) TableName() string { return "sales" }

// Processed reports whether inventory has been deducted for this sale.
func (s *Sale) Processed() bool { return s.ProcessedAt != nil }

// SaleNumber renders the business identifier, e.g. "B001-000123".
func (s *Sale) SaleNumber() string {
	return fmt.Sprintf("%s-%06d", s.Series, s.Number)
}

// SaleDetail is one line of a sale. Once the sale is processed the set is
// only replaceable through the inventory-diff reconciliation path.
type SaleDetail struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Subtotal is the tax-inclusive line total; Base and TaxAmount are the
	// per-line IGV decomposition rounded before summation.
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Base      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (SaleDetail) TableName() string { return "sale_details" }
