package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase order statuses. Except for the explicit cancelled state, status is
// a pure function of received vs ordered quantities across lines.
const (
	OrderStatusPending   = "pending"
	OrderStatusPartial   = "partial"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

// PurchaseOrder tracks goods ordered from a supplier for one branch.
type PurchaseOrder struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number     int       `gorm:"not null;uniqueIndex"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	Status     string    `gorm:"type:varchar(10);not null;default:'pending';index"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Notes      *string
	ReceivedAt  *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Details []PurchaseOrderDetail `gorm:"foreignKey:OrderID"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// ComputeStatus derives the order status from its lines. Cancelled orders
// keep their status regardless of quantities.
func (o *PurchaseOrder) ComputeStatus() string {
	if o.Status == OrderStatusCancelled {
		return OrderStatusCancelled
	}
	ordered, received := 0, 0
	for _, d := range o.Details {
		ordered += d.QuantityOrdered
		received += d.QuantityReceived
	}
	switch {
	case received == 0:
		return OrderStatusPending
	case received < ordered:
		return OrderStatusPartial
	default:
		return OrderStatusReceived
	}
}

// PurchaseOrderDetail is one ordered line. QuantityReceived never exceeds
// QuantityOrdered; the unit price becomes the product's cost on receipt and
// SalePrice, when positive, becomes the new catalog sale price.
type PurchaseOrderDetail struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityOrdered  int             `gorm:"not null"`
	QuantityReceived int             `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (PurchaseOrderDetail) TableName() string { return "purchase_order_details" }
