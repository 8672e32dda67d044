package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventory is the per (product, branch) stock counter. CurrentStock is only
// ever mutated through the inventory service's deduct/restore/receive paths;
// everything else reads it.
type Inventory struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_branch"`
	BranchID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_branch"`
	CurrentStock int             `gorm:"not null;default:0"`
	MinStock     int             `gorm:"not null;default:5"`
	MaxStock     int             `gorm:"not null;default:0"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SalePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LastMovementAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (Inventory) TableName() string { return "inventories" }

// StockMovement records every change applied to an inventory row.
// Rows are immutable — corrections create inverse entries, never updates.
// Type: "sale" | "sale_adjust" | "cancel_restore" | "receipt" | "receipt_reversal"
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"not null"`
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // originating sale / purchase order
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
