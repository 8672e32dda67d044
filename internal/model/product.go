package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entity read by the ledger engines. The only write
// path into it from this core is purchase-order receiving, which propagates
// cost and sale prices on receipt.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	// TaxRate is the IGV percentage applied per line (e.g. 18.00).
	TaxRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// TaxIncluded marks products whose listed sale price already carries IGV.
	TaxIncluded bool            `gorm:"not null;default:true"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Unit        string          `gorm:"not null;default:'unit'"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }
