package model

// DocumentCounter backs atomic business-number generation, one row per sale
// series or document kind (e.g. "B001", "PO"). Advanced via an upsert with
// RETURNING so concurrent writers never observe the same number.
type DocumentCounter struct {
	Name       string `gorm:"primaryKey;type:varchar(20)"`
	LastNumber int    `gorm:"not null;default:0"`
}

func (DocumentCounter) TableName() string { return "document_counters" }
