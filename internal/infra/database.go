package infra

import (
	"fmt"

	"ferrepos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the schema; also used by integration tests against a
// scratch database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Inventory{},
		&model.StockMovement{},
		&model.Sale{},
		&model.SaleDetail{},
		&model.Payment{},
		&model.CashRegister{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.CashTransfer{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderDetail{},
		&model.DocumentCounter{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements beyond AutoMigrate's
// vocabulary. The partial unique indexes are the DB-level backstop for the
// one-open-session invariants; the services also check under row locks.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_open_session_per_register') THEN
		    CREATE UNIQUE INDEX uniq_open_session_per_register
		        ON cash_sessions (register_id)
		        WHERE status = 'open';
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_open_session_per_user') THEN
		    CREATE UNIQUE INDEX uniq_open_session_per_user
		        ON cash_sessions (user_id)
		        WHERE status = 'open';
		  END IF;
		END $$`,
		// Due-soon and sweep queries walk pending installments by due date.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_payments_pending_due') THEN
		    CREATE INDEX idx_payments_pending_due
		        ON payments (due_date)
		        WHERE status = 'pending';
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
