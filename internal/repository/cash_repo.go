package repository

import (
	"context"

	"ferrepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashRepository covers registers, sessions, the movement ledger and
// inter-register transfers. Movements are append-only: there is no update or
// delete on them anywhere in this interface.
type CashRepository interface {
	FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)

	CreateSessionTx(tx *gorm.DB, s *model.CashSession) error
	// FindOpenByRegisterTx takes a FOR UPDATE lock so two concurrent opens on
	// the same register serialize instead of both passing the existence check.
	FindOpenByRegisterTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error)
	FindOpenByUserTx(tx *gorm.DB, userID uuid.UUID) (*model.CashSession, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	SaveSessionTx(tx *gorm.DB, s *model.CashSession) error

	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	ListMovementsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error)

	CreateTransfer(ctx context.Context, t *model.CashTransfer) error
	FindTransferByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashTransfer, error)
	SaveTransferTx(tx *gorm.DB, t *model.CashTransfer) error

	ListClosedSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *cashRepo) CreateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *cashRepo) FindOpenByRegisterTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("register_id = ? AND status = ?", registerID, model.SessionStatusOpen).
		First(&s).Error
	return &s, err
}

func (r *cashRepo) FindOpenByUserTx(tx *gorm.DB, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, model.SessionStatusOpen).
		First(&s).Error
	return &s, err
}

func (r *cashRepo) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SessionStatusOpen).
		First(&s).Error
	return &s, err
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, id).Error
	return &s, err
}

func (r *cashRepo) SaveSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Omit("Movements", "Register").Save(s).Error
}

func (r *cashRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cashRepo) ListMovementsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := tx.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cashRepo) CreateTransfer(ctx context.Context, t *model.CashTransfer) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *cashRepo) FindTransferByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashTransfer, error) {
	var t model.CashTransfer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	return &t, err
}

func (r *cashRepo) SaveTransferTx(tx *gorm.DB, t *model.CashTransfer) error {
	return tx.Save(t).Error
}

func (r *cashRepo) ListClosedSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("status = ?", model.SessionStatusClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
