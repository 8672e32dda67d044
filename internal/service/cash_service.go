package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashService interface {
	// OpenSession opens a session on a register. Fails if the register already
	// has an open session or the user has one open anywhere.
	OpenSession(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error)
	// CloseSession freezes the expected balance from the movement ledger and
	// records the counted cash and the difference.
	CloseSession(ctx context.Context, userID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	// ReopenSession puts a closed session back in service, clearing the
	// reconciliation snapshot. Only the owner may reopen, and only while the
	// register has not started a newer session.
	ReopenSession(ctx context.Context, userID, sessionID uuid.UUID, req dto.ReopenSessionRequest) (*dto.SessionReportResponse, error)
	// RecordManualMovement appends a manual income, egress or expense entry
	// to the caller's open session.
	RecordManualMovement(ctx context.Context, userID uuid.UUID, req dto.ManualMovementRequest) (*dto.MovementResponse, error)
	GetActiveSession(ctx context.Context, userID uuid.UUID) (*dto.SessionReportResponse, error)
	GetSessionReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	ListHistory(ctx context.Context, page, limit int) (*dto.SessionHistoryResponse, error)

	CreateTransfer(ctx context.Context, userID uuid.UUID, req dto.CreateTransferRequest) (*dto.TransferResponse, error)
	// CompleteTransfer emits the matched transfer_out/transfer_in movement
	// pair against both registers' open sessions atomically.
	CompleteTransfer(ctx context.Context, transferID uuid.UUID) (*dto.TransferResponse, error)
	CancelTransfer(ctx context.Context, transferID uuid.UUID) (*dto.TransferResponse, error)
}

type cashService struct {
	repo repository.CashRepository
}

func NewCashService(repo repository.CashRepository) CashService {
	return &cashService{repo: repo}
}

// ── Session lifecycle ────────────────────────────────────────────────────────

func (s *cashService) OpenSession(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, fmt.Errorf("invalid register_id: %w", err)
	}
	register, err := s.repo.FindRegisterByID(ctx, registerID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash register", ErrNotFound)
	}
	if !register.Active {
		return nil, errors.New("cash register is inactive")
	}

	var session *model.CashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Both uniqueness checks run under row locks so two concurrent opens
		// cannot both pass.
		if _, err := s.repo.FindOpenByRegisterTx(tx, registerID); err == nil {
			return ErrRegisterAlreadyOpen
		}
		if _, err := s.repo.FindOpenByUserTx(tx, userID); err == nil {
			return ErrUserSessionOpen
		}

		session = &model.CashSession{
			RegisterID:     registerID,
			UserID:         userID,
			Status:         model.SessionStatusOpen,
			OpeningBalance: req.OpeningBalance,
			Notes:          req.Notes,
			OpenedAt:       time.Now(),
		}
		return s.repo.CreateSessionTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.sessionReport(session, nil), nil
}

func (s *cashService) CloseSession(ctx context.Context, userID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	var resp *dto.CloseSessionResponse
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindSessionByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("%w: cash session", ErrNotFound)
		}
		if session.Status != model.SessionStatusOpen {
			return ErrSessionClosed
		}
		if session.UserID != userID {
			return ErrNotOwner
		}

		movements, err := s.repo.ListMovementsTx(tx, session.ID)
		if err != nil {
			return err
		}
		expected := ExpectedBalance(session.OpeningBalance, movements)
		diff := req.ActualBalance.Sub(expected)
		now := time.Now()

		session.Status = model.SessionStatusClosed
		session.ExpectedBalance = &expected
		session.ActualBalance = &req.ActualBalance
		session.Difference = &diff
		session.ClosedAt = &now
		if req.Notes != nil {
			session.Notes = appendNote(session.Notes, *req.Notes)
		}
		if err := s.repo.SaveSessionTx(tx, session); err != nil {
			return err
		}

		resp = &dto.CloseSessionResponse{
			SessionID:       session.ID.String(),
			ExpectedBalance: expected,
			ActualBalance:   req.ActualBalance,
			Difference:      diff,
			Status:          session.Status,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return resp, nil
}

func (s *cashService) ReopenSession(ctx context.Context, userID, sessionID uuid.UUID, req dto.ReopenSessionRequest) (*dto.SessionReportResponse, error) {
	var session *model.CashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		session, err = s.repo.FindSessionByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("%w: cash session", ErrNotFound)
		}
		if session.Status != model.SessionStatusClosed {
			return errors.New("session is not closed")
		}
		if session.UserID != userID {
			return ErrNotOwner
		}
		// The register must not have moved on to a newer session.
		if _, err := s.repo.FindOpenByRegisterTx(tx, session.RegisterID); err == nil {
			return ErrRegisterBusy
		}
		// Same one-session-per-user rule as OpenSession: the owner cannot
		// resurrect this session while working another register.
		if _, err := s.repo.FindOpenByUserTx(tx, userID); err == nil {
			return ErrUserSessionOpen
		}

		session.Status = model.SessionStatusOpen
		session.ExpectedBalance = nil
		session.ActualBalance = nil
		session.Difference = nil
		session.ClosedAt = nil
		if req.Notes != nil {
			session.Notes = appendNote(session.Notes, *req.Notes)
		}
		return s.repo.SaveSessionTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}
	movements, _ := s.repo.ListMovements(ctx, session.ID)
	return s.sessionReport(session, movements), nil
}

// ── Movements ────────────────────────────────────────────────────────────────

func (s *cashService) RecordManualMovement(ctx context.Context, userID uuid.UUID, req dto.ManualMovementRequest) (*dto.MovementResponse, error) {
	var movement *model.CashMovement
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindOpenByUserTx(tx, userID)
		if err != nil {
			return ErrNoOpenSession
		}
		description := req.Description
		if req.Notes != nil {
			description = description + " — " + *req.Notes
		}
		movement = &model.CashMovement{
			SessionID:   session.ID,
			Type:        req.Type,
			Method:      req.Method,
			Amount:      req.Amount,
			Description: description,
		}
		return s.repo.CreateMovementTx(tx, movement)
	})
	if txErr != nil {
		return nil, txErr
	}
	resp := movementToResponse(movement)
	return &resp, nil
}

// ── Read side ────────────────────────────────────────────────────────────────

func (s *cashService) GetActiveSession(ctx context.Context, userID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, ErrNoActiveSession
	}
	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return s.sessionReport(session, movements), nil
}

func (s *cashService) GetSessionReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash session", ErrNotFound)
	}
	return s.sessionReport(session, session.Movements), nil
}

func (s *cashService) ListHistory(ctx context.Context, page, limit int) (*dto.SessionHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	sessions, total, err := s.repo.ListClosedSessions(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SessionReportResponse, 0, len(sessions))
	for i := range sessions {
		data = append(data, *s.sessionReport(&sessions[i], sessions[i].Movements))
	}
	return &dto.SessionHistoryResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ── Transfers ────────────────────────────────────────────────────────────────

func (s *cashService) CreateTransfer(ctx context.Context, userID uuid.UUID, req dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	fromID, err := uuid.Parse(req.FromRegisterID)
	if err != nil {
		return nil, fmt.Errorf("invalid from_register_id: %w", err)
	}
	toID, err := uuid.Parse(req.ToRegisterID)
	if err != nil {
		return nil, fmt.Errorf("invalid to_register_id: %w", err)
	}
	if _, err := s.repo.FindRegisterByID(ctx, fromID); err != nil {
		return nil, fmt.Errorf("%w: source register", ErrNotFound)
	}
	if _, err := s.repo.FindRegisterByID(ctx, toID); err != nil {
		return nil, fmt.Errorf("%w: destination register", ErrNotFound)
	}

	transfer := &model.CashTransfer{
		FromRegisterID: fromID,
		ToRegisterID:   toID,
		UserID:         userID,
		Amount:         req.Amount,
		Status:         model.TransferStatusPending,
		Description:    req.Description,
	}
	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	return transferToResponse(transfer), nil
}

func (s *cashService) CompleteTransfer(ctx context.Context, transferID uuid.UUID) (*dto.TransferResponse, error) {
	var transfer *model.CashTransfer
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		transfer, err = s.repo.FindTransferByIDTx(tx, transferID)
		if err != nil {
			return fmt.Errorf("%w: transfer", ErrNotFound)
		}
		if transfer.Status != model.TransferStatusPending {
			return ErrTransferNotPending
		}

		fromSession, err := s.repo.FindOpenByRegisterTx(tx, transfer.FromRegisterID)
		if err != nil {
			return fmt.Errorf("%w: source register", ErrNoOpenSession)
		}
		toSession, err := s.repo.FindOpenByRegisterTx(tx, transfer.ToRegisterID)
		if err != nil {
			return fmt.Errorf("%w: destination register", ErrNoOpenSession)
		}

		// Enough cash must be in the source drawer at completion time.
		movements, err := s.repo.ListMovementsTx(tx, fromSession.ID)
		if err != nil {
			return err
		}
		if ExpectedBalance(fromSession.OpeningBalance, movements).LessThan(transfer.Amount) {
			return fmt.Errorf("insufficient cash in source register for transfer of %s", transfer.Amount.StringFixed(2))
		}

		ref := transfer.ID
		description := fmt.Sprintf("Transfer %s", transfer.ID)
		if transfer.Description != "" {
			description = transfer.Description
		}
		if err := s.repo.CreateMovementTx(tx, &model.CashMovement{
			SessionID:   fromSession.ID,
			Type:        model.MovementTransferOut,
			Method:      model.MethodCash,
			Amount:      transfer.Amount,
			Description: description,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := s.repo.CreateMovementTx(tx, &model.CashMovement{
			SessionID:   toSession.ID,
			Type:        model.MovementTransferIn,
			Method:      model.MethodCash,
			Amount:      transfer.Amount,
			Description: description,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}

		now := time.Now()
		transfer.Status = model.TransferStatusCompleted
		transfer.CompletedAt = &now
		return s.repo.SaveTransferTx(tx, transfer)
	})
	if txErr != nil {
		return nil, txErr
	}
	return transferToResponse(transfer), nil
}

func (s *cashService) CancelTransfer(ctx context.Context, transferID uuid.UUID) (*dto.TransferResponse, error) {
	var transfer *model.CashTransfer
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		transfer, err = s.repo.FindTransferByIDTx(tx, transferID)
		if err != nil {
			return fmt.Errorf("%w: transfer", ErrNotFound)
		}
		if transfer.Status != model.TransferStatusPending {
			return ErrTransferNotPending
		}
		transfer.Status = model.TransferStatusCancelled
		return s.repo.SaveTransferTx(tx, transfer)
	})
	if txErr != nil {
		return nil, txErr
	}
	return transferToResponse(transfer), nil
}

// ── Balance math ─────────────────────────────────────────────────────────────

// ExpectedBalance derives the cash a drawer should hold: opening balance
// plus cash-method ingress minus cash-method egress. Card, transfer and
// wallet movements are audit entries and do not participate.
func ExpectedBalance(opening decimal.Decimal, movements []model.CashMovement) decimal.Decimal {
	balance := opening
	for i := range movements {
		m := &movements[i]
		if !m.CountsForBalance() {
			continue
		}
		if m.Ingress() {
			balance = balance.Add(m.Amount)
		} else {
			balance = balance.Sub(m.Amount)
		}
	}
	return balance
}

func appendNote(existing *string, note string) *string {
	if existing == nil || *existing == "" {
		return &note
	}
	joined := *existing + " | " + note
	return &joined
}

func (s *cashService) sessionReport(session *model.CashSession, movements []model.CashMovement) *dto.SessionReportResponse {
	resp := &dto.SessionReportResponse{
		SessionID:      session.ID.String(),
		RegisterID:     session.RegisterID.String(),
		UserID:         session.UserID.String(),
		Status:         session.Status,
		OpeningBalance: session.OpeningBalance,
		ActualBalance:  session.ActualBalance,
		Difference:     session.Difference,
		Notes:          session.Notes,
		OpenedAt:       session.OpenedAt.Format(time.RFC3339),
	}
	if session.ExpectedBalance != nil {
		resp.ExpectedBalance = *session.ExpectedBalance
	} else {
		resp.ExpectedBalance = ExpectedBalance(session.OpeningBalance, movements)
	}
	if session.ClosedAt != nil {
		ts := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &ts
	}
	resp.Movements = make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		resp.Movements = append(resp.Movements, movementToResponse(&movements[i]))
	}
	return resp
}

func movementToResponse(m *model.CashMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:          m.ID.String(),
		Type:        m.Type,
		Method:      m.Method,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

func transferToResponse(t *model.CashTransfer) *dto.TransferResponse {
	return &dto.TransferResponse{
		ID:             t.ID.String(),
		FromRegisterID: t.FromRegisterID.String(),
		ToRegisterID:   t.ToRegisterID.String(),
		Amount:         t.Amount,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
}
