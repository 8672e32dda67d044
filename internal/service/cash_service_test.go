package service

import (
	"context"
	"testing"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cashFixture struct {
	repo     *stubCashRepo
	svc      CashService
	userID   uuid.UUID
	branchID uuid.UUID
	register *model.CashRegister
}

func newCashFixture(t *testing.T) *cashFixture {
	t.Helper()
	f := &cashFixture{
		repo:     newStubCashRepo(),
		userID:   uuid.New(),
		branchID: uuid.New(),
	}
	f.register = f.repo.addRegister(f.branchID, "Till 1")
	f.svc = NewCashService(f.repo)
	return f
}

func (f *cashFixture) open(t *testing.T, userID uuid.UUID, opening string) *dto.SessionReportResponse {
	t.Helper()
	resp, err := f.svc.OpenSession(context.Background(), userID, dto.OpenSessionRequest{
		RegisterID:     f.register.ID.String(),
		OpeningBalance: d(opening),
	})
	require.NoError(t, err)
	return resp
}

func TestOpenAndCloseSession(t *testing.T) {
	f := newCashFixture(t)

	opened := f.open(t, f.userID, "100.00")
	assert.Equal(t, model.SessionStatusOpen, opened.Status)
	assert.Equal(t, "100.00", opened.ExpectedBalance.StringFixed(2))

	_, err := f.svc.RecordManualMovement(context.Background(), f.userID, dto.ManualMovementRequest{
		Type:        model.MovementManualIncome,
		Method:      model.MethodCash,
		Amount:      d("50.00"),
		Description: "till float top-up",
	})
	require.NoError(t, err)

	closed, err := f.svc.CloseSession(context.Background(), f.userID, uuid.MustParse(opened.SessionID), dto.CloseSessionRequest{
		ActualBalance: d("150.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "150.00", closed.ExpectedBalance.StringFixed(2))
	assert.Equal(t, "150.00", closed.ActualBalance.StringFixed(2))
	assert.True(t, closed.Difference.IsZero())
	assert.Equal(t, model.SessionStatusClosed, closed.Status)
}

func TestCloseSessionReportsShortage(t *testing.T) {
	f := newCashFixture(t)
	opened := f.open(t, f.userID, "100.00")

	closed, err := f.svc.CloseSession(context.Background(), f.userID, uuid.MustParse(opened.SessionID), dto.CloseSessionRequest{
		ActualBalance: d("90.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "-10.00", closed.Difference.StringFixed(2))
}

func TestOpenSessionRegisterAlreadyOpen(t *testing.T) {
	f := newCashFixture(t)
	f.open(t, f.userID, "100.00")

	_, err := f.svc.OpenSession(context.Background(), uuid.New(), dto.OpenSessionRequest{
		RegisterID:     f.register.ID.String(),
		OpeningBalance: d("50.00"),
	})
	require.ErrorIs(t, err, ErrRegisterAlreadyOpen)
}

func TestOpenSessionUserAlreadyHasOne(t *testing.T) {
	f := newCashFixture(t)
	f.open(t, f.userID, "100.00")
	other := f.repo.addRegister(f.branchID, "Till 2")

	_, err := f.svc.OpenSession(context.Background(), f.userID, dto.OpenSessionRequest{
		RegisterID:     other.ID.String(),
		OpeningBalance: d("50.00"),
	})
	require.ErrorIs(t, err, ErrUserSessionOpen)
}

func TestOpenSessionInactiveRegister(t *testing.T) {
	f := newCashFixture(t)
	f.register.Active = false

	_, err := f.svc.OpenSession(context.Background(), f.userID, dto.OpenSessionRequest{
		RegisterID:     f.register.ID.String(),
		OpeningBalance: d("50.00"),
	})
	require.Error(t, err)
}

func TestCloseSessionNotOwner(t *testing.T) {
	f := newCashFixture(t)
	opened := f.open(t, f.userID, "100.00")

	_, err := f.svc.CloseSession(context.Background(), uuid.New(), uuid.MustParse(opened.SessionID), dto.CloseSessionRequest{
		ActualBalance: d("100.00"),
	})
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestReopenSessionClearsSnapshot(t *testing.T) {
	f := newCashFixture(t)
	opened := f.open(t, f.userID, "100.00")
	sessionID := uuid.MustParse(opened.SessionID)

	_, err := f.svc.CloseSession(context.Background(), f.userID, sessionID, dto.CloseSessionRequest{
		ActualBalance: d("100.00"),
	})
	require.NoError(t, err)

	reopened, err := f.svc.ReopenSession(context.Background(), f.userID, sessionID, dto.ReopenSessionRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ActualBalance)
	assert.Nil(t, reopened.Difference)
	assert.Nil(t, reopened.ClosedAt)
}

func TestReopenSessionRegisterBusy(t *testing.T) {
	f := newCashFixture(t)
	opened := f.open(t, f.userID, "100.00")
	sessionID := uuid.MustParse(opened.SessionID)

	_, err := f.svc.CloseSession(context.Background(), f.userID, sessionID, dto.CloseSessionRequest{
		ActualBalance: d("100.00"),
	})
	require.NoError(t, err)

	// Another cashier has since opened the register.
	f.repo.openSession(f.register.ID, uuid.New(), d("80.00"))

	_, err = f.svc.ReopenSession(context.Background(), f.userID, sessionID, dto.ReopenSessionRequest{})
	require.ErrorIs(t, err, ErrRegisterBusy)
}

func TestReopenSessionOwnerWorkingAnotherRegister(t *testing.T) {
	f := newCashFixture(t)
	opened := f.open(t, f.userID, "100.00")
	sessionID := uuid.MustParse(opened.SessionID)

	_, err := f.svc.CloseSession(context.Background(), f.userID, sessionID, dto.CloseSessionRequest{
		ActualBalance: d("100.00"),
	})
	require.NoError(t, err)

	// The owner has moved on to a second till; reopening the first would
	// give them two live sessions.
	other := f.repo.addRegister(f.branchID, "Till 2")
	f.repo.openSession(other.ID, f.userID, d("60.00"))

	_, err = f.svc.ReopenSession(context.Background(), f.userID, sessionID, dto.ReopenSessionRequest{})
	require.ErrorIs(t, err, ErrUserSessionOpen)
}

func TestManualMovementRequiresOpenSession(t *testing.T) {
	f := newCashFixture(t)

	_, err := f.svc.RecordManualMovement(context.Background(), f.userID, dto.ManualMovementRequest{
		Type:        model.MovementExpense,
		Method:      model.MethodCash,
		Amount:      d("20.00"),
		Description: "parking",
	})
	require.ErrorIs(t, err, ErrNoOpenSession)
}

func TestExpectedBalanceIgnoresNonCashMovements(t *testing.T) {
	movements := []model.CashMovement{
		{Type: model.MovementSale, Method: model.MethodCash, Amount: d("100.00")},
		{Type: model.MovementSale, Method: model.MethodCard, Amount: d("50.00")},
		{Type: model.MovementExpense, Method: model.MethodCash, Amount: d("20.00")},
		{Type: model.MovementManualIncome, Method: model.MethodYape, Amount: d("30.00")},
	}

	expected := ExpectedBalance(d("100.00"), movements)

	// opening 100 + cash sale 100 − cash expense 20; card and yape are
	// audit-only.
	assert.Equal(t, "180.00", expected.StringFixed(2))
}

func TestTransferLifecycle(t *testing.T) {
	f := newCashFixture(t)
	dest := f.repo.addRegister(f.branchID, "Till 2")

	srcSession := f.repo.openSession(f.register.ID, f.userID, d("100.00"))
	dstSession := f.repo.openSession(dest.ID, uuid.New(), d("50.00"))

	created, err := f.svc.CreateTransfer(context.Background(), f.userID, dto.CreateTransferRequest{
		FromRegisterID: f.register.ID.String(),
		ToRegisterID:   dest.ID.String(),
		Amount:         d("30.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusPending, created.Status)

	completed, err := f.svc.CompleteTransfer(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusCompleted, completed.Status)

	srcMov := f.repo.movements[srcSession.ID]
	require.Len(t, srcMov, 1)
	assert.Equal(t, model.MovementTransferOut, srcMov[0].Type)
	dstMov := f.repo.movements[dstSession.ID]
	require.Len(t, dstMov, 1)
	assert.Equal(t, model.MovementTransferIn, dstMov[0].Type)

	assert.Equal(t, "70.00", ExpectedBalance(srcSession.OpeningBalance, srcMov).StringFixed(2))
	assert.Equal(t, "80.00", ExpectedBalance(dstSession.OpeningBalance, dstMov).StringFixed(2))

	// A completed transfer cannot be completed or cancelled again.
	_, err = f.svc.CompleteTransfer(context.Background(), uuid.MustParse(created.ID))
	require.ErrorIs(t, err, ErrTransferNotPending)
	_, err = f.svc.CancelTransfer(context.Background(), uuid.MustParse(created.ID))
	require.ErrorIs(t, err, ErrTransferNotPending)
}

func TestTransferInsufficientSourceCash(t *testing.T) {
	f := newCashFixture(t)
	dest := f.repo.addRegister(f.branchID, "Till 2")
	f.repo.openSession(f.register.ID, f.userID, d("100.00"))
	f.repo.openSession(dest.ID, uuid.New(), d("50.00"))

	created, err := f.svc.CreateTransfer(context.Background(), f.userID, dto.CreateTransferRequest{
		FromRegisterID: f.register.ID.String(),
		ToRegisterID:   dest.ID.String(),
		Amount:         d("500.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteTransfer(context.Background(), uuid.MustParse(created.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient cash")
}

func TestTransferRequiresOpenSessions(t *testing.T) {
	f := newCashFixture(t)
	dest := f.repo.addRegister(f.branchID, "Till 2")

	created, err := f.svc.CreateTransfer(context.Background(), f.userID, dto.CreateTransferRequest{
		FromRegisterID: f.register.ID.String(),
		ToRegisterID:   dest.ID.String(),
		Amount:         d("10.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteTransfer(context.Background(), uuid.MustParse(created.ID))
	require.ErrorIs(t, err, ErrNoOpenSession)
}
