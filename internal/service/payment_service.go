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

// paymentTolerance absorbs sub-cent drift when deciding whether an
// installment or a sale's balance is settled.
var paymentTolerance = decimal.NewFromFloat(0.01)

type PaymentService interface {
	// PayInstallment applies money to one installment, recomputes the sale's
	// remaining balance, flips the sale to paid when it reaches zero, and
	// records cash receipts in the caller's open register session.
	PayInstallment(ctx context.Context, userID, paymentID uuid.UUID, req dto.PayInstallmentRequest) (*dto.PayInstallmentResponse, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentResponse, error)
	// ListDueSoon returns pending installments due within the configured
	// window, soonest first.
	ListDueSoon(ctx context.Context) ([]dto.PaymentResponse, error)
	// SweepOverdue marks every pending installment past its due date as
	// overdue. Invoked by the cron worker, exposed for manual runs too.
	SweepOverdue(ctx context.Context) (*dto.SweepResponse, error)
}

type paymentService struct {
	repo        repository.PaymentRepository
	saleRepo    repository.SaleRepository
	cashRepo    repository.CashRepository
	dueSoonDays int
}

func NewPaymentService(repo repository.PaymentRepository, saleRepo repository.SaleRepository, cashRepo repository.CashRepository, dueSoonDays int) PaymentService {
	if dueSoonDays < 1 {
		dueSoonDays = 7
	}
	return &paymentService{repo: repo, saleRepo: saleRepo, cashRepo: cashRepo, dueSoonDays: dueSoonDays}
}

func (s *paymentService) PayInstallment(ctx context.Context, userID, paymentID uuid.UUID, req dto.PayInstallmentRequest) (*dto.PayInstallmentResponse, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: installment", ErrNotFound)
	}
	if payment.Status == model.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}
	sale := payment.Sale
	if sale == nil {
		return nil, errors.New("installment has no sale")
	}
	if sale.Status == model.SaleStatusAnnulled {
		return nil, ErrAlreadyAnnulled
	}

	remaining := payment.Amount.Sub(payment.PaidAmount)
	if req.PaidAmount.GreaterThan(remaining.Add(paymentTolerance)) {
		return nil, fmt.Errorf("payment of %s exceeds the %s remaining on installment %d",
			req.PaidAmount.StringFixed(2), remaining.StringFixed(2), payment.Number)
	}

	method := req.Method
	if method == "" {
		method = model.MethodCash
	}
	change := decimal.Zero
	if method == model.MethodCash && req.ReceivedAmount != nil && req.ReceivedAmount.GreaterThan(req.PaidAmount) {
		change = req.ReceivedAmount.Sub(req.PaidAmount)
	}

	var resp *dto.PayInstallmentResponse
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		now := time.Now()

		payment.PaidAmount = payment.PaidAmount.Add(req.PaidAmount)
		newRemaining := payment.Amount.Sub(payment.PaidAmount)
		if newRemaining.IsNegative() {
			newRemaining = decimal.Zero
		}
		payment.RemainingAmount = newRemaining
		if newRemaining.LessThanOrEqual(paymentTolerance) {
			payment.RemainingAmount = decimal.Zero
			payment.Status = model.PaymentStatusPaid
			payment.PaidAt = &now
		} else {
			payment.Status = model.PaymentStatusPartial
		}
		payment.Method = &method
		payment.Reference = req.Reference
		payment.Notes = req.Notes
		if err := s.repo.SaveTx(tx, payment); err != nil {
			return err
		}

		// The sale's balance is recomputed from the ledger of applied money,
		// never decremented in place.
		all, err := s.repo.ListBySaleTx(tx, sale.ID)
		if err != nil {
			return err
		}
		paid := decimal.Zero
		for _, p := range all {
			paid = paid.Add(p.PaidAmount)
		}
		balance := sale.Total.Sub(sale.InitialPayment).Sub(paid)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		sale.RemainingBalance = balance
		if balance.LessThanOrEqual(paymentTolerance) {
			sale.RemainingBalance = decimal.Zero
			sale.Status = model.SaleStatusPaid
		}
		if err := s.saleRepo.SaveTx(tx, sale); err != nil {
			return err
		}

		if method == model.MethodCash {
			session, err := s.cashRepo.FindOpenByUserTx(tx, userID)
			if err != nil {
				return ErrNoOpenSession
			}
			saleRef := sale.ID
			if err := s.cashRepo.CreateMovementTx(tx, &model.CashMovement{
				SessionID:   session.ID,
				Type:        model.MovementCreditPayment,
				Method:      method,
				Amount:      req.PaidAmount,
				Description: fmt.Sprintf("Installment %d of sale %s", payment.Number, sale.SaleNumber()),
				ReferenceID: &saleRef,
			}); err != nil {
				return err
			}
		}

		resp = &dto.PayInstallmentResponse{
			Payment:              paymentToResponse(payment),
			SaleRemainingBalance: sale.RemainingBalance,
			SaleStatus:           sale.Status,
			ChangeAmount:         change,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return resp, nil
}

func (s *paymentService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentResponse, error) {
	payments, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, paymentToResponse(&payments[i]))
	}
	return out, nil
}

func (s *paymentService) ListDueSoon(ctx context.Context) ([]dto.PaymentResponse, error) {
	now := time.Now()
	payments, err := s.repo.ListDueSoon(ctx, now, now.AddDate(0, 0, s.dueSoonDays))
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, paymentToResponse(&payments[i]))
	}
	return out, nil
}

func (s *paymentService) SweepOverdue(ctx context.Context) (*dto.SweepResponse, error) {
	marked, err := s.repo.MarkOverdue(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return &dto.SweepResponse{UpdatedCount: marked}, nil
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		ID:              p.ID.String(),
		SaleID:          p.SaleID.String(),
		Number:          p.Number,
		Amount:          p.Amount,
		PaidAmount:      p.PaidAmount,
		RemainingAmount: p.RemainingAmount,
		DueDate:         p.DueDate.Format("2006-01-02"),
		Status:          p.Status,
		Method:          p.Method,
		Reference:       p.Reference,
	}
	if p.PaidAt != nil {
		ts := p.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &ts
	}
	if p.Sale != nil {
		resp.SaleNumber = p.Sale.SaleNumber()
	}
	return resp
}
