package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"
	"ferrepos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	// RegisterSale creates the sale and, unless the request marks it a draft,
	// processes it in the same transaction.
	RegisterSale(ctx context.Context, userID, branchID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	// ProcessSale deducts inventory for a pending draft, all lines or none.
	ProcessSale(ctx context.Context, userID, saleID uuid.UUID) (*dto.SaleResponse, error)
	// CancelSale annuls a sale, restoring whatever inventory it had deducted.
	CancelSale(ctx context.Context, userID, saleID uuid.UUID, reason string) error
	// UpdateSale replaces a pending sale's detail set, reconciling inventory
	// by per-product deltas when the sale was already processed.
	UpdateSale(ctx context.Context, saleID uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

// SaleConfig carries the business knobs the engine needs, injected at wiring
// time instead of read from ambient settings.
type SaleConfig struct {
	// CustomerRequiredAbove forces customer identification on totals above
	// this threshold (and always for facturas).
	CustomerRequiredAbove decimal.Decimal
}

type saleService struct {
	repo        repository.SaleRepository
	inventory   InventoryService
	cashRepo    repository.CashRepository
	paymentRepo repository.PaymentRepository
	productRepo repository.ProductRepository
	dispatcher  *worker.Dispatcher
	cfg         SaleConfig
}

func NewSaleService(
	repo repository.SaleRepository,
	inventory InventoryService,
	cashRepo repository.CashRepository,
	paymentRepo repository.PaymentRepository,
	productRepo repository.ProductRepository,
	dispatcher *worker.Dispatcher,
	cfg SaleConfig,
) SaleService {
	return &saleService{
		repo:        repo,
		inventory:   inventory,
		cashRepo:    cashRepo,
		paymentRepo: paymentRepo,
		productRepo: productRepo,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func seriesFor(documentType string) string {
	switch documentType {
	case model.DocumentFactura:
		return "F001"
	case model.DocumentBoleta:
		return "B001"
	default:
		return "T001"
	}
}

// ── RegisterSale ─────────────────────────────────────────────────────────────
// One atomic unit: number allocation, sale + detail rows, inventory
// deduction, installment scheduling and the register movement either all
// commit or none do.

func (s *saleService) RegisterSale(ctx context.Context, userID, branchID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.buildSale(ctx, userID, branchID, req)
	if err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextNumber(tx, sale.Series)
		if err != nil {
			return err
		}
		sale.Number = number

		if err := s.repo.CreateTx(tx, sale); err != nil {
			return err
		}
		if req.Draft {
			return nil
		}
		return s.processTx(tx, sale, userID)
	})
	if txErr != nil {
		return nil, txErr
	}

	if !req.Draft {
		s.notifyStockCheck(ctx, sale)
	}
	return saleToResponse(sale), nil
}

// buildSale validates the request and assembles the pending aggregate,
// totals included, without touching the store.
func (s *saleService) buildSale(ctx context.Context, userID, branchID uuid.UUID, req dto.CreateSaleRequest) (*model.Sale, error) {
	docType := req.DocumentType
	if docType == "" {
		docType = model.DocumentTicket
	}
	method := req.Method
	if method == "" {
		method = model.MethodCash
	}

	details, err := s.resolveDetails(ctx, req.Details)
	if err != nil {
		return nil, err
	}

	subtotal, tax, total := SumLines(details, req.Discount)
	if !total.IsPositive() {
		return nil, errors.New("sale total must be positive")
	}

	if err := s.checkCustomer(docType, total, req.CustomerID); err != nil {
		return nil, err
	}

	sale := &model.Sale{
		Series:        seriesFor(docType),
		DocumentType:  docType,
		BranchID:      branchID,
		UserID:        userID,
		PaymentType:   req.PaymentType,
		PaymentMethod: method,
		Status:        model.SaleStatusPending,
		Subtotal:      subtotal,
		Tax:           tax,
		Discount:      req.Discount,
		Total:         total,
		Details:       details,
	}
	if req.CustomerID != nil {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer_id: %w", err)
		}
		sale.CustomerID = &cid
	}
	sale.CustomerName = req.CustomerName

	switch req.PaymentType {
	case model.PaymentTypeCash:
		if !req.Draft && req.AmountPaid.LessThan(total) {
			return nil, errors.New("amount paid is less than the sale total")
		}
		sale.AmountPaid = req.AmountPaid
		change := req.AmountPaid.Sub(total)
		if change.IsNegative() {
			change = decimal.Zero
		}
		sale.ChangeAmount = change
	case model.PaymentTypeCredit:
		if req.Installments < 1 || req.CreditDays < 1 {
			return nil, errors.New("credit sales require installments and credit days")
		}
		if req.InitialPayment.GreaterThanOrEqual(total) {
			return nil, errors.New("initial payment must be below the sale total")
		}
		sale.InitialPayment = req.InitialPayment
		sale.RemainingBalance = total.Sub(req.InitialPayment)
		sale.Installments = req.Installments
		sale.CreditDays = req.CreditDays
	}

	return sale, nil
}

func (s *saleService) resolveDetails(ctx context.Context, reqs []dto.SaleDetailRequest) ([]model.SaleDetail, error) {
	details := make([]model.SaleDetail, 0, len(reqs))
	for _, item := range reqs {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, item.ProductID)
		}
		if !p.Active {
			return nil, fmt.Errorf("product %s is inactive", p.Name)
		}

		unitPrice := item.UnitPrice
		if !unitPrice.IsPositive() {
			unitPrice = p.SalePrice
		}
		base, taxAmt, lineTotal := SplitLine(item.Quantity, unitPrice, p.TaxRate, p.TaxIncluded)
		details = append(details, model.SaleDetail{
			ProductID: pid,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  lineTotal,
			Base:      base,
			TaxAmount: taxAmt,
		})
	}
	return details, nil
}

func (s *saleService) checkCustomer(docType string, total decimal.Decimal, customerID *string) error {
	required := docType == model.DocumentFactura ||
		(s.cfg.CustomerRequiredAbove.IsPositive() && total.GreaterThan(s.cfg.CustomerRequiredAbove))
	if required && customerID == nil {
		return errors.New("customer identification is required for this sale")
	}
	return nil
}

// ── ProcessSale ──────────────────────────────────────────────────────────────

func (s *saleService) ProcessSale(ctx context.Context, userID, saleID uuid.UUID) (*dto.SaleResponse, error) {
	var sale *model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.repo.FindByIDTx(tx, saleID)
		if err != nil {
			return fmt.Errorf("%w: sale", ErrNotFound)
		}
		return s.processTx(tx, sale, userID)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.notifyStockCheck(ctx, sale)
	return saleToResponse(sale), nil
}

// processTx deducts every line under row locks, then settles the sale.
// Cash sales become paid and put the money in the caller's open register
// session; credit sales stay pending with their installment schedule until
// the installment engine settles the balance.
func (s *saleService) processTx(tx *gorm.DB, sale *model.Sale, userID uuid.UUID) error {
	if sale.Processed() {
		return ErrAlreadyProcessed
	}
	if sale.Status != model.SaleStatusPending {
		return ErrNotPending
	}

	saleRef := sale.ID
	for _, d := range sale.Details {
		if err := s.inventory.DeductTx(tx, d.ProductID, sale.BranchID, d.Quantity,
			"sale", fmt.Sprintf("Sale %s", sale.SaleNumber()), &saleRef); err != nil {
			return err
		}
	}

	now := time.Now()
	sale.ProcessedAt = &now

	switch sale.PaymentType {
	case model.PaymentTypeCash:
		sale.Status = model.SaleStatusPaid
		if err := s.recordSaleMovementTx(tx, sale, userID, sale.Total); err != nil {
			return err
		}
	case model.PaymentTypeCredit:
		payments := scheduleInstallments(sale.RemainingBalance, sale.Installments, sale.CreditDays, now)
		for i := range payments {
			payments[i].SaleID = sale.ID
		}
		if err := s.paymentRepo.CreateBatchTx(tx, payments); err != nil {
			return err
		}
		sale.Payments = payments
		if sale.InitialPayment.IsPositive() {
			if err := s.recordSaleMovementTx(tx, sale, userID, sale.InitialPayment); err != nil {
				return err
			}
		}
	}

	return s.repo.SaveTx(tx, sale)
}

// recordSaleMovementTx appends the money actually received for this sale to
// the caller's open session ledger.
func (s *saleService) recordSaleMovementTx(tx *gorm.DB, sale *model.Sale, userID uuid.UUID, amount decimal.Decimal) error {
	session, err := s.cashRepo.FindOpenByUserTx(tx, userID)
	if err != nil {
		return ErrNoOpenSession
	}
	saleRef := sale.ID
	return s.cashRepo.CreateMovementTx(tx, &model.CashMovement{
		SessionID:   session.ID,
		Type:        model.MovementSale,
		Method:      sale.PaymentMethod,
		Amount:      amount,
		Description: fmt.Sprintf("Sale %s", sale.SaleNumber()),
		ReferenceID: &saleRef,
	})
}

// scheduleInstallments splits the financed balance evenly over n due dates
// spaced creditDays/n apart. Each installment is rounded to 2 decimals and
// the last one absorbs the rounding remainder, so the sum always equals the
// financed balance exactly.
func scheduleInstallments(financed decimal.Decimal, n, creditDays int, from time.Time) []model.Payment {
	// Every installment carries at least one cent, so a balance smaller
	// than n cents collapses the plan to fewer dues than requested.
	cent := decimal.New(1, -2)
	if maxN := int(financed.Div(cent).IntPart()); n > maxN {
		n = maxN
	}
	if n < 1 {
		n = 1
	}

	per := financed.Div(decimal.NewFromInt(int64(n))).Round(2)
	if per.Mul(decimal.NewFromInt(int64(n - 1))).GreaterThan(financed) {
		// Half-up rounding overshot the balance; round down instead and
		// let the last installment absorb the larger remainder.
		per = financed.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	}
	spacing := creditDays / n
	if spacing < 1 {
		spacing = 1
	}

	payments := make([]model.Payment, 0, n)
	for i := 1; i <= n; i++ {
		amount := per
		if i == n {
			amount = financed.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
		}
		payments = append(payments, model.Payment{
			Number:          i,
			Amount:          amount,
			PaidAmount:      decimal.Zero,
			RemainingAmount: amount,
			DueDate:         from.AddDate(0, 0, spacing*i),
			Status:          model.PaymentStatusPending,
		})
	}
	return payments
}

// ── CancelSale ───────────────────────────────────────────────────────────────

func (s *saleService) CancelSale(ctx context.Context, userID, saleID uuid.UUID, reason string) error {
	// The status check happens under the same row lock as the write, so two
	// concurrent annulments cannot both restore stock.
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDTx(tx, saleID)
		if err != nil {
			return fmt.Errorf("%w: sale", ErrNotFound)
		}
		if sale.Status == model.SaleStatusAnnulled {
			return ErrAlreadyAnnulled
		}

		saleRef := sale.ID
		if sale.Processed() {
			// Restore exactly what was deducted, line by line.
			for _, d := range sale.Details {
				if err := s.inventory.RestoreTx(tx, d.ProductID, sale.BranchID, d.Quantity,
					"cancel_restore", fmt.Sprintf("Annulment of sale %s: %s", sale.SaleNumber(), reason), &saleRef); err != nil {
					return err
				}
			}

			// Money that had entered a drawer leaves it through an inverse
			// ledger entry; the original movement is never touched.
			reversal := decimal.Zero
			switch sale.PaymentType {
			case model.PaymentTypeCash:
				reversal = sale.Total
			case model.PaymentTypeCredit:
				reversal = sale.InitialPayment
			}
			if reversal.IsPositive() {
				session, err := s.cashRepo.FindOpenByUserTx(tx, userID)
				if err != nil {
					return ErrNoOpenSession
				}
				if err := s.cashRepo.CreateMovementTx(tx, &model.CashMovement{
					SessionID:   session.ID,
					Type:        model.MovementSale,
					Method:      sale.PaymentMethod,
					Amount:      reversal.Neg(),
					Description: fmt.Sprintf("Annulment of sale %s: %s", sale.SaleNumber(), reason),
					ReferenceID: &saleRef,
				}); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		sale.Status = model.SaleStatusAnnulled
		sale.AnnulledAt = &now
		return s.repo.SaveTx(tx, sale)
	})
}

// ── UpdateSale ───────────────────────────────────────────────────────────────

func (s *saleService) UpdateSale(ctx context.Context, saleID uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	newDetails, err := s.resolveDetails(ctx, req.Details)
	if err != nil {
		return nil, err
	}
	subtotal, tax, total := SumLines(newDetails, req.Discount)
	if !total.IsPositive() {
		return nil, errors.New("sale total must be positive")
	}

	var sale *model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.repo.FindByIDTx(tx, saleID)
		if err != nil {
			return fmt.Errorf("%w: sale", ErrNotFound)
		}
		if sale.Status != model.SaleStatusPending {
			return ErrNotPending
		}
		if err := s.checkCustomer(sale.DocumentType, total, strPtrFromUUID(sale.CustomerID)); err != nil {
			return err
		}

		// A credit plan that already collected money freezes the sale;
		// decide that before any inventory moves.
		reschedule := sale.PaymentType == model.PaymentTypeCredit && sale.Processed()
		if reschedule {
			existing, err := s.paymentRepo.ListBySaleTx(tx, sale.ID)
			if err != nil {
				return err
			}
			for _, p := range existing {
				if p.PaidAmount.IsPositive() {
					return ErrInstallmentsStarted
				}
			}
		}

		if sale.Processed() {
			if err := s.adjustInventoryTx(tx, sale, newDetails); err != nil {
				return err
			}
		}
		if err := s.repo.ReplaceDetailsTx(tx, sale.ID, newDetails); err != nil {
			return err
		}

		sale.Subtotal = subtotal
		sale.Tax = tax
		sale.Discount = req.Discount
		sale.Total = total

		if sale.PaymentType == model.PaymentTypeCredit {
			financed := total.Sub(sale.InitialPayment)
			if financed.IsNegative() {
				financed = decimal.Zero
			}
			if reschedule {
				if err := s.rescheduleInstallmentsTx(tx, sale, financed); err != nil {
					return err
				}
			}
			sale.RemainingBalance = financed
		}
		return s.repo.SaveTx(tx, sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	sale.Details = newDetails
	return saleToResponse(sale), nil
}

// rescheduleInstallmentsTx rebuilds a processed credit sale's untouched
// installment plan around the new financed balance, anchored on the
// original processing date.
func (s *saleService) rescheduleInstallmentsTx(tx *gorm.DB, sale *model.Sale, financed decimal.Decimal) error {
	if err := s.paymentRepo.DeleteBySaleTx(tx, sale.ID); err != nil {
		return err
	}
	replacement := scheduleInstallments(financed, sale.Installments, sale.CreditDays, *sale.ProcessedAt)
	for i := range replacement {
		replacement[i].SaleID = sale.ID
	}
	if err := s.paymentRepo.CreateBatchTx(tx, replacement); err != nil {
		return err
	}
	sale.Payments = replacement
	return nil
}

// adjustInventoryTx applies only the per-product quantity difference between
// the old and new detail sets; a product present in both with the same
// quantity causes zero inventory movement.
func (s *saleService) adjustInventoryTx(tx *gorm.DB, sale *model.Sale, newDetails []model.SaleDetail) error {
	oldQty := make(map[uuid.UUID]int, len(sale.Details))
	for _, d := range sale.Details {
		oldQty[d.ProductID] += d.Quantity
	}
	newQty := make(map[uuid.UUID]int, len(newDetails))
	for _, d := range newDetails {
		newQty[d.ProductID] += d.Quantity
	}

	saleRef := sale.ID
	reason := fmt.Sprintf("Edit of sale %s", sale.SaleNumber())

	// Additional units first: this is where insufficiency can abort the edit.
	for pid, nq := range newQty {
		if delta := nq - oldQty[pid]; delta > 0 {
			if err := s.inventory.DeductTx(tx, pid, sale.BranchID, delta, "sale_adjust", reason, &saleRef); err != nil {
				return err
			}
		}
	}
	for pid, oq := range oldQty {
		if delta := oq - newQty[pid]; delta > 0 {
			if err := s.inventory.RestoreTx(tx, pid, sale.BranchID, delta, "sale_adjust", reason, &saleRef); err != nil {
				return err
			}
		}
	}
	return nil
}

// ── Read side ────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: sale", ErrNotFound)
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// notifyStockCheck enqueues a low-stock check for the products just sold.
// Best effort: the sale is already committed, a queue hiccup only delays an
// alert.
func (s *saleService) notifyStockCheck(ctx context.Context, sale *model.Sale) {
	if s.dispatcher == nil {
		return
	}
	ids := make([]string, 0, len(sale.Details))
	for _, d := range sale.Details {
		ids = append(ids, d.ProductID.String())
	}
	_ = s.dispatcher.EnqueueStockAlert(ctx, worker.StockAlertPayload{
		SaleID:     sale.ID.String(),
		BranchID:   sale.BranchID.String(),
		ProductIDs: ids,
	})
}

func strPtrFromUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	details := make([]dto.SaleDetailResponse, 0, len(sale.Details))
	for _, d := range sale.Details {
		name := ""
		if d.Product != nil {
			name = d.Product.Name
		}
		details = append(details, dto.SaleDetailResponse{
			ProductID: d.ProductID.String(),
			Product:   name,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
			Base:      d.Base,
			Tax:       d.TaxAmount,
		})
	}
	return &dto.SaleResponse{
		ID:               sale.ID.String(),
		SaleNumber:       sale.SaleNumber(),
		DocumentType:     sale.DocumentType,
		PaymentType:      sale.PaymentType,
		Status:           sale.Status,
		Details:          details,
		Subtotal:         sale.Subtotal,
		Tax:              sale.Tax,
		Discount:         sale.Discount,
		Total:            sale.Total,
		AmountPaid:       sale.AmountPaid,
		ChangeAmount:     sale.ChangeAmount,
		InitialPayment:   sale.InitialPayment,
		RemainingBalance: sale.RemainingBalance,
		CreatedAt:        sale.CreatedAt.Format(time.RFC3339),
	}
}
