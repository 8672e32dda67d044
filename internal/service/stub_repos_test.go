package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. DB() returns nil so runTx executes the
// transaction body directly, letting the services run without postgres.

// ── products ─────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) UpdatePricesTx(_ *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.CostPrice = cost
	if overwriteSale {
		p.SalePrice = sale
	}
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// ── inventory ────────────────────────────────────────────────────────────────

type stubInventoryRepo struct {
	rows      map[string]*model.Inventory
	movements []model.StockMovement
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{rows: make(map[string]*model.Inventory)}
}

func invKey(productID, branchID uuid.UUID) string {
	return productID.String() + "|" + branchID.String()
}

func (r *stubInventoryRepo) seed(productID, branchID uuid.UUID, stock, minStock int) *model.Inventory {
	inv := &model.Inventory{
		ID:           uuid.New(),
		ProductID:    productID,
		BranchID:     branchID,
		CurrentStock: stock,
		MinStock:     minStock,
	}
	r.rows[invKey(productID, branchID)] = inv
	return inv
}

func (r *stubInventoryRepo) stock(productID, branchID uuid.UUID) int {
	inv, ok := r.rows[invKey(productID, branchID)]
	if !ok {
		return 0
	}
	return inv.CurrentStock
}

func (r *stubInventoryRepo) FindForUpdateTx(_ *gorm.DB, productID, branchID uuid.UUID) (*model.Inventory, error) {
	inv, ok := r.rows[invKey(productID, branchID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInventoryRepo) CreateTx(_ *gorm.DB, inv *model.Inventory) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.rows[invKey(inv.ProductID, inv.BranchID)] = inv
	return nil
}

func (r *stubInventoryRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, newStock int, at time.Time) error {
	for _, inv := range r.rows {
		if inv.ID == id {
			inv.CurrentStock = newStock
			inv.LastMovementAt = at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) UpdatePricesTx(_ *gorm.DB, id uuid.UUID, cost, sale decimal.Decimal, overwriteSale bool) error {
	for _, inv := range r.rows {
		if inv.ID == id {
			inv.CostPrice = cost
			if overwriteSale {
				inv.SalePrice = sale
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubInventoryRepo) FindByProductBranch(_ context.Context, productID, branchID uuid.UUID) (*model.Inventory, error) {
	return r.FindForUpdateTx(nil, productID, branchID)
}

func (r *stubInventoryRepo) ListByBranch(_ context.Context, branchID uuid.UUID) ([]model.Inventory, error) {
	var out []model.Inventory
	for _, inv := range r.rows {
		if inv.BranchID == branchID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListLowStock(_ context.Context, branchID uuid.UUID) ([]model.Inventory, error) {
	var out []model.Inventory
	for _, inv := range r.rows {
		if inv.BranchID == branchID && inv.CurrentStock <= inv.MinStock {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListLowStockByProducts(_ context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]model.Inventory, error) {
	var out []model.Inventory
	for _, pid := range productIDs {
		if inv, ok := r.rows[invKey(pid, branchID)]; ok && inv.CurrentStock <= inv.MinStock {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListMovements(_ context.Context, productID, branchID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID && m.BranchID == branchID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

// ── sales ────────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	counters map[string]int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		sales:    make(map[uuid.UUID]*model.Sale),
		counters: make(map[string]int),
	}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Details {
		if s.Details[i].ID == uuid.Nil {
			s.Details[i].ID = uuid.New()
		}
		s.Details[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) SaveTx(_ *gorm.DB, s *model.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) ReplaceDetailsTx(_ *gorm.DB, saleID uuid.UUID, details []model.SaleDetail) error {
	s, ok := r.sales[saleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range details {
		if details[i].ID == uuid.Nil {
			details[i].ID = uuid.New()
		}
		details[i].SaleID = saleID
	}
	s.Details = details
	return nil
}

func (r *stubSaleRepo) NextNumber(_ *gorm.DB, series string) (int, error) {
	r.counters[series]++
	return r.counters[series], nil
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	out := make([]model.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

// ── payments ─────────────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *stubPaymentRepo) CreateBatchTx(_ *gorm.DB, payments []model.Payment) error {
	for i := range payments {
		if payments[i].ID == uuid.Nil {
			payments[i].ID = uuid.New()
		}
		p := payments[i]
		r.payments[p.ID] = &p
	}
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPaymentRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Payment, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPaymentRepo) SaveTx(_ *gorm.DB, p *model.Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *stubPaymentRepo) bySale(saleID uuid.UUID) []model.Payment {
	var out []model.Payment
	for _, p := range r.payments {
		if p.SaleID == saleID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *stubPaymentRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.Payment, error) {
	return r.bySale(saleID), nil
}

func (r *stubPaymentRepo) ListBySaleTx(_ *gorm.DB, saleID uuid.UUID) ([]model.Payment, error) {
	return r.bySale(saleID), nil
}

func (r *stubPaymentRepo) DeleteBySaleTx(_ *gorm.DB, saleID uuid.UUID) error {
	for id, p := range r.payments {
		if p.SaleID == saleID {
			delete(r.payments, id)
		}
	}
	return nil
}

func (r *stubPaymentRepo) ListDueSoon(_ context.Context, from, to time.Time) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.Status == model.PaymentStatusPending && !p.DueDate.Before(from) && !p.DueDate.After(to) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *stubPaymentRepo) MarkOverdue(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.IsOverdue(before) {
			p.Status = model.PaymentStatusOverdue
			n++
		}
	}
	return n, nil
}

func (r *stubPaymentRepo) DB() *gorm.DB { return nil }

// ── cash ─────────────────────────────────────────────────────────────────────

type stubCashRepo struct {
	registers map[uuid.UUID]*model.CashRegister
	sessions  map[uuid.UUID]*model.CashSession
	movements map[uuid.UUID][]model.CashMovement
	transfers map[uuid.UUID]*model.CashTransfer
}

func newStubCashRepo() *stubCashRepo {
	return &stubCashRepo{
		registers: make(map[uuid.UUID]*model.CashRegister),
		sessions:  make(map[uuid.UUID]*model.CashSession),
		movements: make(map[uuid.UUID][]model.CashMovement),
		transfers: make(map[uuid.UUID]*model.CashTransfer),
	}
}

func (r *stubCashRepo) addRegister(branchID uuid.UUID, name string) *model.CashRegister {
	reg := &model.CashRegister{ID: uuid.New(), BranchID: branchID, Name: name, Active: true}
	r.registers[reg.ID] = reg
	return reg
}

func (r *stubCashRepo) openSession(registerID, userID uuid.UUID, opening decimal.Decimal) *model.CashSession {
	s := &model.CashSession{
		ID:             uuid.New(),
		RegisterID:     registerID,
		UserID:         userID,
		Status:         model.SessionStatusOpen,
		OpeningBalance: opening,
		OpenedAt:       time.Now(),
	}
	r.sessions[s.ID] = s
	return s
}

func (r *stubCashRepo) FindRegisterByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reg, nil
}

func (r *stubCashRepo) CreateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashRepo) FindOpenByRegisterTx(_ *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.RegisterID == registerID && s.Status == model.SessionStatusOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCashRepo) FindOpenByUserTx(_ *gorm.DB, userID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == model.SessionStatusOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCashRepo) FindOpenByUser(_ context.Context, userID uuid.UUID) (*model.CashSession, error) {
	return r.FindOpenByUserTx(nil, userID)
}

func (r *stubCashRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubCashRepo) SaveSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements[m.SessionID] = append(r.movements[m.SessionID], *m)
	return nil
}

func (r *stubCashRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return r.movements[sessionID], nil
}

func (r *stubCashRepo) ListMovementsTx(_ *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return r.movements[sessionID], nil
}

func (r *stubCashRepo) CreateTransfer(_ context.Context, t *model.CashTransfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.transfers[t.ID] = t
	return nil
}

func (r *stubCashRepo) FindTransferByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CashTransfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubCashRepo) SaveTransferTx(_ *gorm.DB, t *model.CashTransfer) error {
	r.transfers[t.ID] = t
	return nil
}

func (r *stubCashRepo) ListClosedSessions(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	var out []model.CashSession
	for _, s := range r.sessions {
		if s.Status == model.SessionStatusClosed {
			c := *s
			c.Movements = r.movements[s.ID]
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCashRepo) DB() *gorm.DB { return nil }

// ── purchases ────────────────────────────────────────────────────────────────

type stubPurchaseRepo struct {
	orders map[uuid.UUID]*model.PurchaseOrder
	seq    int
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{orders: make(map[uuid.UUID]*model.PurchaseOrder)}
}

func (r *stubPurchaseRepo) CreateTx(_ *gorm.DB, o *model.PurchaseOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Details {
		if o.Details[i].ID == uuid.Nil {
			o.Details[i].ID = uuid.New()
		}
		o.Details[i].OrderID = o.ID
	}
	r.orders[o.ID] = o
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubPurchaseRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPurchaseRepo) SaveTx(_ *gorm.DB, o *model.PurchaseOrder) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubPurchaseRepo) SaveDetailTx(_ *gorm.DB, d *model.PurchaseOrderDetail) error {
	o, ok := r.orders[d.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range o.Details {
		if o.Details[i].ID == d.ID {
			o.Details[i] = *d
			return nil
		}
	}
	return fmt.Errorf("detail %s not found", d.ID)
}

func (r *stubPurchaseRepo) NextNumber(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, _ dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	out := make([]model.PurchaseOrder, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }
