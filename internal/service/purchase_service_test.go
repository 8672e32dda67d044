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

type purchaseFixture struct {
	repo     *stubPurchaseRepo
	inv      *stubInventoryRepo
	products *stubProductRepo
	svc      PurchaseService

	userID     uuid.UUID
	branchID   uuid.UUID
	supplierID uuid.UUID
	product    *model.Product
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	f := &purchaseFixture{
		repo:       newStubPurchaseRepo(),
		inv:        newStubInventoryRepo(),
		products:   newStubProductRepo(),
		userID:     uuid.New(),
		branchID:   uuid.New(),
		supplierID: uuid.New(),
	}
	f.product = f.products.add(&model.Product{
		Barcode:   "7750000000028",
		Name:      "PVC pipe 1/2\"",
		TaxRate:   d("18"),
		CostPrice: d("4.00"),
		SalePrice: d("7.00"),
		Unit:      "unit",
		Active:    true,
	})
	f.svc = NewPurchaseService(f.repo, NewInventoryService(f.inv, false), f.products)
	return f
}

// createOrder places one order of 10 units at S/ 5.00 cost with a new
// S/ 8.00 sale price.
func (f *purchaseFixture) createOrder(t *testing.T) *dto.PurchaseOrderResponse {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), f.userID, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplierID.String(),
		BranchID:   f.branchID.String(),
		Lines: []dto.PurchaseOrderLineRequest{{
			ProductID: f.product.ID.String(),
			Quantity:  10,
			UnitPrice: d("5.00"),
			SalePrice: d("8.00"),
		}},
	})
	require.NoError(t, err)
	return resp
}

func TestCreateOrder(t *testing.T) {
	f := newPurchaseFixture(t)

	resp := f.createOrder(t)

	assert.Equal(t, 1, resp.Number)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, "50.00", resp.Total.StringFixed(2))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, 10, resp.Lines[0].QuantityOrdered)
	assert.Zero(t, resp.Lines[0].QuantityReceived)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), f.userID, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplierID.String(),
		BranchID:   f.branchID.String(),
		Lines: []dto.PurchaseOrderLineRequest{{
			ProductID: uuid.NewString(),
			Quantity:  1,
			UnitPrice: d("5.00"),
		}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAsReceived(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)

	resp, err := f.svc.MarkAsReceived(context.Background(), uuid.MustParse(order.ID))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusReceived, resp.Status)
	require.NotNil(t, resp.ReceivedAt)
	assert.Equal(t, 10, resp.Lines[0].QuantityReceived)

	// Receipt created the inventory row and stocked it.
	assert.Equal(t, 10, f.inv.stock(f.product.ID, f.branchID))

	// Negotiated prices propagate to the catalog.
	assert.Equal(t, "5.00", f.product.CostPrice.StringFixed(2))
	assert.Equal(t, "8.00", f.product.SalePrice.StringFixed(2))

	_, err = f.svc.MarkAsReceived(context.Background(), uuid.MustParse(order.ID))
	require.ErrorIs(t, err, ErrAlreadyReceived)
}

func TestReceiveKeepsSalePriceWhenUnset(t *testing.T) {
	f := newPurchaseFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.userID, dto.CreatePurchaseOrderRequest{
		SupplierID: f.supplierID.String(),
		BranchID:   f.branchID.String(),
		Lines: []dto.PurchaseOrderLineRequest{{
			ProductID: f.product.ID.String(),
			Quantity:  5,
			UnitPrice: d("4.50"),
		}},
	})
	require.NoError(t, err)

	_, err = f.svc.MarkAsReceived(context.Background(), uuid.MustParse(order.ID))
	require.NoError(t, err)

	assert.Equal(t, "4.50", f.product.CostPrice.StringFixed(2))
	assert.Equal(t, "7.00", f.product.SalePrice.StringFixed(2))
}

func TestReceivePartial(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)
	lineID := order.Lines[0].ID

	resp, err := f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{lineID: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPartial, resp.Status)
	assert.Nil(t, resp.ReceivedAt)
	assert.Equal(t, 4, f.inv.stock(f.product.ID, f.branchID))

	resp, err = f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{lineID: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReceived, resp.Status)
	require.NotNil(t, resp.ReceivedAt)
	assert.Equal(t, 10, f.inv.stock(f.product.ID, f.branchID))
}

func TestReceivePartialExceedsOrdered(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)
	lineID := order.Lines[0].ID

	_, err := f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{lineID: 4},
	})
	require.NoError(t, err)

	_, err = f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{lineID: 7},
	})
	require.ErrorIs(t, err, ErrExceedsOrdered)

	// Validation happens before any stock moves.
	assert.Equal(t, 4, f.inv.stock(f.product.ID, f.branchID))
}

func TestReceivePartialUnknownLine(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{uuid.NewString(): 1},
	})
	require.Error(t, err)
	assert.Zero(t, f.inv.stock(f.product.ID, f.branchID))
}

func TestCancelOrderReversesReceivedStock(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)
	lineID := order.Lines[0].ID

	_, err := f.svc.ReceivePartial(context.Background(), uuid.MustParse(order.ID), dto.ReceivePartialRequest{
		Quantities: map[string]int{lineID: 4},
	})
	require.NoError(t, err)

	resp, err := f.svc.CancelOrder(context.Background(), uuid.MustParse(order.ID))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCancelled, resp.Status)
	assert.Nil(t, resp.ReceivedAt)
	assert.Zero(t, resp.Lines[0].QuantityReceived)
	assert.Zero(t, f.inv.stock(f.product.ID, f.branchID))

	// The reversal is on the movement ledger, not an edit of the receipt.
	var reversals int
	for _, m := range f.inv.movements {
		if m.Type == "receipt_reversal" {
			reversals++
			assert.Equal(t, -4, m.Quantity)
		}
	}
	assert.Equal(t, 1, reversals)

	_, err = f.svc.MarkAsReceived(context.Background(), uuid.MustParse(order.ID))
	require.ErrorIs(t, err, ErrOrderCancelled)
	_, err = f.svc.CancelOrder(context.Background(), uuid.MustParse(order.ID))
	require.ErrorIs(t, err, ErrOrderCancelled)
}

func TestCancelFullyReceivedOrderRejected(t *testing.T) {
	f := newPurchaseFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.MarkAsReceived(context.Background(), uuid.MustParse(order.ID))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), uuid.MustParse(order.ID))
	require.ErrorIs(t, err, ErrAlreadyReceived)
	assert.Equal(t, 10, f.inv.stock(f.product.ID, f.branchID))
}
