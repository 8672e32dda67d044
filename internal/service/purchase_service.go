package service

import (
	"context"
	"fmt"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/model"
	"ferrepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	// MarkAsReceived receives every outstanding unit on every line and
	// propagates the negotiated prices to product and inventory records.
	MarkAsReceived(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error)
	// ReceivePartial receives the given per-line quantities. All lines are
	// validated before any stock moves; one bad line rejects the whole call.
	ReceivePartial(ctx context.Context, orderID uuid.UUID, req dto.ReceivePartialRequest) (*dto.PurchaseOrderResponse, error)
	// CancelOrder cancels the order, reversing any stock already received.
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error)
	ListOrders(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error)
}

type purchaseService struct {
	repo        repository.PurchaseRepository
	inventory   InventoryService
	productRepo repository.ProductRepository
}

func NewPurchaseService(repo repository.PurchaseRepository, inventory InventoryService, productRepo repository.ProductRepository) PurchaseService {
	return &purchaseService{repo: repo, inventory: inventory, productRepo: productRepo}
}

func (s *purchaseService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id: %w", err)
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}

	total := decimal.Zero
	details := make([]model.PurchaseOrderDetail, 0, len(req.Lines))
	for _, line := range req.Lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
		}
		details = append(details, model.PurchaseOrderDetail{
			ProductID:       pid,
			QuantityOrdered: line.Quantity,
			UnitPrice:       line.UnitPrice,
			SalePrice:       line.SalePrice,
		})
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &model.PurchaseOrder{
		SupplierID: supplierID,
		BranchID:   branchID,
		UserID:     userID,
		Status:     model.OrderStatusPending,
		Total:      total,
		Notes:      req.Notes,
		Details:    details,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextNumber(tx)
		if err != nil {
			return err
		}
		order.Number = number
		return s.repo.CreateTx(tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(order), nil
}

func (s *purchaseService) MarkAsReceived(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	var order *model.PurchaseOrder
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("%w: purchase order", ErrNotFound)
		}
		switch order.Status {
		case model.OrderStatusCancelled:
			return ErrOrderCancelled
		case model.OrderStatusReceived:
			return ErrAlreadyReceived
		}

		orderRef := order.ID
		for i := range order.Details {
			d := &order.Details[i]
			outstanding := d.QuantityOrdered - d.QuantityReceived
			if outstanding <= 0 {
				continue
			}
			if err := s.inventory.ReceiveTx(tx, d.ProductID, order.BranchID, outstanding, d.UnitPrice, d.SalePrice, &orderRef); err != nil {
				return err
			}
			if err := s.productRepo.UpdatePricesTx(tx, d.ProductID, d.UnitPrice, d.SalePrice, d.SalePrice.IsPositive()); err != nil {
				return err
			}
			d.QuantityReceived = d.QuantityOrdered
			if err := s.repo.SaveDetailTx(tx, d); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = order.ComputeStatus()
		order.ReceivedAt = &now
		return s.repo.SaveTx(tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(order), nil
}

func (s *purchaseService) ReceivePartial(ctx context.Context, orderID uuid.UUID, req dto.ReceivePartialRequest) (*dto.PurchaseOrderResponse, error) {
	var order *model.PurchaseOrder
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("%w: purchase order", ErrNotFound)
		}
		switch order.Status {
		case model.OrderStatusCancelled:
			return ErrOrderCancelled
		case model.OrderStatusReceived:
			return ErrAlreadyReceived
		}

		byLine := make(map[uuid.UUID]*model.PurchaseOrderDetail, len(order.Details))
		for i := range order.Details {
			byLine[order.Details[i].ID] = &order.Details[i]
		}

		// Validate everything before moving any stock.
		type receipt struct {
			detail *model.PurchaseOrderDetail
			qty    int
		}
		receipts := make([]receipt, 0, len(req.Quantities))
		for lineID, qty := range req.Quantities {
			id, err := uuid.Parse(lineID)
			if err != nil {
				return fmt.Errorf("invalid line id %q: %w", lineID, err)
			}
			d, ok := byLine[id]
			if !ok {
				return fmt.Errorf("line %s does not belong to this order", lineID)
			}
			if qty < 1 {
				return fmt.Errorf("line %s: quantity must be at least 1", lineID)
			}
			if d.QuantityReceived+qty > d.QuantityOrdered {
				return fmt.Errorf("%w: line %s would exceed ordered quantity", ErrExceedsOrdered, lineID)
			}
			receipts = append(receipts, receipt{detail: d, qty: qty})
		}

		orderRef := order.ID
		for _, r := range receipts {
			d := r.detail
			if err := s.inventory.ReceiveTx(tx, d.ProductID, order.BranchID, r.qty, d.UnitPrice, d.SalePrice, &orderRef); err != nil {
				return err
			}
			if err := s.productRepo.UpdatePricesTx(tx, d.ProductID, d.UnitPrice, d.SalePrice, d.SalePrice.IsPositive()); err != nil {
				return err
			}
			d.QuantityReceived += r.qty
			if err := s.repo.SaveDetailTx(tx, d); err != nil {
				return err
			}
		}

		order.Status = order.ComputeStatus()
		if order.Status == model.OrderStatusReceived {
			now := time.Now()
			order.ReceivedAt = &now
		}
		return s.repo.SaveTx(tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(order), nil
}

func (s *purchaseService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	var order *model.PurchaseOrder
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("%w: purchase order", ErrNotFound)
		}
		switch order.Status {
		case model.OrderStatusCancelled:
			return ErrOrderCancelled
		case model.OrderStatusReceived:
			// Fully received goods are in circulation; cancellation stops at
			// the partial stage.
			return ErrAlreadyReceived
		}

		orderRef := order.ID
		reason := fmt.Sprintf("Cancellation of purchase order %d", order.Number)
		for i := range order.Details {
			d := &order.Details[i]
			if d.QuantityReceived > 0 {
				if err := s.inventory.ReverseReceiptTx(tx, d.ProductID, order.BranchID, d.QuantityReceived, reason, &orderRef); err != nil {
					return err
				}
				d.QuantityReceived = 0
				if err := s.repo.SaveDetailTx(tx, d); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		order.Status = model.OrderStatusCancelled
		order.CancelledAt = &now
		order.ReceivedAt = nil
		return s.repo.SaveTx(tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(order), nil
}

func (s *purchaseService) GetOrder(ctx context.Context, orderID uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase order", ErrNotFound)
	}
	return orderToResponse(order), nil
}

func (s *purchaseService) ListOrders(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *orderToResponse(&orders[i]))
	}
	return &dto.PurchaseOrderListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func orderToResponse(o *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	lines := make([]dto.PurchaseOrderLineResponse, 0, len(o.Details))
	for _, d := range o.Details {
		name := ""
		if d.Product != nil {
			name = d.Product.Name
		}
		lines = append(lines, dto.PurchaseOrderLineResponse{
			ID:               d.ID.String(),
			ProductID:        d.ProductID.String(),
			Product:          name,
			QuantityOrdered:  d.QuantityOrdered,
			QuantityReceived: d.QuantityReceived,
			UnitPrice:        d.UnitPrice,
			SalePrice:        d.SalePrice,
		})
	}
	resp := &dto.PurchaseOrderResponse{
		ID:         o.ID.String(),
		Number:     o.Number,
		SupplierID: o.SupplierID.String(),
		BranchID:   o.BranchID.String(),
		Status:     o.Status,
		Total:      o.Total,
		Lines:      lines,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
	if o.ReceivedAt != nil {
		ts := o.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &ts
	}
	return resp
}
