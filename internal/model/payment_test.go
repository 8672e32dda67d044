package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentIsOverdue(t *testing.T) {
	today := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name    string
		status  string
		due     time.Time
		overdue bool
	}{
		{"due yesterday", PaymentStatusPending, today.AddDate(0, 0, -1), true},
		{"due today is not overdue", PaymentStatusPending, today.Add(-2 * time.Hour), false},
		{"due tomorrow", PaymentStatusPending, today.AddDate(0, 0, 1), false},
		{"paid is never overdue", PaymentStatusPaid, today.AddDate(0, 0, -10), false},
		{"partial keeps its status", PaymentStatusPartial, today.AddDate(0, 0, -10), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Payment{Status: tc.status, DueDate: tc.due}
			assert.Equal(t, tc.overdue, p.IsOverdue(today))
		})
	}
}

func TestPaymentIsDueSoon(t *testing.T) {
	today := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		status  string
		due     time.Time
		dueSoon bool
	}{
		{"due today", PaymentStatusPending, today, true},
		{"due on the last window day", PaymentStatusPending, today.AddDate(0, 0, 7), true},
		{"due past the window", PaymentStatusPending, today.AddDate(0, 0, 8), false},
		{"already overdue is not due soon", PaymentStatusPending, today.AddDate(0, 0, -1), false},
		{"paid is never due soon", PaymentStatusPaid, today.AddDate(0, 0, 3), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Payment{Status: tc.status, DueDate: tc.due}
			assert.Equal(t, tc.dueSoon, p.IsDueSoon(today, 7))
		})
	}
}

func TestSaleNumberFormat(t *testing.T) {
	s := Sale{Series: "B001", Number: 123}
	assert.Equal(t, "B001-000123", s.SaleNumber())
}

func TestPurchaseOrderComputeStatus(t *testing.T) {
	o := PurchaseOrder{
		Status: OrderStatusPending,
		Details: []PurchaseOrderDetail{
			{QuantityOrdered: 10},
			{QuantityOrdered: 5},
		},
	}
	assert.Equal(t, OrderStatusPending, o.ComputeStatus())

	o.Details[0].QuantityReceived = 10
	assert.Equal(t, OrderStatusPartial, o.ComputeStatus())

	o.Details[1].QuantityReceived = 5
	assert.Equal(t, OrderStatusReceived, o.ComputeStatus())

	o.Status = OrderStatusCancelled
	assert.Equal(t, OrderStatusCancelled, o.ComputeStatus())
}
