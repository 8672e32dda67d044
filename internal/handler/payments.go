package handler

import (
	"net/http"

	"ferrepos/internal/dto"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentsHandler exposes the installment engine.
type PaymentsHandler struct {
	svc service.PaymentService
}

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Pay handles POST /v1/payments/:id/pay.
func (h *PaymentsHandler) Pay(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PayInstallmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.PayInstallment(c.Request.Context(), claims.UserUUID(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBySale handles GET /v1/sales/:id/payments.
func (h *PaymentsHandler) ListBySale(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListBySale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DueSoon handles GET /v1/payments/due-soon.
func (h *PaymentsHandler) DueSoon(c *gin.Context) {
	resp, err := h.svc.ListDueSoon(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SweepOverdue handles POST /v1/payments/sweep-overdue for manual runs of
// the cron's job.
func (h *PaymentsHandler) SweepOverdue(c *gin.Context) {
	resp, err := h.svc.SweepOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
