package handler

import (
	"net/http"
	"strconv"

	"ferrepos/internal/apierror"
	"ferrepos/internal/middleware"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler serves per-branch stock listings, low-stock alerts and
// the stock movement trail. Mutation happens only through sales and
// purchase receiving.
type InventoryHandler struct {
	svc service.InventoryService
}

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// branchFrom resolves the branch to query: an explicit branch_id query
// param, falling back to the caller's own branch.
func branchFrom(c *gin.Context) (uuid.UUID, bool) {
	if q := c.Query("branch_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid branch_id"))
			return uuid.Nil, false
		}
		return id, true
	}
	return middleware.GetClaims(c).BranchUUID(), true
}

// List handles GET /v1/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListByBranch(c.Request.Context(), branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts handles GET /v1/inventory/alerts.
func (h *InventoryHandler) Alerts(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListAlerts(c.Request.Context(), branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements handles GET /v1/inventory/:product_id/movements.
func (h *InventoryHandler) Movements(c *gin.Context) {
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}
	branchID, ok := branchFrom(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.ListMovements(c.Request.Context(), productID, branchID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
