package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ferrepos/internal/apierror"
	"ferrepos/internal/dto"
	"ferrepos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// PriceCheckHandler serves the barcode price lookup used by floor scanners.
// Read-only and cached: the catalog changes far less often than it is read.
type PriceCheckHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewPriceCheckHandler(repo repository.ProductRepository, rdb *redis.Client, ttl time.Duration) *PriceCheckHandler {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PriceCheckHandler{repo: repo, rdb: rdb, ttl: ttl}
}

// GetByBarcode handles GET /v1/prices/:barcode.
func (h *PriceCheckHandler) GetByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()
	cacheKey := "price:" + barcode

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.PriceCheckResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	product, err := h.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}

	resp := dto.PriceCheckResponse{
		Name:      product.Name,
		SalePrice: product.SalePrice,
		TaxRate:   product.TaxRate,
		Unit:      product.Unit,
	}

	// Populate cache — best effort, ignore errors
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.Background(), cacheKey, b, h.ttl).Err()
		}
	}

	c.JSON(http.StatusOK, resp)
}
