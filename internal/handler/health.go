package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health reports whether the ledger store and the job queue are reachable.
// Any failing component degrades the whole endpoint to 503 so load
// balancers pull the instance.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		components := map[string]string{
			"database": "up",
			"redis":    "up",
		}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			components["database"] = "down"
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			components["redis"] = "down"
		}

		resp := healthResponse{Status: "ok", Components: components}
		code := http.StatusOK
		for _, state := range components {
			if state != "up" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, resp)
	}
}
