package router

import (
	"time"

	"ferrepos/internal/config"
	"ferrepos/internal/handler"
	"ferrepos/internal/middleware"
	"ferrepos/internal/repository"
	"ferrepos/internal/service"
	"ferrepos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// dispatcher services use to enqueue async jobs.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *worker.StockAlertHandler, service.PaymentService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cashRepo := repository.NewCashRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	customerThreshold, err := decimal.NewFromString(cfg.CustomerRequiredAbove)
	if err != nil {
		customerThreshold = decimal.Zero
	}
	inventorySvc := service.NewInventoryService(inventoryRepo, cfg.AllowNegativeStock)
	cashSvc := service.NewCashService(cashRepo)
	saleSvc := service.NewSaleService(saleRepo, inventorySvc, cashRepo, paymentRepo, productRepo, dispatcher,
		service.SaleConfig{CustomerRequiredAbove: customerThreshold})
	paymentSvc := service.NewPaymentService(paymentRepo, saleRepo, cashRepo, cfg.DueSoonDays)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, inventorySvc, productRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(saleSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	cashH := handler.NewCashHandler(cashSvc)
	purchasesH := handler.NewPurchasesHandler(purchaseSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	priceH := handler.NewPriceCheckHandler(productRepo, rdb, time.Duration(cfg.PriceCacheTTLSeconds)*time.Second)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Price check — floor scanners, no auth required
	r.GET("/v1/prices/:barcode", priceH.GetByBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
		managers := middleware.RequireRole("supervisor", "admin")

		sales := v1.Group("/sales")
		{
			sales.POST("", anyStaff, salesH.Create)
			sales.GET("", anyStaff, salesH.List)
			sales.GET("/:id", anyStaff, salesH.Get)
			sales.PUT("/:id", anyStaff, salesH.Update)
			sales.POST("/:id/process", anyStaff, salesH.Process)
			sales.POST("/:id/cancel", managers, salesH.Cancel)
			sales.GET("/:id/payments", anyStaff, paymentsH.ListBySale)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/:id/pay", anyStaff, paymentsH.Pay)
			payments.GET("/due-soon", anyStaff, paymentsH.DueSoon)
			payments.POST("/sweep-overdue", managers, paymentsH.SweepOverdue)
		}

		cash := v1.Group("/cash")
		{
			cash.POST("/sessions", anyStaff, cashH.OpenSession)
			cash.GET("/sessions", managers, cashH.History)
			cash.GET("/sessions/active", anyStaff, cashH.ActiveSession)
			cash.GET("/sessions/:id", anyStaff, cashH.SessionReport)
			cash.POST("/sessions/:id/close", anyStaff, cashH.CloseSession)
			cash.POST("/sessions/:id/reopen", managers, cashH.ReopenSession)
			cash.POST("/movements", anyStaff, cashH.RecordMovement)
			cash.POST("/transfers", managers, cashH.CreateTransfer)
			cash.POST("/transfers/:id/complete", managers, cashH.CompleteTransfer)
			cash.POST("/transfers/:id/cancel", managers, cashH.CancelTransfer)
		}

		purchases := v1.Group("/purchases", managers)
		{
			purchases.POST("", purchasesH.Create)
			purchases.GET("", purchasesH.List)
			purchases.GET("/:id", purchasesH.Get)
			purchases.POST("/:id/receive", purchasesH.Receive)
			purchases.POST("/:id/receive-partial", purchasesH.ReceivePartial)
			purchases.POST("/:id/cancel", purchasesH.Cancel)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", anyStaff, inventoryH.List)
			inventory.GET("/alerts", managers, inventoryH.Alerts)
			inventory.GET("/:product_id/movements", managers, inventoryH.Movements)
		}
	}

	stockAlertH := worker.NewStockAlertHandler(inventoryRepo)
	return r, stockAlertH, paymentSvc
}
