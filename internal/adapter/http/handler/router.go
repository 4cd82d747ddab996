package handler

import (
	"voucherbox/internal/adapter/http/middleware"
	redisStore "voucherbox/internal/adapter/storage/redis"
	"voucherbox/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	VoucherSvc     ports.VoucherService
	ReportingSvc   ports.ReportingService
	ActivitySvc    ports.ActivityService
	ExportSvc      ports.ExportService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	voucherHandler := NewVoucherHandler(deps.VoucherSvc, deps.LedgerSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	categoryHandler := NewCategoryHandler(deps.VoucherSvc)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc, deps.ActivitySvc)
	exportHandler := NewExportHandler(deps.ExportSvc)

	vouchers := v1.Group("/vouchers", jwtAuth)
	{
		vouchers.POST("", rl("vouchers"), voucherHandler.Create)
		vouchers.GET("", rl("vouchers"), voucherHandler.List)
		vouchers.GET("/:id", rl("vouchers"), voucherHandler.Get)
		vouchers.PUT("/:id", rl("vouchers"), voucherHandler.Update)
		vouchers.DELETE("/:id", rl("vouchers"), voucherHandler.Delete)
		vouchers.POST("/:id/sale", rl("vouchers"), voucherHandler.OfferForSale)
		vouchers.DELETE("/:id/sale", rl("vouchers"), voucherHandler.WithdrawFromSale)
		vouchers.POST("/:id/transactions", rl("ledger"), ledgerHandler.RecordPurchase)
		vouchers.GET("/:id/transactions", rl("ledger"), ledgerHandler.ListTransactions)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.PUT("/:id", rl("ledger"), ledgerHandler.EditTransaction)
		transactions.DELETE("/:id", rl("ledger"), ledgerHandler.DeleteTransaction)
	}

	categories := v1.Group("/categories", jwtAuth)
	{
		categories.POST("", rl("vouchers"), categoryHandler.Create)
		categories.GET("", rl("vouchers"), categoryHandler.List)
		categories.DELETE("/:id", rl("vouchers"), categoryHandler.Delete)
	}

	dashboard := v1.Group("/dashboard", jwtAuth)
	{
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	activity := v1.Group("/activity", jwtAuth)
	{
		activity.GET("", rl("dashboard"), dashboardHandler.ListActivity)
	}

	export := v1.Group("/export", jwtAuth)
	{
		export.GET("/vouchers", rl("export"), exportHandler.ExportVouchers)
		export.GET("/vouchers/:id/transactions", rl("export"), exportHandler.ExportTransactions)
	}

	return r
}
