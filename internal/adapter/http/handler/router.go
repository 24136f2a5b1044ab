package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	TransferSvc    ports.TransferService
	PinSvc         ports.PinService
	LedgerSvc      ports.LedgerService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Currency       string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

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

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.TransferSvc, deps.PinSvc, deps.Currency)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.WalletSvc)

	// --- Internal hooks (trusted network, no user auth) ---
	internal := r.Group("/internal/v1")
	{
		internal.POST("/hooks/identity-confirmed", rl("provisioning"), walletHandler.Provision)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	wallets := v1.Group("/wallets")
	{
		wallets.GET("/me", rl("reads"), walletHandler.GetMyWallet)
		wallets.GET("/me/transactions", rl("reads"), txHandler.ListMyWalletTransactions)
		wallets.POST("/fund", rl("funding"), walletHandler.Fund)
		wallets.POST("/withdraw", rl("withdrawals"), walletHandler.Withdraw)
		wallets.POST("/transfer", rl("transfers"), walletHandler.Transfer)
		wallets.POST("/pin", rl("pin"), walletHandler.SetPin)
		wallets.PUT("/pin", rl("pin"), walletHandler.ChangePin)
		wallets.POST("/:wallet_id/reactivate", rl("lifecycle"), walletHandler.Reactivate)
		wallets.DELETE("/:wallet_id", rl("lifecycle"), walletHandler.Deactivate)
		wallets.GET("/:wallet_id/audit", rl("reads"), walletHandler.AuditTrail)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.GET("", rl("reads"), txHandler.List)
		transactions.GET("/search", rl("reads"), txHandler.Search)
		transactions.GET("/date-range", rl("reads"), txHandler.FilterByDate)
		transactions.GET("/:id", rl("reads"), txHandler.GetByID)
	}

	return r
}
