package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/yieldvault/invest-api/docs"
	"github.com/yieldvault/invest-api/internal/api/handler"
	"github.com/yieldvault/invest-api/internal/api/middleware"
	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/realtime"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	JWTSecret    string
	Log          zerolog.Logger
	Auth         ports.AuthService
	Balances     ports.BalanceService
	Transactions ports.TransactionService
	Investments  ports.InvestmentService
	Chat         ports.ChatService
	Idempotency  ports.IdempotencyStore
	Sockets      *realtime.Server
	Checks       map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("invest"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	ledgerHandler := handler.NewLedgerHandler(d.Balances, d.Transactions)
	investmentHandler := handler.NewInvestmentHandler(d.Investments)
	chatHandler := handler.NewChatHandler(d.Chat)
	socketHandler := handler.NewSocketHandler(d.Sockets)
	healthHandler := handler.NewHealthHandler(d.Checks)

	authMiddleware := middleware.Auth(d.JWTSecret)
	userOnly := middleware.RBAC(domain.RoleUser)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	idempotent := middleware.Idempotency(d.Idempotency, d.Log)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Socket ---
	e.GET("/ws", socketHandler.Connect, authMiddleware)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/me", ledgerHandler.Me)
	v1.GET("/transactions", ledgerHandler.ListMine)
	v1.POST("/deposits", ledgerHandler.Deposit, userOnly, idempotent)
	v1.POST("/withdrawals", ledgerHandler.Withdraw, userOnly, idempotent)
	v1.GET("/plans", investmentHandler.ListPlans)
	v1.GET("/investments", investmentHandler.ListInvestments)
	v1.POST("/investments", investmentHandler.Invest, userOnly, idempotent)
	v1.GET("/chat/messages", chatHandler.ListMine, userOnly)
	v1.POST("/chat/messages", chatHandler.Send, userOnly)

	// --- Admin routes ---
	admin := v1.Group("/admin", adminOnly)
	admin.GET("/transactions", ledgerHandler.ListAll)
	admin.POST("/withdrawals/:id/approve", ledgerHandler.Approve)
	admin.POST("/withdrawals/:id/reject", ledgerHandler.Reject)
	admin.POST("/profits", ledgerHandler.CreditProfit, idempotent)
	admin.POST("/plans", investmentHandler.CreatePlan)
	admin.GET("/chat/messages", chatHandler.ListAll)
	admin.POST("/chat/messages/:id/read", chatHandler.MarkRead)
	admin.POST("/chat/messages/:id/reply", chatHandler.Reply)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
