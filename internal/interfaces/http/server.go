// Package http is the HTTP adapter: it translates requests into
// application service calls and service results into JSON responses.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ReceiptDir is served statically under ReceiptURLPrefix so stored
	// receipt URLs resolve.
	ReceiptDir       string
	ReceiptURLPrefix string
}

// Services bundles the application services the server exposes
type Services struct {
	Expense   service.ExpenseService
	Approval  service.ApprovalService
	Rule      service.RuleService
	Dashboard service.DashboardService
	Report    service.ReportService
	User      service.UserService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	userRepo   port.UserRepository
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	services Services,
	userRepo port.UserRepository,
	categoryRepo port.CategoryRepository,
	converter port.CurrencyConverter,
	receipts port.ReceiptStore,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		userRepo: userRepo,
		logger:   logger,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(server.loggingMiddleware())

	server.setupRoutes(categoryRepo, converter, receipts)

	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes(
	categoryRepo port.CategoryRepository,
	converter port.CurrencyConverter,
	receipts port.ReceiptStore,
) {
	handlers := &Handlers{
		expenseService:   s.services.Expense,
		approvalService:  s.services.Approval,
		ruleService:      s.services.Rule,
		dashboardService: s.services.Dashboard,
		reportService:    s.services.Report,
		userService:      s.services.User,
		categoryRepo:     categoryRepo,
		converter:        converter,
		receipts:         receipts,
		logger:           s.logger,
	}

	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/api/currencies", handlers.ListCurrencies)

	if s.config.ReceiptDir != "" {
		s.router.Static(s.config.ReceiptURLPrefix, s.config.ReceiptDir)
	}

	api := s.router.Group("/api")
	api.Use(s.authMiddleware())
	{
		api.POST("/expenses", handlers.SubmitExpense)
		api.GET("/expenses", handlers.ListExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)

		api.POST("/receipts", handlers.UploadReceipt)

		api.GET("/approvals/pending", handlers.ListPendingApprovals)
		api.POST("/approvals/:id/action", handlers.ActOnApproval)

		api.GET("/approval-rules", requireRole(entity.RoleAdmin), handlers.ListRules)
		api.POST("/approval-rules", requireRole(entity.RoleAdmin), handlers.CreateRule)

		api.GET("/users",
			requireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleFinance, entity.RoleDirector),
			handlers.ListUsers)
		api.PUT("/users/:id", requireRole(entity.RoleAdmin), handlers.UpdateUser)

		api.GET("/categories", handlers.ListCategories)
		api.GET("/dashboard/stats", handlers.DashboardStats)
		api.GET("/dashboard/recent-expenses", handlers.RecentExpenses)

		api.GET("/reports/expenses",
			requireRole(entity.RoleAdmin, entity.RoleFinance, entity.RoleDirector),
			handlers.ExportExpenseReport)
	}
}

// Start runs the server until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
