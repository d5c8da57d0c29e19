package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/config"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/exchange"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/smtp"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/repository"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
	"github.com/expenseflow/expenseflow/internal/infrastructure/storage"
	"github.com/expenseflow/expenseflow/internal/infrastructure/worker"
	httpserver "github.com/expenseflow/expenseflow/internal/interfaces/http"
	"github.com/expenseflow/expenseflow/pkg/database"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

func main() {
	// Local overrides; absence is not an error.
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ExpenseFlow",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txDB := sqlite.NewDB(db.DB, logger)

	// Repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	categoryRepo := repository.NewCategoryRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	lineItemRepo := repository.NewLineItemRepository(db.DB, logger)
	requestRepo := repository.NewApprovalRequestRepository(db.DB, logger)
	ruleRepo := repository.NewRuleRepository(db.DB, logger)
	auditRepo := repository.NewAuditLogRepository(db.DB, logger)

	// External adapters
	exchangeClient := exchange.NewClient(exchange.Config{
		BaseURL:      cfg.Exchange.BaseURL,
		BaseCurrency: cfg.Exchange.BaseCurrency,
		Timeout:      cfg.Exchange.Timeout,
		CacheTTL:     cfg.Exchange.RefreshInterval,
	}, logger)

	mailSender := smtp.NewSender(smtp.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
	}, logger)

	receiptStore, err := storage.NewReceiptStorage(cfg.Storage.ReceiptDir, cfg.Storage.URLPrefix, logger)
	if err != nil {
		logger.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}

	// Application services
	serviceLogger := utils.NewServiceLogger(logger)
	auditService := service.NewAuditService(auditRepo, serviceLogger)
	chainService := service.NewChainService(userRepo, serviceLogger)
	notifier := service.NewNotificationService(expenseRepo, requestRepo, userRepo, categoryRepo, mailSender, serviceLogger)
	expenseService := service.NewExpenseService(
		expenseRepo, lineItemRepo, requestRepo, companyRepo, categoryRepo,
		chainService, auditService, notifier, exchangeClient, txDB, serviceLogger)
	approvalService := service.NewApprovalService(
		requestRepo, expenseRepo, auditService, notifier, txDB, serviceLogger)
	ruleService := service.NewRuleService(ruleRepo, auditService, txDB, serviceLogger)
	dashboardService := service.NewDashboardService(expenseRepo, requestRepo, serviceLogger)
	reportService := service.NewReportService(expenseRepo, serviceLogger)
	userService := service.NewUserService(userRepo, auditService, txDB, serviceLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background workers
	workers := worker.NewManager(logger)
	workers.Register(worker.NewRateWorker(exchangeClient, cfg.Exchange.RefreshInterval, logger))
	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}
	defer workers.StopAll()

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:             cfg.Server.Host,
			Port:             cfg.Server.Port,
			ReadTimeout:      cfg.Server.ReadTimeout,
			WriteTimeout:     cfg.Server.WriteTimeout,
			ReceiptDir:       receiptStore.BaseDir(),
			ReceiptURLPrefix: cfg.Storage.URLPrefix,
		},
		httpserver.Services{
			Expense:   expenseService,
			Approval:  approvalService,
			Rule:      ruleService,
			Dashboard: dashboardService,
			Report:    reportService,
			User:      userService,
		},
		userRepo, categoryRepo, exchangeClient, receiptStore,
		serviceLogger,
	)

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
