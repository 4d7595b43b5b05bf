package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vanguardmoney/services/internal/auth"
	"github.com/vanguardmoney/services/internal/config"
	"github.com/vanguardmoney/services/internal/events"
	"github.com/vanguardmoney/services/internal/handler"
	"github.com/vanguardmoney/services/internal/ledger"
	"github.com/vanguardmoney/services/internal/middleware"
	"github.com/vanguardmoney/services/internal/models"
	"github.com/vanguardmoney/services/internal/redisx"
	"github.com/vanguardmoney/services/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	rdb, err := redisx.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	incomeRepo := repository.NewIncomeRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	summaryCache := redisx.NewViewCache[models.SummaryView](rdb, time.Hour, logger)
	publisher := events.NewPublisher(rdb)
	ledgerSvc := ledger.NewService(incomeRepo, expenseRepo, summaryCache, publisher, logger)
	txHandler := handler.NewTransactionHandler(ledgerSvc)

	// This service holds no user store; tokens are checked for signature and
	// expiry only.
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	verifier := auth.NewStatelessVerifier(tokens)

	generalLimiter := middleware.NewRateLimiter(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, "rl:general:")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.RateLimit(generalLimiter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1/transactions", middleware.RequireAuth(verifier))
	{
		v1.POST("/incomes", txHandler.RecordIncome)
		v1.GET("/incomes", txHandler.ListIncomes)
		v1.POST("/expenses", txHandler.RecordExpense)
		v1.GET("/expenses", txHandler.ListExpenses)
		v1.GET("/summary", txHandler.GetSummary)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		subscriber := events.NewSubscriber(rdb, events.SubscriberConfig{
			Group:    "transaction-service-group",
			Consumer: "transaction-consumer-1",
			Stream:   events.UserEventsStream,
			Handler:  ledgerSvc.HandleUserEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("subscriber stopped", zap.Error(err))
		}
	}()

	logger.Info("transaction service starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
