package main

import (
	"database/sql"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vanguardmoney/services/internal/auth"
	"github.com/vanguardmoney/services/internal/config"
	"github.com/vanguardmoney/services/internal/events"
	"github.com/vanguardmoney/services/internal/handler"
	"github.com/vanguardmoney/services/internal/middleware"
	"github.com/vanguardmoney/services/internal/redisx"
	"github.com/vanguardmoney/services/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	// Fails fast when JWT_SECRET is absent.
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

	// Redis backs rate limiting and event publishing.
	rdb, err := redisx.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(db)
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	publisher := events.NewPublisher(rdb)
	authSvc := auth.NewService(userRepo, hasher, tokens, publisher, logger)
	authHandler := handler.NewAuthHandler(authSvc)

	generalLimiter := middleware.NewRateLimiter(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, "rl:general:")
	authLimiter := middleware.NewRateLimiter(rdb, cfg.RateLimitWindow, cfg.AuthRateMax, "rl:auth:")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.RateLimit(generalLimiter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1/auth")
	{
		v1.POST("/register", middleware.AuthRateLimit(authLimiter), authHandler.Register)
		v1.POST("/login", middleware.AuthRateLimit(authLimiter), authHandler.Login)
		v1.GET("/verify", authHandler.VerifyToken)
		v1.GET("/profile", middleware.RequireAuth(authSvc), authHandler.GetProfile)
	}

	logger.Info("account service starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
