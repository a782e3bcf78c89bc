package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradejournal/internal/config"
	"github.com/tradejournal/internal/handler"
	"github.com/tradejournal/internal/logger"
	"github.com/tradejournal/internal/middleware"
	"github.com/tradejournal/internal/models"
	"github.com/tradejournal/internal/repository"
	"github.com/tradejournal/internal/service"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	gin.SetMode(cfg.Server.Mode)

	db, err := initDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb := initRedis(cfg)

	if err := autoMigrate(db); err != nil {
		zapLogger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	orderbookRepo := repository.NewOrderbookRepository(db)
	tradeRepo := repository.NewExecutedTradeRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	statsCache := service.NewStatsCache(rdb, time.Duration(cfg.Journal.StatsTTLMinutes)*time.Minute)
	orderbookService := service.NewOrderbookService(
		orderbookRepo,
		tradeRepo,
		snapshotRepo,
		statsCache,
		cfg.Journal.CapitalBase,
		zapLogger,
	)
	calendarService := service.NewCalendarService(snapshotRepo, tradeRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	orderbookHandler := handler.NewOrderbookHandler(orderbookService, statsCache, cfg.Journal.MaxUploadMB)
	calendarHandler := handler.NewCalendarHandler(calendarService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		authMiddleware := middleware.AuthMiddleware(authService)
		uploadLimit := middleware.UploadRateLimit(cfg.Journal.UploadRatePerMinute)
		orderbookHandler.RegisterRoutes(v1, authMiddleware, uploadLimit)
		calendarHandler.RegisterRoutes(v1, authMiddleware)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server forced to shutdown", zap.Error(err))
	}

	if err := rdb.Close(); err != nil {
		zapLogger.Warn("error closing redis connection", zap.Error(err))
	}

	zapLogger.Info("server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which
	// the snapshot repository relies on for conflict detection.
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Orderbook{},
		&models.ExecutedTrade{},
		&models.DaySnapshot{},
	); err != nil {
		return err
	}

	// AutoMigrate cannot express a partial unique index, so the one-active-
	// snapshot-per-day constraint is created directly.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_day_stats_active
		ON journal_day_stats (user_id, trading_date)
		WHERE is_superseded = false`).Error
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
