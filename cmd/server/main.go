package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/config"
	"github.com/inkhaus/pressflow/internal/handler"
	"github.com/inkhaus/pressflow/internal/middleware"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/inkhaus/pressflow/internal/service"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting pressflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 工单
		jobs := authorized.Group("/jobs")
		{
			jobs.GET("", h.Job.List)
			jobs.POST("", h.Job.Create)
			jobs.GET("/:id", h.Job.Get)
			jobs.PATCH("/:id", h.Job.Update)
			jobs.DELETE("/:id", h.Job.Delete)
			jobs.POST("/:id/transition", h.Job.Transition)
			jobs.GET("/:id/activities", h.Job.ListActivities)

			// 稿样
			jobs.GET("/:id/proofs", h.Proof.ListByJob)
			jobs.POST("/:id/proofs", h.Proof.Upload)
			jobs.POST("/:id/proofs/upload", h.Proof.UploadFile)

			// 质检与发货
			jobs.GET("/:id/qc", h.QC.ListRecords)
			jobs.POST("/:id/qc", h.QC.LogRecord)
			jobs.POST("/:id/qc/photo", h.QC.UploadPhoto)
			jobs.GET("/:id/shipments", h.QC.ListShipments)
			jobs.POST("/:id/shipments", h.QC.CreateShipment)
			jobs.GET("/:id/press-setup", h.QC.GetPressSetup)
			jobs.PUT("/:id/press-setup", h.QC.SavePressSetup)
		}

		// 稿样审批
		proofs := authorized.Group("/proofs")
		{
			proofs.POST("/:id/decide", h.Proof.Decide)
			proofs.POST("/:id/supersede", h.Proof.Supersede)
			proofs.GET("/:id/download", h.Proof.Download)
		}

		// 扫码网关
		authorized.POST("/scan", h.Scan.Scan)
		authorized.GET("/scan", h.Scan.Lookup)

		// 客户
		clients := authorized.Group("/clients")
		{
			clients.GET("", h.Client.List)
			clients.POST("", h.Client.Create)
			clients.GET("/:id", h.Client.Get)
			clients.PUT("/:id", h.Client.Update)
			clients.DELETE("/:id", h.Client.Delete)
		}

		// 用户目录
		users := authorized.Group("/users")
		{
			users.GET("", h.Client.ListUsers)
			users.GET("/:id", h.Client.GetUser)
		}

		// 库存
		inventory := authorized.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.POST("", h.Inventory.Create)
			inventory.GET("/stats", h.Inventory.Stats)
			inventory.GET("/categories", h.Inventory.ListCategories)
			inventory.GET("/:id", h.Inventory.Get)
			inventory.PUT("/:id", h.Inventory.Update)
			inventory.DELETE("/:id", h.Inventory.Delete)
			inventory.POST("/:id/transactions", h.Inventory.AddTransaction)
		}

		// 报表
		reports := authorized.Group("/reports")
		{
			reports.GET("", h.Report.Get)
			reports.GET("/export", h.Report.Export)
		}
	}
}
