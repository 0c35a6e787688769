package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/fenceyard/internal/config"
	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/handler"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/bitfantasy/fenceyard/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
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

	zapLogger.Info("Starting fenceyard service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 建表
	if err := db.AutoMigrate(
		&entity.Material{},
		&entity.BusinessUnit{},
		&entity.LaborCode{},
		&entity.LaborRate{},
		&entity.WoodVerticalProduct{},
		&entity.WoodHorizontalProduct{},
		&entity.IronProduct{},
		&entity.ProductLaborCost{},
		&entity.BOMProject{},
		&entity.ProjectMaterialLine{},
		&entity.ProjectLaborLine{},
		&entity.Yard{},
		&entity.YardSpot{},
		&entity.OperationLog{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// Redis（可选，未配置时标准成本缓存退化为直查）
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = initRedis(cfg.Redis)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, cost cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	// MinIO（可选，未配置时导出不归档）
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("MinIO unavailable, export archival disabled", zap.Error(err))
			minioClient = nil
		}
	}

	// 仓库、服务、处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, minioClient, cfg.MinIO.Bucket)
	handlers := handler.NewHandlers(services, repos)

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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
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

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 物料目录
		materials := v1.Group("/materials")
		{
			materials.GET("", h.Material.List)
			materials.POST("", h.Material.Create)
			materials.GET("/:sku", h.Material.Get)
			materials.PUT("/:sku", h.Material.Update)
		}

		// 工种与费率
		labor := v1.Group("/labor")
		{
			labor.GET("/codes", h.Labor.ListCodes)
			labor.POST("/codes", h.Labor.CreateCode)
			labor.GET("/business-units", h.Labor.ListBusinessUnits)
			labor.POST("/business-units", h.Labor.CreateBusinessUnit)
			labor.PUT("/rates", h.Labor.SetRate)
			labor.GET("/rates/:unitId", h.Labor.GetRateMap)
		}

		// 产品目录
		products := v1.Group("/products")
		{
			products.GET("/wood-vertical", h.Product.ListWoodVertical)
			products.POST("/wood-vertical", h.Product.CreateWoodVertical)
			products.GET("/wood-horizontal", h.Product.ListWoodHorizontal)
			products.POST("/wood-horizontal", h.Product.CreateWoodHorizontal)
			products.GET("/iron", h.Product.ListIron)
			products.POST("/iron", h.Product.CreateIron)
			products.GET("/eligible-posts", h.Product.EligiblePosts)
		}

		// 标准成本查询
		v1.GET("/product-costs/:fenceType/:sku", h.Product.StandardCost)
		v1.GET("/product-labor-costs/:sku", h.Product.LaborCosts)

		// 报价预览
		v1.POST("/calculator/preview", h.Calculator.Preview)

		// 标准成本重算
		v1.POST("/recalc", h.Recalc.RecalculateAll)

		// 实时事件流（重算进度、项目状态变化）
		v1.GET("/sse/events", h.SSE.Stream)

		// 项目
		projects := v1.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", h.Project.Create)
			projects.GET("/:id", h.Project.Get)
			projects.POST("/:id/advance", h.Project.Advance)
			projects.PUT("/:id/status", h.Project.SetStatus)
			projects.POST("/:id/partial-pickup", h.Project.CompletePartialPickup)
			projects.DELETE("/:id/partial-pickup", h.Project.ClearPartialPickup)
			projects.POST("/:id/revert-to-loaded", h.Project.RevertToLoaded)
			projects.POST("/:id/cancel", h.Project.Cancel)
			projects.POST("/:id/archive", h.Project.Archive)
			projects.POST("/:id/restore", h.Project.Restore)
			projects.PUT("/:id/manual-adjustment", h.Project.SetManualAdjustment)
			projects.GET("/:id/logs", h.Project.ListLogs)
			projects.GET("/:id/export", h.Project.ExportBOM)
		}

		// 项目行项（数量覆盖）
		v1.PUT("/project-material-lines/:lineId/quantity", h.Project.SetMaterialQuantity)
		v1.PUT("/project-labor-lines/:lineId/quantity", h.Project.SetLaborQuantity)

		// 捆组
		bundles := v1.Group("/bundles")
		{
			bundles.POST("", h.Bundle.Create)
			bundles.GET("/:id", h.Bundle.Get)
			bundles.POST("/:id/advance", h.Bundle.Advance)
			bundles.DELETE("/:id", h.Bundle.Unbundle)
		}

		// 子项目摘除
		v1.POST("/bundle-detach/:projectId", h.Bundle.DetachProject)

		// 库场
		yards := v1.Group("/yards")
		{
			yards.GET("", h.Yard.List)
			yards.POST("", h.Yard.Create)
			yards.GET("/:id/spots", h.Yard.ListSpots)
			yards.POST("/:id/spots", h.Yard.CreateSpot)
		}
	}
}
