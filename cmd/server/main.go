package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/database"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/middleware"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/blues/smartfarmer/internal/router"
	"github.com/blues/smartfarmer/internal/scheduler"
	"github.com/blues/smartfarmer/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.Secret == "" {
		logger.Fatal("auth.secret must be set")
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	store := repository.NewGormStore(db, cfg.Investment)

	// 项目图片存储，未配置时不启用上传
	var images logic.ImageStore
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize object storage: %v", err)
		}
		images = s3Store
	} else {
		logger.Warn("Object storage not configured, project image upload disabled")
	}

	if cfg.Payment.SecretKey == "" {
		logger.Warn("payment.secret_key not set, payment webhooks will be rejected")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		DB:       db,
		Store:    store,
		Images:   images,
		Verifier: middleware.NewJWTVerifier(cfg.Auth.Secret),
		Config:   cfg,
	})

	// 启动定时任务
	payout := logic.NewPayoutLogic(store, logic.WithWorkers(cfg.Payout.Workers))
	tasks, err := scheduler.Start(db, store, payout, cfg)
	if err != nil {
		logger.Fatal("Failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	tasks.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server exited")
}
