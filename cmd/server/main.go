package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/api/handler"
	"github.com/DRegan-dev/downward/internal/api/router"
	"github.com/DRegan-dev/downward/internal/repository"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/database"
	"github.com/DRegan-dev/downward/pkg/jwt"
	applogger "github.com/DRegan-dev/downward/pkg/logger"
	"github.com/DRegan-dev/downward/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// 1. configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting downward",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. Redis, optional: without it logout revocation and the stats cache are
	// off and rate limiting is per process
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without it", zap.Error(err))
			rdb = nil
		}
	}

	// 5. JWT
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)
	h := handler.NewHandler(cfg, svc)

	if cfg.Auth.BootstrapAdmin.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := svc.Auth.EnsureSuperuser(ctx, cfg.Auth.BootstrapAdmin)
		cancel()
		if err != nil {
			logger.Fatal("bootstrap superuser", zap.Error(err))
		}
	}

	// 7. routes
	engine := router.Setup(cfg, h, jwtMgr, rdb, svc.Authz, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
