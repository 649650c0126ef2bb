// YuePai 月度排班引擎服务
// 主程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/yuepai/yuepai/internal/config"
	"github.com/yuepai/yuepai/internal/database"
	"github.com/yuepai/yuepai/internal/handler"
	"github.com/yuepai/yuepai/internal/metrics"
	"github.com/yuepai/yuepai/internal/middleware"
	"github.com/yuepai/yuepai/internal/repository"
	"github.com/yuepai/yuepai/internal/security"
	"github.com/yuepai/yuepai/internal/tenant"
	"github.com/yuepai/yuepai/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	format := "console"
	if cfg.IsProduction() {
		format = "json"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("yuepai 排班引擎启动")

	// 数据库不可用时以无持久化模式继续运行，排班生成与分析不依赖数据库
	var rosters *repository.RosterRepository
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库连接失败，以无持久化模式运行")
	} else {
		defer db.Close()
		rosters = repository.NewRosterRepository(db)
	}

	rosterHandler := handler.NewRosterHandler(&cfg.Scheduler, rosters)
	statsHandler := handler.NewStatsHandler()
	swapHandler := handler.NewSwapHandler()

	apiKeys := security.NewAPIKeyManager()

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Timeout(cfg.API.Timeout))
	r.Use(chimw.RequestSize(cfg.API.RequestBodyMax))

	if cfg.Auth.Enabled {
		tenants := tenant.NewTenantManager()
		defaultTenant := tenant.CreateDefaultTenant()
		if err := tenants.Register(defaultTenant); err != nil {
			logger.Fatal().Err(err).Msg("默认租户注册失败")
		}
		if cfg.Auth.StaticKey != "" {
			apiKeys.RegisterStatic(cfg.Auth.StaticKey, defaultTenant.Code, "static", []string{security.ScopeAll})
		}
		r.Use(middleware.AuthMiddleware(&middleware.AuthConfig{
			APIKeyManager:   apiKeys,
			TenantManager:   tenants,
			RateLimiter:     security.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateWindow),
			SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
			EnableRateLimit: true,
		}))
		logger.Info().Msg("API密钥认证已启用")
	}

	// 系统端点
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		if db != nil {
			if err := db.Health(req.Context()); err != nil {
				status = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"%s","service":"yuepai"}`, status)
	})
	r.Get("/version", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})
	if cfg.Metrics.Enabled {
		r.Get(cfg.Metrics.Path, metrics.Handler().ServeHTTP)
	}

	// API v1（带密钥的请求按权限范围放行）
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rosters", func(r chi.Router) {
			r.With(middleware.RequireScope(security.ScopeRosterGenerate, apiKeys)).
				Post("/generate", rosterHandler.Generate)
			r.With(middleware.RequireScope(security.ScopeRosterRead, apiKeys)).
				Post("/audit", rosterHandler.Audit)
			r.With(middleware.RequireScope(security.ScopeRosterRead, apiKeys)).
				Get("/", rosterHandler.List)
			r.With(middleware.RequireScope(security.ScopeRosterRead, apiKeys)).
				Get("/{id}", rosterHandler.Get)
			r.With(middleware.RequireScope(security.ScopeRosterPublish, apiKeys)).
				Post("/{id}/publish", rosterHandler.Publish)
		})
		r.Route("/stats", func(r chi.Router) {
			r.Use(middleware.RequireScope(security.ScopeStats, apiKeys))
			r.Post("/fairness", statsHandler.Fairness)
			r.Post("/coverage", statsHandler.Coverage)
		})
		r.Route("/swaps", func(r chi.Router) {
			r.Use(middleware.RequireScope(security.ScopeSwaps, apiKeys))
			r.Post("/recommend", swapHandler.Recommend)
			r.Post("/evaluate", swapHandler.Evaluate)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      r,
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.App.Port).Msg("HTTP 服务监听中")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP 服务启动失败")
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("收到退出信号，正在关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务关闭超时")
	}
	logger.Info().Msg("服务已退出")
}
