package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/internal/cache"
	"github.com/unusual9guy/square-cropper/internal/server"
	"github.com/unusual9guy/square-cropper/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the crop HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	var resultCache cache.Cache
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		defer redisCache.Close()
		resultCache = redisCache
	}

	handler := server.NewHandler(newCropper(cfg, logger), resultCache, cfg.Server.MaxUploadSize, logger)
	if redisCache != nil {
		handler.AddHealthCheck("redis", redisCache.Ping)
	}
	if cfg.Supabase.URL != "" {
		sink := storage.NewSupabaseSink(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
		handler.AddHealthCheck("supabase", sink.HealthCheck)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(handler, logger)
	if err := server.Run(ctx, ":"+cfg.Server.Port, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, logger); err != nil {
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
