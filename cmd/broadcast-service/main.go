package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lot-bidding/internal/api/middleware"
	"lot-bidding/internal/config"
	"lot-bidding/internal/infrastructure/redis"
	"lot-bidding/internal/infrastructure/websocket"
	"lot-bidding/internal/services"
	"lot-bidding/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Error("Failed to load config", "error", err)
		_ = bootLog.Sync()
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	connManager := websocket.NewConnectionManager(log)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	eventListener := services.NewEventListener(connManager, log)

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	go func() {
		if err := eventListener.Start(listenCtx, eventSubscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event listener stopped", "error", err)
			os.Exit(1)
		}
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Broadcast.Host, cfg.Broadcast.Port),
		Handler: websocket.NewRouter(websocket.NewWebSocketHandler(connManager, log), middleware.CORSWithLogging(log)),
	}

	go func() {
		log.Info("Starting broadcast service", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down broadcast service...")
	stopListening()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connManager.CloseAll()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := rdb.Close(); err != nil {
		log.Error("Failed to close Redis client", "error", err)
	}

	log.Info("Broadcast service stopped")
}
