package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lot-bidding/internal/api/handlers"
	"lot-bidding/internal/api/middleware"
	"lot-bidding/internal/config"
	"lot-bidding/internal/domain"
	"lot-bidding/internal/infrastructure/memory"
	"lot-bidding/internal/infrastructure/mysql"
	"lot-bidding/internal/infrastructure/redis"
	"lot-bidding/internal/infrastructure/websocket"
	"lot-bidding/internal/services"
	"lot-bidding/pkg/logger"
	"lot-bidding/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	configPath := flag.String("config", "", "path to a config file")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
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
	log.Info("Starting bidding service", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Storage
	var (
		lots   domain.LotRepository
		ledger domain.SettlementLedger
	)
	switch cfg.Storage.Backend {
	case "mysql":
		db, err := utils.InitializeMysql(ctx, cfg.MySQL)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}()
		log.Info("Connected to MySQL")

		if *migrateOnly {
			if err := mysql.Migrate(db); err != nil {
				log.Error("Failed to apply migrations", "error", err)
				os.Exit(1)
			}
			log.Info("Migrations applied")
			return
		}

		lots = mysql.NewMySQLLotRepository(db)
		ledger = mysql.NewMySQLSettlementLedger(db)
	case "memory":
		if *migrateOnly {
			log.Error("Migrations need the mysql storage backend")
			os.Exit(1)
		}
		store := memory.NewLotStore()
		lots, ledger = store, store
	}

	if cfg.Auth.JWTSecret == "" {
		log.Error("auth.jwt_secret is required")
		os.Exit(1)
	}

	var rdb *redisClient.Client
	if cfg.Lock.Backend == "redis" || cfg.Notify.Backend == "redis" {
		rdb = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)
	}

	// Lot lock
	var locks domain.LockManager
	switch cfg.Lock.Backend {
	case "redis":
		locks = redis.NewRedisLotLockManager(rdb, cfg.Lock.TTL, cfg.Lock.Renew, log)
	case "memory":
		locks = memory.NewLotLockManager(cfg.Lock.TTL)
	}

	// Broadcast
	var (
		notifier    domain.Notifier
		connManager *websocket.ConnectionManager
		wsServer    *http.Server
	)
	switch cfg.Notify.Backend {
	case "redis":
		notifier = redis.NewEventPublisher(rdb)
	case "websocket":
		connManager = websocket.NewConnectionManager(log)
		notifier = websocket.NewWebSocketNotifier(connManager)
		wsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Broadcast.Host, cfg.Broadcast.Port),
			Handler: websocket.NewRouter(websocket.NewWebSocketHandler(connManager, log), middleware.CORSWithLogging(log)),
		}
	}

	bidService := services.NewBidService(
		locks,
		lots,
		ledger,
		services.NewLotBidValidator(time.Now),
		notifier,
		cfg.Notify.Timeout,
		log,
	)
	adminService := services.NewLotAdminService(locks, lots, ledger, notifier, log)

	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestID())
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))

	handlers.RegisterRoutes(e,
		handlers.NewBidHandler(bidService, log),
		handlers.NewAdminHandler(adminService, log),
		[]byte(cfg.Auth.JWTSecret),
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting bidding server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	if wsServer != nil {
		go func() {
			log.Info("Starting websocket server", "address", wsServer.Addr)
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Websocket server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if wsServer != nil {
		connManager.CloseAll()
		if err := wsServer.Shutdown(ctx); err != nil {
			log.Error("Websocket server forced to shutdown", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}

	log.Info("Bidding service stopped")
}
