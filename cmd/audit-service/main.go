package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lot-bidding/internal/config"
	"lot-bidding/internal/domain"
	"lot-bidding/internal/infrastructure/leader"
	"lot-bidding/internal/infrastructure/memory"
	"lot-bidding/internal/infrastructure/mysql"
	"lot-bidding/internal/infrastructure/redis"
	"lot-bidding/internal/services"
	"lot-bidding/pkg/logger"
	"lot-bidding/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
)

const leadershipInterval = 10 * time.Second

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
	log.Info("Starting audit service", "instance_id", cfg.Instance.ID, "schedule", cfg.Audit.Schedule)

	if cfg.Storage.Backend != "mysql" {
		log.Error("The audit service needs the mysql storage backend", "storage", cfg.Storage.Backend)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

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

	var locks domain.LockManager
	switch cfg.Lock.Backend {
	case "redis":
		locks = redis.NewRedisLotLockManager(rdb, cfg.Lock.TTL, cfg.Lock.Renew, log)
	case "memory":
		log.Warn("Repairs are not serialized with bids under the memory lock backend")
		locks = memory.NewLotLockManager(cfg.Lock.TTL)
	}

	leaderElection := leader.NewRedisLeaderElection(rdb, leader.DefaultLeaderKey, cfg.Leader.TTL, log)
	auditor := services.NewLedgerAuditor(
		cfg.Audit.Schedule,
		mysql.NewMySQLSettlementLedger(db),
		locks,
		leaderElection,
		cfg.Instance.ID,
		cfg.Audit.Repair,
		log,
	)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := auditor.Start(runCtx); err != nil {
		log.Error("Failed to start ledger auditor", "error", err)
		os.Exit(1)
	}

	// Try to become leader
	go func() {
		ticker := time.NewTicker(leadershipInterval)
		defer ticker.Stop()

		for {
			became, err := leaderElection.BecomeLeader(runCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
			} else if became {
				log.Info("Became audit leader", "instance_id", cfg.Instance.ID)
			}

			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down audit service...")
	stop()

	if err := auditor.Stop(); err != nil {
		log.Error("Failed to stop ledger auditor", "error", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := rdb.Close(); err != nil {
		log.Error("Failed to close Redis client", "error", err)
	}

	log.Info("Audit service stopped")
}
