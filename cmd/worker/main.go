package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/logging"
	"classattend/internal/queue"
	"classattend/internal/store"
	"classattend/internal/worker"
)

// Worker consumes recorded events from redis and rebuilds the monthly
// report cache of the affected class.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With("component", "worker")
	slog.SetDefault(log)

	if cfg.QueueBackend != "redis" || cfg.RedisDisabled {
		log.Error("worker needs QUEUE_BACKEND=redis and redis enabled")
		os.Exit(1)
	}
	if cfg.StoreBackend == "memory" {
		log.Error("worker needs a shared store; set STORE_BACKEND to postgres or sqlite")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg.StoreBackend, cfg.StoreDSN())
	if err != nil {
		log.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	reports := attendance.NewReports(st, log).
		WithCache(store.NewReportCache(redisClient.Client, cfg.ReportCacheTTL))

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	if err := worker.NewWarmer(reports, log).Run(ctx, q); err != nil {
		log.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
