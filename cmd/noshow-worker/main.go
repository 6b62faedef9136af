package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitbook/trainer-booking/internal/booking"
	"github.com/fitbook/trainer-booking/internal/config"
	"github.com/fitbook/trainer-booking/internal/db"
	redisclient "github.com/fitbook/trainer-booking/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	pol, err := cfg.BookingPolicy()
	if err != nil {
		log.Fatalf("booking policy error: %v", err)
	}

	log.Printf("running no-show sweep in env=%s interval=%s grace=%s", cfg.Env, cfg.NoShowPoll, cfg.NoShowGrace)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisTrainerLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, locker, pol)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.NoShowGrace)

	ticker := time.NewTicker(cfg.NoShowPoll)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping no-show worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.NoShowGrace)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, grace time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	swept, err := svc.SweepNoShows(runCtx, grace)
	if err != nil {
		log.Printf("no-show sweep error: %v", err)
		return
	}
	log.Printf("no-show sweep complete swept=%d in %s", swept, time.Since(start))
}
