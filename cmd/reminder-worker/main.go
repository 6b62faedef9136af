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
	"github.com/fitbook/trainer-booking/internal/notify"
	redisclient "github.com/fitbook/trainer-booking/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	pol, err := cfg.BookingPolicy()
	if err != nil {
		log.Fatalf("booking policy error: %v", err)
	}

	log.Printf("running reminder worker in env=%s interval=%s", cfg.Env, cfg.ReminderPoll)

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
	dispatcher := notify.LogDispatcher{}

	// Run once at startup
	runOnce(rootCtx, svc, dispatcher)

	ticker := time.NewTicker(cfg.ReminderPoll)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, dispatcher)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, dispatcher notify.Dispatcher) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	due, err := svc.DueReminders(runCtx)
	if err != nil {
		log.Printf("reminder poll error: %v", err)
		return
	}

	sent := 0
	for _, d := range due {
		if err := dispatcher.Dispatch(runCtx, d); err != nil {
			log.Printf("dispatch reminder for appointment %s: %v", d.Appointment.ID, err)
			continue
		}
		if err := svc.MarkReminderSent(runCtx, d.Appointment.ID, d.ReminderIndex); err != nil {
			log.Printf("mark reminder sent for appointment %s: %v", d.Appointment.ID, err)
			continue
		}
		sent++
	}

	log.Printf("reminder run complete due=%d sent=%d in %s", len(due), sent, time.Since(start))
}
