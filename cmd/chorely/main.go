package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/chorely/internal/cache"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/logging"
	"github.com/dukerupert/chorely/internal/reminder"
	"github.com/dukerupert/chorely/internal/server"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var chores chore.ChoreStore = store.NewChoreStore(db)
	if cfg.CacheEnabled() {
		rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", "error", err)
		} else {
			defer rdb.Close()
			chores = store.NewCachedChoreStore(store.NewChoreStore(db), rdb, cfg.CacheTTL, logger)
			logger.Info("chore cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	loc := cfg.Location
	ctl := chore.NewController(
		chores,
		store.NewCompletionStore(db),
		chore.WithClock(chore.ClockFunc(func() time.Time { return time.Now().In(loc) })),
		chore.WithLogger(logger),
	)
	members := store.NewFamilyMemberStore(db)
	hub := websocket.NewHub(logger)

	srv := server.New(db, ctl, members, hub, server.Config{AllowedOrigins: cfg.AllowedOrigins}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.PINLimiter().Run(ctx)

	scheduler := reminder.NewScheduler(ctl, hub, reminder.Config{
		Interval: cfg.ReminderInterval,
		Hour:     cfg.ReminderHour,
		Now:      ctl.Now,
	}, logger)
	scheduler.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("Chorely running at http://localhost:%s", cfg.Port), "driver", cfg.Driver, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	scheduler.Stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
