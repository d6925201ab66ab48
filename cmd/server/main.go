package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "teamchat/internal/app"
	httpx "teamchat/internal/http"
	store "teamchat/internal/store"
	ws "teamchat/internal/ws"
	"teamchat/pkg/auth"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres connection + migrations
	pg, err := store.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("postgres connect", "err", err)
		log.Fatal(err)
	}
	defer pg.Close()
	if err := store.RunMigrations(ctx, pg, logger); err != nil {
		logger.Error("migrations", "err", err)
		log.Fatal(err)
	}

	// Redis bus for cross-instance fan-out; optional for single instance
	var bus *ws.RedisBus
	if cfg.RedisAddr != "" {
		bus, err = ws.NewRedisBus(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
	}

	// Realtime hub
	j := auth.New(cfg.JWTSecret)
	hub := ws.NewHub(logger, httpx.WSAuth(j), bus, ws.Options{
		TypingTTL:    cfg.TypingTTL,
		SweepEvery:   cfg.TypingSweep,
		EchoToSender: cfg.EchoToSender,
	})
	go hub.Run(ctx)

	// HTTP server
	handler := httpx.NewRouter(cfg, logger, hub, pg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.listen", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http.serve", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown.begin")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	logger.Info("shutdown.done")
}
