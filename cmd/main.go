package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Viargos/Backend-sub000/internal/app/registry"
	"github.com/Viargos/Backend-sub000/internal/app/server"
	"github.com/Viargos/Backend-sub000/internal/app/server/handlers"
	"github.com/Viargos/Backend-sub000/internal/config"
	"github.com/Viargos/Backend-sub000/internal/core/services"
	"github.com/Viargos/Backend-sub000/internal/metrics"
	"github.com/Viargos/Backend-sub000/internal/platform/logger"
	"github.com/Viargos/Backend-sub000/internal/platform/telemetry"
	"github.com/Viargos/Backend-sub000/internal/plugins/postgres"
	redisPlugin "github.com/Viargos/Backend-sub000/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting messaging gateway")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	pdb, err := postgres.New(ctx, *cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")

	rdb, err := redisPlugin.NewRedisClient(ctx, *cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Collaborators
	msgStore := postgres.NewMessageRepo(pdb)
	userDir := postgres.NewUserRepo(pdb)
	presStore := redisPlugin.NewRedisPresenceStore(rdb)

	// Core
	collector := metrics.NewCollector()
	hub := registry.NewRegistry()
	tokenSvc := services.NewTokenService(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.TTL)
	presenceSvc := services.NewPresenceService(log, hub, presStore)
	routerSvc := services.NewRouterService(log, msgStore, userDir, hub, collector)

	// Server
	wsHandler := handlers.NewWSHandler(log, hub, presenceSvc, routerSvc, collector, *cfg.Gateway)
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, tokenSvc, wsHandler, collector, cfg.Gateway.AuthWindow)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", "err", err)
	}
}
