package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthshare/vault-service/internal/advisor"
	"github.com/hearthshare/vault-service/internal/auth"
	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/handler"
	"github.com/hearthshare/vault-service/internal/hub"
	"github.com/hearthshare/vault-service/internal/registry"
	"github.com/hearthshare/vault-service/internal/resolver"
	"github.com/hearthshare/vault-service/internal/session"
	"github.com/hearthshare/vault-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := log.L()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	l := log.L()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	l.Info().Str("address", addr).Msg("starting vault service")

	// Registry: Redis when configured, noop otherwise.
	var reg registry.Registry = registry.NewNoop()
	if cfg.Redis.Address != "" {
		redisReg, err := registry.NewRedisRegistry(cfg.Redis, addr)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize redis registry")
		}
		reg = redisReg
		l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}
	defer reg.Close()

	// Resolver: advisory when an advisor URL is configured, otherwise
	// the deterministic proportional fallback.
	var adv resolver.Advisor
	if cfg.Advisor.URL != "" {
		adv = advisor.NewHTTP(cfg.Advisor.URL)
		l.Info().Str("url", cfg.Advisor.URL).Msg("advisory resolution enabled")
	} else {
		l.Info().Msg("advisory resolution disabled, using fallback strategy")
	}
	res := resolver.New(adv, cfg.Advisor.Timeout)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	store := session.NewStore(cfg.Vault, res, wsHub, reg)
	defer store.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reg.StartHeartbeat(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start registry heartbeat")
	}

	authManager := auth.NewManager(cfg.Auth.SigningKey, cfg.Auth.Issuer)
	wsHandler := handler.NewWSHandler(wsHub, store, authManager, cfg.WebSocket)
	tokenHandler := handler.NewTokenHandler(authManager, cfg.Vault)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)
	tokenHandler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      log.HTTPMiddleware(l)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("address", addr).Msg("vault service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down vault service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("server error")
	}

	l.Info().Msg("vault service stopped")
}
