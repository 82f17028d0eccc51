package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	adapthttp "physquiz/internal/adapter/http"
	"physquiz/internal/adapter/memory"
	"physquiz/internal/adapter/postgres"
	"physquiz/internal/adapter/rediscache"
	"physquiz/internal/adapter/sqlite"
	"physquiz/internal/app"
	"physquiz/internal/catalog"
	"physquiz/internal/config"
	"physquiz/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = store.Close() }()

	var cache domain.LeaderboardCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("leaderboard cache disabled: %v", err)
		} else {
			defer func() { _ = client.Close() }()
			cache = rediscache.New(client, "physquiz:", cfg.CacheTTL)
		}
	}

	leaderboard := app.NewLeaderboardService(store, cache)
	accounts := app.NewAccountService(store, app.NewBcryptVerifier(cfg.BcryptCost), nil).WithLeaderboard(leaderboard)
	rounds := app.NewRoundService(store, store, catalog.New(), leaderboard, nil)
	tokens := app.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL, nil)

	srv := adapthttp.New(accounts, rounds, tokens, cfg.WebDir)
	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			log.Fatalf("sso: %v", err)
		}
		srv.WithOIDC(oidcCfg)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s (store=%s)", cfg.Addr, cfg.StoreDriver)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func openStore(cfg config.Config) (domain.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DatabaseURL)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.SQLitePath)
	}
}
