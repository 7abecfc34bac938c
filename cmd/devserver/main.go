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

	"towerdefense/internal/app"
	"towerdefense/internal/config"
	"towerdefense/internal/logging"
	"towerdefense/internal/ports"
	"towerdefense/internal/store/memstore"
	"towerdefense/internal/store/redisstore"
	"towerdefense/internal/store/sqlstore"
	"towerdefense/internal/transport/httpapi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "path to configuration file (optional)")
	mintToken  = flag.String("mint-token", "", "print a bearer token for this owner id and exit")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tokens := httpapi.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if *mintToken != "" {
		token, err := tokens.Issue(*mintToken, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to mint token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting tower defense dev server",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, closeLedger, err := openLedger(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeLedger()

	service := app.NewService(cfg.Game.RequestGoldAmount, nil)
	exec := app.NewExecutor(service, ledger, logging.NewNotifier(logger), app.Settings{
		StartingGold: cfg.Game.StartingGold,
		MasterSeed:   cfg.Game.MasterSeed,
		Deployer:     cfg.Game.Deployer,
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(exec, ports.SystemClock{}, logger)
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpapi.NewRouter(handler, tokens, cfg.HTTP.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.HTTP.Address))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("dev server stopped")
}

func openLedger(ctx context.Context, cfg config.StorageConfig) (ports.LedgerPort, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memstore.New(), func() {}, nil
	case "redis":
		store, err := redisstore.Open(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		dialect, err := sqlstore.DialectFor(cfg.Driver)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlstore.Open(dialect, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
