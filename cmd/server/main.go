package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-backend-go/internal/backup"
	"hostel-backend-go/internal/config"
	httpapi "hostel-backend-go/internal/http"
	"hostel-backend-go/internal/logging"
	"hostel-backend-go/internal/services"
	"hostel-backend-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfgPath := os.Getenv("HOSTEL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logger, closeLogs, err := logging.Setup(logging.Config{
		Level:         cfg.LogLevel,
		Pretty:        cfg.LogPretty,
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("logger setup")
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Options{Driver: cfg.StoreDriver, Path: cfg.StorePath, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("store close")
		}
	}()

	secret := cfg.JWTSecret
	if secret == "" {
		// Only reachable with the memory store; tokens die with the process.
		secret, err = services.GeneratePassword(48)
		if err != nil {
			logger.Fatal().Err(err).Msg("jwt secret")
		}
		logger.Warn().Msg("JWT_SECRET not set, using a random secret")
	}
	tokens := services.TokenService{
		Secret:    []byte(secret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}

	metrics := httpapi.NewMetrics()
	svc := services.New(st, tokens, metrics, logger)
	svc.Backups, err = backup.Open(ctx, backup.Config{
		Driver:    cfg.BackupDriver,
		Root:      cfg.BackupFSRoot,
		Bucket:    cfg.BackupS3Bucket,
		Region:    cfg.BackupS3Region,
		Endpoint:  cfg.BackupS3Endpoint,
		PathStyle: cfg.BackupS3PathStyle,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.BackupDriver).Msg("backup store")
	}
	if cfg.SeedDefaults {
		if err := svc.EnsureDefaults(ctx); err != nil {
			logger.Fatal().Err(err).Msg("seed")
		}
	}
	if summary, err := svc.OccupancySummary(ctx); err == nil {
		metrics.Occupancy(summary.OccupiedBeds, summary.AvailableBeds)
	}

	hub := services.NewOccupancyHub(cfg.OccupancyHistorySize)
	server := httpapi.NewServer(svc, cfg, hub, metrics, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return hub.Run(gctx) })
	group.Go(func() error {
		interval := time.Duration(cfg.OccupancySampleSeconds) * time.Second
		return svc.RunSampler(gctx, hub, interval, cfg.MetricsDiskPath)
	})
	group.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Str("store", cfg.StoreDriver).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("shutdown complete")
}
