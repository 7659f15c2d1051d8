// cmd/placementd/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"placement-core/internal/common/config"
	"placement-core/internal/common/database"
	"placement-core/internal/common/ids"
	"placement-core/internal/common/logger"
	"placement-core/internal/common/observability"
	"placement-core/internal/placement"
	"placement-core/internal/store/postgres"
	"placement-core/internal/store/rediscache"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting placementd...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	var cache *rediscache.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.New(rdb.Client, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}

	// Resume each id sequence past the highest id already stored, so a
	// restart never reissues an id.
	seedSequence := func(table, prefix string) *ids.Sequence {
		last, err := postgres.LastIssuedSequence(ctx, pg.DB, table, prefix)
		if err != nil {
			zapLog.Fatal("id sequence seed failed", zap.String("table", table), zap.Error(err))
		}
		zapLog.Info("id sequence seeded",
			zap.String("prefix", prefix), zap.Int("lastIssued", last))
		return ids.NewSequenceFrom(prefix, 5, last)
	}

	svc := placement.NewService(placement.Deps{
		Internships:    postgres.NewInternshipRepository(pg.DB, log),
		Applications:   postgres.NewApplicationRepository(pg.DB, log),
		Withdrawals:    postgres.NewWithdrawalRepository(pg.DB, log),
		InternshipIDs:  seedSequence("internships", "INT"),
		ApplicationIDs: seedSequence("applications", "APP"),
		WithdrawalIDs:  seedSequence("withdrawal_requests", "WDR"),
		Cache:          cache,
		Obs:            obs,
		Logger:         log,
	})
	// Warm the open-postings projection so the first reader hits the cache.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
		defer ticker.Stop()
		for {
			if _, err := svc.ListOpenInternships(ctx); err != nil {
				zapLog.Warn("open postings refresh failed", zap.Error(err))
			}
			<-ticker.C
		}
	}()

	// --- Metrics endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("placement core ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down")
}
