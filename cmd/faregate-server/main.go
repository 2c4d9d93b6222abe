// Command faregate-server runs the gate event processor and its HTTP API.
// Wiring only; no business logic lives here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrations

	"github.com/Cythina1106/faregate/internal/config"
	"github.com/Cythina1106/faregate/internal/db"
	"github.com/Cythina1106/faregate/internal/faregate/cache"
	"github.com/Cythina1106/faregate/internal/faregate/fare"
	"github.com/Cythina1106/faregate/internal/faregate/service"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/store/memory"
	"github.com/Cythina1106/faregate/internal/faregate/store/postgres"
	sqlitestore "github.com/Cythina1106/faregate/internal/faregate/store/sqlite"
	"github.com/Cythina1106/faregate/internal/faregate/types"
	"github.com/Cythina1106/faregate/internal/httpapi"
	"github.com/Cythina1106/faregate/internal/tracing"
)

func main() {
	cfg := config.FromEnv()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracing.Init(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.JaegerEndpoint,
		ServiceName: "faregate-server",
		Environment: cfg.Env,
	}); err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}

	// Fare table: configured rules file, or the built-in dev set.
	var fares *fare.Table
	if cfg.FaresPath != "" {
		t, err := fare.LoadFile(cfg.FaresPath, cfg.DefaultFareCents)
		if err != nil {
			logger.Error("fare table load failed", "path", cfg.FaresPath, "error", err)
			os.Exit(1)
		}
		fares = t
	} else {
		fares = fare.New(fare.DefaultRules(), cfg.DefaultFareCents)
	}
	logger.Info("fare table loaded", "rules", fares.Len(), "default_fare_cents", cfg.DefaultFareCents)

	// Gate cache: Redis when configured, in-process otherwise.
	var gateCache cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("redis connect failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		gateCache = rc
	} else {
		gateCache = cache.NewInMemoryCache()
	}

	ledger, riders, gates, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := service.NewGateRegistry(gates, gateCache, time.Duration(cfg.GateCacheTTLSecs)*time.Second)

	bus := service.NewEventBus()
	bus.Subscribe(func(ctx context.Context, ev types.TripEvent) {
		if !ev.Successful() {
			logger.WarnContext(ctx, "tap rejected",
				"outcome", ev.Outcome,
				"rider_id", ev.RiderID,
				"gate_id", ev.GateID,
				"detail", ev.Detail,
			)
		}
	})
	processor := service.NewProcessor(registry, riders, ledger, fares, logger, bus)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:      logger,
		Addr:        cfg.HTTPAddr,
		Processor:   processor,
		Gates:       registry,
		Riders:      riders,
		Ledger:      ledger,
		CORSOrigins: cfg.CORSOrigins,
		Tracing:     cfg.TracingEnabled,
	})

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = tracing.Shutdown(shutdownCtx)
}

// buildStores constructs the store set selected by FAREGATE_STORAGE and
// returns a cleanup function releasing whatever it opened.
func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.LedgerStore, store.RiderStore, store.GateStore, func(), error) {
	switch cfg.Storage {
	case "memory":
		gates, riders := devFixtures()
		return memory.NewLedgerStore(), memory.NewRiderStore(riders), memory.NewGateStore(gates), func() {}, nil

	case "postgres":
		// goose speaks database/sql; the stores run on a pgxpool.
		mdb, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := postgres.Migrate(mdb); err != nil {
			mdb.Close()
			return nil, nil, nil, nil, err
		}
		mdb.Close()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		return postgres.NewLedgerStore(pool), postgres.NewRiderStore(pool), postgres.NewGateStore(pool),
			func() { pool.Close() }, nil

	default: // sqlite
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, conn); err != nil {
				logger.Warn("dev seed failed", "error", err)
			}
		}
		writer := db.NewWorker(conn)
		cleanup := func() {
			writer.Close()
			conn.Close()
		}
		return sqlitestore.NewLedgerStore(conn, writer), sqlitestore.NewRiderStore(conn, writer),
			sqlitestore.NewGateStore(conn), cleanup, nil
	}
}
