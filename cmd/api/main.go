// Package main is the entry point for the mileage report API server.
// Its sole responsibility is wiring dependencies together and starting
// the server. No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/hanlin-tw/mileage-report/backend/internal/config"
	"github.com/hanlin-tw/mileage-report/backend/internal/gmaps"
	"github.com/hanlin-tw/mileage-report/backend/internal/handler"
	"github.com/hanlin-tw/mileage-report/backend/internal/mapstore"
	"github.com/hanlin-tw/mileage-report/backend/internal/middleware"
	"github.com/hanlin-tw/mileage-report/backend/internal/report"
	"github.com/hanlin-tw/mileage-report/backend/internal/repo"
	"github.com/hanlin-tw/mileage-report/backend/internal/service"
	"github.com/hanlin-tw/mileage-report/backend/migrations"
)

// maxRequestBodyBytes caps JSON and upload bodies. Batch requests carry
// at most a few hundred records; 12 MiB leaves room for the largest
// plausible spreadsheet upload.
const maxRequestBodyBytes = 12 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Alias table ------------------------------------------------------
	// With DATABASE_URL set, aliases live in Postgres and migrations run at
	// startup. Without it, the server falls back to an empty in-memory
	// table and every place name goes through geocoding.
	var aliases repo.AliasRepo
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}

		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		slog.Info("database connection established")

		aliases = repo.NewAliasRepo(pool)
	} else {
		slog.Info("no DATABASE_URL set, using in-memory alias table")
		aliases = repo.NewStaticAliasRepo(nil)
	}

	// --- Map store --------------------------------------------------------
	var store mapstore.Store
	if cfg.UseMinio() {
		store, err = mapstore.NewMinioStore(ctx, mapstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			slog.Error("failed to connect to object store", "error", err)
			os.Exit(1)
		}
		slog.Info("map store ready", "backend", "minio", "bucket", cfg.MinioBucket)
	} else {
		store, err = mapstore.NewFSStore(cfg.MapCacheDir)
		if err != nil {
			slog.Error("failed to create map cache directory", "error", err)
			os.Exit(1)
		}
		slog.Info("map store ready", "backend", "fs", "dir", cfg.MapCacheDir)
	}

	// --- Services ---------------------------------------------------------
	maps := gmaps.NewClient(cfg.GoogleMapsAPIKey)

	places, err := service.NewPlaceResolver(ctx, aliases, maps)
	if err != nil {
		slog.Error("failed to load alias table", "error", err)
		os.Exit(1)
	}

	policy := service.DefaultRetryPolicy()
	policy.MaxRetries = uint64(cfg.RetryMax)
	policy.BaseBackoff = cfg.RetryBackoff

	routes := service.NewRouteService(maps, store, policy)
	resolver := service.NewBatchResolver(places, routes, cfg.WorkerConcurrency)
	exports := service.NewExportService(resolver, report.NewWordAssembler(store))

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger →
	// Recoverer → CORS → body size cap.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBodyBytes))

	srvHandlers := handler.NewServer(resolver, exports, store)
	r.Mount("/", srvHandlers.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Write timeout is generous: batch resolution holds the request open
	// while routing calls run.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies embedded goose migrations through the database/sql pgx
// driver. goose wants *sql.DB, so it gets its own short-lived connection.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}
