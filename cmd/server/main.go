package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	authservice "cheerconnect/internal/auth/service"
	"cheerconnect/internal/auth/store/revocation"
	"cheerconnect/internal/connection"
	connectionstore "cheerconnect/internal/connection/store"
	"cheerconnect/internal/platform/config"
	"cheerconnect/internal/platform/httpserver"
	"cheerconnect/internal/platform/logger"
	"cheerconnect/internal/platform/metrics"
	platformredis "cheerconnect/internal/platform/redis"
	"cheerconnect/internal/storage"
	"cheerconnect/internal/team"
	teamservice "cheerconnect/internal/team/service"
	teamstore "cheerconnect/internal/team/store"
	"cheerconnect/pkg/platform/audit"
	auditmemory "cheerconnect/pkg/platform/audit/store/memory"
	auditpostgres "cheerconnect/pkg/platform/audit/store/postgres"
	auditworker "cheerconnect/pkg/platform/audit/worker"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores. Without a Postgres URL everything runs in memory, which is
	// enough for local development but loses state on restart.
	var (
		teamStore  teamservice.Store
		teamTx     teamservice.Tx
		auditStore audit.Store
	)

	var db *sql.DB
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		if err := storage.Apply(ctx, db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	if db != nil {
		teamStore = teamstore.NewPostgres(db)
		teamTx = newLifecyclePostgresTx(db)
		auditStore = auditpostgres.New(db)
	} else {
		memStore := teamstore.NewInMemory()
		teamStore = memStore
		teamTx = teamservice.NewLockedTx(memStore)
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("no postgres configured, using in-memory stores")
	}

	// Session revocation list: shared via Redis when configured, otherwise
	// process local.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var revocations authservice.RevocationList
	if redisClient != nil {
		revocations = revocation.NewRedisList(redisClient.Client)
		defer redisClient.Close()
	} else {
		revocations = revocation.NewMemoryList()
		log.Warn("no redis configured, using in-memory revocation list")
	}
	authSvc := authservice.New([]byte(cfg.Server.JWTSigningKey), revocations)

	emitter, inbox := audit.NewChannelEmitter(256)
	worker := auditworker.NewWorker(auditStore, inbox, log)

	teamSvc := team.NewService(teamStore, teamTx, m, emitter)
	teamHandler := team.NewHandler(teamSvc, log, m, authSvc)

	var connSvc *connection.Service
	if db != nil {
		connSvc = connection.NewService(connectionstore.NewPostgres(db), m, emitter)
	} else {
		connSvc = connection.NewService(connectionstore.NewInMemory(), m, emitter)
	}
	connHandler := connection.NewHandler(connSvc, log, m, authSvc)

	router := chi.NewRouter()
	teamHandler.Register(router)
	connHandler.Register(router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)
	metricsSrv := httpserver.New(cfg.Server.MetricsAddr, metricsRouter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics server", "addr", cfg.Server.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
