package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "pms_sync/internal/adapters/http_server"
	kafkaad "pms_sync/internal/adapters/kafka"
	"pms_sync/internal/adapters/mews"
	"pms_sync/internal/adapters/observability"
	redisad "pms_sync/internal/adapters/redis"
	"pms_sync/internal/app"
	"pms_sync/internal/domain"
	"pms_sync/internal/scheduler"
	"pms_sync/internal/shared"
	mysqlrepo "pms_sync/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	zone, err := time.LoadLocation(cfg.RefreshTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.RefreshTimezone).Msg("refresh timezone")
	}

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	var pub domain.ChangePublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkaad.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing stay changes")
	}

	gw, err := mews.New(cfg.MewsBase, cfg.MewsKey, cfg.MewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Mews client")
	}
	registry := app.NewRegistry(
		app.NewMews(gw, repo, cache, pub, cfg.BreakfastTTL).WithLocation(zone),
	)

	// scheduler
	var jobs []scheduler.Job
	for _, p := range registry.All() {
		jobs = append(jobs, scheduler.Job{Name: p.Name(), Run: p.UpdateTomorrowsStays})
	}
	sched, err := scheduler.New(cfg.RefreshSchedule, cfg.RefreshTimezone, time.Hour, jobs...)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}
	sched.Start()
	log.Info().Time("next", sched.Next()).Str("tz", cfg.RefreshTimezone).Msg("daily refresh scheduled")

	// http
	srv := server.New(60 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{PMS: registry, Store: repo})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics shutdown")
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler did not stop in time")
	}
}
