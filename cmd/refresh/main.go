// Command refresh runs the daily stay refresh once for every PMS, outside
// the scheduler.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"
	_ "time/tzdata"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"pms_sync/internal/adapters/mews"
	"pms_sync/internal/adapters/observability"
	redisad "pms_sync/internal/adapters/redis"
	"pms_sync/internal/app"
	"pms_sync/internal/shared"
	mysqlrepo "pms_sync/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Str("base", cfg.MewsBase).Msg("refresh starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	gw, err := mews.New(cfg.MewsBase, cfg.MewsKey, cfg.MewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Mews client")
	}
	zone, err := time.LoadLocation(cfg.RefreshTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.RefreshTimezone).Msg("refresh timezone")
	}
	registry := app.NewRegistry(app.NewMews(gw, repo, cache, nil, cfg.BreakfastTTL).WithLocation(zone))

	failed := false
	for _, p := range registry.All() {
		if err := p.UpdateTomorrowsStays(ctx); err != nil {
			log.Warn().Str("pms", p.Name()).Err(err).Msg("refresh failed")
			failed = true
			continue
		}
		log.Info().Str("pms", p.Name()).Msg("refresh ok")
	}
	if failed {
		os.Exit(1)
	}
	log.Info().Msg("refresh completed")
}
