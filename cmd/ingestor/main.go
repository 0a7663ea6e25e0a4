package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"flex_reviews/internal/adapters/mockfeed"
	"flex_reviews/internal/adapters/observability"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/shared"
	mysqlrepo "flex_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Int("places", len(cfg.PlaceMappings)).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	feed := mockfeed.New()
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(feed, feed, cfg.PlaceMappings, repo, cache)

	// primary feed first, then the mapped places fan out over workers
	n, err := ing.IngestHostaway(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("primary feed ingest failed")
	}
	log.Info().Int("reviews", n).Msg("primary feed ingested")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, slug := range ing.MappedSlugs() {
		slug := slug

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(listing string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := ing.IngestPlace(ctx, listing)
			if err != nil {
				log.Warn().Str("listing", listing).Err(err).Msg("place ingest failed")
				return
			}
			log.Info().Str("listing", listing).Int("reviews", n).Msg("place ingest ok")
		}(slug)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
