package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	server "flex_reviews/internal/adapters/http_server"
	"flex_reviews/internal/adapters/mockfeed"
	"flex_reviews/internal/adapters/observability"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/shared"
	"flex_reviews/internal/storage/selection"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// deps
	feed := mockfeed.New()
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	selections := selection.New(cfg.SelectionsPath)
	q := app.NewReviewQueryService(feed, feed, cfg.PlaceMappings, selections, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.HTTPRps)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, Selections: selections})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
