package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "skardu_hotels/internal/adapters/http_server"
	"skardu_hotels/internal/adapters/observability"
	"skardu_hotels/internal/app"
	"skardu_hotels/internal/bootstrap"
	"skardu_hotels/internal/domain"
	"skardu_hotels/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	src, err := bootstrap.LoadHotels(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load hotels failed")
	}
	defer src.Close()
	log.Info().Str("origin", src.Origin).Int("hotels", len(src.Hotels)).Msg("hotels loaded")

	backend, err := bootstrap.NewSearchBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("search backend")
	}
	var cache domain.Cache
	if c, ok := bootstrap.Cache(ctx, cfg); ok {
		defer c.Close()
		cache = c
	}

	// deps
	search := app.NewSearchService(backend.Embedder, backend.Index, cache, backend.Answerer, cfg.CacheTTL)
	search.SetDefaultK(cfg.SearchTopK)
	if err := search.Index(ctx, src.Hotels); err != nil {
		log.Fatal().Err(err).Msg("index hotels failed")
	}
	log.Info().
		Str("embedder", backend.Embedder.Name()).
		Str("index", cfg.VectorIndex).
		Bool("answers", backend.Answerer != nil).
		Msg("search index ready")
	hotels := app.NewHotelService(src.Repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(log.Logger, 0)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Hotels: hotels, Search: search})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(sctx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
