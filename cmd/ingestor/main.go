package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"skardu_hotels/internal/adapters/booking"
	"skardu_hotels/internal/adapters/observability"
	"skardu_hotels/internal/app"
	"skardu_hotels/internal/bootstrap"
	"skardu_hotels/internal/domain"
	"skardu_hotels/internal/shared"
	"skardu_hotels/internal/storage/artifacts"
	mysqlrepo "skardu_hotels/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve(cfg.MetricsAddr)

	log.Info().
		Str("raw_dir", cfg.RawDataDir).
		Str("processed_dir", cfg.ProcessedDataDir).
		Bool("scrape", cfg.ScrapeEnabled).
		Bool("dedupe", cfg.Dedupe).
		Msg("ingestor starting")

	// optional store; a literal nil keeps the interface nil
	var repo domain.HotelRepository
	if cfg.MySQLDSN != "" {
		db, err := bootstrap.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql unavailable")
		}
		defer db.Close()
		log.Info().Msg("db ping ok")
		repo = mysqlrepo.New(db)
	}
	var cache domain.Cache
	if c, ok := bootstrap.Cache(ctx, cfg); ok {
		defer c.Close()
		cache = c
	}

	var (
		scraper domain.Scraper
		raw     domain.RawSink
	)
	if cfg.ScrapeEnabled {
		scraper = booking.NewScraper(booking.New(cfg.BookingBaseURL, cfg.ScrapeRPS))
		raw = artifacts.NewRawStore(cfg.RawDataDir)
	}

	proc := app.NewProcessor(
		app.ProcessorOptions{RawDir: cfg.RawDataDir, Dedupe: cfg.Dedupe},
		artifacts.NewWriter(cfg.ProcessedDataDir),
		observability.NewReporter(log.Logger),
	)
	ing := app.NewIngestService(scraper, raw, proc, repo, cache)

	if cfg.ScrapeEnabled {
		cities, err := shared.LoadCities(cfg.CitiesFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.CitiesFile).Msg("load cities failed")
		}
		results, err := ing.ScrapeCities(ctx, app.ScrapeOptions{Cities: cities, Pages: cfg.ScrapePages, Workers: cfg.ScrapeWorkers})
		for _, r := range results {
			if r.Partial() {
				log.Warn().Str("city", r.City).Int("records", r.Records).Str("path", r.Path).Err(r.Err).Msg("scrape partial")
				continue
			}
			if r.Err != nil {
				log.Warn().Str("city", r.City).Err(r.Err).Msg("scrape failed")
				continue
			}
			log.Info().Str("city", r.City).Int("records", r.Records).Str("path", r.Path).Msg("scrape ok")
		}
		if err != nil {
			log.Fatal().Err(err).Msg("scraping interrupted")
		}
	}

	res, err := ing.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", res.RunID).Msg("ingestion failed")
	}
	log.Info().
		Str("run_id", res.RunID).
		Int("hotels", res.Hotels).
		Bool("stored", res.Stored).
		Msg("ingestion completed")
}
