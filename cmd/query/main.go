package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"skardu_hotels/internal/adapters/observability"
	"skardu_hotels/internal/adapters/tui"
	"skardu_hotels/internal/app"
	"skardu_hotels/internal/bootstrap"
	"skardu_hotels/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// the TUI owns the terminal; only errors go to stderr
	log.Logger = observability.NewLogger(cfg.AppEnv).Level(zerolog.ErrorLevel)

	src, err := bootstrap.LoadHotels(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load hotels failed; run the ingestor first")
	}
	defer src.Close()

	backend, err := bootstrap.NewSearchBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("search backend")
	}
	search := app.NewSearchService(backend.Embedder, backend.Index, nil, backend.Answerer, cfg.CacheTTL)
	if err := search.Index(ctx, src.Hotels); err != nil {
		log.Fatal().Err(err).Msg("index hotels failed")
	}

	summary := fmt.Sprintf("%d hotels from %s · embedder %s", len(src.Hotels), src.Origin, backend.Embedder.Name())
	p := tea.NewProgram(tui.New(search, summary, cfg.SearchTopK), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui:", err)
		os.Exit(1)
	}
}
